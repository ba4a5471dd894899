package equality

import (
	"ownc/internal/ids"
	"ownc/internal/ir"
)

// Instantiator renames a callee's published signature/profile into a fresh
// id space for one call site. Every var is renamed at most once per
// Instantiator instance (memoized), so repeated occurrences of the same
// callee var map to the same fresh var within this call - a literal port of
// Instantiator.instantiate's memoization.
type Instantiator struct {
	alloc     *ids.Allocator
	ownership map[ids.OwnershipVar]ids.OwnershipVar
	group     map[ids.GroupVar]ids.GroupVar
	borrows   map[ids.BorrowID]ids.BorrowID
}

// NewInstantiator returns an Instantiator that mints fresh ids from alloc.
func NewInstantiator(alloc *ids.Allocator) *Instantiator {
	return &Instantiator{
		alloc:     alloc,
		ownership: make(map[ids.OwnershipVar]ids.OwnershipVar),
		group:     make(map[ids.GroupVar]ids.GroupVar),
		borrows:   make(map[ids.BorrowID]ids.BorrowID),
	}
}

func (in *Instantiator) Ownership(v ids.OwnershipVar) ids.OwnershipVar {
	if !v.IsValid() {
		return v
	}
	if fresh, ok := in.ownership[v]; ok {
		return fresh
	}
	fresh := in.alloc.NextOwnership()
	in.ownership[v] = fresh
	return fresh
}

func (in *Instantiator) Group(v ids.GroupVar) ids.GroupVar {
	if !v.IsValid() {
		return v
	}
	if fresh, ok := in.group[v]; ok {
		return fresh
	}
	fresh := in.alloc.NextGroup()
	in.group[v] = fresh
	return fresh
}

// Borrow renames a borrow id. Per Instantiator.py, a borrow's witness set is
// not rewalked here - only the id token itself is renamed; the caller
// re-seeds the witness set after instantiation if it needs one.
func (in *Instantiator) Borrow(b ids.BorrowID) ids.BorrowID {
	if !b.IsValid() {
		return b
	}
	if fresh, ok := in.borrows[b]; ok {
		return fresh
	}
	fresh := in.alloc.NextBorrow()
	in.borrows[b] = fresh
	return fresh
}

func (in *Instantiator) TVI(info ids.TypeVariableInfo) ids.TypeVariableInfo {
	return ids.TypeVariableInfo{Ownership: in.Ownership(info.Ownership), Group: in.Group(info.Group)}
}

func (in *Instantiator) Member(m ir.MemberInfo) ir.MemberInfo {
	return ir.MemberInfo{
		Root:  in.Group(m.Root),
		Kind:  m.Kind,
		Index: m.Index,
		Info:  in.TVI(m.Info),
	}
}

// ExternalBorrow renames only the ownership var; instantiateFunctionOwnershipSignature
// leaves borrow.value (the id) for the caller's borrow-resolution pass.
func (in *Instantiator) ExternalBorrow(b ir.ExternalBorrow) ir.ExternalBorrow {
	return ir.ExternalBorrow{Ownership: in.Ownership(b.Ownership), Borrow: b.Borrow}
}

// FunctionSignature instantiates sig's args, result, members, borrows, and
// owners into this call site's fresh id space - a literal port of
// instantiateFunctionOwnershipSignature.
func (in *Instantiator) FunctionSignature(sig ir.FunctionOwnershipSignature) ir.FunctionOwnershipSignature {
	out := ir.FunctionOwnershipSignature{
		Name:   sig.Name,
		Result: in.TVI(sig.Result),
		Alloc:  in.alloc,
	}
	out.Args = make([]ids.TypeVariableInfo, len(sig.Args))
	for i, a := range sig.Args {
		out.Args[i] = in.TVI(a)
	}
	out.Members = make([]ir.MemberInfo, len(sig.Members))
	for i, m := range sig.Members {
		out.Members[i] = in.Member(m)
	}
	out.Borrows = make([]ir.ExternalBorrow, len(sig.Borrows))
	for i, b := range sig.Borrows {
		out.Borrows[i] = in.ExternalBorrow(b)
	}
	out.Owners = make([]ids.OwnershipVar, len(sig.Owners))
	for i, o := range sig.Owners {
		out.Owners[i] = in.Ownership(o)
	}
	return out
}

// Path instantiates one data-flow path's arg/result TVIs and member chains.
func (in *Instantiator) Path(p ir.DataFlowPath) ir.DataFlowPath {
	out := ir.DataFlowPath{
		Arg:    in.TVI(p.Arg),
		Result: in.TVI(p.Result),
		Index:  p.Index,
	}
	out.Src = make([]ir.MemberInfo, len(p.Src))
	for i, m := range p.Src {
		out.Src[i] = in.Member(m)
	}
	out.Dest = make([]ir.MemberInfo, len(p.Dest))
	for i, m := range p.Dest {
		out.Dest[i] = in.Member(m)
	}
	return out
}

// Profile instantiates a callee's whole published profile (signature plus
// data-flow paths) into this call site's fresh id space.
func (in *Instantiator) Profile(p *ir.DataFlowProfile) *ir.DataFlowProfile {
	if p == nil {
		return nil
	}
	out := &ir.DataFlowProfile{Signature: in.FunctionSignature(p.Signature)}
	out.Paths = make([]ir.DataFlowPath, len(p.Paths))
	for i, path := range p.Paths {
		out.Paths[i] = in.Path(path)
	}
	return out
}
