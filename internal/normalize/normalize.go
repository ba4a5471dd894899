// Package normalize renumbers a function's ownership signature and
// published data-flow paths through one shared allocator, so that two
// profiles shaped the same way end up with byte-identical var ids and
// therefore compare equal - the dedup key §4.K's profile store relies on.
//
// Grounded on original_source/Compiler/Ownership/Normalizer.py:
// OwnershipProvider, the Normalizer class's per-call memoized
// renumbering, filterOutMembers and collectChildMembers, and
// normalizeFunctionOwnershipSignature/normalizeClassOwnershipSignature.
// DataFlowProfileInference.py's createDataFlowProfile calls a
// Normalizer.normalizeFunctionProfile(signature, paths, ...) that does not
// appear anywhere in Compiler/Ownership/*.py (confirmed by grep across the
// directory) - the retrieved slice of the original source is missing its
// body. This package reconstructs what its name and call site imply: one
// Normalizer instance renumbers both the signature and every path's member
// chains, so a function's vars and its paths' vars share one space. See
// NormalizeFunctionProfile.
package normalize

import (
	"sort"

	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/ownership"
)

// Provider answers the two questions the normalizer needs about an
// ownership var's resolved value: is it a borrow (and of which id), or is
// it an owner. Ports OwnershipProvider.
type Provider struct {
	result *ownership.Result
}

// NewProvider wraps an ownership engine's result.
func NewProvider(res *ownership.Result) *Provider {
	return &Provider{result: res}
}

// Borrow reports the borrow id a var resolved to, if any.
func (p *Provider) Borrow(v ids.OwnershipVar) (ids.BorrowID, bool) {
	if p == nil || p.result == nil {
		return ids.NoBorrowID, false
	}
	o := p.result.Get(v)
	if o.Kind != ir.OwnBorrow {
		return ids.NoBorrowID, false
	}
	return o.Borrow, true
}

// IsOwner reports whether a var resolved to Owner.
func (p *Provider) IsOwner(v ids.OwnershipVar) bool {
	if p == nil || p.result == nil {
		return false
	}
	return p.result.Get(v).Kind == ir.OwnOwner
}

// Normalizer renumbers ownership vars, group vars and borrow ids through
// one allocator, memoizing each mapping so a var seen twice (once in the
// signature, once in a path) renumbers to the same fresh id both times.
type Normalizer struct {
	alloc     *ids.Allocator
	ownership map[ids.OwnershipVar]ids.OwnershipVar
	group     map[ids.GroupVar]ids.GroupVar
	borrow    map[ids.BorrowID]ids.BorrowID
}

// NewNormalizer returns an empty normalizer with a fresh allocator.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		alloc:     ids.NewAllocator(),
		ownership: make(map[ids.OwnershipVar]ids.OwnershipVar),
		group:     make(map[ids.GroupVar]ids.GroupVar),
		borrow:    make(map[ids.BorrowID]ids.BorrowID),
	}
}

// Ownership renumbers v, minting a fresh id the first time it's seen.
func (n *Normalizer) Ownership(v ids.OwnershipVar) ids.OwnershipVar {
	if !v.IsValid() {
		return v
	}
	if nv, ok := n.ownership[v]; ok {
		return nv
	}
	nv := n.alloc.NextOwnership()
	n.ownership[v] = nv
	return nv
}

// Group renumbers v, minting a fresh id the first time it's seen.
func (n *Normalizer) Group(v ids.GroupVar) ids.GroupVar {
	if !v.IsValid() {
		return v
	}
	if nv, ok := n.group[v]; ok {
		return nv
	}
	nv := n.alloc.NextGroup()
	n.group[v] = nv
	return nv
}

// Borrow renumbers b, minting a fresh id the first time it's seen.
func (n *Normalizer) Borrow(b ids.BorrowID) ids.BorrowID {
	if !b.IsValid() {
		return b
	}
	if nb, ok := n.borrow[b]; ok {
		return nb
	}
	nb := n.alloc.NextBorrow()
	n.borrow[b] = nb
	return nb
}

// TVI renumbers both halves of a type-variable pair.
func (n *Normalizer) TVI(info ids.TypeVariableInfo) ids.TypeVariableInfo {
	return ids.TypeVariableInfo{Ownership: n.Ownership(info.Ownership), Group: n.Group(info.Group)}
}

func (n *Normalizer) member(m ir.MemberInfo) ir.MemberInfo {
	return ir.MemberInfo{Root: n.Group(m.Root), Kind: m.Kind, Index: m.Index, Info: n.TVI(m.Info)}
}

// Path renumbers every var in a data-flow path through this normalizer,
// so a path sharing vars with an already-normalized signature renumbers
// to the same fresh ids.
func (n *Normalizer) Path(p ir.DataFlowPath) ir.DataFlowPath {
	np := ir.DataFlowPath{Arg: n.TVI(p.Arg), Result: n.TVI(p.Result), Index: p.Index}
	for _, m := range p.Src {
		np.Src = append(np.Src, n.member(m))
	}
	for _, m := range p.Dest {
		np.Dest = append(np.Dest, n.member(m))
	}
	return np
}

func toOwnershipSet(vs []ids.OwnershipVar) map[ids.OwnershipVar]bool {
	set := make(map[ids.OwnershipVar]bool, len(vs))
	for _, v := range vs {
		set[v] = true
	}
	return set
}

// filterOutMembers selects the members reachable from groups via depMap,
// splits them into borrow/owner var lists per prov, then keeps only the
// members whose own var - or a var its group depends on - made either
// list. Ports Normalizer.py's filterOutMembers.
func filterOutMembers(groups []ids.GroupVar, depMap map[ids.GroupVar][]ids.OwnershipVar, members []ir.MemberInfo, prov *Provider, borrows, owners []ids.OwnershipVar, onlyBorrow bool) ([]ir.MemberInfo, []ids.OwnershipVar, []ids.OwnershipVar) {
	var relevant []ir.MemberInfo
	seenRelevant := make(map[ir.MemberKey]bool)
	for _, g := range groups {
		vars, ok := depMap[g]
		if !ok {
			continue
		}
		varSet := toOwnershipSet(vars)
		for _, m := range members {
			if !varSet[m.Info.Ownership] {
				continue
			}
			key := m.Key()
			if seenRelevant[key] {
				continue
			}
			seenRelevant[key] = true
			relevant = append(relevant, m)
		}
	}

	for _, m := range relevant {
		if _, ok := prov.Borrow(m.Info.Ownership); ok {
			borrows = append(borrows, m.Info.Ownership)
		}
		if prov.IsOwner(m.Info.Ownership) {
			owners = append(owners, m.Info.Ownership)
		}
	}

	var relevantVars []ids.OwnershipVar
	if onlyBorrow {
		relevantVars = borrows
	} else {
		relevantVars = append(append([]ids.OwnershipVar(nil), borrows...), owners...)
	}
	relevantSet := toOwnershipSet(relevantVars)

	var filtered []ir.MemberInfo
	for _, m := range relevant {
		keep := relevantSet[m.Info.Ownership]
		if !keep {
			for _, v := range depMap[m.Info.Group] {
				if relevantSet[v] {
					keep = true
					break
				}
			}
		}
		if keep {
			filtered = append(filtered, m)
		}
	}
	return filtered, borrows, owners
}

// collectChildMembers walks the member tree rooted at root depth-first,
// sorted by field index at each level, renumbering each member through n
// and deduping by its (root, index) key. Ports Normalizer.py's
// collectChildMembers.
func collectChildMembers(n *Normalizer, root ids.GroupVar, members []ir.MemberInfo) []ir.MemberInfo {
	return collectChildMembersSeen(n, root, members, make(map[ir.MemberKey]bool))
}

func collectChildMembersSeen(n *Normalizer, root ids.GroupVar, members []ir.MemberInfo, seen map[ir.MemberKey]bool) []ir.MemberInfo {
	var children []ir.MemberInfo
	for _, m := range members {
		if m.Root == root {
			children = append(children, m)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Index < children[j].Index })

	var out []ir.MemberInfo
	for _, c := range children {
		key := c.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n.member(c))
	}
	for _, c := range children {
		sub := collectChildMembersSeen(n, c.Info.Group, members, seen)
		out = append(out, sub...)
	}
	return out
}

func dedupOwnershipVars(n *Normalizer, vs []ids.OwnershipVar) []ids.OwnershipVar {
	seen := make(map[ids.OwnershipVar]bool)
	var out []ids.OwnershipVar
	for _, v := range vs {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, n.Ownership(v))
	}
	return out
}

func signatureAndOwnerLists(args []ids.TypeVariableInfo, result ids.TypeVariableInfo, prov *Provider) (groups []ids.GroupVar, borrows, owners []ids.OwnershipVar) {
	for _, a := range args {
		groups = append(groups, a.Group)
		if _, ok := prov.Borrow(a.Ownership); ok {
			borrows = append(borrows, a.Ownership)
		}
		if prov.IsOwner(a.Ownership) {
			owners = append(owners, a.Ownership)
		}
	}
	if _, ok := prov.Borrow(result.Ownership); ok {
		borrows = append(borrows, result.Ownership)
	}
	if prov.IsOwner(result.Ownership) {
		owners = append(owners, result.Ownership)
	}
	return groups, borrows, owners
}

func normalizedBorrows(n *Normalizer, prov *Provider, borrows []ids.OwnershipVar) []ir.ExternalBorrow {
	seen := make(map[ids.OwnershipVar]bool)
	var out []ir.ExternalBorrow
	for _, v := range borrows {
		if seen[v] {
			continue
		}
		seen[v] = true
		bID, ok := prov.Borrow(v)
		if !ok {
			continue
		}
		out = append(out, ir.ExternalBorrow{Ownership: n.Ownership(v), Borrow: n.Borrow(bID)})
	}
	return out
}

// functionSignature renormalizes sig in place against the shared
// normalizer n, mirroring normalizeFunctionOwnershipSignature but taking
// an externally-owned Normalizer so callers can reuse it for paths too.
func functionSignature(n *Normalizer, sig ir.FunctionOwnershipSignature, depMap map[ids.GroupVar][]ids.OwnershipVar, members []ir.MemberInfo, prov *Provider, onlyBorrow bool) ir.FunctionOwnershipSignature {
	groups, borrows, owners := signatureAndOwnerLists(sig.Args, sig.Result, prov)
	filtered, borrows, owners := filterOutMembers(groups, depMap, members, prov, borrows, owners, onlyBorrow)

	normArgs := make([]ids.TypeVariableInfo, len(sig.Args))
	for i, a := range sig.Args {
		normArgs[i] = n.TVI(a)
	}
	normResult := n.TVI(sig.Result)

	var ordered []ir.MemberInfo
	seen := make(map[ir.MemberKey]bool)
	for _, a := range sig.Args {
		for _, m := range collectChildMembersSeen(n, a.Group, filtered, seen) {
			ordered = append(ordered, m)
		}
	}

	normBorrows := normalizedBorrows(n, prov, borrows)
	var normOwners []ids.OwnershipVar
	if !onlyBorrow {
		normOwners = dedupOwnershipVars(n, owners)
	}

	return ir.FunctionOwnershipSignature{
		Name:    sig.Name,
		Args:    normArgs,
		Result:  normResult,
		Members: ordered,
		Borrows: normBorrows,
		Owners:  normOwners,
		Alloc:   n.alloc,
	}
}

// NormalizeFunctionSignature renormalizes a function's signature alone,
// with its own fresh normalizer. Exposed for callers (and class
// signatures, see NormalizeClassSignature) that don't also need path
// renumbering to share the same var space.
func NormalizeFunctionSignature(sig ir.FunctionOwnershipSignature, depMap map[ids.GroupVar][]ids.OwnershipVar, members []ir.MemberInfo, prov *Provider, onlyBorrow bool) ir.FunctionOwnershipSignature {
	return functionSignature(NewNormalizer(), sig, depMap, members, prov, onlyBorrow)
}

// NormalizeClassSignature renormalizes one class's instantiation
// signature, scoped to its own root group var. Always onlyBorrow: a
// class's owned fields are implied by the class's own field list, not
// republished. Ports normalizeClassOwnershipSignature.
func NormalizeClassSignature(sig ir.ClassInstantiationSignature, depMap map[ids.GroupVar][]ids.OwnershipVar, members []ir.MemberInfo, prov *Provider) ir.ClassInstantiationSignature {
	n := NewNormalizer()
	groups := []ids.GroupVar{sig.Root.Group}
	_, borrows, _ := signatureAndOwnerLists([]ids.TypeVariableInfo{sig.Root}, sig.Root, prov)
	filtered, borrows, _ := filterOutMembers(groups, depMap, members, prov, borrows, nil, true)

	normRoot := n.TVI(sig.Root)
	ordered := collectChildMembers(n, sig.Root.Group, filtered)
	normBorrows := normalizedBorrows(n, prov, borrows)

	return ir.ClassInstantiationSignature{
		Name:    sig.Name,
		Root:    normRoot,
		Members: ordered,
		Borrows: normBorrows,
		Alloc:   n.alloc,
	}
}

// NormalizeFunctionProfile renormalizes a function's signature and its
// published data-flow paths through one shared Normalizer, so a var that
// appears in both the signature and a path renumbers to the same fresh
// id in both places - the property the profile store's equality check
// depends on. See the package doc for why this isn't a direct port.
func NormalizeFunctionProfile(sig ir.FunctionOwnershipSignature, paths []ir.DataFlowPath, depMap map[ids.GroupVar][]ids.OwnershipVar, members []ir.MemberInfo, prov *Provider, onlyBorrow bool) (ir.FunctionOwnershipSignature, []ir.DataFlowPath) {
	n := NewNormalizer()
	normSig := functionSignature(n, sig, depMap, members, prov, onlyBorrow)

	normPaths := make([]ir.DataFlowPath, len(paths))
	for i, p := range paths {
		normPaths[i] = n.Path(p)
	}
	return normSig, normPaths
}
