// Package ownership implements the constraint-based ownership lattice
// inference from §4.I: for every ownership variable it decides Owner or
// Borrow(id), forcing a clone where a borrow would violate a forbidden
// move witnessed by §4.G, and reporting a hard CloneRequired error where a
// clone is required but the value's class does not derive Clone.
//
// Grounded on original_source/Compiler/Ownership/Inference.py for the
// constraint shape and resolution order, and BorrowUtil.py for the
// borrow-witness bookkeeping (ir.BorrowMap already ports BorrowUtil.py's
// BorrowMap/BorrowKind/ExternalBorrow directly, see internal/ir/member.go).
package ownership

import (
	"fmt"

	"ownc/internal/depgraph"
	"ownc/internal/diag"
	"ownc/internal/forbidden"
	"ownc/internal/ids"
	"ownc/internal/ir"
)

// Ownership is one ownership variable's resolved state.
type Ownership struct {
	Kind   ir.Ownership
	Borrow ids.BorrowID
}

func unknown() Ownership              { return Ownership{Kind: ir.OwnUnknown} }
func owner() Ownership                { return Ownership{Kind: ir.OwnOwner} }
func borrow(b ids.BorrowID) Ownership { return Ownership{Kind: ir.OwnBorrow, Borrow: b} }

// constraint is the CtorConstraint/FieldAccessConstraint closed variant
// set, keyed into a constraintHolder by the ownership var whose SCC group
// processing order triggers it.
type constraint interface{ isConstraint() }

type ctorConstraint struct{ Var ids.OwnershipVar }

func (ctorConstraint) isConstraint() {}

// fieldAccessConstraint mirrors FieldAccessConstraint exactly: Root is the
// ownership var the access chain hangs off, Members the chain's own
// per-level ownership vars, Var the slot being resolved, Borrow whether
// this occurrence demands a borrow, Usage the witnessed path (nil for a
// call-derived constraint, which has no single instruction to attribute a
// move to), and InstructionID the instruction to annotate once resolved
// (invalid for a call-derived constraint, matching instruction_id=None).
type fieldAccessConstraint struct {
	Root          ids.OwnershipVar
	Members       []ir.MemberInfo
	Var           ids.OwnershipVar
	Borrow        bool
	Usage         ir.Usage
	InstructionID ids.InstructionID
	Final         Ownership
}

func (*fieldAccessConstraint) isConstraint() {}

type constraintHolder struct {
	byKey map[ids.OwnershipVar][]constraint
}

func newConstraintHolder() *constraintHolder {
	return &constraintHolder{byKey: make(map[ids.OwnershipVar][]constraint)}
}

func (h *constraintHolder) add(key ids.OwnershipVar, c constraint) {
	h.byKey[key] = append(h.byKey[key], c)
}

func (h *constraintHolder) get(key ids.OwnershipVar) []constraint { return h.byKey[key] }

func (h *constraintHolder) all() []constraint {
	var out []constraint
	for _, cs := range h.byKey {
		out = append(out, cs...)
	}
	return out
}

// Engine runs ownership inference over one function.
type Engine struct {
	fn        *ir.Function
	sig       ir.FunctionOwnershipSignature
	calls     map[ids.InstructionID]*ir.DataFlowProfile
	classOf   map[ir.TypeRef]*ir.Class
	forbidden *forbidden.Result
	alloc     *ids.Allocator

	ownerships map[ids.OwnershipVar]Ownership
	borrows    *ir.BorrowMap
	byID       map[ids.InstructionID]*ir.Instruction
}

// NewEngine builds an inference engine. sig is the function's skeleton
// ownership signature (§4.K builds it: Args from each param's TVI, Result
// from the body's end instruction, Members via Body.GetAllMembers, Borrows
// pre-seeded with any declared external-borrow parameters, Owners with any
// vars forced to Owner ahead of inference) - the same role fn.ownership_
// signature plays as an input to the original's InferenceEngine, since
// that signature is built by an earlier phase, not by this one. calls is
// equality's per-call-site instantiated profile table (equality.Result.
// Calls); classOf resolves an instruction's opaque ir.TypeRef to its class
// declaration, purely by identity - the core never inspects a TypeRef's
// structure, per §1's scope note.
func NewEngine(fn *ir.Function, sig ir.FunctionOwnershipSignature, calls map[ids.InstructionID]*ir.DataFlowProfile, classOf map[ir.TypeRef]*ir.Class, fb *forbidden.Result, alloc *ids.Allocator) *Engine {
	return &Engine{
		fn:         fn,
		sig:        sig,
		calls:      calls,
		classOf:    classOf,
		forbidden:  fb,
		alloc:      alloc,
		ownerships: make(map[ids.OwnershipVar]Ownership),
		borrows:    ir.NewBorrowMap(),
	}
}

// Result is one function's resolved ownership state.
type Result struct {
	Ownerships map[ids.OwnershipVar]Ownership
	Borrows    *ir.BorrowMap
}

func (r *Result) Get(v ids.OwnershipVar) Ownership {
	if r == nil {
		return unknown()
	}
	if o, ok := r.Ownerships[v]; ok {
		return o
	}
	return unknown()
}

// Process runs the engine to completion, mutating every instruction's
// Ownership/Borrow/Clone fields in fn.Body, and returns a diag.Diagnostic
// (CloneRequired) as an error the first time a value needs cloning but its
// class does not derive Clone.
func (e *Engine) Process() (*Result, error) {
	if e.fn == nil || e.fn.Body == nil {
		return &Result{Ownerships: e.ownerships, Borrows: e.borrows}, nil
	}
	e.byID = make(map[ids.InstructionID]*ir.Instruction)
	e.fn.Body.Walk(func(in *ir.Instruction) { e.byID[in.ID] = in })

	groups, constraints := e.collectConstraints()

	for _, eb := range e.sig.Borrows {
		id := e.alloc.NextBorrow()
		e.borrows.Add(id, ir.BorrowWitness{Kind: ir.BorrowExternal, External: eb})
		e.setBorrow(eb.Ownership, id)
	}
	for _, v := range e.sig.Owners {
		e.setOwner(v)
	}

	e.processConstraints(groups, constraints)

	for _, c := range constraints.all() {
		fac, ok := c.(*fieldAccessConstraint)
		if !ok || !fac.InstructionID.IsValid() {
			continue
		}
		in := e.byID[fac.InstructionID]
		if in == nil {
			continue
		}
		resO := e.getOwnership(in.TVInfo.Ownership)
		data, _ := in.Data.(ir.ValueRefData)
		if fac.Final.Kind == ir.OwnOwner && resO.Kind == ir.OwnOwner && data.Borrow {
			in.Clone = true
		}
		if fac.Final.Kind == ir.OwnBorrow && resO.Kind == ir.OwnOwner {
			in.Clone = true
		}
		if in.Clone {
			class := e.classOf[in.Type]
			if class == nil || !class.DerivesClone {
				return nil, diag.NewError(diag.CloneRequired, in.Span,
					fmt.Sprintf("value of type %v cannot be cloned", in.Type)).
					WithSite(e.fn.Name.String(), fmt.Sprintf("%v", in.ID))
			}
		}
	}

	e.finalize()
	return &Result{Ownerships: e.ownerships, Borrows: e.borrows}, nil
}

func (e *Engine) setOwner(v ids.OwnershipVar) {
	if v.IsValid() {
		e.ownerships[v] = owner()
	}
}

func (e *Engine) setBorrow(v ids.OwnershipVar, id ids.BorrowID) {
	if v.IsValid() {
		e.ownerships[v] = borrow(id)
	}
}

func (e *Engine) getOwnership(v ids.OwnershipVar) Ownership {
	if o, ok := e.ownerships[v]; ok {
		return o
	}
	return unknown()
}

func (e *Engine) setOwnerIfUnknown(v ids.OwnershipVar) {
	if v.IsValid() && e.getOwnership(v).Kind == ir.OwnUnknown {
		e.setOwner(v)
	}
}

// UnpackOwners forces every still-Unknown ownership var reachable from the
// function's signature (its args, result, members, and every var the
// member tree transitively depends on via ownershipDepMap) to Owner - the
// original's defensive "anything inference never touched defaults to
// owned" step. internal/profile and internal/mono call it after Process
// returns and before normalization, so it does not seed inference: it only
// pins the vars that inference left Unknown.
func (e *Engine) UnpackOwners(ownershipDepMap map[ids.GroupVar][]ids.OwnershipVar) {
	process := func(info ids.TypeVariableInfo) {
		e.setOwnerIfUnknown(info.Ownership)
		for _, v := range ownershipDepMap[info.Group] {
			e.setOwnerIfUnknown(v)
		}
	}
	for _, a := range e.sig.Args {
		process(a)
	}
	process(e.sig.Result)
	for _, m := range e.sig.Members {
		e.setOwnerIfUnknown(m.Info.Ownership)
	}
	if e.fn != nil && e.fn.Body != nil {
		e.finalize()
	}
}

// checkBorrows ports checkBorrows: a candidate borrow is valid unless one
// of its user borrows is a local borrow already on targetVar's forbidden
// list (the move it would conflict with).
func (e *Engine) checkBorrows(targetVar ids.OwnershipVar, id ids.BorrowID) ([]ir.BorrowWitness, bool) {
	users := e.borrows.Get(id)
	valid := true
	for _, u := range users {
		if u.Kind == ir.BorrowLocal {
			if e.forbidden.Forbidden(targetVar, u.Local.Site.ID) {
				valid = false
			}
		}
	}
	return users, valid
}

func (e *Engine) processFieldAccessConstraint(c *fieldAccessConstraint) {
	parents := make([]ids.OwnershipVar, 0, len(c.Members)+1)
	for _, m := range c.Members {
		parents = append(parents, m.Info.Ownership)
	}
	parents = append(parents, c.Root)
	for i, j := 0, len(parents)-1; i < j; i, j = i+1, j-1 {
		parents[i], parents[j] = parents[j], parents[i]
	}

	c.Final = owner()
	for _, p := range parents {
		po := e.getOwnership(p)
		if po.Kind == ir.OwnUnknown {
			c.Final = unknown()
			break
		}
		if po.Kind == ir.OwnBorrow {
			c.Final = po
			break
		}
	}

	switch c.Final.Kind {
	case ir.OwnOwner:
		if c.Borrow {
			id := e.alloc.NextBorrow()
			e.borrows.Add(id, ir.BorrowWitness{Kind: ir.BorrowLocal, Local: c.Usage})
			_, valid := e.checkBorrows(c.Var, id)
			if valid {
				c.Final = borrow(id)
				e.setBorrow(c.Var, id)
			} else {
				e.setOwner(c.Var)
			}
		} else {
			e.setOwner(c.Var)
		}
	case ir.OwnBorrow:
		users, valid := e.checkBorrows(c.Var, c.Final.Borrow)
		if !valid {
			e.setOwner(c.Var)
			return
		}
		prev := e.getOwnership(c.Var)
		switch prev.Kind {
		case ir.OwnBorrow:
			merged := e.alloc.NextBorrow()
			for _, u := range users {
				e.borrows.Add(merged, u)
			}
			for _, u := range e.borrows.Get(prev.Borrow) {
				e.borrows.Add(merged, u)
			}
			e.setBorrow(c.Var, merged)
		case ir.OwnUnknown:
			e.setBorrow(c.Var, c.Final.Borrow)
		}
	}
}

func (e *Engine) processConstraints(groups [][]ids.OwnershipVar, constraints *constraintHolder) {
	for _, group := range groups {
		for _, item := range group {
			for _, c := range constraints.get(item) {
				switch v := c.(type) {
				case ctorConstraint:
					e.setOwner(v.Var)
				case *fieldAccessConstraint:
					e.processFieldAccessConstraint(v)
				}
			}
		}
	}
}

// collectConstraints ports collectConstraints: one CtorConstraint per
// value-producing instruction whose var is always owned outright (ctor
// calls, drops, literals, binds, the unit call), one FieldAccessConstraint
// per ValueRef (read off a parameter or a bound name, through its member
// chain) and per argument-to-result data-flow path crossing a call site.
// Every other instruction kind (If, Loop, Tuple, MemberAccess, dynamic/
// method calls) gets no explicit constraint, matching the original
// exactly - its var resolves later only if something else's member chain
// or UnpackOwners' default-to-owner pass reaches it; otherwise it stays
// Unknown.
func (e *Engine) collectConstraints() ([][]ids.OwnershipVar, *constraintHolder) {
	g := depgraph.New[ids.OwnershipVar]()
	constraints := newConstraintHolder()

	for _, a := range e.sig.Args {
		g.Touch(a.Ownership)
	}
	g.Touch(e.sig.Result.Ownership)

	e.fn.Body.Walk(func(in *ir.Instruction) {
		if in.Kind == ir.KindValueRef {
			for _, m := range in.Members {
				g.Touch(m.Info.Ownership)
			}
		}
		g.Touch(in.TVInfo.Ownership)
	})

	bindRHS := make(map[ids.TempVar]ids.InstructionID)
	e.fn.Body.Walk(func(in *ir.Instruction) {
		if in.Kind == ir.KindBind {
			bindRHS[in.Data.(ir.BindData).Name] = in.Data.(ir.BindData).RHS
		}
	})

	e.fn.Body.Walk(func(in *ir.Instruction) {
		switch in.Kind {
		case ir.KindDropVar, ir.KindBoolLiteral, ir.KindBind:
			constraints.add(in.TVInfo.Ownership, ctorConstraint{Var: in.TVInfo.Ownership})

		case ir.KindNamedFunctionCall:
			data := in.Data.(ir.NamedFunctionCallData)
			if data.Ctor || data.Name.IsUnit() {
				constraints.add(in.TVInfo.Ownership, ctorConstraint{Var: in.TVInfo.Ownership})
				return
			}
			profile, ok := e.calls[in.ID]
			if !ok {
				return
			}
			for _, path := range profile.Paths {
				c := &fieldAccessConstraint{
					Root:          path.Arg.Ownership,
					Members:       path.Src,
					InstructionID: ids.NoInstructionID,
				}
				if len(path.Dest) == 0 {
					c.Var = path.Result.Ownership
				} else {
					c.Var = path.Dest[len(path.Dest)-1].Info.Ownership
				}
				constraints.add(path.Arg.Ownership, c)
			}

		case ir.KindValueRef:
			data := in.Data.(ir.ValueRefData)
			var root ids.OwnershipVar
			if data.Name.IsArg || !data.BindID.IsValid() {
				root = e.paramOwnership(data.Name)
			} else if rhsID, ok := bindRHS[data.Name]; ok {
				if rhs := e.byID[rhsID]; rhs != nil {
					root = rhs.TVInfo.Ownership
				}
			}
			c := &fieldAccessConstraint{
				Root:          root,
				Members:       in.Members,
				Var:           in.TVInfo.Ownership,
				Borrow:        data.Borrow,
				InstructionID: in.ID,
			}
			site := ir.NodeKey{Kind: ir.NodeInstruction, ID: in.ID}
			if len(data.Fields) == 0 {
				c.Usage = ir.Usage{Site: site, Path: ir.Whole(data.Name, false)}
			} else {
				c.Usage = ir.Usage{Site: site, Path: ir.Partial(data.Name, data.Fields)}
			}
			constraints.add(in.TVInfo.Ownership, c)

			g.Add(in.TVInfo.Ownership, root)
			for _, m := range in.Members {
				g.Add(in.TVInfo.Ownership, m.Info.Ownership)
			}
		}
	})

	return g.SCCs(), constraints
}

func (e *Engine) paramOwnership(name ids.TempVar) ids.OwnershipVar {
	for _, p := range e.fn.Params {
		if p.Name == name {
			return p.TVI.Ownership
		}
	}
	return ids.NoOwnershipVar
}

// finalize writes each instruction's resolved Ownership/Borrow back onto
// the IR, the same role equality.Engine.finalize and borrowpath's analyzer
// play for their own fixed points.
func (e *Engine) finalize() {
	e.fn.Body.Walk(func(in *ir.Instruction) {
		o := e.getOwnership(in.TVInfo.Ownership)
		in.Ownership = o.Kind
		if o.Kind == ir.OwnBorrow {
			in.Borrow = o.Borrow
		}
	})
}
