package equality

import (
	"ownc/internal/diag"
	"ownc/internal/ids"
	"ownc/internal/ir"
)

// ProfileLookup resolves a callee's published data-flow profile by name.
// Kept as an interface (rather than importing internal/profile directly) so
// the profile builder - which calls into this package per SCC - does not
// form an import cycle with it.
type ProfileLookup interface {
	Profile(name ids.QualifiedName) (*ir.DataFlowProfile, bool)
}

// Result is what one function's equality pass produced: the substitution
// that every downstream engine (forbidden-borrow, data-flow path, ownership
// inference) must apply before reading an instruction's TVInfo or Members,
// plus the instantiated per-call-site profile of every non-constructor call,
// keyed by that call instruction's id.
type Result struct {
	Sub   *Substitution
	Calls map[ids.InstructionID]*ir.DataFlowProfile
}

// Engine runs the unification pass over one function's body.
type Engine struct {
	fn         *ir.Function
	alloc      *ids.Allocator
	lookup     ProfileLookup
	sub        *Substitution
	byID       map[ids.InstructionID]*ir.Instruction
	env        map[ids.TempVar]ids.TypeVariableInfo
	calls      map[ids.InstructionID]*ir.DataFlowProfile
	unresolved []ids.QualifiedName
}

// NewEngine returns an Engine ready to process fn. alloc is fn's own id
// space; lookup resolves callee profiles (nil is fine for leaf functions
// that make no non-constructor calls).
func NewEngine(fn *ir.Function, alloc *ids.Allocator, lookup ProfileLookup) *Engine {
	return &Engine{
		fn:     fn,
		alloc:  alloc,
		lookup: lookup,
		sub:    NewSubstitution(),
		calls:  make(map[ids.InstructionID]*ir.DataFlowProfile),
	}
}

// Process runs Initialize, the per-instruction merge pass, and the
// member-merge fixed point, then applies the resulting substitution to the
// function in place and returns the Result downstream engines consume.
// paths is the function's own data-flow paths discovered so far (empty on
// first call; §4.K's profile builder may re-run equality as paths refine).
func (e *Engine) Process(paths []ir.DataFlowPath) *Result {
	if e.fn == nil || e.fn.Body == nil {
		return &Result{Sub: e.sub, Calls: e.calls}
	}
	e.initialize()
	e.mergeInstructions()
	e.mergeMembers(paths)
	e.finalize()
	return &Result{Sub: e.sub, Calls: e.calls}
}

// UnresolvedCallees reports the qualified names Process could not find a
// profile for - always empty once every callee in a call graph's SCC has
// been processed in dependency order, but populated for a leaf function
// processed in isolation (e.g. from a unit test) against calls it cannot
// resolve.
func (e *Engine) UnresolvedCallees() []ids.QualifiedName { return e.unresolved }

// initialize allocates a fresh TVI for every instruction (§4.F's first
// phase) and builds the var environment a later linear pass needs to find
// each TempVar's current TVI: parameters start seeded from the signature,
// and each Bind introduces its own fresh TVI for its name, distinct from its
// right-hand side's - the two are unified explicitly, not aliased.
func (e *Engine) initialize() {
	e.byID = make(map[ids.InstructionID]*ir.Instruction)
	e.env = make(map[ids.TempVar]ids.TypeVariableInfo, len(e.fn.Params))
	for _, p := range e.fn.Params {
		e.env[p.Name] = p.TVI
	}

	e.fn.Body.Walk(func(in *ir.Instruction) {
		e.byID[in.ID] = in
		in.TVInfo = e.alloc.NextTVI()
	})

	e.fn.Body.Walk(func(in *ir.Instruction) {
		switch in.Kind {
		case ir.KindValueRef:
			e.initValueRef(in, in.Data.(ir.ValueRefData))
		case ir.KindNamedFunctionCall:
			data := in.Data.(ir.NamedFunctionCallData)
			if data.Ctor {
				e.initCtor(in, data)
			}
		case ir.KindTuple:
			e.initTuple(in, in.Data.(ir.TupleData))
		case ir.KindMemberAccess:
			e.initMemberAccess(in, in.Data.(ir.MemberAccessData))
		case ir.KindBind:
			// The bound name's TVI is the Bind instruction's own, freshly
			// allocated above; later reads of the name resolve through it.
			e.env[in.Data.(ir.BindData).Name] = in.TVInfo
		}
	})
}

// varTVI resolves a TempVar's current TVI. Args and already-bound names are
// always present; an unseen name (malformed input) reports its own fresh
// invalid-looking zero value rather than panicking, since the core's job is
// to report diagnostics, not crash on malformed IR.
func (e *Engine) varTVI(name ids.TempVar) ids.TypeVariableInfo {
	if tvi, ok := e.env[name]; ok {
		return tvi
	}
	return ids.TypeVariableInfo{}
}

// initValueRef builds the chained MemberInfo list for a (possibly
// projected) variable reference: one entry per field level, the last of
// which carries the instruction's own TVI. A bare (unprojected) reference
// unifies its own TVI with the variable's root directly.
func (e *Engine) initValueRef(in *ir.Instruction, data ir.ValueRefData) {
	root := e.varTVI(data.Name)
	if len(data.Indices) == 0 {
		e.sub.UnifyTVI(in.TVInfo, root)
		return
	}
	cur := root
	members := make([]ir.MemberInfo, 0, len(data.Indices))
	for i, idx := range data.Indices {
		var child ids.TypeVariableInfo
		if i == len(data.Indices)-1 {
			child = in.TVInfo
		} else {
			child = e.alloc.NextTVI()
		}
		members = append(members, ir.MemberInfo{Root: cur.Group, Kind: ir.MemberField, Index: idx, Info: child})
		cur = child
	}
	in.Members = members
}

// initCtor builds one MemberInfo per positional constructor argument,
// rooted at the call instruction's own group.
func (e *Engine) initCtor(in *ir.Instruction, data ir.NamedFunctionCallData) {
	members := make([]ir.MemberInfo, 0, len(data.Args))
	for i, arg := range data.Args {
		members = append(members, ir.MemberInfo{Root: in.TVInfo.Group, Kind: ir.MemberField, Index: i, Info: e.varTVI(arg)})
	}
	in.Members = members
}

// initTuple treats a tuple literal like a positional constructor: each
// element is a member of the tuple's own group.
func (e *Engine) initTuple(in *ir.Instruction, data ir.TupleData) {
	members := make([]ir.MemberInfo, 0, len(data.Args))
	for i, arg := range data.Args {
		members = append(members, ir.MemberInfo{Root: in.TVInfo.Group, Kind: ir.MemberField, Index: i, Info: e.varTVI(arg)})
	}
	in.Members = members
}

// initMemberAccess builds a single-level member chain for a direct field
// projection, the MemberAccess counterpart of ValueRef's chained form.
func (e *Engine) initMemberAccess(in *ir.Instruction, data ir.MemberAccessData) {
	root := e.varTVI(data.Receiver)
	in.Members = []ir.MemberInfo{{Root: root.Group, Kind: ir.MemberField, Index: data.Index, Info: in.TVInfo}}
}

// mergeInstructions is the per-instruction unification pass (§4.F's second
// phase): binds, constructor/call args, branch joins. It mirrors
// Equality.py's processBlock, dispatched per Kind, run once over every
// instruction in the body (block order does not matter - union-find is
// commutative and each rule only ever touches TVIs already assigned by
// initialize).
func (e *Engine) mergeInstructions() {
	e.fn.Body.Walk(func(in *ir.Instruction) {
		switch in.Kind {
		case ir.KindBind:
			data := in.Data.(ir.BindData)
			if rhs, ok := e.byID[data.RHS]; ok {
				e.sub.UnifyTVI(in.TVInfo, rhs.TVInfo)
			}
		case ir.KindNamedFunctionCall:
			e.mergeCall(in, in.Data.(ir.NamedFunctionCallData))
		case ir.KindIf:
			e.mergeIf(in, in.Data.(ir.IfData))
		case ir.KindBlockRef:
			data := in.Data.(ir.BlockRefData)
			if last := e.fn.Body.Block(data.Block).GetLastReal(); last != nil {
				e.sub.UnifyTVI(in.TVInfo, last.TVInfo)
			}
		}
	})
}

// mergeCall handles a call instruction: a constructor's member chain was
// already built by initCtor, so there is nothing further to unify. A real
// call instantiates the callee's published profile into this call site's
// fresh id space, unifies args/result against it, and retains the
// instantiated profile for the data-flow path engine (§4.H) to walk.
func (e *Engine) mergeCall(in *ir.Instruction, data ir.NamedFunctionCallData) {
	if data.Ctor || data.Name.IsUnit() {
		return
	}
	if e.lookup == nil {
		e.unresolved = append(e.unresolved, data.Name)
		return
	}
	profile, ok := e.lookup.Profile(data.Name)
	if !ok {
		e.unresolved = append(e.unresolved, data.Name)
		return
	}
	inst := NewInstantiator(e.alloc)
	fresh := inst.Profile(profile)
	for i, arg := range data.Args {
		if i >= len(fresh.Signature.Args) {
			break
		}
		e.sub.UnifyTVI(e.varTVI(arg), fresh.Signature.Args[i])
	}
	e.sub.UnifyTVI(in.TVInfo, fresh.Signature.Result)
	e.calls[in.ID] = fresh
}

// mergeIf unifies both arms' last-real instructions with each other and
// with the If instruction itself, so the join point carries one coherent
// TVI regardless of which arm executed. It does not descend into the arms
// (their own instructions are visited by the body walk). An arm with no
// real instruction has no last-real and is skipped; an arm ending in a
// terminator (Return/Break/Continue) contributes that terminator, since
// GetLastReal counts it as real.
func (e *Engine) mergeIf(in *ir.Instruction, data ir.IfData) {
	trueLast := e.fn.Body.Block(data.TrueBranch).GetLastReal()
	falseLast := e.fn.Body.Block(data.FalseBranch).GetLastReal()
	if trueLast != nil {
		e.sub.UnifyTVI(in.TVInfo, trueLast.TVInfo)
	}
	if falseLast != nil {
		e.sub.UnifyTVI(in.TVInfo, falseLast.TVInfo)
	}
	if trueLast != nil && falseLast != nil {
		e.sub.UnifyTVI(trueLast.TVInfo, falseLast.TVInfo)
	}
}

// mergeMembers is the fixed point from §4.F's third phase (Property 3:
// every member landing on the same (root, field) pair ends up in one
// group): repeatedly buckets every MemberInfo in the body (plus any
// data-flow paths already known) by its substitution-applied (root, index)
// key and unifies every TVI in a bucket, until a full pass changes nothing.
func (e *Engine) mergeMembers(paths []ir.DataFlowPath) {
	const maxRounds = 10000
	for round := 0; ; round++ {
		if round == maxRounds {
			panic(diag.Convergence("equality member merge", maxRounds))
		}
		members := e.fn.Body.GetAllMembers(paths)
		buckets := make(map[ir.MemberKey][]ids.TypeVariableInfo)
		for _, m := range members {
			key := ir.MemberKey{Root: e.sub.ApplyGroup(m.Root), Index: m.Index}
			buckets[key] = append(buckets[key], m.Info)
		}
		changed := false
		for _, infos := range buckets {
			for i := 1; i < len(infos); i++ {
				if e.sub.UnifyTVI(infos[0], infos[i]) {
					changed = true
				}
			}
		}
		if !changed {
			return
		}
	}
}

// finalize applies the converged substitution everywhere a TVI is stored:
// every instruction, every member chain, every parameter, and every
// retained per-call-site profile - so nothing downstream ever needs to
// consult the substitution again.
func (e *Engine) finalize() {
	e.fn.Body.Walk(func(in *ir.Instruction) {
		in.TVInfo = e.sub.ApplyTVI(in.TVInfo)
		for i := range in.Members {
			in.Members[i].Root = e.sub.ApplyGroup(in.Members[i].Root)
			in.Members[i].Info = e.sub.ApplyTVI(in.Members[i].Info)
		}
	})
	for i := range e.fn.Params {
		e.fn.Params[i].TVI = e.sub.ApplyTVI(e.fn.Params[i].TVI)
	}
	for _, profile := range e.calls {
		e.applySignature(&profile.Signature)
		for i := range profile.Paths {
			e.applyPath(&profile.Paths[i])
		}
	}
}

func (e *Engine) applySignature(sig *ir.FunctionOwnershipSignature) {
	sig.Result = e.sub.ApplyTVI(sig.Result)
	for i := range sig.Args {
		sig.Args[i] = e.sub.ApplyTVI(sig.Args[i])
	}
	for i := range sig.Members {
		sig.Members[i].Root = e.sub.ApplyGroup(sig.Members[i].Root)
		sig.Members[i].Info = e.sub.ApplyTVI(sig.Members[i].Info)
	}
	for i := range sig.Borrows {
		sig.Borrows[i].Ownership = e.sub.ApplyOwnership(sig.Borrows[i].Ownership)
	}
	for i := range sig.Owners {
		sig.Owners[i] = e.sub.ApplyOwnership(sig.Owners[i])
	}
}

func (e *Engine) applyPath(p *ir.DataFlowPath) {
	p.Arg = e.sub.ApplyTVI(p.Arg)
	p.Result = e.sub.ApplyTVI(p.Result)
	for i := range p.Src {
		p.Src[i].Root = e.sub.ApplyGroup(p.Src[i].Root)
		p.Src[i].Info = e.sub.ApplyTVI(p.Src[i].Info)
	}
	for i := range p.Dest {
		p.Dest[i].Root = e.sub.ApplyGroup(p.Dest[i].Root)
		p.Dest[i].Info = e.sub.ApplyTVI(p.Dest[i].Info)
	}
}
