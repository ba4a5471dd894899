// Package forbidden implements the forbidden-borrow engine from §4.G: an
// SCC-reverse dataflow over the IR's own data-flow dependency edges (not
// the control-flow graph) that, for every ownership variable, collects the
// set of move sites that would become invalid if that variable resolved to
// Borrow instead of Owner. Ownership inference (§4.I) consults this set
// when it has to choose between forcing a clone and rejecting a program.
//
// Grounded on original_source/Compiler/Ownership/ForbiddenBorrows.py,
// DataFlowDependency.py, and MemberInfo.py's calculateOwnershipDepMap - all
// three drive through the same SCC processor as internal/depgraph.
package forbidden

import (
	"ownc/internal/depgraph"
	"ownc/internal/ids"
	"ownc/internal/ir"
)

// moveKey is the comparable dedup key for one witnessed ir.Usage, mirroring
// borrowpath's own private dedup key (ir.Usage embeds a slice and so cannot
// be a map key directly).
type moveKey struct {
	Site ir.NodeKey
	Path string
}

func keyOf(u ir.Usage) moveKey { return moveKey{Site: u.Site, Path: u.Path.Key()} }

// Result is one function's forbidden-borrow table.
type Result struct {
	ForbiddenBorrows map[ids.OwnershipVar]map[ids.InstructionID]bool
}

// Forbidden reports whether a borrow of v would invalidate a move already
// witnessed at site.
func (r *Result) Forbidden(v ids.OwnershipVar, site ids.InstructionID) bool {
	if r == nil {
		return false
	}
	return r.ForbiddenBorrows[v][site]
}

// Process runs the engine over fn's already-equality-processed, already-
// borrow-path-processed body (TVInfo/Members/Moves must be populated).
func Process(fn *ir.Function) *Result {
	res := &Result{ForbiddenBorrows: make(map[ids.OwnershipVar]map[ids.InstructionID]bool)}
	if fn == nil || fn.Body == nil {
		return res
	}

	byID := make(map[ids.InstructionID]*ir.Instruction)
	bindOf := make(map[ids.TempVar]ids.InstructionID)
	fn.Body.Walk(func(in *ir.Instruction) {
		byID[in.ID] = in
		if in.Kind == ir.KindBind {
			bindOf[in.Data.(ir.BindData).Name] = in.ID
		}
	})

	deps := make(map[ids.InstructionID][]ids.InstructionID, len(byID))
	g := depgraph.New[ids.InstructionID]()
	fn.Body.Walk(func(in *ir.Instruction) {
		d := instrDeps(fn, in, bindOf)
		deps[in.ID] = d
		g.Add(in.ID, d...)
	})
	groups := g.SCCs()

	ownDeps := OwnershipDepMap(fn.Body.GetAllMembers(nil))

	witnessed := make(map[ids.InstructionID]map[moveKey]ir.Usage, len(byID))
	for _, group := range groups {
		for _, item := range group {
			in := byID[item]
			if in == nil {
				continue
			}

			set := make(map[moveKey]ir.Usage, len(in.Moves))
			for _, m := range in.Moves {
				set[keyOf(m)] = m
			}
			for _, dep := range deps[item] {
				for k, u := range witnessed[dep] {
					set[k] = u
				}
			}
			witnessed[item] = set

			for _, v := range ownershipVarsFor(in, byID, ownDeps) {
				sites, ok := res.ForbiddenBorrows[v]
				if !ok {
					sites = make(map[ids.InstructionID]bool)
					res.ForbiddenBorrows[v] = sites
				}
				for _, u := range set {
					sites[u.Site.ID] = true
				}
			}
		}
	}
	return res
}

// ownershipVarsFor collects every ownership variable a move witnessed at in
// needs to be attributed to: the variables reachable from in's own group
// through the member tree, the originating Bind's right-hand side (for a
// ValueRef that reads a previously bound name - the original's explicit
// "also charge the binding" rule), and in's own ownership var.
func ownershipVarsFor(in *ir.Instruction, byID map[ids.InstructionID]*ir.Instruction, ownDeps map[ids.GroupVar][]ids.OwnershipVar) []ids.OwnershipVar {
	vars := append([]ids.OwnershipVar(nil), ownDeps[in.TVInfo.Group]...)
	if in.Kind == ir.KindValueRef {
		data := in.Data.(ir.ValueRefData)
		if !data.Name.IsArg && data.BindID.IsValid() {
			if bind := byID[data.BindID]; bind != nil {
				if rhs := byID[bind.Data.(ir.BindData).RHS]; rhs != nil {
					vars = append(vars, rhs.TVInfo.Ownership)
				}
			}
		}
	}
	if in.TVInfo.Ownership.IsValid() {
		vars = append(vars, in.TVInfo.Ownership)
	}
	return vars
}

// instrDeps ports getDepsForInstruction. Our IR's NamedFunctionCall/Tuple/
// DynamicFunctionCall/MethodCall arguments are TempVars rather than
// pre-evaluated instruction ids (as in the original), so a dependency on a
// non-argument variable resolves through the nearest enclosing Bind for
// that name - the same rule ValueRef itself already uses for its bind_id.
// If's two arms use GetLastReal for both (the original uses plain "last"
// for If but "last real" for BlockRef; this codebase's CFG builder already
// settled on last-real as the one join-point notion for both, and this
// engine reuses it rather than reintroducing the distinction).
func instrDeps(fn *ir.Function, in *ir.Instruction, bindOf map[ids.TempVar]ids.InstructionID) []ids.InstructionID {
	dep := func(v ids.TempVar) []ids.InstructionID {
		if v.IsArg {
			return nil
		}
		if id, ok := bindOf[v]; ok {
			return []ids.InstructionID{id}
		}
		return nil
	}
	switch in.Kind {
	case ir.KindValueRef:
		data := in.Data.(ir.ValueRefData)
		if data.Name.IsArg || !data.BindID.IsValid() {
			return nil
		}
		return []ids.InstructionID{data.BindID}
	case ir.KindBind:
		return []ids.InstructionID{in.Data.(ir.BindData).RHS}
	case ir.KindBlockRef:
		data := in.Data.(ir.BlockRefData)
		if last := fn.Body.Block(data.Block).GetLastReal(); last != nil {
			return []ids.InstructionID{last.ID}
		}
		return nil
	case ir.KindNamedFunctionCall:
		var out []ids.InstructionID
		for _, a := range in.Data.(ir.NamedFunctionCallData).Args {
			out = append(out, dep(a)...)
		}
		return out
	case ir.KindTuple:
		var out []ids.InstructionID
		for _, a := range in.Data.(ir.TupleData).Args {
			out = append(out, dep(a)...)
		}
		return out
	case ir.KindIf:
		data := in.Data.(ir.IfData)
		var out []ids.InstructionID
		if last := fn.Body.Block(data.TrueBranch).GetLastReal(); last != nil {
			out = append(out, last.ID)
		}
		if last := fn.Body.Block(data.FalseBranch).GetLastReal(); last != nil {
			out = append(out, last.ID)
		}
		return out
	case ir.KindMemberAccess:
		return dep(in.Data.(ir.MemberAccessData).Receiver)
	case ir.KindDynamicFunctionCall:
		data := in.Data.(ir.DynamicFunctionCallData)
		out := dep(data.Callee)
		for _, a := range data.Args {
			out = append(out, dep(a)...)
		}
		return out
	case ir.KindMethodCall:
		data := in.Data.(ir.MethodCallData)
		out := dep(data.Receiver)
		for _, a := range data.Args {
			out = append(out, dep(a)...)
		}
		return out
	case ir.KindLoop:
		data := in.Data.(ir.LoopData)
		out := dep(data.Var)
		if data.Init.IsValid() {
			out = append(out, data.Init)
		}
		return out
	case ir.KindBreak:
		return dep(in.Data.(ir.BreakData).Arg)
	case ir.KindContinue:
		return dep(in.Data.(ir.ContinueData).Arg)
	case ir.KindReturn:
		return dep(in.Data.(ir.ReturnData).Arg)
	default:
		// DropVar, Nop, BoolLiteral carry no data-flow dependency, matching
		// the original's explicit empty-list cases.
		return nil
	}
}

// OwnershipDepMap ports MemberInfo.calculateOwnershipDepMap: it runs a
// second, much smaller SCC pass over the group-var containment tree (root
// contains child group var, one edge per member) so that resolving a
// parent's dependent ownership vars can assume every child's are already
// known - the same leaves-first guarantee internal/depgraph gives the
// caller above. Exported so §4.I's UnpackOwners, §4.J's member filtering
// and §4.K's profile builder can all derive it from a function's full
// member set without re-deriving the group-containment SCC themselves.
func OwnershipDepMap(members []ir.MemberInfo) map[ids.GroupVar][]ids.OwnershipVar {
	g := depgraph.New[ids.GroupVar]()
	childOwnership := make(map[ids.GroupVar][]ids.OwnershipVar)
	depMap := make(map[ids.GroupVar][]ids.GroupVar)
	for _, m := range members {
		g.Add(m.Root, m.Info.Group)
		childOwnership[m.Root] = append(childOwnership[m.Root], m.Info.Ownership)
		depMap[m.Root] = append(depMap[m.Root], m.Info.Group)
	}
	groups := g.SCCs()

	result := make(map[ids.GroupVar][]ids.OwnershipVar)
	for _, group := range groups {
		var vars []ids.OwnershipVar
		for _, item := range group {
			vars = append(vars, childOwnership[item]...)
			for _, dep := range depMap[item] {
				vars = append(vars, result[dep]...)
			}
		}
		vars = dedupeOwnership(vars)
		for _, item := range group {
			result[item] = vars
		}
	}
	return result
}

func dedupeOwnership(in []ids.OwnershipVar) []ids.OwnershipVar {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[ids.OwnershipVar]bool, len(in))
	out := make([]ids.OwnershipVar, 0, len(in))
	for _, v := range in {
		if seen[v] || !v.IsValid() {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
