// Package dataflow implements the data-flow path engine from §4.H: for
// every function argument, it enumerates the minimal instruction paths from
// that argument's read to the function's result and reduces each to a
// field-algebra shape - "argument N's field F flows straight into the
// result" or "argument N flows into field F of a constructed result" - the
// ir.DataFlowPath the profile builder (§4.K) publishes per function.
//
// Grounded on original_source/Compiler/Ownership/DataFlowPath.py: its
// Value/FieldAccess/Record classes and their normalize()/isValid() fixed
// point are the field-algebra cancellation rule this package reduces to a
// direct walk over equality's already-finalized ir.MemberInfo chains (see
// buildChain's comment for why that's equivalent without re-deriving the
// algebra from scratch), and DataFlowDependency.py/DependencyProcessor.py
// for the same SCC-ordered path-enumeration shape internal/forbidden uses.
package dataflow

import (
	"ownc/internal/depgraph"
	"ownc/internal/diag"
	"ownc/internal/ids"
	"ownc/internal/ir"
)

// maxPaths is the safety valve on path enumeration (§5's resource model):
// a pathological function with many joins could otherwise blow up the
// path count combinatorially.
const maxPaths = 20000

// Process enumerates every minimal argument-to-result data-flow path in fn,
// grounded on fn's already-equality-processed body (TVInfo/Members must be
// populated). Panics with a diag.Diagnostic if path enumeration exceeds its
// safety valve.
func Process(fn *ir.Function) []ir.DataFlowPath {
	if fn == nil || fn.Body == nil || len(fn.Body.Blocks) == 0 {
		return nil
	}
	entry := fn.Body.Entry()
	end := entry.GetLastReal()
	if end == nil {
		return nil
	}

	byID := make(map[ids.InstructionID]*ir.Instruction)
	bindOf := make(map[ids.TempVar]ids.InstructionID)
	var argInstrs []ids.InstructionID
	fn.Body.Walk(func(in *ir.Instruction) {
		byID[in.ID] = in
		if in.Kind == ir.KindBind {
			bindOf[in.Data.(ir.BindData).Name] = in.ID
		}
		if in.Kind == ir.KindValueRef && in.Data.(ir.ValueRefData).Name.IsArg {
			argInstrs = append(argInstrs, in.ID)
			name := in.Data.(ir.ValueRefData).Name
			if _, seen := bindOf[name]; !seen {
				bindOf[name] = in.ID
			}
		}
	})
	argSet := make(map[ids.InstructionID]bool, len(argInstrs))
	for _, id := range argInstrs {
		argSet[id] = true
	}

	deps := make(map[ids.InstructionID][]ids.InstructionID, len(byID))
	g := depgraph.New[ids.InstructionID]()
	fn.Body.Walk(func(in *ir.Instruction) {
		d := instrDeps(fn, in, bindOf)
		deps[in.ID] = d
		g.Add(in.ID, d...)
	})
	groups := g.SCCs()

	paths := enumeratePaths(deps, groups)

	var out []ir.DataFlowPath
	for item, itemPaths := range paths {
		if item != end.ID {
			// Only paths that reach the function's result are kept; the
			// original filters on path[-1] == end_instruction.id the same
			// way once every item's paths are known.
			continue
		}
		for _, path := range itemPaths {
			if len(path) == 0 || !argSet[path[0]] {
				continue
			}
			dp, ok := buildPath(fn, path, byID)
			if ok {
				out = append(out, dp)
			}
		}
	}
	return out
}

// enumeratePaths ports createPaths's path-building loop: every item with no
// dependency starts a new singleton path; every other item extends each of
// its (out-of-group) dependencies' paths by itself. Dependencies inside the
// same SCC group are skipped - the original's explicit cycle-breaking rule,
// since a path through a cycle is never minimal.
func enumeratePaths(deps map[ids.InstructionID][]ids.InstructionID, groups [][]ids.InstructionID) map[ids.InstructionID][][]ids.InstructionID {
	paths := make(map[ids.InstructionID][][]ids.InstructionID)
	total := 0
	for _, group := range groups {
		inGroup := make(map[ids.InstructionID]bool, len(group))
		for _, item := range group {
			inGroup[item] = true
		}
		for _, item := range group {
			d := deps[item]
			var itemPaths [][]ids.InstructionID
			if len(d) == 0 {
				itemPaths = [][]ids.InstructionID{{item}}
			} else {
				for _, dep := range d {
					if inGroup[dep] {
						continue
					}
					for _, depPath := range paths[dep] {
						np := make([]ids.InstructionID, len(depPath)+1)
						copy(np, depPath)
						np[len(depPath)] = item
						itemPaths = append(itemPaths, np)
					}
				}
			}
			paths[item] = itemPaths
			total += len(itemPaths)
			if total > maxPaths {
				panic(diag.Convergence("data-flow path enumeration", maxPaths))
			}
		}
	}
	return paths
}

// instrDeps is the dependency-edge rule internal/forbidden ports from
// DataFlowDependency.py, duplicated here (not shared) so the two engines
// stay independent packages per §4's component layout. It differs in one
// edge: an instruction that uses an argument (e.g. a MemberAccess on it)
// depends on that argument's first ValueRef read, recorded in bindOf by
// Process, so a path can start at the argument and run through field
// accesses on it.
func instrDeps(fn *ir.Function, in *ir.Instruction, bindOf map[ids.TempVar]ids.InstructionID) []ids.InstructionID {
	dep := func(v ids.TempVar) []ids.InstructionID {
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
		b := in.Data.(ir.BlockRefData)
		if last := fn.Body.Block(b.Block).GetLastReal(); last != nil {
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
		return nil
	}
}

// buildPath reduces one enumerated instruction path into an ir.DataFlowPath,
// walking the path and splitting it into the "reading into the argument"
// half (Src) and "constructing into the result" half (Dest) at the point a
// constructor call's argument matches the immediately preceding path
// element - the same "arg == prev" test the original's processPath makes,
// adapted for this IR's TempVar-keyed constructor arguments (see
// argMatches).
//
// Rather than re-deriving the original's Value/FieldAccess/Record algebra,
// this reuses the ir.MemberInfo chains equality (§4.F) already finalized on
// each ValueRef/MemberAccess instruction, since those chains are exactly
// the same field-projection structure the algebra computes. The one
// normalize() cancellation this still performs explicitly is the common
// one-hop case - a field access immediately undoing the constructor field
// it was just built from; deeper re-normalization chains are out of scope
// for this reduction.
func buildPath(fn *ir.Function, path []ids.InstructionID, byID map[ids.InstructionID]*ir.Instruction) (ir.DataFlowPath, bool) {
	start := byID[path[0]]
	if start == nil || start.Kind != ir.KindValueRef {
		return ir.DataFlowPath{}, false
	}
	argName := start.Data.(ir.ValueRefData).Name
	argIndex := -1
	var argTVI ids.TypeVariableInfo
	for i, p := range fn.Params {
		if p.Name == argName {
			argIndex = i
			argTVI = p.TVI
			break
		}
	}
	if argIndex < 0 {
		return ir.DataFlowPath{}, false
	}

	var src, dest []ir.MemberInfo
	recordSeen := false
	var prev ids.InstructionID = ids.NoInstructionID
	for _, id := range path {
		in := byID[id]
		if in == nil {
			prev = id
			continue
		}
		switch in.Kind {
		case ir.KindMemberAccess, ir.KindValueRef:
			for _, m := range in.Members {
				if recordSeen && len(dest) > 0 && dest[len(dest)-1].Index == m.Index {
					dest = dest[:len(dest)-1]
					if len(dest) == 0 {
						recordSeen = false
					}
					continue
				}
				if recordSeen {
					dest = append(dest, m)
				} else {
					src = append(src, m)
				}
			}
		case ir.KindNamedFunctionCall:
			data := in.Data.(ir.NamedFunctionCallData)
			if !data.Ctor {
				break
			}
			for i, arg := range data.Args {
				if argMatches(byID[prev], arg) {
					dest = append(dest, ir.MemberInfo{Root: in.TVInfo.Group, Kind: ir.MemberField, Index: i, Info: in.TVInfo})
					recordSeen = true
				}
			}
		}
		prev = id
	}

	end := byID[path[len(path)-1]]
	return ir.DataFlowPath{
		Arg:    argTVI,
		Result: end.TVInfo,
		Index:  argIndex,
		Src:    src,
		Dest:   dest,
	}, true
}

// argMatches reports whether prev is the instruction that produced arg: a
// bare ValueRef naming it, or the Bind that introduced it.
func argMatches(prev *ir.Instruction, arg ids.TempVar) bool {
	if prev == nil {
		return false
	}
	switch prev.Kind {
	case ir.KindValueRef:
		return prev.Data.(ir.ValueRefData).Name == arg
	case ir.KindBind:
		return prev.Data.(ir.BindData).Name == arg
	}
	return false
}
