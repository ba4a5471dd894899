package profile

import (
	"testing"

	"ownc/internal/ids"
	"ownc/internal/ir"
)

func mkProgram(fns ...*ir.Function) *ir.Program {
	p := ir.NewProgram()
	for _, fn := range fns {
		p.Functions[fn.Name] = fn
	}
	return p
}

// BuildGroups decomposes a simple two-function call chain into leaves-first
// singleton groups, and flags direct self-recursion.
func TestBuildGroupsOrdersCalleesBeforeCallersAndFlagsRecursion(t *testing.T) {
	callerName := ids.QualifiedName{Module: "m", Name: "caller"}
	calleeName := ids.QualifiedName{Module: "m", Name: "callee"}
	recName := ids.QualifiedName{Module: "m", Name: "rec"}

	call := ir.Instruction{
		ID: ids.InstructionID{Block: 0, Offset: 0}, Kind: ir.KindNamedFunctionCall,
		Data: ir.NamedFunctionCallData{Name: calleeName},
	}
	caller := &ir.Function{Name: callerName, Body: &ir.Body{Blocks: []ir.Block{{ID: 0, Instr: []ir.Instruction{call}}}}}

	callee := &ir.Function{Name: calleeName, Body: &ir.Body{Blocks: []ir.Block{{ID: 0}}}}

	selfCall := ir.Instruction{
		ID: ids.InstructionID{Block: 0, Offset: 0}, Kind: ir.KindNamedFunctionCall,
		Data: ir.NamedFunctionCallData{Name: recName},
	}
	rec := &ir.Function{Name: recName, Body: &ir.Body{Blocks: []ir.Block{{ID: 0, Instr: []ir.Instruction{selfCall}}}}}

	program := mkProgram(caller, callee, rec)
	groups, recursive := BuildGroups(program)

	idx := func(name ids.QualifiedName) int {
		for i, g := range groups {
			for _, n := range g {
				if n == name {
					return i
				}
			}
		}
		return -1
	}
	if idx(calleeName) >= idx(callerName) {
		t.Fatalf("expected callee's group before caller's: callee=%d caller=%d", idx(calleeName), idx(callerName))
	}
	if !recursive[recName] {
		t.Fatalf("expected direct self-recursion flagged for %v", recName)
	}
	if recursive[callerName] || recursive[calleeName] {
		t.Fatalf("did not expect non-recursive functions flagged")
	}
}

// A leaf identity function (return the argument unchanged) publishes a
// profile whose one path has an empty src/dest shape.
func TestProcessGroupsPublishesIdentityFunctionProfile(t *testing.T) {
	c := ids.TempVar{Index: 1, IsArg: true}
	readID := ids.InstructionID{Block: 0, Offset: 0}
	read := ir.Instruction{ID: readID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: c}}
	fn := &ir.Function{
		Name:   ids.QualifiedName{Module: "m", Name: "identity"},
		Params: []ir.Param{{Name: c, TVI: ids.TypeVariableInfo{Ownership: 1, Group: 1}}},
		Body:   &ir.Body{Blocks: []ir.Block{{ID: 0, Instr: []ir.Instruction{read}}}},
	}
	program := mkProgram(fn)

	store, err := Infer(program, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := store.Profile(fn.Name)
	if !ok {
		t.Fatalf("expected a published profile for %v", fn.Name)
	}
	if len(p.Paths) != 1 {
		t.Fatalf("expected exactly one path, got %d", len(p.Paths))
	}
	if len(p.Paths[0].Src) != 0 || len(p.Paths[0].Dest) != 0 {
		t.Fatalf("expected an empty src/dest shape for an identity return, got %+v", p.Paths[0])
	}
}
