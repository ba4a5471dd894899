package forbidden

import (
	"testing"

	"ownc/internal/ids"
	"ownc/internal/ir"
)

func mkFunc(params []ir.Param, instrs ...ir.Instruction) *ir.Function {
	return &ir.Function{
		Name:   ids.QualifiedName{Module: "m", Name: "f"},
		Params: params,
		Body:   &ir.Body{Blocks: []ir.Block{{ID: 0, Instr: instrs}}},
	}
}

// A move witnessed at a ValueRef that reads a bound name is attributed both
// to the read's own ownership var and to the var the binding's right-hand
// side resolved to - the original's explicit "also charge the binding"
// rule.
func TestMoveAttributedToBindRHSOwnershipVar(t *testing.T) {
	c := ids.TempVar{Index: 1, IsArg: true}
	x := ids.TempVar{Index: 2, IsArg: false}

	rhsID := ids.InstructionID{Block: 0, Offset: 0}
	bindID := ids.InstructionID{Block: 0, Offset: 1}
	readID := ids.InstructionID{Block: 0, Offset: 2}

	rhs := ir.Instruction{
		ID: rhsID, Kind: ir.KindValueRef,
		Data:   ir.ValueRefData{Name: c},
		TVInfo: ids.TypeVariableInfo{Ownership: 1, Group: 1},
	}
	bind := ir.Instruction{
		ID: bindID, Kind: ir.KindBind,
		Data:   ir.BindData{Name: x, RHS: rhsID},
		TVInfo: ids.TypeVariableInfo{Ownership: 2, Group: 2},
	}
	read := ir.Instruction{
		ID: readID, Kind: ir.KindValueRef,
		Data:   ir.ValueRefData{Name: x, BindID: bindID},
		TVInfo: ids.TypeVariableInfo{Ownership: 3, Group: 3},
		Moves: []ir.Usage{
			{Site: ir.NodeKey{Kind: ir.NodeInstruction, ID: readID}, Path: ir.Whole(x, false)},
		},
	}

	fn := mkFunc([]ir.Param{{Name: c, TVI: ids.TypeVariableInfo{Ownership: 1, Group: 1}}}, rhs, bind, read)
	res := Process(fn)

	if !res.Forbidden(read.TVInfo.Ownership, readID) {
		t.Fatalf("expected the read's own ownership var to forbid a borrow at its move site")
	}
	if !res.Forbidden(rhs.TVInfo.Ownership, readID) {
		t.Fatalf("expected the bind's RHS ownership var to also forbid a borrow at the read's move site")
	}
	if res.Forbidden(bind.TVInfo.Ownership, readID) {
		t.Fatalf("the Bind instruction's own ownership var should not itself be charged - only its RHS")
	}
}

// A move witnessed at an instruction propagates forward along the
// dependency chain to every instruction that transitively depends on it:
// the RHS's move reaches the later read through the Bind (read -> Bind ->
// RHS).
func TestWitnessedMovePropagatesThroughDependencyChain(t *testing.T) {
	c := ids.TempVar{Index: 1, IsArg: true}
	x := ids.TempVar{Index: 2, IsArg: false}

	rhsID := ids.InstructionID{Block: 0, Offset: 0}
	bindID := ids.InstructionID{Block: 0, Offset: 1}
	readID := ids.InstructionID{Block: 0, Offset: 2}

	rhs := ir.Instruction{
		ID: rhsID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: c},
		TVInfo: ids.TypeVariableInfo{Ownership: 10, Group: 10},
		Moves:  []ir.Usage{{Site: ir.NodeKey{Kind: ir.NodeInstruction, ID: rhsID}, Path: ir.Whole(c, false)}},
	}
	bind := ir.Instruction{ID: bindID, Kind: ir.KindBind, Data: ir.BindData{Name: x, RHS: rhsID}, TVInfo: ids.TypeVariableInfo{Ownership: 11, Group: 11}}
	read := ir.Instruction{
		ID: readID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: x, BindID: bindID},
		TVInfo: ids.TypeVariableInfo{Ownership: 12, Group: 12},
		Moves:  []ir.Usage{{Site: ir.NodeKey{Kind: ir.NodeInstruction, ID: readID}, Path: ir.Whole(x, false)}},
	}

	fn := mkFunc([]ir.Param{{Name: c, TVI: ids.TypeVariableInfo{Ownership: 1, Group: 1}}}, rhs, bind, read)
	res := Process(fn)

	// The read's own move is forbidden for its own ownership var, and the
	// move witnessed at the RHS reaches the read through the Bind.
	if !res.Forbidden(read.TVInfo.Ownership, readID) {
		t.Fatalf("expected the move to be forbidden for its own instruction's ownership var")
	}
	if !res.Forbidden(read.TVInfo.Ownership, rhsID) {
		t.Fatalf("expected the RHS's move to propagate through the Bind to the read's ownership var")
	}
}
