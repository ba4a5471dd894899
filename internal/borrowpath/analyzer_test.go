package borrowpath

import (
	"testing"

	"ownc/internal/cfg"
	"ownc/internal/ids"
	"ownc/internal/ir"
)

func mkFunc(instrs ...ir.Instruction) *ir.Function {
	body := &ir.Body{Blocks: []ir.Block{{ID: 0, Instr: instrs}}}
	return &ir.Function{Name: ids.QualifiedName{Module: "m", Name: "f"}, Body: body}
}

// Scenario 4 from §8: a single field read followed by the variable's
// synthetic drop - the read is a move, the drop must be cancelled.
func TestReadThroughFieldCancelsDrop(t *testing.T) {
	c := ids.TempVar{Index: 1, IsArg: true}
	readID := ids.InstructionID{Block: 0, Offset: 0}
	dropID := ids.InstructionID{Block: 0, Offset: 1}

	fn := mkFunc(
		ir.Instruction{ID: readID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: c, Fields: []string{"f"}}},
		ir.Instruction{ID: dropID, Kind: ir.KindDropVar, Data: ir.DropVarData{Name: c}},
	)
	g := cfg.Build(fn)
	res := NewAnalyzer(g).Run()

	dropKey := ir.NodeKey{Kind: ir.NodeDrop, ID: dropID}
	if !res.CancelledDrops[dropKey] {
		t.Fatalf("expected the drop of c to be cancelled after c.f was read")
	}
	readKey := ir.NodeKey{Kind: ir.NodeInstruction, ID: readID}
	if res.Borrows[readKey] {
		t.Fatalf("a single read consumed by a drop should not be forced into a borrow")
	}

	res.Apply(fn)
	// TrimTrailingNops should have removed the rewritten Nop entirely,
	// leaving only the read.
	if len(fn.Body.Blocks[0].Instr) != 1 {
		t.Fatalf("expected the cancelled drop to be trimmed, got %d instructions", len(fn.Body.Blocks[0].Instr))
	}
}

// Two reads of the same field path: the second invalidates the first, and
// since the second is not a drop, the first is forced into a borrow.
func TestSecondReadForcesFirstIntoBorrow(t *testing.T) {
	c := ids.TempVar{Index: 1, IsArg: true}
	firstID := ids.InstructionID{Block: 0, Offset: 0}
	secondID := ids.InstructionID{Block: 0, Offset: 1}

	fn := mkFunc(
		ir.Instruction{ID: firstID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: c, Fields: []string{"f"}}},
		ir.Instruction{ID: secondID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: c, Fields: []string{"f"}}},
	)
	g := cfg.Build(fn)
	res := NewAnalyzer(g).Run()

	firstKey := ir.NodeKey{Kind: ir.NodeInstruction, ID: firstID}
	if !res.Borrows[firstKey] {
		t.Fatalf("expected the first read to be forced into a borrow by the second")
	}

	res.Apply(fn)
	first := fn.Body.Blocks[0].Instr[0]
	if !first.Data.(ir.ValueRefData).Borrow {
		t.Fatalf("expected Apply to set Borrow=true on the first ValueRef")
	}
}

// Disjoint field paths never invalidate each other.
func TestDisjointFieldsDoNotInvalidate(t *testing.T) {
	c := ids.TempVar{Index: 1, IsArg: true}
	aID := ids.InstructionID{Block: 0, Offset: 0}
	bID := ids.InstructionID{Block: 0, Offset: 1}

	fn := mkFunc(
		ir.Instruction{ID: aID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: c, Fields: []string{"f"}}},
		ir.Instruction{ID: bID, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: c, Fields: []string{"g"}}},
	)
	g := cfg.Build(fn)
	res := NewAnalyzer(g).Run()

	aKey := ir.NodeKey{Kind: ir.NodeInstruction, ID: aID}
	bKey := ir.NodeKey{Kind: ir.NodeInstruction, ID: bID}
	if res.Borrows[aKey] || res.Borrows[bKey] {
		t.Fatalf("disjoint field reads must not force either into a borrow")
	}
}

// Trivial move: a single whole-variable read with no further use and no
// drop is neither borrowed nor cancelled.
func TestTrivialMoveIsPlainMove(t *testing.T) {
	x := ids.TempVar{Index: 1, IsArg: true}
	id := ids.InstructionID{Block: 0, Offset: 0}
	fn := mkFunc(ir.Instruction{ID: id, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: x}})
	g := cfg.Build(fn)
	res := NewAnalyzer(g).Run()

	key := ir.NodeKey{Kind: ir.NodeInstruction, ID: id}
	if res.Borrows[key] {
		t.Fatalf("a lone whole-variable read must not be forced into a borrow")
	}
	if len(res.CancelledDrops) != 0 {
		t.Fatalf("expected no cancelled drops")
	}
}
