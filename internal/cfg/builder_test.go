package cfg

import (
	"testing"

	"ownc/internal/ids"
	"ownc/internal/ir"
)

func mkFunc(blocks ...ir.Block) *ir.Function {
	body := &ir.Body{Blocks: blocks}
	return &ir.Function{Name: ids.QualifiedName{Module: "m", Name: "f"}, Body: body}
}

func TestBuildLinearChain(t *testing.T) {
	v := ids.TempVar{Index: 1, IsArg: true}
	entry := ir.Block{ID: 0, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 0, Offset: 0}, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: v}},
		{ID: ids.InstructionID{Block: 0, Offset: 1}, Kind: ir.KindReturn, Data: ir.ReturnData{Arg: v}},
	}}
	fn := mkFunc(entry)
	g := Build(fn)

	vrKey := ir.NodeKey{Kind: ir.NodeInstruction, ID: ids.InstructionID{Block: 0, Offset: 0}}
	idx, ok := g.NodeByKey(vrKey)
	if !ok {
		t.Fatalf("expected ValueRef node to exist")
	}
	if g.Nodes[idx].Usage == nil {
		t.Fatalf("expected ValueRef node to carry a usage")
	}
	// Return severs flow, so End should have no incoming edges from it.
	endIdx, ok := g.NodeByKey(ir.EndKey)
	if !ok {
		t.Fatalf("expected End node to exist")
	}
	if len(g.Nodes[endIdx].Incoming) != 0 {
		t.Fatalf("Return must not connect to End, got %d incoming edges", len(g.Nodes[endIdx].Incoming))
	}
}

func TestBuildFallsThroughToEnd(t *testing.T) {
	entry := ir.Block{ID: 0, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 0, Offset: 0}, Kind: ir.KindNop, Data: ir.NopData{}},
	}}
	fn := mkFunc(entry)
	g := Build(fn)

	endIdx, ok := g.NodeByKey(ir.EndKey)
	if !ok {
		t.Fatalf("expected End node")
	}
	if len(g.Nodes[endIdx].Incoming) != 1 {
		t.Fatalf("expected exactly one edge into End, got %d", len(g.Nodes[endIdx].Incoming))
	}
}

func TestBuildIfJoinsBothArms(t *testing.T) {
	cond := ids.TempVar{Index: 1, IsArg: true}
	ifID := ids.InstructionID{Block: 0, Offset: 0}
	entry := ir.Block{ID: 0, Instr: []ir.Instruction{
		{ID: ifID, Kind: ir.KindIf, Data: ir.IfData{Cond: cond, TrueBranch: 1, FalseBranch: 2}},
	}}
	trueBlk := ir.Block{ID: 1, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 1, Offset: 0}, Kind: ir.KindNop, Data: ir.NopData{}},
	}}
	falseBlk := ir.Block{ID: 2, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 2, Offset: 0}, Kind: ir.KindNop, Data: ir.NopData{}},
	}}
	fn := mkFunc(entry, trueBlk, falseBlk)
	g := Build(fn)

	ifKey := ir.NodeKey{Kind: ir.NodeIf, ID: ifID}
	idx, ok := g.NodeByKey(ifKey)
	if !ok {
		t.Fatalf("expected If node to exist")
	}
	if len(g.Nodes[idx].Incoming) != 2 {
		t.Fatalf("expected both arms to join into the If node, got %d incoming edges", len(g.Nodes[idx].Incoming))
	}
}

func TestBuildIfArmEndingInReturnSkipsJoin(t *testing.T) {
	cond := ids.TempVar{Index: 1, IsArg: true}
	ifID := ids.InstructionID{Block: 0, Offset: 0}
	entry := ir.Block{ID: 0, Instr: []ir.Instruction{
		{ID: ifID, Kind: ir.KindIf, Data: ir.IfData{Cond: cond, TrueBranch: 1, FalseBranch: 2}},
	}}
	trueBlk := ir.Block{ID: 1, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 1, Offset: 0}, Kind: ir.KindReturn, Data: ir.ReturnData{Arg: cond}},
	}}
	falseBlk := ir.Block{ID: 2, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 2, Offset: 0}, Kind: ir.KindNop, Data: ir.NopData{}},
	}}
	fn := mkFunc(entry, trueBlk, falseBlk)
	g := Build(fn)

	ifKey := ir.NodeKey{Kind: ir.NodeIf, ID: ifID}
	idx, ok := g.NodeByKey(ifKey)
	if !ok {
		t.Fatalf("expected If node to exist")
	}
	if len(g.Nodes[idx].Incoming) != 1 {
		t.Fatalf("expected only the false arm to join (true arm returned), got %d", len(g.Nodes[idx].Incoming))
	}
}

func TestBuildLoopBreakTarget(t *testing.T) {
	loopVar := ids.TempVar{Index: 1, IsArg: true}
	loopID := ids.InstructionID{Block: 0, Offset: 0}
	breakID := ids.InstructionID{Block: 1, Offset: 0}
	entry := ir.Block{ID: 0, Instr: []ir.Instruction{
		{ID: loopID, Kind: ir.KindLoop, Data: ir.LoopData{Var: loopVar, Body: 1}},
	}}
	bodyBlk := ir.Block{ID: 1, Instr: []ir.Instruction{
		{ID: breakID, Kind: ir.KindBreak, Data: ir.BreakData{Arg: loopVar}},
	}}
	fn := mkFunc(entry, bodyBlk)
	g := Build(fn)

	startKey := ir.NodeKey{Kind: ir.NodeLoopStart, ID: loopID}
	endKey := ir.NodeKey{Kind: ir.NodeLoopEnd, ID: loopID}
	startIdx, ok := g.NodeByKey(startKey)
	if !ok {
		t.Fatalf("expected LoopStart node")
	}
	endIdx, ok := g.NodeByKey(endKey)
	if !ok {
		t.Fatalf("expected LoopEnd node")
	}
	if len(g.Nodes[endIdx].Incoming) != 1 {
		t.Fatalf("expected break to target LoopEnd exactly once, got %d", len(g.Nodes[endIdx].Incoming))
	}
	// The body only breaks, so there is no back-edge; LoopStart's outgoing
	// edge is the one the Break takes to LoopEnd.
	if len(g.Nodes[startIdx].Outgoing) == 0 {
		t.Fatalf("expected LoopStart to have an outgoing edge toward LoopEnd")
	}
}

func TestSourcesHaveNoIncomingEdges(t *testing.T) {
	v := ids.TempVar{Index: 1, IsArg: true}
	entry := ir.Block{ID: 0, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 0, Offset: 0}, Kind: ir.KindValueRef, Data: ir.ValueRefData{Name: v}},
	}}
	fn := mkFunc(entry)
	g := Build(fn)
	for _, idx := range g.Sources() {
		if len(g.Nodes[idx].Incoming) != 0 {
			t.Fatalf("source node %d has incoming edges", idx)
		}
	}
	if len(g.Sources()) == 0 {
		t.Fatalf("expected at least one source node")
	}
}
