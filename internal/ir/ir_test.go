package ir

import (
	"bytes"
	"testing"

	"ownc/internal/ids"
)

func sampleBody() *Body {
	body := &Body{}
	body.AddBlock()
	blk := body.Block(0)
	blk.Instr = append(blk.Instr,
		Instruction{ID: ids.InstructionID{Block: 0, Offset: 0}, Kind: KindValueRef, Data: ValueRefData{Name: ids.TempVar{Index: 1, IsArg: true}}},
		Instruction{ID: ids.InstructionID{Block: 0, Offset: 1}, Kind: KindDropVar, Data: DropVarData{Name: ids.TempVar{Index: 1, IsArg: true}}},
		Instruction{ID: ids.InstructionID{Block: 0, Offset: 2}, Kind: KindNop, Data: NopData{}},
	)
	return body
}

func TestBlockGetLastRealSkipsDropAndNop(t *testing.T) {
	body := sampleBody()
	last := body.Block(0).GetLastReal()
	if last == nil || last.Kind != KindValueRef {
		t.Fatalf("expected last real instruction to be the ValueRef, got %+v", last)
	}
}

func TestTrimTrailingNops(t *testing.T) {
	body := sampleBody()
	blk := body.Block(0)
	before := len(blk.Instr)
	blk.TrimTrailingNops()
	if len(blk.Instr) != before-1 {
		t.Fatalf("expected exactly one trailing nop trimmed, got %d -> %d", before, len(blk.Instr))
	}
	if blk.Instr[len(blk.Instr)-1].Kind == KindNop {
		t.Fatalf("trailing nop should have been removed")
	}
}

func TestPathInvalidatesWholeDominates(t *testing.T) {
	v := ids.TempVar{Index: 3}
	whole := Whole(v, false)
	partial := Partial(v, []string{"f"})
	if !whole.Invalidates(partial) {
		t.Fatalf("whole path should invalidate a partial of the same var")
	}
	if !partial.Invalidates(whole) {
		t.Fatalf("invalidation must be symmetric when either side is whole")
	}
}

func TestPathInvalidatesPartialPrefix(t *testing.T) {
	v := ids.TempVar{Index: 3}
	a := Partial(v, []string{"f", "g"})
	b := Partial(v, []string{"f"})
	if !a.Invalidates(b) || !b.Invalidates(a) {
		t.Fatalf("a common prefix must invalidate both directions")
	}
	c := Partial(v, []string{"h"})
	if a.Invalidates(c) {
		t.Fatalf("disjoint fields must not invalidate")
	}
}

func TestPathInvalidatesDifferentVar(t *testing.T) {
	a := Whole(ids.TempVar{Index: 1}, false)
	b := Whole(ids.TempVar{Index: 2}, false)
	if a.Invalidates(b) {
		t.Fatalf("different roots must never invalidate")
	}
}

func TestGetAllMembersCollatesInstructionsAndPaths(t *testing.T) {
	body := &Body{}
	body.AddBlock()
	blk := body.Block(0)
	blk.Instr = append(blk.Instr, Instruction{
		Members: []MemberInfo{{Root: 1, Index: 0, Info: ids.TypeVariableInfo{Ownership: 1, Group: 1}}},
	})
	paths := []DataFlowPath{{
		Src:  []MemberInfo{{Root: 2, Index: 0}},
		Dest: []MemberInfo{{Root: 3, Index: 0}},
	}}
	all := body.GetAllMembers(paths)
	if len(all) != 3 {
		t.Fatalf("expected 3 members (1 instr + 1 src + 1 dest), got %d", len(all))
	}
}

func TestPrintFunctionDoesNotPanic(t *testing.T) {
	fn := &Function{Name: ids.QualifiedName{Module: "m", Name: "f"}, Body: sampleBody()}
	var buf bytes.Buffer
	if err := Dump(&buf, fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected non-empty output")
	}
}
