package ownfmt

import (
	"testing"

	"ownc/internal/ids"
	"ownc/internal/ir"
)

func mkProgram() *ir.Program {
	fnName := ids.QualifiedName{Module: "m", Name: "f"}
	body := &ir.Body{Blocks: []ir.Block{{ID: 0, Instr: []ir.Instruction{
		{ID: ids.InstructionID{Block: 0, Offset: 0}, Kind: ir.KindMemberAccess,
			Data: ir.MemberAccessData{Receiver: ids.TempVar{Index: 0, IsArg: true}, Name: "x", Index: 1}},
		{ID: ids.InstructionID{Block: 0, Offset: 1}, Kind: ir.KindReturn,
			Data: ir.ReturnData{Arg: ids.TempVar{Index: 0, IsArg: true}}},
	}}}}
	fn := &ir.Function{Name: fnName, Params: []ir.Param{{Name: ids.TempVar{Index: 0, IsArg: true}}}, Body: body}

	className := ids.QualifiedName{Module: "m", Name: "Box"}
	class := &ir.Class{Name: className, Fields: []ir.Field{{Name: "x", Index: 1}}}

	p := ir.NewProgram()
	p.Functions[fnName] = fn
	p.Classes[className] = class
	return p
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	p := mkProgram()
	classRefs := map[ir.TypeRef]ids.QualifiedName{{ID: 7}: {Module: "m", Name: "Box"}}

	data, err := Encode(p, classRefs)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, classOf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	fnName := ids.QualifiedName{Module: "m", Name: "f"}
	fn, ok := out.Functions[fnName]
	if !ok {
		t.Fatalf("function %s missing after round trip", fnName)
	}
	if len(fn.Body.Blocks) != 1 || len(fn.Body.Blocks[0].Instr) != 2 {
		t.Fatalf("unexpected body shape: %+v", fn.Body)
	}
	if data, ok := fn.Body.Blocks[0].Instr[0].Data.(ir.MemberAccessData); !ok || data.Index != 1 {
		t.Fatalf("expected MemberAccessData.Index == 1, got %+v", fn.Body.Blocks[0].Instr[0].Data)
	}

	if cls, ok := classOf[ir.TypeRef{ID: 7}]; !ok || cls.Name.Name != "Box" {
		t.Fatalf("expected classOf[7] to resolve to Box, got %+v (ok=%v)", cls, ok)
	}
}

func TestDecodeRejectsNegativeFieldIndex(t *testing.T) {
	w := wireProgram{
		Functions: []wireFunction{{
			Name:    ids.QualifiedName{Module: "m", Name: "bad"},
			HasBody: true,
			Blocks: []wireBlock{{Instr: []wireInstruction{
				{Kind: ir.KindMemberAccess, FieldIndex: -1},
			}}},
		}},
	}
	data, err := marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, _, err := Decode(data); err == nil {
		t.Fatalf("expected Decode to reject a negative field index")
	}
}
