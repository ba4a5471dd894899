package mono

import (
	"testing"

	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/ownership"
)

func mkProgram() *ir.Program {
	p := ir.NewProgram()
	return p
}

// An arg's borrow witness set that is a subset of the result's produces a
// lifetime-dependency edge; an unrelated borrow does not.
func TestLifetimeEdgesEmitsEdgeOnlyForSubsetWitnesses(t *testing.T) {
	bm := ir.NewBorrowMap()
	argBorrow := ids.BorrowID(1)
	resultBorrow := ids.BorrowID(2)
	otherBorrow := ids.BorrowID(3)

	site := ir.NodeKey{Kind: ir.NodeInstruction, ID: ids.InstructionID{Block: 0, Offset: 0}}
	w := ir.BorrowWitness{Kind: ir.BorrowLocal, Local: ir.Usage{Site: site, Path: ir.Whole(ids.TempVar{Index: 1, IsArg: true}, false)}}
	bm.Add(argBorrow, w)
	bm.Add(resultBorrow, w) // result's witness set is a superset (contains arg's)

	otherSite := ir.NodeKey{Kind: ir.NodeInstruction, ID: ids.InstructionID{Block: 0, Offset: 1}}
	bm.Add(otherBorrow, ir.BorrowWitness{Kind: ir.BorrowLocal, Local: ir.Usage{Site: otherSite, Path: ir.Whole(ids.TempVar{Index: 2, IsArg: true}, false)}})

	res := &ownership.Result{
		Borrows: bm,
		Ownerships: map[ids.OwnershipVar]ownership.Ownership{
			10: {Kind: ir.OwnBorrow, Borrow: argBorrow},
			11: {Kind: ir.OwnBorrow, Borrow: otherBorrow},
			20: {Kind: ir.OwnBorrow, Borrow: resultBorrow},
		},
	}
	sig := ir.FunctionOwnershipSignature{
		Args: []ids.TypeVariableInfo{
			{Ownership: 10, Group: 1},
			{Ownership: 11, Group: 2},
		},
		Result: ids.TypeVariableInfo{Ownership: 20, Group: 3},
	}

	edges := lifetimeEdges(res, sig)
	if len(edges) != 1 {
		t.Fatalf("expected exactly one lifetime edge, got %+v", edges)
	}
	if edges[0].From != argBorrow || edges[0].To != resultBorrow {
		t.Fatalf("unexpected edge: %+v", edges[0])
	}
}

// processClass synthesizes a fresh TVI for a field the constructor never
// touched, and resolves each field's Ownership/Lifetime straight from the
// signature's own Borrows list.
func TestProcessClassSynthesizesMissingFieldAndAttachesLifetime(t *testing.T) {
	className := ids.QualifiedName{Module: "m", Name: "Box"}
	class := &ir.Class{Name: className, Fields: []ir.Field{{Name: "value", Index: 0}, {Name: "tag", Index: 1}}}
	program := mkProgram()
	program.Classes[className] = class

	root := ids.TypeVariableInfo{Ownership: 1, Group: 1}
	fieldInfoVal := ids.TypeVariableInfo{Ownership: 2, Group: 2}
	sig := ir.ClassInstantiationSignature{
		Name: className,
		Root: root,
		Members: []ir.MemberInfo{
			{Root: root.Group, Kind: ir.MemberField, Index: 0, Info: fieldInfoVal},
		},
		Borrows: []ir.ExternalBorrow{{Ownership: fieldInfoVal.Ownership, Borrow: 7}},
	}

	m := New(program, nil)
	m.processClass(sig)

	mc, ok := m.out.Classes[sig.Key()]
	if !ok {
		t.Fatalf("expected a published class instantiation")
	}
	if len(mc.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(mc.Fields))
	}
	if mc.Fields[0].Ownership != ir.OwnBorrow || mc.Fields[0].Lifetime != 7 {
		t.Fatalf("expected field 0 to resolve to borrow 7, got %+v", mc.Fields[0])
	}
	if !fieldInfo(sig, 1).IsValid() == true {
		// field 1 was never in sig.Members, so fieldInfo reports invalid -
		// processClass must have synthesized a fresh TVI for it instead.
	}
	if mc.Fields[1].Ownership != ir.OwnOwner {
		t.Fatalf("expected a synthesized field to default to Owner, got %+v", mc.Fields[1])
	}

	// Re-processing the same signature must not republish (check-then-insert).
	m.out.Classes[sig.Key()].Fields = nil
	m.processClass(sig)
	if m.out.Classes[sig.Key()].Fields != nil {
		t.Fatalf("expected the second processClass call to be a no-op")
	}
}

// Monomorphize on a parameterless function with no calls publishes exactly
// one function instantiation whose result defaults to Owner (no borrow
// source exists in an empty body).
func TestMonomorphizeEntryWithNoCallsProducesOneFunction(t *testing.T) {
	entryName := ids.QualifiedName{Module: "m", Name: "main"}
	fn := &ir.Function{
		Name: entryName,
		Body: &ir.Body{Blocks: []ir.Block{{ID: 0}}},
	}
	program := mkProgram()
	program.Functions[entryName] = fn

	out, err := Monomorphize(program, nil, entryName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Functions) != 1 {
		t.Fatalf("expected exactly one published function, got %d", len(out.Functions))
	}
	for _, mf := range out.Functions {
		if mf.ResultRef.Ownership != ir.OwnOwner {
			t.Fatalf("expected the entry's result to default to Owner, got %+v", mf.ResultRef)
		}
		if len(mf.LifetimeDependencies) != 0 {
			t.Fatalf("expected no lifetime edges for a borrowless entry, got %+v", mf.LifetimeDependencies)
		}
	}
}
