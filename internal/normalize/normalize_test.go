package normalize

import (
	"testing"

	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/ownership"
)

func mkProvider(owners []ids.OwnershipVar, borrows map[ids.OwnershipVar]ids.BorrowID) *Provider {
	ownerships := make(map[ids.OwnershipVar]ownership.Ownership, len(owners)+len(borrows))
	for _, v := range owners {
		ownerships[v] = ownership.Ownership{Kind: ir.OwnOwner}
	}
	for v, b := range borrows {
		ownerships[v] = ownership.Ownership{Kind: ir.OwnBorrow, Borrow: b}
	}
	return NewProvider(&ownership.Result{Ownerships: ownerships})
}

// A signature with no borrowed members renormalizes its args/result to
// fresh, low, densely-packed ids, and carries no borrow/member noise.
func TestNormalizeFunctionSignatureRenumbersDensely(t *testing.T) {
	sig := ir.FunctionOwnershipSignature{
		Args:   []ids.TypeVariableInfo{{Ownership: 10, Group: 10}},
		Result: ids.TypeVariableInfo{Ownership: 11, Group: 11},
		Owners: []ids.OwnershipVar{10, 11},
	}
	prov := mkProvider([]ids.OwnershipVar{10, 11}, nil)

	out := NormalizeFunctionSignature(sig, nil, nil, prov, false)
	if out.Args[0].Ownership == 10 {
		t.Fatalf("expected the arg's ownership var to be renumbered, still 10")
	}
	if out.Result.Ownership == out.Args[0].Ownership {
		t.Fatalf("expected distinct renumbered ids for arg and result")
	}
	if len(out.Owners) != 2 {
		t.Fatalf("expected both owner vars preserved, got %v", out.Owners)
	}
	if out.Args[0].Ownership != 1 || out.Result.Ownership != 2 {
		t.Fatalf("expected dense ids 1 and 2 for arg and result, got %d and %d", out.Args[0].Ownership, out.Result.Ownership)
	}
	if len(out.Borrows) != 0 || len(out.Members) != 0 {
		t.Fatalf("expected no borrows or members, got %v and %v", out.Borrows, out.Members)
	}
}

// A var that appears in both the signature and one of the function's
// data-flow paths renumbers to the same fresh id in both places, the
// property the profile-store dedup key depends on.
func TestNormalizeFunctionProfileSharesVarSpaceAcrossSignatureAndPaths(t *testing.T) {
	argTVI := ids.TypeVariableInfo{Ownership: 10, Group: 10}
	resultTVI := ids.TypeVariableInfo{Ownership: 11, Group: 11}
	sig := ir.FunctionOwnershipSignature{
		Args:   []ids.TypeVariableInfo{argTVI},
		Result: resultTVI,
		Owners: []ids.OwnershipVar{10, 11},
	}
	paths := []ir.DataFlowPath{
		{Arg: argTVI, Result: resultTVI, Index: 0},
	}
	prov := mkProvider([]ids.OwnershipVar{10, 11}, nil)

	normSig, normPaths := NormalizeFunctionProfile(sig, paths, nil, nil, prov, false)
	if normPaths[0].Arg.Ownership != normSig.Args[0].Ownership {
		t.Fatalf("expected the path's arg var to renumber identically to the signature's: path=%v sig=%v",
			normPaths[0].Arg.Ownership, normSig.Args[0].Ownership)
	}
	if normPaths[0].Result.Ownership != normSig.Result.Ownership {
		t.Fatalf("expected the path's result var to renumber identically to the signature's")
	}
}

// filterOutMembers keeps only members reachable from the signature's own
// groups, dropping unrelated members entirely.
func TestFilterOutMembersDropsUnreachableMembers(t *testing.T) {
	groups := []ids.GroupVar{1}
	depMap := map[ids.GroupVar][]ids.OwnershipVar{1: {20}}
	members := []ir.MemberInfo{
		{Root: 1, Index: 0, Info: ids.TypeVariableInfo{Ownership: 20, Group: 20}},
		{Root: 99, Index: 0, Info: ids.TypeVariableInfo{Ownership: 30, Group: 30}},
	}
	prov := mkProvider([]ids.OwnershipVar{20, 30}, nil)

	filtered, _, owners := filterOutMembers(groups, depMap, members, prov, nil, nil, false)
	if len(filtered) != 1 || filtered[0].Info.Ownership != 20 {
		t.Fatalf("expected only the reachable member to survive, got %+v", filtered)
	}
	if len(owners) != 1 || owners[0] != 20 {
		t.Fatalf("expected owners to collect only the reachable member's var, got %v", owners)
	}
}
