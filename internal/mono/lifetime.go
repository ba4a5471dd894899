package mono

import (
	"fmt"
	"sort"

	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/ownership"
)

// LifetimeEdge is one `'la : 'lb` backend constraint: the lifetime of a
// borrowed argument outlives the lifetime of a borrowed result derived
// from it.
type LifetimeEdge struct {
	From ids.BorrowID
	To   ids.BorrowID
}

func (e LifetimeEdge) String() string {
	return fmt.Sprintf("%s : %s", e.From.Lifetime(), e.To.Lifetime())
}

// refAnnotation is the per-arg/per-field backend annotation: a display
// lifetime when the slot resolved to a borrow, plus every borrow id its
// own group transitively depends on (dep_lifetimes).
type refAnnotation struct {
	Ownership   ir.Ownership
	Lifetime    ids.BorrowID // NoBorrowID unless Ownership == OwnBorrow
	DepLifetime []ids.BorrowID
}

func annotate(res *ownership.Result, ownDeps map[ids.GroupVar][]ids.OwnershipVar, info ids.TypeVariableInfo) refAnnotation {
	o := res.Get(info.Ownership)
	a := refAnnotation{Ownership: o.Kind}
	if o.Kind == ir.OwnBorrow {
		a.Lifetime = o.Borrow
	}
	a.DepLifetime = depLifetimes(res, ownDeps, info.Group)
	return a
}

// depLifetimes collects every borrow id reachable from group through
// ownDeps's containment tree - "dep_lifetimes (all borrow ids reachable
// through the group)" from §4.L's class-instantiation bullet, generalized
// to any group (arg or field).
func depLifetimes(res *ownership.Result, ownDeps map[ids.GroupVar][]ids.OwnershipVar, group ids.GroupVar) []ids.BorrowID {
	seen := make(map[ids.BorrowID]bool)
	var out []ids.BorrowID
	for _, v := range ownDeps[group] {
		o := res.Get(v)
		if o.Kind == ir.OwnBorrow && !seen[o.Borrow] {
			seen[o.Borrow] = true
			out = append(out, o.Borrow)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// depLifetimesFromBorrows is depLifetimes' class-signature counterpart: a
// ClassInstantiationSignature's Borrows list already names every
// borrow-relevant ownership var directly (no ownership.Result to consult,
// since a class has no body of its own to run inference over), so the
// lookup is a map hit instead of a Result.Get call.
func depLifetimesFromBorrows(ownDeps map[ids.GroupVar][]ids.OwnershipVar, borrowOf map[ids.OwnershipVar]ids.BorrowID, group ids.GroupVar) []ids.BorrowID {
	seen := make(map[ids.BorrowID]bool)
	var out []ids.BorrowID
	for _, v := range ownDeps[group] {
		if b, ok := borrowOf[v]; ok && !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// witnessKey builds a comparable key for one BorrowWitness, since Usage's
// Path field holds a slice and cannot be compared with ==.
func witnessKey(w ir.BorrowWitness) string {
	switch w.Kind {
	case ir.BorrowLocal:
		return fmt.Sprintf("local|%v|%s", w.Local.Site, w.Local.Path.Key())
	case ir.BorrowExternal:
		return fmt.Sprintf("external|%d|%d", w.External.Ownership, w.External.Borrow)
	default:
		return "?"
	}
}

func witnessSet(bm *ir.BorrowMap, id ids.BorrowID) map[string]bool {
	out := make(map[string]bool)
	for _, w := range bm.Get(id) {
		out[witnessKey(w)] = true
	}
	return out
}

// subset reports whether every entry of a also appears in b - ports the
// monomorphizer's `borrow_map.getBorrows(from) <= borrow_map.getBorrows(to)`
// check, BorrowUtil.BorrowMap.getBorrows returning a witness set rather
// than a borrow-id set.
func subset(a, b map[string]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// lifetimeEdges computes, for every (arg, result) pair whose arg resolved
// to a borrow, whether the arg's witness set is a subset of the result's -
// if so the backend must keep the arg's lifetime alive at least as long as
// the result's. Ports §4.L's "Compute lifetime-dependency edges" bullet.
func lifetimeEdges(res *ownership.Result, sig ir.FunctionOwnershipSignature) []LifetimeEdge {
	resultOwn := res.Get(sig.Result.Ownership)
	if resultOwn.Kind != ir.OwnBorrow {
		return nil
	}
	toSet := witnessSet(res.Borrows, resultOwn.Borrow)

	var edges []LifetimeEdge
	seen := make(map[ids.BorrowID]bool)
	for _, arg := range sig.Args {
		argOwn := res.Get(arg.Ownership)
		if argOwn.Kind != ir.OwnBorrow || seen[argOwn.Borrow] {
			continue
		}
		fromSet := witnessSet(res.Borrows, argOwn.Borrow)
		if subset(fromSet, toSet) {
			seen[argOwn.Borrow] = true
			edges = append(edges, LifetimeEdge{From: argOwn.Borrow, To: resultOwn.Borrow})
		}
	}
	return edges
}
