package ir

import "ownc/internal/ids"

// MemberKind currently only distinguishes field projections; index/deref
// projections are out of the ownership core's scope (no array/map element
// ownership splitting - see spec's Non-goals on alias analysis depth).
type MemberKind uint8

const (
	MemberField MemberKind = iota
)

// MemberInfo records that the group Root contains a child at field Index
// whose own slot is Info. Classes' constructor instructions and field
// accesses each emit one of these per field level.
type MemberInfo struct {
	Root  ids.GroupVar
	Kind  MemberKind
	Index int
	Info  ids.TypeVariableInfo
}

// Key returns a comparable (root, field index) pair, the bucket the
// equality engine's member-merge fixed point groups MemberInfos by.
type MemberKey struct {
	Root  ids.GroupVar
	Index int
}

func (m MemberInfo) Key() MemberKey {
	return MemberKey{Root: m.Root, Index: m.Index}
}

// BorrowKind distinguishes where a borrow's witness set entries came from.
type BorrowKind uint8

const (
	BorrowLocal BorrowKind = iota
	BorrowExternal
)

// ExternalBorrow names a borrow whose origin is a parameter of the
// enclosing function's own signature.
type ExternalBorrow struct {
	Ownership ids.OwnershipVar
	Borrow    ids.BorrowID
}

// BorrowWitness is one entry of a BorrowID's witness set: either a local
// usage (the site it occurred at, needed to cross-check against §4.G's
// forbidden-borrow table) or a reference to an external borrow from the
// signature.
type BorrowWitness struct {
	Kind     BorrowKind
	Local    Usage
	External ExternalBorrow
}

// BorrowMap maps a BorrowID to its witness set. Merging two borrows (when
// ownership inference discovers the same ownership var resolved to two
// different borrows across branches) produces a fresh id whose set is the
// union - see BorrowMap.Merge.
type BorrowMap struct {
	sets map[ids.BorrowID][]BorrowWitness
}

// NewBorrowMap returns an empty map.
func NewBorrowMap() *BorrowMap {
	return &BorrowMap{sets: make(map[ids.BorrowID][]BorrowWitness)}
}

// Set assigns a witness set to id, overwriting any prior entry.
func (m *BorrowMap) Set(id ids.BorrowID, witnesses []BorrowWitness) {
	m.sets[id] = witnesses
}

// Add appends one witness to id's set.
func (m *BorrowMap) Add(id ids.BorrowID, w BorrowWitness) {
	m.sets[id] = append(m.sets[id], w)
}

// Get returns id's witness set.
func (m *BorrowMap) Get(id ids.BorrowID) []BorrowWitness {
	if m == nil {
		return nil
	}
	return m.sets[id]
}

// Merge produces a fresh borrow id whose witness set is the union of a and
// b's sets, and records it in the map.
func (m *BorrowMap) Merge(alloc *ids.Allocator, a, b ids.BorrowID) ids.BorrowID {
	fresh := alloc.NextBorrow()
	merged := append(append([]BorrowWitness(nil), m.Get(a)...), m.Get(b)...)
	m.sets[fresh] = merged
	return fresh
}
