package ids

// TypeVariableInfo pairs the two unknowns every instruction, bound
// variable, and signature slot carries: its ownership mode and its
// aliasing group.
type TypeVariableInfo struct {
	Ownership OwnershipVar
	Group     GroupVar
}

// IsValid reports whether both halves of the pair were allocated.
func (t TypeVariableInfo) IsValid() bool {
	return t.Ownership.IsValid() && t.Group.IsValid()
}

// Allocator holds three monotone counters and mints fresh ids. Allocators
// are cheap to copy (three uint32s) and are threaded through signatures so
// that callers keep allocating fresh ids in their own space when
// instantiating a callee's profile - see equality's Instantiator.
type Allocator struct {
	nextOwnership uint32
	nextGroup     uint32
	nextBorrow    uint32
}

// NewAllocator returns an allocator whose counters start after the
// sentinel zero values (so NextOwnership()'s first result is 1, not 0).
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Clone returns an independent copy of the allocator's counter state.
func (a *Allocator) Clone() *Allocator {
	if a == nil {
		return NewAllocator()
	}
	cp := *a
	return &cp
}

// NextOwnership mints a fresh OwnershipVar.
func (a *Allocator) NextOwnership() OwnershipVar {
	a.nextOwnership++
	return OwnershipVar(a.nextOwnership)
}

// NextGroup mints a fresh GroupVar.
func (a *Allocator) NextGroup() GroupVar {
	a.nextGroup++
	return GroupVar(a.nextGroup)
}

// NextBorrow mints a fresh BorrowID.
func (a *Allocator) NextBorrow() BorrowID {
	a.nextBorrow++
	return BorrowID(a.nextBorrow)
}

// NextTVI mints a fresh (ownership, group) pair in one call, as Equality's
// Initialize phase does for every instruction.
func (a *Allocator) NextTVI() TypeVariableInfo {
	return TypeVariableInfo{Ownership: a.NextOwnership(), Group: a.NextGroup()}
}

// Counts reports the current counter values, mostly for tests asserting an
// allocator advanced by the expected amount.
func (a *Allocator) Counts() (ownership, group, borrow uint32) {
	if a == nil {
		return 0, 0, 0
	}
	return a.nextOwnership, a.nextGroup, a.nextBorrow
}

// RestoreAllocator rebuilds an Allocator from counter values previously
// read back via Counts - the wire-format decode side needs this since the
// three counters are unexported (allocators are otherwise only ever
// produced by NewAllocator/Clone).
func RestoreAllocator(ownership, group, borrow uint32) *Allocator {
	return &Allocator{nextOwnership: ownership, nextGroup: group, nextBorrow: borrow}
}
