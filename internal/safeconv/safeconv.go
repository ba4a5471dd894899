// Package safeconv centralizes the bounds-checked numeric narrowing the
// wire boundary needs: the IR's plain-int fields (a member's field index,
// a path's indices) travel through msgpack as Go ints, and internal/ownfmt
// checks with ToUint32 that each one fits in a uint32 before accepting the
// decoded value. Grounded on the teacher's own call sites (e.g.
// internal/types/interner.go, internal/sema/scope_stack.go), which reach
// for fortio.org/safecast at exactly this kind of length/offset narrowing
// rather than a bare conversion.
package safeconv

import "fortio.org/safecast"

// ToUint32 narrows n to a uint32, the shape every id package counter and
// small-integer id wraps.
func ToUint32(n int) (uint32, error) {
	return safecast.Conv[uint32](n)
}
