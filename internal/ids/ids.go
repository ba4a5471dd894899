// Package ids defines the small dense identifiers threaded through every
// engine in the ownership core - ownership variables, group (aliasing)
// variables, borrow ids, and instruction ids - plus the per-run Allocator
// that mints fresh ones. Grounded in the teacher's hir/ids.go: sentinel
// zero values, an IsValid() method per id kind, and small uint32 wrappers
// rather than pointers so substitutions and maps can index by value.
package ids

import "fmt"

// OwnershipVar is an unknown whose resolution is Owner, Borrow(id), or
// Unknown. One is allocated per instruction/bound-variable/signature slot.
type OwnershipVar uint32

// NoOwnershipVar marks the absence of an ownership variable.
const NoOwnershipVar OwnershipVar = 0

func (v OwnershipVar) IsValid() bool { return v != NoOwnershipVar }
func (v OwnershipVar) String() string {
	if v == NoOwnershipVar {
		return "o?"
	}
	return fmt.Sprintf("o%d", uint32(v))
}

// GroupVar is an aliasing-equivalence-class token: "the values that share a
// single owner".
type GroupVar uint32

const NoGroupVar GroupVar = 0

func (v GroupVar) IsValid() bool { return v != NoGroupVar }
func (v GroupVar) String() string {
	if v == NoGroupVar {
		return "g?"
	}
	return fmt.Sprintf("g%d", uint32(v))
}

// BorrowID identifies a concrete borrow: a witness of one or more local or
// external origins, merged as borrow conflicts are resolved.
type BorrowID uint32

const NoBorrowID BorrowID = 0

func (v BorrowID) IsValid() bool { return v != NoBorrowID }
func (v BorrowID) String() string {
	if v == NoBorrowID {
		return "b?"
	}
	return fmt.Sprintf("b%d", uint32(v))
}

// Lifetime formats a BorrowID the way the monomorphizer's output spells it
// for the backend: 'l{n}.
func (v BorrowID) Lifetime() string {
	return fmt.Sprintf("'l%d", uint32(v))
}

// InstructionID is (block_index, offset) within a function body.
type InstructionID struct {
	Block  uint32
	Offset uint32
}

// NoInstructionID is the sentinel "no instruction" value. Block/Offset are
// both 0xFFFFFFFF so the zero value (block 0, offset 0 - a real, valid
// first instruction of the first block) is never mistaken for "absent".
var NoInstructionID = InstructionID{Block: ^uint32(0), Offset: ^uint32(0)}

func (id InstructionID) IsValid() bool { return id != NoInstructionID }
func (id InstructionID) String() string {
	if !id.IsValid() {
		return "i?"
	}
	return fmt.Sprintf("b%d:%d", id.Block, id.Offset)
}

// TempVar is a renamed local variable: an index plus whether it is a
// function argument.
type TempVar struct {
	Index uint32
	IsArg bool
}

func (t TempVar) String() string {
	if t.IsArg {
		return fmt.Sprintf("arg%d", t.Index)
	}
	return fmt.Sprintf("t%d", t.Index)
}

// QualifiedName is (module, class?, name), hashable by the triple - it is
// used directly as a map key, so it must stay comparable.
type QualifiedName struct {
	Module    string
	ClassName string // empty when the name is not a method
	Name      string
}

func (q QualifiedName) String() string {
	if q.ClassName != "" {
		return fmt.Sprintf("%s.%s::%s", q.Module, q.ClassName, q.Name)
	}
	return fmt.Sprintf("%s::%s", q.Module, q.Name)
}

// UnitSentinel is the QualifiedName the equality engine treats as "this
// call constructs the unit value", per §4.I's constraint list.
var UnitSentinel = QualifiedName{Module: "core", Name: "()"}

// IsUnit reports whether q is the unit-constructor sentinel.
func (q QualifiedName) IsUnit() bool { return q == UnitSentinel }
