package ir

import (
	"fmt"

	"ownc/internal/ids"
)

// DataFlowPath represents "a value reachable at arg.Src flows to
// result.Dest" - one minimal argument-to-result shape discovered by the
// data-flow path engine (§4.H). Index is the argument's position.
type DataFlowPath struct {
	Arg    ids.TypeVariableInfo
	Result ids.TypeVariableInfo
	Index  int
	Src    []MemberInfo // from the arg's root down
	Dest   []MemberInfo // into the result's root down
}

// DataFlowProfile is a function's published (paths, signature) pair; it is
// hashed/compared by both fields together.
type DataFlowProfile struct {
	Paths     []DataFlowPath
	Signature FunctionOwnershipSignature
}

// FunctionOwnershipSignature is the normalized, publishable ownership
// shape of a function.
type FunctionOwnershipSignature struct {
	Name    ids.QualifiedName
	Args    []ids.TypeVariableInfo
	Result  ids.TypeVariableInfo
	Members []MemberInfo
	Borrows []ExternalBorrow
	Owners  []ids.OwnershipVar
	Alloc   *ids.Allocator
}

// Key flattens the signature into a comparable string, the same role
// mono.MonoKey{Sym, ArgsKey string} plays in the teacher's monomorphizer:
// Args/Members/Borrows/Owners are slices (and Alloc a pointer), so the
// struct itself cannot be a Go map key - this is what the profile store
// and the monomorphizer's functions[sig]/classes[sig] check-then-insert
// tables key by instead. %+v on a slice of plain-value structs (no maps
// inside) is deterministic, so this is stable across calls for equal
// content.
func (s FunctionOwnershipSignature) Key() string {
	return fmt.Sprintf("fn|%s|%+v|%+v|%+v|%+v|%+v", s.Name, s.Args, s.Result, s.Members, s.Borrows, s.Owners)
}

// ClassInstantiationSignature is the normalized ownership shape of one
// concrete field layout of a class.
type ClassInstantiationSignature struct {
	Name    ids.QualifiedName
	Root    ids.TypeVariableInfo
	Members []MemberInfo
	Borrows []ExternalBorrow
	Alloc   *ids.Allocator
}

// Key flattens the signature the same way FunctionOwnershipSignature.Key
// does.
func (s ClassInstantiationSignature) Key() string {
	return fmt.Sprintf("class|%s|%+v|%+v|%+v", s.Name, s.Root, s.Members, s.Borrows)
}
