package mono

import "ownc/internal/ir"

// MonoFunction is one concrete instantiation of a function body under a
// FunctionOwnershipSignature, plus the backend-facing reference/lifetime
// annotations §6 says the monomorphizer's output carries: an Ownership and
// optional Lifetime per argument and the result, the dep_lifetimes each
// drags along, and the function-level lifetime-dependency edge set.
type MonoFunction struct {
	Signature            ir.FunctionOwnershipSignature
	Body                 *ir.Function
	ArgRefs              []refAnnotation
	ResultRef            refAnnotation
	LifetimeDependencies []LifetimeEdge
}

// FieldRef is one field's resolved reference/lifetime annotation within a
// MonoClass.
type FieldRef struct {
	Name  string
	Index int
	refAnnotation
}

// MonoClass is one concrete field layout of a class under a
// ClassInstantiationSignature.
type MonoClass struct {
	Signature ir.ClassInstantiationSignature
	Fields    []FieldRef
}

// Program is the output to the backend: every function/class instantiation
// reached from the work-list seeded at the entry point, keyed by their
// signature's Key().
type Program struct {
	Functions map[string]*MonoFunction
	Classes   map[string]*MonoClass
}

func newProgram() *Program {
	return &Program{
		Functions: make(map[string]*MonoFunction),
		Classes:   make(map[string]*MonoClass),
	}
}
