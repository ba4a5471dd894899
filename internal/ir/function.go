package ir

import (
	"ownc/internal/ids"
	"ownc/internal/source"
)

// Param is one function parameter.
type Param struct {
	Name         ids.TempVar
	Type         TypeRef
	TVI          ids.TypeVariableInfo
	Span         source.Span
	DerivesClone bool
}

// Function is a resolved, typed function body ready for the ownership
// core. Body is nil for externs/intrinsics, mirroring hir.Func.
type Function struct {
	Name   ids.QualifiedName
	Params []Param
	Result TypeRef
	Body   *Body

	// ResultDerivesClone records whether the function's result type
	// implements Clone, consulted by ownership inference's clone pass.
	ResultDerivesClone bool
}

// Class is a resolved, typed class (struct) declaration.
type Field struct {
	Name  string
	Index int
	Type  TypeRef
}

type Class struct {
	Name         ids.QualifiedName
	Fields       []Field
	DerivesClone bool
}

// Program is the input to the ownership core: every resolved function and
// class in the compilation unit, keyed by qualified name.
type Program struct {
	Modules   []string
	Functions map[ids.QualifiedName]*Function
	Classes   map[ids.QualifiedName]*Class
}

// NewProgram returns an empty Program ready to be populated by the
// (external) builder that lowers resolved AST into this IR.
func NewProgram() *Program {
	return &Program{
		Functions: make(map[ids.QualifiedName]*Function),
		Classes:   make(map[ids.QualifiedName]*Class),
	}
}

// CalleeNames returns the set of non-ctor, non-unit NamedFunctionCall
// targets reachable from fn's body - the dependency edges the call-graph
// SCC decomposition in §4.K is built from.
func (fn *Function) CalleeNames() []ids.QualifiedName {
	if fn == nil || fn.Body == nil {
		return nil
	}
	seen := make(map[ids.QualifiedName]struct{})
	var out []ids.QualifiedName
	fn.Body.Walk(func(in *Instruction) {
		if in.Kind != KindNamedFunctionCall {
			return
		}
		call := in.Data.(NamedFunctionCallData)
		if call.Ctor || call.Name.IsUnit() {
			return
		}
		if _, ok := seen[call.Name]; ok {
			return
		}
		seen[call.Name] = struct{}{}
		out = append(out, call.Name)
	})
	return out
}
