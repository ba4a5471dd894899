package ownfmt

import (
	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/mono"
)

// wireAllocator carries an *ids.Allocator's three counters (Counts()'s
// return shape) across the wire - the allocator's fields are unexported,
// so this is the only way to serialize one.
type wireAllocator struct {
	Ownership, Group, Borrow uint32
}

func toWireAllocator(a *ids.Allocator) wireAllocator {
	o, g, b := a.Counts()
	return wireAllocator{Ownership: o, Group: g, Borrow: b}
}

type wireFunctionSignature struct {
	Name    ids.QualifiedName
	Args    []ids.TypeVariableInfo
	Result  ids.TypeVariableInfo
	Members []ir.MemberInfo
	Borrows []ir.ExternalBorrow
	Owners  []ids.OwnershipVar
	Alloc   wireAllocator
}

func toWireFunctionSignature(s ir.FunctionOwnershipSignature) wireFunctionSignature {
	return wireFunctionSignature{
		Name: s.Name, Args: s.Args, Result: s.Result, Members: s.Members,
		Borrows: s.Borrows, Owners: s.Owners, Alloc: toWireAllocator(s.Alloc),
	}
}

type wireClassSignature struct {
	Name    ids.QualifiedName
	Root    ids.TypeVariableInfo
	Members []ir.MemberInfo
	Borrows []ir.ExternalBorrow
	Alloc   wireAllocator
}

func toWireClassSignature(s ir.ClassInstantiationSignature) wireClassSignature {
	return wireClassSignature{
		Name: s.Name, Root: s.Root, Members: s.Members,
		Borrows: s.Borrows, Alloc: toWireAllocator(s.Alloc),
	}
}

// wireRefAnnotation mirrors the mono package's unexported refAnnotation -
// its fields are promoted and exported on MonoFunction.ArgRefs/ResultRef
// and mono.FieldRef, so they're readable from here even though the type
// itself isn't nameable outside internal/mono.
type wireRefAnnotation struct {
	Ownership   ir.Ownership
	Lifetime    ids.BorrowID
	DepLifetime []ids.BorrowID
}

type wireLifetimeEdge struct {
	From, To ids.BorrowID
}

type wireMonoFunction struct {
	Signature            wireFunctionSignature
	Body                 *wireFunction
	ArgRefs              []wireRefAnnotation
	ResultRef            wireRefAnnotation
	LifetimeDependencies []wireLifetimeEdge
}

type wireFieldRef struct {
	Name  string
	Index int
	wireRefAnnotation
}

type wireMonoClass struct {
	Signature wireClassSignature
	Fields    []wireFieldRef
}

// wireMonoProgram is the msgpack shape of a mono.Program - encode-only:
// the backend this feeds is a stubbed sink, not a Go reader,
// so there is no matching DecodeMono.
type wireMonoProgram struct {
	Functions []wireMonoFunction
	Classes   []wireMonoClass
}

// EncodeMono serializes a monomorphized program to msgpack bytes - the §6
// "msgpack-encoded monomorphized program (mono.Program) for a stubbed
// backend interface" output path.
func EncodeMono(p *mono.Program) ([]byte, error) {
	w := wireMonoProgram{}
	for _, mf := range p.Functions {
		wmf := wireMonoFunction{
			Signature: toWireFunctionSignature(mf.Signature),
			ResultRef: wireRefAnnotation(mf.ResultRef),
		}
		if mf.Body != nil {
			wb := toWireFunction(mf.Body)
			wmf.Body = &wb
		}
		for _, a := range mf.ArgRefs {
			wmf.ArgRefs = append(wmf.ArgRefs, wireRefAnnotation(a))
		}
		for _, e := range mf.LifetimeDependencies {
			wmf.LifetimeDependencies = append(wmf.LifetimeDependencies, wireLifetimeEdge{From: e.From, To: e.To})
		}
		w.Functions = append(w.Functions, wmf)
	}
	for _, mc := range p.Classes {
		wmc := wireMonoClass{Signature: toWireClassSignature(mc.Signature)}
		for _, f := range mc.Fields {
			wmc.Fields = append(wmc.Fields, wireFieldRef{Name: f.Name, Index: f.Index, wireRefAnnotation: wireRefAnnotation{
				Ownership: f.Ownership, Lifetime: f.Lifetime, DepLifetime: f.DepLifetime,
			}})
		}
		w.Classes = append(w.Classes, wmc)
	}
	return marshal(w)
}

// MsgpackSink implements mono.BackendSink by passing EncodeMono's bytes to
// its Write callback - the "stubbed beyond a debug sink" backend §6 describes;
// a real transpiler is out of scope per §1.
type MsgpackSink struct {
	Write func([]byte) error
}

func (s MsgpackSink) Emit(p *mono.Program) error {
	data, err := EncodeMono(p)
	if err != nil {
		return err
	}
	return s.Write(data)
}
