// Package ownfmt is the wire/debug encoding for resolved-IR fixtures (the
// driver's input) and monomorphized output (the driver's output to a
// stubbed backend), grounded on the teacher's internal/driver/dcache.go
// disk-cache idiom but retargeted from HIR to this core's internal/ir and
// internal/mono types. Every wire type below mirrors an internal/ir type
// one-for-one except Instruction: msgpack (vmihailenco/msgpack/v5) walks
// exported struct fields by reflection and has no way to encode an
// interface-typed field (ir.Instruction.Data) without knowing which
// concrete payload is behind it, so wireInstruction flattens every Kind's
// payload into one struct of optional fields instead.
package ownfmt

import (
	"fmt"

	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/safeconv"
	"ownc/internal/source"
)

type wireInstruction struct {
	ID   ids.InstructionID
	Kind ir.Kind
	Span source.Span

	TVInfo  ids.TypeVariableInfo
	Members []ir.MemberInfo
	Moves   []ir.Usage

	Type          ir.TypeRef
	TypeSignature ir.TypeRef
	Ownership     ir.Ownership
	Borrow        ids.BorrowID
	Clone         bool

	// BlockRef
	Block ir.BlockID
	// NamedFunctionCall
	FnName ids.QualifiedName
	Ctor   bool
	// NamedFunctionCall / DynamicFunctionCall / MethodCall / Tuple
	Args []ids.TempVar
	// DynamicFunctionCall
	Callee ids.TempVar
	// MethodCall / MemberAccess
	Receiver ids.TempVar
	// MethodCall
	MethodName string
	// Bind
	BindName ids.TempVar
	RHS      ids.InstructionID
	// MemberAccess
	FieldName  string
	FieldIndex int
	// ValueRef
	RefName   ids.TempVar
	BindID    ids.InstructionID
	Fields    []string
	Indices   []int
	RefBorrow bool
	RefMove   bool
	RefClone  bool
	// DropVar
	DropName  ids.TempVar
	Cancelled bool
	// If
	Cond        ids.TempVar
	TrueBranch  ir.BlockID
	FalseBranch ir.BlockID
	// Loop
	LoopVar  ids.TempVar
	Init     ids.InstructionID
	LoopBody ir.BlockID
	// Break / Continue / Return
	BreakArg    ids.TempVar
	ContinueArg ids.TempVar
	ReturnArg   ids.TempVar
	// BoolLiteral
	BoolValue bool
}

func toWireInstruction(in ir.Instruction) wireInstruction {
	w := wireInstruction{
		ID: in.ID, Kind: in.Kind, Span: in.Span,
		TVInfo: in.TVInfo, Members: in.Members, Moves: in.Moves,
		Type: in.Type, TypeSignature: in.TypeSignature,
		Ownership: in.Ownership, Borrow: in.Borrow, Clone: in.Clone,
	}
	switch in.Kind {
	case ir.KindBlockRef:
		d := in.Data.(ir.BlockRefData)
		w.Block = d.Block
	case ir.KindNamedFunctionCall:
		d := in.Data.(ir.NamedFunctionCallData)
		w.FnName, w.Ctor, w.Args = d.Name, d.Ctor, d.Args
	case ir.KindDynamicFunctionCall:
		d := in.Data.(ir.DynamicFunctionCallData)
		w.Callee, w.Args = d.Callee, d.Args
	case ir.KindMethodCall:
		d := in.Data.(ir.MethodCallData)
		w.Receiver, w.MethodName, w.Args = d.Receiver, d.Name, d.Args
	case ir.KindBind:
		d := in.Data.(ir.BindData)
		w.BindName, w.RHS = d.Name, d.RHS
	case ir.KindMemberAccess:
		d := in.Data.(ir.MemberAccessData)
		w.Receiver, w.FieldName, w.FieldIndex = d.Receiver, d.Name, d.Index
	case ir.KindValueRef:
		d := in.Data.(ir.ValueRefData)
		w.RefName, w.BindID, w.Fields, w.Indices = d.Name, d.BindID, d.Fields, d.Indices
		w.RefBorrow, w.RefMove, w.RefClone = d.Borrow, d.Move, d.Clone
	case ir.KindDropVar:
		d := in.Data.(ir.DropVarData)
		w.DropName, w.Cancelled = d.Name, d.Cancelled
	case ir.KindNop:
		// no payload
	case ir.KindIf:
		d := in.Data.(ir.IfData)
		w.Cond, w.TrueBranch, w.FalseBranch = d.Cond, d.TrueBranch, d.FalseBranch
	case ir.KindLoop:
		d := in.Data.(ir.LoopData)
		w.LoopVar, w.Init, w.LoopBody = d.Var, d.Init, d.Body
	case ir.KindBreak:
		w.BreakArg = in.Data.(ir.BreakData).Arg
	case ir.KindContinue:
		w.ContinueArg = in.Data.(ir.ContinueData).Arg
	case ir.KindReturn:
		w.ReturnArg = in.Data.(ir.ReturnData).Arg
	case ir.KindBoolLiteral:
		w.BoolValue = in.Data.(ir.BoolLiteralData).Value
	case ir.KindTuple:
		w.Args = in.Data.(ir.TupleData).Args
	}
	return w
}

// toInstruction rebuilds the concrete Data payload for w. FieldIndex and
// Indices come straight off the wire as plain ints with no width of their
// own to enforce, unlike every other id type here (ids.TempVar,
// ids.BorrowID, ...), which msgpack decodes back into its declared uint32
// - so a corrupted or hand-edited fixture file could carry a negative
// field index. safeconv.ToUint32 catches that the same way the teacher's
// own interner/scope-stack call sites use fortio.org/safecast: reject a
// bad count before it reaches a slice index downstream.
func (w wireInstruction) toInstruction() (ir.Instruction, error) {
	in := ir.Instruction{
		ID: w.ID, Kind: w.Kind, Span: w.Span,
		TVInfo: w.TVInfo, Members: w.Members, Moves: w.Moves,
		Type: w.Type, TypeSignature: w.TypeSignature,
		Ownership: w.Ownership, Borrow: w.Borrow, Clone: w.Clone,
	}
	switch w.Kind {
	case ir.KindBlockRef:
		in.Data = ir.BlockRefData{Block: w.Block}
	case ir.KindNamedFunctionCall:
		in.Data = ir.NamedFunctionCallData{Name: w.FnName, Ctor: w.Ctor, Args: w.Args}
	case ir.KindDynamicFunctionCall:
		in.Data = ir.DynamicFunctionCallData{Callee: w.Callee, Args: w.Args}
	case ir.KindMethodCall:
		in.Data = ir.MethodCallData{Receiver: w.Receiver, Name: w.MethodName, Args: w.Args}
	case ir.KindBind:
		in.Data = ir.BindData{Name: w.BindName, RHS: w.RHS}
	case ir.KindMemberAccess:
		if _, err := safeconv.ToUint32(w.FieldIndex); err != nil {
			return ir.Instruction{}, fmt.Errorf("instruction %s: field index: %w", w.ID, err)
		}
		in.Data = ir.MemberAccessData{Receiver: w.Receiver, Name: w.FieldName, Index: w.FieldIndex}
	case ir.KindValueRef:
		for _, idx := range w.Indices {
			if _, err := safeconv.ToUint32(idx); err != nil {
				return ir.Instruction{}, fmt.Errorf("instruction %s: path index: %w", w.ID, err)
			}
		}
		in.Data = ir.ValueRefData{
			Name: w.RefName, BindID: w.BindID, Fields: w.Fields, Indices: w.Indices,
			Borrow: w.RefBorrow, Move: w.RefMove, Clone: w.RefClone,
		}
	case ir.KindDropVar:
		in.Data = ir.DropVarData{Name: w.DropName, Cancelled: w.Cancelled}
	case ir.KindNop:
		in.Data = ir.NopData{}
	case ir.KindIf:
		in.Data = ir.IfData{Cond: w.Cond, TrueBranch: w.TrueBranch, FalseBranch: w.FalseBranch}
	case ir.KindLoop:
		in.Data = ir.LoopData{Var: w.LoopVar, Init: w.Init, Body: w.LoopBody}
	case ir.KindBreak:
		in.Data = ir.BreakData{Arg: w.BreakArg}
	case ir.KindContinue:
		in.Data = ir.ContinueData{Arg: w.ContinueArg}
	case ir.KindReturn:
		in.Data = ir.ReturnData{Arg: w.ReturnArg}
	case ir.KindBoolLiteral:
		in.Data = ir.BoolLiteralData{Value: w.BoolValue}
	case ir.KindTuple:
		in.Data = ir.TupleData{Args: w.Args}
	}
	return in, nil
}

type wireBlock struct {
	ID    ir.BlockID
	Instr []wireInstruction
}

type wireParam struct {
	Name         ids.TempVar
	Type         ir.TypeRef
	TVI          ids.TypeVariableInfo
	Span         source.Span
	DerivesClone bool
}

type wireFunction struct {
	Name               ids.QualifiedName
	Params             []wireParam
	Result             ir.TypeRef
	Blocks             []wireBlock
	HasBody            bool
	ResultDerivesClone bool
}

type wireClass struct {
	Name         ids.QualifiedName
	Fields       []ir.Field
	DerivesClone bool
}

// wireProgram mirrors ir.Program with Functions/Classes as slices instead
// of maps: msgpack can encode a map keyed by a struct, but decoding one
// back would require ids.QualifiedName to implement encoding.TextMarshaler
// for map-key support, which it does not - a slice plus the name already
// carried on each element avoids the question entirely.
//
// ClassRefs carries the one piece of (external) type-checker knowledge a
// standalone fixture needs to supply itself: which ir.TypeRef a
// constructor call's Type resolves to, keyed by TypeRef.ID. ir.TypeRef is
// documented as opaque to this module precisely because that table
// normally lives in the type checker; a fixture produced outside a real
// compiler front end has no such checker, so the fixture carries the
// table directly instead.
type wireProgram struct {
	Modules   []string
	Functions []wireFunction
	Classes   []wireClass
	ClassRefs map[int64]ids.QualifiedName
}

func toWireFunction(fn *ir.Function) wireFunction {
	w := wireFunction{Name: fn.Name, Result: fn.Result, ResultDerivesClone: fn.ResultDerivesClone}
	for _, p := range fn.Params {
		w.Params = append(w.Params, wireParam{Name: p.Name, Type: p.Type, TVI: p.TVI, Span: p.Span, DerivesClone: p.DerivesClone})
	}
	if fn.Body != nil {
		w.HasBody = true
		for _, blk := range fn.Body.Blocks {
			wb := wireBlock{ID: blk.ID}
			for _, in := range blk.Instr {
				wb.Instr = append(wb.Instr, toWireInstruction(in))
			}
			w.Blocks = append(w.Blocks, wb)
		}
	}
	return w
}

func (w wireFunction) toFunction() (*ir.Function, error) {
	fn := &ir.Function{Name: w.Name, Result: w.Result, ResultDerivesClone: w.ResultDerivesClone}
	for _, p := range w.Params {
		fn.Params = append(fn.Params, ir.Param{Name: p.Name, Type: p.Type, TVI: p.TVI, Span: p.Span, DerivesClone: p.DerivesClone})
	}
	if w.HasBody {
		body := &ir.Body{}
		for _, wb := range w.Blocks {
			blk := ir.Block{ID: wb.ID}
			for _, wi := range wb.Instr {
				in, err := wi.toInstruction()
				if err != nil {
					return nil, fmt.Errorf("function %s: %w", w.Name, err)
				}
				blk.Instr = append(blk.Instr, in)
			}
			body.Blocks = append(body.Blocks, blk)
		}
		fn.Body = body
	}
	return fn, nil
}

// Encode serializes program to msgpack bytes, the on-disk shape a resolved-
// IR fixture file holds (one file per compilation unit, per §6). classRefs
// is the fixture's own TypeRef.ID -> class-name table (see wireProgram's
// ClassRefs doc); pass nil for a fixture with no constructor calls.
func Encode(program *ir.Program, classRefs map[ir.TypeRef]ids.QualifiedName) ([]byte, error) {
	w := wireProgram{Modules: program.Modules}
	for _, fn := range program.Functions {
		w.Functions = append(w.Functions, toWireFunction(fn))
	}
	for _, cls := range program.Classes {
		w.Classes = append(w.Classes, wireClass{Name: cls.Name, Fields: cls.Fields, DerivesClone: cls.DerivesClone})
	}
	if len(classRefs) > 0 {
		w.ClassRefs = make(map[int64]ids.QualifiedName, len(classRefs))
		for ref, name := range classRefs {
			w.ClassRefs[ref.ID] = name
		}
	}
	return marshal(w)
}

// Decode rebuilds an ir.Program from bytes produced by Encode, plus the
// classOf table internal/profile.Infer and internal/mono.Monomorphize
// require (built from the fixture's ClassRefs table against the decoded
// Program's own Classes).
func Decode(data []byte) (*ir.Program, map[ir.TypeRef]*ir.Class, error) {
	var w wireProgram
	if err := unmarshal(data, &w); err != nil {
		return nil, nil, err
	}
	program := ir.NewProgram()
	program.Modules = w.Modules
	for _, wf := range w.Functions {
		fn, err := wf.toFunction()
		if err != nil {
			return nil, nil, err
		}
		program.Functions[fn.Name] = fn
	}
	for _, wc := range w.Classes {
		program.Classes[wc.Name] = &ir.Class{Name: wc.Name, Fields: wc.Fields, DerivesClone: wc.DerivesClone}
	}
	var classOf map[ir.TypeRef]*ir.Class
	if len(w.ClassRefs) > 0 {
		classOf = make(map[ir.TypeRef]*ir.Class, len(w.ClassRefs))
		for id, name := range w.ClassRefs {
			if cls, ok := program.Classes[name]; ok {
				classOf[ir.TypeRef{ID: id}] = cls
			}
		}
	}
	return program, classOf, nil
}
