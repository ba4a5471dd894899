// Package ir is the structured, already-resolved-and-typed intermediate
// representation the ownership core runs over: functions made of nested
// blocks of instructions, identified by small integer ids rather than
// pointers (see §3's "Ownership (in the design sense)" note - a Body
// exclusively owns its Blocks, a Block exclusively owns its Instructions,
// and every cross-engine reference goes through an InstructionID lookup).
//
// Grounded in the teacher's hir package: a Kind enum paired with a marker
// interface Data field carries the closed instruction variant set, the way
// hir.Stmt/hir.Expr carry HIR's.
package ir

import (
	"ownc/internal/ids"
	"ownc/internal/source"
)

// Kind enumerates the closed instruction variant set from §4.B.
type Kind uint8

const (
	KindBlockRef Kind = iota
	KindNamedFunctionCall
	KindDynamicFunctionCall
	KindMethodCall
	KindBind
	KindMemberAccess
	KindValueRef
	KindDropVar
	KindNop
	KindIf
	KindLoop
	KindBreak
	KindContinue
	KindReturn
	KindBoolLiteral
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindBlockRef:
		return "BlockRef"
	case KindNamedFunctionCall:
		return "NamedFunctionCall"
	case KindDynamicFunctionCall:
		return "DynamicFunctionCall"
	case KindMethodCall:
		return "MethodCall"
	case KindBind:
		return "Bind"
	case KindMemberAccess:
		return "MemberAccess"
	case KindValueRef:
		return "ValueRef"
	case KindDropVar:
		return "DropVar"
	case KindNop:
		return "Nop"
	case KindIf:
		return "If"
	case KindLoop:
		return "Loop"
	case KindBreak:
		return "Break"
	case KindContinue:
		return "Continue"
	case KindReturn:
		return "Return"
	case KindBoolLiteral:
		return "BoolLiteral"
	case KindTuple:
		return "Tuple"
	default:
		return "Unknown"
	}
}

// Data is the marker interface each Kind's payload struct implements, the
// same closed-variant shape as hir.StmtData/hir.ExprData.
type Data interface{ instrData() }

// Ownership is the ownership classification a finished instruction carries
// once §4.I has run - Unknown until then.
type Ownership uint8

const (
	OwnUnknown Ownership = iota
	OwnOwner
	OwnBorrow
)

func (o Ownership) String() string {
	switch o {
	case OwnOwner:
		return "owner"
	case OwnBorrow:
		return "borrow"
	default:
		return "unknown"
	}
}

// Instruction is one node of a structured function body. Every field below
// is populated exactly as §4.B lists: tv_info and members come from the
// equality engine, moves from the borrow-path analyzer, ownership (and the
// BorrowID when Ownership == OwnBorrow) from ownership inference.
type Instruction struct {
	ID   ids.InstructionID
	Kind Kind
	Data Data
	Span source.Span

	TVInfo ids.TypeVariableInfo
	// Members records one MemberInfo per field level this instruction
	// introduces (constructor arguments, field-access chains).
	Members []MemberInfo
	// Moves is the set of paths already consumed on the way to this
	// instruction, as witnessed by the borrow-path analyzer.
	Moves []Usage

	Type          TypeRef
	TypeSignature TypeRef // resolved type-checker signature, opaque to us
	Ownership     Ownership
	Borrow        ids.BorrowID // valid iff Ownership == OwnBorrow
	Clone         bool         // set by ownership inference's clone pass
}

// TypeRef is an opaque handle into the (external) type checker's type
// table. The core never inspects its structure beyond identity/equality -
// see §1's "out of scope: classical Hindley-Milner type checking".
type TypeRef struct {
	ID int64
}

// NoTypeRef is the sentinel "no type" value.
var NoTypeRef = TypeRef{ID: 0}

func (t TypeRef) IsValid() bool { return t.ID != 0 }

// --- instruction payloads ---

type BlockRefData struct{ Block BlockID }

func (BlockRefData) instrData() {}

type NamedFunctionCallData struct {
	Name ids.QualifiedName
	Ctor bool
	Args []ids.TempVar
}

func (NamedFunctionCallData) instrData() {}

type DynamicFunctionCallData struct {
	Callee ids.TempVar
	Args   []ids.TempVar
}

func (DynamicFunctionCallData) instrData() {}

// MethodCallData exists only so the IR model is closed over the input the
// type checker may still hand us; per §9's open question, the core assumes
// the type checker has already rewritten every MethodCall into a
// NamedFunctionCall before profile building runs.
type MethodCallData struct {
	Receiver ids.TempVar
	Name     string
	Args     []ids.TempVar
}

func (MethodCallData) instrData() {}

type BindData struct {
	Name ids.TempVar
	RHS  ids.InstructionID
}

func (BindData) instrData() {}

type MemberAccessData struct {
	Receiver ids.TempVar
	Name     string
	Index    int
}

func (MemberAccessData) instrData() {}

// ValueRefData is a reference to a (possibly projected) variable. Fields is
// the list of field names walked (mirrors Path.Partial); Indices is the
// parallel list of resolved field indices used to build MemberInfo chains.
type ValueRefData struct {
	Name    ids.TempVar
	BindID  ids.InstructionID
	Fields  []string
	Indices []int
	Borrow  bool // forced to true by the borrow-path analyzer
	Move    bool
	Clone   bool
}

func (ValueRefData) instrData() {}

type DropVarData struct {
	Name      ids.TempVar
	Cancelled bool
}

func (DropVarData) instrData() {}

type NopData struct{}

func (NopData) instrData() {}

type IfData struct {
	Cond        ids.TempVar
	TrueBranch  BlockID
	FalseBranch BlockID
}

func (IfData) instrData() {}

type LoopData struct {
	Var  ids.TempVar
	Init ids.InstructionID
	Body BlockID
}

func (LoopData) instrData() {}

type BreakData struct{ Arg ids.TempVar }

func (BreakData) instrData() {}

type ContinueData struct{ Arg ids.TempVar }

func (ContinueData) instrData() {}

type ReturnData struct{ Arg ids.TempVar }

func (ReturnData) instrData() {}

type BoolLiteralData struct{ Value bool }

func (BoolLiteralData) instrData() {}

type TupleData struct{ Args []ids.TempVar }

func (TupleData) instrData() {}
