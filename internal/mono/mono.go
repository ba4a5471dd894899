// Package mono implements §4.L's monomorphizer: starting from the main
// entry point's empty ownership signature, it re-derives Equality,
// Forbidden-borrow, Ownership inference and the Normalizer under each
// concrete caller instantiation and emits one specialized Function per
// FunctionOwnershipSignature and one specialized Class per
// ClassInstantiationSignature actually reached, plus the lifetime
// annotations and lifetime-dependency edges the backend consumes.
//
// Grounded on original_source/Compiler/Ownership/Monomorphizer.py
// (Monomorphizer.processFunction/processClass/processQueue, module-level
// monomorphize) for the work-list/check-then-insert shape, and
// original_source/OwnershipMonomorphization.py for the
// Function/ClassInstantiationSignature equality-by-(name,args,result,
// members) contract that ir.FunctionOwnershipSignature.Key/
// ClassInstantiationSignature.Key now implement as a string. The teacher's
// own internal/mono carries an analogous check-then-insert MonoKey{Sym,
// ArgsKey string} table (monomorphize.go's b.mm.Funcs[key]); this package
// keeps that idiom, rekeyed onto ownership signatures instead of generic
// type arguments.
package mono

import (
	"ownc/internal/equality"
	"ownc/internal/forbidden"
	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/normalize"
	"ownc/internal/ownership"
)

// Monomorphizer runs the work-list fixed point over one resolved program.
type Monomorphizer struct {
	program *ir.Program
	classOf map[ir.TypeRef]*ir.Class

	out *Program

	queueFn    []ir.FunctionOwnershipSignature
	queueClass []ir.ClassInstantiationSignature
}

// New returns a Monomorphizer over program. classOf resolves an
// instruction's opaque TypeRef to its declared class, the same externally
// supplied annotation §4.I's Engine and §4.K's profile builder already
// take (see internal/ownership's "Open Question resolved" note).
func New(program *ir.Program, classOf map[ir.TypeRef]*ir.Class) *Monomorphizer {
	return &Monomorphizer{program: program, classOf: classOf, out: newProgram()}
}

// AddFunction enqueues a function signature for instantiation, ports
// Monomorphizer.addFunction (shared by both functions and classes in the
// original; split in two here since Go's queue is typed).
func (m *Monomorphizer) AddFunction(sig ir.FunctionOwnershipSignature) {
	m.queueFn = append(m.queueFn, sig)
}

// AddClass enqueues a class instantiation signature.
func (m *Monomorphizer) AddClass(sig ir.ClassInstantiationSignature) {
	m.queueClass = append(m.queueClass, sig)
}

// Run drains both work queues to completion (functions may enqueue classes
// and vice versa) and returns the accumulated output. Ports processQueue.
func (m *Monomorphizer) Run() (*Program, error) {
	for len(m.queueFn) > 0 || len(m.queueClass) > 0 {
		for len(m.queueFn) > 0 {
			sig := m.queueFn[0]
			m.queueFn = m.queueFn[1:]
			if err := m.processFunction(sig); err != nil {
				return nil, err
			}
		}
		for len(m.queueClass) > 0 {
			sig := m.queueClass[0]
			m.queueClass = m.queueClass[1:]
			m.processClass(sig)
		}
	}
	return m.out, nil
}

// processFunction instantiates signature's function exactly once
// (check-then-insert on Key()), then walks its body enqueueing every
// ctor's class signature and every non-ctor call's callee signature.
// Ports Monomorphizer.processFunction.
func (m *Monomorphizer) processFunction(sig ir.FunctionOwnershipSignature) error {
	if sig.Name.IsUnit() {
		return nil
	}
	key := sig.Key()
	if _, ok := m.out.Functions[key]; ok {
		return nil
	}

	orig := m.program.Functions[sig.Name]
	if orig == nil {
		// Imported/intrinsic function without a body - nothing to
		// specialize, but still a valid instantiation target.
		m.out.Functions[key] = &MonoFunction{Signature: sig}
		return nil
	}

	fn := orig.Clone()
	alloc := sig.Alloc
	if alloc == nil {
		alloc = ids.NewAllocator()
	}
	for i := range fn.Params {
		if i < len(sig.Args) {
			fn.Params[i].TVI = sig.Args[i]
		}
	}

	eq := equality.NewEngine(fn, alloc, nil)
	eqRes := eq.Process(nil)

	fbResult := forbidden.Process(fn)

	members := fn.Body.GetAllMembers(nil)
	ownDeps := forbidden.OwnershipDepMap(members)

	ownEngine := ownership.NewEngine(fn, sig, eqRes.Calls, m.classOf, fbResult, alloc)
	ownRes, err := ownEngine.Process()
	if err != nil {
		return err
	}
	ownEngine.UnpackOwners(ownDeps)

	prov := normalize.NewProvider(ownRes)
	normSig, _ := normalize.NormalizeFunctionProfile(sig, nil, ownDeps, members, prov, false)

	mf := &MonoFunction{
		Signature:            normSig,
		Body:                 fn,
		LifetimeDependencies: lifetimeEdges(ownRes, normSig),
	}
	for _, a := range normSig.Args {
		mf.ArgRefs = append(mf.ArgRefs, annotate(ownRes, ownDeps, a))
	}
	mf.ResultRef = annotate(ownRes, ownDeps, normSig.Result)
	m.out.Functions[key] = mf

	m.enqueueCallees(fn, alloc, ownDeps, prov, members)
	return nil
}

// tempVarEnv resolves every TempVar's current TVI: each param from its own
// signature slot, each bound name from its Bind instruction's own TVInfo -
// the same two sources equality.Engine.initialize builds its var
// environment from, rebuilt here since that environment is private to the
// equality pass.
func tempVarEnv(fn *ir.Function) map[ids.TempVar]ids.TypeVariableInfo {
	env := make(map[ids.TempVar]ids.TypeVariableInfo, len(fn.Params))
	for _, p := range fn.Params {
		env[p.Name] = p.TVI
	}
	fn.Body.Walk(func(in *ir.Instruction) {
		if in.Kind == ir.KindBind {
			env[in.Data.(ir.BindData).Name] = in.TVInfo
		}
	})
	return env
}

// enqueueCallees walks fn's already-resolved body enqueueing one
// ClassInstantiationSignature per constructor call and one
// FunctionOwnershipSignature (onlyBorrow=true) per non-constructor,
// non-unit call - the two enqueue rules of §4.L's "Function instantiation"
// bullet. Each enqueued signature carries a clone of this call's own
// allocator, ports "signature.allocator = copy.deepcopy(fn.ownership_
// signature.allocator)".
func (m *Monomorphizer) enqueueCallees(fn *ir.Function, alloc *ids.Allocator, ownDeps map[ids.GroupVar][]ids.OwnershipVar, prov *normalize.Provider, members []ir.MemberInfo) {
	env := tempVarEnv(fn)

	fn.Body.Walk(func(in *ir.Instruction) {
		if in.Kind != ir.KindNamedFunctionCall {
			return
		}
		data := in.Data.(ir.NamedFunctionCallData)
		if data.Ctor {
			raw := ir.ClassInstantiationSignature{Name: data.Name, Root: in.TVInfo, Members: members, Alloc: alloc.Clone()}
			m.AddClass(normalize.NormalizeClassSignature(raw, ownDeps, members, prov))
			return
		}
		if data.Name.IsUnit() {
			return
		}
		args := make([]ids.TypeVariableInfo, 0, len(data.Args))
		for _, a := range data.Args {
			args = append(args, env[a])
		}
		raw := ir.FunctionOwnershipSignature{
			Name:    data.Name,
			Args:    args,
			Result:  in.TVInfo,
			Members: members,
			Alloc:   alloc.Clone(),
		}
		m.AddFunction(normalize.NormalizeFunctionSignature(raw, ownDeps, members, prov, true))
	})
}

// Monomorphize seeds the work list with entry's empty signature (Args/
// Members/Borrows/Owners all nil, a fresh Result TVI) and drains it to
// completion. Ports the module-level monomorphize(program), parameterized
// on entry rather than the original's hardcoded Util.QualifiedName("Main",
// "main") since this IR's QualifiedName carries no fixed convention for
// the program's entry module/name.
func Monomorphize(program *ir.Program, classOf map[ir.TypeRef]*ir.Class, entry ids.QualifiedName) (*Program, error) {
	alloc := ids.NewAllocator()
	sig := ir.FunctionOwnershipSignature{Name: entry, Result: alloc.NextTVI(), Alloc: alloc}
	m := New(program, classOf)
	m.AddFunction(sig)
	return m.Run()
}
