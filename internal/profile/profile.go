// Package profile implements the bottom-up profile-building pipeline from
// §4.K: decompose the program's call graph into leaves-first SCC groups,
// then for each group run Equality -> DataFlow -> Forbidden -> Ownership ->
// Normalize over a fresh clone of every function in the group, iterating a
// recursive group to a fixed point before publishing, and a singleton
// non-recursive function in one pass. The published table is what §4.H's
// data-flow engine and §4.F's equality engine look callees up in when they
// process a caller.
//
// Grounded on original_source/Compiler/Ownership/DataFlowProfileInference.py
// (createFunctionGroups, InferenceEngine.createDataFlowProfile/processGroup/
// processGroups/infer) for the pipeline shape, and teacher's
// internal/driver/dcache.go for the concurrency-safe append-only store
// idiom (sync.RWMutex over a plain map, not a dedicated library - the
// teacher's own cache needs no more than that either).
package profile

import (
	"sort"
	"sync"

	"ownc/internal/dataflow"
	"ownc/internal/depgraph"
	"ownc/internal/diag"
	"ownc/internal/equality"
	"ownc/internal/forbidden"
	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/normalize"
	"ownc/internal/ownership"
)

// Store is an append-only, concurrency-safe table of published profiles,
// keyed by qualified function name. It implements equality.ProfileLookup
// so the equality engine can resolve a callee's profile without this
// package importing it back.
type Store struct {
	mu       sync.RWMutex
	profiles map[ids.QualifiedName]*ir.DataFlowProfile
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{profiles: make(map[ids.QualifiedName]*ir.DataFlowProfile)}
}

// Profile looks up name's published profile.
func (s *Store) Profile(name ids.QualifiedName) (*ir.DataFlowProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	return p, ok
}

// Put publishes (or republishes) name's profile.
func (s *Store) Put(name ids.QualifiedName, p *ir.DataFlowProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[name] = p
}

// groupLookup resolves a callee's profile from the in-progress group's own
// fixed-point state first (so mutual recursion within one SCC sees the
// previous iteration's guess), falling back to the already-published store
// for every callee outside the group.
type groupLookup struct {
	store *Store
	group map[ids.QualifiedName]*ir.DataFlowProfile
}

func (l *groupLookup) Profile(name ids.QualifiedName) (*ir.DataFlowProfile, bool) {
	if p, ok := l.group[name]; ok {
		return p, true
	}
	return l.store.Profile(name)
}

// BuildGroups derives the call-graph SCC decomposition over every function
// in program, excluding constructor and unit calls from the dependency
// edges exactly as CalleeNames already does. Groups come back leaves-first
// (callees before callers), the order ProcessGroups iterates in. Ports
// createFunctionGroups.
func BuildGroups(program *ir.Program) ([][]ids.QualifiedName, map[ids.QualifiedName]bool) {
	g := depgraph.New[ids.QualifiedName]()
	recursive := make(map[ids.QualifiedName]bool)

	names := make([]ids.QualifiedName, 0, len(program.Functions))
	for name := range program.Functions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })

	for _, name := range names {
		fn := program.Functions[name]
		g.Touch(name)
		for _, callee := range fn.CalleeNames() {
			if callee == name {
				recursive[name] = true
			}
			g.Add(name, callee)
		}
	}
	return g.SCCs(), recursive
}

// Engine runs the per-function profile-building pipeline over a program.
// classOf resolves an instruction's opaque TypeRef to its declared class -
// an external annotation the ownership core's scope note says this package
// never derives on its own (see internal/ownership's "Open Question
// resolved" in the design ledger).
type Engine struct {
	program *ir.Program
	store   *Store
	classOf map[ir.TypeRef]*ir.Class
}

// NewEngine returns an Engine publishing into store.
func NewEngine(program *ir.Program, store *Store, classOf map[ir.TypeRef]*ir.Class) *Engine {
	return &Engine{program: program, store: store, classOf: classOf}
}

// Store returns the engine's publish target.
func (e *Engine) Store() *Store { return e.store }

// ProcessGroups runs ProcessGroup over every group, in order - callees'
// groups always precede their callers' since BuildGroups hands them back
// leaves-first.
func (e *Engine) ProcessGroups(groups [][]ids.QualifiedName, recursive map[ids.QualifiedName]bool) error {
	for _, group := range groups {
		if err := e.ProcessGroup(group, recursive); err != nil {
			return err
		}
	}
	return nil
}

// ProcessGroup publishes every function in group. A singleton,
// non-recursive function needs one pass; anything else (mutual recursion,
// or direct self-recursion) iterates createDataFlowProfile to a fixed
// point - re-deriving every member's profile against the previous round's
// guesses until nothing changes. Ports processGroup.
func (e *Engine) ProcessGroup(group []ids.QualifiedName, recursive map[ids.QualifiedName]bool) error {
	if len(group) == 1 && !recursive[group[0]] {
		name := group[0]
		p, err := e.createDataFlowProfile(name, nil)
		if err != nil {
			return err
		}
		e.store.Put(name, p)
		return nil
	}

	const maxRounds = 10000
	groupProfiles := make(map[ids.QualifiedName]*ir.DataFlowProfile, len(group))
	change := true
	for round := 0; change; round++ {
		if round == maxRounds {
			panic(diag.Convergence("profile builder SCC inner loop", maxRounds))
		}
		change = false
		for _, name := range group {
			p, err := e.createDataFlowProfile(name, groupProfiles)
			if err != nil {
				return err
			}
			prev, ok := groupProfiles[name]
			if !ok || !profilesEqual(prev, p) {
				change = true
			}
			groupProfiles[name] = p
		}
	}
	for _, name := range group {
		e.store.Put(name, groupProfiles[name])
	}
	return nil
}

// createDataFlowProfile runs Equality -> DataFlow -> Forbidden -> Ownership
// -> Normalize over a fresh clone of name's function body, resolving
// callees through groupProfiles first and the published store second.
// Ports InferenceEngine.createDataFlowProfile.
func (e *Engine) createDataFlowProfile(name ids.QualifiedName, groupProfiles map[ids.QualifiedName]*ir.DataFlowProfile) (*ir.DataFlowProfile, error) {
	orig := e.program.Functions[name]
	if orig == nil || orig.Body == nil {
		return &ir.DataFlowProfile{Signature: ir.FunctionOwnershipSignature{Name: name}}, nil
	}
	fn := orig.Clone()
	alloc := ids.NewAllocator()

	lookup := &groupLookup{store: e.store, group: groupProfiles}
	eq := equality.NewEngine(fn, alloc, lookup)
	eqRes := eq.Process(nil)

	paths := dataflow.Process(fn)

	members := fn.Body.GetAllMembers(paths)
	for _, callID := range sortedCallIDs(eqRes.Calls) {
		cp := eqRes.Calls[callID]
		if cp == nil {
			continue
		}
		for _, p := range cp.Paths {
			members = append(members, p.Src...)
			members = append(members, p.Dest...)
		}
	}
	ownDeps := forbidden.OwnershipDepMap(members)

	fbResult := forbidden.Process(fn)

	sig := skeletonSignature(fn)

	ownEngine := ownership.NewEngine(fn, sig, eqRes.Calls, e.classOf, fbResult, alloc)
	ownRes, err := ownEngine.Process()
	if err != nil {
		return nil, err
	}
	ownEngine.UnpackOwners(ownDeps)

	prov := normalize.NewProvider(ownRes)
	normSig, normPaths := normalize.NormalizeFunctionProfile(sig, paths, ownDeps, members, prov, false)

	return &ir.DataFlowProfile{Paths: normPaths, Signature: normSig}, nil
}

// skeletonSignature builds the pre-inference signature ownership.Engine
// consumes: Args/Result read off the function's already-equality-resolved
// TVIs, Members from the full per-function member set, and every
// param/result ownership var forced into Owners - the default assumption a
// parameter is owned absent any evidence of borrowing, matching the
// unconditional Owner outcome a constructor's own CtorConstraint already
// gets (see internal/ownership). No annotation in this IR distinguishes a
// declared "takes by reference" parameter from an owned one, so Borrows
// starts empty; an external annotation pass could seed it before this
// engine runs if that distinction is ever modeled.
func skeletonSignature(fn *ir.Function) ir.FunctionOwnershipSignature {
	args := make([]ids.TypeVariableInfo, len(fn.Params))
	owners := make([]ids.OwnershipVar, 0, len(fn.Params)+1)
	for i, p := range fn.Params {
		args[i] = p.TVI
		if p.TVI.Ownership.IsValid() {
			owners = append(owners, p.TVI.Ownership)
		}
	}
	result := ids.TypeVariableInfo{}
	if last := fn.Body.Entry().GetLastReal(); last != nil {
		result = last.TVInfo
	}
	if result.Ownership.IsValid() {
		owners = append(owners, result.Ownership)
	}

	return ir.FunctionOwnershipSignature{
		Name:    fn.Name,
		Args:    args,
		Result:  result,
		Members: fn.Body.GetAllMembers(nil),
		Owners:  owners,
	}
}

func sortedCallIDs(calls map[ids.InstructionID]*ir.DataFlowProfile) []ids.InstructionID {
	out := make([]ids.InstructionID, 0, len(calls))
	for id := range calls {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}

// profilesEqual reports whether two profiles carry the same signature and
// path shapes - the change-detection comparison a recursive group's fixed
// point loop iterates until false. Both sides come out of
// NormalizeFunctionProfile, so equal content always renumbers to equal ids;
// a plain deep comparison is enough, no semantic unification needed.
func profilesEqual(a, b *ir.DataFlowProfile) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !signaturesEqual(a.Signature, b.Signature) {
		return false
	}
	if len(a.Paths) != len(b.Paths) {
		return false
	}
	for i := range a.Paths {
		if !pathsEqual(a.Paths[i], b.Paths[i]) {
			return false
		}
	}
	return true
}

func signaturesEqual(a, b ir.FunctionOwnershipSignature) bool {
	if a.Name != b.Name || a.Result != b.Result {
		return false
	}
	if len(a.Args) != len(b.Args) || len(a.Members) != len(b.Members) ||
		len(a.Borrows) != len(b.Borrows) || len(a.Owners) != len(b.Owners) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	for i := range a.Members {
		if a.Members[i] != b.Members[i] {
			return false
		}
	}
	for i := range a.Borrows {
		if a.Borrows[i] != b.Borrows[i] {
			return false
		}
	}
	for i := range a.Owners {
		if a.Owners[i] != b.Owners[i] {
			return false
		}
	}
	return true
}

func pathsEqual(a, b ir.DataFlowPath) bool {
	if a.Arg != b.Arg || a.Result != b.Result || a.Index != b.Index {
		return false
	}
	if len(a.Src) != len(b.Src) || len(a.Dest) != len(b.Dest) {
		return false
	}
	for i := range a.Src {
		if a.Src[i] != b.Src[i] {
			return false
		}
	}
	for i := range a.Dest {
		if a.Dest[i] != b.Dest[i] {
			return false
		}
	}
	return true
}

// Infer runs the whole pipeline over program and returns the populated
// store. Ports the module-level infer(program) entry point.
func Infer(program *ir.Program, classOf map[ir.TypeRef]*ir.Class) (*Store, error) {
	groups, recursive := BuildGroups(program)
	store := NewStore()
	engine := NewEngine(program, store, classOf)
	if err := engine.ProcessGroups(groups, recursive); err != nil {
		return nil, err
	}
	return store, nil
}
