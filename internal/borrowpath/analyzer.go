// Package borrowpath is the move/borrow-path analyzer from §4.E: a forward
// worklist dataflow over the CFG that decides, for every use of a variable
// or sub-path, whether it is a move, a forced borrow, or a cancelled drop.
//
// Grounded on original_source/Compiler/Ownership/Borrowchecker.py for the
// exact invalidate/cancel-vs-borrow decision rule (a literal port, not a
// paraphrase of spec.md's prose): the teacher's hir.BorrowGraph/MovePlan
// supplied the worklist/fixed-point shape idiomatic to this codebase.
package borrowpath

import (
	"ownc/internal/cfg"
	"ownc/internal/diag"
	"ownc/internal/ids"
	"ownc/internal/ir"
)

// setKey is the comparable dedup key for one Usage within a UsageSet:
// Usage itself holds a Path, which holds a slice, so it cannot be a map
// key directly.
type setKey struct {
	Site    ir.NodeKey
	PathKey string
}

// UsageSet is the per-node accumulated set of witnessed usages.
type UsageSet map[setKey]ir.Usage

func keyOf(u ir.Usage) setKey { return setKey{Site: u.Site, PathKey: u.Path.Key()} }

func setEqual(a, b UsageSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Result is the output the equality/ownership engines consume downstream:
// forced borrow sites, cancelled drop sites, and per-instruction moves.
type Result struct {
	// Borrows holds the NodeKeys (always NodeInstruction-kind ValueRef
	// sites) forced into a borrow by a later invalidating usage.
	Borrows map[ir.NodeKey]bool
	// CancelledDrops holds the NodeKeys (NodeDrop-kind) of DropVar sites
	// whose value was already moved, so the drop must not execute.
	CancelledDrops map[ir.NodeKey]bool
	// Moves holds, per instruction id, every usage witnessed at that
	// node (including its own, if any) whose site was not forced into
	// Borrows - the paths already consumed on the way there.
	Moves map[ids.InstructionID][]ir.Usage
}

// Analyzer runs the borrow-path dataflow over one function's CFG.
type Analyzer struct {
	g             *cfg.Graph
	maxIterations int
}

// NewAnalyzer builds an Analyzer over g with a default safety-valve budget.
func NewAnalyzer(g *cfg.Graph) *Analyzer {
	return &Analyzer{g: g, maxIterations: 200000}
}

// WithMaxIterations overrides the convergence safety valve (§5, §12's
// project-manifest max_iterations knob).
func (a *Analyzer) WithMaxIterations(n int) *Analyzer {
	a.maxIterations = n
	return a
}

// Run executes the forward dataflow to a fixed point and returns the
// consumable result. It panics with a diag.Diagnostic (ConvergenceFailure)
// if the iteration budget is exhausted, per §5's "panic loudly" directive.
func (a *Analyzer) Run() *Result {
	g := a.g
	usagesAt := make(map[cfg.NodeIndex]UsageSet, len(g.Nodes))
	borrowSites := make(map[ir.NodeKey]bool)
	cancelledSites := make(map[ir.NodeKey]bool)

	queued := make(map[cfg.NodeIndex]bool, len(g.Nodes))
	var queue []cfg.NodeIndex
	enqueue := func(idx cfg.NodeIndex) {
		if !queued[idx] {
			queued[idx] = true
			queue = append(queue, idx)
		}
	}
	for _, idx := range g.Sources() {
		enqueue(idx)
	}

	iterations := 0
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		queued[idx] = false

		iterations++
		if iterations > a.maxIterations {
			panic(diag.Convergence("borrow-path analyzer", a.maxIterations))
		}

		node := &g.Nodes[idx]
		pre := make(UsageSet)
		for _, ei := range node.Incoming {
			edge := g.Edges[ei]
			if prev, ok := usagesAt[edge.From]; ok {
				for k, u := range prev {
					pre[k] = u
				}
			}
		}

		var own *ir.Usage
		if node.Usage != nil {
			u := ir.Usage{Site: node.Key, Path: *node.Usage}
			own = &u
		}

		next := pre
		if own != nil {
			invalidate(*own, pre, borrowSites, cancelledSites)
			next[keyOf(*own)] = *own
		}

		old, existed := usagesAt[idx]
		changed := !existed || !setEqual(old, next)
		usagesAt[idx] = next

		if changed {
			for _, ei := range node.Outgoing {
				enqueue(g.Edges[ei].To)
			}
		}
	}

	return finalize(g, usagesAt, borrowSites, cancelledSites)
}

// invalidate checks usage against every usage already witnessed on the
// path into this node (pre), recording forced borrows / cancelled drops.
// A literal port of Borrowchecker.py's invalidate/invalidates pair.
func invalidate(usage ir.Usage, pre UsageSet, borrows, cancelled map[ir.NodeKey]bool) {
	for _, prevUsage := range pre {
		if !usage.Path.Invalidates(prevUsage.Path) {
			continue
		}
		if usage.Path.Kind == ir.PathWhole && usage.Path.IsDrop && !borrows[prevUsage.Site] {
			cancelled[usage.Site] = true
			continue
		}
		borrows[prevUsage.Site] = true
	}
}

// finalize mirrors Borrowchecker.py's update(): collates the forced-borrow
// and cancelled-drop site sets, and for every InstructionKey node computes
// its moves as the usages witnessed there (including its own) whose site
// was not forced into a borrow.
func finalize(g *cfg.Graph, usagesAt map[cfg.NodeIndex]UsageSet, borrows, cancelled map[ir.NodeKey]bool) *Result {
	res := &Result{
		Borrows:        borrows,
		CancelledDrops: cancelled,
		Moves:          make(map[ids.InstructionID][]ir.Usage),
	}
	for idx := range g.Nodes {
		node := &g.Nodes[idx]
		if node.Key.Kind != ir.NodeInstruction {
			continue
		}
		set, ok := usagesAt[cfg.NodeIndex(idx)]
		if !ok {
			continue
		}
		var moves []ir.Usage
		for _, u := range set {
			if !borrows[u.Site] {
				moves = append(moves, u)
			}
		}
		res.Moves[node.Key.ID] = moves
	}
	return res
}
