package depgraph

import "testing"

func indexOf(groups [][]string, key string) int {
	for i, g := range groups {
		for _, k := range g {
			if k == key {
				return i
			}
		}
	}
	return -1
}

func TestSCCsSingleChainIsReverseTopological(t *testing.T) {
	g := New[string]()
	g.Add("a", "b")
	g.Add("b", "c")
	g.Add("c")

	groups := g.SCCs()
	if len(groups) != 3 {
		t.Fatalf("expected 3 singleton components, got %d: %v", len(groups), groups)
	}
	ai, bi, ci := indexOf(groups, "a"), indexOf(groups, "b"), indexOf(groups, "c")
	if !(ci < bi && bi < ai) {
		t.Fatalf("expected leaves-first order c,b,a; got indices a=%d b=%d c=%d (%v)", ai, bi, ci, groups)
	}
}

func TestSCCsDetectsCycle(t *testing.T) {
	g := New[string]()
	g.Add("a", "b")
	g.Add("b", "c")
	g.Add("c", "a")

	groups := g.SCCs()
	if len(groups) != 1 {
		t.Fatalf("expected one merged component for a 3-cycle, got %d: %v", len(groups), groups)
	}
	if len(groups[0]) != 3 {
		t.Fatalf("expected all 3 nodes in the single SCC, got %v", groups[0])
	}
}

func TestSCCsSelfLoopIsOwnComponent(t *testing.T) {
	g := New[string]()
	g.Add("a", "a")

	groups := g.SCCs()
	if len(groups) != 1 || len(groups[0]) != 1 || groups[0][0] != "a" {
		t.Fatalf("expected a single self-looped component [a], got %v", groups)
	}
}

func TestSCCsMissingSuccessorTreatedAsLeaf(t *testing.T) {
	g := New[string]()
	g.Add("a", "ghost")

	groups := g.SCCs()
	// "ghost" is referenced but never independently added; it must still
	// surface as its own leaf component, never cause a panic or be dropped.
	if indexOf(groups, "ghost") < 0 {
		t.Fatalf("expected ghost successor to appear as its own node, got %v", groups)
	}
	if indexOf(groups, "ghost") >= indexOf(groups, "a") {
		t.Fatalf("ghost must come before a in reverse-topological order, got %v", groups)
	}
}

func TestSCCsDisconnectedComponentsPreserveInsertionOrder(t *testing.T) {
	g := New[string]()
	g.Add("x")
	g.Add("y")
	g.Add("z")

	groups := g.SCCs()
	if len(groups) != 3 {
		t.Fatalf("expected 3 independent singleton components, got %v", groups)
	}
	xi, yi, zi := indexOf(groups, "x"), indexOf(groups, "y"), indexOf(groups, "z")
	if !(xi < yi && yi < zi) {
		t.Fatalf("disconnected nodes with no dependency relation should keep insertion order; got x=%d y=%d z=%d", xi, yi, zi)
	}
}

func TestSCCsDiamondDependency(t *testing.T) {
	g := New[string]()
	// top depends on left and right, both depend on bottom.
	g.Add("top", "left", "right")
	g.Add("left", "bottom")
	g.Add("right", "bottom")
	g.Add("bottom")

	groups := g.SCCs()
	if len(groups) != 4 {
		t.Fatalf("expected 4 singleton components in a diamond with no cycles, got %d: %v", len(groups), groups)
	}
	bi, li, ri, ti := indexOf(groups, "bottom"), indexOf(groups, "left"), indexOf(groups, "right"), indexOf(groups, "top")
	if bi >= li || bi >= ri {
		t.Fatalf("bottom must precede both left and right, got bottom=%d left=%d right=%d", bi, li, ri)
	}
	if li >= ti || ri >= ti {
		t.Fatalf("left and right must both precede top, got left=%d right=%d top=%d", li, ri, ti)
	}
}
