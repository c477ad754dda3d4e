package core

import (
	"testing"
)

func TestFullyConnectedBuildsAllPairs(t *testing.T) {
	n := newTestNetwork(t, TopologyFullyConnected, 5, 1)

	if got, want := n.NumLinks(), 10; got != want {
		t.Fatalf("NumLinks = %d, want %d", got, want)
	}
	if !n.TopologyStrategy().Validate(n) {
		t.Error("fully connected mesh reported invalid")
	}

	nodes := n.NodeIDs()
	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			if n.linkBetweenNodes(a, b) == nil {
				t.Errorf("no link between nodes %d and %d", a, b)
			}
		}
	}
}

func TestFullyConnectedValidateDetectsMissingLink(t *testing.T) {
	n := newTestNetwork(t, TopologyFullyConnected, 4, 1)

	links := n.Links()
	n.closeLink(links[0].ID)
	if n.TopologyStrategy().Validate(n) {
		t.Error("Validate passed with a closed link")
	}
}

func TestNConnectedLinkBudget(t *testing.T) {
	cases := []struct {
		mirrors, k, links int
	}{
		{6, 2, 6},
		{6, 3, 9},
		{5, 2, 5},
		{5, 1, 2}, // odd population at k=1 pairs what it can
		{4, 3, 6}, // k = m-1 degenerates to fully connected
	}
	for _, tc := range cases {
		n := newTestNetwork(t, TopologyNConnected, tc.mirrors, tc.k)
		if got := n.NumLinks(); got != tc.links {
			t.Errorf("m=%d k=%d: NumLinks = %d, want %d", tc.mirrors, tc.k, got, tc.links)
		}
		if !n.TopologyStrategy().Validate(n) {
			t.Errorf("m=%d k=%d: reported invalid", tc.mirrors, tc.k)
		}
	}
}

func TestRingClosesCycle(t *testing.T) {
	n := newTestNetwork(t, TopologyRing, 5, 1)

	head := n.Head()
	nodes := n.Graph().NodesInStructure(head, StructureRing, head)
	if len(nodes) != 5 {
		t.Fatalf("ring membership = %d nodes, want 5", len(nodes))
	}
	if !n.Graph().HasClosedCycle(nodes, StructureRing, head) {
		t.Error("ring of 5 is not a closed cycle")
	}
	for _, id := range nodes {
		if d := n.Graph().StructuralDegree(id, StructureRing, head); d != 2 {
			t.Errorf("node %d degree = %d, want 2", id, d)
		}
	}
}

func TestRingOfTwoStaysOpen(t *testing.T) {
	n := newTestNetwork(t, TopologyRing, 2, 1)

	if got := n.NumLinks(); got != 1 {
		t.Errorf("NumLinks = %d, want 1", got)
	}
	if !n.TopologyStrategy().Validate(n) {
		t.Error("two-mirror ring (a chain) reported invalid")
	}
}

func TestRingGrowSplicesAtHead(t *testing.T) {
	n := newTestNetwork(t, TopologyRing, 3, 1)

	n.SetNumMirrors(6, 1)
	head := n.Head()
	nodes := n.Graph().NodesInStructure(head, StructureRing, head)
	if len(nodes) != 6 {
		t.Fatalf("ring membership = %d nodes, want 6", len(nodes))
	}
	if !n.Graph().HasClosedCycle(nodes, StructureRing, head) {
		t.Error("grown ring is not a closed cycle")
	}
	if got, want := n.NumLinks(), 6; got != want {
		t.Errorf("NumLinks = %d, want %d", got, want)
	}
}

func TestRingSuccessorWalksWholeRing(t *testing.T) {
	n := newTestNetwork(t, TopologyRing, 4, 1)

	head := n.Head()
	seen := map[int]bool{}
	current := head
	for i := 0; i < 4; i++ {
		seen[current] = true
		current = n.RingSuccessor(current)
	}
	if current != head {
		t.Errorf("successor walk ended at %d, want head %d", current, head)
	}
	if len(seen) != 4 {
		t.Errorf("successor walk visited %d nodes, want 4", len(seen))
	}
}

func TestTreeLinkCountIsNodesMinusOne(t *testing.T) {
	for _, m := range []int{1, 2, 3, 7, 12} {
		n := newTestNetwork(t, TopologyTree, m, 2)
		want := m - 1
		if m == 0 || m == 1 {
			want = 0
		}
		if got := n.NumLinks(); got != want {
			t.Errorf("m=%d: NumLinks = %d, want %d", m, got, want)
		}
		if !n.TopologyStrategy().Validate(n) {
			t.Errorf("m=%d: tree reported invalid", m)
		}
	}
}

func TestTreeRespectsBranchingFactor(t *testing.T) {
	n := newTestNetwork(t, TopologyTree, 7, 2)

	root := n.TreeRoot()
	if root == 0 {
		t.Fatal("no tree root")
	}
	for _, id := range n.NodeIDs() {
		children := n.Graph().typedChildren(id, StructureTree, root)
		if len(children) > 2 {
			t.Errorf("node %d has %d children, want at most 2", id, len(children))
		}
	}
	// 7 nodes at branching 2 fill exactly three levels.
	for _, id := range n.NodeIDs() {
		if d := n.TreeDepth(id); d < 0 || d > 2 {
			t.Errorf("node %d depth = %d, want 0..2", id, d)
		}
	}
}

func TestTreeShrinkRemovesLeavesOnly(t *testing.T) {
	n := newTestNetwork(t, TopologyTree, 7, 2)
	root := n.TreeRoot()

	n.SetNumMirrors(4, 1)
	if got := n.NumMirrors(); got != 4 {
		t.Fatalf("NumMirrors = %d, want 4", got)
	}
	if n.TreeRoot() != root {
		t.Errorf("root moved from %d to %d during shrink", root, n.TreeRoot())
	}
	if !n.TopologyStrategy().Validate(n) {
		t.Error("tree invalid after shrink")
	}
}

func TestLineEndpoints(t *testing.T) {
	n := newTestNetwork(t, TopologyLine, 5, 1)

	head := n.Head()
	if nodes := n.Graph().NodesInStructure(head, StructureLine, head); len(nodes) != 5 {
		t.Fatalf("line membership = %d nodes, want 5", len(nodes))
	}
	ends := n.Graph().EndpointsOfStructure(head, StructureLine, head)
	if len(ends) != 2 {
		t.Fatalf("line has %d endpoints, want 2", len(ends))
	}
	foundHead := false
	for _, id := range ends {
		if id == head {
			foundHead = true
		}
	}
	if !foundHead {
		t.Error("head is not an endpoint of the line")
	}
	if tail := n.LineTail(); tail == head || n.LinePosition(tail) != 4 {
		t.Errorf("tail %d at position %d, want far end at position 4", tail, n.LinePosition(tail))
	}
}

func TestLineGrowAppendsAtTail(t *testing.T) {
	n := newTestNetwork(t, TopologyLine, 3, 1)
	oldTail := n.LineTail()

	n.SetNumMirrors(5, 1)
	if got, want := n.NumLinks(), 4; got != want {
		t.Fatalf("NumLinks = %d, want %d", got, want)
	}
	if pos := n.LinePosition(oldTail); pos != 2 {
		t.Errorf("old tail moved to position %d, want 2", pos)
	}
	if !n.TopologyStrategy().Validate(n) {
		t.Error("line invalid after growth")
	}
}

func TestLineShrinkKeepsHeadAndNeighbor(t *testing.T) {
	n := newTestNetwork(t, TopologyLine, 4, 1)

	removed := n.SetNumMirrors(0, 1)
	if removed != -2 {
		t.Fatalf("SetNumMirrors returned %d, want -2 (line keeps two mirrors)", removed)
	}
	if got := n.NumMirrors(); got != 2 {
		t.Errorf("NumMirrors = %d, want 2", got)
	}
	if !n.TopologyStrategy().Validate(n) {
		t.Error("line invalid after shrink")
	}
}

func TestStarShape(t *testing.T) {
	n := newTestNetwork(t, TopologyStar, 6, 1)

	center := n.StarCenter()
	if center == 0 {
		t.Fatal("no star center")
	}
	leaves := n.StarLeaves()
	if len(leaves) != 5 {
		t.Fatalf("star has %d leaves, want 5", len(leaves))
	}
	head := n.Head()
	for _, leaf := range leaves {
		if d := n.Graph().StructuralDegree(leaf, StructureStar, head); d != 1 {
			t.Errorf("leaf %d degree = %d, want 1", leaf, d)
		}
	}
	if d := n.Graph().StructuralDegree(center, StructureStar, head); d != 5 {
		t.Errorf("center degree = %d, want 5", d)
	}
}

func TestStarValidateRequiresTwoLeaves(t *testing.T) {
	n := newTestNetwork(t, TopologyStar, 3, 1)

	leaves := n.StarLeaves()
	n.Graph().RemoveChild(n.StarCenter(), leaves[len(leaves)-1], StructureStar)
	if n.TopologyStrategy().Validate(n) {
		t.Error("single-leaf star over a three-mirror population validated")
	}
}

func TestStarOfTwoIsDegenerate(t *testing.T) {
	n := newTestNetwork(t, TopologyStar, 2, 1)

	if got, want := n.NumLinks(), 1; got != want {
		t.Fatalf("NumLinks = %d, want %d", got, want)
	}
	if !n.TopologyStrategy().Validate(n) {
		t.Error("center-plus-one-leaf star below the minimum size should validate")
	}
}

func TestStarRefusesToShrinkBelowMinimum(t *testing.T) {
	n := newTestNetwork(t, TopologyStar, 3, 1)

	for _, leaf := range n.StarLeaves() {
		if n.CanRemoveLeaf(leaf) {
			t.Errorf("CanRemoveLeaf(%d) = true on a minimum star", leaf)
		}
	}
	removed := n.SetNumMirrors(1, 1)
	if removed != 0 {
		t.Fatalf("removed %d mirrors from a minimum star, want 0", -removed)
	}
	if got := n.NumMirrors(); got != 3 {
		t.Errorf("NumMirrors = %d, want 3", got)
	}
}

func TestStarShrinksToMinimum(t *testing.T) {
	n := newTestNetwork(t, TopologyStar, 6, 1)

	n.SetNumMirrors(2, 1)
	if got := n.NumMirrors(); got != 3 {
		t.Errorf("NumMirrors = %d, want 3 (center plus two leaves)", got)
	}
	if !n.TopologyStrategy().Validate(n) {
		t.Error("star invalid after clamped shrink")
	}
}

func TestGrowThenShrinkRoundTripsPopulation(t *testing.T) {
	kinds := []TopologyKind{
		TopologyFullyConnected, TopologyNConnected, TopologyTree,
		TopologyRing, TopologyLine, TopologyStar,
	}
	for _, kind := range kinds {
		n := newTestNetwork(t, kind, 5, 2)
		before := n.NumLinks()

		n.SetNumMirrors(9, 1)
		n.SetNumMirrors(5, 2)

		if got := n.NumMirrors(); got != 5 {
			t.Errorf("%s: NumMirrors = %d, want 5 after round trip", kind, got)
		}
		if got := n.NumLinks(); got != before {
			t.Errorf("%s: NumLinks = %d, want %d after round trip", kind, got, before)
		}
		if !n.TopologyStrategy().Validate(n) {
			t.Errorf("%s: invalid after round trip", kind)
		}
	}
}

func TestStrategyForRejectsUnknownKind(t *testing.T) {
	if _, err := StrategyFor("mesh-of-meshes"); err == nil {
		t.Fatal("StrategyFor accepted an unknown kind")
	}
}

func TestClosedFormLinkCounts(t *testing.T) {
	cases := []struct {
		kind    TopologyKind
		m, k    int
		want    int
	}{
		{TopologyFullyConnected, 6, 1, 15},
		{TopologyNConnected, 6, 2, 6},
		{TopologyNConnected, 6, 9, 15}, // k clamped to m-1
		{TopologyRing, 5, 1, 5},
		{TopologyRing, 2, 1, 1},
		{TopologyTree, 7, 2, 6},
		{TopologyLine, 4, 1, 3},
		{TopologyStar, 4, 1, 3},
		{TopologyStar, 1, 1, 0},
		{TopologyStar, 0, 1, 0},
	}
	for _, tc := range cases {
		if got := closedFormLinkCount(tc.kind, tc.m, tc.k); got != tc.want {
			t.Errorf("closedFormLinkCount(%s, %d, %d) = %d, want %d", tc.kind, tc.m, tc.k, got, tc.want)
		}
	}
}
