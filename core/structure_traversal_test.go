package core

import "testing"

// chainGraph builds 1 -> 2 -> ... -> n as a line headed at 1.
func chainGraph(n int) *Graph {
	g := NewGraph()
	for id := 1; id <= n; id++ {
		g.NewNode(id, 0)
	}
	g.Node(1).SetHead(StructureLine, true)
	for id := 1; id < n; id++ {
		g.AddChild(id, id+1, map[StructureType]int{StructureLine: 1})
	}
	return g
}

func TestNodesInStructureCollectsWholeRegion(t *testing.T) {
	g := chainGraph(4)

	got := g.NodesInStructure(2, StructureLine, 1)
	want := []int{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("NodesInStructure = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NodesInStructure = %v, want %v", got, want)
		}
	}
}

func TestNodesInStructureIsStableWithoutMutation(t *testing.T) {
	g := chainGraph(5)

	first := g.NodesInStructure(3, StructureLine, 1)
	second := g.NodesInStructure(3, StructureLine, 1)
	if len(first) != len(second) {
		t.Fatalf("repeated traversal sizes differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("repeated traversal differs: %v vs %v", first, second)
		}
	}
}

func TestNodesInStructureStopsAtForeignHead(t *testing.T) {
	// Two lines sharing a border node: 1->2->3 headed at 1, and 3
	// itself heads a second line 3->4.
	g := chainGraph(3)
	g.NewNode(4, 0)
	g.Node(3).SetHead(StructureLine, true)
	g.AddChild(3, 4, map[StructureType]int{StructureLine: 3})

	got := g.NodesInStructure(1, StructureLine, 1)
	// 3 is included as the border, but its own region is not entered.
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("NodesInStructure = %v, want [1 2 3]", got)
	}
}

func TestNodesInStructureExpandsOwnHead(t *testing.T) {
	// A tree walk starting at a leaf must cross its own root to
	// reach the sibling subtree.
	g := NewGraph()
	for id := 1; id <= 3; id++ {
		g.NewNode(id, 0)
	}
	g.Node(1).SetHead(StructureTree, true)
	g.AddChild(1, 2, map[StructureType]int{StructureTree: 1})
	g.AddChild(1, 3, map[StructureType]int{StructureTree: 1})

	got := g.NodesInStructure(2, StructureTree, 1)
	if len(got) != 3 {
		t.Errorf("NodesInStructure from leaf = %v, want all three nodes", got)
	}
}

func TestNodesInStructureIgnoresOtherTypes(t *testing.T) {
	g := chainGraph(3)
	g.NewNode(9, 0)
	g.AddChild(3, 9, map[StructureType]int{StructureRing: 3})

	got := g.NodesInStructure(1, StructureLine, 1)
	for _, id := range got {
		if id == 9 {
			t.Error("line traversal crossed a ring-only edge")
		}
	}
}

func TestEndpointsOfStructure(t *testing.T) {
	g := chainGraph(4)

	ends := g.EndpointsOfStructure(1, StructureLine, 1)
	if len(ends) != 2 {
		t.Fatalf("endpoints = %v, want two", ends)
	}
	if !(ends[0] == 1 && ends[1] == 4) && !(ends[0] == 4 && ends[1] == 1) {
		t.Errorf("endpoints = %v, want 1 and 4", ends)
	}
}

func TestHasClosedCycle(t *testing.T) {
	g := NewGraph()
	for id := 1; id <= 3; id++ {
		g.NewNode(id, 0)
	}
	g.Node(1).SetHead(StructureRing, true)
	g.AddChild(1, 2, map[StructureType]int{StructureRing: 1})
	g.AddChild(2, 3, map[StructureType]int{StructureRing: 1})

	nodes := []int{1, 2, 3}
	if g.HasClosedCycle(nodes, StructureRing, 1) {
		t.Fatal("open chain reported as a closed cycle")
	}

	g.AddChild(3, 1, map[StructureType]int{StructureRing: 1})
	if !g.HasClosedCycle(nodes, StructureRing, 1) {
		t.Fatal("closed ring not recognized")
	}
	if g.HasClosedCycle([]int{1, 2}, StructureRing, 1) {
		t.Error("subset of a ring reported as a closed cycle")
	}
}

func TestFindHeadPrefersMarkedHead(t *testing.T) {
	g := chainGraph(4)

	if got := g.FindHead(4, StructureLine); got != 1 {
		t.Errorf("FindHead = %d, want 1", got)
	}
}

func TestFindHeadFallsBackToRoot(t *testing.T) {
	g := NewGraph()
	for id := 1; id <= 3; id++ {
		g.NewNode(id, 0)
	}
	g.AddChild(1, 2, map[StructureType]int{StructureTree: 1})
	g.AddChild(2, 3, map[StructureType]int{StructureTree: 1})

	if got := g.FindHead(3, StructureTree); got != 1 {
		t.Errorf("FindHead without marks = %d, want structural root 1", got)
	}
}

func TestConnectedUnder(t *testing.T) {
	g := chainGraph(3)
	g.NewNode(9, 0) // isolated

	if !g.ConnectedUnder([]int{1, 2, 3}, StructureLine, 1) {
		t.Error("connected chain reported disconnected")
	}
	if g.ConnectedUnder([]int{1, 2, 9}, StructureLine, 1) {
		t.Error("set with an isolated node reported connected")
	}
	if !g.ConnectedUnder([]int{2}, StructureLine, 1) {
		t.Error("singleton set reported disconnected")
	}
	if g.ConnectedUnder(nil, StructureLine, 1) {
		t.Error("empty set reported connected")
	}
}
