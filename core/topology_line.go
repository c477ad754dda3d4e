package core

// lineTopology chains the mirrors into an open path. The head sits
// at one end; growth appends to the far end and shrinking trims it
// back, so the head never moves.
type lineTopology struct{}

// NewLineTopology returns the open-chain strategy.
func NewLineTopology() TopologyStrategy { return &lineTopology{} }

func (s *lineTopology) Kind() TopologyKind { return TopologyLine }

func (s *lineTopology) BuildStructure(n *Network) LinkDiff {
	ids := n.NodeIDs()
	if len(ids) == 0 {
		return LinkDiff{}
	}
	head := ids[0]
	n.graph.Node(head).SetHead(StructureLine, true)
	n.setHead(head)

	prev := head
	for _, id := range ids[1:] {
		n.graph.AddChild(prev, id, map[StructureType]int{StructureLine: head})
		prev = id
	}

	nodes := n.graph.NodesInStructure(head, StructureLine, head)
	return LinkDiff{Create: structureLinks(n.graph, nodes, StructureLine, head)}
}

func (s *lineTopology) GrowStructure(n *Network, nodeIDs []int) (LinkDiff, int) {
	head := n.Head()
	if head == 0 || n.graph.Node(head) == nil {
		return s.BuildStructure(n), len(nodeIDs)
	}

	var diff LinkDiff
	placed := 0
	for _, id := range nodeIDs {
		tail := n.LineTail()
		if tail == 0 {
			tail = head
		}
		if !n.graph.AddChild(tail, id, map[StructureType]int{StructureLine: head}) {
			break
		}
		diff.Create = append(diff.Create, PlannedLink{A: tail, B: id})
		placed++
	}
	return diff, placed
}

// ShrinkStructure trims the far end of the chain. The head and its
// immediate neighbor stay, so a line never drops below two mirrors
// by shrinking.
func (s *lineTopology) ShrinkStructure(n *Network, count int) (LinkDiff, []int) {
	head := n.Head()
	if head == 0 {
		return LinkDiff{}, nil
	}

	var removed []int
	for len(removed) < count {
		nodes := n.graph.NodesInStructure(head, StructureLine, head)
		if len(nodes) <= 2 {
			break
		}
		tail := n.LineTail()
		if tail == 0 || tail == head {
			break
		}
		parent := n.graph.typedParent(tail, StructureLine, head)
		n.graph.RemoveChild(parent, tail, StructureLine)
		removed = append(removed, tail)
	}
	return LinkDiff{}, removed
}

func (s *lineTopology) Validate(n *Network) bool {
	head := n.Head()
	if head == 0 || n.graph.Node(head) == nil {
		return n.NumMirrors() == 0
	}
	nodes := n.graph.NodesInStructure(head, StructureLine, head)
	if len(structureLinks(n.graph, nodes, StructureLine, head)) != len(nodes)-1 {
		return false
	}
	if !n.graph.ConnectedUnder(nodes, StructureLine, head) {
		return false
	}
	// Ends have one neighbor, interior nodes two.
	for _, id := range nodes {
		if d := n.graph.StructuralDegree(id, StructureLine, head); d > 2 {
			return false
		}
	}
	if len(nodes) >= 2 {
		if ends := n.graph.EndpointsOfStructure(head, StructureLine, head); len(ends) != 2 {
			return false
		}
	}
	return n.headHasOutsideConnection(nodes)
}

func (s *lineTopology) TargetLinkCount(n *Network) int {
	return closedFormLinkCount(TopologyLine, n.NumMirrors(), n.NumTargetLinksPerMirror())
}

func (s *lineTopology) PredictedTargetLinkCount(n *Network, a *Action) int {
	return predictedTargetLinks(n, a, TopologyLine)
}

// LineTail returns the childless end of the line, walking the chain
// from the head. Returns the head itself for a single-node line and
// 0 when no line structure is active.
func (n *Network) LineTail() int {
	head := n.Head()
	if head == 0 || n.graph.Node(head) == nil {
		return 0
	}
	current := head
	visited := map[int]bool{}
	for !visited[current] {
		visited[current] = true
		children := n.graph.typedChildren(current, StructureLine, head)
		if len(children) == 0 {
			return current
		}
		current = children[0]
	}
	return 0
}

// LinePosition returns nodeID's distance from the head along the
// chain, or -1 when the node is not on the line.
func (n *Network) LinePosition(nodeID int) int {
	head := n.Head()
	if head == 0 {
		return -1
	}
	current := head
	pos := 0
	visited := map[int]bool{}
	for !visited[current] {
		if current == nodeID {
			return pos
		}
		visited[current] = true
		children := n.graph.typedChildren(current, StructureLine, head)
		if len(children) == 0 {
			return -1
		}
		current = children[0]
		pos++
	}
	return -1
}
