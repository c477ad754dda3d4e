package core

// DefaultMinRingSize is the smallest mirror count a ring strategy
// will shrink to. A two-node "ring" degenerates into a single link
// and a one-node ring has none, so three is the floor.
const DefaultMinRingSize = 3

// ringTopology arranges the mirrors in a single cycle. The head's
// successor chain walks the whole ring and the last node links back
// to the head, so every mirror has exactly two neighbors.
type ringTopology struct {
	MinSize int
}

// NewRingTopology returns a ring strategy that refuses to shrink
// below minSize mirrors.
func NewRingTopology(minSize int) TopologyStrategy {
	if minSize < DefaultMinRingSize {
		minSize = DefaultMinRingSize
	}
	return &ringTopology{MinSize: minSize}
}

func (s *ringTopology) Kind() TopologyKind { return TopologyRing }

func (s *ringTopology) BuildStructure(n *Network) LinkDiff {
	ids := n.NodeIDs()
	if len(ids) == 0 {
		return LinkDiff{}
	}
	head := ids[0]
	n.graph.Node(head).SetHead(StructureRing, true)
	n.setHead(head)

	prev := head
	for _, id := range ids[1:] {
		n.graph.AddChild(prev, id, map[StructureType]int{StructureRing: head})
		prev = id
	}
	// Close the cycle: the tail adopts the head as its child.
	if len(ids) >= DefaultMinRingSize {
		n.graph.AddChild(prev, head, map[StructureType]int{StructureRing: head})
	}

	nodes := n.graph.NodesInStructure(head, StructureRing, head)
	return LinkDiff{Create: structureLinks(n.graph, nodes, StructureRing, head)}
}

// GrowStructure splices each new node between the head and its
// current successor, which keeps the single-cycle shape without
// rebuilding the whole ring.
func (s *ringTopology) GrowStructure(n *Network, nodeIDs []int) (LinkDiff, int) {
	head := n.Head()
	if head == 0 || n.graph.Node(head) == nil {
		return s.BuildStructure(n), len(nodeIDs)
	}

	placed := 0
	for _, id := range nodeIDs {
		succ := n.RingSuccessor(head)
		if succ == 0 {
			// Ring of one: the new node becomes the sole successor.
			if !n.graph.AddChild(head, id, map[StructureType]int{StructureRing: head}) {
				break
			}
			placed++
			continue
		}
		n.graph.RemoveChild(head, succ, StructureRing)
		n.graph.AddChild(head, id, map[StructureType]int{StructureRing: head})
		n.graph.AddChild(id, succ, map[StructureType]int{StructureRing: head})
		placed++
	}

	// Close the cycle once the ring reaches three nodes.
	nodes := n.graph.NodesInStructure(head, StructureRing, head)
	if len(nodes) >= DefaultMinRingSize && !n.graph.HasClosedCycle(nodes, StructureRing, head) {
		tail := s.tail(n, head)
		if tail != 0 && tail != head {
			n.graph.AddChild(tail, head, map[StructureType]int{StructureRing: head})
		}
	}

	nodes = n.graph.NodesInStructure(head, StructureRing, head)
	return reconcileLinks(n, structureLinks(n.graph, nodes, StructureRing, head)), placed
}

// tail walks the successor chain from the head to the node without
// a ring child.
func (s *ringTopology) tail(n *Network, head int) int {
	current := head
	visited := map[int]bool{}
	for !visited[current] {
		visited[current] = true
		next := n.RingSuccessor(current)
		if next == 0 {
			return current
		}
		current = next
	}
	return 0
}

// ShrinkStructure removes the head's successors one at a time,
// resplicing the head to each removed node's own successor. It
// never takes the ring below MinSize; a request that would do so is
// truncated, possibly to nothing.
func (s *ringTopology) ShrinkStructure(n *Network, count int) (LinkDiff, []int) {
	head := n.Head()
	if head == 0 {
		return LinkDiff{}, nil
	}

	var removed []int
	for len(removed) < count {
		nodes := n.graph.NodesInStructure(head, StructureRing, head)
		if len(nodes) <= s.MinSize {
			break
		}
		victim := n.RingSuccessor(head)
		if victim == 0 || victim == head {
			break
		}
		next := n.RingSuccessor(victim)
		n.graph.RemoveChild(head, victim, StructureRing)
		n.graph.RemoveChild(victim, next, StructureRing)
		if next != 0 && next != head {
			n.graph.AddChild(head, next, map[StructureType]int{StructureRing: head})
		}
		removed = append(removed, victim)
	}

	nodes := n.graph.NodesInStructure(head, StructureRing, head)
	return reconcileLinks(n, structureLinks(n.graph, nodes, StructureRing, head)), removed
}

func (s *ringTopology) Validate(n *Network) bool {
	head := n.Head()
	if head == 0 || n.graph.Node(head) == nil {
		return n.NumMirrors() == 0
	}
	nodes := n.graph.NodesInStructure(head, StructureRing, head)
	if len(nodes) < DefaultMinRingSize {
		// A degenerate ring is a chain; validate it as such.
		return len(structureLinks(n.graph, nodes, StructureRing, head)) == len(nodes)-1 &&
			n.headHasOutsideConnection(nodes)
	}
	if !n.graph.HasClosedCycle(nodes, StructureRing, head) {
		return false
	}
	for _, id := range nodes {
		if n.graph.StructuralDegree(id, StructureRing, head) != 2 {
			return false
		}
	}
	return n.headHasOutsideConnection(nodes)
}

func (s *ringTopology) TargetLinkCount(n *Network) int {
	return closedFormLinkCount(TopologyRing, n.NumMirrors(), n.NumTargetLinksPerMirror())
}

func (s *ringTopology) PredictedTargetLinkCount(n *Network, a *Action) int {
	return predictedTargetLinks(n, a, TopologyRing)
}

// RingSuccessor returns nodeID's child within the ring structure, or
// 0 when it has none.
func (n *Network) RingSuccessor(nodeID int) int {
	head := n.Head()
	children := n.graph.typedChildren(nodeID, StructureRing, head)
	if len(children) == 0 {
		return 0
	}
	return children[0]
}

// RingPredecessor returns the node whose ring child is nodeID, or 0.
func (n *Network) RingPredecessor(nodeID int) int {
	head := n.Head()
	for _, id := range n.NodeIDs() {
		for _, c := range n.graph.typedChildren(id, StructureRing, head) {
			if c == nodeID {
				return id
			}
		}
	}
	return 0
}
