package core

// fullyConnectedTopology links every mirror with every other mirror.
// The structure graph only records group membership (a flat group
// under one head); the link plan is derived from the population
// directly, since all-pairs connectivity has no meaningful
// parent/child shape.
type fullyConnectedTopology struct{}

// NewFullyConnectedTopology returns the all-pairs strategy.
func NewFullyConnectedTopology() TopologyStrategy { return &fullyConnectedTopology{} }

func (s *fullyConnectedTopology) Kind() TopologyKind { return TopologyFullyConnected }

func (s *fullyConnectedTopology) BuildStructure(n *Network) LinkDiff {
	ids := n.NodeIDs()
	if len(ids) == 0 {
		return LinkDiff{}
	}
	buildFlatGroup(n, ids)
	return reconcileLinks(n, allPairs(ids))
}

func (s *fullyConnectedTopology) GrowStructure(n *Network, nodeIDs []int) (LinkDiff, int) {
	head := n.Head()
	if head == 0 || n.graph.Node(head) == nil {
		return s.BuildStructure(n), len(nodeIDs)
	}
	for _, id := range nodeIDs {
		n.graph.AddChild(head, id, map[StructureType]int{StructureMirror: head})
	}
	return reconcileLinks(n, allPairs(n.NodeIDs())), len(nodeIDs)
}

func (s *fullyConnectedTopology) ShrinkStructure(n *Network, count int) (LinkDiff, []int) {
	removed := removeFlatGroupNodes(n, count)
	return reconcileLinks(n, allPairs(excluding(n.NodeIDs(), removed))), removed
}

func (s *fullyConnectedTopology) Validate(n *Network) bool {
	return reconcileLinks(n, allPairs(n.NodeIDs())).Empty()
}

func (s *fullyConnectedTopology) TargetLinkCount(n *Network) int {
	return closedFormLinkCount(TopologyFullyConnected, n.NumMirrors(), n.NumTargetLinksPerMirror())
}

func (s *fullyConnectedTopology) PredictedTargetLinkCount(n *Network, a *Action) int {
	return predictedTargetLinks(n, a, TopologyFullyConnected)
}

// allPairs plans a link for every unordered node pair.
func allPairs(ids []int) []PlannedLink {
	var out []PlannedLink
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			out = append(out, PlannedLink{A: ids[i], B: ids[j]})
		}
	}
	return out
}

// buildFlatGroup attaches all nodes to the first one as a flat
// membership group under StructureMirror and records the head.
func buildFlatGroup(n *Network, ids []int) {
	head := ids[0]
	n.graph.Node(head).SetHead(StructureMirror, true)
	n.setHead(head)
	for _, id := range ids[1:] {
		n.graph.AddChild(head, id, map[StructureType]int{StructureMirror: head})
	}
}

// removeFlatGroupNodes detaches up to count nodes from a flat group,
// non-head members first in descending id order, the head itself
// only when the whole group goes. The arena nodes and their mirrors
// are torn down by the caller.
func removeFlatGroupNodes(n *Network, count int) []int {
	ids := n.NodeIDs()
	head := n.Head()

	var removed []int
	for i := len(ids) - 1; i >= 0 && len(removed) < count; i-- {
		if ids[i] == head {
			continue
		}
		n.graph.RemoveChild(head, ids[i], StructureMirror)
		removed = append(removed, ids[i])
	}
	if len(removed) < count && len(removed) == len(ids)-1 {
		removed = append(removed, head)
		n.setHead(0)
	}
	return removed
}
