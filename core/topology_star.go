package core

// minStarSize is the smallest population a star strategy will shrink
// to: a center plus two leaves. Anything smaller is a line.
const minStarSize = 3

// starTopology links every mirror to a single center node, which is
// also the head of the structure.
type starTopology struct{}

// NewStarTopology returns the hub-and-spoke strategy.
func NewStarTopology() TopologyStrategy { return &starTopology{} }

func (s *starTopology) Kind() TopologyKind { return TopologyStar }

func (s *starTopology) BuildStructure(n *Network) LinkDiff {
	ids := n.NodeIDs()
	if len(ids) == 0 {
		return LinkDiff{}
	}
	center := ids[0]
	n.graph.Node(center).SetHead(StructureStar, true)
	n.setHead(center)

	for _, id := range ids[1:] {
		n.graph.AddChild(center, id, map[StructureType]int{StructureStar: center})
	}

	nodes := n.graph.NodesInStructure(center, StructureStar, center)
	return LinkDiff{Create: structureLinks(n.graph, nodes, StructureStar, center)}
}

func (s *starTopology) GrowStructure(n *Network, nodeIDs []int) (LinkDiff, int) {
	center := n.Head()
	if center == 0 || n.graph.Node(center) == nil {
		return s.BuildStructure(n), len(nodeIDs)
	}

	var diff LinkDiff
	placed := 0
	for _, id := range nodeIDs {
		if !n.graph.AddChild(center, id, map[StructureType]int{StructureStar: center}) {
			break
		}
		diff.Create = append(diff.Create, PlannedLink{A: center, B: id})
		placed++
	}
	return diff, placed
}

// ShrinkStructure removes leaves in descending id order. The center
// is never removed and the star keeps at least two leaves, so a
// three-mirror star refuses to shrink at all.
func (s *starTopology) ShrinkStructure(n *Network, count int) (LinkDiff, []int) {
	center := n.Head()
	if center == 0 {
		return LinkDiff{}, nil
	}

	var removed []int
	for len(removed) < count {
		leaf := s.removableLeaf(n, center)
		if leaf == 0 {
			break
		}
		n.graph.RemoveChild(center, leaf, StructureStar)
		removed = append(removed, leaf)
	}
	return LinkDiff{}, removed
}

// removableLeaf picks the highest-id leaf that CanRemoveLeaf allows,
// or 0 when the star is at its minimum size.
func (s *starTopology) removableLeaf(n *Network, center int) int {
	leaves := n.graph.typedChildren(center, StructureStar, center)
	for i := len(leaves) - 1; i >= 0; i-- {
		if n.CanRemoveLeaf(leaves[i]) {
			return leaves[i]
		}
	}
	return 0
}

func (s *starTopology) Validate(n *Network) bool {
	center := n.Head()
	if center == 0 || n.graph.Node(center) == nil {
		return n.NumMirrors() == 0
	}
	nodes := n.graph.NodesInStructure(center, StructureStar, center)
	if len(structureLinks(n.graph, nodes, StructureStar, center)) != len(nodes)-1 {
		return false
	}
	// A full-size star keeps at least two leaves on the center. Below
	// minStarSize the degenerate star (center plus at most one leaf)
	// is accepted, like the ring's open chain.
	if n.NumMirrors() >= minStarSize && len(n.graph.typedChildren(center, StructureStar, center)) < 2 {
		return false
	}
	for _, id := range nodes {
		if id == center {
			continue
		}
		if n.graph.typedParent(id, StructureStar, center) != center {
			return false
		}
		if n.graph.StructuralDegree(id, StructureStar, center) != 1 {
			return false
		}
	}
	return n.headHasOutsideConnection(nodes)
}

func (s *starTopology) TargetLinkCount(n *Network) int {
	return closedFormLinkCount(TopologyStar, n.NumMirrors(), n.NumTargetLinksPerMirror())
}

func (s *starTopology) PredictedTargetLinkCount(n *Network, a *Action) int {
	return predictedTargetLinks(n, a, TopologyStar)
}

// StarCenter returns the hub node id of the active star structure.
func (n *Network) StarCenter() int {
	if n.strategy != nil && n.strategy.Kind() == TopologyStar {
		return n.Head()
	}
	return 0
}

// StarLeaves returns the leaf node ids of the active star in
// ascending order.
func (n *Network) StarLeaves() []int {
	center := n.StarCenter()
	if center == 0 {
		return nil
	}
	return n.graph.typedChildren(center, StructureStar, center)
}

// CanRemoveLeaf reports whether removing the given leaf keeps the
// star above its minimum of a center and two leaves. The center is
// never removable.
func (n *Network) CanRemoveLeaf(nodeID int) bool {
	center := n.Head()
	if center == 0 || nodeID == center {
		return false
	}
	if n.graph.typedParent(nodeID, StructureStar, center) != center {
		return false
	}
	return len(n.graph.typedChildren(center, StructureStar, center))+1 > minStarSize
}
