package core

// nConnectedTopology gives every mirror roughly k links, with k
// taken from the network's links-per-mirror target. Links follow a
// circulant pattern over the sorted node ids: each node connects to
// its next k/2 neighbours, plus cross links covering the last
// half-degree when k is odd. The total is floor(m*k/2).
type nConnectedTopology struct{}

// NewNConnectedTopology returns the k-neighbour strategy.
func NewNConnectedTopology() TopologyStrategy { return &nConnectedTopology{} }

func (s *nConnectedTopology) Kind() TopologyKind { return TopologyNConnected }

func (s *nConnectedTopology) BuildStructure(n *Network) LinkDiff {
	ids := n.NodeIDs()
	if len(ids) == 0 {
		return LinkDiff{}
	}
	buildFlatGroup(n, ids)
	return reconcileLinks(n, circulantPairs(ids, n.NumTargetLinksPerMirror()))
}

func (s *nConnectedTopology) GrowStructure(n *Network, nodeIDs []int) (LinkDiff, int) {
	head := n.Head()
	if head == 0 || n.graph.Node(head) == nil {
		return s.BuildStructure(n), len(nodeIDs)
	}
	for _, id := range nodeIDs {
		n.graph.AddChild(head, id, map[StructureType]int{StructureMirror: head})
	}
	return reconcileLinks(n, circulantPairs(n.NodeIDs(), n.NumTargetLinksPerMirror())), len(nodeIDs)
}

func (s *nConnectedTopology) ShrinkStructure(n *Network, count int) (LinkDiff, []int) {
	removed := removeFlatGroupNodes(n, count)
	survivors := excluding(n.NodeIDs(), removed)
	return reconcileLinks(n, circulantPairs(survivors, n.NumTargetLinksPerMirror())), removed
}

func (s *nConnectedTopology) Validate(n *Network) bool {
	return reconcileLinks(n, circulantPairs(n.NodeIDs(), n.NumTargetLinksPerMirror())).Empty()
}

func (s *nConnectedTopology) TargetLinkCount(n *Network) int {
	return closedFormLinkCount(TopologyNConnected, n.NumMirrors(), n.NumTargetLinksPerMirror())
}

func (s *nConnectedTopology) PredictedTargetLinkCount(n *Network, a *Action) int {
	return predictedTargetLinks(n, a, TopologyNConnected)
}

// circulantPairs plans the k-neighbour link set over the given node
// ids, deduplicated and deterministic.
func circulantPairs(ids []int, k int) []PlannedLink {
	m := len(ids)
	if m < 2 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > m-1 {
		k = m - 1
	}

	seen := make(map[[2]int]bool)
	var out []PlannedLink
	add := func(a, b int) {
		key := pairKey(a, b)
		if a == b || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, PlannedLink{A: key[0], B: key[1]})
	}

	for i := 0; i < m; i++ {
		for off := 1; off <= k/2; off++ {
			add(ids[i], ids[(i+off)%m])
		}
	}
	// An odd k gets its last half-degree from cross links: true
	// diameters when m is even, near-diameters when m is odd (an odd
	// population cannot be k-regular for odd k, so one node stays at
	// k-1). Either way the total lands on floor(m*k/2).
	if k%2 == 1 {
		half := (m + 1) / 2
		for i := 0; i < m/2; i++ {
			add(ids[i], ids[(i+half)%m])
		}
	}
	return out
}
