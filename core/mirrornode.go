package core

import "github.com/signalsfoundry/mirrornet-simulator/model"

// The functions in this file reconcile the two layers of the model:
// the planned links derived from structural edges and the
// implemented links that actually exist on the physical mirrors.
// Tests use the split to tell "topology says these should connect"
// apart from "the connection was actually realized".

// PlannedLinks is the number of links the structure plans for a
// node: its structural edge count under (t, head).
func (n *Network) PlannedLinks(nodeID int, t StructureType, head int) int {
	return n.graph.StructuralDegree(nodeID, t, head)
}

// ImplementedLinks is the number of non-closed links on the node's
// mirror.
func (n *Network) ImplementedLinks(nodeID int) int {
	mirror := n.MirrorForNode(nodeID)
	if mirror == nil {
		return 0
	}
	count := 0
	for _, l := range mirror.Links() {
		if l.State() != model.LinkClosed {
			count++
		}
	}
	return count
}

// PendingLinks is how many planned links have not been implemented
// yet, floored at zero.
func (n *Network) PendingLinks(nodeID int, t StructureType, head int) int {
	pending := n.PlannedLinks(nodeID, t, head) - n.ImplementedLinks(nodeID)
	if pending < 0 {
		return 0
	}
	return pending
}

// IsLinkedWith reports whether two nodes are connected on both
// layers: a structural edge under (t, head) and an implemented link
// between their mirrors.
func (n *Network) IsLinkedWith(aNode, bNode int, t StructureType, head int) bool {
	if !n.graph.HasEdge(aNode, bNode, t, head) {
		return false
	}
	return n.linkBetweenNodes(aNode, bNode) != nil
}

// ClassifyLinks splits the links touching a substructure into
// internal links (both endpoints' mirrors inside) and edge links
// (exactly one endpoint inside, i.e. the structural boundary).
func (n *Network) ClassifyLinks(nodes []int) (internal, edge []*model.Link) {
	inSet := make(map[*model.Mirror]bool, len(nodes))
	for _, id := range nodes {
		if m := n.MirrorForNode(id); m != nil {
			inSet[m] = true
		}
	}

	for _, l := range n.Links() {
		if l.State() == model.LinkClosed {
			continue
		}
		a, b := inSet[l.Source], inSet[l.Target]
		switch {
		case a && b:
			internal = append(internal, l)
		case a || b:
			edge = append(edge, l)
		}
	}
	return internal, edge
}

// NumEdgeLinks counts the substructure's boundary-crossing links. A
// substructure with zero edge links is topologically isolated.
func (n *Network) NumEdgeLinks(nodes []int) int {
	_, edge := n.ClassifyLinks(nodes)
	return len(edge)
}

// headHasOutsideConnection is the validators' edge-link requirement:
// when the network extends beyond the substructure, its head must be
// reachable from the outside. Substructures covering the whole
// population have no outside and are exempt.
func (n *Network) headHasOutsideConnection(nodes []int) bool {
	if len(nodes) >= len(n.mirrors) {
		return true
	}
	return n.NumEdgeLinks(nodes) > 0
}
