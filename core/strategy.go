package core

import (
	"fmt"
	"sort"
)

// TopologyKind names the available topology strategies.
type TopologyKind string

const (
	TopologyFullyConnected TopologyKind = "fully_connected"
	TopologyNConnected     TopologyKind = "n_connected"
	TopologyTree           TopologyKind = "tree"
	TopologyRing           TopologyKind = "ring"
	TopologyLine           TopologyKind = "line"
	TopologyStar           TopologyKind = "star"
)

// Valid reports whether the kind names a known strategy.
func (k TopologyKind) Valid() bool {
	switch k {
	case TopologyFullyConnected, TopologyNConnected, TopologyTree, TopologyRing, TopologyLine, TopologyStar:
		return true
	default:
		return false
	}
}

// structureTypeFor maps a topology kind to the structure type its
// edges are tagged with. The flat topologies share a single group
// type since they don't use the structural overlay beyond membership.
func structureTypeFor(k TopologyKind) StructureType {
	switch k {
	case TopologyTree:
		return StructureTree
	case TopologyRing:
		return StructureRing
	case TopologyLine:
		return StructureLine
	case TopologyStar:
		return StructureStar
	default:
		return StructureMirror
	}
}

// PlannedLink is a structural link between two nodes that the
// execution layer should realize as a physical mirror link.
type PlannedLink struct {
	A, B int // node ids
}

// LinkDiff is the output of the planning layer: the physical link
// changes needed to realize a planned structure mutation. Planning
// never touches mirrors or links; only ExecuteDiff does.
type LinkDiff struct {
	Create []PlannedLink
	Close  []int // link ids
}

// Empty reports whether the diff carries no work.
func (d LinkDiff) Empty() bool { return len(d.Create) == 0 && len(d.Close) == 0 }

// merge appends another diff.
func (d *LinkDiff) merge(other LinkDiff) {
	d.Create = append(d.Create, other.Create...)
	d.Close = append(d.Close, other.Close...)
}

// TopologyStrategy plans and realizes one topology over the
// network's mirror population. Planning methods mutate only the
// structure graph and return a LinkDiff; the caller validates and
// then executes the diff, which is what keeps speculative changes
// cheap to roll back and lets the effect model reason about
// hypothetical topologies.
type TopologyStrategy interface {
	Kind() TopologyKind

	// BuildStructure plans the complete topology over the current
	// node population from scratch.
	BuildStructure(n *Network) LinkDiff

	// GrowStructure splices the given fresh nodes into the
	// structure. It returns the diff plus how many nodes were
	// actually placed; nodes that could not be placed are left out
	// of the structure.
	GrowStructure(n *Network, nodeIDs []int) (LinkDiff, int)

	// ShrinkStructure plans the removal of up to count nodes,
	// clamped so the topology's minimum size and invariants hold.
	// It returns the diff and the ids of the removed nodes.
	ShrinkStructure(n *Network, count int) (LinkDiff, []int)

	// Validate checks the topology's structural invariants over the
	// network's current structure.
	Validate(n *Network) bool

	// TargetLinkCount is the closed-form link total for the current
	// population and link target.
	TargetLinkCount(n *Network) int

	// PredictedTargetLinkCount is the closed-form link total for
	// the hypothetical network state after the action is applied.
	PredictedTargetLinkCount(n *Network, a *Action) int
}

// StrategyFor constructs the strategy for a kind with its defaults.
func StrategyFor(kind TopologyKind) (TopologyStrategy, error) {
	switch kind {
	case TopologyFullyConnected:
		return NewFullyConnectedTopology(), nil
	case TopologyNConnected:
		return NewNConnectedTopology(), nil
	case TopologyTree:
		return NewTreeTopology(), nil
	case TopologyRing:
		return NewRingTopology(DefaultMinRingSize), nil
	case TopologyLine:
		return NewLineTopology(), nil
	case TopologyStar:
		return NewStarTopology(), nil
	default:
		return nil, fmt.Errorf("unknown topology kind %q", kind)
	}
}

// closedFormLinkCount is the per-topology link total for a mirror
// population of m with a links-per-mirror target of k.
func closedFormLinkCount(kind TopologyKind, m, k int) int {
	if m <= 1 {
		return 0
	}
	switch kind {
	case TopologyFullyConnected:
		return m * (m - 1) / 2
	case TopologyNConnected:
		if k < 1 {
			k = 1
		}
		if k > m-1 {
			k = m - 1
		}
		return m * k / 2
	case TopologyRing:
		if m >= 3 {
			return m
		}
		return m - 1
	case TopologyTree, TopologyLine, TopologyStar:
		return m - 1
	default:
		return 0
	}
}

// predictedTargetLinks evaluates the closed-form link count for the
// hypothetical state after applying a to n, assuming the strategy
// kind current stays active unless the action changes it.
func predictedTargetLinks(n *Network, a *Action, current TopologyKind) int {
	kind := current
	m := n.NumMirrors()
	k := n.NumTargetLinksPerMirror()
	if a != nil {
		switch a.Kind {
		case ActionTopologyChange:
			kind = a.NewTopology
		case ActionMirrorChange:
			m = a.NewMirrors
		case ActionTargetLinkChange:
			k = a.NewLinksPerMirror
		}
	}
	return closedFormLinkCount(kind, m, k)
}

// ExecuteDiff is the execution layer: it realizes a planned diff on
// the physical mirrors, creating links for every planned pair that
// is not yet implemented and closing the listed links. It returns
// the number of links actually created.
func ExecuteDiff(n *Network, diff LinkDiff, simTime int) int {
	for _, id := range diff.Close {
		n.closeLink(id)
	}

	created := 0
	for _, pl := range diff.Create {
		if n.createLink(pl.A, pl.B, simTime) {
			created++
		}
	}
	return created
}

// excluding filters removed ids out of ids, preserving order.
func excluding(ids, removed []int) []int {
	rm := make(map[int]bool, len(removed))
	for _, id := range removed {
		rm[id] = true
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !rm[id] {
			out = append(out, id)
		}
	}
	return out
}

// pairKey normalizes an unordered node pair.
func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// reconcileLinks diffs a desired link set against the links that are
// actually implemented, yielding the creations and closures needed
// to converge. The flat topologies plan entirely through this;
// Validate reuses it, since an empty diff means the plan is realized.
func reconcileLinks(n *Network, desired []PlannedLink) LinkDiff {
	want := make(map[[2]int]PlannedLink, len(desired))
	for _, pl := range desired {
		want[pairKey(pl.A, pl.B)] = pl
	}

	have := make(map[[2]int]int) // pair -> link id
	for _, l := range n.Links() {
		a := n.NodeForMirror(l.Source.ID)
		b := n.NodeForMirror(l.Target.ID)
		if a == 0 || b == 0 {
			continue
		}
		have[pairKey(a, b)] = l.ID
	}

	var diff LinkDiff
	for _, pl := range desired {
		if _, ok := have[pairKey(pl.A, pl.B)]; !ok {
			diff.Create = append(diff.Create, pl)
		}
	}
	closeIDs := make([]int, 0)
	for pair, id := range have {
		if _, ok := want[pair]; !ok {
			closeIDs = append(closeIDs, id)
		}
	}
	sort.Ints(closeIDs)
	diff.Close = closeIDs
	return diff
}

// structureLinks lists every structural edge of the substructure as
// a planned link, in deterministic order.
func structureLinks(g *Graph, nodes []int, t StructureType, head int) []PlannedLink {
	inSet := make(map[int]bool, len(nodes))
	for _, id := range nodes {
		inSet[id] = true
	}

	var out []PlannedLink
	sorted := append([]int(nil), nodes...)
	sort.Ints(sorted)
	for _, id := range sorted {
		for _, c := range g.typedChildren(id, t, head) {
			if inSet[c] {
				out = append(out, PlannedLink{A: id, B: c})
			}
		}
	}
	return out
}
