package core

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/signalsfoundry/mirrornet-simulator/history"
	"github.com/signalsfoundry/mirrornet-simulator/internal/logging"
	"github.com/signalsfoundry/mirrornet-simulator/model"
)

// Network is the replicated-mirror network under simulation: the
// mirror population, the implemented links, the structure graph and
// the active topology strategy. All mutation goes through the
// strategy's planning/execution calls; the simulation loop drives it
// single-threaded (external synchronization is assumed for any other
// arrangement).
type Network struct {
	idgen *IDGen
	rng   *rand.Rand
	props model.Props
	log   logging.Logger

	graph    *Graph
	strategy TopologyStrategy
	headID   int

	mirrors      map[int]*model.Mirror
	nodeOfMirror map[int]int // mirror id -> node id
	links        map[int]*model.Link

	targetMirrors        int
	targetLinksPerMirror int
	currentTick          int

	linksCreated int
	linksClosed  int

	histories *history.Store
}

// NetworkConfig bundles the collaborators a network needs.
type NetworkConfig struct {
	IDGen    *IDGen
	Rand     *rand.Rand
	Props    model.Props
	Logger   logging.Logger
	Topology TopologyKind
	Mirrors  int
	// TargetLinksPerMirror is the per-mirror link goal used by the
	// n-connected and tree strategies. Clamped to at least 1.
	TargetLinksPerMirror int
}

// NewNetwork provisions the initial mirror population, builds the
// requested topology and executes the resulting link plan at tick 0.
func NewNetwork(cfg NetworkConfig) (*Network, error) {
	if cfg.IDGen == nil {
		cfg.IDGen = NewIDGen()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	if cfg.Mirrors < 0 {
		return nil, fmt.Errorf("network: negative mirror count %d", cfg.Mirrors)
	}
	if cfg.TargetLinksPerMirror < 1 {
		cfg.TargetLinksPerMirror = 1
	}
	strategy, err := StrategyFor(cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	n := &Network{
		idgen:                cfg.IDGen,
		rng:                  cfg.Rand,
		props:                cfg.Props,
		log:                  cfg.Logger,
		graph:                NewGraph(),
		strategy:             strategy,
		mirrors:              make(map[int]*model.Mirror),
		nodeOfMirror:         make(map[int]int),
		links:                make(map[int]*model.Link),
		targetMirrors:        cfg.Mirrors,
		targetLinksPerMirror: cfg.TargetLinksPerMirror,
		histories:            history.NewStore(),
	}

	for i := 0; i < cfg.Mirrors; i++ {
		if _, err := n.provisionMirror(0); err != nil {
			return nil, err
		}
	}
	n.rebuildTopology(0)
	return n, nil
}

// TopologyStrategy returns the active strategy.
func (n *Network) TopologyStrategy() TopologyStrategy { return n.strategy }

// Graph exposes the structure graph. Callers other than the active
// strategy must treat it as read-only.
func (n *Network) Graph() *Graph { return n.graph }

// Head returns the node id of the current structure head, 0 when the
// network is empty.
func (n *Network) Head() int { return n.headID }

// History returns the relative-quality series store.
func (n *Network) History() *history.Store { return n.histories }

// Props returns the configuration bag.
func (n *Network) Props() model.Props { return n.props }

// CurrentTimeStep returns the last tick the network advanced to.
func (n *Network) CurrentTimeStep() int { return n.currentTick }

// NumMirrors returns the current mirror population size.
func (n *Network) NumMirrors() int { return len(n.mirrors) }

// NumTargetMirrors returns the most recently requested population size.
func (n *Network) NumTargetMirrors() int { return n.targetMirrors }

// NumTargetLinksPerMirror returns the per-mirror link goal.
func (n *Network) NumTargetLinksPerMirror() int { return n.targetLinksPerMirror }

// Mirrors returns the population in ascending id order.
func (n *Network) Mirrors() []*model.Mirror {
	out := make([]*model.Mirror, 0, len(n.mirrors))
	for _, m := range n.mirrors {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Links returns the implemented links in ascending id order.
func (n *Network) Links() []*model.Link {
	out := make([]*model.Link, 0, len(n.links))
	for _, l := range n.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NumLinks returns the implemented link count.
func (n *Network) NumLinks() int { return len(n.links) }

// LinkChurn returns the cumulative number of links created and closed
// over the network's lifetime, including the initial topology build.
func (n *Network) LinkChurn() (created, closed int) {
	return n.linksCreated, n.linksClosed
}

// NumActiveLinks counts links currently carrying traffic.
func (n *Network) NumActiveLinks() int {
	count := 0
	for _, l := range n.links {
		if l.IsActive() {
			count++
		}
	}
	return count
}

// NodeIDs returns the structure node ids in ascending order.
func (n *Network) NodeIDs() []int {
	out := make([]int, 0, len(n.nodeOfMirror))
	for _, id := range n.nodeOfMirror {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// MirrorForNode resolves the mirror bound to a structure node.
func (n *Network) MirrorForNode(nodeID int) *model.Mirror {
	node := n.graph.Node(nodeID)
	if node == nil {
		return nil
	}
	return n.mirrors[node.MirrorID]
}

// NodeForMirror resolves the structure node bound to a mirror.
func (n *Network) NodeForMirror(mirrorID int) int { return n.nodeOfMirror[mirrorID] }

// SetNumMirrors grows or shrinks the population to target at
// simTime, delegating structure changes to the active strategy. The
// returned count is the number of mirrors actually added or removed
// (negative for removals); shrink requests are clamped by the
// strategy's minimum size.
func (n *Network) SetNumMirrors(target, simTime int) int {
	if target < 0 {
		target = 0
	}
	n.targetMirrors = target
	current := len(n.mirrors)

	switch {
	case target > current:
		return n.growMirrors(target-current, simTime)
	case target < current:
		return -n.shrinkMirrors(current-target, simTime)
	default:
		return 0
	}
}

func (n *Network) growMirrors(count, simTime int) int {
	nodeIDs := make([]int, 0, count)
	for i := 0; i < count; i++ {
		nodeID, err := n.provisionMirror(simTime)
		if err != nil {
			n.log.Error(context.Background(), "mirror provisioning failed", logging.Any("err", err))
			break
		}
		nodeIDs = append(nodeIDs, nodeID)
	}

	diff, placed := n.strategy.GrowStructure(n, nodeIDs)
	// Unplaced nodes are torn down again so population and structure
	// stay in sync.
	for _, id := range nodeIDs[placed:] {
		n.dropNode(id, simTime)
	}
	created := ExecuteDiff(n, diff, simTime)
	n.log.Info(context.Background(), "mirrors added",
		logging.Int("requested", count),
		logging.Int("placed", placed),
		logging.Int("links_created", created))
	return placed
}

func (n *Network) shrinkMirrors(count, simTime int) int {
	diff, removed := n.strategy.ShrinkStructure(n, count)
	for _, nodeID := range removed {
		n.dropNode(nodeID, simTime)
	}
	ExecuteDiff(n, diff, simTime)
	n.log.Info(context.Background(), "mirrors removed",
		logging.Int("requested", count),
		logging.Int("removed", len(removed)))
	return len(removed)
}

// SetTopologyStrategy replaces the active strategy at simTime. The
// old topology's links are closed and the new topology is planned
// and executed over the surviving population.
func (n *Network) SetTopologyStrategy(s TopologyStrategy, simTime int) {
	if s == nil {
		return
	}
	n.strategy = s
	n.rebuildTopology(simTime)
	n.log.Info(context.Background(), "topology changed",
		logging.String("kind", string(s.Kind())),
		logging.Int("mirrors", len(n.mirrors)))
}

// SetNumTargetedLinksPerMirror updates the per-mirror link goal. The
// n-connected and tree strategies re-plan their links to meet the
// new goal; the remaining topologies have a fixed shape and only
// record the target.
func (n *Network) SetNumTargetedLinksPerMirror(k, simTime int) {
	if k < 1 {
		k = 1
	}
	n.targetLinksPerMirror = k
	switch n.strategy.Kind() {
	case TopologyNConnected, TopologyTree:
		n.rebuildTopology(simTime)
	}
	n.log.Info(context.Background(), "target links per mirror set", logging.Int("target", k))
}

// PredictedBandwidth estimates the total bandwidth the network will
// carry at simTime: every implemented link whose activation is
// expected to have completed by then counts at the configured
// per-link ceiling. A missing ceiling yields 0 (the effect model
// fails fast on the property independently).
func (n *Network) PredictedBandwidth(simTime int) float64 {
	maxBW, err := n.props.Int(model.PropMaxBandwidth)
	if err != nil || maxBW <= 0 {
		return 0
	}
	carrying := 0
	for _, l := range n.links {
		if l.PredictedActiveBy(simTime) {
			carrying++
		}
	}
	return float64(carrying * maxBW)
}

// Tick advances mirrors and links with the simulation clock and
// prunes links that were closed.
func (n *Network) Tick(simTime int) {
	n.currentTick = simTime
	for _, m := range n.Mirrors() {
		m.Tick(simTime)
	}
	for _, l := range n.Links() {
		l.Tick(simTime)
		if l.State() == model.LinkClosed {
			delete(n.links, l.ID)
		}
	}
}

// provisionMirror creates a mirror plus its bound structure node and
// returns the node id.
func (n *Network) provisionMirror(simTime int) (int, error) {
	mirror, err := model.NewMirror(n.idgen.Next(), simTime, n.props, n.rng)
	if err != nil {
		return 0, err
	}
	n.mirrors[mirror.ID] = mirror

	node := n.graph.NewNode(n.idgen.Next(), 0)
	n.graph.BindMirror(node.ID, mirror.ID)
	n.nodeOfMirror[mirror.ID] = node.ID
	return node.ID, nil
}

// dropNode shuts down the node's mirror and removes both from the
// network.
func (n *Network) dropNode(nodeID, simTime int) {
	node := n.graph.Node(nodeID)
	if node == nil {
		return
	}
	if mirror := n.mirrors[node.MirrorID]; mirror != nil {
		for _, l := range mirror.Links() {
			if l.State() != model.LinkClosed {
				n.linksClosed++
			}
		}
		mirror.Shutdown(simTime)
		delete(n.mirrors, mirror.ID)
		delete(n.nodeOfMirror, mirror.ID)
	}
	n.graph.RemoveNode(nodeID)
	// Forget closed links that referenced the dropped mirror.
	for id, l := range n.links {
		if l.State() == model.LinkClosed {
			delete(n.links, id)
		}
	}
}

// rebuildTopology clears all structural memberships and links, then
// plans and executes the active strategy from scratch.
func (n *Network) rebuildTopology(simTime int) {
	for id, l := range n.links {
		if l.State() != model.LinkClosed {
			n.linksClosed++
		}
		l.Shutdown()
		if l.Source != nil {
			l.Source.RemoveLink(l)
		}
		if l.Target != nil {
			l.Target.RemoveLink(l)
		}
		delete(n.links, id)
	}

	// Rebuild the arena: fresh nodes, same mirrors.
	oldNodes := n.NodeIDs()
	for _, id := range oldNodes {
		n.graph.RemoveNode(id)
	}
	n.graph = NewGraph()
	mirrors := n.Mirrors()
	n.nodeOfMirror = make(map[int]int, len(mirrors))
	for _, m := range mirrors {
		node := n.graph.NewNode(n.idgen.Next(), 0)
		n.graph.BindMirror(node.ID, m.ID)
		n.nodeOfMirror[m.ID] = node.ID
	}
	n.headID = 0

	diff := n.strategy.BuildStructure(n)
	ExecuteDiff(n, diff, simTime)
}

// setHead records the structure head chosen by the active strategy.
func (n *Network) setHead(nodeID int) { n.headID = nodeID }

// createLink implements a planned link between two structure nodes.
// It refuses duplicates (an existing non-closed link between the
// same mirrors) and reports whether a link was created.
func (n *Network) createLink(aNode, bNode, simTime int) bool {
	a := n.MirrorForNode(aNode)
	b := n.MirrorForNode(bNode)
	if a == nil || b == nil || a == b {
		return false
	}
	if a.HasLinkTo(b) {
		return false
	}
	l, err := model.NewLink(n.idgen.Next(), a, b, simTime, n.props, n.rng)
	if err != nil {
		n.log.Error(context.Background(), "link creation failed", logging.Any("err", err))
		return false
	}
	n.links[l.ID] = l
	n.linksCreated++
	return true
}

// closeLink tears down an implemented link by id; unknown ids are a
// no-op.
func (n *Network) closeLink(id int) {
	l, ok := n.links[id]
	if !ok {
		return
	}
	if l.State() != model.LinkClosed {
		n.linksClosed++
	}
	l.Shutdown()
	if l.Source != nil {
		l.Source.RemoveLink(l)
	}
	if l.Target != nil {
		l.Target.RemoveLink(l)
	}
	delete(n.links, id)
}

// linkBetweenNodes returns the implemented, non-closed link joining
// the two nodes' mirrors, or nil.
func (n *Network) linkBetweenNodes(aNode, bNode int) *model.Link {
	a := n.MirrorForNode(aNode)
	b := n.MirrorForNode(bNode)
	if a == nil || b == nil {
		return nil
	}
	for _, l := range n.Links() {
		if l.State() != model.LinkClosed && l.Connects(a, b) {
			return l
		}
	}
	return nil
}
