package core

import (
	"math"

	"github.com/signalsfoundry/mirrornet-simulator/history"
	"github.com/signalsfoundry/mirrornet-simulator/model"
)

// Effect predicts how an action will move the network's relative
// metrics once it lands. All deltas are in percentage points of the
// fully-connected optimum; a metric the model cannot reason about
// for the predicted topology comes back as zero rather than a guess.
type Effect struct {
	network *Network
	action  *Action
}

// predictedState resolves the topology kind, mirror count and
// links-per-mirror target the network will have after the action.
func (e *Effect) predictedState() (TopologyKind, int, int) {
	kind := e.network.strategy.Kind()
	m := e.network.NumMirrors()
	k := e.network.NumTargetLinksPerMirror()
	switch e.action.Kind {
	case ActionTopologyChange:
		kind = e.action.NewTopology
	case ActionMirrorChange:
		m = e.action.NewMirrors
	case ActionTargetLinkChange:
		k = e.action.NewLinksPerMirror
	}
	return kind, m, k
}

// relativeLinkCount is a topology's closed-form link total as a
// percentage of the all-pairs maximum for the same population.
func relativeLinkCount(kind TopologyKind, m, k int) float64 {
	max := m * (m - 1) / 2
	if max <= 0 {
		return 0
	}
	return 100 * float64(closedFormLinkCount(kind, m, k)) / float64(max)
}

// DeltaActiveLinks predicts the change in the active-link ratio, in
// percentage points. An action that leaves the closed-form link
// budget where it is predicts zero.
func (e *Effect) DeltaActiveLinks() float64 {
	n := e.network
	current := relativeLinkCount(n.strategy.Kind(), n.NumMirrors(), n.NumTargetLinksPerMirror())
	kind, m, k := e.predictedState()
	return relativeLinkCount(kind, m, k) - current
}

// DeltaBandwidth predicts the change in relative bandwidth against
// the most recent measurement. The prediction horizon is the action's
// tick plus its adaptation latency, minus one: the last tick before
// the reconfiguration is fully live. It returns an error when the
// max_bandwidth property is missing or malformed, and zero when the
// predicted state has no link budget to normalize against.
func (e *Effect) DeltaBandwidth() (float64, error) {
	n := e.network
	maxBW, err := n.Props().Float(model.PropMaxBandwidth)
	if err != nil {
		return 0, err
	}
	target := n.strategy.PredictedTargetLinkCount(n, e.action)
	denom := float64(target) * maxBW
	if denom <= 0 {
		return 0, nil
	}
	latency, err := e.Latency()
	if err != nil {
		return 0, err
	}
	predicted := 100 * n.PredictedBandwidth(e.action.Time+latency-1) / denom

	current := 0.0
	if _, v, ok := n.History().Latest(history.SeriesBandwidth); ok {
		current = v
	}
	return predicted - current, nil
}

// DeltaTimeToWrite predicts the change in the relative time-to-write
// metric. The model only covers topologies with a known replication
// path length: a fully connected mesh writes every mirror in one
// hop, and a tree with at least two links per mirror writes in its
// depth. Other transitions predict zero.
func (e *Effect) DeltaTimeToWrite() float64 {
	n := e.network
	current := 0.0
	if _, v, ok := n.History().Latest(history.SeriesTimeToWrite); ok {
		current = v
	}

	kind, m, k := e.predictedState()
	predicted := relativeTimeToWrite(kind, m, k)
	if predicted == 0 {
		return 0
	}
	return predicted - current
}

// Latency predicts how many time steps pass before the action's
// reconfiguration is fully live. Growing the population pays the
// whole mirror lifecycle before links can activate; shrinking is
// immediate since closing is instantaneous; everything else only
// waits out link activation. Delay properties are required and the
// prediction fails fast when one is missing.
func (e *Effect) Latency() (int, error) {
	props := e.network.Props()
	startup, err := avgRange(props, model.PropStartupTimeMin, model.PropStartupTimeMax)
	if err != nil {
		return 0, err
	}
	ready, err := avgRange(props, model.PropReadyTimeMin, model.PropReadyTimeMax)
	if err != nil {
		return 0, err
	}
	activation, err := avgRange(props, model.PropLinkActivationTimeMin, model.PropLinkActivationTimeMax)
	if err != nil {
		return 0, err
	}

	var ticks float64
	switch {
	case e.action.Kind == ActionMirrorChange && e.action.NewMirrors > e.network.NumMirrors():
		ticks = startup + ready + activation
	case e.action.Kind == ActionMirrorChange && e.action.NewMirrors < e.network.NumMirrors():
		ticks = 0
	default:
		ticks = activation
	}

	out := int(math.Round(ticks))
	if out < 0 {
		out = 0
	}
	return out, nil
}

// avgRange is the midpoint of an integer delay range.
func avgRange(props model.Props, minKey, maxKey string) (float64, error) {
	lo, hi, err := props.IntRange(minKey, maxKey)
	if err != nil {
		return 0, err
	}
	return float64(lo+hi) / 2, nil
}
