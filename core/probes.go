package core

import (
	"math"

	"github.com/signalsfoundry/mirrornet-simulator/history"
	"github.com/signalsfoundry/mirrornet-simulator/internal/observability"
	"github.com/signalsfoundry/mirrornet-simulator/model"
)

// Probe samples one metric of the network each time step and records
// it into the history store, optionally mirroring the sample to a
// Prometheus gauge.
type Probe interface {
	Name() string
	Observe(simTime int)
}

// NewStandardProbes builds the three metric probes every scenario
// runs with. The collector may be nil when metrics are not served.
func NewStandardProbes(n *Network, collector *observability.SimCollector) ([]Probe, error) {
	bw, err := NewBandwidthProbe(n, collector)
	if err != nil {
		return nil, err
	}
	return []Probe{
		NewActiveLinksProbe(n, collector),
		bw,
		NewTimeToWriteProbe(n, collector),
	}, nil
}

// activeLinksProbe records active links as a percentage of the
// topology's closed-form target.
type activeLinksProbe struct {
	network   *Network
	collector *observability.SimCollector
}

func NewActiveLinksProbe(n *Network, collector *observability.SimCollector) Probe {
	return &activeLinksProbe{network: n, collector: collector}
}

func (p *activeLinksProbe) Name() string { return history.SeriesActiveLinks }

func (p *activeLinksProbe) Observe(simTime int) {
	n := p.network
	ratio := 0.0
	if target := n.strategy.TargetLinkCount(n); target > 0 {
		ratio = 100 * float64(n.NumActiveLinks()) / float64(target)
	}
	n.History().Record(history.SeriesActiveLinks, simTime, ratio)
	if p.collector != nil {
		p.collector.ActiveLinkRatio.Set(ratio)
	}
}

// bandwidthProbe records aggregate bandwidth over active links as a
// percentage of the bandwidth the topology would carry fully built.
// The max_bandwidth property is required; construction fails fast
// when it is missing or malformed.
type bandwidthProbe struct {
	network   *Network
	collector *observability.SimCollector
	maxBW     float64
}

func NewBandwidthProbe(n *Network, collector *observability.SimCollector) (Probe, error) {
	maxBW, err := n.Props().Float(model.PropMaxBandwidth)
	if err != nil {
		return nil, err
	}
	return &bandwidthProbe{network: n, collector: collector, maxBW: maxBW}, nil
}

func (p *bandwidthProbe) Name() string { return history.SeriesBandwidth }

func (p *bandwidthProbe) Observe(simTime int) {
	n := p.network
	rel := 0.0
	target := n.strategy.TargetLinkCount(n)
	if denom := float64(target) * p.maxBW; denom > 0 {
		measured := float64(n.NumActiveLinks()) * p.maxBW
		rel = 100 * measured / denom
	}
	n.History().Record(history.SeriesBandwidth, simTime, rel)
	if p.collector != nil {
		p.collector.RelativeBandwidth.Set(rel)
	}
}

// timeToWriteProbe records the relative time-to-write metric: how
// fast a write at the head reaches every mirror, as a percentage of
// the one-hop optimum. The model covers the fully connected mesh
// (one hop) and trees with branching (depth hops); topologies
// without a modeled replication path record zero. The base value is
// scaled by the fraction of target links that are active, since
// replication only flows over active links.
type timeToWriteProbe struct {
	network   *Network
	collector *observability.SimCollector
}

func NewTimeToWriteProbe(n *Network, collector *observability.SimCollector) Probe {
	return &timeToWriteProbe{network: n, collector: collector}
}

func (p *timeToWriteProbe) Name() string { return history.SeriesTimeToWrite }

func (p *timeToWriteProbe) Observe(simTime int) {
	n := p.network
	value := relativeTimeToWrite(n.strategy.Kind(), n.NumMirrors(), n.NumTargetLinksPerMirror())
	if target := n.strategy.TargetLinkCount(n); target > 0 {
		value *= float64(n.NumActiveLinks()) / float64(target)
	} else {
		value = 0
	}
	n.History().Record(history.SeriesTimeToWrite, simTime, value)
	if p.collector != nil {
		p.collector.RelativeTTW.Set(value)
	}
}

// relativeTimeToWrite is the closed-form time-to-write percentage
// for a fully built topology.
func relativeTimeToWrite(kind TopologyKind, m, k int) float64 {
	switch kind {
	case TopologyFullyConnected:
		return 100
	case TopologyTree:
		if k < 2 || m < 2 {
			return 0
		}
		depth := int(math.Round(math.Log(float64(m+1)/2) / math.Log(float64(k))))
		if depth < 1 {
			depth = 1
		}
		return 100 / float64(depth)
	default:
		return 0
	}
}
