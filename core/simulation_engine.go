package core

import (
	"context"
	"fmt"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/mirrornet-simulator/history"
	"github.com/signalsfoundry/mirrornet-simulator/internal/logging"
	"github.com/signalsfoundry/mirrornet-simulator/internal/observability"
	"github.com/signalsfoundry/mirrornet-simulator/model"
)

// SimulationEngine drives one scenario: each time step it applies
// the effector's due actions, advances the network's mirrors and
// links, and runs the probes. Step order is fixed so a given
// scenario and seed always replays the same trajectory.
type SimulationEngine struct {
	Network  *Network
	Effector *Effector

	log       logging.Logger
	collector *observability.SimCollector
	tracer    trace.Tracer
	probes    []Probe

	currentTick   int
	tickListeners []func(int)

	// Cumulative churn already reported to the collector.
	reportedLinksCreated int
	reportedLinksClosed  int
}

// EngineConfig carries the engine's collaborators. Network and
// Effector are required; the rest default when nil.
type EngineConfig struct {
	Network   *Network
	Effector  *Effector
	Logger    logging.Logger
	Collector *observability.SimCollector
	Probes    []Probe
}

// NewSimulationEngine wires an engine. When no probes are given the
// standard set is installed.
func NewSimulationEngine(cfg EngineConfig) (*SimulationEngine, error) {
	if cfg.Network == nil {
		return nil, fmt.Errorf("engine: network is required")
	}
	if cfg.Effector == nil {
		return nil, fmt.Errorf("engine: effector is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	probes := cfg.Probes
	if probes == nil {
		var err error
		probes, err = NewStandardProbes(cfg.Network, cfg.Collector)
		if err != nil {
			return nil, err
		}
	}
	return &SimulationEngine{
		Network:   cfg.Network,
		Effector:  cfg.Effector,
		log:       cfg.Logger,
		collector: cfg.Collector,
		tracer:    otel.Tracer("simulation-engine"),
		probes:    probes,
	}, nil
}

// RegisterTickListener adds a callback invoked at the end of every
// time step, after actions, network advance, and probes.
func (se *SimulationEngine) RegisterTickListener(fn func(int)) {
	se.tickListeners = append(se.tickListeners, fn)
}

// CurrentTick returns the last time step the engine completed.
func (se *SimulationEngine) CurrentTick() int { return se.currentTick }

// Step advances the simulation by one time step.
func (se *SimulationEngine) Step(simTime int) {
	ctx, span := se.tracer.Start(context.Background(), "sim.step",
		trace.WithAttributes(attribute.Int("sim.tick", simTime)))
	defer span.End()

	// Latency is a prediction against the pre-action state, so it is
	// sampled before the effector mutates the network.
	for _, kind := range []ActionKind{ActionTopologyChange, ActionMirrorChange, ActionTargetLinkChange} {
		if a := se.Effector.ActionAt(kind, simTime); a != nil {
			if latency, err := a.Effect(se.Network).Latency(); err == nil {
				se.collector.ObserveAdaptationLatency(latency)
			}
		}
	}

	applied := se.Effector.TimeStep(simTime)
	for _, a := range applied {
		se.collector.RecordAction(string(a.Kind))
	}

	se.Network.Tick(simTime)

	for _, p := range se.probes {
		p.Observe(simTime)
	}

	se.publishCounts()
	se.publishLinkChurn()
	se.currentTick = simTime

	for _, fn := range se.tickListeners {
		fn(simTime)
	}

	if len(applied) > 0 {
		se.log.Info(ctx, "time step applied actions",
			logging.Int("tick", simTime),
			logging.Int("actions", len(applied)),
			logging.Int("mirrors", se.Network.NumMirrors()),
			logging.Int("links", se.Network.NumLinks()),
		)
	}
}

// Run advances the simulation from time step 1 through ticks.
func (se *SimulationEngine) Run(ticks int) {
	for tick := 1; tick <= ticks; tick++ {
		se.Step(tick)
	}
}

func (se *SimulationEngine) publishCounts() {
	if se.collector == nil {
		return
	}
	ready := 0
	for _, m := range se.Network.Mirrors() {
		if m.IsReady() {
			ready++
		}
	}
	se.collector.SetNetworkCounts(
		se.Network.NumMirrors(), ready,
		se.Network.NumLinks(), se.Network.NumActiveLinks(),
	)
}

// publishLinkChurn feeds the delta since the last step into the churn
// counters. The first step reports the initial topology build.
func (se *SimulationEngine) publishLinkChurn() {
	created, closed := se.Network.LinkChurn()
	se.collector.RecordLinkChurn(created-se.reportedLinksCreated, closed-se.reportedLinksClosed)
	se.reportedLinksCreated, se.reportedLinksClosed = created, closed
}

// EngineFromScenario builds a network, effector, and engine from a
// validated scenario, scheduling its actions up front. The seed
// fixes the delay sampling so runs are reproducible.
func EngineFromScenario(sc *Scenario, log logging.Logger, collector *observability.SimCollector) (*SimulationEngine, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	log = logging.ForScenario(log, sc.Name, sc.Seed)

	idgen := NewIDGen()
	network, err := NewNetwork(NetworkConfig{
		IDGen:                idgen,
		Rand:                 rand.New(rand.NewSource(sc.Seed)),
		Props:                model.Props(sc.Props).Clone(),
		Logger:               log,
		Topology:             sc.Topology,
		Mirrors:              sc.Mirrors,
		TargetLinksPerMirror: sc.TargetLinksPerMirror,
	})
	if err != nil {
		return nil, err
	}

	effector, err := NewEffector(EffectorConfig{
		Network: network,
		IDGen:   idgen,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range sc.Actions {
		switch a.Kind {
		case ActionMirrorChange:
			_, err = effector.SetMirrors(a.At, a.Mirrors)
		case ActionTopologyChange:
			_, err = effector.SetTopology(a.At, a.Topology)
		case ActionTargetLinkChange:
			_, err = effector.SetTargetLinksPerMirror(a.At, a.LinksPerMirror)
		}
		if err != nil {
			return nil, err
		}
	}

	return NewSimulationEngine(EngineConfig{
		Network:   network,
		Effector:  effector,
		Logger:    log,
		Collector: collector,
	})
}

// Report summarizes a completed run for the JSON report file.
type Report struct {
	Scenario    string             `json:"scenario"`
	Seed        int64              `json:"seed"`
	Ticks       int                `json:"ticks"`
	Mirrors     int                `json:"mirrors"`
	Links       int                `json:"links"`
	ActiveLinks int                `json:"active_links"`
	Topology    TopologyKind       `json:"topology"`
	Valid       bool               `json:"topology_valid"`
	Series      map[string]float64 `json:"final_metrics"`
}

// BuildReport snapshots the run's final state.
func (se *SimulationEngine) BuildReport(sc *Scenario) Report {
	series := map[string]float64{}
	for _, name := range []string{history.SeriesBandwidth, history.SeriesTimeToWrite, history.SeriesActiveLinks} {
		if _, v, ok := se.Network.History().Latest(name); ok {
			series[name] = v
		}
	}
	return Report{
		Scenario:    sc.Name,
		Seed:        sc.Seed,
		Ticks:       se.currentTick,
		Mirrors:     se.Network.NumMirrors(),
		Links:       se.Network.NumLinks(),
		ActiveLinks: se.Network.NumActiveLinks(),
		Topology:    se.Network.TopologyStrategy().Kind(),
		Valid:       se.Network.TopologyStrategy().Validate(se.Network),
		Series:      series,
	}
}
