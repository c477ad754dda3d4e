package core

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/mirrornet-simulator/model"
)

// Scenario is a declarative simulation run: the initial network
// shape, the mirror and link delay properties, and the
// reconfigurations to schedule before the clock starts.
type Scenario struct {
	Name                 string            `yaml:"name"`
	Seed                 int64             `yaml:"seed"`
	Ticks                int               `yaml:"ticks"`
	Mirrors              int               `yaml:"mirrors"`
	Topology             TopologyKind      `yaml:"topology"`
	TargetLinksPerMirror int               `yaml:"target_links_per_mirror"`
	Props                map[string]string `yaml:"props"`
	Actions              []ScenarioAction  `yaml:"actions"`
}

// ScenarioAction is one pre-scheduled reconfiguration. The payload
// field matching Kind is the one that counts; the others are ignored.
type ScenarioAction struct {
	At             int          `yaml:"at"`
	Kind           ActionKind   `yaml:"kind"`
	Mirrors        int          `yaml:"mirrors,omitempty"`
	LinksPerMirror int          `yaml:"links_per_mirror,omitempty"`
	Topology       TopologyKind `yaml:"topology,omitempty"`
}

// LoadScenario reads a YAML scenario from r and validates it. A
// scenario that fails validation never reaches the network, so a
// bad config surfaces before any simulation state exists.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: decode failed: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenarioFile reads and validates a scenario from a YAML file.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

// Validate checks the scenario's structural constraints. All delay
// and bandwidth properties the simulation depends on must be present
// and well formed up front.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	if sc.Ticks < 1 {
		return fmt.Errorf("scenario %q: ticks %d must be at least 1", sc.Name, sc.Ticks)
	}
	if sc.Mirrors < 0 {
		return fmt.Errorf("scenario %q: mirror count %d is negative", sc.Name, sc.Mirrors)
	}
	if !sc.Topology.Valid() {
		return fmt.Errorf("scenario %q: unknown topology %q", sc.Name, sc.Topology)
	}
	if sc.TargetLinksPerMirror < 1 {
		return fmt.Errorf("scenario %q: target links per mirror %d must be at least 1", sc.Name, sc.TargetLinksPerMirror)
	}

	props := model.Props(sc.Props)
	ranges := [][2]string{
		{model.PropStartupTimeMin, model.PropStartupTimeMax},
		{model.PropReadyTimeMin, model.PropReadyTimeMax},
		{model.PropLinkActivationTimeMin, model.PropLinkActivationTimeMax},
	}
	for _, r := range ranges {
		if _, _, err := props.IntRange(r[0], r[1]); err != nil {
			return fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}
	if _, err := props.Float(model.PropMaxBandwidth); err != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	for i, a := range sc.Actions {
		if a.At < 0 {
			return fmt.Errorf("scenario %q: action %d: time step %d is negative", sc.Name, i, a.At)
		}
		switch a.Kind {
		case ActionMirrorChange:
			if a.Mirrors < 0 {
				return fmt.Errorf("scenario %q: action %d: mirror count %d is negative", sc.Name, i, a.Mirrors)
			}
		case ActionTopologyChange:
			if !a.Topology.Valid() {
				return fmt.Errorf("scenario %q: action %d: unknown topology %q", sc.Name, i, a.Topology)
			}
		case ActionTargetLinkChange:
			if a.LinksPerMirror < 1 {
				return fmt.Errorf("scenario %q: action %d: links per mirror %d must be at least 1", sc.Name, i, a.LinksPerMirror)
			}
		default:
			return fmt.Errorf("scenario %q: action %d: unknown kind %q", sc.Name, i, a.Kind)
		}
	}
	return nil
}
