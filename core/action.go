package core

import "fmt"

// ActionKind names the reconfiguration an Action performs when its
// time step comes up.
type ActionKind string

const (
	ActionMirrorChange     ActionKind = "mirror_change"
	ActionTopologyChange   ActionKind = "topology_change"
	ActionTargetLinkChange ActionKind = "target_link_change"
)

// Valid reports whether the kind names a known action type.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionMirrorChange, ActionTopologyChange, ActionTargetLinkChange:
		return true
	default:
		return false
	}
}

// Action is a scheduled reconfiguration of the network. Actions are
// immutable once minted: rescheduling mints a replacement rather
// than mutating in place, so an Action handed out to a caller keeps
// describing what was scheduled at the time.
type Action struct {
	ID   int
	Time int
	Kind ActionKind

	// Exactly one of these carries the action's payload, selected
	// by Kind.
	NewMirrors        int
	NewLinksPerMirror int
	NewTopology       TopologyKind
}

// Effect builds the prediction model for this action against the
// network's current state. The model is evaluated lazily: each
// metric method computes against the state at call time, so
// predictions stay current as the simulation advances.
func (a *Action) Effect(n *Network) *Effect {
	return &Effect{network: n, action: a}
}

// apply performs the reconfiguration on the network.
func (a *Action) apply(n *Network, simTime int) error {
	switch a.Kind {
	case ActionMirrorChange:
		n.SetNumMirrors(a.NewMirrors, simTime)
	case ActionTopologyChange:
		s, err := StrategyFor(a.NewTopology)
		if err != nil {
			return err
		}
		n.SetTopologyStrategy(s, simTime)
	case ActionTargetLinkChange:
		n.SetNumTargetedLinksPerMirror(a.NewLinksPerMirror, simTime)
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

func (a *Action) String() string {
	switch a.Kind {
	case ActionMirrorChange:
		return fmt.Sprintf("action %d @%d: mirrors -> %d", a.ID, a.Time, a.NewMirrors)
	case ActionTopologyChange:
		return fmt.Sprintf("action %d @%d: topology -> %s", a.ID, a.Time, a.NewTopology)
	case ActionTargetLinkChange:
		return fmt.Sprintf("action %d @%d: links/mirror -> %d", a.ID, a.Time, a.NewLinksPerMirror)
	default:
		return fmt.Sprintf("action %d @%d: %s", a.ID, a.Time, a.Kind)
	}
}
