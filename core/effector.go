package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/signalsfoundry/mirrornet-simulator/internal/logging"
)

// Effector schedules reconfigurations against a network and applies
// them as simulation time advances. It keeps one pending action per
// time step and kind; scheduling a second action for the same slot
// replaces the first. Within a time step the kinds apply in a fixed
// order: topology first, then mirror count, then the link target,
// so a step that changes all three converges on one coherent state.
type Effector struct {
	network *Network
	idgen   *IDGen
	log     logging.Logger

	topologyActions map[int]*Action
	mirrorActions   map[int]*Action
	linkActions     map[int]*Action
}

// EffectorConfig carries the effector's collaborators. Network is
// required; IDGen and Logger default when nil.
type EffectorConfig struct {
	Network *Network
	IDGen   *IDGen
	Logger  logging.Logger
}

// NewEffector wires an effector to a network.
func NewEffector(cfg EffectorConfig) (*Effector, error) {
	if cfg.Network == nil {
		return nil, fmt.Errorf("effector: network is required")
	}
	if cfg.IDGen == nil {
		cfg.IDGen = NewIDGen()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	return &Effector{
		network:         cfg.Network,
		idgen:           cfg.IDGen,
		log:             cfg.Logger,
		topologyActions: make(map[int]*Action),
		mirrorActions:   make(map[int]*Action),
		linkActions:     make(map[int]*Action),
	}, nil
}

// SetTopology schedules a topology change for the given time step.
// It returns the minted action, replacing any topology action
// already scheduled for that step.
func (e *Effector) SetTopology(simTime int, kind TopologyKind) (*Action, error) {
	if err := e.checkTime(simTime); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("effector: unknown topology kind %q", kind)
	}
	a := &Action{
		ID:          e.idgen.Next(),
		Time:        simTime,
		Kind:        ActionTopologyChange,
		NewTopology: kind,
	}
	e.schedule(e.topologyActions, a)
	return a, nil
}

// SetMirrors schedules a mirror-count change for the given time step.
func (e *Effector) SetMirrors(simTime, mirrors int) (*Action, error) {
	if err := e.checkTime(simTime); err != nil {
		return nil, err
	}
	if mirrors < 0 {
		return nil, fmt.Errorf("effector: mirror count %d is negative", mirrors)
	}
	a := &Action{
		ID:         e.idgen.Next(),
		Time:       simTime,
		Kind:       ActionMirrorChange,
		NewMirrors: mirrors,
	}
	e.schedule(e.mirrorActions, a)
	return a, nil
}

// SetTargetLinksPerMirror schedules a links-per-mirror change for
// the given time step.
func (e *Effector) SetTargetLinksPerMirror(simTime, links int) (*Action, error) {
	if err := e.checkTime(simTime); err != nil {
		return nil, err
	}
	if links < 1 {
		return nil, fmt.Errorf("effector: links per mirror %d must be at least 1", links)
	}
	a := &Action{
		ID:                e.idgen.Next(),
		Time:              simTime,
		Kind:              ActionTargetLinkChange,
		NewLinksPerMirror: links,
	}
	e.schedule(e.linkActions, a)
	return a, nil
}

func (e *Effector) checkTime(simTime int) error {
	if simTime < 0 {
		return fmt.Errorf("effector: time step %d is negative", simTime)
	}
	return nil
}

func (e *Effector) schedule(slot map[int]*Action, a *Action) {
	if old := slot[a.Time]; old != nil {
		e.log.Debug(context.Background(), "replacing scheduled action",
			logging.Int("time", a.Time),
			logging.String("kind", string(a.Kind)),
			logging.Int("old_id", old.ID),
			logging.Int("new_id", a.ID),
		)
	}
	slot[a.Time] = a
	e.log.Info(context.Background(), "action scheduled",
		logging.Int("id", a.ID),
		logging.Int("time", a.Time),
		logging.String("kind", string(a.Kind)),
	)
}

// RemoveAction unschedules the given action. It only removes the
// action if it is still the one occupying its slot: an action that
// was already replaced or executed stays gone and its slot is left
// alone. Reports whether anything was removed.
func (e *Effector) RemoveAction(a *Action) bool {
	if a == nil {
		return false
	}
	slot := e.slotFor(a.Kind)
	if slot == nil || slot[a.Time] != a {
		return false
	}
	delete(slot, a.Time)
	e.log.Info(context.Background(), "action removed",
		logging.Int("id", a.ID),
		logging.Int("time", a.Time),
		logging.String("kind", string(a.Kind)),
	)
	return true
}

func (e *Effector) slotFor(kind ActionKind) map[int]*Action {
	switch kind {
	case ActionTopologyChange:
		return e.topologyActions
	case ActionMirrorChange:
		return e.mirrorActions
	case ActionTargetLinkChange:
		return e.linkActions
	default:
		return nil
	}
}

// ActionAt returns the pending action of a kind at a time step, or
// nil when the slot is empty.
func (e *Effector) ActionAt(kind ActionKind, simTime int) *Action {
	slot := e.slotFor(kind)
	if slot == nil {
		return nil
	}
	return slot[simTime]
}

// PendingActions lists every scheduled action ordered by time step,
// with the per-step application order (topology, mirrors, links)
// preserved within a step.
func (e *Effector) PendingActions() []*Action {
	times := map[int]bool{}
	for t := range e.topologyActions {
		times[t] = true
	}
	for t := range e.mirrorActions {
		times[t] = true
	}
	for t := range e.linkActions {
		times[t] = true
	}
	sorted := make([]int, 0, len(times))
	for t := range times {
		sorted = append(sorted, t)
	}
	sort.Ints(sorted)

	var out []*Action
	for _, t := range sorted {
		if a := e.topologyActions[t]; a != nil {
			out = append(out, a)
		}
		if a := e.mirrorActions[t]; a != nil {
			out = append(out, a)
		}
		if a := e.linkActions[t]; a != nil {
			out = append(out, a)
		}
	}
	return out
}

// TimeStep applies the actions scheduled for this time step to the
// network, consuming them. Returns the actions applied, in order.
func (e *Effector) TimeStep(simTime int) []*Action {
	var applied []*Action
	for _, slot := range []map[int]*Action{e.topologyActions, e.mirrorActions, e.linkActions} {
		a, ok := slot[simTime]
		if !ok {
			continue
		}
		delete(slot, simTime)
		if err := a.apply(e.network, simTime); err != nil {
			e.log.Error(context.Background(), "action failed",
				logging.Int("id", a.ID),
				logging.Int("time", simTime),
				logging.String("kind", string(a.Kind)),
				logging.Any("error", err),
			)
			continue
		}
		e.log.Info(context.Background(), "action applied",
			logging.Int("id", a.ID),
			logging.Int("time", simTime),
			logging.String("kind", string(a.Kind)),
		)
		applied = append(applied, a)
	}
	return applied
}
