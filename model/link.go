package model

import (
	"fmt"
	"math/rand"
	"sync"
)

// LinkState is the control-plane state of a link between two mirrors.
type LinkState int

const (
	LinkInactive LinkState = iota // created, endpoints not yet ready
	LinkActive                    // carrying traffic
	LinkClosed                    // torn down, never reused
)

func (s LinkState) String() string {
	switch s {
	case LinkInactive:
		return "inactive"
	case LinkActive:
		return "active"
	case LinkClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Link connects two mirrors. Equality is by identity: two links with
// the same endpoints are still distinct links. A link only becomes
// Active once both endpoints are Ready and the sampled activation
// delay has elapsed.
type Link struct {
	ID        int `json:"ID"`
	CreatedAt int `json:"CreatedAt"`

	Source *Mirror `json:"-"`
	Target *Mirror `json:"-"`

	Props Props `json:"Props,omitempty"`

	mu            sync.RWMutex
	state         LinkState
	activateAfter int // ticks after both ends are ready
	readySince    int // first tick both ends were ready, -1 until then
}

// NewLink creates a link between source and target and registers it
// on both mirrors. The activation delay is sampled from the
// link_activation_time property range.
func NewLink(id int, source, target *Mirror, simTime int, props Props, rng *rand.Rand) (*Link, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("link %d: missing endpoint", id)
	}
	lo, hi, err := props.IntRange(PropLinkActivationTimeMin, PropLinkActivationTimeMax)
	if err != nil {
		return nil, fmt.Errorf("link %d: %w", id, err)
	}

	l := &Link{
		ID:            id,
		CreatedAt:     simTime,
		Source:        source,
		Target:        target,
		Props:         Props{},
		state:         LinkInactive,
		activateAfter: sampleBetween(rng, lo, hi),
		readySince:    -1,
	}
	source.AddLink(l)
	target.AddLink(l)
	return l, nil
}

// State returns the current link state.
func (l *Link) State() LinkState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsActive reports whether the link currently carries traffic.
func (l *Link) IsActive() bool { return l.State() == LinkActive }

// Tick advances the activation state machine.
func (l *Link) Tick(simTime int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != LinkInactive {
		return
	}
	if !l.Source.IsReady() || !l.Target.IsReady() {
		l.readySince = -1
		return
	}
	if l.readySince < 0 {
		l.readySince = simTime
	}
	if simTime >= l.readySince+l.activateAfter {
		l.state = LinkActive
	}
}

// PredictedActiveBy reports whether the link is expected to carry
// traffic by simTime: it already does, or both endpoints reach Ready
// and the sampled activation delay elapses in time.
func (l *Link) PredictedActiveBy(simTime int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch l.state {
	case LinkActive:
		return true
	case LinkClosed:
		return false
	}

	base := l.readySince
	if base < 0 {
		srcAt, srcOK := l.Source.PredictedReadyAt()
		dstAt, dstOK := l.Target.PredictedReadyAt()
		if !srcOK || !dstOK {
			return false
		}
		base = srcAt
		if dstAt > base {
			base = dstAt
		}
	}
	return simTime >= base+l.activateAfter
}

// Shutdown closes the link. Closed links stay closed.
func (l *Link) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = LinkClosed
}

// Connects reports whether the link joins exactly the two given
// mirrors, in either direction.
func (l *Link) Connects(a, b *Mirror) bool {
	return (l.Source == a && l.Target == b) || (l.Source == b && l.Target == a)
}

// HasEndpoint reports whether m is one of the link's endpoints.
func (l *Link) HasEndpoint(m *Mirror) bool {
	return l.Source == m || l.Target == m
}

// OtherEnd returns the opposite endpoint, or nil if m is not an
// endpoint of the link.
func (l *Link) OtherEnd(m *Mirror) *Mirror {
	switch m {
	case l.Source:
		return l.Target
	case l.Target:
		return l.Source
	default:
		return nil
	}
}
