package model

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

// MirrorState tracks a mirror through its lifecycle. A freshly
// provisioned mirror spends a sampled number of ticks starting up,
// then another sampled number of ticks syncing before it is Ready.
// Only Ready mirrors can activate links.
type MirrorState int

const (
	MirrorStarting MirrorState = iota // provisioned, booting
	MirrorUp                          // booted, not yet synced
	MirrorReady                       // fully operational
	MirrorStopping                    // shutdown requested
	MirrorStopped                     // gone; links are closed
)

func (s MirrorState) String() string {
	switch s {
	case MirrorStarting:
		return "starting"
	case MirrorUp:
		return "up"
	case MirrorReady:
		return "ready"
	case MirrorStopping:
		return "stopping"
	case MirrorStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Mirror is a physical replica endpoint in the simulated network. It
// holds the links that were actually implemented on it; the planned
// topology lives in the structure graph, not here.
type Mirror struct {
	ID int `json:"ID"`

	mu    sync.RWMutex
	state MirrorState
	links map[int]*Link

	// Tick thresholds sampled once at construction so repeated Tick
	// calls are deterministic for a given seed.
	startupAt int
	readyAt   int
}

// NewMirror provisions a mirror at simTime. Startup and ready delays
// are sampled from the startup_time and ready_time property ranges;
// missing or malformed properties are reported immediately.
func NewMirror(id, simTime int, props Props, rng *rand.Rand) (*Mirror, error) {
	startupLo, startupHi, err := props.IntRange(PropStartupTimeMin, PropStartupTimeMax)
	if err != nil {
		return nil, fmt.Errorf("mirror %d: %w", id, err)
	}
	readyLo, readyHi, err := props.IntRange(PropReadyTimeMin, PropReadyTimeMax)
	if err != nil {
		return nil, fmt.Errorf("mirror %d: %w", id, err)
	}

	startupAt := simTime + sampleBetween(rng, startupLo, startupHi)
	return &Mirror{
		ID:        id,
		state:     MirrorStarting,
		links:     make(map[int]*Link),
		startupAt: startupAt,
		readyAt:   startupAt + sampleBetween(rng, readyLo, readyHi),
	}, nil
}

// State returns the current lifecycle state.
func (m *Mirror) State() MirrorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsReady reports whether the mirror can carry active links.
func (m *Mirror) IsReady() bool { return m.State() == MirrorReady }

// PredictedReadyAt returns the tick the mirror is expected to reach
// Ready, per its sampled thresholds. A stopping or stopped mirror
// never becomes ready again.
func (m *Mirror) PredictedReadyAt() (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.state {
	case MirrorStopping, MirrorStopped:
		return 0, false
	default:
		return m.readyAt, true
	}
}

// Tick advances the lifecycle with the simulation clock.
func (m *Mirror) Tick(simTime int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case MirrorStarting:
		if simTime >= m.startupAt {
			m.state = MirrorUp
		}
		// A very short ready window can skip the Up tick entirely.
		if m.state == MirrorUp && simTime >= m.readyAt {
			m.state = MirrorReady
		}
	case MirrorUp:
		if simTime >= m.readyAt {
			m.state = MirrorReady
		}
	case MirrorStopping:
		m.state = MirrorStopped
	}
}

// Shutdown closes every link on the mirror and marks it stopped.
// Mirrors shut down immediately; only startup has a modelled delay.
func (m *Mirror) Shutdown(simTime int) {
	m.mu.Lock()
	links := make([]*Link, 0, len(m.links))
	for _, l := range m.links {
		links = append(links, l)
	}
	m.state = MirrorStopped
	m.links = make(map[int]*Link)
	m.mu.Unlock()

	for _, l := range links {
		l.Shutdown()
		if other := l.OtherEnd(m); other != nil {
			other.RemoveLink(l)
		}
	}
}

// AddLink attaches a link. Adding nil or a duplicate is a no-op.
func (m *Mirror) AddLink(l *Link) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MirrorStopped {
		return
	}
	m.links[l.ID] = l
}

// RemoveLink detaches a link; unknown links are ignored.
func (m *Mirror) RemoveLink(l *Link) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, l.ID)
}

// Links returns the implemented links in ascending ID order, which
// keeps every traversal over them deterministic.
func (m *Mirror) Links() []*Link {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Link, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NumLinks returns the implemented link count.
func (m *Mirror) NumLinks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

// HasLinkTo reports whether an implemented, non-closed link to other
// exists.
func (m *Mirror) HasLinkTo(other *Mirror) bool {
	if other == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.links {
		if l.State() != LinkClosed && l.Connects(m, other) {
			return true
		}
	}
	return false
}

func sampleBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	if rng == nil {
		return (lo + hi) / 2
	}
	return lo + rng.Intn(hi-lo+1)
}
