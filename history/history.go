package history

import (
	"fmt"
	"sort"
	"sync"
)

// Well-known series names recorded by the quality probes.
const (
	SeriesBandwidth   = "bandwidth"
	SeriesTimeToWrite = "ttw"
	SeriesActiveLinks = "active_links"
)

// Event is emitted to subscribers whenever a sample is recorded.
type Event struct {
	Series string
	Time   int
	Value  float64
}

// Store is an in-memory, thread-safe collection of time-indexed
// quality series. Each series maps a simulation tick to a relative
// quality value in percent. The effect model reads these series to
// compare a predicted post-reconfiguration quality against the
// currently observed one.
type Store struct {
	mu sync.RWMutex

	series map[string]map[int]float64
	subs   []func(Event)
}

// NewStore constructs an empty history store.
func NewStore() *Store {
	return &Store{
		series: make(map[string]map[int]float64),
	}
}

// Record stores a sample and notifies subscribers. Recording the same
// (series, tick) twice overwrites the earlier sample.
func (s *Store) Record(series string, simTime int, value float64) {
	s.mu.Lock()
	m, ok := s.series[series]
	if !ok {
		m = make(map[int]float64)
		s.series[series] = m
	}
	m[simTime] = value
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	event := Event{Series: series, Time: simTime, Value: value}
	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
}

// At returns the sample for a tick, if one was recorded.
func (s *Store) At(series string, simTime int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.series[series][simTime]
	return v, ok
}

// Latest returns the most recent sample of a series.
func (s *Store) Latest(series string) (simTime int, value float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.series[series]
	if len(m) == 0 {
		return 0, 0, false
	}
	first := true
	for t, v := range m {
		if first || t > simTime {
			simTime, value = t, v
			first = false
		}
	}
	return simTime, value, true
}

// Ticks returns the recorded ticks of a series in ascending order.
func (s *Store) Ticks(series string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.series[series]
	out := make([]int, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of samples in a series.
func (s *Store) Len(series string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[series])
}

// Snapshot returns a copy of one series, keyed by tick.
func (s *Store) Snapshot(series string) map[int]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]float64, len(s.series[series]))
	for t, v := range s.series[series] {
		out[t] = v
	}
	return out
}

// Subscribe registers a callback for recorded samples. It returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < 0 || idx >= len(s.subs) {
			return
		}
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
		idx = -1
	}
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%d=%.2f", e.Series, e.Time, e.Value)
}
