package core

import "sync"

// IDGen hands out process-unique, monotonically increasing integer
// ids for actions, links and structure nodes. It is an explicit
// instance threaded through constructors rather than a package-level
// singleton, so tests can run in parallel with fresh, deterministic
// id sequences.
type IDGen struct {
	mu   sync.Mutex
	next int
}

// NewIDGen returns a generator starting at 1. Zero is reserved as
// the "no id" value throughout the core.
func NewIDGen() *IDGen {
	return &IDGen{next: 1}
}

// Next returns the next unused id.
func (g *IDGen) Next() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}
