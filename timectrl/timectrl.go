package timectrl

import (
	"sync"
	"time"
)

// SimClock is an interface for reading simulation time. Components
// that react to the clock (effector, probes, metrics) depend on this
// abstraction rather than on the concrete controller, which keeps
// them testable with a fake clock.
type SimClock interface {
	// Now returns the current simulation tick.
	Now() int
}

// Mode describes how the TimeController paces tick advancement.
type Mode int

const (
	// RealTime advances one tick per TickInterval of wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run.
	Accelerated
)

// TimeController drives the discrete simulation clock and notifies
// registered listeners on every tick. It implements SimClock.
//
// The simulation itself is single-threaded: listeners run on the
// controller's loop goroutine, one tick at a time, in registration
// order. That ordering is part of the determinism contract.
type TimeController struct {
	mu           sync.RWMutex
	StartTick    int
	TickInterval time.Duration
	Mode         Mode

	current   int
	listeners []func(int)
}

// NewTimeController constructs a controller starting at startTick.
func NewTimeController(startTick int, interval time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTick:    startTick,
		TickInterval: interval,
		Mode:         mode,
		current:      startTick,
	}
}

// Now returns the current simulation tick. Implements SimClock.
func (tc *TimeController) Now() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.current
}

// SetTick forces the clock to a specific tick without notifying
// listeners. Intended for tests and scenario restarts.
func (tc *TimeController) SetTick(tick int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.current = tick
}

// AddListener registers a callback invoked on every tick. Listeners
// must be registered before Run is called.
func (tc *TimeController) AddListener(fn func(int)) {
	tc.listeners = append(tc.listeners, fn)
}

// Run advances the clock for the given number of ticks in a separate
// goroutine. It returns a channel that is closed when the controller
// finishes.
func (tc *TimeController) Run(ticks int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var ticker *time.Ticker
		if tc.Mode == RealTime && tc.TickInterval > 0 {
			ticker = time.NewTicker(tc.TickInterval)
			defer ticker.Stop()
		}

		for i := 0; i < ticks; i++ {
			if ticker != nil {
				<-ticker.C
			}

			tc.mu.Lock()
			tc.current++
			tick := tc.current
			tc.mu.Unlock()

			for _, fn := range tc.listeners {
				fn(tick)
			}
		}
	}()
	return done
}
