package engine

import (
	"sync"
	"time"
)

// Gate serializes write-class operations: at most one may be in flight
// system-wide. A rejected operation gets ErrBusy immediately; nothing is
// queued. After an operation settles, success or failure, the gate stays
// busy for a trailing grace delay before the next operation may start, to
// absorb the latency of server-side confirmation.
type Gate struct {
	mu    sync.Mutex
	busy  bool
	grace time.Duration

	// afterFunc schedules the deferred release; injectable so tests can
	// drive the gate without real timers.
	afterFunc func(d time.Duration, f func())
}

// NewGate creates a Gate with the given trailing grace delay.
func NewGate(grace time.Duration) *Gate {
	return &Gate{
		grace:     grace,
		afterFunc: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// SetAfterFunc injects the release scheduler, used by tests.
func (g *Gate) SetAfterFunc(fn func(d time.Duration, f func())) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.afterFunc = fn
}

// Busy reports whether an operation is in flight or within its grace delay.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Do runs op under the gate. If the gate is busy the operation is rejected
// with ErrBusy. The deferred release is scheduled on every path out of op,
// so a failure can never leave the gate stuck busy.
func (g *Gate) Do(op func() error) error {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return ErrBusy
	}
	g.busy = true
	g.mu.Unlock()

	defer g.scheduleRelease()
	return op()
}

func (g *Gate) scheduleRelease() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.afterFunc(g.grace, func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	})
}
