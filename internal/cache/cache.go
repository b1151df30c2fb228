// Package cache holds the in-memory, UI-facing snapshot of the merged task
// collection. It is the single source of truth for rendering and the only
// entity mutated optimistically.
package cache

import (
	"sync"
	"time"

	"github.com/steveyegge/taskboard/internal/board"
)

// Cache is the local task cache. It supports two mutation paths: ReplaceAll
// (reconciliation) and Transform (optimistic mutations). A replace-all is
// suppressed for a grace window after any transform so reconciliation never
// clobbers an optimistic change whose remote write has not settled yet.
type Cache struct {
	mu            sync.RWMutex
	tasks         map[string]board.Task
	lastTransform time.Time
	grace         time.Duration

	now func() time.Time
}

// New creates a Cache with the given grace window.
func New(grace time.Duration) *Cache {
	return &Cache{
		tasks: make(map[string]board.Task),
		grace: grace,
		now:   time.Now,
	}
}

// SetClock injects a clock, used by tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Snapshot returns a copy of the current collection. Order is unspecified.
func (c *Cache) Snapshot() []board.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]board.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t.Clone())
	}
	return out
}

// Get returns a copy of the task with the given id.
func (c *Cache) Get(id string) (board.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tasks[id]
	if !ok {
		return board.Task{}, false
	}
	return t.Clone(), true
}

// Len returns the number of cached tasks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// Transform applies a pure mutation to the collection and marks the start
// of a new grace window. The callback owns the map for the duration of the
// call and must not retain it.
func (c *Cache) Transform(fn func(tasks map[string]board.Task)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn(c.tasks)
	c.lastTransform = c.now()
}

// ReplaceAll swaps the whole collection for the given tasks. Returns false
// without replacing when a transform happened within the grace window, so a
// reconciliation refresh cannot regress a just-applied optimistic change.
func (c *Cache) ReplaceAll(tasks []board.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastTransform.IsZero() && c.now().Sub(c.lastTransform) < c.grace {
		return false
	}

	next := make(map[string]board.Task, len(tasks))
	for _, t := range tasks {
		next[t.ID] = t.Clone()
	}
	c.tasks = next
	return true
}
