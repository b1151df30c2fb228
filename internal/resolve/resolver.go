// Package resolve determines which storage partition holds a task.
//
// Partition membership is not stored on the task, so it has to be discovered
// before any update or delete. The resolver probes the unscoped partition
// first by existence check; if the id is absent it assumes the
// project-scoped partition. A short-TTL cache avoids a remote round-trip on
// every operation.
package resolve

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/steveyegge/taskboard/internal/store"
)

// DefaultTTL is how long a resolved partition stays cached.
const DefaultTTL = 30 * time.Second

type entry struct {
	partition store.Partition
	at        time.Time
}

// Resolver maps task ids to the partition that currently holds them.
// Safe for concurrent use; performs no mutation.
type Resolver struct {
	store  store.RemoteStore
	logger *log.Logger
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]entry
}

// New creates a Resolver with the default cache TTL.
// If logger is nil, a default logger writing to stderr is used.
func New(s store.RemoteStore, logger *log.Logger) *Resolver {
	return NewWithTTL(s, logger, DefaultTTL)
}

// NewWithTTL creates a Resolver with a custom cache TTL.
// A zero or negative TTL disables the cache.
func NewWithTTL(s store.RemoteStore, logger *log.Logger, ttl time.Duration) *Resolver {
	if logger == nil {
		logger = log.New(os.Stderr, "[resolve] ", log.LstdFlags)
	}
	return &Resolver{
		store:  s,
		logger: logger,
		ttl:    ttl,
		cache:  make(map[string]entry),
	}
}

// Resolve returns the partition that currently holds id.
//
// The unscoped partition is probed first; if the probe fails transiently it
// is treated as "not found there", not as fatal. When neither partition
// confirms ownership the resolution is ambiguous: it is logged and the
// project partition is returned as a best guess so the caller can attempt
// the operation and handle not-found from the write itself. Ambiguous
// results are not cached.
func (r *Resolver) Resolve(ctx context.Context, id string) store.Partition {
	if p, ok := r.cached(id); ok {
		return p
	}

	exists, err := r.store.TaskExists(ctx, store.PartitionUnscoped, id)
	if err != nil {
		r.logger.Printf("Warning: unscoped probe for %s failed: %v", id, err)
	}
	if exists {
		r.remember(id, store.PartitionUnscoped)
		return store.PartitionUnscoped
	}

	exists, err = r.store.TaskExists(ctx, store.PartitionProject, id)
	if err != nil {
		r.logger.Printf("Warning: project probe for %s failed: %v", id, err)
	}
	if exists {
		r.remember(id, store.PartitionProject)
		return store.PartitionProject
	}

	r.logger.Printf("Warning: partition for %s is ambiguous, assuming %s", id, store.PartitionProject)
	return store.PartitionProject
}

// Remember records a known id→partition mapping, used after a create where
// the partition is known without probing.
func (r *Resolver) Remember(id string, p store.Partition) {
	r.remember(id, p)
}

// Forget drops the cached partition for id. Call after a delete.
func (r *Resolver) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, id)
}

// ForgetAll clears the cache.
func (r *Resolver) ForgetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]entry)
}

func (r *Resolver) cached(id string) (store.Partition, bool) {
	if r.ttl <= 0 {
		return 0, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cache[id]
	if !ok {
		return 0, false
	}
	if time.Since(e.at) > r.ttl {
		delete(r.cache, id)
		return 0, false
	}
	return e.partition, true
}

func (r *Resolver) remember(id string, p store.Partition) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[id] = entry{partition: p, at: time.Now()}
}
