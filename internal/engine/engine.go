// Package engine implements the task synchronization engine: optimistic
// mutations against the local cache, serialized remote writes, and
// reconciliation of the cache from the remote store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/steveyegge/taskboard/internal/board"
	"github.com/steveyegge/taskboard/internal/cache"
	"github.com/steveyegge/taskboard/internal/reader"
	"github.com/steveyegge/taskboard/internal/resolve"
	"github.com/steveyegge/taskboard/internal/store"
)

// DefaultTitle is used for ad-hoc card creation, where only the target
// column is known.
const DefaultTitle = "New task"

// EventKind classifies engine events emitted to the observer hook.
type EventKind string

const (
	// EventTaskChanged indicates a task was created, mutated, or deleted.
	EventTaskChanged EventKind = "task_changed"
	// EventRefreshed indicates a reconciliation refresh replaced the cache.
	EventRefreshed EventKind = "refreshed"
)

// Event is delivered to the Config.OnEvent hook.
type Event struct {
	Kind   EventKind
	TaskID string
}

// Config holds engine configuration.
type Config struct {
	// GraceWindow is both the gate's trailing release delay and the
	// cache's reconciliation-suppression window after a local transform.
	GraceWindow time.Duration

	// ReconcileDelay is how long after a confirmed write the follow-up
	// reconciliation refresh is scheduled.
	ReconcileDelay time.Duration

	// Logger for engine activity.
	Logger *log.Logger

	// Notify surfaces a short, non-blocking user-facing message for
	// failed operations. May be nil.
	Notify func(msg string)

	// OnEvent observes engine activity (dashboard broadcasting). May be nil.
	OnEvent func(Event)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		GraceWindow:    2 * time.Second,
		ReconcileDelay: 500 * time.Millisecond,
		Logger:         log.New(os.Stderr, "[engine] ", log.LstdFlags),
	}
}

// Engine coordinates the local task cache, the mutation gate, the partition
// resolver, and the reconciliation pipeline. It is the only component that
// mutates the cache.
type Engine struct {
	store    store.RemoteStore
	reader   *reader.Reader
	resolver *resolve.Resolver
	cache    *cache.Cache
	gate     *Gate
	config   *Config

	loading        atomic.Bool
	refreshPending atomic.Bool
	wg             sync.WaitGroup
}

// New creates an Engine over the given remote store.
func New(s store.RemoteStore, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}

	return &Engine{
		store:    s,
		reader:   reader.New(s, config.Logger),
		resolver: resolve.New(s, config.Logger),
		cache:    cache.New(config.GraceWindow),
		gate:     NewGate(config.GraceWindow),
		config:   config,
	}
}

// Gate exposes the mutation gate, used by tests to inject timers.
func (e *Engine) Gate() *Gate {
	return e.gate
}

// Tasks returns the current merged task collection.
func (e *Engine) Tasks() []board.Task {
	return e.cache.Snapshot()
}

// Task returns a single task from the local cache.
func (e *Engine) Task(id string) (board.Task, bool) {
	return e.cache.Get(id)
}

// Loading reports whether a reconciliation refresh is in progress.
func (e *Engine) Loading() bool {
	return e.loading.Load()
}

// Refresh runs the reconciliation pipeline synchronously: fetch and merge
// both partitions, then replace the cache. On failure the previous cache
// contents are retained and a ReconcileError is returned. A replace that
// lands inside an optimistic grace window is skipped, not an error.
func (e *Engine) Refresh(ctx context.Context) error {
	e.loading.Store(true)
	defer e.loading.Store(false)

	tasks, err := e.reader.Load(ctx)
	if err != nil {
		e.config.Logger.Printf("Refresh failed, keeping previous state: %v", err)
		return &ReconcileError{Err: err}
	}

	if !e.cache.ReplaceAll(tasks) {
		e.config.Logger.Printf("Refresh suppressed by grace window (%d tasks held back)", len(tasks))
		return nil
	}

	e.emit(Event{Kind: EventRefreshed})
	return nil
}

// RequestRefresh schedules a fire-and-forget reconciliation refresh after
// the given delay. If one is already pending the duplicate is dropped.
func (e *Engine) RequestRefresh(delay time.Duration) {
	if !e.refreshPending.CompareAndSwap(false, true) {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if delay > 0 {
			time.Sleep(delay)
		}
		e.refreshPending.Store(false)

		if err := e.Refresh(context.Background()); err != nil {
			e.config.Logger.Printf("Background refresh: %v", err)
		}
	}()
}

// Wait blocks until all pending background refreshes have settled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Create creates a task in the given column with the default title.
// Ad-hoc creation always targets the unscoped partition.
func (e *Engine) Create(ctx context.Context, status board.Status) (board.Task, error) {
	draft := board.Task{Title: DefaultTitle, Status: status}
	return e.CreateTask(ctx, draft)
}

// CreateTask creates a task from the given draft. The partition is chosen
// by the draft's project affiliation: unscoped unless a project id is set.
// The task appears in the local cache only after the remote store confirms
// and assigns the id; create cannot be meaningfully optimistic.
func (e *Engine) CreateTask(ctx context.Context, draft board.Task) (board.Task, error) {
	draft.SetDefaults()
	if !draft.Status.Valid() {
		return board.Task{}, fmt.Errorf("invalid status %q", draft.Status)
	}

	partition := store.PartitionUnscoped
	if draft.ProjectID != "" {
		partition = store.PartitionProject
	}

	var created board.Task
	err := e.gate.Do(func() error {
		var err error
		created, err = e.store.InsertTask(ctx, partition, draft)
		if err != nil {
			e.notifyUser(fmt.Sprintf("Could not create task: %v", err))
			return &RemoteWriteError{Op: "create", TaskID: draft.ID, Err: err}
		}

		e.resolver.Remember(created.ID, partition)
		e.cache.Transform(func(tasks map[string]board.Task) {
			tasks[created.ID] = created
		})
		e.emit(Event{Kind: EventTaskChanged, TaskID: created.ID})
		e.RequestRefresh(e.config.ReconcileDelay)
		return nil
	})
	if err != nil {
		return board.Task{}, err
	}
	return created, nil
}

// Move applies a new status to the task, optimistically in the local cache
// first, then against the task's resolved partition. On remote failure the
// cache is restored to the exact pre-move state.
func (e *Engine) Move(ctx context.Context, id string, status board.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return e.Update(ctx, id, board.Update{Status: &status})
}

// Update applies a partial field update with the optimistic
// apply-then-confirm-or-rollback pattern. Nil fields are left untouched;
// the due date distinguishes "clear" from "leave alone".
func (e *Engine) Update(ctx context.Context, id string, u board.Update) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.IsEmpty() {
		return nil
	}

	return e.gate.Do(func() error {
		prev, ok := e.cache.Get(id)
		if !ok {
			return fmt.Errorf("task %s: %w", id, store.ErrNotFound)
		}

		applied := u.Apply(prev, time.Now().UTC())
		e.cache.Transform(func(tasks map[string]board.Task) {
			tasks[id] = applied
		})

		partition := e.resolver.Resolve(ctx, id)
		if err := e.store.UpdateTask(ctx, partition, id, u); err != nil {
			e.cache.Transform(func(tasks map[string]board.Task) {
				tasks[id] = prev
			})
			e.notifyUser(fmt.Sprintf("Could not save task %q: %v", prev.Title, err))
			return &RemoteWriteError{Op: "update", TaskID: id, Err: err}
		}

		e.emit(Event{Kind: EventTaskChanged, TaskID: id})
		e.RequestRefresh(e.config.ReconcileDelay)
		return nil
	})
}

// Delete removes the task from its resolved partition. The task leaves the
// local cache only after the remote store confirms; a failed delete keeps
// the card visible. Deleting a task that is already gone remotely is a
// clean no-op.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.gate.Do(func() error {
		partition := e.resolver.Resolve(ctx, id)

		if err := e.store.DeleteTask(ctx, partition, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				e.config.Logger.Printf("Delete of %s: already gone remotely", id)
			} else {
				e.notifyUser(fmt.Sprintf("Could not delete task: %v", err))
				return &RemoteWriteError{Op: "delete", TaskID: id, Err: err}
			}
		}

		e.cache.Transform(func(tasks map[string]board.Task) {
			delete(tasks, id)
		})
		e.resolver.Forget(id)
		e.emit(Event{Kind: EventTaskChanged, TaskID: id})
		e.RequestRefresh(e.config.ReconcileDelay)
		return nil
	})
}

func (e *Engine) notifyUser(msg string) {
	if e.config.Notify != nil {
		e.config.Notify(msg)
	}
}

func (e *Engine) emit(ev Event) {
	if e.config.OnEvent != nil {
		e.config.OnEvent(ev)
	}
}
