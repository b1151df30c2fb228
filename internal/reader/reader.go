// Package reader fetches the full task set from both remote partitions and
// normalizes it into one partition-agnostic collection with resolved
// cross-references.
package reader

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/steveyegge/taskboard/internal/board"
	"github.com/steveyegge/taskboard/internal/store"
)

// Reader merges both partitions into one collection. Either the whole merge
// succeeds or an error is returned and the caller keeps its previous state;
// no partial result is ever exposed.
type Reader struct {
	store  store.RemoteStore
	logger *log.Logger
}

// New creates a Reader. If logger is nil, a default logger writing to
// stderr is used.
func New(s store.RemoteStore, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.New(os.Stderr, "[reader] ", log.LstdFlags)
	}
	return &Reader{store: s, logger: logger}
}

// Load fetches tasks from both partitions, resolves assignees against the
// user-profile lookup, resolves project-scoped tasks' committee via their
// owning project, and returns the union.
//
// The profile lookup is skipped entirely when no task has an assignee;
// tasks whose references cannot be resolved keep unresolved fields rather
// than failing the merge.
func (r *Reader) Load(ctx context.Context) ([]board.Task, error) {
	var merged []board.Task

	for _, p := range store.Partitions() {
		tasks, err := r.store.ListTasks(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s partition: %w", p, err)
		}
		merged = append(merged, tasks...)
	}

	if err := r.resolveAssignees(ctx, merged); err != nil {
		return nil, err
	}
	if err := r.resolveCommittees(ctx, merged); err != nil {
		return nil, err
	}

	return merged, nil
}

func (r *Reader) resolveAssignees(ctx context.Context, tasks []board.Task) error {
	ids := collect(tasks, func(t board.Task) string { return t.AssigneeID })
	if len(ids) == 0 {
		return nil
	}

	users, err := r.store.Users(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve assignees: %w", err)
	}

	for i := range tasks {
		if tasks[i].AssigneeID == "" {
			continue
		}
		if u, ok := users[tasks[i].AssigneeID]; ok {
			user := u
			tasks[i].Assignee = &user
		} else {
			r.logger.Printf("Warning: no profile for assignee %s", tasks[i].AssigneeID)
		}
	}
	return nil
}

func (r *Reader) resolveCommittees(ctx context.Context, tasks []board.Task) error {
	ids := collect(tasks, func(t board.Task) string { return t.ProjectID })
	if len(ids) == 0 {
		return nil
	}

	projects, err := r.store.Projects(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve projects: %w", err)
	}

	for i := range tasks {
		if tasks[i].ProjectID == "" {
			continue
		}
		if p, ok := projects[tasks[i].ProjectID]; ok {
			tasks[i].Committee = p.Committee
		} else {
			r.logger.Printf("Warning: no project record for %s", tasks[i].ProjectID)
		}
	}
	return nil
}

// collect gathers the distinct non-empty values of key across tasks.
func collect(tasks []board.Task, key func(board.Task) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tasks {
		k := key(t)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
