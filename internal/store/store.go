// Package store provides the remote store boundary for taskboard.
//
// The store holds tasks in two disjoint partitions backed by two tables:
// unscoped tasks (no owning project) and project-scoped tasks. A given task
// id exists in at most one partition at any time. The store also carries the
// user-profile and project lookups used to resolve a task's assignee and
// committee, and a push-style change-notification channel per partition.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/steveyegge/taskboard/internal/board"
)

// Partition identifies one of the two remote storage locations for tasks.
type Partition int

const (
	// PartitionUnscoped holds tasks with no owning project.
	PartitionUnscoped Partition = iota
	// PartitionProject holds tasks that belong to a project.
	PartitionProject
)

// String returns a human-readable partition name.
func (p Partition) String() string {
	switch p {
	case PartitionUnscoped:
		return "unscoped"
	case PartitionProject:
		return "project"
	default:
		return "unknown"
	}
}

// Partitions lists both partitions in probe order.
func Partitions() []Partition {
	return []Partition{PartitionUnscoped, PartitionProject}
}

// ErrNotFound is returned by writes that target a task id the partition
// does not hold.
var ErrNotFound = errors.New("task not found")

// ChangeKind is the kind of change a notification reports.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change is a change notification for a partition. The payload carries no
// guarantees beyond "something changed"; consumers re-read rather than trust
// the notification contents.
type Change struct {
	Partition Partition  `json:"partition"`
	Kind      ChangeKind `json:"kind"`
	TaskID    string     `json:"task_id,omitempty"`
	Time      time.Time  `json:"time"`
}

// RemoteStore is the remote collaborator the synchronization engine talks to.
//
// Implementations must be safe for concurrent use. Writes notify subscribers
// of the affected partition after they commit.
type RemoteStore interface {
	// ListTasks returns every task currently held by the partition.
	ListTasks(ctx context.Context, p Partition) ([]board.Task, error)

	// TaskExists reports whether the partition currently holds the id.
	TaskExists(ctx context.Context, p Partition, id string) (bool, error)

	// InsertTask creates the task in the partition and returns it with the
	// store-assigned id and timestamps filled in.
	InsertTask(ctx context.Context, p Partition, task board.Task) (board.Task, error)

	// UpdateTask applies a partial update to the task in the partition.
	// Returns ErrNotFound if the partition does not hold the id.
	UpdateTask(ctx context.Context, p Partition, id string, u board.Update) error

	// DeleteTask removes the task from the partition.
	// Returns ErrNotFound if the partition does not hold the id.
	DeleteTask(ctx context.Context, p Partition, id string) error

	// Users resolves user ids to profile summaries. Unknown ids are absent
	// from the result rather than an error.
	Users(ctx context.Context, ids []string) (map[string]board.UserSummary, error)

	// Projects resolves project ids to project summaries. Unknown ids are
	// absent from the result rather than an error.
	Projects(ctx context.Context, ids []string) (map[string]board.ProjectSummary, error)

	// Subscribe registers for change notifications on the partition.
	// The returned func unsubscribes and closes the channel.
	Subscribe(p Partition) (<-chan Change, func())
}
