// Package board provides the data model for taskboard: tasks, their enums,
// and the resolved cross-references attached during a remote read.
package board

import (
	"fmt"
	"time"
)

// Status is the board column a task sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the known board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// UserSummary is the resolved view of a task's assignee.
type UserSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ProjectSummary is the resolved view of a task's owning project.
type ProjectSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Committee string `json:"committee,omitempty"`
}

// Task is the central entity. A task lives in exactly one of two remote
// partitions; which one is inferred per operation, never stored on the task.
type Task struct {
	ID string `json:"id"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`

	// DueAt is nil when the task has no due date.
	DueAt *time.Time `json:"due_at,omitempty"`

	// AssigneeID references a user profile. Assignee is filled in by the
	// remote reader; it stays nil when the profile lookup is skipped.
	AssigneeID string       `json:"assignee_id,omitempty"`
	Assignee   *UserSummary `json:"assignee,omitempty"`

	// ProjectID is empty for unscoped tasks. Committee is resolved from the
	// owning project during a remote read.
	ProjectID string `json:"project_id,omitempty"`
	Committee string `json:"committee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the task's required fields and enum values.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if t.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() Task {
	out := *t
	if t.DueAt != nil {
		due := *t.DueAt
		out.DueAt = &due
	}
	if t.Assignee != nil {
		a := *t.Assignee
		out.Assignee = &a
	}
	return out
}

// Update is a partial field update. Nil pointer fields are left untouched.
// The due date uses DueDate so that "clear the due date" and "leave the due
// date alone" stay distinguishable.
type Update struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	Due         DueDate   `json:"due,omitempty"`
}

// Validate checks the enum fields that are present in the update.
func (u *Update) Validate() error {
	if u.Title != nil && *u.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("invalid status %q", *u.Status)
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", *u.Priority)
	}
	return nil
}

// IsEmpty reports whether the update carries no changes at all.
func (u *Update) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.AssigneeID == nil && !u.Due.Present()
}

// Apply overlays the update onto a copy of task and returns the result.
// UpdatedAt is bumped to now.
func (u *Update) Apply(task Task, now time.Time) Task {
	out := task.Clone()
	if u.Title != nil {
		out.Title = *u.Title
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.Priority != nil {
		out.Priority = *u.Priority
	}
	if u.AssigneeID != nil {
		out.AssigneeID = *u.AssigneeID
		if out.Assignee != nil && out.Assignee.ID != *u.AssigneeID {
			out.Assignee = nil
		}
	}
	if u.Due.Present() {
		out.DueAt = u.Due.Value()
	}
	out.UpdatedAt = now
	return out
}
