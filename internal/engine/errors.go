package engine

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a write-class operation is rejected because
// another one is still in flight. The operation is not queued or retried;
// the caller re-issues it.
var ErrBusy = errors.New("another operation is in flight")

// RemoteWriteError reports a failed remote create/update/move/delete.
// For move and update the local cache has already been rolled back when
// this error is returned.
type RemoteWriteError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote %s failed for task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// ReconcileError reports a failed reconciliation refresh. The previous
// cache contents are retained.
type ReconcileError struct {
	Err error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconciliation failed: %v", e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}
