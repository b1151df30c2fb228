// Package export moves the board's task collection in and out of JSONL
// snapshot files, one record per line, covering both partitions.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/steveyegge/taskboard/internal/board"
	"github.com/steveyegge/taskboard/internal/store"
)

// Record is one line of a snapshot file. The partition is recorded
// explicitly because the task itself does not carry it.
type Record struct {
	Partition string     `json:"partition"`
	Task      board.Task `json:"task"`
}

// ImportOptions configures an import run.
type ImportOptions struct {
	Path   string // input JSONL file
	DryRun bool   // parse and validate without writing
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []string
}

// ExportResult summarizes an export run.
type ExportResult struct {
	Tasks map[store.Partition]int
}

// Total returns the number of exported tasks across partitions.
func (r *ExportResult) Total() int {
	n := 0
	for _, c := range r.Tasks {
		n += c
	}
	return n
}

// Export writes every task from both partitions to a JSONL file at path.
// The file is written atomically via a temp file in the same directory.
func Export(ctx context.Context, s store.RemoteStore, path string) (*ExportResult, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := path + ".tmp"
	// #nosec G304 - controlled path from CLI
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	result := &ExportResult{Tasks: make(map[store.Partition]int)}
	enc := json.NewEncoder(f)

	for _, p := range store.Partitions() {
		tasks, err := s.ListTasks(ctx, p)
		if err != nil {
			f.Close()
			_ = os.Remove(tmpPath)
			return nil, fmt.Errorf("failed to read %s partition: %w", p, err)
		}
		for _, task := range tasks {
			// Resolved lookups are rebuilt on import; only the raw
			// references belong in the snapshot.
			task.Assignee = nil
			if err := enc.Encode(Record{Partition: p.String(), Task: task}); err != nil {
				f.Close()
				_ = os.Remove(tmpPath)
				return nil, fmt.Errorf("failed to encode task %s: %w", task.ID, err)
			}
			result.Tasks[p]++
		}
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return result, nil
}

// Import reads a JSONL snapshot and inserts its tasks into their recorded
// partitions. Tasks whose id already exists are skipped, so re-importing a
// snapshot is idempotent. Per-record failures are collected, not fatal.
func Import(ctx context.Context, s store.RemoteStore, opts ImportOptions) (*ImportResult, error) {
	// #nosec G304 - controlled path from CLI
	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	result := &ImportResult{}
	dec := json.NewDecoder(f)
	line := 0

	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid record at line %d: %w", line+1, err)
		}
		line++

		partition, err := parsePartition(rec.Partition)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		rec.Task.SetDefaults()
		if err := rec.Task.Validate(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if rec.Task.ID != "" {
			exists, err := s.TaskExists(ctx, partition, rec.Task.ID)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: probe failed: %v", line, err))
				continue
			}
			if exists {
				result.Skipped++
				continue
			}
		}

		if !opts.DryRun {
			if _, err := s.InsertTask(ctx, partition, rec.Task); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
		}
		result.Imported++
	}

	return result, nil
}

func parsePartition(name string) (store.Partition, error) {
	for _, p := range store.Partitions() {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown partition %q", name)
}
