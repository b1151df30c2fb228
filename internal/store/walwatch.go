package store

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchExternal watches the database file for writes made by other
// processes and publishes an update notification to both partitions when
// one lands. File-level events cannot tell which table changed, so the
// notification is a bare "something changed" signal in each partition;
// consumers re-read the store anyway.
//
// In-process writes also touch the WAL and surface here; the downstream
// listener coalesces the duplicates.
//
// Blocks until ctx is cancelled. Returns an error if the watch cannot be
// established or if the store is in-memory.
func (db *DB) WatchExternal(ctx context.Context, logger *log.Logger) error {
	if db.path == "" {
		return fmt.Errorf("cannot watch an in-memory store")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[store] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: the -wal file appears and disappears as
	// checkpoints run, so watching it directly would break.
	dir := filepath.Dir(db.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch store directory %s: %w", dir, err)
	}

	base := filepath.Base(db.path)
	walBase := base + "-wal"

	logger.Printf("Watching %s for external writes", db.path)

	// Coalesce bursts of file events into one notification.
	const quiet = 50 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if name != base && name != walBase {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(quiet)
				timerC = timer.C
			} else {
				timer.Reset(quiet)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			db.pub.publish(PartitionUnscoped, ChangeUpdate, "")
			db.pub.publish(PartitionProject, ChangeUpdate, "")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("Watcher error: %v", err)
		}
	}
}
