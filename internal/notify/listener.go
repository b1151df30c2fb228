// Package notify subscribes to remote change notifications for both task
// partitions and turns bursts of events into single, debounced refreshes of
// the synchronization engine.
package notify

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/steveyegge/taskboard/internal/store"
)

// DefaultDebounce is how long the listener waits after the last
// notification before triggering a refresh.
const DefaultDebounce = 250 * time.Millisecond

// Listener bridges the store's change subscriptions to a refresh callback.
// Notifications from any source, including this process's own confirmed
// writes, coalesce into one refresh per quiet period.
type Listener struct {
	store    store.RemoteStore
	refresh  func()
	debounce time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	unsubs  []func()
}

// New creates a Listener that calls refresh after change notifications
// settle. If logger is nil, a default logger writing to stderr is used.
// A zero debounce gets DefaultDebounce.
func New(s store.RemoteStore, refresh func(), debounce time.Duration, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Listener{
		store:    s,
		refresh:  refresh,
		debounce: debounce,
		logger:   logger,
	}
}

// Start subscribes to both partitions and begins processing notifications.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	var channels []<-chan store.Change
	for _, p := range store.Partitions() {
		ch, unsub := l.store.Subscribe(p)
		channels = append(channels, ch)
		l.unsubs = append(l.unsubs, unsub)
	}

	l.running = true
	l.wg.Add(1)
	go l.run(ctx, channels)

	return nil
}

// Stop unsubscribes from both partitions and waits for the event loop to
// exit. Safe to call more than once.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel := l.cancel
	unsubs := l.unsubs
	l.unsubs = nil
	l.mu.Unlock()

	cancel()
	for _, unsub := range unsubs {
		unsub()
	}
	l.wg.Wait()
}

// run drains both subscription channels, debouncing into single refreshes.
func (l *Listener) run(ctx context.Context, channels []<-chan store.Change) {
	defer l.wg.Done()

	merged := make(chan store.Change, 64)
	var forward sync.WaitGroup
	for _, ch := range channels {
		forward.Add(1)
		go func(ch <-chan store.Change) {
			defer forward.Done()
			for c := range ch {
				select {
				case merged <- c:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	go func() {
		forward.Wait()
		close(merged)
	}()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case change, ok := <-merged:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			l.logger.Printf("Change notification: %s %s %s", change.Partition, change.Kind, change.TaskID)
			if timer == nil {
				timer = time.NewTimer(l.debounce)
				timerC = timer.C
			} else {
				timer.Reset(l.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			l.refresh()
		}
	}
}
