package store

import (
	"sync"
	"time"
)

// publisher fans change notifications out to per-partition subscribers.
// Delivery is non-blocking: subscribers with full buffers miss the event,
// which is acceptable because consumers re-read the store on any signal.
type publisher struct {
	mu         sync.RWMutex
	subs       map[Partition][]chan Change
	bufferSize int
	closed     bool
}

func newPublisher() *publisher {
	return &publisher{
		subs:       make(map[Partition][]chan Change),
		bufferSize: 64,
	}
}

func (p *publisher) publish(part Partition, kind ChangeKind, taskID string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	change := Change{
		Partition: part,
		Kind:      kind,
		TaskID:    taskID,
		Time:      time.Now(),
	}

	for _, ch := range p.subs[part] {
		select {
		case ch <- change:
		default:
		}
	}
}

func (p *publisher) subscribe(part Partition) (<-chan Change, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		ch := make(chan Change)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Change, p.bufferSize)
	p.subs[part] = append(p.subs[part], ch)

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		subs := p.subs[part]
		for i, sub := range subs {
			if sub == ch {
				p.subs[part] = append(subs[:i], subs[i+1:]...)
				close(sub)
				return
			}
		}
	}
	return ch, cancel
}

func (p *publisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for part, subs := range p.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(p.subs, part)
	}
}
