package resolve

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/steveyegge/taskboard/internal/store"
)

// probeStore fakes just the existence probes and counts them.
type probeStore struct {
	store.RemoteStore

	unscoped map[string]bool
	project  map[string]bool
	probeErr error
	probes   int
}

func (s *probeStore) TaskExists(_ context.Context, p store.Partition, id string) (bool, error) {
	s.probes++
	if s.probeErr != nil {
		return false, s.probeErr
	}
	if p == store.PartitionUnscoped {
		return s.unscoped[id], nil
	}
	return s.project[id], nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestResolvePartitions(t *testing.T) {
	s := &probeStore{
		unscoped: map[string]bool{"u1": true},
		project:  map[string]bool{"p1": true},
	}
	r := NewWithTTL(s, quietLogger(), 0)

	tests := []struct {
		id   string
		want store.Partition
	}{
		{"u1", store.PartitionUnscoped},
		{"p1", store.PartitionProject},
	}

	for _, tt := range tests {
		if got := r.Resolve(context.Background(), tt.id); got != tt.want {
			t.Errorf("Resolve(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestResolveProbesUnscopedFirst(t *testing.T) {
	// The same id present in both partitions resolves to unscoped: the probe
	// order is fixed, so resolution stays deterministic.
	s := &probeStore{
		unscoped: map[string]bool{"both": true},
		project:  map[string]bool{"both": true},
	}
	r := NewWithTTL(s, quietLogger(), 0)

	if got := r.Resolve(context.Background(), "both"); got != store.PartitionUnscoped {
		t.Errorf("Resolve = %v, want unscoped", got)
	}
	if s.probes != 1 {
		t.Errorf("probes = %d, want 1 (should stop at the first hit)", s.probes)
	}
}

func TestResolveAmbiguousFallsBackToProject(t *testing.T) {
	s := &probeStore{unscoped: map[string]bool{}, project: map[string]bool{}}
	r := New(s, quietLogger())

	if got := r.Resolve(context.Background(), "ghost"); got != store.PartitionProject {
		t.Errorf("ambiguous Resolve = %v, want project fallback", got)
	}

	// Ambiguous results are not cached, so the next call probes again.
	before := s.probes
	r.Resolve(context.Background(), "ghost")
	if s.probes == before {
		t.Error("ambiguous result was cached")
	}
}

func TestResolveToleratesProbeErrors(t *testing.T) {
	s := &probeStore{probeErr: errors.New("connection reset")}
	r := New(s, quietLogger())

	// A failing probe is "not found there", so the call still resolves.
	if got := r.Resolve(context.Background(), "any"); got != store.PartitionProject {
		t.Errorf("Resolve under probe failure = %v, want project fallback", got)
	}
}

func TestResolveCaching(t *testing.T) {
	s := &probeStore{unscoped: map[string]bool{"u1": true}}
	r := New(s, quietLogger())

	r.Resolve(context.Background(), "u1")
	probed := s.probes

	if got := r.Resolve(context.Background(), "u1"); got != store.PartitionUnscoped {
		t.Errorf("cached Resolve = %v", got)
	}
	if s.probes != probed {
		t.Errorf("cached resolve probed the store (%d -> %d)", probed, s.probes)
	}
}

func TestResolveCacheExpiry(t *testing.T) {
	s := &probeStore{unscoped: map[string]bool{"u1": true}}
	r := NewWithTTL(s, quietLogger(), 20*time.Millisecond)

	r.Resolve(context.Background(), "u1")
	probed := s.probes

	time.Sleep(40 * time.Millisecond)

	r.Resolve(context.Background(), "u1")
	if s.probes == probed {
		t.Error("expired cache entry was still used")
	}
}

func TestRememberAndForget(t *testing.T) {
	s := &probeStore{}
	r := New(s, quietLogger())

	r.Remember("created", store.PartitionUnscoped)
	if got := r.Resolve(context.Background(), "created"); got != store.PartitionUnscoped {
		t.Errorf("remembered Resolve = %v", got)
	}
	if s.probes != 0 {
		t.Errorf("remembered id still probed the store %d times", s.probes)
	}

	r.Forget("created")
	r.Resolve(context.Background(), "created")
	if s.probes == 0 {
		t.Error("forgotten id was not re-probed")
	}
}

// Compile-time guard that the probe fake satisfies the interface it embeds.
var _ store.RemoteStore = (*probeStore)(nil)
