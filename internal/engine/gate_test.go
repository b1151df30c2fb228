package engine

import (
	"errors"
	"testing"
	"time"
)

// manualGate returns a gate whose release timer is driven by hand: the
// returned fire func runs every pending release.
func manualGate(t *testing.T, grace time.Duration) (*Gate, func()) {
	t.Helper()

	g := NewGate(grace)
	var pending []func()
	g.SetAfterFunc(func(_ time.Duration, f func()) {
		pending = append(pending, f)
	})
	fire := func() {
		for _, f := range pending {
			f()
		}
		pending = nil
	}
	return g, fire
}

func TestGateSerializes(t *testing.T) {
	g, fire := manualGate(t, time.Second)

	if err := g.Do(func() error { return nil }); err != nil {
		t.Fatalf("first op failed: %v", err)
	}

	// Still inside the trailing grace delay.
	if err := g.Do(func() error { return nil }); !errors.Is(err, ErrBusy) {
		t.Errorf("second op error = %v, want ErrBusy", err)
	}
	if !g.Busy() {
		t.Error("gate should stay busy until the release fires")
	}

	fire()

	if g.Busy() {
		t.Error("gate should be free after the release fires")
	}
	if err := g.Do(func() error { return nil }); err != nil {
		t.Errorf("op after release failed: %v", err)
	}
}

func TestGateRejectsWhileOpRuns(t *testing.T) {
	g, _ := manualGate(t, 0)

	err := g.Do(func() error {
		// Re-entry during the operation itself is rejected.
		if inner := g.Do(func() error { return nil }); !errors.Is(inner, ErrBusy) {
			t.Errorf("nested op error = %v, want ErrBusy", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer op failed: %v", err)
	}
}

func TestGateReleasesAfterFailure(t *testing.T) {
	g, fire := manualGate(t, time.Second)

	opErr := errors.New("remote write failed")
	if err := g.Do(func() error { return opErr }); !errors.Is(err, opErr) {
		t.Fatalf("op error = %v, want %v", err, opErr)
	}

	// The failure still schedules a release; the gate cannot stay stuck.
	fire()
	if g.Busy() {
		t.Error("gate stuck busy after a failed operation")
	}
}

func TestGatePropagatesOpError(t *testing.T) {
	g := NewGate(time.Millisecond)

	opErr := errors.New("boom")
	if err := g.Do(func() error { return opErr }); !errors.Is(err, opErr) {
		t.Errorf("error = %v, want %v", err, opErr)
	}
}

func TestGateRealTimerReleases(t *testing.T) {
	g := NewGate(10 * time.Millisecond)

	if err := g.Do(func() error { return nil }); err != nil {
		t.Fatalf("op failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for g.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("gate never released")
		}
		time.Sleep(time.Millisecond)
	}
}
