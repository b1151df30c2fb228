package cache

import (
	"testing"
	"time"

	"github.com/steveyegge/taskboard/internal/board"
)

func TestReplaceAllAndSnapshot(t *testing.T) {
	c := New(0)

	if !c.ReplaceAll([]board.Task{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}) {
		t.Fatal("initial replace should succeed")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	task, ok := c.Get("a")
	if !ok || task.Title != "A" {
		t.Errorf("Get(a) = %+v, %v", task, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report absence")
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	c := New(0)
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	c.ReplaceAll([]board.Task{{ID: "a", Title: "A", DueAt: &due}})

	snap := c.Snapshot()
	snap[0].Title = "mutated"
	*snap[0].DueAt = time.Time{}

	task, _ := c.Get("a")
	if task.Title != "A" {
		t.Error("mutating a snapshot changed the cache")
	}
	if task.DueAt == nil || !task.DueAt.Equal(due) {
		t.Error("mutating a snapshot's due date changed the cache")
	}
}

func TestTransform(t *testing.T) {
	c := New(0)
	c.ReplaceAll([]board.Task{{ID: "a", Status: board.StatusTodo}})

	c.Transform(func(tasks map[string]board.Task) {
		task := tasks["a"]
		task.Status = board.StatusDone
		tasks["a"] = task
		tasks["b"] = board.Task{ID: "b", Status: board.StatusTodo}
	})

	if task, _ := c.Get("a"); task.Status != board.StatusDone {
		t.Errorf("transformed status = %q", task.Status)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestReplaceAllSuppressedDuringGrace(t *testing.T) {
	c := New(2 * time.Second)

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	now := base
	c.SetClock(func() time.Time { return now })

	c.ReplaceAll([]board.Task{{ID: "a", Status: board.StatusTodo}})
	c.Transform(func(tasks map[string]board.Task) {
		task := tasks["a"]
		task.Status = board.StatusDone
		tasks["a"] = task
	})

	// Inside the grace window the stale reconciliation is refused.
	now = base.Add(time.Second)
	if c.ReplaceAll([]board.Task{{ID: "a", Status: board.StatusTodo}}) {
		t.Fatal("replace inside the grace window should be suppressed")
	}
	if task, _ := c.Get("a"); task.Status != board.StatusDone {
		t.Errorf("optimistic change regressed to %q", task.Status)
	}

	// After the window it goes through.
	now = base.Add(3 * time.Second)
	if !c.ReplaceAll([]board.Task{{ID: "a", Status: board.StatusTodo}}) {
		t.Fatal("replace after the grace window should succeed")
	}
	if task, _ := c.Get("a"); task.Status != board.StatusTodo {
		t.Errorf("settled replace not applied, status = %q", task.Status)
	}
}

func TestReplaceAllBeforeAnyTransform(t *testing.T) {
	// A fresh cache with a wide grace window still accepts its first load.
	c := New(time.Hour)

	if !c.ReplaceAll([]board.Task{{ID: "a"}}) {
		t.Error("first replace should never be suppressed")
	}
}

func TestTransformRestartsGraceWindow(t *testing.T) {
	c := New(2 * time.Second)

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	now := base
	c.SetClock(func() time.Time { return now })

	c.Transform(func(map[string]board.Task) {})

	now = base.Add(1500 * time.Millisecond)
	c.Transform(func(map[string]board.Task) {})

	// Three seconds after the first transform: still inside the window
	// restarted by the second.
	now = base.Add(3 * time.Second)
	if c.ReplaceAll(nil) {
		t.Error("second transform should have restarted the grace window")
	}
}
