package reminder

import (
	"testing"
	"time"
)

func TestRegistryPutGetTake(t *testing.T) {
	r := NewRegistry()
	h := &Handle{appointmentID: "a1"}

	r.Put("a1", h)
	r.Put("a2", nil)

	if r.Get("a1") != h {
		t.Fatal("Get returned a different handle")
	}
	if r.Get("a2") != nil || r.Len() != 1 {
		t.Fatal("nil handles must not be registered")
	}

	if got := r.Take("a1"); got != h {
		t.Fatal("Take returned a different handle")
	}
	if r.Get("a1") != nil || r.Take("a1") != nil {
		t.Fatal("Take must remove the entry")
	}

	r.Put("a3", &Handle{appointmentID: "a3"})
	r.Remove("a3")
	r.Remove("unknown")
	if r.Len() != 0 {
		t.Fatalf("Len = %d after removals", r.Len())
	}
}

func TestRegistryReleaseOnlyRemovesSameHandle(t *testing.T) {
	r := NewRegistry()
	old := &Handle{appointmentID: "a1"}
	replacement := &Handle{appointmentID: "a1"}

	r.Put("a1", replacement)
	r.Release(old)
	if r.Get("a1") != replacement {
		t.Fatal("releasing a stale handle evicted its replacement")
	}

	r.Release(replacement)
	if r.Get("a1") != nil {
		t.Fatal("release of the registered handle should remove it")
	}
	r.Release(nil)
}

func TestRegistrySnapshotOrder(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry()
	r.Put("late", &Handle{appointmentID: "late", fireAt: base.Add(2 * time.Hour)})
	r.Put("early", &Handle{appointmentID: "early", fireAt: base})

	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].AppointmentID() != "early" || snap[1].AppointmentID() != "late" {
		t.Fatalf("unexpected snapshot order")
	}
}
