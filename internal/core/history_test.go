package core

import "testing"

func TestHistoryRingAppendAndSnapshot(t *testing.T) {
	h := newHistoryRing(3)

	if h.Len() != 0 {
		t.Fatalf("expected empty ring, got %d", h.Len())
	}

	h.Append(Message{Text: "one"})
	h.Append(Message{Text: "two"})

	snap := h.Snapshot()
	if len(snap) != 2 || snap[0].Text != "one" || snap[1].Text != "two" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestHistoryRingEvictsOldest(t *testing.T) {
	h := newHistoryRing(3)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		h.Append(Message{Text: text})
	}

	snap := h.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 retained, got %d", len(snap))
	}
	for i, want := range []string{"three", "four", "five"} {
		if snap[i].Text != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, snap[i].Text)
		}
	}
}

func TestHistoryRingSnapshotIsCopy(t *testing.T) {
	h := newHistoryRing(2)
	h.Append(Message{Text: "one"})

	snap := h.Snapshot()
	snap[0].Text = "mutated"

	if h.Snapshot()[0].Text != "one" {
		t.Fatal("snapshot aliased internal buffer")
	}
}

func TestHistoryRingMinimumCapacity(t *testing.T) {
	h := newHistoryRing(0)
	h.Append(Message{Text: "one"})
	h.Append(Message{Text: "two"})

	snap := h.Snapshot()
	if len(snap) != 1 || snap[0].Text != "two" {
		t.Fatalf("expected single newest entry, got %+v", snap)
	}
}
