package realtime

import (
	"time"

	"dispatch/internal/core/domain/model/route"
)

const (
	eventWindowCapacity  = 10
	eventWindowRetention = 2 * time.Hour
)

// eventWindow is a bounded sliding window of route events for one batch.
// It keeps at most eventWindowCapacity entries and forgets entries older
// than eventWindowRetention. Not safe for concurrent use; the coordinator
// serializes access.
type eventWindow struct {
	entries []route.Event
}

func newEventWindow() *eventWindow {
	return &eventWindow{entries: make([]route.Event, 0, eventWindowCapacity)}
}

// Append records an event, evicting the oldest entry once the window is full.
func (w *eventWindow) Append(ev route.Event, now time.Time) {
	w.prune(now)
	if len(w.entries) == eventWindowCapacity {
		copy(w.entries, w.entries[1:])
		w.entries = w.entries[:eventWindowCapacity-1]
	}
	w.entries = append(w.entries, ev)
}

// Snapshot returns a copy of the currently retained events, oldest first.
func (w *eventWindow) Snapshot(now time.Time) []route.Event {
	w.prune(now)
	out := make([]route.Event, len(w.entries))
	copy(out, w.entries)
	return out
}

func (w *eventWindow) prune(now time.Time) {
	cutoff := now.Add(-eventWindowRetention)
	kept := w.entries[:0]
	for _, ev := range w.entries {
		if ev.Timestamp.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	w.entries = kept
}
