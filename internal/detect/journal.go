package detect

import (
	"log/slog"
	"sync"
	"time"
)

// Entry records one observed state transition.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state"`
	Notified  bool      `json:"notified"`
}

// Journal is a bounded in-memory transition history with an event feed for
// the status server. Discarded on process exit; nothing persists across runs.
type Journal struct {
	mu       sync.RWMutex
	entries  []Entry
	maxSize  int
	eventsCh chan Entry
}

// NewJournal creates a journal keeping at most maxEntries transitions.
func NewJournal(maxEntries, eventBuffer int) *Journal {
	return &Journal{
		entries:  make([]Entry, 0, maxEntries),
		maxSize:  maxEntries,
		eventsCh: make(chan Entry, eventBuffer),
	}
}

// Add stores a transition and emits it to the event feed without blocking.
func (j *Journal) Add(e Entry) {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	if len(j.entries) > j.maxSize {
		j.entries = j.entries[len(j.entries)-j.maxSize:]
	}
	j.mu.Unlock()

	select {
	case j.eventsCh <- e:
	default:
		slog.Debug("journal event channel full, dropping event", "state", e.State)
	}
}

// Recent returns transitions from the last N seconds, oldest first.
func (j *Journal) Recent(seconds int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(seconds) * time.Second)
	var out []Entry
	for _, e := range j.entries {
		if e.Timestamp.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of stored transitions.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Events returns the transition event feed.
func (j *Journal) Events() <-chan Entry {
	return j.eventsCh
}
