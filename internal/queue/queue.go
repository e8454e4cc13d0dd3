package queue

import (
	"sync"
	"time"
)

// Entry is one waiting client. Identity is the connection, not a persistent
// player id; the entry lives only until it is paired or the connection goes
// away.
type Entry struct {
	ConnID      string
	DisplayName string
	EnqueuedAt  time.Time
}

// Queue is the ordered waiting list for matchmaking: FIFO by arrival time,
// ties broken by insertion order. All operations are atomic with respect to
// each other.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Queue {
	return &Queue{}
}

// Enqueue - appends the entry to the tail. A repeated enqueue for a
// connection already waiting refreshes its display name but keeps its place
// in line.
func (that *Queue) Enqueue(entry Entry) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now()
	}

	for i := range that.entries {
		if that.entries[i].ConnID == entry.ConnID {
			that.entries[i].DisplayName = entry.DisplayName
			return
		}
	}

	that.entries = append(that.entries, entry)
}

// DequeueOldest - atomically removes and returns up to n of the oldest
// entries, in arrival order. Returns fewer if the queue holds fewer.
func (that *Queue) DequeueOldest(n int) []Entry {
	that.mu.Lock()
	defer that.mu.Unlock()

	if n > len(that.entries) {
		n = len(that.entries)
	}
	if n <= 0 {
		return nil
	}

	dequeued := make([]Entry, n)
	copy(dequeued, that.entries[:n])
	that.entries = append(that.entries[:0], that.entries[n:]...)

	return dequeued
}

// Remove - extracts the entry for the given connection; a no-op if absent.
func (that *Queue) Remove(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i := range that.entries {
		if that.entries[i].ConnID == connID {
			that.entries = append(that.entries[:i], that.entries[i+1:]...)
			return
		}
	}
}

// Requeue - reinserts an entry that was dequeued but could not be paired,
// keeping the list ordered by original arrival time.
func (that *Queue) Requeue(entry Entry) {
	that.mu.Lock()
	defer that.mu.Unlock()

	pos := len(that.entries)
	for i := range that.entries {
		if that.entries[i].EnqueuedAt.After(entry.EnqueuedAt) {
			pos = i
			break
		}
	}

	that.entries = append(that.entries, Entry{})
	copy(that.entries[pos+1:], that.entries[pos:])
	that.entries[pos] = entry
}

func (that *Queue) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.entries)
}
