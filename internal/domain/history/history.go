// Package history keeps a bounded, most-recent-first log of executed queries.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries a store keeps.
const DefaultCapacity = 10

// Status is the outcome of a recorded attempt.
type Status string

// Status constants.
const (
	Success Status = "success"
	Error   Status = "error"
)

// Entry is an immutable snapshot of a completed attempt.
type Entry struct {
	ID              string
	QueryText       string
	Timestamp       time.Time
	ExecutionTimeMs int64
	Status          Status
}

// NewEntry creates an entry with a fresh id. Negative durations are clamped to zero.
func NewEntry(query string, at time.Time, took time.Duration, status Status) Entry {
	ms := took.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return Entry{
		ID:              uuid.NewString(),
		QueryText:       query,
		Timestamp:       at,
		ExecutionTimeMs: ms,
		Status:          status,
	}
}

// Store is a fixed-capacity ring of entries. Eviction is by insertion age only.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	next    int // slot the next Record writes to
	size    int
}

// NewStore creates a store. capacity <= 0 uses DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{entries: make([]Entry, capacity)}
}

// Capacity returns the maximum number of retained entries.
func (s *Store) Capacity() int { return len(s.entries) }

// Record appends an entry, evicting the oldest once the store is full.
func (s *Store) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = e
	s.next = (s.next + 1) % len(s.entries)
	if s.size < len(s.entries) {
		s.size++
	}
}

// All returns the entries, most recent first.
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, s.size)
	for i := 1; i <= s.size; i++ {
		idx := (s.next - i + len(s.entries)) % len(s.entries)
		out = append(out, s.entries[idx])
	}
	return out
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}
