package journal

import (
	"sync"
	"time"
)

// DefaultCapacity bounds a MemoryStore when no capacity is given.
const DefaultCapacity = 1024

// MemoryStore keeps the most recent entries in a bounded ring.
// When the ring is full, appending evicts the oldest entry.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	closed   bool
}

// NewMemoryStore creates a MemoryStore holding at most capacity
// entries. capacity <= 0 means DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Append records one entry, evicting the oldest when full.
func (s *MemoryStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.entries = append(s.entries, e)
	if len(s.entries) > s.capacity {
		// Shift in place so the backing array stays bounded.
		n := copy(s.entries, s.entries[len(s.entries)-s.capacity:])
		s.entries = s.entries[:n]
	}
	return nil
}

// Tail returns the most recent n entries, oldest first. n <= 0
// returns everything.
func (s *MemoryStore) Tail(n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && n < len(s.entries) {
		start = len(s.entries) - n
	}
	out := make([]Entry, len(s.entries)-start)
	copy(out, s.entries[start:])
	return out, nil
}

// Prune discards entries older than maxAge.
func (s *MemoryStore) Prune(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

// Close stops the store. Recorded entries stay readable via Tail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
