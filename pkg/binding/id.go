package binding

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// NewUID returns a fresh globally unique identifier string.
// Version 7 UUIDs are time-ordered, which keeps binding and change
// identifiers readable when they end up in logs and journals.
func NewUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// regIDCounter is the source of listener registration IDs.
// Atomic operations keep registration thread-safe without locks.
var regIDCounter uint64

// nextRegID returns the next listener registration ID.
// IDs are monotonically increasing and never reused.
func nextRegID() uint64 {
	return atomic.AddUint64(&regIDCounter, 1)
}
