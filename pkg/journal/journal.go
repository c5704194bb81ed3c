package journal

import (
	"errors"
	"time"

	"github.com/rebind-dev/rebind/pkg/observe"
)

// Store errors.
var (
	// ErrClosed is returned when writing to a closed store.
	ErrClosed = errors.New("journal: store closed")
)

// Entry is one recorded coordinator event. Entries serialize to JSON,
// so stores can persist them as-is.
type Entry struct {
	// Effect is the ID of the coordinator that produced the event.
	Effect string `json:"effect"`

	// Event is the event type, e.g. "effect.fire".
	Event string `json:"event"`

	// Severity is the OTel severity text of the event level.
	Severity string `json:"severity"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// Data carries the event attributes. Values survive a JSON round
	// trip, so numbers read back as float64.
	Data map[string]any `json:"data,omitempty"`
}

// FromEvent converts an observability event into a journal entry.
func FromEvent(event observe.Event) Entry {
	return Entry{
		Effect:    event.Source,
		Event:     string(event.Type),
		Severity:  event.Level.String(),
		Timestamp: event.Timestamp,
		Data:      event.Data,
	}
}

// Store persists journal entries.
type Store interface {
	// Append records one entry.
	Append(e Entry) error

	// Tail returns the most recent n entries in chronological order.
	// n <= 0 returns every recorded entry.
	Tail(n int) ([]Entry, error)

	// Prune discards entries older than maxAge.
	Prune(maxAge time.Duration) error

	// Close stops the store. Append and Prune return ErrClosed
	// afterwards; Tail keeps serving what was already recorded.
	Close() error
}
