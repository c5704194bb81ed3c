package journal

import (
	"log/slog"

	"github.com/rebind-dev/rebind/pkg/observe"
)

// Recorder is an observe.Observer that appends events to a Store.
// By default every event is recorded; WithEvents narrows the set.
//
// Append failures are logged and dropped. The recorder never blocks
// or fails the effect pipeline on storage trouble.
type Recorder struct {
	store  Store
	logger *slog.Logger
	only   map[observe.EventType]struct{}
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithEvents restricts recording to the given event types.
func WithEvents(types ...observe.EventType) RecorderOption {
	return func(r *Recorder) {
		r.only = make(map[observe.EventType]struct{}, len(types))
		for _, t := range types {
			r.only[t] = struct{}{}
		}
	}
}

// WithLogger sets the logger used to report append failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnEvent implements observe.Observer.
func (r *Recorder) OnEvent(event observe.Event) {
	if r.only != nil {
		if _, ok := r.only[event.Type]; !ok {
			return
		}
	}
	if err := r.store.Append(FromEvent(event)); err != nil {
		r.logger.Warn("journal append failed",
			"event", string(event.Type),
			"effect", event.Source,
			"error", err)
	}
}
