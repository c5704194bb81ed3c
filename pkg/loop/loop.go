// Package loop provides a serial task loop.
// Hosts that promise the single-threaded execution model run one Loop
// and route limiter dispatch, binding writes, and commits through it.
package loop

import (
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// DefaultQueueSize is the dispatch queue capacity used when the host
// does not configure one.
const DefaultQueueSize = 256

// Loop runs dispatched tasks one at a time on a single goroutine.
type Loop struct {
	logger *slog.Logger

	tasks chan func()
	done  chan struct{}

	closed atomic.Bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for queue overflow and panic reports.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan func(), n)
		}
	}
}

// New creates a Loop. The caller must run it, typically with go l.Run().
func New(opts ...Option) *Loop {
	l := &Loop{
		logger: slog.Default(),
		tasks:  make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes dispatched tasks until Close is called.
// On close it drains tasks already queued, then returns.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.tasks:
			l.safeRun(fn)
		case <-l.done:
			for {
				select {
				case fn := <-l.tasks:
					l.safeRun(fn)
				default:
					return
				}
			}
		}
	}
}

// Dispatch queues fn to run on the loop goroutine.
// Tasks dispatched after Close, or while the queue is full, are
// discarded.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil || l.closed.Load() {
		return
	}
	select {
	case l.tasks <- fn:
	case <-l.done:
		// Loop is closing, discard
	default:
		l.logger.Warn("dispatch queue full, discarding task")
	}
}

// Close stops the loop. Idempotent.
func (l *Loop) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.done)
}

// IsClosed reports whether Close has been called.
func (l *Loop) IsClosed() bool {
	return l.closed.Load()
}

// Done returns a channel closed when the loop begins shutting down.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// safeRun executes fn with panic recovery so one bad task cannot kill
// the loop.
func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
