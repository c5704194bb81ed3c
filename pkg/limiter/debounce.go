package limiter

import (
	"sync"
	"time"
)

// DefaultWindow is the debounce window used when the host does not
// configure one.
const DefaultWindow = 150 * time.Millisecond

// Debounce is a trailing-edge debounce Limiter.
// Each Limit call restarts the window; the task runs only after the
// window elapses with no further calls.
type Debounce struct {
	window   time.Duration
	dispatch Dispatcher

	// mu protects the fields below.
	mu    sync.Mutex
	timer *time.Timer
	task  func()

	// gen invalidates in-flight timer fires when the window restarts
	// or the limiter is cancelled.
	gen uint64
}

// DebounceOption configures a Debounce limiter.
type DebounceOption func(*Debounce)

// WithDispatcher routes fired tasks through d instead of running them on
// the timer goroutine.
func WithDispatcher(d Dispatcher) DebounceOption {
	return func(db *Debounce) {
		db.dispatch = d
	}
}

// NewDebounce creates a debounce limiter with the given window.
// A non-positive window falls back to DefaultWindow.
func NewDebounce(window time.Duration, opts ...DebounceOption) *Debounce {
	if window <= 0 {
		window = DefaultWindow
	}
	d := &Debounce{window: window}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Limit schedules task after the window, replacing any pending task and
// restarting the window.
func (d *Debounce) Limit(task func()) {
	if task == nil {
		return
	}

	d.mu.Lock()
	d.task = task
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.fire(gen)
	})
	d.mu.Unlock()
}

// Cancel discards the pending task and stops the timer.
func (d *Debounce) Cancel() {
	d.mu.Lock()
	d.gen++
	d.task = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

// Pending reports whether a task is waiting for the window to elapse.
func (d *Debounce) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.task != nil
}

// fire runs the pending task if this timer generation is still current.
// Stale fires from stopped timers see a newer gen and return.
func (d *Debounce) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.task == nil {
		d.mu.Unlock()
		return
	}
	task := d.task
	d.task = nil
	d.timer = nil
	d.mu.Unlock()

	if d.dispatch != nil {
		d.dispatch(task)
		return
	}
	task()
}
