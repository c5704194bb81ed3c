// Package limiter provides the pluggable rate limiters that gate how
// often coordinated callbacks run.
//
// A limiter holds at most one pending task. Scheduling a new task while
// one is pending replaces it, so when the limiter eventually fires only
// the most recent task runs.
package limiter

// A Limiter gates execution of scheduled tasks.
type Limiter interface {
	// Limit schedules task to run once the limiter's policy allows.
	// It replaces any previously scheduled task that has not run yet.
	Limit(task func())

	// Cancel discards the pending task, if any. The limiter remains
	// usable afterwards.
	Cancel()
}

// Dispatcher hands a ready task to a host loop instead of running it on
// the limiter's own goroutine. Hosts with a serial event loop use this
// to keep callback execution single-threaded.
type Dispatcher func(task func())

// Immediate is a Limiter that runs each task synchronously as it is
// scheduled. Useful in tests and in hosts that do their own batching.
type Immediate struct{}

// Limit runs task at once.
func (Immediate) Limit(task func()) {
	if task != nil {
		task()
	}
}

// Cancel is a no-op; Immediate never holds a pending task.
func (Immediate) Cancel() {}
