package limiter

import "sync"

// Manual is a Limiter that holds the most recent task until the host
// flushes it. Hosts that align delivery with their own cadence, such as
// frame ticks or test steps, call Flush at the boundary.
type Manual struct {
	mu   sync.Mutex
	task func()
}

// NewManual creates an empty manual limiter.
func NewManual() *Manual {
	return &Manual{}
}

// Limit stores task, replacing any task stored earlier.
func (m *Manual) Limit(task func()) {
	if task == nil {
		return
	}
	m.mu.Lock()
	m.task = task
	m.mu.Unlock()
}

// Cancel discards the stored task.
func (m *Manual) Cancel() {
	m.mu.Lock()
	m.task = nil
	m.mu.Unlock()
}

// Flush runs the stored task on the caller's goroutine.
// It reports whether a task ran.
func (m *Manual) Flush() bool {
	m.mu.Lock()
	task := m.task
	m.task = nil
	m.mu.Unlock()

	if task == nil {
		return false
	}
	task()
	return true
}

// Pending reports whether a task is waiting to be flushed.
func (m *Manual) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.task != nil
}
