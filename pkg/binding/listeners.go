package binding

import "sync"

// registration pairs a change listener with its removal ID.
type registration struct {
	id uint64
	fn func()
}

// Listeners is a reusable change-listener set for Binding
// implementations. The zero value is ready to use. Var uses it
// internally; custom bindings embed one and call Notify after their own
// change bookkeeping.
type Listeners struct {
	mu   sync.RWMutex
	regs []registration
}

// Add registers fn and returns its remover. A nil fn yields a no-op
// remover.
func (l *Listeners) Add(fn func()) Remover {
	if fn == nil {
		return func() {}
	}

	id := nextRegID()

	l.mu.Lock()
	l.regs = append(l.regs, registration{id: id, fn: fn})
	l.mu.Unlock()

	return func() {
		l.remove(id)
	}
}

// remove drops the registration with the given ID.
// Removing an already-removed registration is a no-op, which makes the
// removers returned by Add idempotent.
func (l *Listeners) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, reg := range l.regs {
		if reg.id == id {
			// Remove by swapping with last element (order doesn't matter)
			l.regs[i] = l.regs[len(l.regs)-1]
			l.regs = l.regs[:len(l.regs)-1]
			return
		}
	}
}

// Notify invokes all registered listeners.
// Uses copy-before-notify to avoid holding locks during callbacks, so a
// listener may remove itself (or register others) while being notified.
func (l *Listeners) Notify() {
	l.mu.RLock()
	regs := make([]registration, len(l.regs))
	copy(regs, l.regs)
	l.mu.RUnlock()

	for _, reg := range regs {
		reg.fn()
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.regs)
}
