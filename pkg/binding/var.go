package binding

import (
	"reflect"
	"sync"
)

// Var is an observable value container implementing Binding.
// Writes that do not change the value (per the configured equality
// function) do not advance the change UID and do not notify listeners.
type Var[T any] struct {
	uid       string
	listeners Listeners

	// value is the current value.
	value T

	// changeUID identifies the current value generation.
	changeUID string

	// mu protects value and changeUID.
	mu sync.RWMutex

	// equal decides whether a write changed the value.
	// If nil, defaultEquals is used.
	equal func(T, T) bool
}

// NewVar creates a new observable variable with the given initial value.
func NewVar[T any](initial T) *Var[T] {
	return &Var[T]{
		uid:       NewUID(),
		value:     initial,
		changeUID: NewUID(),
	}
}

// UID returns the stable identity of this variable.
func (v *Var[T]) UID() string {
	return v.uid
}

// ChangeUID returns the identity of the current value generation.
func (v *Var[T]) ChangeUID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.changeUID
}

// Get returns the current value.
func (v *Var[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Value returns the current value as an untyped interface.
// It exists to satisfy Binding; typed callers should prefer Get.
func (v *Var[T]) Value() any {
	return v.Get()
}

// Set updates the value and notifies listeners if it changed.
func (v *Var[T]) Set(value T) {
	v.mu.Lock()
	changed := !v.equals(v.value, value)
	if changed {
		v.value = value
		v.changeUID = NewUID()
	}
	v.mu.Unlock()

	if changed {
		v.listeners.Notify()
	}
}

// Update atomically reads and updates the value.
// The function receives the current value and returns the new one.
func (v *Var[T]) Update(fn func(T) T) {
	v.mu.Lock()
	next := fn(v.value)
	changed := !v.equals(v.value, next)
	if changed {
		v.value = next
		v.changeUID = NewUID()
	}
	v.mu.Unlock()

	if changed {
		v.listeners.Notify()
	}
}

// Touch advances the change UID and notifies listeners without modifying
// the value. Sources that re-deliver an identical payload use this to
// surface the delivery as a change.
func (v *Var[T]) Touch() {
	v.mu.Lock()
	v.changeUID = NewUID()
	v.mu.Unlock()

	v.listeners.Notify()
}

// AddChangeListener registers fn to run after each value change and
// returns its remover.
func (v *Var[T]) AddChangeListener(fn func()) Remover {
	return v.listeners.Add(fn)
}

// WithEquals returns the variable configured with a custom equality
// function. Useful for types where reflect.DeepEqual is too expensive or
// has the wrong semantics.
func (v *Var[T]) WithEquals(fn func(T, T) bool) *Var[T] {
	v.equal = fn
	return v
}

// equals checks two values using the configured equality function.
func (v *Var[T]) equals(a, b T) bool {
	if v.equal != nil {
		return v.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality checking.
// Comparable dynamic types use ==; everything else falls back to
// reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == bv
	}
	at, bt := reflect.TypeOf(av), reflect.TypeOf(bv)
	if at == bt && at.Comparable() {
		return av == bv
	}
	return reflect.DeepEqual(a, b)
}
