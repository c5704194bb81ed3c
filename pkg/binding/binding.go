// Package binding defines the observable value contract that the rest of
// the module coordinates over, plus Var, the standard in-memory
// implementation.
package binding

// Binding is an observable value source.
// Implementations must be safe for concurrent use.
type Binding interface {
	// UID returns the stable identity of this binding.
	// It never changes over the binding's lifetime.
	UID() string

	// ChangeUID returns the identity of the binding's current value
	// generation. It changes every time the value changes and only then.
	ChangeUID() string

	// AddChangeListener registers fn to be called after each value change.
	// The returned remover drops the registration; calling it more than
	// once is a no-op.
	AddChangeListener(fn func()) Remover

	// Value returns the current value.
	Value() any
}

// Remover removes a listener registration.
type Remover func()
