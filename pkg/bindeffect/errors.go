package bindeffect

import "errors"

// ErrNilCallback is the panic value when a coordinator is created
// without a callback. A coordinator that can never fire is always a
// programming error, so it is rejected at construction.
var ErrNilCallback = errors.New("rebind: nil effect callback")

// ErrNoScope is the panic value when Use is called outside a scope
// pass. Use needs the current scope's hook slots for stable identity;
// call it inside scope.With or scope.Pass, or use New directly.
var ErrNoScope = errors.New("rebind: Use called outside a scope pass")
