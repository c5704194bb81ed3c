package scope

import (
	"runtime"
	"sync"
)

// currentScopes stores the active scope per goroutine.
// A sync.Map because hosts run passes from multiple goroutines.
var currentScopes sync.Map

// goroutineID extracts the current goroutine's ID from the runtime
// stack header. Implementation detail, not exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// Current returns the scope active on this goroutine, or nil when no
// pass is running.
func Current() *Scope {
	if v, ok := currentScopes.Load(goroutineID()); ok {
		return v.(*Scope)
	}
	return nil
}

// With runs fn with s as the current scope for this goroutine, restoring
// the previous scope afterwards. Hosts wrap each pass in With so hooks
// can find their scope without threading it through every call.
func With(s *Scope, fn func()) {
	gid := goroutineID()

	var old *Scope
	if v, ok := currentScopes.Load(gid); ok {
		old = v.(*Scope)
	}

	currentScopes.Store(gid, s)
	defer func() {
		if old != nil {
			currentScopes.Store(gid, old)
		} else {
			currentScopes.Delete(gid)
		}
	}()

	fn()
}

// Pass wraps one full host pass: it begins the pass, runs fn with s
// current, and ends the pass. Commit is left to the host so it can batch
// multiple scopes before committing.
func Pass(s *Scope, fn func()) {
	s.BeginPass()
	With(s, fn)
	s.EndPass()
}
