// Package scope provides the ownership tree that hosts coordinated
// effects. A Scope owns cleanups and hook slots for one host unit (a
// component, a session, a test); disposing the scope disposes everything
// it owns.
package scope

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DebugMode enables dev-time validation such as hook slot order
// checking. Violations panic with a descriptive message.
var DebugMode = false

// idCounter is the source of scope IDs.
var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// Scope is a unit of ownership.
// Scopes form a hierarchy mirroring the host's structure: each child
// unit creates a Scope under its parent's. Disposing a Scope disposes
// its children first, then runs its cleanups in reverse order.
type Scope struct {
	id uint64

	// parent is the parent Scope, nil for a root.
	parent *Scope

	// children are child scopes.
	children   []*Scope
	childrenMu sync.Mutex

	// cleanups run in reverse order on Dispose.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// pending are commit tasks queued during the current pass.
	pending   []func()
	pendingMu sync.Mutex

	// disposed marks the scope as dead.
	disposed atomic.Bool

	// Hook slot storage for stable identity across passes.
	slots   []any
	slotIdx int

	// slotCount locks in the number of slots after the first pass.
	// Only checked when DebugMode is set.
	slotCount int
	passCount int
}

// New creates a Scope under parent. A nil parent creates a root.
func New(parent *Scope) *Scope {
	s := &Scope{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(s)
	}
	return s
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed reports whether Dispose has been called.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

func (s *Scope) addChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	s.children = append(s.children, child)
}

func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run when this scope is disposed.
// If the scope is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if fn == nil {
		return
	}
	if s.disposed.Load() {
		fn()
		return
	}

	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// OnCommit queues fn to run at the end of the current pass, when the
// host calls Commit. Tasks queued on a disposed scope are dropped.
func (s *Scope) OnCommit(fn func()) {
	if fn == nil || s.disposed.Load() {
		return
	}

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending = append(s.pending, fn)
}

// Commit runs all queued commit tasks in order, then commits child
// scopes. The host calls this once after each pass.
func (s *Scope) Commit() {
	if s.disposed.Load() {
		return
	}

	s.pendingMu.Lock()
	pending := s.pending
	s.pending = nil
	s.pendingMu.Unlock()

	for _, fn := range pending {
		fn()
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.childrenMu.Unlock()

	for _, child := range children {
		child.Commit()
	}
}

// HasPending reports whether this scope or any child has queued commit
// tasks.
func (s *Scope) HasPending() bool {
	if s.disposed.Load() {
		return false
	}

	s.pendingMu.Lock()
	pending := len(s.pending) > 0
	s.pendingMu.Unlock()
	if pending {
		return true
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.childrenMu.Unlock()

	for _, child := range children {
		if child.HasPending() {
			return true
		}
	}
	return false
}

// Dispose disposes this scope, its children, and its cleanups.
// Children are disposed in reverse creation order, then cleanups run in
// reverse registration order. Dispose is idempotent.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	s.pendingMu.Lock()
	s.pending = nil
	s.pendingMu.Unlock()
}

// BeginPass resets the hook slot index. The host calls this before each
// pass so hooks resolve to the same slots every time.
func (s *Scope) BeginPass() {
	s.slotIdx = 0
}

// EndPass finishes a pass. In DebugMode it validates that the pass used
// the same number of hook slots as the first one.
func (s *Scope) EndPass() {
	if !DebugMode {
		return
	}
	if s.passCount == 0 {
		s.slotCount = s.slotIdx
		s.passCount = 1
		return
	}
	if s.slotIdx != s.slotCount {
		panic(fmt.Sprintf("scope: hook count changed between passes: expected %d, got %d",
			s.slotCount, s.slotIdx))
	}
}

// UseSlot returns the stored value for the current hook slot, or nil on
// the first pass. Callers that get nil create their value and store it
// with SetSlot.
//
// Usage pattern:
//
//	slot := sc.UseSlot()
//	if slot != nil {
//		return slot.(*thing)
//	}
//	inst := newThing()
//	sc.SetSlot(inst)
//	return inst
func (s *Scope) UseSlot() any {
	idx := s.slotIdx
	s.slotIdx++

	if idx < len(s.slots) {
		return s.slots[idx]
	}
	return nil
}

// SetSlot stores a value in the current hook slot.
// Must be called right after UseSlot returned nil.
func (s *Scope) SetSlot(value any) {
	s.slots = append(s.slots, value)
}
