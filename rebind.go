// Package rebind provides the public API for the rebind effect library.
//
// This is the recommended import for most applications:
//
//	import "github.com/rebind-dev/rebind"
//
// Usage:
//
//	price := rebind.NewVar(19.99)
//	qty := rebind.NewVar(2)
//
//	dispose := rebind.CreateEffect(
//	    rebind.Named(rebind.Bind("price", price), rebind.Bind("qty", qty)),
//	    func(vals rebind.Values, _ *rebind.Dependencies) {
//	        fmt.Println("order changed:", vals.Map())
//	    },
//	)
//	defer dispose()
package rebind

import (
	"github.com/rebind-dev/rebind/pkg/bindeffect"
	"github.com/rebind-dev/rebind/pkg/binding"
	"github.com/rebind-dev/rebind/pkg/limiter"
	"github.com/rebind-dev/rebind/pkg/observe"
	"github.com/rebind-dev/rebind/pkg/scope"
)

// =============================================================================
// Bindings (re-export from pkg/binding)
// =============================================================================

// Binding is a watchable value source. Anything that implements it can
// be used as an effect dependency.
type Binding = binding.Binding

// Remover detaches a previously added change listener.
type Remover = binding.Remover

// Listeners is a change listener registry for custom Binding
// implementations.
type Listeners = binding.Listeners

// Var is a mutable value that notifies listeners on change.
type Var[T any] = binding.Var[T]

// NewVar creates a watchable variable with the given initial value.
//
// Example:
//
//	count := rebind.NewVar(0)
//	count.Set(1)
//	value := count.Get() // 1
func NewVar[T any](initial T) *Var[T] {
	return binding.NewVar(initial)
}

// NewUID returns a fresh binding identity for custom Binding
// implementations.
var NewUID = binding.NewUID

// =============================================================================
// Effects (re-export from pkg/bindeffect)
// =============================================================================

// Coordinator drives one effect across its render/commit/dispose
// lifecycle.
type Coordinator = bindeffect.Coordinator

// Callback is the effect body. It receives the current dependency
// values and the dependencies that produced them.
type Callback = bindeffect.Callback

// Dependencies is an immutable dependency declaration: no dependencies,
// a single binding, an ordered list, or a named set.
type Dependencies = bindeffect.Dependencies

// Values holds the extracted dependency values for one firing.
type Values = bindeffect.Values

// NamedBinding pairs a name with a binding for Named dependency sets.
type NamedBinding = bindeffect.NamedBinding

// NewCoordinator creates an unmounted effect coordinator. Most callers
// want CreateEffect or UseEffect instead.
var NewCoordinator = bindeffect.New

// CreateEffect mounts a standalone effect and returns its dispose
// function.
//
// Example:
//
//	dispose := rebind.CreateEffect(rebind.One(price),
//	    func(vals rebind.Values, _ *rebind.Dependencies) {
//	        fmt.Println("price is now", vals.Single())
//	    })
//	defer dispose()
var CreateEffect = bindeffect.Create

// UseEffect declares an effect inside a scope pass. It is a hook-like
// API and MUST be called unconditionally and in a stable order within
// the pass.
var UseEffect = bindeffect.Use

// Dependency constructors.

// None declares an effect with no dependencies.
var None = bindeffect.None

// One declares a single-binding dependency.
var One = bindeffect.One

// List declares an ordered list of bindings.
var List = bindeffect.List

// Named declares a named set of bindings from Bind pairs.
var Named = bindeffect.Named

// Bind pairs a name with a binding for use with Named.
var Bind = bindeffect.Bind

// FromMap declares a named set of bindings from a map. Names are
// ordered lexicographically.
var FromMap = bindeffect.FromMap

// =============================================================================
// Mount triggers (re-export from pkg/bindeffect)
// =============================================================================

// MountTrigger selects when an effect fires from mounting alone, as
// opposed to firing from a dependency notification.
type MountTrigger = bindeffect.MountTrigger

// MountTrigger constants
const (
	TriggerIfInputChanged = bindeffect.TriggerIfInputChanged
	TriggerAlways         = bindeffect.TriggerAlways
	TriggerNever          = bindeffect.TriggerNever
	TriggerFirstMountOnly = bindeffect.TriggerFirstMountOnly
)

// =============================================================================
// Effect options (re-export from pkg/bindeffect)
// =============================================================================

// Option configures an effect at construction.
type Option = bindeffect.Option

// Equality compares two dependency snapshots for input change
// detection.
type Equality = bindeffect.Equality

// Snapshot extracts a comparable value from the dependencies for input
// change detection.
type Snapshot = bindeffect.Snapshot

// DefaultID is the effect ID used when WithID is not given.
const DefaultID = bindeffect.DefaultID

// WithID sets the effect's ID for logs and observability events.
var WithID = bindeffect.WithID

// WithDeps supplies an external deps value compared with WithEquality.
var WithDeps = bindeffect.WithDeps

// WithEquality sets the comparison used for input change detection.
var WithEquality = bindeffect.WithEquality

// DetectInputChanges suppresses firings whose extracted values did not
// change.
var DetectInputChanges = bindeffect.DetectInputChanges

// WithSnapshot sets the value extractor used by DetectInputChanges.
var WithSnapshot = bindeffect.WithSnapshot

// WithMountTrigger sets the effect's mount firing policy.
var WithMountTrigger = bindeffect.WithMountTrigger

// WithLimiter replaces the default debounce limiter.
var WithLimiter = bindeffect.WithLimiter

// WithWindow sets the coalescing window of the default limiter.
var WithWindow = bindeffect.WithWindow

// WithLimiterOptions forwards options to the default debounce limiter.
var WithLimiterOptions = bindeffect.WithLimiterOptions

// WithObserver attaches an observer to the effect's lifecycle events.
var WithObserver = bindeffect.WithObserver

// WithLogger sets the effect's logger.
var WithLogger = bindeffect.WithLogger

// =============================================================================
// Limiters (re-export from pkg/limiter)
// =============================================================================

// Limiter coalesces scheduled work into fewer executions.
type Limiter = limiter.Limiter

// Dispatcher runs limiter tasks, for routing firings onto a loop or
// test harness.
type Dispatcher = limiter.Dispatcher

// Debounce is the trailing-edge debounce limiter.
type Debounce = limiter.Debounce

// DebounceOption configures a Debounce.
type DebounceOption = limiter.DebounceOption

// Manual is a limiter that only runs work when flushed. Useful in
// tests.
type Manual = limiter.Manual

// Immediate is a pass-through limiter with no coalescing.
type Immediate = limiter.Immediate

// DefaultWindow is the coalescing window used when none is configured.
const DefaultWindow = limiter.DefaultWindow

// NewDebounce creates a trailing-edge debounce limiter.
var NewDebounce = limiter.NewDebounce

// NewManual creates a manually flushed limiter.
var NewManual = limiter.NewManual

// WithDispatcher routes a Debounce's firings through a dispatcher.
var WithDispatcher = limiter.WithDispatcher

// =============================================================================
// Scopes (re-export from pkg/scope)
// =============================================================================

// Scope owns hook slots and cleanups for a group of effects.
type Scope = scope.Scope

// NewScope creates a scope. A nil parent makes a root scope.
var NewScope = scope.New

// CurrentScope returns the scope bound to the calling goroutine, or
// nil.
var CurrentScope = scope.Current

// WithScope binds a scope to the calling goroutine for the duration of
// fn.
var WithScope = scope.With

// Pass runs fn as one hook pass over the scope: slots rewind, fn runs
// with the scope current, and per-pass validation happens at the end.
var Pass = scope.Pass

// =============================================================================
// Observability (re-export from pkg/observe)
// =============================================================================

// Observer receives lifecycle events from effects and feeds.
type Observer = observe.Observer

// Event is one observed lifecycle event.
type Event = observe.Event

// EventType discriminates lifecycle events.
type EventType = observe.EventType

// NewSlogObserver logs events through a slog.Logger.
var NewSlogObserver = observe.NewSlogObserver

// NewMultiObserver fans events out to several observers.
var NewMultiObserver = observe.NewMultiObserver

// =============================================================================
// Errors (re-export from pkg/bindeffect)
// =============================================================================

var ErrNilCallback = bindeffect.ErrNilCallback
var ErrNoScope = bindeffect.ErrNoScope
