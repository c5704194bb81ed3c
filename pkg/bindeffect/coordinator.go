package bindeffect

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rebind-dev/rebind/pkg/binding"
	"github.com/rebind-dev/rebind/pkg/limiter"
	"github.com/rebind-dev/rebind/pkg/observe"
)

// DebugMode enables dev-time validation warnings, such as flagging a
// snapshot function configured without input change detection.
var DebugMode = false

// Callback receives the extracted binding values and the dependency set
// they came from whenever the effect fires.
type Callback func(values Values, deps *Dependencies)

// triggerState is the per-effect mutable tracking record. Exactly one
// coordinator owns it; all mutations happen inside that coordinator's
// operations.
type triggerState struct {
	// needsTrigger marks that a fire decision was taken and its
	// callback has not run yet. Once set it is cleared exactly once, by
	// the evaluation that fires for it or by disposal.
	needsTrigger bool

	// everMounted distinguishes the very first mount decision.
	everMounted bool

	// lastDeps is the auxiliary deps value from the previous pass.
	lastDeps any
}

// Coordinator invokes a callback when observed bindings change, under a
// mount trigger policy, with change detection and limiter-coalesced
// delivery.
//
// Lifecycle: New constructs the coordinator and seeds the detection
// baseline before any subscription exists. The first Commit mounts it:
// listeners attach and the mount decision runs. Each later pass calls
// Render with the current inputs, then Commit; Render refreshes the
// callback, re-subscribes when handed a different dependency pointer,
// and schedules a forced evaluation when deps changed, while Commit
// re-runs the mount decision. Dispose tears everything down.
//
// The callback never runs synchronously from a notification: every
// trigger path goes through the limiter's scheduling boundary.
type Coordinator struct {
	id       string
	trigger  MountTrigger
	equal    Equality
	det      *detector
	lim      limiter.Limiter
	observer observe.Observer

	// mu protects the fields below. The limiter, the callback, the
	// observer, and listener add/remove run outside the lock; binding
	// reads for change detection run under it.
	mu       sync.Mutex
	deps     *Dependencies
	callback Callback
	state    triggerState
	removers []binding.Remover
	mounted  bool

	disposed atomic.Bool
}

// New creates a coordinator observing deps. The callback is required.
// The coordinator is not yet mounted: no listeners are attached until
// the first Commit.
func New(deps *Dependencies, cb Callback, opts ...Option) *Coordinator {
	if cb == nil {
		panic(ErrNilCallback)
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if DebugMode && cfg.snapshotSet && !cfg.detectInputChanges {
		cfg.logger.Warn("snapshot function configured without input change detection, it will never be invoked",
			"effect", cfg.id)
	}

	mode := modeUnconditional
	if cfg.detectInputChanges {
		mode = modeDeep
	} else if cfg.trigger == TriggerIfInputChanged {
		mode = modeSignature
	}

	det := newDetector(mode, cfg.equal, cfg.snapshot)
	nd := normalize(deps)

	// Baseline seeding, before any subscription exists: deep mode seeds
	// for policies that compare on mount, signature mode always.
	switch mode {
	case modeDeep:
		if cfg.trigger == TriggerNever || cfg.trigger == TriggerIfInputChanged {
			det.seed(nd)
		}
	case modeSignature:
		det.seed(nd)
	}

	lim := cfg.lim
	if lim == nil {
		lim = limiter.NewDebounce(cfg.window, cfg.limOpts...)
	}

	c := &Coordinator{
		id:       cfg.id,
		trigger:  cfg.trigger,
		equal:    det.equal,
		det:      det,
		lim:      lim,
		observer: cfg.observer,
		deps:     nd,
		callback: cb,
		state:    triggerState{lastDeps: cfg.deps},
	}

	c.emit(observe.EventCreate, observe.LevelVerbose, map[string]any{
		"bindings": nd.Len(),
		"trigger":  cfg.trigger.String(),
	})
	return c
}

// ID returns the effect's identity key.
func (c *Coordinator) ID() string {
	return c.id
}

// IsDisposed reports whether Dispose has been called.
func (c *Coordinator) IsDisposed() bool {
	return c.disposed.Load()
}

// Render presents the current pass's inputs. It stores cb as the latest
// callback, swaps subscriptions when deps is a different pointer than
// the current set, and, when the auxiliary depsValue compares unequal
// to the previous pass's, schedules a forced evaluation immediately.
//
// Render on a disposed coordinator is a no-op.
func (c *Coordinator) Render(deps *Dependencies, cb Callback, depsValue any) {
	if c.disposed.Load() {
		return
	}
	nd := normalize(deps)

	c.mu.Lock()
	if cb != nil {
		c.callback = cb
	}

	var stale []binding.Remover
	attach := false
	if nd != c.deps {
		stale = c.removers
		c.removers = nil
		c.deps = nd
		attach = c.mounted
	}

	force := false
	if !c.equal(c.state.lastDeps, depsValue) {
		c.state.lastDeps = depsValue
		c.state.needsTrigger = true
		force = true
	}
	c.mu.Unlock()

	for _, remove := range stale {
		remove()
	}
	if attach {
		c.attach()
	}
	if force {
		c.emit(observe.EventInputChange, observe.LevelVerbose, nil)
		c.schedule(true)
	}
}

// Commit runs the mount decision. The first call mounts the effect:
// listeners attach, then the decision runs with first-mount semantics.
// Every later call re-runs the decision. A positive decision sets
// needsTrigger and schedules a refresh-first evaluation; the
// needsTrigger gate keeps repeated positive decisions idempotent until
// the callback actually runs.
func (c *Coordinator) Commit() {
	if c.disposed.Load() {
		return
	}

	c.mu.Lock()
	first := false
	if !c.mounted {
		c.mounted = true
		first = !c.state.everMounted
		c.state.everMounted = true
		c.mu.Unlock()

		c.attach()
		c.emit(observe.EventMount, observe.LevelVerbose, nil)

		c.mu.Lock()
	}

	fire := c.state.needsTrigger ||
		c.trigger == TriggerAlways ||
		(c.trigger == TriggerFirstMountOnly && first) ||
		(c.trigger == TriggerIfInputChanged && c.det.checkAndUpdate(c.deps))
	if fire {
		c.state.needsTrigger = true
	}
	c.mu.Unlock()

	if fire {
		c.schedule(true)
	}
}

// Dispose tears the effect down: listeners are removed synchronously,
// the pending evaluation is cancelled, needsTrigger is discarded, and
// the detection baseline is refreshed one last time so a later check
// against the same state cannot report a stale change. Idempotent.
func (c *Coordinator) Dispose() {
	if c.disposed.Swap(true) {
		return
	}

	c.mu.Lock()
	removers := c.removers
	c.removers = nil
	c.mu.Unlock()

	// Listener removal is synchronous and precedes the cancel so a
	// notification can no longer reach the limiter.
	for _, remove := range removers {
		remove()
	}
	c.lim.Cancel()

	c.mu.Lock()
	c.state.needsTrigger = false
	c.det.checkAndUpdate(c.deps)
	c.mu.Unlock()

	c.emit(observe.EventDispose, observe.LevelVerbose, nil)
}

// attach subscribes one listener per distinct binding identity in
// normalized order.
func (c *Coordinator) attach() {
	c.mu.Lock()
	deps := c.deps
	c.mu.Unlock()

	seen := make(map[string]struct{}, deps.Len())
	var removers []binding.Remover
	for _, b := range deps.list {
		if b == nil {
			continue
		}
		uid := b.UID()
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		removers = append(removers, b.AddChangeListener(c.onNotify))
	}

	c.mu.Lock()
	if c.disposed.Load() || deps != c.deps {
		// Disposed or re-rendered while attaching: these listeners are
		// already stale.
		c.mu.Unlock()
		for _, remove := range removers {
			remove()
		}
		return
	}
	c.removers = append(c.removers, removers...)
	c.mu.Unlock()
}

// onNotify handles a binding change notification. It never evaluates
// synchronously; it only asks the limiter to schedule an evaluation.
func (c *Coordinator) onNotify() {
	if c.disposed.Load() {
		return
	}
	c.emit(observe.EventNotify, observe.LevelVerbose, nil)
	c.schedule(false)
}

// schedule hands an evaluation to the limiter. Repeated schedules before
// the limiter fires coalesce, latest request wins; the refreshFirst
// marker survives replacement through the needsTrigger flag.
func (c *Coordinator) schedule(refreshFirst bool) {
	if c.disposed.Load() {
		return
	}
	c.emit(observe.EventSchedule, observe.LevelVerbose, map[string]any{
		"refresh_first": refreshFirst,
	})
	c.lim.Limit(func() {
		c.evaluate(refreshFirst)
	})
}

// evaluate is the scheduled evaluation routine. Refresh-first
// evaluations, and plain ones that find needsTrigger set, refresh the
// baseline for its side effect, clear the flag, and fire. Plain
// evaluations otherwise consult the detector; in deep mode an unchanged
// result suppresses the callback entirely.
func (c *Coordinator) evaluate(refreshFirst bool) {
	c.mu.Lock()
	if c.disposed.Load() {
		c.mu.Unlock()
		return
	}

	fire := false
	if refreshFirst || c.state.needsTrigger {
		c.det.checkAndUpdate(c.deps)
		c.state.needsTrigger = false
		fire = true
	} else {
		changed := c.det.checkAndUpdate(c.deps)
		fire = changed || c.det.mode != modeDeep
	}
	cb := c.callback
	deps := c.deps
	c.mu.Unlock()

	if !fire {
		c.emit(observe.EventSkip, observe.LevelVerbose, map[string]any{
			"reason": "unchanged",
		})
		return
	}
	c.fire(cb, deps)
}

// fire invokes the callback with freshly extracted values. Panics from
// the callback propagate to the limiter's execution context; they are
// noted for observers but never swallowed here.
func (c *Coordinator) fire(cb Callback, deps *Dependencies) {
	vals := deps.values()

	start := time.Now()
	completed := false
	defer func() {
		if !completed {
			c.emit(observe.EventPanic, observe.LevelError, map[string]any{
				"bindings": deps.Len(),
			})
		}
	}()

	cb(vals, deps)
	completed = true

	c.emit(observe.EventFire, observe.LevelInfo, map[string]any{
		"bindings":         deps.Len(),
		"duration_seconds": time.Since(start).Seconds(),
	})
}

// emit delivers a lifecycle event to the observer, if any.
func (c *Coordinator) emit(typ observe.EventType, level observe.Level, data map[string]any) {
	if c.observer == nil {
		return
	}
	observe.Emit(c.observer, typ, level, c.id, data)
}

// Create builds a coordinator, mounts it immediately, and returns its
// disposer. It is the one-call form for hosts without a render cycle:
//
//	dispose := bindeffect.Create(
//		bindeffect.List(price, quantity),
//		func(vals bindeffect.Values, _ *bindeffect.Dependencies) {
//			total.Set(compute(vals))
//		},
//	)
//	defer dispose()
func Create(deps *Dependencies, cb Callback, opts ...Option) (dispose func()) {
	c := New(deps, cb, opts...)
	c.Commit()
	return c.Dispose
}
