package bindeffect

import (
	"log/slog"
	"time"

	"github.com/rebind-dev/rebind/pkg/limiter"
	"github.com/rebind-dev/rebind/pkg/observe"
)

// DefaultID is the identity key used when the host does not name the
// effect.
const DefaultID = "binding-effect"

// config holds the resolved coordinator configuration.
type config struct {
	id      string
	deps    any
	equal   Equality
	trigger MountTrigger

	// detectInputChanges enables deep snapshot comparison.
	detectInputChanges bool

	// snapshot overrides the comparable-input-value function.
	// snapshotSet distinguishes an explicit override for the inert
	// configuration warning.
	snapshot    Snapshot
	snapshotSet bool

	lim      limiter.Limiter
	window   time.Duration
	limOpts  []limiter.DebounceOption
	observer observe.Observer
	logger   *slog.Logger
}

func defaultOptions() config {
	return config{
		id:     DefaultID,
		window: limiter.DefaultWindow,
		logger: slog.Default(),
	}
}

// Option is an option for configuring a coordinated effect.
type Option interface {
	isOption()
	apply(c *config)
}

type optionFunc func(*config)

func (f optionFunc) isOption()       {}
func (f optionFunc) apply(c *config) { f(c) }

// WithID sets the effect's identity key. It names the effect in logs,
// metrics, spans, and journal records, and keys the default limiter.
func WithID(id string) Option {
	return optionFunc(func(c *config) {
		if id != "" {
			c.id = id
		}
	})
}

// WithDeps sets the initial auxiliary deps value. Whenever a later pass
// presents a deps value that compares unequal, the effect fires
// regardless of binding state.
func WithDeps(deps any) Option {
	return optionFunc(func(c *config) {
		c.deps = deps
	})
}

// WithEquality sets the equality function used both for deep snapshot
// comparison and for deps comparison. Default is structural deep
// equality.
func WithEquality(equal Equality) Option {
	return optionFunc(func(c *config) {
		if equal != nil {
			c.equal = equal
		}
	})
}

// DetectInputChanges enables deep-value change detection: evaluations
// compare a snapshot of the extracted values against a baseline and
// suppress the callback when nothing changed.
func DetectInputChanges() Option {
	return optionFunc(func(c *config) {
		c.detectInputChanges = true
	})
}

// WithSnapshot sets a custom comparable-input-value function for deep
// detection. Without DetectInputChanges the function is never invoked;
// when DebugMode is set, that inert configuration logs a warning at
// construction.
func WithSnapshot(snapshot Snapshot) Option {
	return optionFunc(func(c *config) {
		c.snapshot = snapshot
		c.snapshotSet = snapshot != nil
	})
}

// WithMountTrigger sets the mount trigger policy.
// Default is TriggerIfInputChanged.
func WithMountTrigger(trigger MountTrigger) Option {
	return optionFunc(func(c *config) {
		c.trigger = trigger
	})
}

// WithLimiter replaces the effect's limiter. The coordinator only uses
// the Limit and Cancel contract; sharing one limiter between effects
// makes them coalesce together.
func WithLimiter(lim limiter.Limiter) Option {
	return optionFunc(func(c *config) {
		c.lim = lim
	})
}

// WithWindow sets the debounce window of the default limiter. Ignored
// when WithLimiter is given.
func WithWindow(window time.Duration) Option {
	return optionFunc(func(c *config) {
		c.window = window
	})
}

// WithLimiterOptions forwards options to the default debounce limiter.
// Ignored when WithLimiter is given.
func WithLimiterOptions(opts ...limiter.DebounceOption) Option {
	return optionFunc(func(c *config) {
		c.limOpts = append(c.limOpts, opts...)
	})
}

// WithObserver attaches an observer for the effect's lifecycle events.
func WithObserver(obs observe.Observer) Option {
	return optionFunc(func(c *config) {
		c.observer = obs
	})
}

// WithLogger sets the logger used for construction-time warnings.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
