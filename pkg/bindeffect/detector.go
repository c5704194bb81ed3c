package bindeffect

import "reflect"

// Equality compares two snapshots or deps values.
type Equality func(a, b any) bool

// defaultEquality is structural deep equality.
func defaultEquality(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Snapshot produces the comparable input value for deep change
// detection. The default extracts the current binding values.
type Snapshot func(deps *Dependencies) any

func defaultSnapshot(deps *Dependencies) any {
	return deps.values()
}

// detectMode selects the change detection strategy. It is resolved once
// at construction from the configuration and never changes.
type detectMode uint8

const (
	// modeUnconditional reports a change on every check.
	// Used when deep detection is off and the policy does not need a
	// signature baseline.
	modeUnconditional detectMode = iota

	// modeSignature compares the joined change-UID signature and
	// overwrites the baseline on every check (store-then-compare).
	modeSignature

	// modeDeep compares value snapshots and stores a new baseline only
	// when a difference is detected.
	modeDeep
)

// detector answers "did something meaningful change since the last
// check". State is owned by exactly one coordinator and mutated only
// through checkAndUpdate and seed.
type detector struct {
	mode     detectMode
	equal    Equality
	snapshot Snapshot

	// lastValue is the deep-mode baseline.
	lastValue any

	// lastSignature is the signature-mode baseline.
	lastSignature string
}

func newDetector(mode detectMode, equal Equality, snapshot Snapshot) *detector {
	if equal == nil {
		equal = defaultEquality
	}
	if snapshot == nil {
		snapshot = defaultSnapshot
	}
	return &detector{
		mode:     mode,
		equal:    equal,
		snapshot: snapshot,
	}
}

// checkAndUpdate reports whether the observed state differs from the
// baseline, updating the baseline per the mode's rules. Two consecutive
// calls with no intervening change return true then false, never true
// twice.
func (d *detector) checkAndUpdate(deps *Dependencies) bool {
	switch d.mode {
	case modeDeep:
		next := d.snapshot(deps)
		if d.equal(d.lastValue, next) {
			return false
		}
		// Baseline moves only on detected change
		d.lastValue = next
		return true

	case modeSignature:
		sig := deps.signature()
		changed := sig != d.lastSignature
		// Baseline always moves (store-then-compare)
		d.lastSignature = sig
		return changed

	default:
		return true
	}
}

// seed establishes the initial baseline so the first post-mount check
// compares against real state instead of a zero sentinel.
func (d *detector) seed(deps *Dependencies) {
	switch d.mode {
	case modeDeep:
		d.lastValue = d.snapshot(deps)
	case modeSignature:
		d.lastSignature = deps.signature()
	}
}
