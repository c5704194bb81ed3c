package bindeffect

// MountTrigger decides whether the callback fires when the effect
// mounts. The zero value is TriggerIfInputChanged.
type MountTrigger uint8

const (
	// TriggerIfInputChanged fires on mount only when change detection
	// reports a difference since the baseline. This is the default.
	TriggerIfInputChanged MountTrigger = iota

	// TriggerAlways fires on every mount decision regardless of change
	// detection.
	TriggerAlways

	// TriggerNever never fires from the mount decision alone; only real
	// binding changes or deps changes fire the callback.
	TriggerNever

	// TriggerFirstMountOnly fires exactly once, on the effect's very
	// first mount.
	TriggerFirstMountOnly
)

// String returns a human-readable name for the trigger policy.
func (t MountTrigger) String() string {
	switch t {
	case TriggerIfInputChanged:
		return "IfInputChanged"
	case TriggerAlways:
		return "Always"
	case TriggerNever:
		return "Never"
	case TriggerFirstMountOnly:
		return "FirstMountOnly"
	default:
		return "Unknown"
	}
}
