package logic

// Action is what a long press asks the loop to do.
type Action int

const (
	ActionNone Action = iota
	// ActionClear blanks the display momentarily.
	ActionClear
	// ActionResetStats resets statistics with the UI's reset policy.
	ActionResetStats
	// ActionRedraw shows the current unit and type again.
	ActionRedraw
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionClear:
		return "clear"
	case ActionResetStats:
		return "reset-stats"
	case ActionRedraw:
		return "redraw"
	default:
		return "unknown"
	}
}

// UIConfig controls the display state machine.
type UIConfig struct {
	// ShowCapacity adds the capacity unit after power.
	ShowCapacity bool
	// Policy selects the long-press variant and its reset policy.
	Policy ResetPolicy
	// BlinkOnMinMax blanks the display periodically while min or max is shown.
	BlinkOnMinMax bool
	// BlinkCycles is the number of idle ticks per blink.
	BlinkCycles int
}

// UI tracks the displayed unit and statistic.
type UI struct {
	cfg   UIConfig
	units int
	mode  Mode
	phase int
}

// NewUI creates the state machine in (Current, Avg).
func NewUI(cfg UIConfig) *UI {
	if cfg.BlinkCycles < 1 {
		cfg.BlinkCycles = 1
	}
	units := 3
	if cfg.ShowCapacity {
		units = 4
	}
	return &UI{cfg: cfg, units: units}
}

// Mode returns the committed mode.
func (u *UI) Mode() Mode {
	return u.mode
}

// Policy returns the reset policy long presses use.
func (u *UI) Policy() ResetPolicy {
	return u.cfg.Policy
}

// Units returns the number of selectable units.
func (u *UI) Units() int {
	return u.units
}

// next returns the mode a short press of mask would commit.
func (u *UI) next(mask ButtonMask) (Mode, bool) {
	switch mask {
	case ButtonOuter:
		return Mode{Unit: Unit((int(u.mode.Unit) + 1) % u.units), Stat: StatAvg}, true
	case ButtonInner:
		return Mode{Unit: u.mode.Unit, Stat: StatKind((int(u.mode.Stat) + 1) % statKinds)}, true
	default:
		return u.mode, false
	}
}

// Preview returns the mode a pending session would switch to on release.
// The second value is false when the session would not change the mode.
func (u *UI) Preview(mask ButtonMask) (Mode, bool) {
	return u.next(mask)
}

// Short commits a short press and returns the new mode.
// Both buttons together leave the mode unchanged.
func (u *UI) Short(mask ButtonMask) Mode {
	if m, ok := u.next(mask); ok {
		u.mode = m
	}
	return u.mode
}

// Long returns the action for a long press. The mode is never changed.
func (u *UI) Long(mask ButtonMask) Action {
	if u.cfg.Policy == ResetInvalidate {
		if mask == ButtonBoth {
			return ActionResetStats
		}
		return ActionRedraw
	}

	switch mask {
	case ButtonOuter:
		return ActionClear
	case ButtonInner:
		return ActionResetStats
	default:
		return ActionRedraw
	}
}

// Idle advances the blink phase by one idle tick and reports whether the
// value should be shown. It returns false on the blink tick while a
// min or max statistic is displayed.
func (u *UI) Idle() bool {
	u.phase = (u.phase + 1) % u.cfg.BlinkCycles
	if !u.cfg.BlinkOnMinMax || u.mode.Stat == StatAvg {
		return true
	}
	return u.phase != 0
}
