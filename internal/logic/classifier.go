package logic

// PressKind is the classification of one tick of button input.
type PressKind int

const (
	// PressNone means no buttons are involved.
	PressNone PressKind = iota
	// PressPending means a session is open and not yet resolved.
	PressPending
	// PressShort means the buttons were released before the long-press threshold.
	PressShort
	// PressLong means the session crossed the long-press threshold on this tick.
	PressLong
	// PressHeld means buttons are still held after a long press fired.
	PressHeld
)

func (k PressKind) String() string {
	switch k {
	case PressNone:
		return "none"
	case PressPending:
		return "pending"
	case PressShort:
		return "short"
	case PressLong:
		return "long"
	case PressHeld:
		return "held"
	default:
		return "unknown"
	}
}

// Press is the classifier output for one tick.
type Press struct {
	Kind PressKind
	// Mask is the OR of every mask seen since the session started.
	Mask ButtonMask
	// Cycles is the session counter at the time of the tick.
	Cycles int
}

// Classifier turns per-tick button masks into short and long presses.
type Classifier struct {
	longPressCycles int

	active     bool
	suppressed bool
	acc        ButtonMask
	counter    int
}

// NewClassifier creates a classifier. A press is long once its counter
// exceeds longPressCycles.
func NewClassifier(longPressCycles int) *Classifier {
	if longPressCycles < 0 {
		longPressCycles = 0
	}
	return &Classifier{longPressCycles: longPressCycles}
}

// Process takes the instantaneous mask of one tick.
func (c *Classifier) Process(mask ButtonMask) Press {
	if c.suppressed {
		if mask != 0 {
			return Press{Kind: PressHeld}
		}
		c.suppressed = false
		return Press{Kind: PressNone}
	}

	if !c.active {
		if mask == 0 {
			return Press{Kind: PressNone}
		}
		c.active = true
		c.acc = mask
		c.counter = 0
		return Press{Kind: PressPending, Mask: c.acc}
	}

	c.acc |= mask
	c.counter++

	if c.counter > c.longPressCycles {
		c.active = false
		c.suppressed = mask != 0
		return Press{Kind: PressLong, Mask: c.acc, Cycles: c.counter}
	}

	if mask == 0 {
		c.active = false
		return Press{Kind: PressShort, Mask: c.acc, Cycles: c.counter}
	}

	return Press{Kind: PressPending, Mask: c.acc, Cycles: c.counter}
}

// Active reports whether a press session is open or a long press is still held.
func (c *Classifier) Active() bool {
	return c.active || c.suppressed
}
