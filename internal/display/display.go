// Package display renders meter output on a four digit seven-segment
// display, or on anything else that can show a short string.
package display

import "github.com/sweeney/usbamps/internal/logic"

// Display is everything the firmware shows.
type Display interface {
	UnitAndType(m logic.Mode) error
	Value(v logic.Sample) error
	MilliValue(v logic.Sample) error
	Charge(mAh uint32) error
	Loading() error
	Calibrating() error
	HighPower() error
	StatsReset() error
	Clear() error
}

// Writer shows one line of text. A '.' lights the decimal point of the
// character before it.
type Writer interface {
	Show(text string) error
}

// Fixed texts.
const (
	TextLoading     = "LOAD"
	TextCalibrating = "CAL "
	TextHighPower   = "HI-P"
	TextStatsReset  = "RSET"
	TextBlank       = ""
)

// Text implements Display by rendering to a Writer.
type Text struct {
	w          Writer
	threeDigit bool
}

// NewText creates a renderer. threeDigit shows currents below 1A as whole
// milliamps.
func NewText(w Writer, threeDigit bool) *Text {
	return &Text{w: w, threeDigit: threeDigit}
}

func (t *Text) UnitAndType(m logic.Mode) error { return t.w.Show(FormatMode(m)) }

func (t *Text) Value(v logic.Sample) error { return t.w.Show(FormatValue(v)) }

func (t *Text) MilliValue(v logic.Sample) error { return t.w.Show(FormatMilli(v, t.threeDigit)) }

func (t *Text) Charge(mAh uint32) error { return t.w.Show(FormatCharge(mAh)) }

func (t *Text) Loading() error { return t.w.Show(TextLoading) }

func (t *Text) Calibrating() error { return t.w.Show(TextCalibrating) }

func (t *Text) HighPower() error { return t.w.Show(TextHighPower) }

func (t *Text) StatsReset() error { return t.w.Show(TextStatsReset) }

func (t *Text) Clear() error { return t.w.Show(TextBlank) }
