package display

import "github.com/sweeney/usbamps/internal/logic"

// Call is one recorded Display call and the text it rendered.
type Call struct {
	Method string
	Text   string
}

// Fake records every call for tests.
type Fake struct {
	Calls []Call

	// Err, if set, will be returned by every call after recording it.
	Err error

	threeDigit bool
}

// NewFake creates a recording display.
func NewFake(threeDigit bool) *Fake {
	return &Fake{threeDigit: threeDigit}
}

func (f *Fake) record(method, text string) error {
	f.Calls = append(f.Calls, Call{Method: method, Text: text})
	return f.Err
}

func (f *Fake) UnitAndType(m logic.Mode) error { return f.record("UnitAndType", FormatMode(m)) }

func (f *Fake) Value(v logic.Sample) error { return f.record("Value", FormatValue(v)) }

func (f *Fake) MilliValue(v logic.Sample) error {
	return f.record("MilliValue", FormatMilli(v, f.threeDigit))
}

func (f *Fake) Charge(mAh uint32) error { return f.record("Charge", FormatCharge(mAh)) }

func (f *Fake) Loading() error { return f.record("Loading", TextLoading) }

func (f *Fake) Calibrating() error { return f.record("Calibrating", TextCalibrating) }

func (f *Fake) HighPower() error { return f.record("HighPower", TextHighPower) }

func (f *Fake) StatsReset() error { return f.record("StatsReset", TextStatsReset) }

func (f *Fake) Clear() error { return f.record("Clear", TextBlank) }

// Count returns how many times method was called.
func (f *Fake) Count(method string) int {
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Texts returns the rendered text of every call in order.
func (f *Fake) Texts() []string {
	texts := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		texts[i] = c.Text
	}
	return texts
}

// Last returns the most recent call, or the zero Call.
func (f *Fake) Last() Call {
	if len(f.Calls) == 0 {
		return Call{}
	}
	return f.Calls[len(f.Calls)-1]
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.Calls = nil
}
