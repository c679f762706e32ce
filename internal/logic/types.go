// Package logic contains the pure measurement and user-interface logic of the meter.
// This package has NO external dependencies (no GPIO, I2C, OS, or time.Sleep).
// Everything advances one call per loop tick.
package logic

import (
	"fmt"
	"math"
)

// InvalidRaw is the raw encoding of a missing reading at the hardware and
// persistence boundary.
const InvalidRaw uint16 = math.MaxUint16

// MaxValue is the largest value a valid Sample can hold.
const MaxValue uint16 = InvalidRaw - 1

// Sample is one magnitude in milli-units (mA, mV, mW) or no reading at all.
// The zero value is Invalid.
type Sample struct {
	value uint16
	valid bool
}

// Invalid is the absent reading.
var Invalid = Sample{}

// Valid returns a valid sample. Values above MaxValue saturate so that the
// raw encoding stays unambiguous.
func Valid(v uint16) Sample {
	if v > MaxValue {
		v = MaxValue
	}
	return Sample{value: v, valid: true}
}

// FromRaw decodes a raw reading where InvalidRaw means "no reading".
func FromRaw(raw uint16) Sample {
	if raw == InvalidRaw {
		return Invalid
	}
	return Sample{value: raw, valid: true}
}

// Raw encodes the sample using the InvalidRaw sentinel.
func (s Sample) Raw() uint16 {
	if !s.valid {
		return InvalidRaw
	}
	return s.value
}

// Value returns the magnitude and whether the sample is valid.
func (s Sample) Value() (uint16, bool) {
	return s.value, s.valid
}

// IsValid reports whether the sample carries a reading.
func (s Sample) IsValid() bool {
	return s.valid
}

func (s Sample) String() string {
	if !s.valid {
		return "invalid"
	}
	return fmt.Sprintf("%d", s.value)
}

// Power derives power in mW from current in mA and voltage in mV.
// The product is widened to 32 bits before dividing.
func Power(current, voltage Sample) Sample {
	if !current.valid || !voltage.valid {
		return Invalid
	}
	p := uint32(current.value) * uint32(voltage.value) / 1000
	if p > uint32(MaxValue) {
		return Valid(MaxValue)
	}
	return Valid(uint16(p))
}

// SampleReader yields one instantaneous reading per call.
type SampleReader interface {
	ReadCurrent() Sample
	ReadVoltage() Sample
}

// Quantity selects one of the measured or derived quantities.
type Quantity int

const (
	QuantityCurrent Quantity = iota
	QuantityVoltage
	QuantityPower
)

// Unit is the quantity shown on the display.
type Unit int

const (
	UnitCurrent Unit = iota
	UnitVoltage
	UnitPower
	UnitCapacity
)

func (u Unit) String() string {
	switch u {
	case UnitCurrent:
		return "current"
	case UnitVoltage:
		return "voltage"
	case UnitPower:
		return "power"
	case UnitCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// StatKind is the statistic shown for the current unit.
type StatKind int

const (
	StatAvg StatKind = iota
	StatMax
	StatMin
)

// statKinds is the number of StatKind values the inner button cycles through.
const statKinds = 3

func (k StatKind) String() string {
	switch k {
	case StatAvg:
		return "avg"
	case StatMax:
		return "max"
	case StatMin:
		return "min"
	default:
		return "unknown"
	}
}

// Mode is what the display currently shows.
type Mode struct {
	Unit Unit
	Stat StatKind
}

func (m Mode) String() string {
	return m.Unit.String() + "/" + m.Stat.String()
}

// ButtonMask is a set of pressed buttons.
type ButtonMask uint8

const (
	ButtonOuter ButtonMask = 1 << iota
	ButtonInner

	ButtonBoth = ButtonOuter | ButtonInner
)

// Mask builds a ButtonMask from instantaneous button states.
func Mask(outer, inner bool) ButtonMask {
	var m ButtonMask
	if outer {
		m |= ButtonOuter
	}
	if inner {
		m |= ButtonInner
	}
	return m
}

func (m ButtonMask) String() string {
	switch m {
	case 0:
		return "none"
	case ButtonOuter:
		return "outer"
	case ButtonInner:
		return "inner"
	case ButtonBoth:
		return "both"
	default:
		return fmt.Sprintf("mask(%d)", uint8(m))
	}
}

// ResetPolicy decides what min/max become on a statistics reset.
type ResetPolicy int

const (
	// ResetReseed restarts min and max from the latest average.
	ResetReseed ResetPolicy = iota
	// ResetInvalidate clears min and max until the next valid reading.
	ResetInvalidate
)

func (p ResetPolicy) String() string {
	switch p {
	case ResetReseed:
		return "reseed"
	case ResetInvalidate:
		return "invalidate"
	default:
		return "unknown"
	}
}

// ParseResetPolicy parses the configuration name of a policy.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch s {
	case "reseed":
		return ResetReseed, nil
	case "invalidate":
		return ResetInvalidate, nil
	default:
		return 0, fmt.Errorf("unknown reset policy %q", s)
	}
}
