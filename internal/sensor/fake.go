package sensor

import (
	"errors"

	"github.com/sweeney/usbamps/internal/logic"
)

// ErrNoSamples is returned by Fake.ReadShuntRaw when no raw readings are scripted.
var ErrNoSamples = errors.New("sensor: no scripted shunt readings")

// Fake is a scripted sensor for tests.
// Current and voltage scripts repeat from the start when exhausted;
// an empty script reads Invalid.
type Fake struct {
	Currents []logic.Sample
	Voltages []logic.Sample
	Shunt    []int16

	ci, vi, si int

	// CurrentReads and VoltageReads count calls.
	CurrentReads int
	VoltageReads int

	// Reinits counts calls to Reinit.
	Reinits int

	// ReinitError, if set, will be returned by Reinit.
	ReinitError error
}

// NewFake creates a sensor that always reads the given current and voltage.
func NewFake(current, voltage logic.Sample) *Fake {
	return &Fake{
		Currents: []logic.Sample{current},
		Voltages: []logic.Sample{voltage},
	}
}

// ReadCurrent returns the next scripted current.
func (f *Fake) ReadCurrent() logic.Sample {
	f.CurrentReads++
	if len(f.Currents) == 0 {
		return logic.Invalid
	}
	s := f.Currents[f.ci%len(f.Currents)]
	f.ci++
	return s
}

// ReadVoltage returns the next scripted voltage.
func (f *Fake) ReadVoltage() logic.Sample {
	f.VoltageReads++
	if len(f.Voltages) == 0 {
		return logic.Invalid
	}
	s := f.Voltages[f.vi%len(f.Voltages)]
	f.vi++
	return s
}

// ReadShuntRaw returns the next scripted raw shunt value.
func (f *Fake) ReadShuntRaw() (int16, error) {
	if f.si >= len(f.Shunt) {
		return 0, ErrNoSamples
	}
	v := f.Shunt[f.si]
	f.si++
	return v, nil
}

// Reinit records the call.
func (f *Fake) Reinit() error {
	f.Reinits++
	return f.ReinitError
}

// Reads returns the number of sample reads of either quantity.
func (f *Fake) Reads() int {
	return f.CurrentReads + f.VoltageReads
}
