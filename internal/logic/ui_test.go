package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultUI() *UI {
	return NewUI(UIConfig{Policy: ResetReseed, BlinkOnMinMax: true, BlinkCycles: 12})
}

func TestUIInitialMode(t *testing.T) {
	u := defaultUI()
	assert.Equal(t, Mode{Unit: UnitCurrent, Stat: StatAvg}, u.Mode())
	assert.Equal(t, 3, u.Units())
}

func TestUIShortOuterCyclesUnitsAndResetsStat(t *testing.T) {
	u := defaultUI()
	u.Short(ButtonInner)
	u.Short(ButtonInner)
	assert.Equal(t, StatMin, u.Mode().Stat)

	assert.Equal(t, Mode{Unit: UnitVoltage, Stat: StatAvg}, u.Short(ButtonOuter))
	assert.Equal(t, Mode{Unit: UnitPower, Stat: StatAvg}, u.Short(ButtonOuter))
	assert.Equal(t, Mode{Unit: UnitCurrent, Stat: StatAvg}, u.Short(ButtonOuter))
}

func TestUIShortOuterWithCapacity(t *testing.T) {
	u := NewUI(UIConfig{ShowCapacity: true, BlinkCycles: 12})
	assert.Equal(t, 4, u.Units())

	var units []Unit
	for i := 0; i < 4; i++ {
		units = append(units, u.Short(ButtonOuter).Unit)
	}
	assert.Equal(t, []Unit{UnitVoltage, UnitPower, UnitCapacity, UnitCurrent}, units)
}

func TestUIShortInnerCyclesStatKeepsUnit(t *testing.T) {
	u := defaultUI()
	u.Short(ButtonOuter)

	assert.Equal(t, Mode{Unit: UnitVoltage, Stat: StatMax}, u.Short(ButtonInner))
	assert.Equal(t, Mode{Unit: UnitVoltage, Stat: StatMin}, u.Short(ButtonInner))
	assert.Equal(t, Mode{Unit: UnitVoltage, Stat: StatAvg}, u.Short(ButtonInner))
}

func TestUIShortBothIsNeutral(t *testing.T) {
	u := defaultUI()
	u.Short(ButtonOuter)
	u.Short(ButtonInner)
	before := u.Mode()

	assert.Equal(t, before, u.Short(ButtonBoth))
}

func TestUIPreviewDoesNotCommit(t *testing.T) {
	u := defaultUI()

	m, ok := u.Preview(ButtonOuter)
	assert.True(t, ok)
	assert.Equal(t, Mode{Unit: UnitVoltage, Stat: StatAvg}, m)

	m, ok = u.Preview(ButtonInner)
	assert.True(t, ok)
	assert.Equal(t, Mode{Unit: UnitCurrent, Stat: StatMax}, m)

	_, ok = u.Preview(ButtonBoth)
	assert.False(t, ok)

	assert.Equal(t, Mode{Unit: UnitCurrent, Stat: StatAvg}, u.Mode())
}

func TestUILongReseedPolicy(t *testing.T) {
	u := defaultUI()
	assert.Equal(t, ActionClear, u.Long(ButtonOuter))
	assert.Equal(t, ActionResetStats, u.Long(ButtonInner))
	assert.Equal(t, ActionRedraw, u.Long(ButtonBoth))
	assert.Equal(t, ResetReseed, u.Policy())
	assert.Equal(t, Mode{}, u.Mode(), "long presses never change the mode")
}

func TestUILongInvalidatePolicy(t *testing.T) {
	u := NewUI(UIConfig{Policy: ResetInvalidate, BlinkCycles: 12})
	assert.Equal(t, ActionRedraw, u.Long(ButtonOuter))
	assert.Equal(t, ActionRedraw, u.Long(ButtonInner))
	assert.Equal(t, ActionResetStats, u.Long(ButtonBoth))
	assert.Equal(t, ResetInvalidate, u.Policy())
}

func TestUIIdleNoBlinkOnAvg(t *testing.T) {
	u := defaultUI()
	for i := 0; i < 30; i++ {
		assert.True(t, u.Idle(), "tick %d", i)
	}
}

func TestUIIdleBlinksOnMinMax(t *testing.T) {
	u := defaultUI()
	u.Short(ButtonInner)

	var hidden []int
	for i := 1; i <= 36; i++ {
		if !u.Idle() {
			hidden = append(hidden, i)
		}
	}
	assert.Equal(t, []int{12, 24, 36}, hidden)
}

func TestUIIdleBlinkDisabled(t *testing.T) {
	u := NewUI(UIConfig{BlinkOnMinMax: false, BlinkCycles: 12})
	u.Short(ButtonInner)
	for i := 0; i < 24; i++ {
		assert.True(t, u.Idle())
	}
}
