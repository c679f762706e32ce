package firmware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/usbamps/internal/display"
	"github.com/sweeney/usbamps/internal/gpio"
	"github.com/sweeney/usbamps/internal/store"
)

const calibrated uint16 = 20

func TestBootFirstRunBlinksForever(t *testing.T) {
	r := newRig(t, store.Unset, []gpio.Sample{released}, nil)

	stage, err := r.bootFor(t, 20)
	assert.Equal(t, StageFirstRun, stage)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []uint16{store.Pending}, r.slot.Saves)
	assert.Equal(t, 0, r.sensor.Reads(), "no measurement on first run")
	assert.Equal(t, 0, r.cal.calls)

	// Settle for 3 ticks, then clear and loading alternate every 3 ticks.
	assert.Equal(t, 3, r.display.Count("Clear"))
	assert.Equal(t, 4, r.display.Count("Loading"))
	assert.Equal(t, 21, r.wd.Services, "watchdog serviced at boot and on every tick")
	assert.Equal(t, "first-run", r.tracker.Snapshot().Stage)
	assert.Equal(t, "unset", r.tracker.Snapshot().Calibration)
}

func TestBootFirstRunSavesAfterSettle(t *testing.T) {
	r := newRig(t, store.Unset, nil, nil)

	_, err := r.bootFor(t, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.slot.Saves, "short power blips do not mark the slot")
}

func TestBootPendingCalibratesOnce(t *testing.T) {
	samples := concat(repeat(both, 3), []gpio.Sample{released})
	r := newRig(t, store.Pending, samples, nil)

	stage, ticks, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageCalibration, stage)
	assert.Equal(t, 6, ticks, "3 ticks until release, 3 ticks settle")

	assert.Equal(t, 1, r.cal.calls)
	assert.Equal(t, 2, r.sensor.Reinits, "init and reinit after calibration")
	assert.Equal(t, 0, r.sensor.Reads())
	assert.Equal(t, []string{display.TextLoading, display.TextCalibrating}, r.display.Texts())
	assert.Equal(t, "calibration", r.tracker.Snapshot().Stage)
}

func TestBootManualCalibration(t *testing.T) {
	samples := []gpio.Sample{both, both, inner, inner, released}
	r := newRig(t, calibrated, samples, nil)

	stage, ticks, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageManualCalibration, stage)
	assert.Equal(t, 1, ticks)
	assert.Equal(t, 1, r.cal.calls)
	assert.Equal(t, 2, r.sensor.Reinits)
	assert.Equal(t, 1, r.display.Count("Calibrating"))
}

func TestBootManualCalibrationCancelled(t *testing.T) {
	// Both released together: no calibration.
	r := newRig(t, calibrated, []gpio.Sample{both, released}, nil)

	stage, _, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageNormal, stage)
	assert.Equal(t, 0, r.cal.calls)
	assert.Equal(t, 0, r.display.Count("Calibrating"))
}

func TestBootHighPower(t *testing.T) {
	samples := []gpio.Sample{inner, inner, inner, released}
	r := newRig(t, calibrated, samples, nil)

	stage, ticks, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageHighPower, stage)
	assert.Equal(t, 2, ticks)
	assert.Equal(t, []bool{true}, r.dshort.Levels, "short stays on")
	assert.Equal(t, 1, r.display.Count("HighPower"))
	assert.Equal(t, 0, r.cal.calls)
}

func TestBootHighPowerReleaseTimeout(t *testing.T) {
	r := newRig(t, calibrated, []gpio.Sample{inner}, nil)

	stage, ticks, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageHighPower, stage)
	assert.Equal(t, 10, ticks, "gives up after one second")
	assert.GreaterOrEqual(t, r.warnings(), 1)
}

func TestBootHighPowerWaitsForever(t *testing.T) {
	r := newRig(t, calibrated, []gpio.Sample{inner}, func(s *Settings) {
		s.ReleaseTimeout = 0
	})

	stage, err := r.bootFor(t, 30)
	assert.Equal(t, StageHighPower, stage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBootChargingDownstream(t *testing.T) {
	samples := []gpio.Sample{outer, outer, released}
	r := newRig(t, calibrated, samples, func(s *Settings) {
		s.CDPEnabled = true
	})

	stage, ticks, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageChargingDownstream, stage)
	assert.Equal(t, 3, ticks, "2 ticks pulse, 1 tick until release")
	assert.Equal(t, []bool{true, false}, r.dshort.Levels)
	assert.Equal(t, 1, r.display.Count("HighPower"))
}

func TestBootOuterWithoutChargingDownstream(t *testing.T) {
	r := newRig(t, calibrated, []gpio.Sample{outer}, nil)

	stage, ticks, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageNormal, stage)
	assert.Equal(t, 0, ticks)
	assert.Empty(t, r.dshort.Levels)
}

func TestBootNormal(t *testing.T) {
	r := newRig(t, calibrated, []gpio.Sample{released}, nil)

	stage, ticks, err := r.boot(t, 50)
	require.NoError(t, err)
	assert.Equal(t, StageNormal, stage)
	assert.Equal(t, 0, ticks)
	assert.Equal(t, 1, r.sensor.Reinits)
	assert.Equal(t, []string{display.TextLoading}, r.display.Texts())

	snap := r.tracker.Snapshot()
	assert.Equal(t, "normal", snap.Stage)
	assert.Equal(t, "calibrated", snap.Calibration)
}

func TestBootCorruptSlotIsUnset(t *testing.T) {
	r := newRig(t, calibrated, nil, nil)
	r.slot.LoadError = fmt.Errorf("read: %w", store.ErrCorrupt)

	stage, err := r.bootFor(t, 4)
	assert.Equal(t, StageFirstRun, stage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint16{store.Pending}, r.slot.Saves)
	assert.GreaterOrEqual(t, r.warnings(), 1)
}

func TestBootErrors(t *testing.T) {
	t.Run("sensor init", func(t *testing.T) {
		r := newRig(t, calibrated, nil, nil)
		r.sensor.ReinitError = errors.New("no ack")
		_, _, err := r.boot(t, 5)
		assert.ErrorContains(t, err, "init sensor")
	})

	t.Run("slot load", func(t *testing.T) {
		r := newRig(t, calibrated, nil, nil)
		r.slot.LoadError = errors.New("io error")
		_, _, err := r.boot(t, 5)
		assert.ErrorContains(t, err, "load calibration slot")
	})

	t.Run("mark pending", func(t *testing.T) {
		r := newRig(t, store.Unset, nil, nil)
		r.slot.SaveError = errors.New("read-only")
		stage, ticks, err := r.boot(t, 5)
		assert.Equal(t, StageFirstRun, stage)
		assert.Equal(t, 3, ticks)
		assert.ErrorContains(t, err, "mark calibration pending")
	})

	t.Run("calibration", func(t *testing.T) {
		r := newRig(t, store.Pending, []gpio.Sample{released}, nil)
		r.cal.err = errors.New("unstable")
		_, _, err := r.boot(t, 5)
		assert.ErrorContains(t, err, "calibrate")
		assert.Equal(t, 1, r.sensor.Reinits, "no reinit after a failed calibration")
	})

	t.Run("data line short", func(t *testing.T) {
		r := newRig(t, calibrated, []gpio.Sample{inner}, nil)
		r.dshort.SetError = errors.New("busy")
		_, _, err := r.boot(t, 5)
		assert.ErrorContains(t, err, "short data lines")
	})
}

func TestBootButtonReadErrorCountsAsReleased(t *testing.T) {
	r := newRig(t, calibrated, nil, nil)
	r.buttons.ReadError = errors.New("line busy")

	stage, _, err := r.boot(t, 5)
	require.NoError(t, err)
	assert.Equal(t, StageNormal, stage)
	assert.GreaterOrEqual(t, r.warnings(), 1)
}

func TestBootDisplayFailureIsNotFatal(t *testing.T) {
	r := newRig(t, calibrated, []gpio.Sample{released}, nil)
	r.display.Err = errors.New("bus stuck")

	stage, _, err := r.boot(t, 5)
	require.NoError(t, err)
	assert.Equal(t, StageNormal, stage)
	assert.GreaterOrEqual(t, r.warnings(), 1)
}

func TestBootCancelledDuringCalibrationWait(t *testing.T) {
	r := newRig(t, store.Pending, []gpio.Sample{both}, nil)

	stage, err := r.bootFor(t, 25)
	assert.Equal(t, StageCalibration, stage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, r.cal.calls, "calibration waits never time out")
}
