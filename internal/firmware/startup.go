package firmware

import (
	"context"
	"errors"
	"fmt"

	"github.com/sweeney/usbamps/internal/store"
)

// Stage is the boot path taken.
type Stage int

const (
	StageNormal Stage = iota
	// StageFirstRun marks the slot pending and blinks until power off.
	StageFirstRun
	// StageCalibration calibrates on the first boot after StageFirstRun.
	StageCalibration
	// StageManualCalibration is entered by holding both buttons at boot.
	StageManualCalibration
	// StageHighPower shorts the data lines for dumb chargers.
	StageHighPower
	// StageChargingDownstream pulses the data-line short at boot.
	StageChargingDownstream
)

func (s Stage) String() string {
	switch s {
	case StageNormal:
		return "normal"
	case StageFirstRun:
		return "first-run"
	case StageCalibration:
		return "calibration"
	case StageManualCalibration:
		return "manual-calibration"
	case StageHighPower:
		return "high-power"
	case StageChargingDownstream:
		return "charging-downstream"
	default:
		return "unknown"
	}
}

// Boot initialises the sensor and dispatches on the calibration slot and
// the buttons held at power on. StageFirstRun never finishes on its own:
// Boot then returns only with the context's error.
func (f *Firmware) Boot(ctx context.Context) (Stage, error) {
	f.service()
	if err := f.Sensor.Reinit(); err != nil {
		return StageNormal, fmt.Errorf("init sensor: %w", err)
	}
	f.show(f.Display.Loading())

	slot, err := f.Slot.Load()
	if errors.Is(err, store.ErrCorrupt) {
		f.Log.Warnf("Calibration slot unreadable, treating as unset: %v", err)
		slot, err = store.Unset, nil
	}
	if err != nil {
		return StageNormal, fmt.Errorf("load calibration slot: %w", err)
	}
	if f.Tracker != nil {
		f.Tracker.SetCalibration(store.Describe(slot))
	}

	stage, err := f.dispatch(ctx, slot)
	if f.Tracker != nil {
		f.Tracker.SetStage(stage.String())
	}
	if err == nil {
		f.Log.Infof("Boot complete: %s", stage)
	}
	return stage, err
}

func (f *Firmware) dispatch(ctx context.Context, slot uint16) (Stage, error) {
	switch slot {
	case store.Unset:
		return StageFirstRun, f.firstRun(ctx)
	case store.Pending:
		return StageCalibration, f.pendingCalibration(ctx)
	}

	outer, inner := f.pressed()
	switch {
	case outer && inner:
		return f.manualCalibration(ctx)
	case inner:
		return StageHighPower, f.highPower(ctx)
	case outer && f.set.CDPEnabled:
		return StageChargingDownstream, f.chargingDownstream(ctx)
	default:
		return StageNormal, nil
	}
}

// firstRun runs while the programmer is still attached. Short power blips are
// ignored, then the slot is marked so the next real power on calibrates.
func (f *Firmware) firstRun(ctx context.Context) error {
	if err := f.sleep(ctx, f.set.FirstRunSettle); err != nil {
		return err
	}
	if err := f.Slot.Save(store.Pending); err != nil {
		return fmt.Errorf("mark calibration pending: %w", err)
	}
	f.Log.Info("Calibration pending, power cycle without load to calibrate")

	for {
		f.show(f.Display.Clear())
		if err := f.sleep(ctx, f.set.FirstRunBlink); err != nil {
			return err
		}
		f.show(f.Display.Loading())
		if err := f.sleep(ctx, f.set.FirstRunBlink); err != nil {
			return err
		}
	}
}

func (f *Firmware) pendingCalibration(ctx context.Context) error {
	if _, err := f.waitUntil(ctx, 0, f.released); err != nil {
		return err
	}
	f.show(f.Display.Calibrating())
	if err := f.sleep(ctx, f.set.CalibrationSettle); err != nil {
		return err
	}
	return f.calibrate(ctx)
}

// manualCalibration needs the outer button released first while the inner
// one is still held. Releasing both together cancels it.
func (f *Firmware) manualCalibration(ctx context.Context) (Stage, error) {
	if _, err := f.waitUntil(ctx, 0, f.outerReleased); err != nil {
		return StageNormal, err
	}
	if _, inner := f.pressed(); !inner {
		return StageNormal, nil
	}

	f.show(f.Display.Calibrating())
	if _, err := f.waitUntil(ctx, 0, f.released); err != nil {
		return StageManualCalibration, err
	}
	return StageManualCalibration, f.calibrate(ctx)
}

func (f *Firmware) calibrate(ctx context.Context) error {
	if err := f.Calibrator.Calibrate(ctx); err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	if err := f.Sensor.Reinit(); err != nil {
		return fmt.Errorf("reinit sensor: %w", err)
	}
	return nil
}

func (f *Firmware) highPower(ctx context.Context) error {
	f.show(f.Display.HighPower())
	if err := f.DShort.Set(true); err != nil {
		return fmt.Errorf("short data lines: %w", err)
	}
	return f.waitRelease(ctx)
}

func (f *Firmware) chargingDownstream(ctx context.Context) error {
	f.show(f.Display.HighPower())
	if err := f.DShort.Set(true); err != nil {
		return fmt.Errorf("short data lines: %w", err)
	}
	if err := f.sleep(ctx, f.set.CDPDuration); err != nil {
		return err
	}
	if err := f.DShort.Set(false); err != nil {
		return fmt.Errorf("open data lines: %w", err)
	}
	return f.waitRelease(ctx)
}

func (f *Firmware) waitRelease(ctx context.Context) error {
	ok, err := f.waitUntil(ctx, f.set.ReleaseTimeout, f.released)
	if err != nil {
		return err
	}
	if !ok {
		f.Log.Warnf("Buttons still held after %v, continuing", f.set.ReleaseTimeout)
	}
	return nil
}
