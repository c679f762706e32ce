// Package firmware runs the meter: the boot dispatch on the calibration slot
// and the buttons, then the sample/input/display loop. Everything happens on
// the goroutine calling Boot and Run, paced by an injected tick channel.
package firmware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/usbamps/internal/config"
	"github.com/sweeney/usbamps/internal/display"
	"github.com/sweeney/usbamps/internal/gpio"
	"github.com/sweeney/usbamps/internal/logic"
	"github.com/sweeney/usbamps/internal/status"
	"github.com/sweeney/usbamps/internal/store"
	"github.com/sweeney/usbamps/internal/watchdog"
)

// ErrStopped is returned by waits when the tick channel is closed.
var ErrStopped = errors.New("firmware: tick channel closed")

// Sensor yields readings and can be reinitialised after calibration.
type Sensor interface {
	logic.SampleReader
	Reinit() error
}

// Calibrator measures and persists the zero-current offset.
type Calibrator interface {
	Calibrate(ctx context.Context) error
}

// Deps are the collaborators the firmware drives.
type Deps struct {
	Engine     *logic.Engine
	Sensor     Sensor
	Buttons    gpio.Reader
	DShort     gpio.Switch
	Display    display.Display
	Slot       store.Slot
	Calibrator Calibrator
	Watchdog   watchdog.Watchdog
	Tracker    *status.Tracker // optional
	Log        logrus.FieldLogger
	Tick       <-chan time.Time
}

// Settings are the timing and behaviour options.
type Settings struct {
	Interval          time.Duration
	LongPressCycles   int
	UI                logic.UIConfig
	FirstRunSettle    time.Duration
	FirstRunBlink     time.Duration
	CalibrationSettle time.Duration
	ReleaseTimeout    time.Duration // 0 waits forever
	CDPEnabled        bool
	CDPDuration       time.Duration
	HeartbeatCycles   int // 0 disables
}

// NewSettings derives Settings from the daemon configuration.
func NewSettings(cfg *config.Config) (Settings, error) {
	policy, err := logic.ParseResetPolicy(cfg.UI.LongPressPolicy)
	if err != nil {
		return Settings{}, fmt.Errorf("ui.long_press_policy: %w", err)
	}
	return Settings{
		Interval:        cfg.Sampling.Interval,
		LongPressCycles: cfg.Buttons.LongPressCycles,
		UI: logic.UIConfig{
			ShowCapacity:  cfg.UI.ShowCapacity,
			Policy:        policy,
			BlinkOnMinMax: cfg.BlinkEnabled(),
			BlinkCycles:   cfg.UI.BlinkCycles,
		},
		FirstRunSettle:    cfg.Startup.FirstRunSettle,
		FirstRunBlink:     cfg.Startup.FirstRunBlink,
		CalibrationSettle: cfg.Startup.CalibrationSettle,
		ReleaseTimeout:    cfg.Startup.ReleaseTimeout,
		CDPEnabled:        cfg.Startup.CDPEnabled,
		CDPDuration:       cfg.Startup.CDPDuration,
		HeartbeatCycles:   cfg.Log.HeartbeatCycles,
	}, nil
}

// Firmware owns all meter state.
type Firmware struct {
	Deps
	set Settings

	classifier *logic.Classifier
	ui         *logic.UI
	charge     logic.Charge

	sinceHeartbeat int
	// previewed is set while a pending press shows a preview.
	previewed bool
}

// New creates the firmware in (Current, Avg) with no press in progress.
func New(d Deps, s Settings) *Firmware {
	if s.Interval <= 0 {
		s.Interval = 100 * time.Millisecond
	}
	if d.Watchdog == nil {
		d.Watchdog = watchdog.Nop{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &Firmware{
		Deps:       d,
		set:        s,
		classifier: logic.NewClassifier(s.LongPressCycles),
		ui:         logic.NewUI(s.UI),
	}
}

// Mode returns the displayed unit and statistic.
func (f *Firmware) Mode() logic.Mode {
	return f.ui.Mode()
}

// ChargeMilliAmpHours returns the accumulated charge.
func (f *Firmware) ChargeMilliAmpHours() uint32 {
	return f.charge.MilliAmpHours()
}

func (f *Firmware) service() {
	if err := f.Watchdog.Service(); err != nil {
		f.Log.Errorf("Watchdog service failed: %v", err)
	}
}

func (f *Firmware) show(err error) {
	if err != nil {
		f.Log.Warnf("Display update failed: %v", err)
	}
}

// pressed reads the buttons. A failed read counts as released.
func (f *Firmware) pressed() (outer, inner bool) {
	outer, inner, err := f.Buttons.Read()
	if err != nil {
		f.Log.Warnf("Button read failed: %v", err)
		return false, false
	}
	return outer, inner
}

func (f *Firmware) publish() {
	if f.Tracker == nil {
		return
	}
	f.Tracker.Update(status.Measurement{
		Mode:      f.ui.Mode(),
		Current:   f.Engine.Stats(logic.QuantityCurrent),
		Voltage:   f.Engine.Stats(logic.QuantityVoltage),
		Power:     f.Engine.Stats(logic.QuantityPower),
		ChargeMAh: f.charge.MilliAmpHours(),
	})
}
