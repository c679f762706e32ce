// Command usbamps runs the USB power meter: it samples an INA219 over I2C,
// keeps running statistics and drives a four digit display from two buttons.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/sweeney/usbamps/internal/config"
	"github.com/sweeney/usbamps/internal/display"
	"github.com/sweeney/usbamps/internal/firmware"
	"github.com/sweeney/usbamps/internal/gpio"
	"github.com/sweeney/usbamps/internal/logic"
	"github.com/sweeney/usbamps/internal/sensor"
	"github.com/sweeney/usbamps/internal/status"
	"github.com/sweeney/usbamps/internal/store"
	"github.com/sweeney/usbamps/internal/watchdog"
)

var version = "No version provided"

var log = logrus.New()

type argSpec struct {
	Config     string `arg:"-c, --config" default:"/etc/usbamps/config.yaml" help:"Path to the YAML configuration"`
	LogLevel   string `arg:"-l, --log-level" help:"Override the configured logging level (debug, info, warn, error)"`
	PrintState bool   `arg:"--print-state" help:"Print the calibration state and configuration as JSON, then exit"`
	Timestamps bool   `arg:"--timestamps" help:"Prefix log lines with the time"`
}

func (argSpec) Version() string {
	return version
}

func procArgs() argSpec {
	args := argSpec{}
	arg.MustParse(&args)
	return args
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		log.Warn("Unknown log level, defaulting to info")
	}
}

type customFormatter struct {
	timestamps bool
}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	if f.timestamps {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05.000 "))
	}
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(entry.Level.String()), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteString("\n")
	return []byte(b.String()), nil
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err.Error())
	}
}

func runMain() error {
	args := procArgs()
	log.SetFormatter(&customFormatter{timestamps: args.Timestamps})

	cfg, err := config.Load(args.Config)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if args.LogLevel != "" {
		level = args.LogLevel
	}
	setLogLevel(level)

	settings, err := firmware.NewSettings(cfg)
	if err != nil {
		return err
	}
	slot := store.NewFile(cfg.Store.Path)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))

	if args.PrintState {
		return printState(os.Stdout, slot, tracker)
	}

	log.Info("Running version: ", version)

	hw, err := openHardware(cfg, slot)
	if err != nil {
		return err
	}
	defer hw.Close()

	ticker := time.NewTicker(cfg.Sampling.Interval)
	defer ticker.Stop()

	fw := firmware.New(firmware.Deps{
		Engine:     logic.NewEngine(cfg.Sampling.AverageCount),
		Sensor:     hw.sensor,
		Buttons:    hw.buttons,
		DShort:     hw.dshort,
		Display:    hw.display,
		Slot:       slot,
		Calibrator: sensor.NewZeroCalibrator(hw.sensor, slot, cfg.Sensor.CalibrationSamples, log),
		Watchdog:   hw.watchdog,
		Tracker:    tracker,
		Log:        log,
		Tick:       ticker.C,
	}, settings)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigCh)
	go handleSignals(sigCh, tracker, cancel)

	return run(ctx, fw)
}

// run boots the firmware and measures until ctx is cancelled. Cancellation
// at any point, including the endless first-run blink, is a clean exit.
func run(ctx context.Context, fw *firmware.Firmware) error {
	stage, err := fw.Boot(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, firmware.ErrStopped) {
			log.Infof("Stopped during %s boot", stage)
			return nil
		}
		return fmt.Errorf("boot: %w", err)
	}
	return fw.Run(ctx)
}

// handleSignals logs a status line on SIGUSR1 and cancels on SIGINT or
// SIGTERM, logging a final status line first.
func handleSignals(sig <-chan os.Signal, tracker *status.Tracker, cancel context.CancelFunc) {
	for s := range sig {
		if s == syscall.SIGUSR1 {
			log.Info(string(status.FormatStatusEvent(tracker.Snapshot(), "STATUS", "")))
			continue
		}
		name := signalName(s)
		log.Infof("Received %s, shutting down", name)
		log.Info(string(status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", name)))
		cancel()
		return
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGUSR1:
		return "SIGUSR1"
	default:
		return "UNKNOWN"
	}
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		AverageCount:    cfg.Sampling.AverageCount,
		IntervalMs:      cfg.Sampling.Interval.Milliseconds(),
		LongPressCycles: cfg.Buttons.LongPressCycles,
		Policy:          cfg.UI.LongPressPolicy,
		Display:         cfg.Display.Driver,
	}
}

// printState writes the calibration slot state and configuration without
// touching any hardware.
func printState(w io.Writer, slot store.Slot, tracker *status.Tracker) error {
	v, err := slot.Load()
	switch {
	case errors.Is(err, store.ErrCorrupt):
		tracker.SetCalibration("corrupt")
	case err != nil:
		return fmt.Errorf("load calibration slot: %w", err)
	default:
		tracker.SetCalibration(store.Describe(v))
	}

	if _, err := w.Write(append(status.FormatJSON(tracker.Snapshot()), '\n')); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

type hardware struct {
	sensor   *sensor.INA219
	display  display.Display
	buttons  gpio.Reader
	dshort   gpio.Switch
	watchdog watchdog.Watchdog
	closers  []func() error
}

func openHardware(cfg *config.Config, slot store.Slot) (_ *hardware, err error) {
	hw := &hardware{watchdog: watchdog.Nop{}}
	defer func() {
		if err != nil {
			hw.Close()
		}
	}()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	bus, err := i2creg.Open(cfg.Sensor.Bus)
	if err != nil {
		return nil, fmt.Errorf("open sensor bus: %w", err)
	}
	hw.closers = append(hw.closers, bus.Close)
	hw.sensor = sensor.NewINA219(&i2c.Dev{Bus: bus, Addr: cfg.Sensor.Address}, slot, cfg.Sensor.ShuntMilliOhms, log)

	switch cfg.Display.Driver {
	case "log":
		hw.display = display.NewText(display.NewLog(log), cfg.UI.ThreeDigitMilliamps)
	default:
		displayBus := i2c.Bus(bus)
		if cfg.Display.Bus != cfg.Sensor.Bus {
			b, err := i2creg.Open(cfg.Display.Bus)
			if err != nil {
				return nil, fmt.Errorf("open display bus: %w", err)
			}
			hw.closers = append(hw.closers, b.Close)
			displayBus = b
		}
		dev, err := display.NewHT16K33(&i2c.Dev{Bus: displayBus, Addr: cfg.Display.Address}, cfg.Display.Brightness)
		if err != nil {
			return nil, fmt.Errorf("init display: %w", err)
		}
		hw.closers = append(hw.closers, dev.Close)
		hw.display = display.NewText(dev, cfg.UI.ThreeDigitMilliamps)
	}

	buttons, err := gpio.NewRealReader(cfg.Buttons.Chip, cfg.Buttons.OuterPin, cfg.Buttons.InnerPin)
	if err != nil {
		return nil, fmt.Errorf("init buttons: %w", err)
	}
	hw.closers = append(hw.closers, buttons.Close)
	hw.buttons = buttons

	dshort, err := gpio.NewRealSwitch(cfg.Buttons.Chip, cfg.Startup.DShortPin)
	if err != nil {
		return nil, fmt.Errorf("init data-line short: %w", err)
	}
	hw.closers = append(hw.closers, dshort.Close)
	hw.dshort = dshort

	if cfg.Watchdog.Device != "" {
		wd, err := watchdog.Open(cfg.Watchdog.Device)
		if err != nil {
			return nil, fmt.Errorf("open watchdog: %w", err)
		}
		hw.closers = append(hw.closers, wd.Close)
		hw.watchdog = wd
	}

	return hw, nil
}

// Close releases devices in reverse order of opening.
func (hw *hardware) Close() {
	for i := len(hw.closers) - 1; i >= 0; i-- {
		if err := hw.closers[i](); err != nil {
			log.Warnf("Close failed: %v", err)
		}
	}
	hw.closers = nil
}
