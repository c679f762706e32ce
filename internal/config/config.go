package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/usbamps/internal/display"
	"github.com/sweeney/usbamps/internal/gpio"
	"github.com/sweeney/usbamps/internal/sensor"
)

// Config represents the meter configuration.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Buttons  ButtonsConfig  `yaml:"buttons"`
	UI       UIConfig       `yaml:"ui"`
	Startup  StartupConfig  `yaml:"startup"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Display  DisplayConfig  `yaml:"display"`
	Store    StoreConfig    `yaml:"store"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Log      LogConfig      `yaml:"log"`
}

// SamplingConfig controls the averaging pass and the loop tick.
type SamplingConfig struct {
	AverageCount int           `yaml:"average_count"` // Readings per averaging pass
	Interval     time.Duration `yaml:"interval"`      // Loop tick period
}

// ButtonsConfig contains button wiring and press timing.
type ButtonsConfig struct {
	Chip            string `yaml:"chip"`
	OuterPin        int    `yaml:"outer_pin"`
	InnerPin        int    `yaml:"inner_pin"`
	LongPressCycles int    `yaml:"long_press_cycles"` // Ticks a press must exceed to count as long
}

// UIConfig contains display behaviour options.
type UIConfig struct {
	LongPressPolicy     string `yaml:"long_press_policy"` // "reseed" or "invalidate"
	BlinkOnMinMax       *bool  `yaml:"blink_on_min_max"`
	BlinkCycles         int    `yaml:"blink_cycles"`
	ThreeDigitMilliamps bool   `yaml:"three_digit_milliamps"` // Show 100-999 mA as "542" instead of "0.54"
	ShowCapacity        bool   `yaml:"show_capacity"`
}

// StartupConfig contains boot sequence timing and options.
type StartupConfig struct {
	FirstRunSettle    time.Duration `yaml:"first_run_settle"`
	FirstRunBlink     time.Duration `yaml:"first_run_blink"`
	CalibrationSettle time.Duration `yaml:"calibration_settle"`
	ReleaseTimeout    time.Duration `yaml:"release_timeout"` // 0 waits for button release forever
	CDPEnabled        bool          `yaml:"cdp_enabled"`     // Outer held at boot pulses the data-line short
	CDPDuration       time.Duration `yaml:"cdp_duration"`
	DShortPin         int           `yaml:"dshort_pin"`
}

// SensorConfig contains INA219 parameters.
type SensorConfig struct {
	Bus                string `yaml:"bus"` // periph bus name, empty for the first bus
	Address            uint16 `yaml:"address"`
	ShuntMilliOhms     uint32 `yaml:"shunt_milliohms"`
	CalibrationSamples int    `yaml:"calibration_samples"`
}

// DisplayConfig selects and configures the display.
type DisplayConfig struct {
	Driver     string `yaml:"driver"` // "ht16k33" or "log"
	Bus        string `yaml:"bus"`
	Address    uint16 `yaml:"address"`
	Brightness uint8  `yaml:"brightness"` // 0-15
}

// StoreConfig locates the persisted calibration slot.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// WatchdogConfig selects the hardware watchdog device.
type WatchdogConfig struct {
	Device string `yaml:"device"` // empty disables the watchdog
}

// LogConfig contains logging options.
type LogConfig struct {
	Level           string `yaml:"level"`
	HeartbeatCycles int    `yaml:"heartbeat_cycles"` // 0 disables periodic status lines
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	blink := true
	return &Config{
		Sampling: SamplingConfig{
			AverageCount: 60,
			Interval:     100 * time.Millisecond,
		},
		Buttons: ButtonsConfig{
			Chip:            gpio.DefaultChip,
			OuterPin:        gpio.DefaultPinOuter,
			InnerPin:        gpio.DefaultPinInner,
			LongPressCycles: 8,
		},
		UI: UIConfig{
			LongPressPolicy: "reseed",
			BlinkOnMinMax:   &blink,
			BlinkCycles:     12,
		},
		Startup: StartupConfig{
			FirstRunSettle:    250 * time.Millisecond,
			FirstRunBlink:     250 * time.Millisecond,
			CalibrationSettle: 250 * time.Millisecond,
			ReleaseTimeout:    time.Second,
			CDPDuration:       120 * time.Millisecond,
			DShortPin:         gpio.DefaultPinDShort,
		},
		Sensor: SensorConfig{
			Address:            sensor.DefaultAddress,
			ShuntMilliOhms:     100,
			CalibrationSamples: 64,
		},
		Display: DisplayConfig{
			Driver:     "ht16k33",
			Address:    display.DefaultHT16K33Address,
			Brightness: 8,
		},
		Store: StoreConfig{
			Path: "/var/lib/usbamps/calibration.bin",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BlinkEnabled reports whether min/max values blink.
func (c *Config) BlinkEnabled() bool {
	return c.UI.BlinkOnMinMax == nil || *c.UI.BlinkOnMinMax
}

// Validate rejects values the firmware cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.UI.LongPressPolicy {
	case "reseed", "invalidate":
	default:
		errs = append(errs, fmt.Errorf("ui.long_press_policy: unknown policy %q", c.UI.LongPressPolicy))
	}
	if c.UI.BlinkCycles < 2 {
		errs = append(errs, fmt.Errorf("ui.blink_cycles: must be at least 2, got %d", c.UI.BlinkCycles))
	}
	if c.Sampling.AverageCount < 1 {
		errs = append(errs, fmt.Errorf("sampling.average_count: must be positive, got %d", c.Sampling.AverageCount))
	}
	if c.Sampling.Interval <= 0 {
		errs = append(errs, fmt.Errorf("sampling.interval: must be positive, got %v", c.Sampling.Interval))
	}
	if c.Buttons.LongPressCycles < 1 {
		errs = append(errs, fmt.Errorf("buttons.long_press_cycles: must be positive, got %d", c.Buttons.LongPressCycles))
	}
	if c.Startup.ReleaseTimeout < 0 {
		errs = append(errs, fmt.Errorf("startup.release_timeout: must not be negative, got %v", c.Startup.ReleaseTimeout))
	}
	switch c.Display.Driver {
	case "ht16k33", "log":
	default:
		errs = append(errs, fmt.Errorf("display.driver: unknown driver %q", c.Display.Driver))
	}
	if c.Display.Brightness > 15 {
		errs = append(errs, fmt.Errorf("display.brightness: must be 0-15, got %d", c.Display.Brightness))
	}

	return errors.Join(errs...)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sampling.AverageCount == 0 {
		c.Sampling.AverageCount = def.Sampling.AverageCount
	}
	if c.Sampling.Interval == 0 {
		c.Sampling.Interval = def.Sampling.Interval
	}

	if c.Buttons.Chip == "" {
		c.Buttons.Chip = def.Buttons.Chip
	}
	if c.Buttons.LongPressCycles == 0 {
		c.Buttons.LongPressCycles = def.Buttons.LongPressCycles
	}

	if c.UI.LongPressPolicy == "" {
		c.UI.LongPressPolicy = def.UI.LongPressPolicy
	}
	if c.UI.BlinkOnMinMax == nil {
		c.UI.BlinkOnMinMax = def.UI.BlinkOnMinMax
	}
	if c.UI.BlinkCycles == 0 {
		c.UI.BlinkCycles = def.UI.BlinkCycles
	}

	if c.Startup.FirstRunSettle == 0 {
		c.Startup.FirstRunSettle = def.Startup.FirstRunSettle
	}
	if c.Startup.FirstRunBlink == 0 {
		c.Startup.FirstRunBlink = def.Startup.FirstRunBlink
	}
	if c.Startup.CalibrationSettle == 0 {
		c.Startup.CalibrationSettle = def.Startup.CalibrationSettle
	}
	if c.Startup.CDPDuration == 0 {
		c.Startup.CDPDuration = def.Startup.CDPDuration
	}

	if c.Sensor.Address == 0 {
		c.Sensor.Address = def.Sensor.Address
	}
	if c.Sensor.ShuntMilliOhms == 0 {
		c.Sensor.ShuntMilliOhms = def.Sensor.ShuntMilliOhms
	}
	if c.Sensor.CalibrationSamples == 0 {
		c.Sensor.CalibrationSamples = def.Sensor.CalibrationSamples
	}

	if c.Display.Driver == "" {
		c.Display.Driver = def.Display.Driver
	}
	if c.Display.Address == 0 {
		c.Display.Address = def.Display.Address
	}

	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
