// Package watchdog keeps the hardware watchdog from resetting the board
// while the firmware loop is alive.
package watchdog

import (
	"fmt"
	"os"
)

// Watchdog is serviced once per loop iteration.
type Watchdog interface {
	Service() error
}

// Device is a Linux watchdog character device such as /dev/watchdog.
// Opening it arms the timer; any write restarts it.
type Device struct {
	f *os.File
}

// Open arms the watchdog at path.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog %s: %w", path, err)
	}
	return &Device{f: f}, nil
}

// Service restarts the timer.
func (d *Device) Service() error {
	if _, err := d.f.Write([]byte{0}); err != nil {
		return fmt.Errorf("service watchdog: %w", err)
	}
	return nil
}

// Close disarms the watchdog with the magic close character. Drivers with
// nowayout set keep running and will reset the board.
func (d *Device) Close() error {
	_, werr := d.f.Write([]byte{'V'})
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("close watchdog: %w", err)
	}
	if werr != nil {
		return fmt.Errorf("disarm watchdog: %w", werr)
	}
	return nil
}

// Nop is used when no watchdog is configured.
type Nop struct{}

func (Nop) Service() error { return nil }

// Fake counts services for tests.
type Fake struct {
	Services int
	Err      error
}

func (f *Fake) Service() error {
	f.Services++
	return f.Err
}
