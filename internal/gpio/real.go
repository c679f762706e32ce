//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	outer *gpiocdev.Line
	inner *gpiocdev.Line
}

// NewRealReader requests the two button lines on the named chip.
func NewRealReader(chipName string, pinOuter, pinInner int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons pull the line to ground when pressed.
	outer, err := chip.RequestLine(pinOuter, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request outer pin %d: %w", pinOuter, err)
	}

	inner, err := chip.RequestLine(pinInner, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	if err != nil {
		outer.Close()
		chip.Close()
		return nil, fmt.Errorf("request inner pin %d: %w", pinInner, err)
	}

	return &RealReader{
		chip:  chip,
		outer: outer,
		inner: inner,
	}, nil
}

// Read returns the logical pressed state of both buttons.
func (r *RealReader) Read() (bool, bool, error) {
	outer, err := r.outer.Value()
	if err != nil {
		return false, false, fmt.Errorf("read outer pin: %w", err)
	}

	inner, err := r.inner.Value()
	if err != nil {
		return false, false, fmt.Errorf("read inner pin: %w", err)
	}

	return outer == 1, inner == 1, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error

	if r.outer != nil {
		if err := r.outer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close outer pin: %w", err))
		}
	}
	if r.inner != nil {
		if err := r.inner.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close inner pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealSwitch drives one output line, starting inactive.
type RealSwitch struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealSwitch requests pin on the named chip as an output driven low.
func NewRealSwitch(chipName string, pin int) (*RealSwitch, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}

	return &RealSwitch{chip: chip, line: line}, nil
}

// Set drives the line.
func (s *RealSwitch) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := s.line.SetValue(v); err != nil {
		return fmt.Errorf("set output pin: %w", err)
	}
	return nil
}

// Close returns the line to an input before releasing it, so the short is
// never left asserted by a stopped daemon.
func (s *RealSwitch) Close() error {
	var errs []error

	if s.line != nil {
		if err := s.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure output pin: %w", err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
