// Package gpio provides button input and the data-line switch with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "errors"

// ErrNotSupported is returned by the real implementation on non-Linux platforms.
var ErrNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Reader reads the two front-panel buttons.
type Reader interface {
	// Read returns the instantaneous pressed state of the outer and inner buttons.
	// Lines are active-low; the values returned are already logical.
	Read() (outer bool, inner bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// Switch drives a single output line.
type Switch interface {
	// Set drives the line to its active (true) or inactive (false) level.
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0.
const (
	DefaultChip      = "gpiochip0"
	DefaultPinOuter  = 17
	DefaultPinInner  = 27
	DefaultPinDShort = 22 // D+/D- short transistor
)
