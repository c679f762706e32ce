// Package store persists the single calibration offset slot.
//
// The slot holds a 16-bit value. The two highest values are reserved:
// Unset is what an erased slot reads as, Pending marks a device that has
// been power cycled once after programming and is due for calibration.
package store

import (
	"errors"
	"math"
)

const (
	// Unset is the value of a never-written slot.
	Unset uint16 = math.MaxUint16
	// Pending means calibration runs on the next boot.
	Pending uint16 = math.MaxUint16 - 1
)

// ErrCorrupt is returned when the stored slot fails its checksum.
var ErrCorrupt = errors.New("store: calibration slot checksum mismatch")

// Slot reads and writes the persisted calibration offset.
type Slot interface {
	Load() (uint16, error)
	Save(v uint16) error
}

// IsCalibrated reports whether v is a calibrated offset rather than a sentinel.
func IsCalibrated(v uint16) bool {
	return v != Unset && v != Pending
}

// Describe names the state a slot value represents.
func Describe(v uint16) string {
	switch v {
	case Unset:
		return "unset"
	case Pending:
		return "pending"
	default:
		return "calibrated"
	}
}
