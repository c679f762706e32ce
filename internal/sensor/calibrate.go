package sensor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/usbamps/internal/store"
)

// ShuntReader yields uncorrected shunt readings.
type ShuntReader interface {
	ReadShuntRaw() (int16, error)
}

// ZeroCalibrator measures the shunt with no load and stores the mean as the
// offset subtracted from every later reading.
type ZeroCalibrator struct {
	src     ShuntReader
	slot    store.Slot
	samples int
	log     logrus.FieldLogger
}

// NewZeroCalibrator creates a calibrator averaging samples readings.
func NewZeroCalibrator(src ShuntReader, slot store.Slot, samples int, log logrus.FieldLogger) *ZeroCalibrator {
	if samples < 1 {
		samples = 1
	}
	return &ZeroCalibrator{src: src, slot: slot, samples: samples, log: log}
}

// Calibrate measures and persists the offset.
func (c *ZeroCalibrator) Calibrate(ctx context.Context) error {
	var sum int64
	for i := 0; i < c.samples; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := c.src.ReadShuntRaw()
		if err != nil {
			return fmt.Errorf("calibration reading %d: %w", i, err)
		}
		sum += int64(raw)
	}

	offset := int16(sum / int64(c.samples))
	if err := c.slot.Save(EncodeOffset(offset)); err != nil {
		return fmt.Errorf("save shunt offset: %w", err)
	}
	c.log.Infof("Calibrated shunt offset %d over %d readings", offset, c.samples)
	return nil
}

// EncodeOffset stores a signed offset in the slot. Offsets of -1 and -2
// collide with the slot sentinels and are stored as -3.
func EncodeOffset(offset int16) uint16 {
	v := uint16(offset)
	if !store.IsCalibrated(v) {
		v = store.Pending - 1
	}
	return v
}
