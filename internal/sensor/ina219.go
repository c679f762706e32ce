// Package sensor reads load current and bus voltage from an INA219 and
// owns the zero-current calibration of its shunt.
package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/usbamps/internal/logic"
	"github.com/sweeney/usbamps/internal/store"
)

// INA219 registers.
const (
	regConfig  byte = 0x00
	regShunt   byte = 0x01
	regBus     byte = 0x02
	configInit      = 0x399F // 32V range, 320mV shunt range, 12-bit, continuous
)

// DefaultAddress is the INA219 address with A0 and A1 grounded.
const DefaultAddress = 0x40

// Conn is the subset of a periph i2c.Dev used by the sensor.
type Conn interface {
	Tx(w, r []byte) error
}

// INA219 is a SampleReader on an INA219 current sensor.
type INA219 struct {
	conn           Conn
	slot           store.Slot
	shuntMilliOhms int32
	offset         int16
	log            logrus.FieldLogger
}

// NewINA219 creates a sensor. Call Reinit before reading.
func NewINA219(conn Conn, slot store.Slot, shuntMilliOhms uint32, log logrus.FieldLogger) *INA219 {
	if shuntMilliOhms == 0 {
		shuntMilliOhms = 1
	}
	return &INA219{
		conn:           conn,
		slot:           slot,
		shuntMilliOhms: int32(shuntMilliOhms),
		log:            log,
	}
}

// Reinit configures the chip and reloads the shunt offset from the slot.
func (s *INA219) Reinit() error {
	if err := s.writeRegister(regConfig, configInit); err != nil {
		return fmt.Errorf("configure INA219: %w", err)
	}

	v, err := s.slot.Load()
	switch {
	case errors.Is(err, store.ErrCorrupt):
		s.log.Warnf("Ignoring calibration slot: %v", err)
		v = store.Unset
	case err != nil:
		return fmt.Errorf("load shunt offset: %w", err)
	}

	s.offset = 0
	if store.IsCalibrated(v) {
		s.offset = int16(v)
	}
	s.log.Debugf("INA219 ready, shunt offset %d", s.offset)
	return nil
}

// Offset returns the shunt offset in use.
func (s *INA219) Offset() int16 {
	return s.offset
}

// ReadShuntRaw returns the uncorrected shunt register (10uV per LSB).
func (s *INA219) ReadShuntRaw() (int16, error) {
	raw, err := s.readRegister(regShunt)
	if err != nil {
		return 0, fmt.Errorf("read shunt voltage: %w", err)
	}
	return int16(raw), nil
}

// ReadCurrent returns the load current in mA.
func (s *INA219) ReadCurrent() logic.Sample {
	raw, err := s.ReadShuntRaw()
	if err != nil {
		s.log.Debugf("Current reading dropped: %v", err)
		return logic.Invalid
	}
	// 10uV per LSB over a shunt in milliohms gives mA.
	ma := (int32(raw) - int32(s.offset)) * 10 / s.shuntMilliOhms
	if ma < 0 {
		ma = 0
	}
	if ma > int32(logic.MaxValue) {
		ma = int32(logic.MaxValue)
	}
	return logic.Valid(uint16(ma))
}

// ReadVoltage returns the bus voltage in mV.
func (s *INA219) ReadVoltage() logic.Sample {
	raw, err := s.readRegister(regBus)
	if err != nil {
		s.log.Debugf("Voltage reading dropped: %v", err)
		return logic.Invalid
	}
	if raw&0x01 != 0 {
		// Math overflow, the conversion is meaningless.
		return logic.Invalid
	}
	return logic.Valid((raw >> 3) * 4)
}

func (s *INA219) readRegister(reg byte) (uint16, error) {
	data := make([]byte, 2)
	if err := s.conn.Tx([]byte{reg}, data); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(data), nil
}

func (s *INA219) writeRegister(reg byte, v uint16) error {
	return s.conn.Tx([]byte{reg, byte(v >> 8), byte(v)}, nil)
}
