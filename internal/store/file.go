package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sigurn/crc8"
)

// slotSize is the on-disk size: big-endian value followed by its CRC-8.
const slotSize = 3

var crcTable = crc8.MakeTable(crc8.CRC8)

// File is a Slot backed by a small file.
// A missing file reads as Unset, like an erased EEPROM.
type File struct {
	path string
}

// NewFile returns a slot stored at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the slot.
func (f *File) Load() (uint16, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Unset, nil
		}
		return 0, fmt.Errorf("read calibration slot: %w", err)
	}
	return decode(data)
}

// Save writes the slot atomically.
func (f *File) Save(v uint16) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create calibration slot dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, encode(v), 0644); err != nil {
		return fmt.Errorf("write calibration slot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace calibration slot: %w", err)
	}
	return nil
}

func encode(v uint16) []byte {
	buf := make([]byte, slotSize)
	binary.BigEndian.PutUint16(buf, v)
	buf[2] = crc8.Checksum(buf[:2], crcTable)
	return buf
}

func decode(data []byte) (uint16, error) {
	if len(data) != slotSize {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, slotSize, len(data))
	}
	if got, want := data[2], crc8.Checksum(data[:2], crcTable); got != want {
		return 0, fmt.Errorf("%w: received 0x%02X, calculated 0x%02X", ErrCorrupt, got, want)
	}
	return binary.BigEndian.Uint16(data[:2]), nil
}
