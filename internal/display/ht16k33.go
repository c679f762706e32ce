package display

import (
	"fmt"
	"unicode"
)

// HT16K33 commands.
const (
	ht16k33Oscillator = 0x21
	ht16k33DisplayOn  = 0x81
	ht16k33DisplayOff = 0x80
	ht16k33Brightness = 0xE0

	// DefaultHT16K33Address is the backpack address with no jumpers set.
	DefaultHT16K33Address = 0x70

	digits = 4
)

// digitRAM maps each digit to its display RAM address on a four digit
// backpack. Address 0x04 drives the colon, which is not used.
var digitRAM = [digits]int{0x00, 0x02, 0x06, 0x08}

// Segments in g-f-e-d-c-b-a order, dp in bit 7.
const (
	segA  byte = 1 << 0
	segB  byte = 1 << 1
	segC  byte = 1 << 2
	segD  byte = 1 << 3
	segE  byte = 1 << 4
	segF  byte = 1 << 5
	segG  byte = 1 << 6
	segDP byte = 1 << 7
)

var font = map[rune]byte{
	'0': segA | segB | segC | segD | segE | segF,
	'1': segB | segC,
	'2': segA | segB | segG | segE | segD,
	'3': segA | segB | segG | segC | segD,
	'4': segF | segG | segB | segC,
	'5': segA | segF | segG | segC | segD,
	'6': segA | segF | segE | segD | segC | segG,
	'7': segA | segB | segC,
	'8': segA | segB | segC | segD | segE | segF | segG,
	'9': segA | segB | segC | segD | segF | segG,
	'A': segA | segB | segC | segE | segF | segG,
	'C': segA | segF | segE | segD,
	'D': segB | segC | segD | segE | segG, // d
	'E': segA | segF | segG | segE | segD,
	'G': segA | segF | segE | segD | segC,
	'H': segF | segE | segG | segB | segC,
	'I': segB | segC,
	'L': segF | segE | segD,
	'O': segA | segB | segC | segD | segE | segF,
	'P': segA | segB | segG | segF | segE,
	'R': segE | segG, // r
	'S': segA | segF | segG | segC | segD,
	'T': segF | segE | segD | segG, // t
	'U': segB | segC | segD | segE | segF,
	'V': segC | segD | segE, // v
	' ': 0,
	'-': segG,
}

// Conn is the subset of a periph i2c.Dev used by the display.
type Conn interface {
	Tx(w, r []byte) error
}

// HT16K33 is a Writer on a four digit seven-segment backpack.
type HT16K33 struct {
	conn Conn
	buf  [1 + 2*(digits+1)]byte
}

// NewHT16K33 starts the oscillator, sets brightness (0-15) and blanks
// the display.
func NewHT16K33(conn Conn, brightness uint8) (*HT16K33, error) {
	if brightness > 15 {
		brightness = 15
	}
	d := &HT16K33{conn: conn}
	for _, cmd := range []byte{ht16k33Oscillator, ht16k33DisplayOn, ht16k33Brightness | brightness} {
		if err := conn.Tx([]byte{cmd}, nil); err != nil {
			return nil, fmt.Errorf("configure HT16K33: %w", err)
		}
	}
	if err := d.Show(""); err != nil {
		return nil, err
	}
	return d, nil
}

// Show writes text right-aligned. Characters outside the font are blank.
func (d *HT16K33) Show(text string) error {
	glyphs := Encode(text)
	for i := range d.buf {
		d.buf[i] = 0
	}
	for i, g := range glyphs {
		d.buf[1+digitRAM[i]] = g
	}
	if err := d.conn.Tx(d.buf[:], nil); err != nil {
		return fmt.Errorf("write HT16K33: %w", err)
	}
	return nil
}

// Close blanks and switches off the display.
func (d *HT16K33) Close() error {
	if err := d.Show(""); err != nil {
		return err
	}
	return d.conn.Tx([]byte{ht16k33DisplayOff}, nil)
}

// Encode converts text to segment patterns, one per digit. A '.' sets the
// decimal point of the preceding character. Text longer than the display
// is truncated, shorter text is right-aligned.
func Encode(text string) [digits]byte {
	var glyphs []byte
	for _, r := range text {
		if r == '.' {
			if len(glyphs) == 0 {
				glyphs = append(glyphs, 0)
			}
			glyphs[len(glyphs)-1] |= segDP
			continue
		}
		glyphs = append(glyphs, font[unicode.ToUpper(r)])
	}
	if len(glyphs) > digits {
		glyphs = glyphs[:digits]
	}

	var out [digits]byte
	copy(out[digits-len(glyphs):], glyphs)
	return out
}
