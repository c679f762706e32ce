package display

import (
	"fmt"

	"github.com/sweeney/usbamps/internal/logic"
)

// TextInvalid is shown when there is no reading.
const TextInvalid = "----"

var unitLetters = map[logic.Unit]string{
	logic.UnitCurrent:  "A",
	logic.UnitVoltage:  "V",
	logic.UnitPower:    "P",
	logic.UnitCapacity: "C",
}

var statNames = map[logic.StatKind]string{
	logic.StatAvg: "AVG",
	logic.StatMax: "HI ",
	logic.StatMin: "LO ",
}

// FormatMode renders a unit letter with its decimal point followed by the
// statistic, for example "A.AVG" or "V.HI ". Capacity has no statistic.
func FormatMode(m logic.Mode) string {
	unit, ok := unitLetters[m.Unit]
	if !ok {
		unit = "-"
	}
	if m.Unit == logic.UnitCapacity {
		return unit + ".AH "
	}
	stat, ok := statNames[m.Stat]
	if !ok {
		stat = "---"
	}
	return unit + "." + stat
}

// FormatValue renders milli-units as units with four significant digits:
// "5.000", "12.34".
func FormatValue(v logic.Sample) string {
	n, ok := v.Value()
	if !ok {
		return TextInvalid
	}
	return thousands(uint32(n))
}

// FormatMilli renders a current. With threeDigit, 100 to 999 mA are shown
// as whole milliamps; smaller currents keep the decimal form.
func FormatMilli(v logic.Sample, threeDigit bool) string {
	n, ok := v.Value()
	if !ok {
		return TextInvalid
	}
	if threeDigit && n >= 100 && n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return thousands(uint32(n))
}

// FormatCharge renders accumulated charge in mAh, switching to Ah once it
// no longer fits four digits.
func FormatCharge(mAh uint32) string {
	if mAh < 10000 {
		return fmt.Sprintf("%d", mAh)
	}
	return thousands(mAh)
}

func thousands(n uint32) string {
	switch {
	case n < 10000:
		return fmt.Sprintf("%d.%03d", n/1000, n%1000)
	case n < 100000:
		return fmt.Sprintf("%d.%02d", n/1000, n%1000/10)
	case n < 1000000:
		return fmt.Sprintf("%d.%d", n/1000, n%1000/100)
	case n < 10000000:
		return fmt.Sprintf("%d", n/1000)
	default:
		return "9999"
	}
}
