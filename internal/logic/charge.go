package logic

import "time"

// Charge integrates the average current over loop ticks.
// Time comes from the tick period, not a clock.
type Charge struct {
	milliAmpMillis uint64
}

// Add accumulates one tick of the given average current. Invalid is skipped.
func (c *Charge) Add(current Sample, tick time.Duration) {
	v, ok := current.Value()
	if !ok || tick <= 0 {
		return
	}
	c.milliAmpMillis += uint64(v) * uint64(tick.Milliseconds())
}

// MilliAmpHours returns the accumulated charge in mAh, truncated.
func (c *Charge) MilliAmpHours() uint32 {
	mah := c.milliAmpMillis / uint64(time.Hour.Milliseconds())
	if mah > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(mah)
}

// Reset clears the accumulated charge.
func (c *Charge) Reset() {
	c.milliAmpMillis = 0
}
