package firmware

import (
	"context"
	"time"
)

// ticksFor converts a duration to loop ticks, rounding up.
func (f *Firmware) ticksFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + f.set.Interval - 1) / f.set.Interval)
}

// await blocks for one tick and services the watchdog.
func (f *Firmware) await(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-f.Tick:
		if !ok {
			return ErrStopped
		}
	}
	f.service()
	return nil
}

// sleep waits d, counted in ticks.
func (f *Firmware) sleep(ctx context.Context, d time.Duration) error {
	for i := f.ticksFor(d); i > 0; i-- {
		if err := f.await(ctx); err != nil {
			return err
		}
	}
	return nil
}

// waitUntil spins on the tick until cond holds. A zero timeout waits
// forever; otherwise it reports false once the timeout has elapsed.
func (f *Firmware) waitUntil(ctx context.Context, timeout time.Duration, cond func() bool) (bool, error) {
	limit := f.ticksFor(timeout)
	for n := 0; !cond(); n++ {
		if limit > 0 && n >= limit {
			return false, nil
		}
		if err := f.await(ctx); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (f *Firmware) released() bool {
	outer, inner := f.pressed()
	return !outer && !inner
}

func (f *Firmware) outerReleased() bool {
	outer, _ := f.pressed()
	return !outer
}
