package firmware

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/usbamps/internal/logic"
)

// Run executes one loop iteration per tick until ctx is cancelled or the
// tick channel is closed.
func (f *Firmware) Run(ctx context.Context) error {
	f.Log.Infof("Measuring: %s", f.ui.Mode())
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-f.Tick:
			if !ok {
				return nil
			}
			f.step()
		}
	}
}

func (f *Firmware) step() {
	f.service()
	f.Engine.Sample(f.Sensor)
	f.charge.Add(f.Engine.Stats(logic.QuantityCurrent).Avg, f.set.Interval)
	f.sinceHeartbeat++
	defer f.publish()

	outer, inner, err := f.Buttons.Read()
	if err != nil {
		f.Log.Warnf("Button read failed: %v", err)
		if !f.classifier.Active() {
			f.idle()
		}
		return
	}

	p := f.classifier.Process(logic.Mask(outer, inner))
	switch p.Kind {
	case logic.PressNone:
		f.idle()
	case logic.PressPending:
		if m, ok := f.ui.Preview(p.Mask); ok {
			f.show(f.Display.UnitAndType(m))
			f.previewed = true
		} else if f.previewed {
			// A second button joined: the preview no longer applies.
			f.show(f.Display.UnitAndType(f.ui.Mode()))
			f.previewed = false
		}
	case logic.PressShort:
		f.previewed = false
		m := f.ui.Short(p.Mask)
		if p.Mask == logic.ButtonBoth {
			f.show(f.Display.UnitAndType(m))
		}
		f.Log.Debugf("Short %s press, showing %s", p.Mask, m)
	case logic.PressLong:
		f.previewed = false
		f.long(f.ui.Long(p.Mask), p.Mask)
	case logic.PressHeld:
	}
}

func (f *Firmware) idle() {
	if f.ui.Idle() {
		f.showMeasurement()
	} else {
		f.show(f.Display.Clear())
	}

	if f.set.HeartbeatCycles > 0 && f.sinceHeartbeat >= f.set.HeartbeatCycles {
		f.sinceHeartbeat = 0
		f.heartbeat()
	}
}

func (f *Firmware) showMeasurement() {
	m := f.ui.Mode()
	switch m.Unit {
	case logic.UnitCurrent:
		f.show(f.Display.MilliValue(f.Engine.Value(m)))
	case logic.UnitCapacity:
		f.show(f.Display.Charge(f.charge.MilliAmpHours()))
	default:
		f.show(f.Display.Value(f.Engine.Value(m)))
	}
}

func (f *Firmware) long(a logic.Action, mask logic.ButtonMask) {
	f.Log.Debugf("Long %s press: %s", mask, a)
	switch a {
	case logic.ActionClear:
		f.show(f.Display.Clear())
	case logic.ActionResetStats:
		f.show(f.Display.StatsReset())
		f.Engine.Reset(f.ui.Policy())
		f.charge.Reset()
		f.Log.Infof("Statistics reset (%s)", f.ui.Policy())
	case logic.ActionRedraw:
		f.show(f.Display.UnitAndType(f.ui.Mode()))
	}
}

func (f *Firmware) heartbeat() {
	current := f.Engine.Stats(logic.QuantityCurrent)
	voltage := f.Engine.Stats(logic.QuantityVoltage)
	power := f.Engine.Stats(logic.QuantityPower)
	f.Log.WithFields(logrus.Fields{
		"mode":       f.ui.Mode().String(),
		"current_ma": current.Avg.String(),
		"voltage_mv": voltage.Avg.String(),
		"power_mw":   power.Avg.String(),
		"charge_mah": f.charge.MilliAmpHours(),
	}).Info("Heartbeat")
}
