// Package status provides a thread-safe snapshot of the meter for readers
// outside the firmware goroutine, such as the SIGUSR1 handler.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/usbamps/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	AverageCount    int
	IntervalMs      int64
	LongPressCycles int
	Policy          string
	Display         string
}

// Measurement is what the loop publishes on every tick.
type Measurement struct {
	Mode      logic.Mode
	Current   logic.Stats
	Voltage   logic.Stats
	Power     logic.Stats
	ChargeMAh uint32
}

// Snapshot is a point-in-time view of meter state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Stage       string
	Calibration string
	Measurement
	Cycles    uint64
	StartTime time.Time
	Now       time.Time
	Config    Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable meter state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update publishes the latest measurement and counts a loop cycle.
// Called from the main loop on every tick.
func (t *Tracker) Update(m Measurement) {
	t.mu.Lock()
	t.snap.Measurement = m
	t.snap.Cycles++
	t.mu.Unlock()
}

// SetStage records the boot stage.
func (t *Tracker) SetStage(stage string) {
	t.mu.Lock()
	t.snap.Stage = stage
	t.mu.Unlock()
}

// SetCalibration records the calibration slot state.
func (t *Tracker) SetCalibration(state string) {
	t.mu.Lock()
	t.snap.Calibration = state
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the meter state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
