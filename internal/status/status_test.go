package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/usbamps/internal/logic"
)

func measurement(avg uint16) Measurement {
	return Measurement{
		Mode:      logic.Mode{Unit: logic.UnitVoltage, Stat: logic.StatMax},
		Current:   logic.Stats{Avg: logic.Valid(avg), Min: logic.Valid(avg - 10), Max: logic.Valid(avg + 10)},
		Voltage:   logic.Stats{Avg: logic.Valid(5000), Min: logic.Valid(4990), Max: logic.Valid(5010)},
		ChargeMAh: 42,
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{AverageCount: 60, IntervalMs: 100, Policy: "reseed", Display: "ht16k33"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.AverageCount != 60 {
		t.Errorf("Config.AverageCount: got %d, want 60", snap.Config.AverageCount)
	}
	if snap.Cycles != 0 {
		t.Errorf("Cycles: got %d, want 0", snap.Cycles)
	}
	if snap.Stage != "" {
		t.Errorf("Stage: got %q, want empty", snap.Stage)
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetStage("normal")
	tr.SetCalibration("calibrated")
	tr.Update(measurement(500))
	tr.Update(measurement(600))

	snap := tr.Snapshot()
	if snap.Stage != "normal" {
		t.Errorf("Stage: got %q, want normal", snap.Stage)
	}
	if snap.Calibration != "calibrated" {
		t.Errorf("Calibration: got %q, want calibrated", snap.Calibration)
	}
	if snap.Current.Avg != logic.Valid(600) {
		t.Errorf("Current.Avg: got %v, want 600", snap.Current.Avg)
	}
	if snap.Mode.Unit != logic.UnitVoltage {
		t.Errorf("Mode.Unit: got %v, want voltage", snap.Mode.Unit)
	}
	if snap.Cycles != 2 {
		t.Errorf("Cycles: got %d, want 2", snap.Cycles)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(measurement(100))

	snap1 := tr.Snapshot()

	tr.Update(measurement(200))

	// snap1 should still reflect old state
	if snap1.Current.Avg != logic.Valid(100) {
		t.Error("snapshot should be a copy; Current was modified")
	}
	if snap1.Cycles != 1 {
		t.Error("snapshot should be a copy; Cycles was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Stage:       "normal",
		Calibration: "calibrated",
		Measurement: measurement(500),
		Cycles:      9000,
		StartTime:   start,
		Now:         start.Add(15 * time.Minute),
		Config:      Config{AverageCount: 60, IntervalMs: 100, LongPressCycles: 8, Policy: "reseed", Display: "log"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Stage != "normal" {
		t.Errorf("Stage: got %q, want normal", parsed.Status.Stage)
	}
	if parsed.Status.Mode.Unit != "voltage" || parsed.Status.Mode.Stat != "max" {
		t.Errorf("Mode: got %+v, want voltage/max", parsed.Status.Mode)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if got := parsed.Status.Readings.CurrentMA.Avg; got == nil || *got != 500 {
		t.Errorf("Readings.CurrentMA.Avg: got %v, want 500", got)
	}
	if parsed.Status.Readings.PowerMW.Avg != nil {
		t.Error("expected null power avg for an invalid reading")
	}
	if parsed.Status.ChargeMAh != 42 {
		t.Errorf("ChargeMAh: got %d, want 42", parsed.Status.ChargeMAh)
	}
	if parsed.Status.Config.Policy != "reseed" {
		t.Errorf("Config.Policy: got %q, want reseed", parsed.Status.Config.Policy)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.Stage != "booting" {
		t.Errorf("Stage: got %q, want booting", parsed.Status.Stage)
	}
	if parsed.Status.Calibration != "unknown" {
		t.Errorf("Calibration: got %q, want unknown", parsed.Status.Calibration)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Stage:     "normal",
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 1800 {
		t.Errorf("UptimeSeconds: got %d, want 1800", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STATUS", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STATUS" {
		t.Errorf("event: got %v, want STATUS", status["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(measurement(uint16(i + 10)))
			tr.SetStage("normal")
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
