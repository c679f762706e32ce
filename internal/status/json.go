package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/usbamps/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Stage         string       `json:"stage"`
	Calibration   string       `json:"calibration"`
	Mode          ModeJSON     `json:"mode"`
	Readings      ReadingsJSON `json:"readings"`
	ChargeMAh     uint32       `json:"charge_mah"`
	Cycles        uint64       `json:"cycles"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Config        ConfigJSON   `json:"config"`
}

// ModeJSON is the displayed unit and statistic.
type ModeJSON struct {
	Unit string `json:"unit"`
	Stat string `json:"stat"`
}

// ReadingsJSON holds the statistics of every quantity.
type ReadingsJSON struct {
	CurrentMA StatsJSON `json:"current_ma"`
	VoltageMV StatsJSON `json:"voltage_mv"`
	PowerMW   StatsJSON `json:"power_mw"`
}

// StatsJSON is one quantity. Missing readings are null.
type StatsJSON struct {
	Avg *uint16 `json:"avg"`
	Min *uint16 `json:"min"`
	Max *uint16 `json:"max"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	AverageCount    int    `json:"average_count"`
	IntervalMs      int64  `json:"interval_ms"`
	LongPressCycles int    `json:"long_press_cycles"`
	Policy          string `json:"long_press_policy"`
	Display         string `json:"display"`
}

func sampleJSON(s logic.Sample) *uint16 {
	v, ok := s.Value()
	if !ok {
		return nil
	}
	return &v
}

func statsJSON(s logic.Stats) StatsJSON {
	return StatsJSON{Avg: sampleJSON(s.Avg), Min: sampleJSON(s.Min), Max: sampleJSON(s.Max)}
}

func buildInner(snap Snapshot) StatusInner {
	stage := snap.Stage
	if stage == "" {
		stage = "booting"
	}
	calibration := snap.Calibration
	if calibration == "" {
		calibration = "unknown"
	}

	return StatusInner{
		Stage:       stage,
		Calibration: calibration,
		Mode:        ModeJSON{Unit: snap.Mode.Unit.String(), Stat: snap.Mode.Stat.String()},
		Readings: ReadingsJSON{
			CurrentMA: statsJSON(snap.Current),
			VoltageMV: statsJSON(snap.Voltage),
			PowerMW:   statsJSON(snap.Power),
		},
		ChargeMAh:     snap.ChargeMAh,
		Cycles:        snap.Cycles,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Config: ConfigJSON{
			AverageCount:    snap.Config.AverageCount,
			IntervalMs:      snap.Config.IntervalMs,
			LongPressCycles: snap.Config.LongPressCycles,
			Policy:          snap.Config.Policy,
			Display:         snap.Config.Display,
		},
	}
}

// FormatJSON returns the indented JSON status printed by --print-state.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the single-line JSON status logged for an event
// such as a status signal or shutdown.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
