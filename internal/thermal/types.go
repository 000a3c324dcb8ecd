package thermal

import (
	"encoding/json"
	"time"

	"github.com/kasard/thermactl/internal/errors"
)

// Level is a severity grade for a temperature reading. The ordering is
// load-bearing: escalation compares ordinals and the overall level is
// the maximum across sources.
type Level int

const (
	LevelNormal Level = iota
	LevelElevated
	LevelWarning
	LevelCritical
	LevelEmergency
)

var levelNames = map[Level]string{
	LevelNormal:    "NORMAL",
	LevelElevated:  "ELEVATED",
	LevelWarning:   "WARNING",
	LevelCritical:  "CRITICAL",
	LevelEmergency: "EMERGENCY",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return "UNKNOWN"
}

// MarshalJSON writes the level name so persisted entries stay
// self-describing.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	for level, levelName := range levelNames {
		if levelName == name {
			*l = level
			return nil
		}
	}

	errFactory := errors.New()

	return errFactory.WithData(ErrUnknownLevel, name)
}

// MaxLevel returns the more severe of two levels.
func MaxLevel(a, b Level) Level {
	if a > b {
		return a
	}

	return b
}

// Source classifies where a temperature reading came from.
type Source string

const (
	SourceCPU     Source = "CPU"
	SourceBattery Source = "BATTERY"
	SourceGPU     Source = "GPU"
	SourceSkin    Source = "SKIN"
	SourceUnknown Source = "UNKNOWN"
)

// Action is a protective measure that can be independently active or
// inactive. Applying an already-active action is a no-op.
type Action string

const (
	ActionReduceBitrate    Action = "REDUCE_BITRATE"
	ActionReduceResolution Action = "REDUCE_RESOLUTION"
	ActionReduceFramerate  Action = "REDUCE_FRAMERATE"
	ActionPauseStreaming   Action = "PAUSE_STREAMING"
	ActionDisableCharging  Action = "DISABLE_CHARGING"
	ActionAlertUser        Action = "ALERT_USER"
)

// Threshold binds a severity level to the temperature that triggers it,
// the actions the governor must hold active while at that level, and
// the cooling margin required before the level may be left again.
type Threshold struct {
	Level      Level
	TempC      float64
	Actions    []Action
	Hysteresis float64
}

// Status is an immutable point-in-time snapshot of the thermal state.
// The governor replaces it wholesale on every evaluation tick.
type Status struct {
	Timestamp       time.Time `json:"timestamp"`
	CPUTempC        float64   `json:"cpu_temp_c"`
	BatteryTempC    float64   `json:"battery_temp_c"`
	GPUTempC        float64   `json:"gpu_temp_c"`
	CPULevel        Level     `json:"cpu_level"`
	BatteryLevel    Level     `json:"battery_level"`
	OverallLevel    Level     `json:"overall_level"`
	ActiveActions   []Action  `json:"active_actions"`
	Throttling      bool      `json:"throttling"`
	BitrateCutPct   int       `json:"bitrate_cut_pct"`
	ResolutionCut   bool      `json:"resolution_cut"`
	FramerateCut    bool      `json:"framerate_cut"`
	StreamingPaused bool      `json:"streaming_paused"`
	ChargingHeld    bool      `json:"charging_held"`
	BatteryPercent  int       `json:"battery_percent"`
	BatteryCharging bool      `json:"battery_charging"`
}

// HistoryEntry is one periodic sample in the bounded history buffer.
// Levels here are instantaneous classifications for reporting, not the
// governor's hysteresis state.
type HistoryEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	CPUTempC     float64   `json:"cpu_temp_c"`
	BatteryTempC float64   `json:"battery_temp_c"`
	CPULevel     Level     `json:"cpu_level"`
	BatteryLevel Level     `json:"battery_level"`
}

// Event records a single level transition. Steady-state ticks never
// produce events.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	OldLevel  Level     `json:"old_level"`
	NewLevel  Level     `json:"new_level"`
	TempC     float64   `json:"temp_c"`
	Actions   []Action  `json:"actions_triggered"`
}
