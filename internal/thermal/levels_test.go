package thermal_test

import (
	"testing"

	"github.com/kasard/thermactl/internal/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cpuThresholds() []thermal.Threshold {
	return []thermal.Threshold{
		{Level: thermal.LevelElevated, TempC: 46, Hysteresis: 3},
		{Level: thermal.LevelWarning, TempC: 50, Hysteresis: 3, Actions: []thermal.Action{thermal.ActionReduceBitrate}},
		{Level: thermal.LevelCritical, TempC: 55, Hysteresis: 3, Actions: []thermal.Action{thermal.ActionReduceBitrate, thermal.ActionReduceResolution, thermal.ActionReduceFramerate}},
		{Level: thermal.LevelEmergency, TempC: 60, Hysteresis: 3, Actions: []thermal.Action{thermal.ActionPauseStreaming, thermal.ActionAlertUser}},
	}
}

func TestNextEscalationSequence(t *testing.T) {
	thresholds := cpuThresholds()

	temps := []float64{45, 48, 51, 53, 49, 46}
	want := []thermal.Level{
		thermal.LevelNormal,
		thermal.LevelElevated,
		thermal.LevelWarning,
		thermal.LevelWarning,
		thermal.LevelWarning,
		thermal.LevelElevated,
	}

	level := thermal.LevelNormal
	for i, temp := range temps {
		level = thermal.Next(thresholds, level, temp)
		assert.Equal(t, want[i], level, "tick %d at %.0f°C", i, temp)
	}
}

func TestNextMonotonicOnRisingTemps(t *testing.T) {
	thresholds := cpuThresholds()

	level := thermal.LevelNormal
	prev := thermal.LevelNormal
	for temp := 40.0; temp <= 65.0; temp++ {
		level = thermal.Next(thresholds, level, temp)
		assert.GreaterOrEqual(t, int(level), int(prev), "level dropped while temperature rose at %.0f°C", temp)
		prev = level
	}
	assert.Equal(t, thermal.LevelEmergency, level)
}

func TestNextHysteresisDeadBand(t *testing.T) {
	thresholds := cpuThresholds()

	// Enter WARNING at its 50°C trigger.
	level := thermal.Next(thresholds, thermal.LevelNormal, 51)
	require.Equal(t, thermal.LevelWarning, level)

	// Anything in [trigger-hysteresis, trigger) holds the level.
	for _, temp := range []float64{49.9, 48.5, 47.0} {
		level = thermal.Next(thresholds, level, temp)
		assert.Equal(t, thermal.LevelWarning, level, "expected dead-band hold at %.1f°C", temp)
	}

	// Below trigger-hysteresis drops to the highest still-met level.
	level = thermal.Next(thresholds, level, 46.9)
	assert.Equal(t, thermal.LevelElevated, level)
}

func TestNextNeverSkipsStillMetLevel(t *testing.T) {
	thresholds := cpuThresholds()

	level := thermal.Next(thresholds, thermal.LevelNormal, 61)
	require.Equal(t, thermal.LevelEmergency, level)

	// Cooling straight down from EMERGENCY lands on WARNING while its
	// trigger is still met, not on NORMAL.
	level = thermal.Next(thresholds, level, 52)
	assert.Equal(t, thermal.LevelWarning, level)
}

func TestNextEscalationIsImmediate(t *testing.T) {
	thresholds := cpuThresholds()

	level := thermal.Next(thresholds, thermal.LevelNormal, 62)
	assert.Equal(t, thermal.LevelEmergency, level, "escalation must not pass through intermediate levels")
}

func TestClassifyIgnoresHysteresis(t *testing.T) {
	thresholds := cpuThresholds()

	assert.Equal(t, thermal.LevelNormal, thermal.Classify(thresholds, 45))
	assert.Equal(t, thermal.LevelElevated, thermal.Classify(thresholds, 46))
	assert.Equal(t, thermal.LevelWarning, thermal.Classify(thresholds, 54.9))
	assert.Equal(t, thermal.LevelCritical, thermal.Classify(thresholds, 55))
	assert.Equal(t, thermal.LevelEmergency, thermal.Classify(thresholds, 72))
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []thermal.Threshold
		wantErr    string
	}{
		{
			name:       "valid",
			thresholds: cpuThresholds(),
		},
		{
			name:       "empty",
			thresholds: nil,
			wantErr:    "thermal_no_thresholds",
		},
		{
			name: "non-ascending temperatures",
			thresholds: []thermal.Threshold{
				{Level: thermal.LevelWarning, TempC: 55, Hysteresis: 2},
				{Level: thermal.LevelCritical, TempC: 50, Hysteresis: 2},
			},
			wantErr: "thermal_threshold_order",
		},
		{
			name: "equal temperatures",
			thresholds: []thermal.Threshold{
				{Level: thermal.LevelWarning, TempC: 50, Hysteresis: 2},
				{Level: thermal.LevelCritical, TempC: 50, Hysteresis: 2},
			},
			wantErr: "thermal_threshold_order",
		},
		{
			name: "zero hysteresis",
			thresholds: []thermal.Threshold{
				{Level: thermal.LevelWarning, TempC: 50, Hysteresis: 0},
			},
			wantErr: "thermal_invalid_hysteresis",
		},
		{
			name: "duplicate level",
			thresholds: []thermal.Threshold{
				{Level: thermal.LevelWarning, TempC: 50, Hysteresis: 2},
				{Level: thermal.LevelWarning, TempC: 52, Hysteresis: 2},
			},
			wantErr: "thermal_duplicate_threshold",
		},
		{
			name: "threshold for NORMAL",
			thresholds: []thermal.Threshold{
				{Level: thermal.LevelNormal, TempC: 30, Hysteresis: 2},
			},
			wantErr: "thermal_threshold_level_range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := thermal.ValidateThresholds(tt.thresholds)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
