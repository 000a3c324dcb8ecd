package profile

import (
	"time"

	"github.com/kasard/thermactl/internal/governor"
	"github.com/kasard/thermactl/internal/thermal"
)

const (
	// ELEVATED is not calibrated per device; it is derived a fixed
	// margin under the warning trigger as an early-warning grade.
	elevatedCPUMarginC     = 4
	elevatedBatteryMarginC = 2

	defaultHysteresisC = 3
)

// Render turns a profile into the governor's live configuration.
func Render(p Profile, interval time.Duration, warningPct, criticalPct int) governor.Config {
	hysteresis := p.HysteresisC
	if hysteresis <= 0 {
		hysteresis = defaultHysteresisC
	}

	cpu := []thermal.Threshold{
		{Level: thermal.LevelElevated, TempC: p.CPU.WarnC - elevatedCPUMarginC, Hysteresis: hysteresis},
		{Level: thermal.LevelWarning, TempC: p.CPU.WarnC, Hysteresis: hysteresis,
			Actions: []thermal.Action{thermal.ActionReduceBitrate}},
		{Level: thermal.LevelCritical, TempC: p.CPU.CriticalC, Hysteresis: hysteresis,
			Actions: []thermal.Action{thermal.ActionReduceBitrate, thermal.ActionReduceResolution, thermal.ActionReduceFramerate}},
		{Level: thermal.LevelEmergency, TempC: p.CPU.EmergencyC, Hysteresis: hysteresis,
			Actions: []thermal.Action{thermal.ActionPauseStreaming, thermal.ActionAlertUser}},
	}

	battery := []thermal.Threshold{
		{Level: thermal.LevelElevated, TempC: p.Battery.WarnC - elevatedBatteryMarginC, Hysteresis: hysteresis},
		{Level: thermal.LevelWarning, TempC: p.Battery.WarnC, Hysteresis: hysteresis,
			Actions: []thermal.Action{thermal.ActionDisableCharging}},
		{Level: thermal.LevelCritical, TempC: p.Battery.CriticalC, Hysteresis: hysteresis,
			Actions: []thermal.Action{thermal.ActionDisableCharging, thermal.ActionAlertUser}},
		{Level: thermal.LevelEmergency, TempC: p.Battery.EmergencyC, Hysteresis: hysteresis,
			Actions: []thermal.Action{thermal.ActionPauseStreaming, thermal.ActionAlertUser}},
	}

	return governor.Config{
		Interval:           interval,
		CPUThresholds:      cpu,
		BatteryThresholds:  battery,
		WarningBitratePct:  warningPct,
		CriticalBitratePct: criticalPct,
	}
}
