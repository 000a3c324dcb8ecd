package bypass_test

import (
	"testing"

	"github.com/kasard/thermactl/internal/bypass"
	"github.com/kasard/thermactl/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, fake *sensor.Fake) *bypass.Controller {
	t.Helper()

	cfg := bypass.DefaultConfig()
	cfg.TargetPercent = 50
	cfg.ResumePercent = 40
	cfg.MaxTempC = 45
	cfg.ResumeTempC = 40

	c := bypass.New(cfg, fake)
	c.SetEnabled(true)

	return c
}

func TestHoldingAboveTarget(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 51, TempC: 30, Charging: true})

	c := newController(t, fake)
	c.Evaluate()

	status := c.Status()
	assert.Equal(t, bypass.StateHolding, status.State)
	assert.False(t, fake.Control().Enabled(), "charging must be disabled at 51%% with target 50%%")
	assert.True(t, status.HardwareControl)
}

func TestChargingBelowResume(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 35, TempC: 30, Charging: false})

	c := newController(t, fake)
	c.Evaluate()

	assert.Equal(t, bypass.StateCharging, c.Status().State)
	assert.True(t, fake.Control().Enabled())
}

func TestBandKeepsCurrentState(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 35, TempC: 30, Charging: true})

	c := newController(t, fake)
	c.Evaluate()
	require.Equal(t, bypass.StateCharging, c.Status().State)

	// Climbing into the band must not flip the state.
	fake.SetBattery(sensor.BatteryReading{Percent: 45, TempC: 30, Charging: true})
	c.Evaluate()
	assert.Equal(t, bypass.StateCharging, c.Status().State)

	// Reaching target holds; dropping back into the band keeps holding.
	fake.SetBattery(sensor.BatteryReading{Percent: 50, TempC: 30, Charging: true})
	c.Evaluate()
	require.Equal(t, bypass.StateHolding, c.Status().State)

	fake.SetBattery(sensor.BatteryReading{Percent: 45, TempC: 30, Charging: false})
	c.Evaluate()
	assert.Equal(t, bypass.StateHolding, c.Status().State)
}

func TestThermalHoldOverridesPercent(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 20, TempC: 46, Charging: true})

	c := newController(t, fake)
	c.Evaluate()

	// 20% would normally charge; the hot battery wins.
	assert.Equal(t, bypass.StateThermalHold, c.Status().State)
	assert.False(t, fake.Control().Enabled())

	// Cooling to 42°C is below max-temp but above resume-temp: hold.
	fake.SetBattery(sensor.BatteryReading{Percent: 20, TempC: 42, Charging: false})
	c.Evaluate()
	assert.Equal(t, bypass.StateThermalHold, c.Status().State)

	// Below resume-temp falls through to the band logic.
	fake.SetBattery(sensor.BatteryReading{Percent: 20, TempC: 39, Charging: false})
	c.Evaluate()
	assert.Equal(t, bypass.StateCharging, c.Status().State)
	assert.True(t, fake.Control().Enabled())
}

func TestGovernorThermalHold(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 30, TempC: 30, Charging: true})

	c := newController(t, fake)
	c.SetThermalHold(true)
	assert.Equal(t, bypass.StateThermalHold, c.Status().State)
	assert.False(t, fake.Control().Enabled())

	c.SetThermalHold(false)
	assert.Equal(t, bypass.StateCharging, c.Status().State)
	assert.True(t, fake.Control().Enabled())
}

func TestManualHoldWinsOverBand(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 10, TempC: 25, Charging: true})

	c := newController(t, fake)
	c.SetManualHold(true)
	assert.Equal(t, bypass.StateManualHold, c.Status().State)
	assert.False(t, fake.Control().Enabled())

	c.SetManualHold(false)
	assert.Equal(t, bypass.StateCharging, c.Status().State)
}

func TestAdvisoryModeWithoutControlPath(t *testing.T) {
	fake := sensor.NewFake() // no charge control
	fake.SetBattery(sensor.BatteryReading{Percent: 90, TempC: 30, Charging: true})

	c := newController(t, fake)
	c.Evaluate()

	status := c.Status()
	assert.Equal(t, bypass.StateHolding, status.State, "state is tracked even without enforcement")
	assert.False(t, status.HardwareControl)
}

func TestSetLimitsValidation(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 50, TempC: 30, Charging: true})
	c := newController(t, fake)

	require.Error(t, c.SetLimits(0, 0))
	require.Error(t, c.SetLimits(101, 50))
	require.Error(t, c.SetLimits(50, 50), "resume must sit below target")
	require.Error(t, c.SetLimits(50, 60))
	require.NoError(t, c.SetLimits(85, 75))

	status := c.Status()
	assert.Equal(t, 85, status.TargetPercent)
	assert.Equal(t, 75, status.ResumePercent)
}

func TestStartKeepsDisabledConfiguration(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 90, TempC: 30, Charging: true})

	cfg := bypass.DefaultConfig()
	cfg.TargetPercent = 50
	cfg.ResumePercent = 40

	// Configured off, then started by its owner: the loop must run with
	// the configured enablement, not flip it on.
	c := bypass.New(cfg, fake)
	c.SetEnabled(false)
	c.Start()
	defer c.Stop()

	c.Evaluate()

	status := c.Status()
	assert.Equal(t, bypass.StateDisabled, status.State)
	assert.True(t, fake.Control().Enabled(), "a disabled controller must never hold charging")
}

func TestStopRestoresCharging(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 90, TempC: 30, Charging: true})

	c := newController(t, fake)
	c.Evaluate()
	require.False(t, fake.Control().Enabled())

	c.Stop()
	assert.True(t, fake.Control().Enabled())
	assert.Equal(t, bypass.StateDisabled, c.Status().State)

	c.Stop() // idempotent
}

func TestChargeWriteIdempotent(t *testing.T) {
	fake := sensor.NewFake().WithChargeControl()
	fake.SetBattery(sensor.BatteryReading{Percent: 90, TempC: 30, Charging: true})

	c := newController(t, fake)
	c.Evaluate()
	writes := fake.Control().Writes()

	c.Evaluate()
	c.Evaluate()
	assert.Equal(t, writes, fake.Control().Writes(), "repeated holds must not rewrite the control file")
}
