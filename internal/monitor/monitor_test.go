package monitor_test

import (
	"sync"
	"testing"

	"github.com/kasard/thermactl/internal/monitor"
	"github.com/kasard/thermactl/internal/sensor"
	"github.com/kasard/thermactl/internal/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyZone(t *testing.T) {
	tests := []struct {
		zoneType string
		want     thermal.Source
	}{
		{"cpu-0-0", thermal.SourceCPU},
		{"soc_thermal", thermal.SourceCPU},
		{"tsens_tz_sensor0", thermal.SourceCPU},
		{"cpuss-1", thermal.SourceCPU},
		{"gpu-thermal", thermal.SourceGPU},
		{"kgsl", thermal.SourceGPU},
		{"adreno", thermal.SourceGPU},
		{"battery", thermal.SourceBattery},
		{"batt_therm", thermal.SourceBattery},
		{"skin-therm", thermal.SourceSkin},
		{"xo-therm", thermal.SourceSkin},
		{"pm8998_tz", thermal.SourceUnknown},
		{"", thermal.SourceUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.zoneType, func(t *testing.T) {
			assert.Equal(t, tt.want, monitor.ClassifyZone(tt.zoneType))
		})
	}
}

func TestPollSelectsMaxCPUReading(t *testing.T) {
	fake := sensor.NewFake(
		sensor.Sensor{Path: "z0", Type: "cpu-0-0"},
		sensor.Sensor{Path: "z1", Type: "cpu-1-0"},
		sensor.Sensor{Path: "z2", Type: "gpu"},
	)
	fake.SetTemp("z0", 41)
	fake.SetTemp("z1", 47.5)
	fake.SetTemp("z2", 39)

	m := monitor.New(fake, monitor.DefaultInterval)
	m.Poll()

	assert.InDelta(t, 47.5, m.Temperature(thermal.SourceCPU), 0.001)
	assert.InDelta(t, 39.0, m.Temperature(thermal.SourceGPU), 0.001)
}

func TestPollSwallowsSingleSensorFailure(t *testing.T) {
	fake := sensor.NewFake(
		sensor.Sensor{Path: "z0", Type: "cpu-0-0"},
		sensor.Sensor{Path: "z1", Type: "cpu-1-0"},
	)
	fake.SetTemp("z0", 44)
	fake.SetTemp("z1", 52)
	fake.SetFailing("z1", true)

	m := monitor.New(fake, monitor.DefaultInterval)
	m.Poll()

	// The failing zone is skipped; the tick proceeds with the rest.
	assert.InDelta(t, 44.0, m.Temperature(thermal.SourceCPU), 0.001)
}

func TestTemperatureNeverSampledIsZero(t *testing.T) {
	m := monitor.New(sensor.NewFake(), monitor.DefaultInterval)

	assert.Zero(t, m.Temperature(thermal.SourceCPU))
	assert.Zero(t, m.Temperature(thermal.SourceGPU))
}

func TestPollNotifiesTempListeners(t *testing.T) {
	fake := sensor.NewFake(sensor.Sensor{Path: "z0", Type: "cpu"})
	fake.SetTemp("z0", 50)
	fake.SetBattery(sensor.BatteryReading{Percent: 80, TempC: 33, Charging: true})

	m := monitor.New(fake, monitor.DefaultInterval)

	var mu sync.Mutex
	var gotCPU, gotBattery float64
	calls := 0
	m.AddListener(func(cpu, battery, _ float64) {
		mu.Lock()
		defer mu.Unlock()
		gotCPU, gotBattery = cpu, battery
		calls++
	})

	m.Poll()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls)
	assert.InDelta(t, 50.0, gotCPU, 0.001)
	assert.InDelta(t, 33.0, gotBattery, 0.001)
}

func TestBatteryListenerFiresOnChangeOnly(t *testing.T) {
	fake := sensor.NewFake()
	fake.SetBattery(sensor.BatteryReading{Percent: 80, TempC: 30, Charging: true})

	m := monitor.New(fake, monitor.DefaultInterval)

	var mu sync.Mutex
	events := 0
	var lastPercent int
	var lastCharging bool
	m.AddBatteryListener(func(percent int, charging bool) {
		mu.Lock()
		defer mu.Unlock()
		events++
		lastPercent, lastCharging = percent, charging
	})

	m.Poll() // first reading counts as a change
	m.Poll() // steady state, no event
	fake.SetBattery(sensor.BatteryReading{Percent: 80, TempC: 30, Charging: false})
	m.Poll() // charging flipped

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, events)
	assert.Equal(t, 80, lastPercent)
	assert.False(t, lastCharging)
}

func TestPollBatteryZoneFallback(t *testing.T) {
	fake := sensor.NewFake(sensor.Sensor{Path: "zb", Type: "batt_therm"})
	fake.SetTemp("zb", 36.5)
	fake.SetBatteryFailing(true)

	m := monitor.New(fake, monitor.DefaultInterval)
	m.Poll()

	assert.InDelta(t, 36.5, m.Temperature(thermal.SourceBattery), 0.001)
}

func TestStartStopIdempotent(t *testing.T) {
	fake := sensor.NewFake(sensor.Sensor{Path: "z0", Type: "cpu"})
	m := monitor.New(fake, monitor.DefaultInterval)

	m.Start()
	m.Start()
	m.Stop()
	m.Stop()
}
