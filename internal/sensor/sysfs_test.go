package sensor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kasard/thermactl/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSysfsFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSysfsDiscoversZones(t *testing.T) {
	root := t.TempDir()
	writeSysfsFile(t, root, "class/thermal/thermal_zone0/type", "cpu-0-0\n")
	writeSysfsFile(t, root, "class/thermal/thermal_zone0/temp", "42000\n")
	writeSysfsFile(t, root, "class/thermal/thermal_zone1/type", "battery\n")
	writeSysfsFile(t, root, "class/thermal/thermal_zone1/temp", "31500\n")

	src := sensor.NewSysfs(root)

	sensors := src.Sensors()
	require.Len(t, sensors, 2)
	assert.Equal(t, "cpu-0-0", sensors[0].Type)
	assert.Equal(t, "battery", sensors[1].Type)

	temp, err := src.ReadTemp(sensors[0].Path)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, temp, 0.001)
}

func TestSysfsEmptyTreeDegrades(t *testing.T) {
	src := sensor.NewSysfs(t.TempDir())

	assert.Empty(t, src.Sensors())
	_, ok := src.ChargeControl()
	assert.False(t, ok)
}

func TestSysfsReadBattery(t *testing.T) {
	root := t.TempDir()
	writeSysfsFile(t, root, "class/power_supply/battery/capacity", "73\n")
	writeSysfsFile(t, root, "class/power_supply/battery/temp", "348\n")
	writeSysfsFile(t, root, "class/power_supply/battery/status", "Charging\n")

	src := sensor.NewSysfs(root)

	reading, err := src.ReadBattery()
	require.NoError(t, err)
	assert.Equal(t, 73, reading.Percent)
	assert.InDelta(t, 34.8, reading.TempC, 0.001)
	assert.True(t, reading.Charging)
}

func TestSysfsReadBatteryMissing(t *testing.T) {
	src := sensor.NewSysfs(t.TempDir())

	_, err := src.ReadBattery()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensor_battery_read_failed")
}

func TestSysfsChargeControlDirect(t *testing.T) {
	root := t.TempDir()
	writeSysfsFile(t, root, "class/power_supply/battery/charging_enabled", "1\n")

	src := sensor.NewSysfs(root)

	control, ok := src.ChargeControl()
	require.True(t, ok)

	require.NoError(t, control.SetChargingEnabled(false))
	raw, err := os.ReadFile(filepath.Join(root, "class/power_supply/battery/charging_enabled"))
	require.NoError(t, err)
	assert.Equal(t, "0", string(raw))

	require.NoError(t, control.SetChargingEnabled(true))
	raw, err = os.ReadFile(filepath.Join(root, "class/power_supply/battery/charging_enabled"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))
}

func TestSysfsChargeControlInverted(t *testing.T) {
	root := t.TempDir()
	writeSysfsFile(t, root, "class/power_supply/battery/input_suspend", "0\n")

	src := sensor.NewSysfs(root)

	control, ok := src.ChargeControl()
	require.True(t, ok)

	// Disabling charging on a suspend path writes "1".
	require.NoError(t, control.SetChargingEnabled(false))
	raw, err := os.ReadFile(filepath.Join(root, "class/power_supply/battery/input_suspend"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))
}

func TestSysfsReadTempBadContent(t *testing.T) {
	root := t.TempDir()
	writeSysfsFile(t, root, "class/thermal/thermal_zone0/type", "cpu\n")
	writeSysfsFile(t, root, "class/thermal/thermal_zone0/temp", "not-a-number\n")

	src := sensor.NewSysfs(root)

	_, err := src.ReadTemp(src.Sensors()[0].Path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensor_zone_parse_failed")
}
