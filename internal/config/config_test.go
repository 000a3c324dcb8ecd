package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasard/thermactl/internal/config"
	"github.com/kasard/thermactl/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "thermactl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
interval = 5
log_level = "debug"
profile = "Pixel 7"
state_dir = "/tmp/thermactl"
history_capacity = 720
charge_target = 85
charge_resume = 75
battery_max_temp = 43.0
battery_resume_temp = 39.0
warning_bitrate_pct = 25
critical_bitrate_pct = 55
telemetry = true
telemetry_db = "/tmp/thermactl/telemetry.db"
`)
	t.Setenv("THERMACTL_CONFIG", path)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Pixel 7", cfg.Profile)
	assert.Equal(t, "/tmp/thermactl", cfg.StateDir)
	assert.Equal(t, 720, cfg.HistoryCapacity)
	assert.Equal(t, 85, cfg.ChargeTarget)
	assert.Equal(t, 75, cfg.ChargeResume)
	assert.Equal(t, 43.0, cfg.BatteryMaxTemp)
	assert.Equal(t, 25, cfg.WarningBitratePct)
	assert.Equal(t, 55, cfg.CriticalBitratePct)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "/tmp/thermactl/telemetry.db", cfg.TelemetryDB)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("THERMACTL_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, 1440, cfg.HistoryCapacity)
	assert.Equal(t, 500, cfg.EventCapacity)
	assert.Equal(t, 24, cfg.RetentionHours)
	assert.True(t, cfg.BypassEnabled)
	assert.Equal(t, 80, cfg.ChargeTarget)
	assert.Equal(t, 70, cfg.ChargeResume)
	assert.Equal(t, 42.0, cfg.BatteryMaxTemp)
	assert.Equal(t, 38.0, cfg.BatteryResumeTemp)
	assert.Equal(t, 30, cfg.WarningBitratePct)
	assert.Equal(t, 60, cfg.CriticalBitratePct)
	assert.False(t, cfg.Telemetry)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
interval = 5
log_level = "warn"
`)
	t.Setenv("THERMACTL_CONFIG", path)

	cfg, err := config.Load([]string{"--interval", "7", "--log-level", "debug", "--telemetry"})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Interval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Telemetry)
}

func TestInvalidTOML(t *testing.T) {
	path := writeConfig(t, "this is not valid TOML")
	t.Setenv("THERMACTL_CONFIG", path)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, config.ErrReadConfigFile))
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `log_level = "loud"`)
	t.Setenv("THERMACTL_CONFIG", path)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, config.ErrInvalidLogLevel))
}

func TestInvalidChargeBand(t *testing.T) {
	path := writeConfig(t, `
charge_target = 70
charge_resume = 80
`)
	t.Setenv("THERMACTL_CONFIG", path)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, config.ErrInvalidBand))
}

func TestInvalidBitratePercents(t *testing.T) {
	path := writeConfig(t, `
warning_bitrate_pct = 60
critical_bitrate_pct = 30
`)
	t.Setenv("THERMACTL_CONFIG", path)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, config.ErrInvalidBitrate))
}
