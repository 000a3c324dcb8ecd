package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kasard/thermactl/internal/errors"
)

const (
	DefaultLogLevel = "info"

	defaultInterval        = 5
	defaultHistoryCapacity = 1440
	defaultEventCapacity   = 500
	defaultRetentionHours  = 24
	defaultStateDir        = "/var/lib/thermactl"
	defaultChargeTarget    = 80
	defaultChargeResume    = 70
	defaultBatteryMaxTemp  = 42.0
	defaultBatteryResume   = 38.0
	defaultWarningPct      = 30
	defaultCriticalPct     = 60
)

type Config struct {
	Interval int    `mapstructure:"interval"`
	Debug    bool   `mapstructure:"debug"`
	Verbose  bool   `mapstructure:"verbose"`
	LogLevel string `mapstructure:"log_level"`

	Profile  string `mapstructure:"profile"`
	StateDir string `mapstructure:"state_dir"`
	SysfsDir string `mapstructure:"sysfs_dir"`

	HistoryCapacity int `mapstructure:"history_capacity"`
	EventCapacity   int `mapstructure:"event_capacity"`
	RetentionHours  int `mapstructure:"retention_hours"`

	BypassEnabled     bool    `mapstructure:"bypass_enabled"`
	ChargeTarget      int     `mapstructure:"charge_target"`
	ChargeResume      int     `mapstructure:"charge_resume"`
	BatteryMaxTemp    float64 `mapstructure:"battery_max_temp"`
	BatteryResumeTemp float64 `mapstructure:"battery_resume_temp"`

	WarningBitratePct  int `mapstructure:"warning_bitrate_pct"`
	CriticalBitratePct int `mapstructure:"critical_bitrate_pct"`

	Telemetry   bool   `mapstructure:"telemetry"`
	TelemetryDB string `mapstructure:"telemetry_db"`
}

// Load reads configuration from flags, the THERMACTL_CONFIG file (or
// the default search paths), and built-in defaults, in that order of
// precedence.
func Load(args []string) (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("thermactl", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.Int("interval", 0, "Seconds between governor evaluations")
	fs.String("profile", "", "Thermal profile override name")
	fs.String("state-dir", "", "Directory for persisted history and profiles")
	fs.Bool("telemetry", false, "Enable telemetry collection")
	fs.String("telemetry-db", "", "Path to the telemetry database")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(ErrReadConfigFile, err)
	}

	v := viper.New()
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("state_dir", defaultStateDir)
	v.SetDefault("history_capacity", defaultHistoryCapacity)
	v.SetDefault("event_capacity", defaultEventCapacity)
	v.SetDefault("retention_hours", defaultRetentionHours)
	v.SetDefault("bypass_enabled", true)
	v.SetDefault("charge_target", defaultChargeTarget)
	v.SetDefault("charge_resume", defaultChargeResume)
	v.SetDefault("battery_max_temp", defaultBatteryMaxTemp)
	v.SetDefault("battery_resume_temp", defaultBatteryResume)
	v.SetDefault("warning_bitrate_pct", defaultWarningPct)
	v.SetDefault("critical_bitrate_pct", defaultCriticalPct)

	if path := os.Getenv("THERMACTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("thermactl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath("$HOME/.config/thermactl")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(ErrReadConfigFile, err)
		}
	}

	// Flags the user actually set override file values.
	fs.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Value.Type() {
		case "bool":
			val, _ := fs.GetBool(f.Name)
			v.Set(key, val)
		case "int":
			val, _ := fs.GetInt(f.Name)
			v.Set(key, val)
		default:
			v.Set(key, f.Value.String())
		}
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(ErrUnmarshalConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errFactory.WithData(ErrInvalidLogLevel, c.LogLevel)
	}

	if c.Interval <= 0 {
		return errFactory.WithData(ErrInvalidInterval, c.Interval)
	}

	if c.HistoryCapacity <= 0 || c.EventCapacity <= 0 || c.RetentionHours <= 0 {
		return errFactory.New(ErrInvalidCapacity)
	}

	if c.ChargeTarget <= 0 || c.ChargeTarget > 100 || c.ChargeResume <= 0 || c.ChargeResume >= c.ChargeTarget {
		return errFactory.New(ErrInvalidBand)
	}

	if c.BatteryResumeTemp >= c.BatteryMaxTemp {
		return errFactory.New(ErrInvalidBand)
	}

	if c.WarningBitratePct <= 0 || c.WarningBitratePct > 100 ||
		c.CriticalBitratePct <= c.WarningBitratePct || c.CriticalBitratePct > 100 {
		return errFactory.New(ErrInvalidBitrate)
	}

	return nil
}
