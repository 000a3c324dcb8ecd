package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kasard/thermactl/internal/bypass"
	"github.com/kasard/thermactl/internal/config"
	"github.com/kasard/thermactl/internal/governor"
	"github.com/kasard/thermactl/internal/history"
	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/monitor"
	"github.com/kasard/thermactl/internal/profile"
	"github.com/kasard/thermactl/internal/sensor"
	"github.com/kasard/thermactl/internal/telemetry"
	"github.com/kasard/thermactl/internal/thermal"
)

const overrideFileName = "profile_override.json"

// stack is the fully wired governor with everything it owns. The CLI
// builds one per daemon-style command.
type stack struct {
	cfg       *config.Config
	mon       *monitor.Monitor
	hist      *history.History
	byp       *bypass.Controller
	manager   *profile.Manager
	gov       *governor.Governor
	collector telemetry.Collector
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	if !cfg.Debug && !cfg.Verbose {
		logger.SetLogLevel(logLevel(cfg.LogLevel))
	}

	return cfg, nil
}

func logLevel(name string) logger.LogLevel {
	switch name {
	case "debug":
		return logger.DebugLevel
	case "info":
		return logger.InfoLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.WarnLevel
	}
}

func newManager(cfg *config.Config) *profile.Manager {
	store := profile.NewFileStore(filepath.Join(cfg.StateDir, overrideFileName))

	return profile.NewManager(store, deviceInfo())
}

func buildStack(throttler governor.Throttler) (*stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	sysfsRoot := cfg.SysfsDir
	if sysfsRoot == "" {
		sysfsRoot = "/sys"
	}
	src := sensor.NewSysfs(sysfsRoot)

	interval := time.Duration(cfg.Interval) * time.Second
	mon := monitor.New(src, interval)

	hist := history.New(history.Config{
		Capacity:         cfg.HistoryCapacity,
		EventCapacity:    cfg.EventCapacity,
		Retention:        time.Duration(cfg.RetentionHours) * time.Hour,
		SnapshotInterval: time.Minute,
		StateDir:         cfg.StateDir,
	}, func() (cpu, battery float64) {
		return mon.Temperature(thermal.SourceCPU), mon.Temperature(thermal.SourceBattery)
	})

	byp := bypass.New(bypass.Config{
		TargetPercent: cfg.ChargeTarget,
		ResumePercent: cfg.ChargeResume,
		MaxTempC:      cfg.BatteryMaxTemp,
		ResumeTempC:   cfg.BatteryResumeTemp,
		Interval:      bypass.DefaultInterval,
	}, src)
	byp.SetEnabled(cfg.BypassEnabled)

	manager := newManager(cfg)

	active := manager.Active()
	if cfg.Profile != "" {
		p, ok := builtinByName(cfg.Profile)
		if !ok {
			logger.Warn().Str("profile", cfg.Profile).Msg("Unknown profile name, using detected profile")
		} else {
			active = p
		}
	}

	dbPath := cfg.TelemetryDB
	if dbPath == "" {
		dbPath = telemetry.DefaultConfig().DBPath
	}
	collector, err := telemetry.NewService(telemetry.Config{Enabled: cfg.Telemetry, DBPath: dbPath})
	if err != nil {
		return nil, err
	}

	gov, err := governor.New(
		profile.Render(active, interval, cfg.WarningBitratePct, cfg.CriticalBitratePct),
		mon, hist, byp, throttler, collector,
	)
	if err != nil {
		collector.Close()
		return nil, err
	}

	// Persisted override changes re-render the live governor config.
	manager.OnChange(func(p profile.Profile) error {
		return gov.SetConfig(profile.Render(p, interval, cfg.WarningBitratePct, cfg.CriticalBitratePct))
	})

	return &stack{
		cfg:       cfg,
		mon:       mon,
		hist:      hist,
		byp:       byp,
		manager:   manager,
		gov:       gov,
		collector: collector,
	}, nil
}

func (s *stack) close() {
	s.gov.Release()
	if err := s.collector.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close telemetry collector")
	}
}

func builtinByName(name string) (profile.Profile, bool) {
	for _, p := range profile.Builtins() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}

	return profile.Profile{}, false
}

// deviceInfo reads the hardware identity the profile manager matches
// against. Environment overrides win so packaging scripts can inject
// values from the platform's property store.
func deviceInfo() profile.DeviceInfo {
	info := profile.DeviceInfo{
		Model:    os.Getenv("THERMACTL_DEVICE_MODEL"),
		Codename: os.Getenv("THERMACTL_DEVICE_CODENAME"),
		SoC:      os.Getenv("THERMACTL_DEVICE_SOC"),
	}

	if info.Model == "" {
		if data, err := os.ReadFile("/sys/firmware/devicetree/base/model"); err == nil {
			info.Model = strings.TrimRight(string(data), "\x00\n ")
		}
	}
	if info.SoC == "" {
		if data, err := os.ReadFile("/proc/device-tree/compatible"); err == nil {
			// NUL-separated list, most specific first.
			parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
			if len(parts) > 0 {
				info.SoC = parts[len(parts)-1]
			}
		}
	}

	return info
}
