package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/thermal"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDirPerm = 0o755

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS thermal_status (
            timestamp INTEGER PRIMARY KEY,
            cpu_temp REAL,
            battery_temp REAL,
            gpu_temp REAL,
            cpu_level TEXT,
            battery_level TEXT,
            overall_level TEXT,
            active_actions INTEGER,
            throttling INTEGER,
            bitrate_cut_pct INTEGER,
            streaming_paused INTEGER,
            charging_held INTEGER,
            battery_percent INTEGER,
            battery_charging INTEGER
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrStorageInit, err)
	}

	return nil
}

func (r *sqliteRepository) Store(ctx context.Context, status thermal.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO thermal_status (
            timestamp, cpu_temp, battery_temp, gpu_temp,
            cpu_level, battery_level, overall_level,
            active_actions, throttling, bitrate_cut_pct,
            streaming_paused, charging_held,
            battery_percent, battery_charging
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            cpu_temp = excluded.cpu_temp,
            battery_temp = excluded.battery_temp,
            gpu_temp = excluded.gpu_temp,
            cpu_level = excluded.cpu_level,
            battery_level = excluded.battery_level,
            overall_level = excluded.overall_level,
            active_actions = excluded.active_actions,
            throttling = excluded.throttling,
            bitrate_cut_pct = excluded.bitrate_cut_pct,
            streaming_paused = excluded.streaming_paused,
            charging_held = excluded.charging_held,
            battery_percent = excluded.battery_percent,
            battery_charging = excluded.battery_charging
    `,
		status.Timestamp.Unix(),
		status.CPUTempC,
		status.BatteryTempC,
		status.GPUTempC,
		status.CPULevel.String(),
		status.BatteryLevel.String(),
		status.OverallLevel.String(),
		len(status.ActiveActions),
		boolToInt(status.Throttling),
		status.BitrateCutPct,
		boolToInt(status.StreamingPaused),
		boolToInt(status.ChargingHeld),
		status.BatteryPercent,
		boolToInt(status.BatteryCharging),
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}
