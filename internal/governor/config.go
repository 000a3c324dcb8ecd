package governor

import (
	"time"

	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/thermal"
)

const (
	DefaultInterval           = 5 * time.Second
	DefaultWarningBitratePct  = 30
	DefaultCriticalBitratePct = 60
)

// Config carries the rendered threshold sets and reduction magnitudes
// the evaluation loop runs against. Profiles render into this.
type Config struct {
	Interval           time.Duration
	CPUThresholds      []thermal.Threshold
	BatteryThresholds  []thermal.Threshold
	WarningBitratePct  int
	CriticalBitratePct int
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.New(errors.ErrInvalidInterval)
	}

	if err := thermal.ValidateThresholds(c.CPUThresholds); err != nil {
		return errFactory.Wrap(ErrInvalidThresholds, err).WithMessage("invalid CPU thresholds")
	}
	if err := thermal.ValidateThresholds(c.BatteryThresholds); err != nil {
		return errFactory.Wrap(ErrInvalidThresholds, err).WithMessage("invalid battery thresholds")
	}

	if c.WarningBitratePct <= 0 || c.WarningBitratePct > 100 {
		return errFactory.WithData(ErrInvalidReduction, c.WarningBitratePct)
	}
	if c.CriticalBitratePct < c.WarningBitratePct || c.CriticalBitratePct > 100 {
		return errFactory.WithData(ErrInvalidReduction, c.CriticalBitratePct)
	}

	return nil
}
