package telemetry

import (
	"context"

	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/thermal"
)

type service struct {
	repo Repository
	cfg  Config
}

// NewService builds a collector. When cfg.Enabled is false it returns
// a no-op collector so callers need no conditional wiring.
func NewService(cfg Config) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		return noopCollector{}, nil
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err // Already wrapped with appropriate error
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, status thermal.Status) error {
	errFactory := errors.New()

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Store(ctx, status); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

type noopCollector struct{}

func (noopCollector) Record(_ context.Context, _ thermal.Status) error { return nil }
func (noopCollector) Close() error                                     { return nil }
