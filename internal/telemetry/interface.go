package telemetry

import (
	"context"

	"github.com/kasard/thermactl/internal/thermal"
)

// Collector persists one status snapshot per governor tick.
type Collector interface {
	Record(ctx context.Context, status thermal.Status) error
	Close() error
}

// Repository abstracts the storage backend.
type Repository interface {
	Store(ctx context.Context, status thermal.Status) error
	Close() error
}
