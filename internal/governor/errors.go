package governor

import "github.com/kasard/thermactl/internal/errors"

const (
	ErrInvalidThresholds = errors.ErrorCode("governor_invalid_thresholds")
	ErrInvalidReduction  = errors.ErrorCode("governor_invalid_reduction")
)
