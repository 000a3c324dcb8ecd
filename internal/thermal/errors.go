package thermal

import "github.com/kasard/thermactl/internal/errors"

const (
	ErrUnknownLevel        = errors.ErrorCode("thermal_unknown_level")
	ErrNoThresholds        = errors.ErrorCode("thermal_no_thresholds")
	ErrThresholdOrder      = errors.ErrorCode("thermal_threshold_order")
	ErrInvalidHysteresis   = errors.ErrorCode("thermal_invalid_hysteresis")
	ErrDuplicateThreshold  = errors.ErrorCode("thermal_duplicate_threshold")
	ErrThresholdLevelRange = errors.ErrorCode("thermal_threshold_level_range")
)
