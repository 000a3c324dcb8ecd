package profile

import "github.com/kasard/thermactl/internal/errors"

const (
	ErrCPUTripleOrder     = errors.ErrorCode("profile_cpu_thresholds_not_ascending")
	ErrBatteryTripleOrder = errors.ErrorCode("profile_battery_thresholds_not_ascending")
	ErrInvalidHysteresis  = errors.ErrorCode("profile_invalid_hysteresis")
	ErrStoreSave          = errors.ErrorCode("profile_store_save_failed")
	ErrStoreLoad          = errors.ErrorCode("profile_store_load_failed")
)
