package config

import "github.com/kasard/thermactl/internal/errors"

const (
	ErrReadConfigFile  = errors.ErrorCode("config_read_file_failed")
	ErrUnmarshalConfig = errors.ErrorCode("config_unmarshal_failed")
	ErrInvalidLogLevel = errors.ErrorCode("config_invalid_log_level")
	ErrInvalidInterval = errors.ErrorCode("config_invalid_interval")
	ErrInvalidCapacity = errors.ErrorCode("config_invalid_capacity")
	ErrInvalidBand     = errors.ErrorCode("config_invalid_charge_band")
	ErrInvalidBitrate  = errors.ErrorCode("config_invalid_bitrate_pct")
)
