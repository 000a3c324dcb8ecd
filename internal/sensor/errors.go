package sensor

import "github.com/kasard/thermactl/internal/errors"

const (
	ErrZoneRead     = errors.ErrorCode("sensor_zone_read_failed")
	ErrZoneParse    = errors.ErrorCode("sensor_zone_parse_failed")
	ErrBatteryRead  = errors.ErrorCode("sensor_battery_read_failed")
	ErrControlWrite = errors.ErrorCode("sensor_charge_control_write_failed")
)
