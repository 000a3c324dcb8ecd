package sensor

// Sensor is one discovered temperature zone. Type is the
// platform-reported label used for classification.
type Sensor struct {
	Path string
	Type string
}

// BatteryReading is a point-in-time battery sample.
type BatteryReading struct {
	Percent  int
	TempC    float64
	Charging bool
}

// ChargeControl writes the charge-enable signal through whichever
// platform path was detected as writable.
type ChargeControl interface {
	// SetChargingEnabled turns charging on or off.
	SetChargingEnabled(enabled bool) error

	// Path returns the control path in use, for diagnostics.
	Path() string
}

// Source abstracts the platform's thermal and battery surface. Zone
// discovery, raw reads, and charge-control detection are all
// platform-specific; everything above this interface is portable.
type Source interface {
	// Sensors returns the zones discovered at construction.
	Sensors() []Sensor

	// ReadTemp reads one zone by path, in degrees Celsius.
	ReadTemp(path string) (float64, error)

	// ReadBattery reads percent, temperature and charging state.
	ReadBattery() (BatteryReading, error)

	// ChargeControl returns the detected charge-enable writer, or
	// false when no writable control path exists on this device.
	ChargeControl() (ChargeControl, bool)
}
