package sensor

import (
	"sync"

	"github.com/kasard/thermactl/internal/errors"
)

// Fake is an in-memory Source for tests and the simulation mode of the
// daemon. All fields are safe for concurrent use.
type Fake struct {
	mu          sync.Mutex
	sensors     []Sensor
	temps       map[string]float64
	failing     map[string]bool
	battery     BatteryReading
	batteryErr  bool
	control     *FakeChargeControl
	withControl bool
}

// NewFake builds a fake with the given zones. Temperatures default to
// zero until set.
func NewFake(sensors ...Sensor) *Fake {
	return &Fake{
		sensors: sensors,
		temps:   make(map[string]float64),
		failing: make(map[string]bool),
		control: &FakeChargeControl{enabled: true},
	}
}

// WithChargeControl makes the fake report a writable control path.
func (f *Fake) WithChargeControl() *Fake {
	f.withControl = true
	return f
}

func (f *Fake) SetTemp(path string, temp float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.temps[path] = temp
}

func (f *Fake) SetFailing(path string, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[path] = failing
}

func (f *Fake) SetBattery(reading BatteryReading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.battery = reading
}

func (f *Fake) SetBatteryFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batteryErr = failing
}

func (f *Fake) Sensors() []Sensor {
	return f.sensors
}

func (f *Fake) ReadTemp(path string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing[path] {
		return 0, errors.New().WithData(ErrZoneRead, path)
	}

	return f.temps[path], nil
}

func (f *Fake) ReadBattery() (BatteryReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.batteryErr {
		return BatteryReading{}, errors.New().New(ErrBatteryRead)
	}

	return f.battery, nil
}

func (f *Fake) ChargeControl() (ChargeControl, bool) {
	if !f.withControl {
		return nil, false
	}

	return f.control, true
}

// Control exposes the fake control for assertions.
func (f *Fake) Control() *FakeChargeControl {
	return f.control
}

// FakeChargeControl records charge-enable writes.
type FakeChargeControl struct {
	mu      sync.Mutex
	enabled bool
	writes  int
}

func (c *FakeChargeControl) SetChargingEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	c.writes++

	return nil
}

func (c *FakeChargeControl) Path() string {
	return "fake/charging_enabled"
}

func (c *FakeChargeControl) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enabled
}

func (c *FakeChargeControl) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.writes
}
