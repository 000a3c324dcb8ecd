package sensor

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/logger"
)

const (
	thermalZoneGlob  = "class/thermal/thermal_zone*"
	batteryDir       = "class/power_supply/battery"
	milliDegPerDeg   = 1000
	deciDegPerDeg    = 10
	controlFilePerms = os.FileMode(0o200)
)

// Charge-control candidates in detection order. Inverted paths expect
// "1" to suspend charging rather than enable it.
var chargeControlCandidates = []struct {
	relPath  string
	inverted bool
}{
	{relPath: "class/power_supply/battery/charging_enabled", inverted: false},
	{relPath: "class/power_supply/battery/battery_charging_enabled", inverted: false},
	{relPath: "class/power_supply/battery/input_suspend", inverted: true},
	{relPath: "class/power_supply/battery/store_mode", inverted: true},
}

// Sysfs reads thermal zones and the battery supply from a sysfs tree.
// The root is configurable so tests can point it at a fixture tree.
type Sysfs struct {
	root    string
	sensors []Sensor
	control *sysfsChargeControl
}

// NewSysfs discovers thermal zones and a writable charge-control path
// under root (normally "/sys"). Discovery failures degrade to an empty
// zone list rather than an error; thermal protection must come up even
// on unfamiliar devices.
func NewSysfs(root string) *Sysfs {
	s := &Sysfs{root: root}
	s.discoverZones()
	s.detectChargeControl()

	return s
}

func (s *Sysfs) discoverZones() {
	zones, err := filepath.Glob(filepath.Join(s.root, thermalZoneGlob))
	if err != nil || len(zones) == 0 {
		logger.Warn().Str("root", s.root).Msg("No thermal zones discovered")
		return
	}

	sort.Strings(zones)

	for _, zone := range zones {
		typeBytes, err := os.ReadFile(filepath.Join(zone, "type"))
		if err != nil {
			// Zone without a readable type label is still usable, just
			// unclassifiable.
			typeBytes = nil
		}

		s.sensors = append(s.sensors, Sensor{
			Path: filepath.Join(zone, "temp"),
			Type: strings.TrimSpace(string(typeBytes)),
		})
	}

	logger.Debug().Int("zones", len(s.sensors)).Msg("Discovered thermal zones")
}

func (s *Sysfs) detectChargeControl() {
	for _, candidate := range chargeControlCandidates {
		path := filepath.Join(s.root, candidate.relPath)
		f, err := os.OpenFile(path, os.O_WRONLY, controlFilePerms)
		if err != nil {
			continue
		}
		f.Close()

		s.control = &sysfsChargeControl{path: path, inverted: candidate.inverted}
		logger.Info().Str("path", path).Bool("inverted", candidate.inverted).Msg("Detected charge control")

		return
	}

	logger.Info().Msg("No writable charge control path; bypass runs in advisory mode")
}

func (s *Sysfs) Sensors() []Sensor {
	return s.sensors
}

func (s *Sysfs) ReadTemp(path string) (float64, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, errFactory.Wrap(ErrZoneRead, err)
	}

	milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrZoneParse, err)
	}

	return milli / milliDegPerDeg, nil
}

func (s *Sysfs) ReadBattery() (BatteryReading, error) {
	errFactory := errors.New()
	dir := filepath.Join(s.root, batteryDir)

	percent, err := readIntFile(filepath.Join(dir, "capacity"))
	if err != nil {
		return BatteryReading{}, errFactory.Wrap(ErrBatteryRead, err)
	}

	// Battery supplies report tenths of a degree.
	deci, err := readIntFile(filepath.Join(dir, "temp"))
	if err != nil {
		return BatteryReading{}, errFactory.Wrap(ErrBatteryRead, err)
	}

	status, err := os.ReadFile(filepath.Join(dir, "status"))
	if err != nil {
		return BatteryReading{}, errFactory.Wrap(ErrBatteryRead, err)
	}

	return BatteryReading{
		Percent:  percent,
		TempC:    float64(deci) / deciDegPerDeg,
		Charging: strings.TrimSpace(string(status)) == "Charging",
	}, nil
}

func (s *Sysfs) ChargeControl() (ChargeControl, bool) {
	if s.control == nil {
		return nil, false
	}

	return s.control, true
}

type sysfsChargeControl struct {
	path     string
	inverted bool
}

func (c *sysfsChargeControl) SetChargingEnabled(enabled bool) error {
	errFactory := errors.New()

	// Inverted paths are suspend flags: "1" there stops charging.
	value := "0"
	if enabled != c.inverted {
		value = "1"
	}

	if err := os.WriteFile(c.path, []byte(value), controlFilePerms); err != nil {
		return errFactory.Wrap(ErrControlWrite, err)
	}

	return nil
}

func (c *sysfsChargeControl) Path() string {
	return c.path
}

func readIntFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(string(raw)))
}
