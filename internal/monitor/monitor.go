package monitor

import (
	"strings"
	"sync"
	"time"

	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/sensor"
	"github.com/kasard/thermactl/internal/thermal"
)

const DefaultInterval = 5 * time.Second

// Vendor name fragments used to classify platform zone labels.
var (
	cpuFragments     = []string{"cpu", "soc", "tsens", "cluster", "little", "big", "prime", "cpuss", "apc"}
	gpuFragments     = []string{"gpu", "kgsl", "adreno", "mali"}
	batteryFragments = []string{"battery", "batt"}
	skinFragments    = []string{"skin", "shell", "case", "xo-therm"}
)

// Common zone paths tried in order when no zone classified as CPU.
var fallbackCPUPaths = []string{
	"/sys/class/thermal/thermal_zone0/temp",
	"/sys/class/thermal/thermal_zone1/temp",
	"/sys/devices/virtual/thermal/thermal_zone0/temp",
}

// TempListener receives the per-class readings of one polling tick.
type TempListener func(cpu, battery, gpu float64)

// BatteryListener receives charge-status changes.
type BatteryListener func(percent int, charging bool)

type classifiedSensor struct {
	sensor.Sensor
	class thermal.Source
}

// Monitor polls a sensor.Source on a fixed interval, keeps the latest
// reading per source class, and fans readings out to listeners. Reads
// never block callers: Temperature returns the cached value.
type Monitor struct {
	src      sensor.Source
	interval time.Duration
	sensors  []classifiedSensor

	mu     sync.RWMutex
	latest map[thermal.Source]float64

	listenerMu       sync.Mutex
	tempListeners    []TempListener
	batteryListeners []BatteryListener

	lastPercent  int
	lastCharging bool
	haveBattery  bool

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

// New classifies the source's discovered zones and returns a monitor
// ready to start. An unrecognized zone is tagged UNKNOWN, never
// rejected.
func New(src sensor.Source, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m := &Monitor{
		src:      src,
		interval: interval,
		latest:   make(map[thermal.Source]float64),
	}

	for _, s := range src.Sensors() {
		class := ClassifyZone(s.Type)
		m.sensors = append(m.sensors, classifiedSensor{Sensor: s, class: class})
		logger.Debug().Str("zone", s.Path).Str("type", s.Type).Str("class", string(class)).Msg("Classified thermal zone")
	}

	return m
}

// ClassifyZone maps a platform zone label onto a thermal source.
func ClassifyZone(zoneType string) thermal.Source {
	label := strings.ToLower(zoneType)

	for _, fragment := range batteryFragments {
		if strings.Contains(label, fragment) {
			return thermal.SourceBattery
		}
	}
	for _, fragment := range gpuFragments {
		if strings.Contains(label, fragment) {
			return thermal.SourceGPU
		}
	}
	for _, fragment := range skinFragments {
		if strings.Contains(label, fragment) {
			return thermal.SourceSkin
		}
	}
	for _, fragment := range cpuFragments {
		if strings.Contains(label, fragment) {
			return thermal.SourceCPU
		}
	}

	return thermal.SourceUnknown
}

// Start begins periodic polling. Safe to call once per Stop.
func (m *Monitor) Start() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.stop != nil {
		return
	}

	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.loop(m.stop, m.done)
}

// Stop halts polling. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.stop == nil {
		return
	}

	close(m.stop)
	<-m.done
	m.stop = nil
	m.done = nil
}

func (m *Monitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll performs one sampling tick. Exposed so the governor can share
// the monitor's cadence without a second timer, and for tests.
func (m *Monitor) Poll() {
	sampled := false

	if cpu, ok := m.maxReading(thermal.SourceCPU); ok {
		m.store(thermal.SourceCPU, cpu)
		sampled = true
	} else if cpu, ok := m.fallbackCPU(); ok {
		m.store(thermal.SourceCPU, cpu)
		sampled = true
	}

	if gpu, ok := m.maxReading(thermal.SourceGPU); ok {
		m.store(thermal.SourceGPU, gpu)
		sampled = true
	}

	if skin, ok := m.maxReading(thermal.SourceSkin); ok {
		m.store(thermal.SourceSkin, skin)
		sampled = true
	}

	if reading, err := m.src.ReadBattery(); err == nil {
		m.store(thermal.SourceBattery, reading.TempC)
		sampled = true
		m.notifyBatteryChange(reading)
	} else if batt, ok := m.maxReading(thermal.SourceBattery); ok {
		// No power-supply reading; a battery-labelled zone still gives
		// a temperature.
		m.store(thermal.SourceBattery, batt)
		sampled = true
	}

	if !sampled {
		return
	}

	cpu := m.Temperature(thermal.SourceCPU)
	battery := m.Temperature(thermal.SourceBattery)
	gpu := m.Temperature(thermal.SourceGPU)

	m.listenerMu.Lock()
	listeners := make([]TempListener, len(m.tempListeners))
	copy(listeners, m.tempListeners)
	m.listenerMu.Unlock()

	for _, notify := range listeners {
		notify(cpu, battery, gpu)
	}
}

// maxReading reads every zone of the given class and returns the
// worst-case hot spot. Individual read failures are swallowed.
func (m *Monitor) maxReading(class thermal.Source) (float64, bool) {
	maxTemp := 0.0
	found := false

	for _, s := range m.sensors {
		if s.class != class {
			continue
		}

		temp, err := m.src.ReadTemp(s.Path)
		if err != nil {
			logger.Debug().Err(err).Str("zone", s.Path).Msg("Zone read failed, skipping this tick")
			continue
		}

		if !found || temp > maxTemp {
			maxTemp = temp
			found = true
		}
	}

	return maxTemp, found
}

func (m *Monitor) fallbackCPU() (float64, bool) {
	for _, path := range fallbackCPUPaths {
		if temp, err := m.src.ReadTemp(path); err == nil {
			return temp, true
		}
	}

	return 0, false
}

func (m *Monitor) store(class thermal.Source, temp float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[class] = temp
}

// Temperature returns the latest cached reading for a source class, or
// 0 when the class was never sampled. Never blocks on I/O.
func (m *Monitor) Temperature(class thermal.Source) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.latest[class]
}

// AddListener registers for per-tick readings.
func (m *Monitor) AddListener(l TempListener) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.tempListeners = append(m.tempListeners, l)
}

// AddBatteryListener registers for charge-status changes.
func (m *Monitor) AddBatteryListener(l BatteryListener) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.batteryListeners = append(m.batteryListeners, l)
}

// RemoveListeners detaches every listener. Called on teardown.
func (m *Monitor) RemoveListeners() {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.tempListeners = nil
	m.batteryListeners = nil
}

func (m *Monitor) notifyBatteryChange(reading sensor.BatteryReading) {
	m.listenerMu.Lock()

	changed := !m.haveBattery || reading.Percent != m.lastPercent || reading.Charging != m.lastCharging
	m.haveBattery = true
	m.lastPercent = reading.Percent
	m.lastCharging = reading.Charging

	listeners := make([]BatteryListener, len(m.batteryListeners))
	copy(listeners, m.batteryListeners)
	m.listenerMu.Unlock()

	if !changed {
		return
	}

	for _, notify := range listeners {
		notify(reading.Percent, reading.Charging)
	}
}
