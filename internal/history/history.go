package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/thermal"
)

const (
	DefaultCapacity         = 1440 // ~24h at one sample per minute
	DefaultEventCapacity    = 500
	DefaultRetention        = 24 * time.Hour
	DefaultSnapshotInterval = time.Minute

	entriesFile = "thermal_history.json"
	eventsFile  = "thermal_events.json"

	stateFilePerm = os.FileMode(0o600)
	stateDirPerm  = os.FileMode(0o755)
)

// Sampler supplies the current CPU and battery temperatures for a
// snapshot. The monitor's cached readings back this in production.
type Sampler func() (cpu, battery float64)

type Config struct {
	Capacity         int
	EventCapacity    int
	Retention        time.Duration
	SnapshotInterval time.Duration
	// StateDir holds the persisted buffers. Empty disables persistence.
	StateDir string
}

func DefaultConfig() Config {
	return Config{
		Capacity:         DefaultCapacity,
		EventCapacity:    DefaultEventCapacity,
		Retention:        DefaultRetention,
		SnapshotInterval: DefaultSnapshotInterval,
	}
}

// Stats summarizes a trailing window of history entries.
type Stats struct {
	Samples      int
	CPUMin       float64
	CPUMax       float64
	CPUAvg       float64
	BatteryMin   float64
	BatteryMax   float64
	BatteryAvg   float64
	TimeInLevel  map[thermal.Level]time.Duration
	WindowStart  time.Time
	WindowEnd    time.Time
}

// History owns the bounded snapshot buffer and the bounded transition
// event log, and is the only writer of their persisted copies.
type History struct {
	cfg     Config
	sampler Sampler
	now     func() time.Time

	thresholdMu  sync.Mutex
	cpuLimits    []thermal.Threshold
	batteryLimit []thermal.Threshold

	mu      sync.Mutex
	entries []thermal.HistoryEntry

	evMu   sync.Mutex
	events []thermal.Event

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

// New builds a history, reloading any persisted buffers and discarding
// entries older than the retention window. A corrupt or missing file
// degrades to an empty history, never an error.
func New(cfg Config, sampler Sampler) *History {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.EventCapacity <= 0 {
		cfg.EventCapacity = DefaultEventCapacity
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}

	h := &History{
		cfg:     cfg,
		sampler: sampler,
		now:     time.Now,
	}
	h.load()

	return h
}

// SetThresholds updates the threshold lists used for instantaneous
// level classification of snapshots. Called when the active profile
// changes.
func (h *History) SetThresholds(cpu, battery []thermal.Threshold) {
	h.thresholdMu.Lock()
	defer h.thresholdMu.Unlock()
	h.cpuLimits = cpu
	h.batteryLimit = battery
}

// StartRecording begins the periodic snapshot loop.
func (h *History) StartRecording() {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	if h.stop != nil {
		return
	}

	h.stop = make(chan struct{})
	h.done = make(chan struct{})

	go h.loop(h.stop, h.done)
}

// StopRecording halts the loop and persists both buffers. Safe to call
// multiple times.
func (h *History) StopRecording() {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	if h.stop != nil {
		close(h.stop)
		<-h.done
		h.stop = nil
		h.done = nil
	}

	h.persist()
}

func (h *History) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(h.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.RecordCurrentState()
		}
	}
}

// RecordCurrentState appends one snapshot of the sampler's readings.
// Levels are graded without hysteresis: history reports what the
// temperature looked like, not what the governor decided.
func (h *History) RecordCurrentState() {
	cpu, battery := h.sampler()

	h.thresholdMu.Lock()
	cpuLevel := thermal.Classify(h.cpuLimits, cpu)
	batteryLevel := thermal.Classify(h.batteryLimit, battery)
	h.thresholdMu.Unlock()

	entry := thermal.HistoryEntry{
		Timestamp:    h.now(),
		CPUTempC:     cpu,
		BatteryTempC: battery,
		CPULevel:     cpuLevel,
		BatteryLevel: batteryLevel,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.cfg.Capacity {
		h.entries = h.entries[len(h.entries)-h.cfg.Capacity:]
	}
}

// RecordEvent appends a level-transition row to the bounded event log.
func (h *History) RecordEvent(ev thermal.Event) {
	h.evMu.Lock()
	defer h.evMu.Unlock()

	h.events = append(h.events, ev)
	if len(h.events) > h.cfg.EventCapacity {
		h.events = h.events[len(h.events)-h.cfg.EventCapacity:]
	}
}

// Entries returns a snapshot copy of the history buffer.
func (h *History) Entries() []thermal.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]thermal.HistoryEntry, len(h.entries))
	copy(out, h.entries)

	return out
}

// Events returns a snapshot copy of the event log.
func (h *History) Events() []thermal.Event {
	h.evMu.Lock()
	defer h.evMu.Unlock()

	out := make([]thermal.Event, len(h.events))
	copy(out, h.events)

	return out
}

// Stats computes min/max/avg per source and dwell time per level over
// the trailing window. Each inter-sample gap is attributed to the
// overall level observed at the start of the gap; keep that accounting
// as-is, reports built on top of it depend on the semantics.
func (h *History) Stats(windowHours int) Stats {
	entries := h.Entries()

	cutoff := h.now().Add(-time.Duration(windowHours) * time.Hour)
	var window []thermal.HistoryEntry
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			window = append(window, e)
		}
	}

	stats := Stats{TimeInLevel: make(map[thermal.Level]time.Duration)}
	if len(window) == 0 {
		return stats
	}

	stats.Samples = len(window)
	stats.WindowStart = window[0].Timestamp
	stats.WindowEnd = window[len(window)-1].Timestamp
	stats.CPUMin = window[0].CPUTempC
	stats.CPUMax = window[0].CPUTempC
	stats.BatteryMin = window[0].BatteryTempC
	stats.BatteryMax = window[0].BatteryTempC

	var cpuSum, batterySum float64
	for i, e := range window {
		cpuSum += e.CPUTempC
		batterySum += e.BatteryTempC

		if e.CPUTempC < stats.CPUMin {
			stats.CPUMin = e.CPUTempC
		}
		if e.CPUTempC > stats.CPUMax {
			stats.CPUMax = e.CPUTempC
		}
		if e.BatteryTempC < stats.BatteryMin {
			stats.BatteryMin = e.BatteryTempC
		}
		if e.BatteryTempC > stats.BatteryMax {
			stats.BatteryMax = e.BatteryTempC
		}

		if i+1 < len(window) {
			dt := window[i+1].Timestamp.Sub(e.Timestamp)
			level := thermal.MaxLevel(e.CPULevel, e.BatteryLevel)
			stats.TimeInLevel[level] += dt
		}
	}

	stats.CPUAvg = cpuSum / float64(len(window))
	stats.BatteryAvg = batterySum / float64(len(window))

	return stats
}

// GraphData decimates the buffer to at most the requested number of
// points by fixed stride. Cheap and deterministic for charting; not a
// statistical downsample.
func (h *History) GraphData(points int) []thermal.HistoryEntry {
	entries := h.Entries()

	if points <= 0 || len(entries) <= points {
		return entries
	}

	stride := len(entries) / points
	out := make([]thermal.HistoryEntry, 0, points)
	for i := 0; i < len(entries) && len(out) < points; i += stride {
		out = append(out, entries[i])
	}

	return out
}

func (h *History) persist() {
	if h.cfg.StateDir == "" {
		return
	}

	if err := os.MkdirAll(h.cfg.StateDir, stateDirPerm); err != nil {
		logger.Warn().Err(err).Msg("Failed to create history state dir")
		return
	}

	writeJSON(filepath.Join(h.cfg.StateDir, entriesFile), h.Entries())
	writeJSON(filepath.Join(h.cfg.StateDir, eventsFile), h.Events())
}

func (h *History) load() {
	if h.cfg.StateDir == "" {
		return
	}

	var entries []thermal.HistoryEntry
	if readJSON(filepath.Join(h.cfg.StateDir, entriesFile), &entries) {
		cutoff := h.now().Add(-h.cfg.Retention)
		for _, e := range entries {
			if e.Timestamp.After(cutoff) {
				h.entries = append(h.entries, e)
			}
		}
		if len(h.entries) > h.cfg.Capacity {
			h.entries = h.entries[len(h.entries)-h.cfg.Capacity:]
		}
	}

	var events []thermal.Event
	if readJSON(filepath.Join(h.cfg.StateDir, eventsFile), &events) {
		cutoff := h.now().Add(-h.cfg.Retention)
		for _, ev := range events {
			if ev.Timestamp.After(cutoff) {
				h.events = append(h.events, ev)
			}
		}
		if len(h.events) > h.cfg.EventCapacity {
			h.events = h.events[len(h.events)-h.cfg.EventCapacity:]
		}
	}

	logger.Debug().Int("entries", len(h.entries)).Int("events", len(h.events)).Msg("History reloaded")
}

func writeJSON(path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to encode history state")
		return
	}

	if err := os.WriteFile(path, data, stateFilePerm); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to write history state")
	}
}

// readJSON loads path into v, reporting success. Missing and corrupt
// files both read as absent.
func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read history state")
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Corrupt history state, starting empty")
		return false
	}

	return true
}
