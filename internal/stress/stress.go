package stress

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/profile"
	"github.com/kasard/thermactl/internal/thermal"
)

const (
	MinDuration           = 60 * time.Second
	MaxDuration           = 600 * time.Second
	DefaultSampleInterval = 5 * time.Second

	// Safety floors for derived triggers: a stress run on a cool bench
	// must not calibrate the governor into complacency.
	cpuWarnFloorC      = 40.0
	cpuCriticalFloorC  = 45.0
	cpuEmergencyFloorC = 50.0
	batWarnFloorC      = 35.0
	batCriticalFloorC  = 38.0
	batEmergencyFloorC = 41.0
)

// TempSource supplies cached per-class temperatures; the monitor
// satisfies it.
type TempSource interface {
	Temperature(source thermal.Source) float64
}

// ThrottleSource reports whether the governor is currently throttling.
type ThrottleSource interface {
	Throttling() bool
}

type sample struct {
	cpu       float64
	battery   float64
	throttled bool
}

// Result is the outcome of a completed session.
type Result struct {
	SessionID        string          `json:"session_id"`
	StartedAt        time.Time       `json:"started_at"`
	EndedAt          time.Time       `json:"ended_at"`
	Samples          int             `json:"samples"`
	ThrottledSamples int             `json:"throttled_samples"`
	CPUPeakC         float64         `json:"cpu_peak_c"`
	CPUAvgC          float64         `json:"cpu_avg_c"`
	BatteryPeakC     float64         `json:"battery_peak_c"`
	BatteryAvgC      float64         `json:"battery_avg_c"`
	Recommended      profile.Profile `json:"recommended"`
}

// Status is the pollable progress of a session.
type Status struct {
	Running   bool          `json:"running"`
	SessionID string        `json:"session_id"`
	Elapsed   time.Duration `json:"elapsed"`
	Duration  time.Duration `json:"duration"`
	Samples   int           `json:"samples"`
}

// Test runs a time-boxed calibration session: it samples temperatures
// and the throttling flag while an external load generator (the
// encoder) keeps the device busy, then derives a recommended profile
// from what it saw.
type Test struct {
	temps    TempSource
	gov      ThrottleSource
	interval time.Duration

	mu        sync.Mutex
	running   bool
	sessionID string
	startedAt time.Time
	duration  time.Duration
	samples   []sample
	result    *Result

	stop chan struct{}
	done chan struct{}
}

// New builds a stress test. A zero sampleInterval selects the default.
func New(temps TempSource, gov ThrottleSource, sampleInterval time.Duration) *Test {
	if sampleInterval <= 0 {
		sampleInterval = DefaultSampleInterval
	}

	return &Test{temps: temps, gov: gov, interval: sampleInterval}
}

// Start begins a session of the requested duration, clamped to
// [MinDuration, MaxDuration]. Only one session runs at a time.
func (t *Test) Start(duration time.Duration) error {
	errFactory := errors.New()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return errFactory.New(errors.ErrAlreadyRunning)
	}

	if duration < MinDuration {
		duration = MinDuration
	}
	if duration > MaxDuration {
		duration = MaxDuration
	}

	t.running = true
	t.sessionID = uuid.NewString()
	t.startedAt = time.Now()
	t.duration = duration
	t.samples = nil
	t.result = nil
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	go t.loop(t.stop, t.done, t.startedAt.Add(duration))

	logger.Info().Str("session", t.sessionID).Dur("duration", duration).Msg("Stress test started")

	return nil
}

// Stop ends the session early. The partial result (if any samples were
// collected) is still derived. Safe to call when not running and from
// concurrent callers: the stop channel is closed under the mutex and
// cleared, so only one caller ever closes it.
func (t *Test) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	if stop != nil {
		close(stop)
		t.stop = nil
	}
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (t *Test) loop(stop <-chan struct{}, done chan<- struct{}, deadline time.Time) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			t.finish()
			return
		case now := <-ticker.C:
			t.collect()
			if !now.Before(deadline) {
				t.finish()
				return
			}
		}
	}
}

func (t *Test) collect() {
	s := sample{
		cpu:       t.temps.Temperature(thermal.SourceCPU),
		battery:   t.temps.Temperature(thermal.SourceBattery),
		throttled: t.gov.Throttling(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, s)
}

func (t *Test) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false

	if len(t.samples) == 0 {
		logger.Warn().Str("session", t.sessionID).Msg("Stress test collected no samples, no result")
		return
	}

	var cpuPeak, cpuSum, batPeak, batSum float64
	throttled := 0
	for _, s := range t.samples {
		cpuSum += s.cpu
		batSum += s.battery
		if s.cpu > cpuPeak {
			cpuPeak = s.cpu
		}
		if s.battery > batPeak {
			batPeak = s.battery
		}
		if s.throttled {
			throttled++
		}
	}

	n := float64(len(t.samples))
	recommended := Recommend(cpuPeak, batPeak)
	recommended.Notes = fmt.Sprintf("Calibrated by stress session %s (%d samples, CPU peak %.1f°C, battery peak %.1f°C)",
		t.sessionID, len(t.samples), cpuPeak, batPeak)

	t.result = &Result{
		SessionID:        t.sessionID,
		StartedAt:        t.startedAt,
		EndedAt:          time.Now(),
		Samples:          len(t.samples),
		ThrottledSamples: throttled,
		CPUPeakC:         cpuPeak,
		CPUAvgC:          cpuSum / n,
		BatteryPeakC:     batPeak,
		BatteryAvgC:      batSum / n,
		Recommended:      recommended,
	}

	logger.Info().
		Str("session", t.sessionID).
		Int("samples", len(t.samples)).
		Float64("cpu_peak_c", cpuPeak).
		Float64("battery_peak_c", batPeak).
		Msg("Stress test finished")
}

// Status reports session progress.
func (t *Test) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Status{
		Running:   t.running,
		SessionID: t.sessionID,
		Duration:  t.duration,
		Samples:   len(t.samples),
	}
	if t.running {
		s.Elapsed = time.Since(t.startedAt)
	}

	return s
}

// Result returns the derived outcome of the last completed session.
func (t *Test) Result() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.result == nil {
		return Result{}, false
	}

	return *t.result, true
}

// Recommend derives a threshold profile from observed peaks: warn a
// margin under the peak, emergency at the peak itself, with safety
// floors, plus the sustainable encode tier for the peak CPU bracket.
func Recommend(cpuPeak, batteryPeak float64) profile.Profile {
	p := profile.Profile{
		Name: "Stress test calibration",
		CPU: profile.ThresholdTriple{
			WarnC:      floor(cpuPeak-10, cpuWarnFloorC),
			CriticalC:  floor(cpuPeak-5, cpuCriticalFloorC),
			EmergencyC: floor(cpuPeak, cpuEmergencyFloorC),
		},
		Battery: profile.ThresholdTriple{
			WarnC:      floor(batteryPeak-6, batWarnFloorC),
			CriticalC:  floor(batteryPeak-3, batCriticalFloorC),
			EmergencyC: floor(batteryPeak, batEmergencyFloorC),
		},
		HysteresisC: 3,
	}

	switch {
	case cpuPeak < 50:
		p.Sustainable = profile.Sustainable{BitrateKbps: 8000, Width: 1920, Height: 1080, Framerate: 30}
	case cpuPeak < 55:
		p.Sustainable = profile.Sustainable{BitrateKbps: 5000, Width: 1920, Height: 1080, Framerate: 30}
	case cpuPeak < 60:
		p.Sustainable = profile.Sustainable{BitrateKbps: 4000, Width: 1920, Height: 1080, Framerate: 24}
	default:
		p.Sustainable = profile.Sustainable{BitrateKbps: 3000, Width: 1280, Height: 720, Framerate: 24}
	}

	return p
}

func floor(value, min float64) float64 {
	if value < min {
		return min
	}

	return value
}
