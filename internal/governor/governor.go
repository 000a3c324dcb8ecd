package governor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kasard/thermactl/internal/bypass"
	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/history"
	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/monitor"
	"github.com/kasard/thermactl/internal/thermal"
)

// appliedState is the governor's view of which protective measures are
// currently in force. Owned exclusively by the evaluation path; the
// diff between ticks drives the throttle callbacks.
type appliedState struct {
	bitratePct    int
	resolutionCut bool
	framerateCut  bool
	paused        bool
	chargingHold  bool
	alerting      bool
}

func (s appliedState) encoderCut() bool {
	return s.bitratePct > 0 || s.resolutionCut || s.framerateCut
}

// Governor is the control core. It consumes the monitor's cached
// readings on a fixed interval, grades each source with hysteresis,
// and escalates or winds back protective actions on transitions. It
// owns the lifecycle of its collaborators; wiring is one-directional.
type Governor struct {
	mon       *monitor.Monitor
	hist      *history.History
	byp       *bypass.Controller
	throttler Throttler
	recorder  Recorder
	bcast     *broadcaster

	cfgMu sync.Mutex
	cfg   Config

	evalMu       sync.Mutex
	cpuLevel     thermal.Level
	batteryLevel thermal.Level
	applied      appliedState

	statusMu sync.RWMutex
	status   thermal.Status

	batteryMu       sync.Mutex
	batteryPercent  int
	batteryCharging bool

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

// New wires a governor. The recorder may be nil.
func New(cfg Config, mon *monitor.Monitor, hist *history.History, byp *bypass.Controller, throttler Throttler, recorder Recorder) (*Governor, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	g := &Governor{
		mon:       mon,
		hist:      hist,
		byp:       byp,
		throttler: throttler,
		recorder:  recorder,
		bcast:     newBroadcaster(),
		cfg:       cfg,
	}
	g.hist.SetThresholds(cfg.CPUThresholds, cfg.BatteryThresholds)

	return g, nil
}

// SetConfig swaps the rendered configuration, e.g. when the active
// profile changes. Takes effect on the next tick.
func (g *Governor) SetConfig(cfg Config) error {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	g.cfgMu.Lock()
	g.cfg = cfg
	g.cfgMu.Unlock()

	g.hist.SetThresholds(cfg.CPUThresholds, cfg.BatteryThresholds)
	logger.Info().Msg("Governor configuration updated")

	return nil
}

func (g *Governor) config() Config {
	g.cfgMu.Lock()
	defer g.cfgMu.Unlock()

	return g.cfg
}

// Start brings up the monitor, history recording and bypass loops,
// then the evaluation loop. Safe to call once per Stop.
func (g *Governor) Start() {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	if g.stop != nil {
		return
	}

	g.mon.AddBatteryListener(func(percent int, charging bool) {
		g.batteryMu.Lock()
		g.batteryPercent = percent
		g.batteryCharging = charging
		g.batteryMu.Unlock()
	})

	g.mon.Start()
	g.hist.StartRecording()
	g.byp.Start()

	g.stop = make(chan struct{})
	g.done = make(chan struct{})

	go g.loop(g.stop, g.done)
	logger.Info().Dur("interval", g.config().Interval).Msg("Thermal governor started")
}

// Stop tears the governor down: evaluation loop first, then every
// throttle action is restored to inactive and charging re-enabled, so
// a caller never observes a stopped governor with live throttling.
// Safe to call multiple times.
func (g *Governor) Stop() {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	if g.stop != nil {
		close(g.stop)
		<-g.done
		g.stop = nil
		g.done = nil
	}

	g.restoreAll()

	g.byp.Stop()
	g.hist.StopRecording()
	g.mon.Stop()
	g.mon.RemoveListeners()
}

// Release is the final teardown: Stop plus closing the status stream.
func (g *Governor) Release() {
	g.Stop()
	g.bcast.close()
	logger.Info().Msg("Thermal governor released")
}

func (g *Governor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(g.config().Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.Evaluate()
		}
	}
}

// Evaluate runs one governor tick against the monitor's cached
// readings. Exposed for tests and for callers that changed something
// and want an immediate re-check.
func (g *Governor) Evaluate() {
	g.evalMu.Lock()
	defer g.evalMu.Unlock()

	cfg := g.config()

	cpuTemp := g.mon.Temperature(thermal.SourceCPU)
	batteryTemp := g.mon.Temperature(thermal.SourceBattery)
	gpuTemp := g.mon.Temperature(thermal.SourceGPU)

	newCPU := thermal.Next(cfg.CPUThresholds, g.cpuLevel, cpuTemp)
	newBattery := thermal.Next(cfg.BatteryThresholds, g.batteryLevel, batteryTemp)

	cpuChanged := newCPU != g.cpuLevel
	batteryChanged := newBattery != g.batteryLevel

	now := time.Now()

	if cpuChanged {
		g.recordTransition(cfg.CPUThresholds, thermal.SourceCPU, g.cpuLevel, newCPU, cpuTemp, now)
	}
	if batteryChanged {
		g.recordTransition(cfg.BatteryThresholds, thermal.SourceBattery, g.batteryLevel, newBattery, batteryTemp, now)
	}

	desired := desiredFor(cfg, newCPU, newBattery)

	alertMsg := ""
	if desired.alerting && !g.applied.alerting {
		alertMsg = alertMessage(newCPU, newBattery, cpuTemp, batteryTemp)
	}

	g.applyDesired(g.applied, desired, alertMsg)
	g.applied = desired
	g.cpuLevel = newCPU
	g.batteryLevel = newBattery

	g.batteryMu.Lock()
	percent, charging := g.batteryPercent, g.batteryCharging
	g.batteryMu.Unlock()

	status := thermal.Status{
		Timestamp:       now,
		CPUTempC:        cpuTemp,
		BatteryTempC:    batteryTemp,
		GPUTempC:        gpuTemp,
		CPULevel:        newCPU,
		BatteryLevel:    newBattery,
		OverallLevel:    thermal.MaxLevel(newCPU, newBattery),
		ActiveActions:   activeActions(desired),
		Throttling:      desired != (appliedState{}),
		BitrateCutPct:   desired.bitratePct,
		ResolutionCut:   desired.resolutionCut,
		FramerateCut:    desired.framerateCut,
		StreamingPaused: desired.paused,
		ChargingHeld:    desired.chargingHold,
		BatteryPercent:  percent,
		BatteryCharging: charging,
	}

	g.statusMu.Lock()
	g.status = status
	g.statusMu.Unlock()

	if cpuChanged || batteryChanged {
		g.bcast.publish(status)
	}

	if g.recorder != nil {
		if err := g.recorder.Record(context.Background(), status); err != nil {
			logger.Debug().Err(err).Msg("Telemetry record failed")
		}
	}
}

// Status returns the latest snapshot. Always available, never blocks
// on the evaluation loop.
func (g *Governor) Status() thermal.Status {
	g.statusMu.RLock()
	defer g.statusMu.RUnlock()

	return g.status
}

// Throttling reports whether any protective action is active.
func (g *Governor) Throttling() bool {
	return g.Status().Throttling
}

// Subscribe returns a status change stream. Delivery is lossy under
// backpressure; the newest status always lands.
func (g *Governor) Subscribe(buffer int) (<-chan thermal.Status, func()) {
	return g.bcast.subscribe(buffer)
}

func (g *Governor) recordTransition(thresholds []thermal.Threshold, source thermal.Source, old, level thermal.Level, temp float64, now time.Time) {
	var actions []thermal.Action
	if t, ok := thermal.ThresholdFor(thresholds, level); ok {
		actions = t.Actions
	}

	g.hist.RecordEvent(thermal.Event{
		Timestamp: now,
		Source:    source,
		OldLevel:  old,
		NewLevel:  level,
		TempC:     temp,
		Actions:   actions,
	})

	event := logger.Info()
	if level < old {
		event = logger.Debug()
	}
	event.
		Str("source", string(source)).
		Str("old_level", old.String()).
		Str("new_level", level.String()).
		Float64("temp_c", temp).
		Msg("Thermal level transition")
}

// desiredFor maps the pair of source levels onto the set of measures
// that must be in force.
func desiredFor(cfg Config, cpu, battery thermal.Level) appliedState {
	var d appliedState

	if cpu >= thermal.LevelWarning {
		d.bitratePct = cfg.WarningBitratePct
	}
	if cpu >= thermal.LevelCritical {
		d.bitratePct = cfg.CriticalBitratePct
		d.resolutionCut = true
		d.framerateCut = true
	}
	if battery >= thermal.LevelWarning {
		d.chargingHold = true
	}
	if battery >= thermal.LevelCritical {
		d.alerting = true
	}
	if cpu >= thermal.LevelEmergency || battery >= thermal.LevelEmergency {
		d.paused = true
		d.alerting = true
	}

	return d
}

// applyDesired invokes throttle callbacks for exactly the measures
// that changed. Escalation is additive; de-escalation winds back to a
// blanket restore plus whatever reduction the destination level keeps.
func (g *Governor) applyDesired(prev, next appliedState, alertMsg string) {
	if next.paused && !prev.paused {
		g.throttler.PauseStreaming()
		logger.Warn().Msg("Streaming paused by thermal governor")
	}
	if !next.paused && prev.paused {
		g.throttler.ResumeStreaming()
		logger.Info().Msg("Streaming resumed by thermal governor")
	}

	switch {
	case prev.encoderCut() && !next.encoderCut():
		g.throttler.RestoreSettings()
	case (prev.resolutionCut && !next.resolutionCut) || (prev.framerateCut && !next.framerateCut):
		// Partial wind-back, e.g. CRITICAL to WARNING: resolution and
		// framerate return to baseline, bitrate stays reduced at the
		// destination's magnitude.
		g.throttler.RestoreSettings()
		if next.bitratePct > 0 {
			g.throttler.ReduceBitrate(next.bitratePct)
		}
		if next.resolutionCut {
			g.throttler.ReduceResolution()
		}
		if next.framerateCut {
			g.throttler.ReduceFramerate()
		}
	default:
		if next.bitratePct > 0 && next.bitratePct != prev.bitratePct {
			g.throttler.ReduceBitrate(next.bitratePct)
		}
		if next.resolutionCut && !prev.resolutionCut {
			g.throttler.ReduceResolution()
		}
		if next.framerateCut && !prev.framerateCut {
			g.throttler.ReduceFramerate()
		}
	}

	if next.chargingHold != prev.chargingHold {
		g.byp.SetThermalHold(next.chargingHold)
	}

	if next.alerting && !prev.alerting && alertMsg != "" {
		g.throttler.AlertUser(alertMsg)
	}
}

// restoreAll forces every measure inactive. Used on teardown.
func (g *Governor) restoreAll() {
	g.evalMu.Lock()
	defer g.evalMu.Unlock()

	g.applyDesired(g.applied, appliedState{}, "")
	g.applied = appliedState{}
	g.cpuLevel = thermal.LevelNormal
	g.batteryLevel = thermal.LevelNormal

	g.statusMu.Lock()
	g.status = thermal.Status{
		Timestamp:     time.Now(),
		ActiveActions: nil,
		Throttling:    false,
	}
	g.statusMu.Unlock()
}

func activeActions(s appliedState) []thermal.Action {
	var actions []thermal.Action

	if s.bitratePct > 0 {
		actions = append(actions, thermal.ActionReduceBitrate)
	}
	if s.resolutionCut {
		actions = append(actions, thermal.ActionReduceResolution)
	}
	if s.framerateCut {
		actions = append(actions, thermal.ActionReduceFramerate)
	}
	if s.paused {
		actions = append(actions, thermal.ActionPauseStreaming)
	}
	if s.chargingHold {
		actions = append(actions, thermal.ActionDisableCharging)
	}
	if s.alerting {
		actions = append(actions, thermal.ActionAlertUser)
	}

	return actions
}

func alertMessage(cpu, battery thermal.Level, cpuTemp, batteryTemp float64) string {
	if battery >= cpu {
		return fmt.Sprintf("battery thermal level %s at %.1f°C", battery, batteryTemp)
	}

	return fmt.Sprintf("CPU thermal level %s at %.1f°C", cpu, cpuTemp)
}
