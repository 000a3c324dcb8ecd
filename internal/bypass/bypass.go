package bypass

import (
	"fmt"
	"sync"
	"time"

	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/logger"
	"github.com/kasard/thermactl/internal/sensor"
)

// State is the controller's current charging posture.
type State string

const (
	StateDisabled    State = "DISABLED"
	StateCharging    State = "CHARGING"
	StateHolding     State = "HOLDING"
	StateThermalHold State = "THERMAL_HOLD"
	StateManualHold  State = "MANUAL_HOLD"
)

const (
	DefaultTargetPercent = 80
	DefaultResumePercent = 70
	DefaultMaxTempC      = 42.0
	DefaultResumeTempC   = 38.0
	DefaultInterval      = 30 * time.Second
)

type Config struct {
	TargetPercent int
	ResumePercent int
	MaxTempC      float64
	ResumeTempC   float64
	Interval      time.Duration
}

func DefaultConfig() Config {
	return Config{
		TargetPercent: DefaultTargetPercent,
		ResumePercent: DefaultResumePercent,
		MaxTempC:      DefaultMaxTempC,
		ResumeTempC:   DefaultResumeTempC,
		Interval:      DefaultInterval,
	}
}

// Status is recomputed on every evaluation.
type Status struct {
	State           State   `json:"state"`
	BatteryPercent  int     `json:"battery_percent"`
	BatteryTempC    float64 `json:"battery_temp_c"`
	TargetPercent   int     `json:"target_percent"`
	ResumePercent   int     `json:"resume_percent"`
	HardwareControl bool    `json:"hardware_control"`
	Reason          string  `json:"reason"`
}

// Controller limits battery charging to a percentage band, with a
// temperature override. It runs its own evaluation loop but also takes
// commands: the governor forces a thermal hold when the battery source
// escalates, and the control plane can impose a manual hold.
//
// When the platform exposes no writable charge-control path the
// controller still tracks and reports state (advisory mode).
type Controller struct {
	cfg Config
	src sensor.Source

	control    sensor.ChargeControl
	hasControl bool

	mu           sync.Mutex
	enabled      bool
	manualHold   bool
	governorHold bool
	state        State
	chargingOn   bool
	haveApplied  bool
	status       Status

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

// New detects the charge-control capability once and returns a
// controller in the DISABLED state.
func New(cfg Config, src sensor.Source) *Controller {
	if cfg.TargetPercent <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	c := &Controller{
		cfg:   cfg,
		src:   src,
		state: StateDisabled,
	}
	c.control, c.hasControl = src.ChargeControl()

	c.status = Status{
		State:           StateDisabled,
		TargetPercent:   cfg.TargetPercent,
		ResumePercent:   cfg.ResumePercent,
		HardwareControl: c.hasControl,
		Reason:          "bypass disabled",
	}

	return c
}

// Start begins periodic evaluation. Enablement is a separate switch:
// the loop runs with whatever SetEnabled last chose, so a controller
// configured off stays off when its owner starts it.
func (c *Controller) Start() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.stop != nil {
		return
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.loop(c.stop, c.done)
}

// Stop halts the loop and restores charging so a stopped controller
// never leaves the battery held. Safe to call multiple times.
func (c *Controller) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.stop != nil {
		close(c.stop)
		<-c.done
		c.stop = nil
		c.done = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
	c.governorHold = false
	c.manualHold = false
	c.applyCharging(true)
	c.state = StateDisabled
	c.refreshStatus(0, 0, "bypass stopped")
}

func (c *Controller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.Evaluate()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Evaluate()
		}
	}
}

// Evaluate runs one control decision against the current battery
// reading. Exposed for tests and for callers that want an immediate
// re-check after changing limits.
func (c *Controller) Evaluate() {
	reading, err := c.src.ReadBattery()
	if err != nil {
		logger.Debug().Err(err).Msg("Battery read failed, skipping bypass tick")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The governor's hold outranks everything, including a disabled
	// controller: it is the DISABLE_CHARGING throttle action.
	if c.governorHold {
		c.applyCharging(false)
		c.state = StateThermalHold
		c.refreshStatus(reading.Percent, reading.TempC, "thermal hold commanded by governor")
		return
	}

	if !c.enabled {
		// A disabled controller never restricts charging.
		c.applyCharging(true)
		c.state = StateDisabled
		c.refreshStatus(reading.Percent, reading.TempC, "bypass disabled")
		return
	}

	if c.manualHold {
		c.applyCharging(false)
		c.state = StateManualHold
		c.refreshStatus(reading.Percent, reading.TempC, "manual hold requested")
		return
	}

	// Thermal override wins over the percentage band. It engages at
	// max-temp and only releases below the lower resume-temp.
	if reading.TempC >= c.cfg.MaxTempC ||
		(c.state == StateThermalHold && reading.TempC >= c.cfg.ResumeTempC) {
		c.applyCharging(false)
		c.state = StateThermalHold
		c.refreshStatus(reading.Percent, reading.TempC,
			fmt.Sprintf("battery at %.1f°C, charging held until below %.1f°C", reading.TempC, c.cfg.ResumeTempC))
		return
	}

	switch {
	case reading.Percent >= c.cfg.TargetPercent:
		c.applyCharging(false)
		c.state = StateHolding
		c.refreshStatus(reading.Percent, reading.TempC,
			fmt.Sprintf("battery at %d%%, holding until %d%%", reading.Percent, c.cfg.ResumePercent))
	case reading.Percent <= c.cfg.ResumePercent:
		c.applyCharging(true)
		c.state = StateCharging
		c.refreshStatus(reading.Percent, reading.TempC,
			fmt.Sprintf("battery at %d%%, charging to %d%%", reading.Percent, c.cfg.TargetPercent))
	default:
		// Inside the band: no action. The band itself is the
		// hysteresis that keeps the relay from chattering.
		if c.state != StateCharging && c.state != StateHolding {
			c.state = StateHolding
			if c.chargingOn {
				c.state = StateCharging
			}
		}
		c.refreshStatus(reading.Percent, reading.TempC, "inside charge band")
	}
}

// SetThermalHold is the governor's command channel: force charging off
// while the battery source is escalated.
func (c *Controller) SetThermalHold(hold bool) {
	c.mu.Lock()
	c.governorHold = hold
	c.mu.Unlock()

	c.Evaluate()
}

// SetManualHold imposes or clears a human-requested hold.
func (c *Controller) SetManualHold(hold bool) {
	c.mu.Lock()
	c.manualHold = hold
	c.mu.Unlock()

	c.Evaluate()
}

// SetEnabled turns the whole controller on or off without touching the
// loop. Disabling restores charging.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	if !enabled {
		c.applyCharging(true)
		c.state = StateDisabled
	}
	c.mu.Unlock()

	if enabled {
		c.Evaluate()
	}
}

// SetLimits updates the charge band.
func (c *Controller) SetLimits(targetPercent, resumePercent int) error {
	errFactory := errors.New()

	if targetPercent <= 0 || targetPercent > 100 {
		return errFactory.WithData(ErrInvalidLimit, targetPercent)
	}
	if resumePercent < 0 || resumePercent >= targetPercent {
		return errFactory.WithData(ErrInvalidLimit, resumePercent)
	}

	c.mu.Lock()
	c.cfg.TargetPercent = targetPercent
	c.cfg.ResumePercent = resumePercent
	c.mu.Unlock()

	c.Evaluate()

	return nil
}

// Status returns the last computed status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// applyCharging writes the charge-enable signal, once per change.
// Callers hold c.mu.
func (c *Controller) applyCharging(on bool) {
	if c.haveApplied && c.chargingOn == on {
		return
	}
	c.chargingOn = on
	c.haveApplied = true

	if !c.hasControl {
		return
	}

	if err := c.control.SetChargingEnabled(on); err != nil {
		logger.Warn().Err(err).Bool("charging", on).Msg("Charge control write failed")
	} else {
		logger.Info().Bool("charging", on).Str("path", c.control.Path()).Msg("Charge control applied")
	}
}

// refreshStatus recomputes the public snapshot. Callers hold c.mu.
func (c *Controller) refreshStatus(percent int, tempC float64, reason string) {
	c.status = Status{
		State:           c.state,
		BatteryPercent:  percent,
		BatteryTempC:    tempC,
		TargetPercent:   c.cfg.TargetPercent,
		ResumePercent:   c.cfg.ResumePercent,
		HardwareControl: c.hasControl,
		Reason:          reason,
	}
}
