package profile

import (
	"strings"
	"sync"

	"github.com/kasard/thermactl/internal/errors"
	"github.com/kasard/thermactl/internal/logger"
)

// DeviceInfo identifies the running hardware. The platform-integration
// layer fills it in; the core never probes the OS for identity itself.
type DeviceInfo struct {
	Model    string `json:"model"`
	Codename string `json:"codename"`
	SoC      string `json:"soc"`
}

// ThresholdTriple is the calibrated trigger set for one source.
type ThresholdTriple struct {
	WarnC      float64 `json:"warn_c"`
	CriticalC  float64 `json:"critical_c"`
	EmergencyC float64 `json:"emergency_c"`
}

func (t ThresholdTriple) ascending() bool {
	return t.WarnC < t.CriticalC && t.CriticalC < t.EmergencyC
}

// Sustainable is the encode tier the device held without throttling.
type Sustainable struct {
	BitrateKbps int `json:"bitrate_kbps"`
	Width       int `json:"width"`
	Height      int `json:"height"`
	Framerate   int `json:"framerate"`
}

// Profile binds a device identity to its calibrated thresholds and
// sustainable encode settings.
type Profile struct {
	Name        string          `json:"name"`
	DeviceModel string          `json:"device_model"`
	Codename    string          `json:"codename"`
	SoC         string          `json:"soc"`
	CPU         ThresholdTriple `json:"cpu"`
	Battery     ThresholdTriple `json:"battery"`
	HysteresisC float64         `json:"hysteresis_c"`
	Sustainable Sustainable     `json:"sustainable"`
	Notes       string          `json:"notes"`
}

// Validate checks both triples independently for strict ascending
// order, so one bad triple is reported precisely.
func (p Profile) Validate() error {
	errFactory := errors.New()

	if !p.CPU.ascending() {
		return errFactory.WithData(ErrCPUTripleOrder, p.CPU)
	}
	if !p.Battery.ascending() {
		return errFactory.WithData(ErrBatteryTripleOrder, p.Battery)
	}
	if p.HysteresisC < 0 {
		return errFactory.WithData(ErrInvalidHysteresis, p.HysteresisC)
	}

	return nil
}

// Manager resolves the active profile: an enabled user override wins,
// then the builtin detected for this device, then the conservative
// default. It owns override persistence.
type Manager struct {
	store  Store
	device DeviceInfo

	mu       sync.Mutex
	override *Profile
	detected Profile
	onChange func(Profile) error
}

// NewManager loads any persisted override and detects the builtin
// profile. A corrupt override store degrades to no override.
func NewManager(store Store, device DeviceInfo) *Manager {
	m := &Manager{
		store:    store,
		device:   device,
		detected: Detect(device),
	}

	override, err := store.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load profile override, ignoring it")
	} else if override != nil {
		if err := override.Validate(); err != nil {
			logger.Warn().Err(err).Msg("Persisted profile override is invalid, ignoring it")
		} else {
			m.override = override
		}
	}

	logger.Info().
		Str("detected", m.detected.Name).
		Bool("override", m.override != nil).
		Msg("Thermal profile resolved")

	return m
}

// OnChange registers the hook that re-renders the governor's live
// configuration when the active profile changes.
func (m *Manager) OnChange(fn func(Profile) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Active returns the profile currently in force.
func (m *Manager) Active() Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.override != nil {
		return *m.override
	}

	return m.detected
}

// Detected returns the builtin (or default) profile for this device,
// ignoring any override.
func (m *Manager) Detected() Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.detected
}

// Override returns the user override, if one is set.
func (m *Manager) Override() (Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.override == nil {
		return Profile{}, false
	}

	return *m.override, true
}

// Device returns the identity the manager was constructed with.
func (m *Manager) Device() DeviceInfo {
	return m.device
}

// SetOverride validates, persists and applies a user override. On a
// validation or persistence failure the previous state is unchanged.
func (m *Manager) SetOverride(p Profile) error {
	errFactory := errors.New()

	if err := p.Validate(); err != nil {
		return err
	}

	if err := m.store.Save(&p); err != nil {
		return errFactory.Wrap(ErrStoreSave, err)
	}

	m.mu.Lock()
	m.override = &p
	fn := m.onChange
	m.mu.Unlock()

	logger.Info().Str("profile", p.Name).Msg("Profile override applied")

	if fn != nil {
		return fn(p)
	}

	return nil
}

// ClearOverride removes the override and reverts to the detected
// profile.
func (m *Manager) ClearOverride() error {
	errFactory := errors.New()

	if err := m.store.Clear(); err != nil {
		return errFactory.Wrap(ErrStoreSave, err)
	}

	m.mu.Lock()
	m.override = nil
	active := m.detected
	fn := m.onChange
	m.mu.Unlock()

	logger.Info().Str("profile", active.Name).Msg("Profile override cleared")

	if fn != nil {
		return fn(active)
	}

	return nil
}

// Detect matches device identity against the builtin table: model
// first, then codename, then SoC substring. No match falls back to the
// conservative default, never an error.
func Detect(device DeviceInfo) Profile {
	for _, p := range builtins {
		if p.DeviceModel != "" && strings.EqualFold(p.DeviceModel, device.Model) {
			return p
		}
	}
	for _, p := range builtins {
		if p.Codename != "" && strings.EqualFold(p.Codename, device.Codename) {
			return p
		}
	}
	for _, p := range builtins {
		if p.SoC != "" && device.SoC != "" &&
			strings.Contains(strings.ToLower(device.SoC), strings.ToLower(p.SoC)) {
			return p
		}
	}

	return defaultProfile
}

// Builtins returns a copy of the builtin profile table.
func Builtins() []Profile {
	out := make([]Profile, len(builtins))
	copy(out, builtins)

	return out
}

// Default returns the conservative fallback profile.
func Default() Profile {
	return defaultProfile
}
