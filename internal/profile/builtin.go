package profile

// Conservative fallback for unrecognized hardware. Thresholds sit low
// enough that an unknown device throttles early rather than cooks.
var defaultProfile = Profile{
	Name:        "Conservative default",
	CPU:         ThresholdTriple{WarnC: 48, CriticalC: 53, EmergencyC: 58},
	Battery:     ThresholdTriple{WarnC: 39, CriticalC: 42, EmergencyC: 45},
	HysteresisC: 3,
	Sustainable: Sustainable{BitrateKbps: 4000, Width: 1920, Height: 1080, Framerate: 24},
	Notes:       "Fallback for undetected devices; run a stress test to calibrate.",
}

// Builtin profiles keyed by device model, codename and SoC. Derived
// from stress runs on reference hardware; user overrides take priority.
var builtins = []Profile{
	{
		Name:        "Pixel 7",
		DeviceModel: "Pixel 7",
		Codename:    "panther",
		SoC:         "Tensor G2",
		CPU:         ThresholdTriple{WarnC: 52, CriticalC: 57, EmergencyC: 62},
		Battery:     ThresholdTriple{WarnC: 40, CriticalC: 43, EmergencyC: 46},
		HysteresisC: 3,
		Sustainable: Sustainable{BitrateKbps: 6000, Width: 1920, Height: 1080, Framerate: 30},
		Notes:       "Sustains 1080p30 with the skin cool; throttles hard past 57°C.",
	},
	{
		Name:        "Pixel 6",
		DeviceModel: "Pixel 6",
		Codename:    "oriole",
		SoC:         "Tensor",
		CPU:         ThresholdTriple{WarnC: 50, CriticalC: 55, EmergencyC: 60},
		Battery:     ThresholdTriple{WarnC: 40, CriticalC: 43, EmergencyC: 46},
		HysteresisC: 3,
		Sustainable: Sustainable{BitrateKbps: 5000, Width: 1920, Height: 1080, Framerate: 30},
		Notes:       "First-gen Tensor runs warm under sustained encode.",
	},
	{
		Name:        "Galaxy S21",
		DeviceModel: "SM-G991B",
		Codename:    "o1s",
		SoC:         "Exynos 2100",
		CPU:         ThresholdTriple{WarnC: 50, CriticalC: 55, EmergencyC: 61},
		Battery:     ThresholdTriple{WarnC: 39, CriticalC: 42, EmergencyC: 45},
		HysteresisC: 3,
		Sustainable: Sustainable{BitrateKbps: 5000, Width: 1920, Height: 1080, Framerate: 30},
	},
	{
		Name:        "OnePlus 9 Pro",
		DeviceModel: "LE2123",
		Codename:    "lemonadep",
		SoC:         "SM8350",
		CPU:         ThresholdTriple{WarnC: 53, CriticalC: 58, EmergencyC: 63},
		Battery:     ThresholdTriple{WarnC: 40, CriticalC: 43, EmergencyC: 46},
		HysteresisC: 3,
		Sustainable: Sustainable{BitrateKbps: 8000, Width: 1920, Height: 1080, Framerate: 30},
		Notes:       "Vapor chamber keeps SD888 sustainable at 8Mbps.",
	},
	{
		Name:        "Snapdragon 8 Gen 2 (generic)",
		SoC:         "SM8550",
		CPU:         ThresholdTriple{WarnC: 54, CriticalC: 59, EmergencyC: 64},
		Battery:     ThresholdTriple{WarnC: 40, CriticalC: 43, EmergencyC: 46},
		HysteresisC: 3,
		Sustainable: Sustainable{BitrateKbps: 8000, Width: 1920, Height: 1080, Framerate: 30},
		Notes:       "Generic SoC match; model-specific tuning preferred.",
	},
	{
		Name:        "Snapdragon 865 (generic)",
		SoC:         "SM8250",
		CPU:         ThresholdTriple{WarnC: 50, CriticalC: 55, EmergencyC: 60},
		Battery:     ThresholdTriple{WarnC: 39, CriticalC: 42, EmergencyC: 45},
		HysteresisC: 3,
		Sustainable: Sustainable{BitrateKbps: 5000, Width: 1920, Height: 1080, Framerate: 30},
	},
}
