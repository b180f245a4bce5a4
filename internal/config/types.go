// Package config implements the turntable's persisted data model:
// per-speed profiles, the global configuration, and named presets, along
// with the validation rules that keep them within their documented
// invariants.
package config

// FilterKind selects the per-channel digital filter applied after LUT
// interpolation in the DDS engine.
type FilterKind uint8

const (
	FilterNone FilterKind = iota
	FilterIIR
	FilterFIR
)

// FIRProfile selects one of the build-time FIR coefficient tables.
type FIRProfile uint8

const (
	FIRGentle FIRProfile = iota
	FIRMedium
	FIRAggressive
)

// RampCurve selects the soft-start amplitude ramp shape.
type RampCurve uint8

const (
	RampLinear RampCurve = iota
	RampSCurve
)

// BrakeMode selects the stopping-phase braking strategy.
type BrakeMode uint8

const (
	BrakeOff BrakeMode = iota
	BrakePulse
	BrakeRamp
)

// BootSpeed selects which speed profile (or the last used one) is active
// immediately after boot.
type BootSpeed uint8

const (
	BootSpeed33 BootSpeed = iota
	BootSpeed45
	BootSpeed78
	BootLastUsed
)

// NumChannels is the maximum number of PWM phase outputs the synthesis path
// supports.
const NumChannels = 4

// SpeedProfile holds the tunables for one nominal turntable speed (33⅓, 45,
// or 78 RPM).
type SpeedProfile struct {
	NominalFreqHz float64 // 10.0-3000.0, step 0.1
	MinFreqHz     float64
	MaxFreqHz     float64

	// PhaseOffsetDeg holds the per-channel phase offsets, in degrees,
	// normalised into [0,360) on Validate. Channel 0 is always 0 (fixed
	// reference) regardless of what is stored here.
	PhaseOffsetDeg [NumChannels]float64

	SoftStartSeconds  float64 // 0-10s
	KickMultiplier    int32   // 1-4
	KickHoldSeconds   float64 // 0-15s
	KickRampSeconds   float64 // 0-15s
	ReducedAmpPercent float64 // 50-100
	ReducedAmpDelayS  float64 // 0-60s

	Filter     FilterKind
	IIRAlpha   float64 // 0.01-0.99
	FIRProfile FIRProfile
}

// GlobalConfig is the full persisted configuration.
type GlobalConfig struct {
	SchemaVersion uint32

	PhaseMode        int32 // 1-4
	MaxAmplitudePct  float64
	SoftStartCurve   RampCurve
	FDAPercent       float64 // 0-100, 0 = disabled
	SmoothSwitch     bool
	SwitchRampS      float64 // 1-5s

	BrakeMode      BrakeMode
	BrakeDurationS float64
	BrakePulseGapS float64
	BrakeStartHz   float64
	BrakeStopHz    float64

	RelayActiveHigh  bool
	RelayLinkStandby bool
	RelayLinkStart   bool

	PowerOnMuteDelayS float64
	AutoStandbyMin    int32
	AutoDimMin        int32

	BootSpeedPolicy BootSpeed
	Speed78Enabled  bool
	LastUsedSpeed   int32 // index into Speeds, for BootLastUsed

	// PitchRangePct is the pitch control's +/- span in percent. Validate clamps it into [10,50] rather
	// than snapping to the discrete set; any value in between is harmless.
	PitchRangePct int32

	AutoBoot  bool
	AutoStart bool

	Speeds [3]SpeedProfile // index 0 = 33, 1 = 45, 2 = 78
}

// Preset is a copy-on-save snapshot of GlobalConfig.
type Preset struct {
	Name   string
	Config GlobalConfig
}

// NumPresetSlots is the number of named preset slots.
const NumPresetSlots = 5

// SchemaVersion is the current on-disk schema version.
const SchemaVersion uint32 = 4
