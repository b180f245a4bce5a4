package config

import "math"

// Validate clamps every field of cfg into its documented invariant range in
// place. Out-of-range configuration is never an error: callers just get a
// corrected value back. Validate is idempotent.
func (cfg *GlobalConfig) Validate() {
	if cfg.PhaseMode < 1 {
		cfg.PhaseMode = 1
	} else if cfg.PhaseMode > NumChannels {
		cfg.PhaseMode = NumChannels
	}
	cfg.MaxAmplitudePct = clamp(cfg.MaxAmplitudePct, 0, 100)
	cfg.FDAPercent = clamp(cfg.FDAPercent, 0, 100)
	cfg.SwitchRampS = clamp(cfg.SwitchRampS, 1, 5)

	cfg.BrakeDurationS = clampMin(cfg.BrakeDurationS, 0)
	cfg.BrakePulseGapS = clampMin(cfg.BrakePulseGapS, 0)
	if cfg.BrakeStartHz < 0 {
		cfg.BrakeStartHz = 0
	}
	if cfg.BrakeStopHz < 0 {
		cfg.BrakeStopHz = 0
	}

	cfg.PowerOnMuteDelayS = clampMin(cfg.PowerOnMuteDelayS, 0)
	cfg.AutoStandbyMin = intClampMin(cfg.AutoStandbyMin, 0)
	cfg.AutoDimMin = intClampMin(cfg.AutoDimMin, 0)

	if cfg.LastUsedSpeed < 0 || cfg.LastUsedSpeed > 2 {
		cfg.LastUsedSpeed = 0
	}
	cfg.PitchRangePct = intClamp(cfg.PitchRangePct, 10, 50)

	for i := range cfg.Speeds {
		cfg.Speeds[i].Validate()
	}
}

// Validate clamps a single SpeedProfile into its documented invariants:
// min <= nominal <= max (swapping min/max if inverted), phase offsets
// wrapped into [0,360), and every other field into its documented range.
func (sp *SpeedProfile) Validate() {
	sp.NominalFreqHz = clamp(sp.NominalFreqHz, 10.0, 3000.0)

	if sp.MinFreqHz > sp.MaxFreqHz {
		sp.MinFreqHz, sp.MaxFreqHz = sp.MaxFreqHz, sp.MinFreqHz
	}
	if sp.MinFreqHz > sp.NominalFreqHz {
		sp.MinFreqHz = sp.NominalFreqHz
	}
	if sp.MaxFreqHz < sp.NominalFreqHz {
		sp.MaxFreqHz = sp.NominalFreqHz
	}

	for i := range sp.PhaseOffsetDeg {
		sp.PhaseOffsetDeg[i] = normalizeDegrees(sp.PhaseOffsetDeg[i])
	}
	sp.PhaseOffsetDeg[0] = 0 // channel 0 is always the fixed reference

	sp.SoftStartSeconds = clamp(sp.SoftStartSeconds, 0, 10)
	if sp.KickMultiplier < 1 {
		sp.KickMultiplier = 1
	} else if sp.KickMultiplier > 4 {
		sp.KickMultiplier = 4
	}
	sp.KickHoldSeconds = clamp(sp.KickHoldSeconds, 0, 15)
	sp.KickRampSeconds = clamp(sp.KickRampSeconds, 0, 15)
	sp.ReducedAmpPercent = clamp(sp.ReducedAmpPercent, 50, 100)
	sp.ReducedAmpDelayS = clamp(sp.ReducedAmpDelayS, 0, 60)
	sp.IIRAlpha = clamp(sp.IIRAlpha, 0.01, 0.99)
}

// normalizeDegrees wraps deg into [0,360).
func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		// A tiny negative remainder rounds up to exactly 360 when shifted.
		deg = 0
	}
	return deg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampMin(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}

func intClampMin(v, lo int32) int32 {
	if v < lo {
		return lo
	}
	return v
}

func intClamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
