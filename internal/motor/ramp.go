package motor

import (
	"math"

	"github.com/turntablefw/ttcore/internal/config"
)

// rampLinear returns target*t/T for t in [0,T], clamped to target outside
// that range.
func rampLinear(t, duration, target float64) float64 {
	if duration <= 0 {
		return target
	}
	if t >= duration {
		return target
	}
	if t <= 0 {
		return 0
	}
	return target * (t / duration)
}

// rampSCurve returns target*0.5*(1-cos(pi*t/T)).
func rampSCurve(t, duration, target float64) float64 {
	if duration <= 0 {
		return target
	}
	if t >= duration {
		return target
	}
	if t <= 0 {
		return 0
	}
	return target * 0.5 * (1 - math.Cos(math.Pi*t/duration))
}

// rampAmplitude dispatches to the curve selected by GlobalConfig's
// SoftStartCurve field.
func rampAmplitude(curve config.RampCurve, t, duration, target float64) float64 {
	if curve == config.RampSCurve {
		return rampSCurve(t, duration, target)
	}
	return rampLinear(t, duration, target)
}

// lerp linearly interpolates from a to b as frac moves 0->1; frac is
// clamped into [0,1] first.
func lerp(a, b, frac float64) float64 {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return a + (b-a)*frac
}

// clamp01 clamps v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
