package dds

import "github.com/turntablefw/ttcore/internal/config"

// firTapCount is the fixed 8-tap length for the FIR filter.
const firTapCount = 8

// firCoefficients holds the three build-time FIR coefficient tables, one
// per profile, differing in stopband aggressiveness. Each is a normalised
// (DC-gain 1) symmetric low-pass window.
var firCoefficients = [3][firTapCount]float64{
	config.FIRGentle:     {0.05, 0.10, 0.15, 0.20, 0.20, 0.15, 0.10, 0.05},
	config.FIRMedium:     {0.02, 0.08, 0.15, 0.25, 0.25, 0.15, 0.08, 0.02},
	config.FIRAggressive: {0.01, 0.04, 0.10, 0.35, 0.35, 0.10, 0.04, 0.01},
}

// filterState is the per-channel filter history:
// one IIR accumulator or one 8-sample FIR ring buffer. State is reset only
// when the filter kind changes.
type filterState struct {
	kind config.FilterKind

	iirY float64

	firRing [firTapCount]float64
	firPos  int
}

func (f *filterState) reset(kind config.FilterKind) {
	f.kind = kind
	f.iirY = 0
	f.firRing = [firTapCount]float64{}
	f.firPos = 0
}

// apply runs x through the filter named by kind, resetting history first if
// kind differs from the state's last-seen kind.
func (f *filterState) apply(x float64, kind config.FilterKind, alpha float64, profile config.FIRProfile) float64 {
	if kind != f.kind {
		f.reset(kind)
	}
	switch kind {
	case config.FilterNone:
		return x
	case config.FilterIIR:
		f.iirY = alpha*x + (1-alpha)*f.iirY
		return f.iirY
	case config.FilterFIR:
		f.firRing[f.firPos] = x
		sum := 0.0
		coeffs := firCoefficients[profile]
		for i := 0; i < firTapCount; i++ {
			// tap i looks i samples back from the newest write.
			idx := (f.firPos - i + firTapCount) % firTapCount
			sum += coeffs[i] * f.firRing[idx]
		}
		f.firPos = (f.firPos + 1) % firTapCount
		return sum
	default:
		return x
	}
}
