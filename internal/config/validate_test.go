package config

import (
	"testing"

	"pgregory.net/rapid"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	before := cfg
	cfg.Validate()
	if cfg != before {
		t.Fatalf("Default() config was not already valid:\nbefore=%+v\nafter=%+v", before, cfg)
	}
}

func TestValidateSwapsInvertedMinMax(t *testing.T) {
	sp := SpeedProfile{NominalFreqHz: 50, MinFreqHz: 80, MaxFreqHz: 20}
	sp.Validate()
	if sp.MinFreqHz > sp.MaxFreqHz {
		t.Fatalf("min %v still > max %v after Validate", sp.MinFreqHz, sp.MaxFreqHz)
	}
	if !(sp.MinFreqHz <= sp.NominalFreqHz && sp.NominalFreqHz <= sp.MaxFreqHz) {
		t.Fatalf("invariant min<=nominal<=max violated: %+v", sp)
	}
}

func TestValidatePhaseOffsetWrap(t *testing.T) {
	sp := SpeedProfile{NominalFreqHz: 50, MinFreqHz: 40, MaxFreqHz: 60}
	sp.PhaseOffsetDeg = [NumChannels]float64{0, -90, 450, -720 + 10}
	sp.Validate()
	for i, d := range sp.PhaseOffsetDeg {
		if d < 0 || d >= 360 {
			t.Fatalf("channel %d offset %v not in [0,360)", i, d)
		}
	}
	if sp.PhaseOffsetDeg[0] != 0 {
		t.Fatalf("channel 0 must remain the fixed reference, got %v", sp.PhaseOffsetDeg[0])
	}
}

// TestValidateInvariantsHoldForAllInputs: after Validate, min <= nominal <=
// max per speed, phase offsets lie in [0,360), and amplitude_max <= 100,
// for arbitrary inputs.
func TestValidateInvariantsHoldForAllInputs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := Default()
		cfg.MaxAmplitudePct = rapid.Float64Range(-1000, 1000).Draw(rt, "maxAmp")
		for i := range cfg.Speeds {
			cfg.Speeds[i].NominalFreqHz = rapid.Float64Range(-5000, 5000).Draw(rt, "nominal")
			cfg.Speeds[i].MinFreqHz = rapid.Float64Range(-5000, 5000).Draw(rt, "min")
			cfg.Speeds[i].MaxFreqHz = rapid.Float64Range(-5000, 5000).Draw(rt, "max")
			for c := 0; c < NumChannels; c++ {
				cfg.Speeds[i].PhaseOffsetDeg[c] = rapid.Float64Range(-10000, 10000).Draw(rt, "offset")
			}
		}

		cfg.Validate()

		if cfg.MaxAmplitudePct > 100 {
			t.Fatalf("amplitude_max %v > 100", cfg.MaxAmplitudePct)
		}
		for _, sp := range cfg.Speeds {
			if !(sp.MinFreqHz <= sp.NominalFreqHz && sp.NominalFreqHz <= sp.MaxFreqHz) {
				t.Fatalf("min<=nominal<=max violated: %+v", sp)
			}
			for i, d := range sp.PhaseOffsetDeg {
				if d < 0 || d >= 360 {
					t.Fatalf("channel %d offset %v not in [0,360)", i, d)
				}
			}
		}
	})
}
