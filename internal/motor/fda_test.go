package motor

import (
	"math"
	"testing"
	"time"

	"github.com/turntablefw/ttcore/internal/config"
	"github.com/turntablefw/ttcore/internal/statusbus"
)

// Frequency-dependent amplitude scales target_amp itself (computed fresh
// every Starting tick from the current kick-adjusted frequency), and the
// soft-start ramp runs on top of that already-scaled target, rather than
// FDA scaling the ramp's output after the fact.

// TestFDAZeroReducesToUnscaledRamp: when FDA = 0, scale = 1 and the rule
// reduces to the unscaled ramp.
func TestFDAZeroReducesToUnscaledRamp(t *testing.T) {
	cfg := config.Default()
	cfg.FDAPercent = 0
	cfg.MaxAmplitudePct = 80
	cfg.SoftStartCurve = config.RampLinear
	cfg.Speeds[0].SoftStartSeconds = 1.0
	cfg.Speeds[0].KickMultiplier = 1
	c, ex, tb, _ := newTestController(&cfg)
	c.Start()
	c.Start()

	runTicks(c, tb, 100*time.Millisecond, 5) // t=0.5s, halfway through linear ramp
	got := ex.ActiveSnapshot().Amplitude
	want := 0.8 * 0.5 // target_amp * t/T, no FDA scaling
	if math.Abs(got-want) > 0.02 {
		t.Fatalf("amplitude at t=0.5s with FDA=0 = %v, want ~%v", got, want)
	}
}

// TestFDAScalesTargetBeforeZeroDurationRamp verifies the chosen interpretation directly:
// since scale is computed from the kick-adjusted frequency every tick and a
// kick never lets current_freq fall below target_freq (KickMultiplier is
// always >= 1), q clamps to 1 throughout a kicked or unkicked start, so the
// ramp always targets full target_amp regardless of FDAPercent -- but the
// scale is still applied to target_amp *before* the ramp runs, so a
// zero-duration soft start jumps straight to the (here, unreduced) ceiling
// on the very first Running tick rather than requiring a separate post-ramp
// multiply.
func TestFDAScalesTargetBeforeZeroDurationRamp(t *testing.T) {
	cfg := config.Default()
	cfg.FDAPercent = 50
	cfg.MaxAmplitudePct = 100
	cfg.Speeds[0].SoftStartSeconds = 0
	cfg.Speeds[0].KickMultiplier = 1
	c, ex, tb, _ := newTestController(&cfg)
	c.Start()
	c.Start()

	runTicks(c, tb, 10*time.Millisecond, 1)
	if c.State() != statusbus.Running {
		t.Fatalf("state = %v, want Running (soft-start duration 0)", c.State())
	}
	got := ex.ActiveSnapshot().Amplitude
	if math.Abs(got-1.0) > 0.01 {
		t.Fatalf("amplitude after zero-duration ramp at full target frequency = %v, want 1.0 (q clamps to 1 at/above target)", got)
	}
}

// TestFDADuringKickHoldStaysAtCeiling documents that while the kick is
// holding frequency above target (current_freq > target_freq), the clamped
// ratio q=1 keeps the FDA scale at its ceiling of 1 -- full amplitude at
// or above full frequency -- even with a low FDAPercent,
// because a kick multiplier can only push frequency at or above target,
// never below it.
func TestFDADuringKickHoldStaysAtCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.FDAPercent = 10
	cfg.MaxAmplitudePct = 100
	cfg.SoftStartCurve = config.RampLinear
	cfg.Speeds[0].KickMultiplier = 3
	cfg.Speeds[0].KickHoldSeconds = 1.0
	cfg.Speeds[0].KickRampSeconds = 0
	cfg.Speeds[0].SoftStartSeconds = 2.0
	c, ex, tb, _ := newTestController(&cfg)
	c.Start()
	c.Start()

	runTicks(c, tb, 100*time.Millisecond, 5) // t=0.5s, mid kick hold, mid amplitude ramp
	snap := ex.ActiveSnapshot()
	wantAmp := 1.0 * 0.25 // target_amp(=1, FDA ceiling since q clamps to 1) * t/T
	if math.Abs(snap.Amplitude-wantAmp) > 0.02 {
		t.Fatalf("amplitude during kick hold = %v, want ~%v (FDA should not suppress it below the unscaled ramp while freq >= target)", snap.Amplitude, wantAmp)
	}
}
