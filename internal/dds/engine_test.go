package dds

import (
	"math"
	"testing"

	"github.com/turntablefw/ttcore/internal/config"
	"github.com/turntablefw/ttcore/internal/paramex"
	"github.com/turntablefw/ttcore/internal/waveform"
	"pgregory.net/rapid"
)

func newTestEngine() (*Engine, *paramex.Exchange) {
	lut := waveform.New()
	ex := paramex.New()
	return NewEngine(lut, ex), ex
}

func enable(ex *paramex.Exchange, freq, amp float64, mode int) {
	ex.MutatePending(func(s *paramex.DDSState) {
		s.Enabled = true
		s.FrequencyHz = freq
		s.Amplitude = amp
		s.PhaseMode = mode
		s.Filter = config.FilterNone
	})
	ex.Publish()
}

func TestPhaseIncrementBoundaries(t *testing.T) {
	for _, f := range []float64{10.0, 3000.0} {
		inc := phaseIncrement(f)
		// uint32 is inherently bounded; assert it is nonzero so a
		// regression that zeroes the increment is caught.
		if inc == 0 {
			t.Fatalf("phaseIncrement(%v) rounded to zero", f)
		}
	}
}

func TestDisabledStateWritesCentre(t *testing.T) {
	eng, ex := newTestEngine()
	_ = ex // left disabled (zero state)
	a := make([]uint32, BufferTicks)
	b := make([]uint32, BufferTicks)
	eng.RefillBuffer(a, b)

	for i, w := range a {
		lo := w & 0xFFFF
		hi := w >> 16
		if lo != pwmCenter || hi != pwmCenter {
			t.Fatalf("sliceA[%d] = %#x, want both halves centred at %d", i, w, pwmCenter)
		}
	}
	if eng.MasterPhase() != 0 {
		t.Fatalf("phase advanced while disabled: %d", eng.MasterPhase())
	}
}

func TestSampleMagnitudeInvariant(t *testing.T) {
	eng, ex := newTestEngine()
	enable(ex, 440, 1.0, 4)

	a := make([]uint32, BufferTicks)
	b := make([]uint32, BufferTicks)
	eng.RefillBuffer(a, b)

	check := func(word uint32) {
		for _, v := range []uint32{word & 0xFFFF, word >> 16} {
			signed := int32(v) - pwmCenter
			if math.Abs(float64(signed)) > 511+1 {
				t.Fatalf("sample %d exceeds |amplitude*511|+1 slack", signed)
			}
		}
	}
	for i := range a {
		check(a[i])
		check(b[i])
	}
}

// TestPhaseAccumulatorEvolution: after k ticks at frequency f, the master
// phase equals k*round(f*2^32/f_PWM) mod 2^32.
func TestPhaseAccumulatorEvolution(t *testing.T) {
	eng, ex := newTestEngine()
	enable(ex, 123.0, 1.0, 4)

	a := make([]uint32, BufferTicks)
	b := make([]uint32, BufferTicks)
	eng.RefillBuffer(a, b)

	k := uint64(BufferTicks)
	inc := phaseIncrement(123.0)
	want := uint32((uint64(inc) * k) % (1 << 32))
	if eng.MasterPhase() != want {
		t.Fatalf("master phase = %d, want %d", eng.MasterPhase(), want)
	}
}

func TestNegativeFrequencyReversesAccumulatorDirection(t *testing.T) {
	engFwd, exFwd := newTestEngine()
	enable(exFwd, 50, 1.0, 4)
	a, b := make([]uint32, BufferTicks), make([]uint32, BufferTicks)
	engFwd.RefillBuffer(a, b)

	engRev, exRev := newTestEngine()
	enable(exRev, -50, 1.0, 4)
	a2, b2 := make([]uint32, BufferTicks), make([]uint32, BufferTicks)
	engRev.RefillBuffer(a2, b2)

	sum := engFwd.MasterPhase() + engRev.MasterPhase()
	if sum != 0 {
		t.Fatalf("forward (%d) and reverse (%d) phase should be additive inverses mod 2^32, sum=%d", engFwd.MasterPhase(), engRev.MasterPhase(), sum)
	}
}

func TestPhaseModeZeroesUnusedChannels(t *testing.T) {
	eng, ex := newTestEngine()
	enable(ex, 50, 1.0, 2) // only channels 0,1 active

	a := make([]uint32, BufferTicks)
	b := make([]uint32, BufferTicks)
	eng.RefillBuffer(a, b)

	for i, w := range b {
		lo := w & 0xFFFF
		hi := w >> 16
		if lo != pwmCenter || hi != pwmCenter {
			t.Fatalf("sliceB[%d] channels 2,3 should be centred/zeroed under phase mode 2, got lo=%d hi=%d", i, lo, hi)
		}
	}
}

func TestChannelOrderingMatchesPhaseOffset(t *testing.T) {
	eng, ex := newTestEngine()
	ex.MutatePending(func(s *paramex.DDSState) {
		s.Enabled = true
		s.FrequencyHz = 100
		s.Amplitude = 1.0
		s.PhaseMode = 4
		s.PhaseOffsetDeg[1] = 90
	})
	ex.Publish()

	a := make([]uint32, BufferTicks)
	b := make([]uint32, BufferTicks)
	eng.RefillBuffer(a, b)

	// Channel 1 (offset 90deg) at tick n should equal channel 0's sample
	// some ticks later once its own phase catches up by 90 degrees; check
	// the weaker but robust property that the two channels are not
	// identical (the offset had an effect) when offset != 0.
	identical := true
	for i := range a {
		if (a[i] & 0xFFFF) != (a[i] >> 16) {
			identical = false
			break
		}
	}
	if identical {
		t.Fatalf("channel 1 output identical to channel 0 despite 90deg offset")
	}
}

func TestFilterResetsOnKindChange(t *testing.T) {
	eng, ex := newTestEngine()
	ex.MutatePending(func(s *paramex.DDSState) {
		s.Enabled = true
		s.FrequencyHz = 50
		s.Amplitude = 1.0
		s.PhaseMode = 4
		s.Filter = config.FilterIIR
		s.IIRAlpha = 0.1
	})
	ex.Publish()
	a, b := make([]uint32, BufferTicks), make([]uint32, BufferTicks)
	eng.RefillBuffer(a, b)

	if eng.filters[0].kind != config.FilterIIR {
		t.Fatalf("expected filter state to track IIR kind")
	}

	ex.MutatePending(func(s *paramex.DDSState) { s.Filter = config.FilterFIR })
	ex.Publish()
	eng.RefillBuffer(a, b)
	if eng.filters[0].kind != config.FilterFIR {
		t.Fatalf("expected filter state to reset to FIR kind")
	}
	if eng.filters[0].iirY != 0 {
		t.Fatalf("expected IIR history cleared on kind change, got %v", eng.filters[0].iirY)
	}
}

// TestDisabledBufferRetainsFilterHistory: a disabled refill must not flush
// the IIR accumulator by pushing zeros through it.
func TestDisabledBufferRetainsFilterHistory(t *testing.T) {
	eng, ex := newTestEngine()
	ex.MutatePending(func(s *paramex.DDSState) {
		s.Enabled = true
		s.FrequencyHz = 50
		s.Amplitude = 1.0
		s.PhaseMode = 4
		s.Filter = config.FilterIIR
		s.IIRAlpha = 0.3
	})
	ex.Publish()
	a, b := make([]uint32, BufferTicks), make([]uint32, BufferTicks)
	eng.RefillBuffer(a, b)

	history := eng.filters[0].iirY
	if history == 0 {
		t.Fatal("expected nonzero IIR history after an enabled buffer")
	}

	ex.MutatePending(func(s *paramex.DDSState) { s.Enabled = false })
	ex.Publish()
	eng.RefillBuffer(a, b)

	if eng.filters[0].iirY != history {
		t.Fatalf("IIR history changed across a disabled buffer: %v -> %v", history, eng.filters[0].iirY)
	}
	if a[0] != pwmCenter|pwmCenter<<16 {
		t.Fatalf("disabled buffer word = %#x, want centred halves", a[0])
	}
}

// TestRapidSampleNeverExceedsAmplitudeBound is a property-style version of
// the sample magnitude invariant across random frequency/amplitude inputs.
func TestRapidSampleNeverExceedsAmplitudeBound(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		eng, ex := newTestEngine()
		freq := rapid.Float64Range(-3000, 3000).Draw(rt, "freq")
		amp := rapid.Float64Range(0, 1).Draw(rt, "amp")
		enable(ex, freq, amp, 4)

		a, b := make([]uint32, BufferTicks), make([]uint32, BufferTicks)
		eng.RefillBuffer(a, b)

		for _, w := range append(append([]uint32{}, a...), b...) {
			for _, v := range []uint32{w & 0xFFFF, w >> 16} {
				signed := math.Abs(float64(int32(v) - pwmCenter))
				if signed > amp*511+1 {
					t.Fatalf("sample %v exceeds amplitude bound %v", signed, amp*511+1)
				}
			}
		}
	})
}
