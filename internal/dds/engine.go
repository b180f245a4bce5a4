// Package dds implements the DDS synthesis engine: phase
// accumulation, per-channel sample synthesis against the waveform LUT,
// optional IIR/FIR filtering, and packing of PWM compare values into
// DMA-ready buffer halves.
package dds

import (
	"math"

	"github.com/turntablefw/ttcore/internal/config"
	"github.com/turntablefw/ttcore/internal/paramex"
	"github.com/turntablefw/ttcore/internal/waveform"
)

const (
	// FPWM is the PWM wrap frequency pacing DMA transfers.
	FPWM = paramex.PWMTickHz

	// BufferTicks is the number of PWM ticks per DMA buffer half.
	BufferTicks = 256

	// pwmCenter is the DC offset applied to bring signed samples into the
	// unsigned [0,1023] PWM compare range.
	pwmCenter = 512
	pwmMax    = 1023
)

// Engine is the per-core DDS synthesis state: the master phase accumulator,
// one filter history per channel, and a read-only reference to the
// waveform LUT. It is owned exclusively by the synthesis core; the control
// core never touches it directly.
type Engine struct {
	lut      *waveform.LUT
	exchange *paramex.Exchange

	masterPhase uint32
	filters     [config.NumChannels]filterState

	// refillCount is a diagnostics counter only; the hot path never logs.
	refillCount uint64
}

// NewEngine constructs a synthesis engine bound to lut and ex. lut is
// immutable and may be shared with other engines/tests.
func NewEngine(lut *waveform.LUT, ex *paramex.Exchange) *Engine {
	return &Engine{lut: lut, exchange: ex}
}

// MasterPhase returns the current accumulator value; used by tests and
// diagnostics only.
func (e *Engine) MasterPhase() uint32 {
	return e.masterPhase
}

// RefillCount returns the number of buffer halves synthesised so far.
func (e *Engine) RefillCount() uint64 {
	return e.refillCount
}

// phaseIncrement returns round(|freqHz| * 2^32 / FPWM). The sign of freqHz
// is handled by the caller: it reverses the accumulator's direction, not
// the increment's magnitude.
func phaseIncrement(freqHz float64) uint32 {
	return paramex.PhaseIncrementFor(freqHz)
}

// degreesToPhase converts a [0,360) degree offset into 32-bit phase units.
func degreesToPhase(deg float64) uint32 {
	return uint32(math.Round(deg / 360.0 * 4294967296.0))
}

// RefillBuffer synthesises one buffer half's worth of PWM words: outA
// receives channels (0,1) packed low/high 16 bits for slice A, outB
// receives channels (2,3) for slice B. Both slices must have length
// BufferTicks. It begins by asking the parameter exchange to promote any
// pending publish, then synthesises BufferTicks ticks from the single
// consistent state snapshot that returns.
func (e *Engine) RefillBuffer(outA, outB []uint32) {
	state := e.exchange.BeginRefill()
	e.refillCount++

	// Disabled: centre words only; the phase accumulator and filter
	// histories are retained untouched.
	if !state.Enabled {
		for tick := 0; tick < BufferTicks; tick++ {
			outA[tick] = pwmCenter | pwmCenter<<16
			outB[tick] = pwmCenter | pwmCenter<<16
		}
		return
	}

	inc := phaseIncrement(state.FrequencyHz)
	for tick := 0; tick < BufferTicks; tick++ {
		if state.FrequencyHz < 0 {
			e.masterPhase -= inc
		} else {
			e.masterPhase += inc
		}

		var pwm [config.NumChannels]uint32
		for c := 0; c < config.NumChannels; c++ {
			raw := 0.0
			if c < state.PhaseMode {
				offset := degreesToPhase(state.PhaseOffsetDeg[c])
				raw = state.Amplitude * e.lut.Interpolate(e.masterPhase+offset)
			}
			filtered := e.filters[c].apply(raw, state.Filter, state.IIRAlpha, state.FIRProfile)
			pwm[c] = clampPWM(filtered)
		}

		outA[tick] = pwm[0] | pwm[1]<<16
		outB[tick] = pwm[2] | pwm[3]<<16
	}
}

func clampPWM(filtered float64) uint32 {
	v := int32(math.Round(filtered)) + pwmCenter
	if v < 0 {
		v = 0
	} else if v > pwmMax {
		v = pwmMax
	}
	return uint32(v)
}
