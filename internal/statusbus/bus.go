// Package statusbus implements the shared status bus: a small
// set of single-writer/multi-reader scalars the UI and CLI consume.
// Writes are 32-bit aligned atomics; readers tolerate at-most-one-tick-old
// values and never see a torn enum.
package statusbus

import (
	"math"
	"sync/atomic"
)

// MotorState mirrors the motor state machine's lifecycle states
// for readout purposes. It is defined here, rather than imported from the
// motor package, so statusbus has no dependency on motor — only the
// reverse.
type MotorState int32

const (
	Standby MotorState = iota
	Stopped
	Starting
	Running
	Stopping
)

func (s MotorState) String() string {
	switch s {
	case Standby:
		return "Standby"
	case Stopped:
		return "Stopped"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// Bus holds the four status-bus scalars. The zero value is ready
// to use, initialised to Standby/0Hz/0%/not-initialised.
type Bus struct {
	motorState   atomic.Int32
	currentFreq  atomic.Uint64 // float64 bits
	currentPitch atomic.Uint64 // float64 bits
	initialised  atomic.Bool
}

// New returns a Bus in its boot-time default state.
func New() *Bus {
	return &Bus{}
}

// SetMotorState is called only by the control core.
func (b *Bus) SetMotorState(s MotorState) { b.motorState.Store(int32(s)) }

// MotorState is safe for concurrent readers; the enum never tears.
func (b *Bus) MotorState() MotorState { return MotorState(b.motorState.Load()) }

// SetCurrentFrequency is called only by the control core.
func (b *Bus) SetCurrentFrequency(hz float64) { b.currentFreq.Store(math.Float64bits(hz)) }

// CurrentFrequency may lag the writer by at most one tick.
func (b *Bus) CurrentFrequency() float64 { return math.Float64frombits(b.currentFreq.Load()) }

// SetCurrentPitch is called only by the control core.
func (b *Bus) SetCurrentPitch(pct float64) { b.currentPitch.Store(math.Float64bits(pct)) }

// CurrentPitch may lag the writer by at most one tick.
func (b *Bus) CurrentPitch() float64 { return math.Float64frombits(b.currentPitch.Load()) }

// SetInitialised is written exactly once, when control-core setup
// completes. The DDS core spins on Initialised() before touching hardware
//.
func (b *Bus) SetInitialised() { b.initialised.Store(true) }

// Initialised reports whether control-core setup has completed.
func (b *Bus) Initialised() bool { return b.initialised.Load() }
