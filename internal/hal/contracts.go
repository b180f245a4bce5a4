// Package hal defines the interfaces the firmware's external collaborators
// implement: input, UI, timebase, watchdog, and relay/GPIO hardware (the
// persistence contract is persist.Store). The core packages (motor, app,
// cliio) depend on these interfaces rather than on concrete hardware types.
package hal

import "time"

// InputEvent is one of the discrete events the input provider produces
//.
type InputEvent int

const (
	NavUp InputEvent = iota
	NavDown
	Select
	Back
	Exit
	DoubleClick
)

func (e InputEvent) String() string {
	switch e {
	case NavUp:
		return "NavUp"
	case NavDown:
		return "NavDown"
	case Select:
		return "Select"
	case Back:
		return "Back"
	case Exit:
		return "Exit"
	case DoubleClick:
		return "DoubleClick"
	default:
		return "Unknown"
	}
}

// InputProvider produces discrete navigation events and a signed encoder
// delta. Real rotary-encoder decoding is out of scope; an
// implementation only needs to satisfy this contract, and test code can
// inject events directly.
type InputProvider interface {
	// Poll returns any event produced since the last call, and whether one
	// occurred.
	Poll() (InputEvent, bool)
	// EncoderDelta returns the signed, acceleration-adjusted step delta
	// accumulated since the last call.
	EncoderDelta() int
}

// UIProvider consumes the status bus and invokes controller actions. The
// core depends on this interface, never a concrete menu/OLED
// implementation.
type UIProvider interface {
	Start()
	Stop()
	CycleSpeed()
	ToggleStandby()
	SetPitch(pct float64)
}

// Timebase supplies monotonic time to the control core so it never calls
// time.Now directly — this lets tests drive the motor state machine with a
// FakeTimebase instead of real wall-clock time.
type Timebase interface {
	Now() time.Time
	MillisSince(t time.Time) int64
	MicrosSince(t time.Time) int64
}

// RelayDriver drives the standby relay and the four per-phase mute relays
//.
type RelayDriver interface {
	// SetStandby asserts or releases the standby relay.
	SetStandby(active bool) error
	// SetMute asserts or releases mute on channel ch (0-3).
	SetMute(ch int, muted bool) error
	// MuteAll asserts mute on every channel immediately; used by the
	// critical-error fast path and power-on grace period.
	MuteAll() error
}
