// Package paramex implements the lock-free, double-buffered parameter
// exchange between the control core and the DDS synthesis core: two
// DDSState blocks, a publish handshake, and an atomic pointer swap that is
// the linearisation point for every frequency/amplitude/filter change. No
// mutex exists anywhere on the path; the synthesis side is wait-free.
package paramex

import (
	"math"
	"sync/atomic"

	"github.com/turntablefw/ttcore/internal/config"
)

// PWMTickHz is the PWM wrap rate that paces synthesis ticks.
const PWMTickHz = 50000.0

// PhaseIncrementFor returns round(|freqHz| * 2^32 / PWMTickHz), the
// per-tick phase-accumulator step for freqHz. The sign of freqHz selects
// the accumulator direction, not the increment's magnitude.
func PhaseIncrementFor(freqHz float64) uint32 {
	return uint32(math.Round(math.Abs(freqHz) * 4294967296.0 / PWMTickHz))
}

// DDSState is the parameter block exchanged between the control core and
// the DDS core.
//
// FrequencyHz may be negative: pulse braking reverses the
// phase-accumulator direction by negating frequency, which reverses the
// effective channel phase sequence.
type DDSState struct {
	FrequencyHz float64

	// PhaseIncrement is derived from FrequencyHz by Publish, so the two
	// fields always change together within one published snapshot; the
	// synthesis core recomputes it from FrequencyHz rather than trusting
	// it blindly, and readers may cross-check the pair for consistency.
	PhaseIncrement uint32

	// PhaseOffsetDeg holds the per-channel phase offset in degrees;
	// channel 0 is always 0.
	PhaseOffsetDeg [config.NumChannels]float64

	Amplitude float64 // 0..1

	PhaseMode int // 1..4: channels >= PhaseMode are zeroed at synthesis

	Filter     config.FilterKind
	IIRAlpha   float64
	FIRProfile config.FIRProfile

	Enabled bool
}

// Exchange holds the two DDSState blocks and the publish handshake.
//
// Each block has exactly one writer: draft belongs to the control core,
// active to the synthesis core. Handoff happens through mailbox, an atomic
// pointer to an immutable snapshot — a non-nil mailbox IS the publish
// flag. Publish's Store is the release; BeginRefill's Swap(nil) is the
// acquire and the linearisation point. Neither side ever takes a lock, and
// BeginRefill never retries or waits.
type Exchange struct {
	// draft is the control core's working copy; only MutatePending and
	// Publish touch it, both from the control core.
	draft DDSState

	// mailbox carries the most recent published snapshot not yet consumed
	// by the synthesis core. Snapshots are never written after Store.
	mailbox atomic.Pointer[DDSState]

	// active is the block the synthesis core reads; only BeginRefill
	// writes it.
	active DDSState
}

// New returns an Exchange initialised to the silent zero state.
func New() *Exchange {
	return &Exchange{}
}

// MutatePending lets the control core observe-and-modify the pending
// parameter block. The block retains whatever the control core last
// published, so partial writes never reintroduce stale fields. fn must not
// retain the pointer past the call. Control core only.
func (e *Exchange) MutatePending(fn func(*DDSState)) {
	fn(&e.draft)
}

// Publish snapshots the pending block, derives PhaseIncrement from its
// frequency, and hands the snapshot to the synthesis core for promotion at
// the next buffer boundary. A publish that is never consumed is simply
// superseded by the next one. Control core only.
func (e *Exchange) Publish() {
	snap := e.draft
	snap.PhaseIncrement = PhaseIncrementFor(snap.FrequencyHz)
	e.mailbox.Store(&snap)
}

// BeginRefill is called by the DDS core at the start of each buffer's
// synthesis. If a publish is pending it promotes the snapshot to active —
// the Swap both claims the snapshot and clears the flag in one atomic
// step — and returns a value copy of the (possibly just-promoted) active
// state, read exactly once, so every sample in the buffer about to be
// synthesised comes from a single consistent DDSState.
func (e *Exchange) BeginRefill() DDSState {
	if p := e.mailbox.Swap(nil); p != nil {
		e.active = *p
	}
	return e.active
}

// ActiveSnapshot returns the state the next refill will synthesise from:
// the published-but-unconsumed snapshot if one is pending, else the
// current active block. Diagnostics and tests only; it must not race a
// concurrent BeginRefill.
func (e *Exchange) ActiveSnapshot() DDSState {
	if p := e.mailbox.Load(); p != nil {
		return *p
	}
	return e.active
}
