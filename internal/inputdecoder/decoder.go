// Package inputdecoder implements input-event classification: debouncing,
// the short-press/long-press thresholds, the double-click window, and
// encoder acceleration. Raw quadrature decoding happens upstream; this
// package turns button edges and encoder detents into the discrete
// hal.InputEvent stream and accelerated encoder delta the UI consumes. It
// implements hal.InputProvider so internal/app can wire either this or a
// test double interchangeably.
package inputdecoder

import (
	"sync"
	"time"

	"github.com/turntablefw/ttcore/internal/hal"
)

const (
	debounceWindow    = 20 * time.Millisecond
	doubleClickWindow = 400 * time.Millisecond
	backHoldDuration  = 3 * time.Second
	exitHoldDuration  = 5 * time.Second

	// accelFastStep is the inter-step gap below which consecutive encoder
	// steps count towards the acceleration streak.
	accelFastStep = 50 * time.Millisecond
)

// Decoder turns raw button/encoder edges into the discrete event stream and
// accelerated delta the UI consumes. The zero value is ready to use; New
// returns one.
type Decoder struct {
	mu sync.Mutex

	events []hal.InputEvent

	lastButtonEdge time.Time
	pressedAt      time.Time
	pressed        bool

	pendingClick    bool
	pendingDeadline time.Time

	lastStepAt   time.Time
	fastStreak   int
	encoderDelta int
}

// New returns a Decoder ready to receive edges.
func New() *Decoder {
	return &Decoder{}
}

// FeedButtonEdge reports a raw button transition at time at. Edges within
// debounceWindow of the last accepted edge are dropped.
func (d *Decoder) FeedButtonEdge(pressed bool, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lastButtonEdge.IsZero() && at.Sub(d.lastButtonEdge) < debounceWindow {
		return
	}
	d.lastButtonEdge = at

	if pressed == d.pressed {
		return
	}
	d.pressed = pressed

	if pressed {
		d.pressedAt = at
		return
	}

	// Released: classify by hold duration.
	held := at.Sub(d.pressedAt)
	switch {
	case held >= exitHoldDuration:
		d.events = append(d.events, hal.Exit)
	case held >= backHoldDuration:
		d.events = append(d.events, hal.Back)
	default:
		d.registerShortClick(at)
	}
}

// registerShortClick implements the double-click window: a second short
// click arriving within doubleClickWindow of the first collapses both into
// a single DoubleClick; otherwise the first click is emitted as Select once
// the window has elapsed without a follow-up. Callers must invoke Tick periodically so a pending single
// click that times out still surfaces as Select.
func (d *Decoder) registerShortClick(at time.Time) {
	if d.pendingClick && !at.After(d.pendingDeadline) {
		d.pendingClick = false
		d.events = append(d.events, hal.DoubleClick)
		return
	}
	d.pendingClick = true
	d.pendingDeadline = at.Add(doubleClickWindow)
}

// Tick flushes a pending single click into a Select event once its
// double-click window has elapsed without a follow-up press. The caller's
// control-loop tick should invoke this with the current time every
// iteration.
func (d *Decoder) Tick(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pendingClick && now.After(d.pendingDeadline) {
		d.pendingClick = false
		d.events = append(d.events, hal.Select)
	}
}

// FeedStep reports one raw encoder detent in the given direction (+1 or -1)
// at time at, applying the acceleration curve: steps less than
// accelFastStep apart build a streak that multiplies each step's
// contribution to the delta by 2 after 2 consecutive fast steps, by 5 after 5.
func (d *Decoder) FeedStep(direction int, at time.Time) {
	if direction == 0 {
		return
	}
	if direction > 0 {
		direction = 1
	} else {
		direction = -1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lastStepAt.IsZero() && at.Sub(d.lastStepAt) < accelFastStep {
		d.fastStreak++
	} else {
		d.fastStreak = 0
	}
	d.lastStepAt = at

	mult := 1
	switch {
	case d.fastStreak >= 5:
		mult = 5
	case d.fastStreak >= 2:
		mult = 2
	}
	d.encoderDelta += direction * mult
}

// Poll satisfies hal.InputProvider: it returns the oldest undelivered event,
// if any.
func (d *Decoder) Poll() (hal.InputEvent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) == 0 {
		return 0, false
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, true
}

// EncoderDelta satisfies hal.InputProvider: it returns the accumulated,
// acceleration-adjusted delta since the last call and resets the
// accumulator.
func (d *Decoder) EncoderDelta() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.encoderDelta
	d.encoderDelta = 0
	return v
}
