package inputdecoder

import (
	"testing"
	"time"

	"github.com/turntablefw/ttcore/internal/hal"
)

func TestShortClickEmitsSelectAfterWindow(t *testing.T) {
	d := New()
	base := time.Unix(0, 0)

	d.FeedButtonEdge(true, base)
	d.FeedButtonEdge(false, base.Add(50*time.Millisecond))

	if _, ok := d.Poll(); ok {
		t.Fatalf("Select should not fire before the double-click window elapses")
	}

	d.Tick(base.Add(500 * time.Millisecond))
	ev, ok := d.Poll()
	if !ok || ev != hal.Select {
		t.Fatalf("got %v, %v; want Select", ev, ok)
	}
}

func TestDoubleClickWithinWindow(t *testing.T) {
	d := New()
	base := time.Unix(0, 0)

	d.FeedButtonEdge(true, base)
	d.FeedButtonEdge(false, base.Add(20*time.Millisecond))
	d.FeedButtonEdge(true, base.Add(100*time.Millisecond))
	d.FeedButtonEdge(false, base.Add(120*time.Millisecond))

	ev, ok := d.Poll()
	if !ok || ev != hal.DoubleClick {
		t.Fatalf("got %v, %v; want DoubleClick", ev, ok)
	}
}

func TestLongPressThresholds(t *testing.T) {
	d := New()
	base := time.Unix(0, 0)

	d.FeedButtonEdge(true, base)
	d.FeedButtonEdge(false, base.Add(3500*time.Millisecond))
	if ev, ok := d.Poll(); !ok || ev != hal.Back {
		t.Fatalf("got %v, %v; want Back", ev, ok)
	}

	d.FeedButtonEdge(true, base.Add(4*time.Second))
	d.FeedButtonEdge(false, base.Add(4*time.Second+5200*time.Millisecond))
	if ev, ok := d.Poll(); !ok || ev != hal.Exit {
		t.Fatalf("got %v, %v; want Exit", ev, ok)
	}
}

func TestDebounceDropsFastEdges(t *testing.T) {
	d := New()
	base := time.Unix(0, 0)

	d.FeedButtonEdge(true, base)
	d.FeedButtonEdge(false, base.Add(5*time.Millisecond)) // within 20ms, dropped
	d.FeedButtonEdge(false, base.Add(25*time.Millisecond))

	// The pressed->false at 5ms was dropped, so the button is still
	// logically pressed; the release at 25ms should be the one accepted.
	d.Tick(base.Add(time.Second))
	if _, ok := d.Poll(); !ok {
		t.Fatalf("expected the debounced release to eventually register a click")
	}
}

func TestEncoderAcceleration(t *testing.T) {
	d := New()
	base := time.Unix(0, 0)

	d.FeedStep(1, base)
	if got := d.EncoderDelta(); got != 1 {
		t.Fatalf("first step delta = %d, want 1", got)
	}

	// Three fast steps: streak reaches 2 on the second, multiplier becomes 2.
	d.FeedStep(1, base.Add(10*time.Millisecond))
	d.FeedStep(1, base.Add(20*time.Millisecond))
	d.FeedStep(1, base.Add(30*time.Millisecond))
	got := d.EncoderDelta()
	if got <= 3 {
		t.Errorf("accelerated delta = %d, want > 3 (multiplier should have kicked in)", got)
	}
}

func TestEncoderDeltaResetsAfterRead(t *testing.T) {
	d := New()
	d.FeedStep(-1, time.Unix(0, 0))
	if got := d.EncoderDelta(); got != -1 {
		t.Fatalf("delta = %d, want -1", got)
	}
	if got := d.EncoderDelta(); got != 0 {
		t.Fatalf("delta after drain = %d, want 0", got)
	}
}
