package ferror

import (
	"testing"
	"time"

	"github.com/turntablefw/ttcore/internal/hal"
	"github.com/turntablefw/ttcore/internal/hal/simrelay"
)

type fakeLog struct {
	entries []Report
}

func (f *fakeLog) Append(millis int64, kind Kind, message string) error {
	f.entries = append(f.entries, Report{Kind: kind, Message: message})
	return nil
}

// TestCriticalErrorMutesRelaysImmediately: a critical MotorStall report
// must drive all mute relays inactive within one tick and set
// HasCriticalError, independent of motor state (which this package never
// touches).
func TestCriticalErrorMutesRelaysImmediately(t *testing.T) {
	relays := simrelay.New()
	for c := 0; c < 4; c++ {
		_ = relays.SetMute(c, false) // simulate Running: channels unmuted
	}
	tb := hal.NewFakeTimebase()
	h := NewHandler(relays, tb, 3, &fakeLog{}, nil)

	h.Report(Report{Kind: MotorStall, Message: "stall detected", Critical: true})

	for c := 0; c < 4; c++ {
		if !relays.Muted(c) {
			t.Fatalf("channel %d not muted after critical report", c)
		}
	}
	if !h.HasCriticalError() {
		t.Fatalf("expected HasCriticalError true")
	}
	if !h.DisplayActive() {
		t.Fatalf("expected display active immediately after report")
	}
}

func TestCriticalDisplayClampsToTenSeconds(t *testing.T) {
	relays := simrelay.New()
	tb := hal.NewFakeTimebase()
	h := NewHandler(relays, tb, 3, &fakeLog{}, nil)

	h.Report(Report{Kind: SystemFreeze, Critical: true})
	tb.Advance(9999 * time.Millisecond)
	if !h.DisplayActive() {
		t.Fatalf("expected critical display still active just under 10s")
	}
}

func TestSettingsCorruptResetsDefaultsAndContinues(t *testing.T) {
	relays := simrelay.New()
	tb := hal.NewFakeTimebase()
	resetCalled := false
	h := NewHandler(relays, tb, 3, &fakeLog{}, func() { resetCalled = true })

	h.Report(Report{Kind: SettingsCorrupt, Message: "bad schema"})

	if !resetCalled {
		t.Fatalf("expected resetDefaults to be invoked for SettingsCorrupt")
	}
	if h.HasCriticalError() {
		t.Fatalf("SettingsCorrupt is local recovery, not critical")
	}
}

func TestI2CFailureRetriesNextFrame(t *testing.T) {
	relays := simrelay.New()
	tb := hal.NewFakeTimebase()
	h := NewHandler(relays, tb, 3, &fakeLog{}, nil)

	h.Report(Report{Kind: I2CFailure, Message: "nak"})
	h.Report(Report{Kind: I2CFailure, Message: "nak"})

	if h.I2CRetryCount() != 2 {
		t.Fatalf("expected 2 retries, got %d", h.I2CRetryCount())
	}
}
