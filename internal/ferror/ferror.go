// Package ferror implements firmware error handling: error kinds, reports,
// and the handling policy (local recovery, UI surfacing duration, and the
// critical-error fast path that mutes relays immediately regardless of
// motor state).
package ferror

import (
	"sync"
	"time"

	"github.com/turntablefw/ttcore/internal/applog"
	"github.com/turntablefw/ttcore/internal/hal"
)

// Kind enumerates the firmware error kinds.
type Kind int

const (
	SystemFreeze Kind = iota
	MotorStall
	SettingsCorrupt
	I2CFailure
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case SystemFreeze:
		return "SystemFreeze"
	case MotorStall:
		return "MotorStall"
	case SettingsCorrupt:
		return "SettingsCorrupt"
	case I2CFailure:
		return "I2CFailure"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Unknown"
	}
}

// Report is a single error occurrence.
type Report struct {
	Kind     Kind
	Message  string
	Critical bool
	At       time.Time
}

// minCriticalDisplaySeconds is the floor on a critical error's UI display
// duration.
const minCriticalDisplaySeconds = 10.0

// Handler owns the error-reporting policy. It is constructed with the
// relay driver it must fast-path on critical reports, the display duration
// for ordinary reports, and a sink for the append-only error log.
type Handler struct {
	mu sync.Mutex

	relays          hal.RelayDriver
	displaySeconds  float64
	logSink         LogSink
	resetDefaults   func()
	i2cRetryCounter int

	hasCriticalError bool
	lastReport       Report
	displayUntil     time.Time
	timebase         hal.Timebase
}

// LogSink receives every report for the append-only error.log.
type LogSink interface {
	Append(millis int64, kind Kind, message string) error
}

// NewHandler constructs a Handler. resetDefaults is called for
// SettingsCorrupt local recovery; it should reset the live GlobalConfig to
// defaults and continue booting.
func NewHandler(relays hal.RelayDriver, timebase hal.Timebase, displaySeconds float64, log LogSink, resetDefaults func()) *Handler {
	return &Handler{
		relays:         relays,
		timebase:       timebase,
		displaySeconds: displaySeconds,
		logSink:        log,
		resetDefaults:  resetDefaults,
	}
}

// Report files a report and applies policy:
//   - SettingsCorrupt: reset config to defaults, continue.
//   - I2CFailure: log, retry next frame (modeled as a counter here).
//   - All kinds: surfaced to UI for the handler's displaySeconds, critical reports
//     clamp to at least 10s and set the sticky HasCriticalError flag.
//   - Critical reports additionally mute every relay immediately,
//     regardless of the motor state machine's current state.
func (h *Handler) Report(r Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r.At.IsZero() {
		r.At = h.timebase.Now()
	}
	h.lastReport = r
	applog.ErrorReport(r.Kind.String(), r.Critical, r.Message)

	switch r.Kind {
	case SettingsCorrupt:
		if h.resetDefaults != nil {
			h.resetDefaults()
		}
	case I2CFailure:
		h.i2cRetryCounter++
	}

	if h.logSink != nil {
		_ = h.logSink.Append(r.At.UnixMilli(), r.Kind, r.Message)
	}

	dur := h.displaySeconds
	if r.Critical {
		if dur < minCriticalDisplaySeconds {
			dur = minCriticalDisplaySeconds
		}
		h.hasCriticalError = true
		if h.relays != nil {
			_ = h.relays.MuteAll()
		}
	}
	h.displayUntil = r.At.Add(time.Duration(dur * float64(time.Second)))
}

// HasCriticalError reports the sticky flag set by any critical report
// until the user clears it.
func (h *Handler) HasCriticalError() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hasCriticalError
}

// ClearCriticalError is invoked by a user action (e.g. an "error clear" CLI
// command or menu dismissal).
func (h *Handler) ClearCriticalError() {
	h.mu.Lock()
	h.hasCriticalError = false
	h.mu.Unlock()
}

// DisplayActive reports whether the modal error message should still be
// shown at the current time.
func (h *Handler) DisplayActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timebase.Now().Before(h.displayUntil)
}

// LastReport returns the most recently filed report.
func (h *Handler) LastReport() Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastReport
}

// I2CRetryCount returns how many I2C transient failures have been retried;
// test/diagnostic helper.
func (h *Handler) I2CRetryCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.i2cRetryCounter
}
