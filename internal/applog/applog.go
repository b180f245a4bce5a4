// Package applog wraps github.com/charmbracelet/log for the control core's
// structured event logging: state transitions, persistence outcomes, and
// error reports. Logging happens at subsystem boundaries, never on the hot
// path — the DDS core never touches this package.
package applog

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide structured logger, configured for the
// control core. It is safe for concurrent use.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05.000",
	Prefix:          "ttcore",
})

// StateTransition logs a motor state machine transition.
func StateTransition(from, to, trigger string) {
	Logger.Info("state transition", "from", from, "to", to, "trigger", trigger)
}

// PersistenceEvent logs a settings/preset load or save outcome.
func PersistenceEvent(op, path string, err error) {
	if err != nil {
		Logger.Error("persistence", "op", op, "path", path, "err", err)
		return
	}
	Logger.Info("persistence", "op", op, "path", path)
}

// Migration logs a schema migration.
func Migration(from, to uint32, path string) {
	Logger.Warn("schema migration", "from", from, "to", to, "path", path)
}

// ErrorReport logs a filed error report.
func ErrorReport(kind string, critical bool, message string) {
	if critical {
		Logger.Error("error report", "kind", kind, "critical", critical, "message", message)
		return
	}
	Logger.Warn("error report", "kind", kind, "critical", critical, "message", message)
}

// Relay logs a relay sequencing event.
func Relay(event string, channel int) {
	Logger.Debug("relay", "event", event, "channel", channel)
}
