package motor

import (
	"time"

	"github.com/turntablefw/ttcore/internal/applog"
	"github.com/turntablefw/ttcore/internal/config"
)

// relayStageInterval is the stagger interval between successive per-channel
// mute-relay releases.
const relayStageInterval = 100 * time.Millisecond

// relaySequencer owns the staggered mute-relay rollout and the standby
// relay. The power-on grace period is applied by Controller.tickRelays,
// which passes wantUnmuted=false while it lasts.
type relaySequencer struct {
	unmutedCount int
	nextStageAt  time.Time
	lastStandby  int // -1 unknown, 0 false, 1 true
}

func newRelaySequencer() *relaySequencer {
	return &relaySequencer{lastStandby: -1}
}

// tick drives the relay state towards wantUnmuted channels. Entering mute
// (wantUnmuted=false) asserts every mute line at once; entering unmute
// stages channels on at relayStageInterval to avoid inrush.
func (r *relaySequencer) tick(now time.Time, relays relayDriver, wantUnmuted bool, activeHigh bool) {
	_ = activeHigh // polarity is handled inside the concrete RelayDriver.

	if !wantUnmuted {
		if r.unmutedCount > 0 {
			_ = relays.MuteAll()
			r.unmutedCount = 0
			applog.Relay("mute-all", -1)
		}
		return
	}

	if r.unmutedCount == 0 {
		r.nextStageAt = now
	}
	for r.unmutedCount < config.NumChannels && !now.Before(r.nextStageAt) {
		_ = relays.SetMute(r.unmutedCount, false)
		applog.Relay("unmute", r.unmutedCount)
		r.unmutedCount++
		r.nextStageAt = now.Add(relayStageInterval)
	}
}

func (r *relaySequencer) setStandby(relays relayDriver, active bool) {
	want := 0
	if active {
		want = 1
	}
	if r.lastStandby == want {
		return
	}
	_ = relays.SetStandby(active)
	r.lastStandby = want
	applog.Relay("standby", boolToInt(active))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// relayDriver is the subset of hal.RelayDriver the sequencer needs; kept
// narrow so tests can supply a minimal fake without importing hal.
type relayDriver interface {
	SetStandby(active bool) error
	SetMute(ch int, muted bool) error
	MuteAll() error
}
