// Package motor implements the motor control state machine: the
// five-state lifecycle, startup kick, soft-start ramps, frequency-dependent
// amplitude, smooth speed switching, braking, and relay sequencing.
package motor

import (
	"sync"
	"time"

	"github.com/turntablefw/ttcore/internal/applog"
	"github.com/turntablefw/ttcore/internal/config"
	"github.com/turntablefw/ttcore/internal/hal"
	"github.com/turntablefw/ttcore/internal/paramex"
	"github.com/turntablefw/ttcore/internal/statusbus"
)

// Controller owns the state machine. It runs on the control core and
// touches the DDS core only through the parameter exchange: Controller never imports package dds.
type Controller struct {
	mu sync.Mutex

	cfg      *config.GlobalConfig
	ex       *paramex.Exchange
	bus      *statusbus.Bus
	relays   hal.RelayDriver
	timebase hal.Timebase
	relay    *relaySequencer

	state    statusbus.MotorState
	speedIdx int
	pitchPct float64

	bootTime       time.Time
	startTime      time.Time // reset on every Start(); drives kick/ramp/soft-start timers
	lastActivityAt time.Time // drives the auto-standby idle threshold

	ampReductionEpoch time.Time
	ampReduced        bool

	switching      bool
	switchStart    time.Time
	switchFromFreq float64
	switchToIdx    int

	stopStart       time.Time
	brakeFromFreq   float64
	brakeFromAmp    float64
	brakeTargetFreq float64
	pulseHigh       bool
	lastPulseToggle time.Time

	currentFreq float64
	currentAmp  float64

	sessionSeconds int64
	totalSeconds   int64
	lastCounterAt  time.Time
}

// New constructs a Controller in its boot-time state. cfg.BootSpeedPolicy
// selects the initially active SpeedProfile (0=33, 1=45, 2=78); cfg is owned
// exclusively by the control core and may be mutated by the caller between
// ticks (e.g. from CLI `set` commands) -- Controller re-reads it every
// call rather than caching a copy.
func New(cfg *config.GlobalConfig, ex *paramex.Exchange, bus *statusbus.Bus, relays hal.RelayDriver, timebase hal.Timebase) *Controller {
	now := timebase.Now()
	c := &Controller{
		cfg:      cfg,
		ex:       ex,
		bus:      bus,
		relays:   relays,
		timebase: timebase,
		relay:          newRelaySequencer(),
		bootTime:       now,
		lastActivityAt: now,
		speedIdx:       int(cfg.LastUsedSpeed),
	}

	switch cfg.BootSpeedPolicy {
	case config.BootSpeed33:
		c.speedIdx = 0
	case config.BootSpeed45:
		c.speedIdx = 1
	case config.BootSpeed78:
		c.speedIdx = 2
	case config.BootLastUsed:
		c.speedIdx = int(cfg.LastUsedSpeed)
	}

	c.state = statusbus.Standby
	if cfg.AutoBoot {
		c.state = statusbus.Stopped
		if cfg.AutoStart {
			c.beginStarting(now)
		}
	}
	c.bus.SetMotorState(c.state)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() statusbus.MotorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SpeedIndex returns the currently selected speed slot.
func (c *Controller) SpeedIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speedIdx
}

// Start handles the `start` command / wake action.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchActivity()
	now := c.timebase.Now()
	switch c.state {
	case statusbus.Standby:
		c.setState(statusbus.Stopped, "wake")
	case statusbus.Stopped:
		c.beginStarting(now)
	}
}

// Stop handles the `stop` command.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchActivity()
	if c.state == statusbus.Running || c.state == statusbus.Starting {
		c.beginStopping(c.timebase.Now())
	}
}

// ToggleStandby enters or leaves Standby immediately; the relays are muted
// by the relay sequencing of the next Tick.
func (c *Controller) ToggleStandby() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == statusbus.Standby {
		c.setState(statusbus.Stopped, "toggle-standby")
		return
	}
	c.setState(statusbus.Standby, "toggle-standby")
}

// CycleSpeed advances to the next enabled speed slot. While Running with
// smooth switching enabled this initiates a ramp; otherwise the change takes effect on the next Start (or
// snaps immediately if Running and smooth switching is disabled).
func (c *Controller) CycleSpeed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchActivity()
	next := c.nextSpeedIndex()
	c.setSpeedLocked(next)
}

// SetSpeed jumps directly to speed slot idx.
func (c *Controller) SetSpeed(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchActivity()
	if idx < 0 || idx > 2 {
		return
	}
	if idx == 2 && !c.cfg.Speed78Enabled {
		return
	}
	c.setSpeedLocked(idx)
}

func (c *Controller) nextSpeedIndex() int {
	idx := c.speedIdx
	for i := 0; i < 3; i++ {
		idx = (idx + 1) % 3
		if idx != 2 || c.cfg.Speed78Enabled {
			return idx
		}
	}
	return c.speedIdx
}

func (c *Controller) setSpeedLocked(idx int) {
	if idx == c.speedIdx {
		return
	}
	if c.state == statusbus.Running && c.cfg.SmoothSwitch {
		c.switching = true
		c.switchStart = c.timebase.Now()
		c.switchFromFreq = c.currentFreq
		c.switchToIdx = idx
		c.speedIdx = idx
		return
	}
	c.speedIdx = idx
	c.cfg.LastUsedSpeed = int32(idx)
}

// SetPitch sets the signed pitch percentage, clamped to the configured
// range.
func (c *Controller) SetPitch(pct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchActivity()
	r := float64(c.cfg.PitchRangePct)
	if pct > r {
		pct = r
	} else if pct < -r {
		pct = -r
	}
	c.pitchPct = pct
}

// ResetPitch zeroes the pitch offset.
func (c *Controller) ResetPitch() {
	c.mu.Lock()
	c.touchActivity()
	c.pitchPct = 0
	c.mu.Unlock()
}

// Pitch returns the current pitch percentage.
func (c *Controller) Pitch() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pitchPct
}

func (c *Controller) beginStarting(now time.Time) {
	c.startTime = now
	c.switching = false
	c.ampReduced = false
	c.setState(statusbus.Starting, "start")
}

func (c *Controller) beginStopping(now time.Time) {
	c.stopStart = now
	c.brakeFromFreq = c.currentFreq
	c.brakeFromAmp = c.currentAmp
	sp := c.cfg.Speeds[c.speedIdx]
	c.brakeTargetFreq = boundedTargetFreq(sp, c.pitchPct)
	c.pulseHigh = true
	c.lastPulseToggle = now
	c.setState(statusbus.Stopping, "stop")
}

func (c *Controller) setState(s statusbus.MotorState, trigger string) {
	if s == c.state {
		return
	}
	applog.StateTransition(c.state.String(), s.String(), trigger)
	c.state = s
	c.lastActivityAt = c.timebase.Now()
	c.bus.SetMotorState(s)
}

// touchActivity restarts the auto-standby idle clock; every user-initiated
// command calls it, whether or not it causes a state transition.
func (c *Controller) touchActivity() {
	c.lastActivityAt = c.timebase.Now()
}

// boundedTargetFreq derives the pitch-adjusted instantaneous frequency,
// held within the speed's [min,max] window.
func boundedTargetFreq(sp config.SpeedProfile, pitchPct float64) float64 {
	f := sp.NominalFreqHz * (1 + pitchPct/100)
	if f < sp.MinFreqHz {
		f = sp.MinFreqHz
	} else if f > sp.MaxFreqHz {
		f = sp.MaxFreqHz
	}
	return f
}

// Tick drives one control-core iteration: state handling, relay
// sequencing, status-bus publication, and runtime counters. It must be
// called at least as often as the watchdog period requires.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.timebase.Now()

	switch c.state {
	case statusbus.Standby:
		c.publish(0, 0, false)
	case statusbus.Stopped:
		c.publish(0, 0, false)
		c.maybeAutoStandby(now)
	case statusbus.Starting:
		c.tickStarting(now)
	case statusbus.Running:
		c.tickRunning(now)
	case statusbus.Stopping:
		c.tickStopping(now)
	}

	c.tickRelays(now)
	c.tickCounters(now)

	c.bus.SetCurrentFrequency(c.currentFreq)
	c.bus.SetCurrentPitch(c.pitchPct)
}

// maybeAutoStandby drops from Stopped into Standby once the configured idle
// threshold elapses with no user activity; a threshold of 0 disables it.
func (c *Controller) maybeAutoStandby(now time.Time) {
	if c.cfg.AutoStandbyMin <= 0 {
		return
	}
	if now.Sub(c.lastActivityAt) >= time.Duration(c.cfg.AutoStandbyMin)*time.Minute {
		c.setState(statusbus.Standby, "auto-standby")
	}
}

func (c *Controller) tickStarting(now time.Time) {
	sp := c.cfg.Speeds[c.speedIdx]
	elapsed := now.Sub(c.startTime).Seconds()

	targetFreq := boundedTargetFreq(sp, c.pitchPct)
	targetAmp := c.cfg.MaxAmplitudePct / 100

	freq := c.kickAdjustedFreq(sp, elapsed, targetFreq)

	r := c.cfg.FDAPercent / 100
	q := clamp01(freq / targetFreq)
	scale := r + (1-r)*q
	effectiveTargetAmp := targetAmp * scale // FDA scales the target; the ramp runs on top

	amp := rampAmplitude(c.cfg.SoftStartCurve, elapsed, sp.SoftStartSeconds, effectiveTargetAmp)

	c.publishSpeed(freq, amp, sp, true)

	if elapsed >= sp.SoftStartSeconds {
		c.ampReductionEpoch = now
		c.ampReduced = false
		c.setState(statusbus.Running, "soft-start-complete")
	}
}

// kickAdjustedFreq computes the instantaneous DDS frequency including any
// startup-kick hold/ramp-down tail. It is also used
// while Running so a kick tail that outlives the amplitude soft-start keeps declining toward target_freq after the state machine
// has already entered Running.
func (c *Controller) kickAdjustedFreq(sp config.SpeedProfile, elapsed, targetFreq float64) float64 {
	if sp.KickMultiplier <= 1 {
		return targetFreq
	}
	kickFreq := targetFreq * float64(sp.KickMultiplier)
	if elapsed < sp.KickHoldSeconds {
		return kickFreq
	}
	rampElapsed := elapsed - sp.KickHoldSeconds
	if sp.KickRampSeconds <= 0 || rampElapsed >= sp.KickRampSeconds {
		return targetFreq
	}
	return lerp(kickFreq, targetFreq, rampElapsed/sp.KickRampSeconds)
}

func (c *Controller) tickRunning(now time.Time) {
	sp := c.cfg.Speeds[c.speedIdx]
	targetAmp := c.cfg.MaxAmplitudePct / 100

	var freq float64
	if c.switching {
		toSp := c.cfg.Speeds[c.switchToIdx]
		toFreq := boundedTargetFreq(toSp, c.pitchPct)
		elapsed := now.Sub(c.switchStart).Seconds()
		frac := 1.0
		if c.cfg.SwitchRampS > 0 {
			frac = elapsed / c.cfg.SwitchRampS
		}
		freq = lerp(c.switchFromFreq, toFreq, frac)
		if frac >= 1.0 {
			c.switching = false
			sp = toSp
		}
	} else {
		elapsed := now.Sub(c.startTime).Seconds()
		targetFreq := boundedTargetFreq(sp, c.pitchPct)
		freq = c.kickAdjustedFreq(sp, elapsed, targetFreq)
	}

	amp := targetAmp
	if !c.ampReduced && now.Sub(c.ampReductionEpoch).Seconds() >= sp.ReducedAmpDelayS {
		c.ampReduced = true
	}
	if c.ampReduced {
		amp = sp.ReducedAmpPercent / 100 * targetAmp
	}

	c.publishSpeed(freq, amp, sp, true)
}

func (c *Controller) tickStopping(now time.Time) {
	sp := c.cfg.Speeds[c.speedIdx]
	elapsed := now.Sub(c.stopStart).Seconds()

	if elapsed >= c.cfg.BrakeDurationS {
		c.currentFreq = absf(c.brakeTargetFreq)
		c.publish(c.currentFreq, 0, false)
		if c.cfg.RelayLinkStart {
			_ = c.relays.MuteAll()
		}
		c.setState(statusbus.Stopped, "brake-complete")
		return
	}

	switch c.cfg.BrakeMode {
	case config.BrakeOff:
		amp := lerp(c.brakeFromAmp, 0, elapsed/safeDiv(c.cfg.BrakeDurationS))
		c.publishSpeed(c.brakeFromFreq, amp, sp, true)
	case config.BrakeRamp:
		frac := elapsed / safeDiv(c.cfg.BrakeDurationS)
		freq := lerp(c.cfg.BrakeStartHz, c.cfg.BrakeStopHz, frac)
		amp := lerp(c.brakeFromAmp, 0, frac)
		c.publishSpeed(freq, amp, sp, true)
	case config.BrakePulse:
		if now.Sub(c.lastPulseToggle).Seconds() >= c.cfg.BrakePulseGapS {
			c.pulseHigh = !c.pulseHigh
			c.lastPulseToggle = now
		}
		amp := 0.0
		if c.pulseHigh {
			amp = c.brakeFromAmp
		}
		c.publishSpeed(-c.brakeTargetFreq, amp, sp, true)
	}
}

func safeDiv(d float64) float64 {
	if d <= 0 {
		return 1
	}
	return d
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// publishSpeed publishes freq/amp together with sp's phase offsets and
// filter configuration.
func (c *Controller) publishSpeed(freq, amp float64, sp config.SpeedProfile, enabled bool) {
	c.currentFreq = freq
	c.currentAmp = amp
	c.ex.MutatePending(func(s *paramex.DDSState) {
		s.FrequencyHz = freq
		s.Amplitude = amp
		s.PhaseOffsetDeg = sp.PhaseOffsetDeg
		s.PhaseMode = int(c.cfg.PhaseMode)
		s.Filter = sp.Filter
		s.IIRAlpha = sp.IIRAlpha
		s.FIRProfile = sp.FIRProfile
		s.Enabled = enabled
	})
	c.ex.Publish()
}

// publish is publishSpeed's degenerate form for the idle states (Standby,
// Stopped), where amplitude is pinned to 0 and the DDS core is disabled.
func (c *Controller) publish(freq, amp float64, enabled bool) {
	sp := c.cfg.Speeds[c.speedIdx]
	c.publishSpeed(freq, amp, sp, enabled)
}

func (c *Controller) tickRelays(now time.Time) {
	withinGrace := now.Sub(c.bootTime).Seconds() < c.cfg.PowerOnMuteDelayS
	// Relays stay unmuted through Stopping too: braking (including reverse-
	// phase pulse braking) needs the phase outputs live until the brake
	// sequence completes, at which point tickStopping issues its own
	// explicit MuteAll.
	wantUnmuted := !withinGrace && c.cfg.RelayLinkStart &&
		(c.state == statusbus.Starting || c.state == statusbus.Running || c.state == statusbus.Stopping)
	c.relay.tick(now, c.relays, wantUnmuted, c.cfg.RelayActiveHigh)

	if c.cfg.RelayLinkStandby {
		c.relay.setStandby(c.relays, c.state == statusbus.Standby)
	}
}

func (c *Controller) tickCounters(now time.Time) {
	if c.lastCounterAt.IsZero() {
		c.lastCounterAt = now
		return
	}
	if now.Sub(c.lastCounterAt) < time.Second {
		return
	}
	c.lastCounterAt = now
	c.totalSeconds++
	if c.state == statusbus.Running {
		c.sessionSeconds++
	} else {
		c.sessionSeconds = 0
	}
}

// SessionSeconds returns the elapsed Running time since the last Start.
func (c *Controller) SessionSeconds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionSeconds
}

// TotalSeconds returns lifetime runtime, regardless of state.
func (c *Controller) TotalSeconds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalSeconds
}

// CurrentFrequency returns the last frequency published to the DDS core.
func (c *Controller) CurrentFrequency() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFreq
}
