// Package app wires the turntable firmware's subsystems into one owned
// App value constructed in main, rather than package-level globals. The
// DDS core is handed only the shared paramex.Exchange it needs, never the
// whole App.
package app

import (
	"time"

	"github.com/turntablefw/ttcore/internal/applog"
	"github.com/turntablefw/ttcore/internal/cliio"
	"github.com/turntablefw/ttcore/internal/config"
	"github.com/turntablefw/ttcore/internal/dds"
	"github.com/turntablefw/ttcore/internal/errlog"
	"github.com/turntablefw/ttcore/internal/ferror"
	"github.com/turntablefw/ttcore/internal/hal"
	"github.com/turntablefw/ttcore/internal/hal/simrelay"
	"github.com/turntablefw/ttcore/internal/inputdecoder"
	"github.com/turntablefw/ttcore/internal/motor"
	"github.com/turntablefw/ttcore/internal/paramex"
	"github.com/turntablefw/ttcore/internal/persist"
	"github.com/turntablefw/ttcore/internal/statusbus"
	"github.com/turntablefw/ttcore/internal/waveform"
)

// errorDisplaySeconds is the ordinary (non-critical) modal error display
// duration; critical reports clamp up to at least 10s inside
// ferror.Handler regardless of this value.
const errorDisplaySeconds = 3.0

// Options configures App construction. A zero Options is valid: it yields a
// headless, in-memory relay driver and the real wall-clock timebase rooted
// at the current working directory's "data" subdirectory.
type Options struct {
	// BaseDir roots settings.bin, preset_N.bin and error.log.
	BaseDir string
	// Relays overrides the default simrelay.Driver fallback, e.g. with
	// linuxgpio.Open's result on real hardware.
	Relays hal.RelayDriver
	// Timebase overrides the default hal.RealTimebase, e.g. with a
	// hal.FakeTimebase in tests.
	Timebase hal.Timebase
	// Input overrides the default inputdecoder.Decoder.
	Input hal.InputProvider
	// Watchdog, if non-nil, is fed once per control-loop tick.
	Watchdog hal.Watchdog
}

// App owns every subsystem of the control core plus the shared objects the
// DDS core needs a reference to.
type App struct {
	Config *config.GlobalConfig

	Store      persist.Store
	ErrLog     *errlog.Log
	ErrHandler *ferror.Handler

	Bus      *statusbus.Bus
	Exchange *paramex.Exchange

	Relays   hal.RelayDriver
	Timebase hal.Timebase
	Input    hal.InputProvider
	Watchdog hal.Watchdog

	Controller *motor.Controller

	LUT        *waveform.LUT
	Engine     *dds.Engine
	RefillLoop *dds.RefillLoop

	CLI *cliio.Session
}

// New constructs an App: it loads persisted settings (or defaults on first
// boot or schema corruption), builds the parameter exchange and status bus,
// and wires the motor state machine and DDS engine against them.
func New(opts Options) (*App, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "data"
	}

	store, err := persist.NewFileStore(baseDir)
	if err != nil {
		return nil, err
	}
	log, err := errlog.New(baseDir)
	if err != nil {
		return nil, err
	}

	timebase := opts.Timebase
	if timebase == nil {
		timebase = hal.RealTimebase{}
	}
	relays := opts.Relays
	if relays == nil {
		relays = simrelay.New()
	}
	input := opts.Input
	if input == nil {
		input = inputdecoder.New()
	}

	bus := statusbus.New()
	exchange := paramex.New()

	cfg := config.Default()
	a := &App{
		Config:   &cfg,
		Store:    store,
		ErrLog:   log,
		Bus:      bus,
		Exchange: exchange,
		Relays:   relays,
		Timebase: timebase,
		Input:    input,
		Watchdog: opts.Watchdog,
	}
	a.ErrHandler = ferror.NewHandler(relays, timebase, errorDisplaySeconds, log, a.resetConfigToDefaults)

	loaded, err := store.LoadConfig()
	if err != nil {
		// Reset-to-defaults, error.log append and UI surfacing all flow
		// through the handler's SettingsCorrupt policy.
		a.ErrHandler.Report(ferror.Report{
			Kind:    ferror.SettingsCorrupt,
			Message: err.Error(),
			At:      timebase.Now(),
		})
	} else {
		*a.Config = loaded
	}
	a.Config.Validate()

	a.Controller = motor.New(a.Config, exchange, bus, relays, timebase)

	a.LUT = waveform.New()
	a.Engine = dds.NewEngine(a.LUT, exchange)
	a.RefillLoop = dds.NewRefillLoop(a.Engine)

	a.CLI = cliio.NewSession(a.Controller, a.Config, store, log, a.ErrHandler, bus)

	bus.SetInitialised()
	applog.Logger.Info("control core ready", "base_dir", baseDir)
	return a, nil
}

// The controller is the concrete UI-provider target: menu/OLED
// code drives it only through this contract.
var _ hal.UIProvider = (*motor.Controller)(nil)

// resetConfigToDefaults is the ferror.Handler local-recovery callback for
// SettingsCorrupt: it resets the live configuration in place
// without otherwise disturbing the motor state machine.
func (a *App) resetConfigToDefaults() {
	*a.Config = config.Default()
}

// RunControlLoop drives the control core's polled main loop: one Controller.Tick and one input-decoder Tick per period,
// dispatching any pending input event to the controller exactly as the UI
// provider contract describes. It returns when stop is closed.
func (a *App) RunControlLoop(period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := a.Timebase.Now()
			if flusher, ok := a.Input.(interface{ Tick(time.Time) }); ok {
				flusher.Tick(now)
			}
			a.dispatchInput()
			a.Controller.Tick()
			if a.Watchdog != nil {
				a.Watchdog.Feed()
			}
		}
	}
}

// dispatchInput drains one pending input event, if any, and applies it to
// the controller: Select starts/stops depending on state, DoubleClick
// cycles speed, Back toggles standby. This is the minimal input-to-action
// mapping a menu tree would otherwise perform; it exists here so the input
// decoder has somewhere to feed.
func (a *App) dispatchInput() {
	ev, ok := a.Input.Poll()
	if !ok {
		return
	}
	switch ev {
	case hal.Select:
		switch a.Controller.State() {
		case statusbus.Running, statusbus.Starting:
			a.Controller.Stop()
		default:
			a.Controller.Start()
		}
	case hal.DoubleClick:
		a.Controller.CycleSpeed()
	case hal.Back:
		a.Controller.ToggleStandby()
	case hal.Exit:
		a.Controller.Stop()
	}
	if delta := a.Input.EncoderDelta(); delta != 0 {
		a.Controller.SetPitch(a.Controller.Pitch() + float64(delta))
	}
}

// RunDDSCore drives the synthesis core's refill loop, simulating the DMA-completion ISR by re-signalling each
// buffer half free once it would have finished transferring to hardware —
// BufferTicks ticks at 1/FPWM seconds each. onReady, if non-nil, receives
// every freshly-synthesised half (e.g. to hand off to a real PWM/DMA
// backend). It spins on Bus.Initialised before touching anything.
func (a *App) RunDDSCore(onReady func(half int, sliceA, sliceB []uint32), stop <-chan struct{}) {
	for !a.Bus.Initialised() {
		time.Sleep(time.Millisecond)
	}

	bufferPeriod := time.Duration(float64(dds.BufferTicks) / dds.FPWM * float64(time.Second))
	done := make(chan struct{})
	go func() {
		a.RefillLoop.Run(func(half int, sliceA, sliceB []uint32) {
			if onReady != nil {
				onReady(half, sliceA, sliceB)
			}
			time.AfterFunc(bufferPeriod, func() { a.RefillLoop.SignalBufferFree(half) })
		})
		close(done)
	}()

	<-stop
	a.RefillLoop.Stop()
	<-done
}
