// Command ttfirmware is the firmware entry point: it wires an app.App,
// starts the control-core and DDS-core loops as two goroutines standing in
// for the two hardware cores, and serves the serial CLI on stdin/stdout
// until interrupted.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turntablefw/ttcore/internal/app"
	"github.com/turntablefw/ttcore/internal/applog"
	"github.com/turntablefw/ttcore/internal/hal"
	"github.com/turntablefw/ttcore/internal/hal/linuxgpio"
)

// controlTickPeriod is the control core's polled-loop cadence; fast enough
// that the watchdog, input decoder and ramps all stay responsive without
// burning a core.
const controlTickPeriod = 2 * time.Millisecond

func main() {
	baseDir := flag.String("data-dir", "data", "directory for settings.bin, preset_N.bin and error.log")
	gpioChip := flag.String("gpio-chip", "", "GPIO chardev path (e.g. /dev/gpiochip0); empty uses the in-process relay simulator")
	activeHigh := flag.Bool("relay-active-high", true, "relay logic polarity")
	flag.Parse()

	opts := app.Options{BaseDir: *baseDir}
	if *gpioChip != "" {
		drv, err := linuxgpio.Open(*gpioChip, *activeHigh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open gpio chip %s: %v\n", *gpioChip, err)
			os.Exit(1)
		}
		opts.Relays = drv
	}

	watchdog := hal.NewSoftWatchdog(hal.WatchdogTimeout, func() {
		applog.Logger.Error("watchdog starved; resetting")
		os.Exit(1)
	})
	opts.Watchdog = watchdog

	a, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise: %v\n", err)
		os.Exit(1)
	}

	stop := make(chan struct{})
	go a.RunControlLoop(controlTickPeriod, stop)
	go a.RunDDSCore(nil, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		applog.Logger.Info("shutting down")
		close(stop)
		os.Exit(0)
	}()

	if err := a.CLI.Run(os.Stdin, os.Stdout); err != nil {
		applog.Logger.Error("cli session ended", "err", err)
	}
	close(stop)
}

var _ hal.RelayDriver = (*linuxgpio.Driver)(nil)
