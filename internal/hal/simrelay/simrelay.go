// Package simrelay implements an in-memory hal.RelayDriver used by unit
// tests and the headless build: a dependency-free stand-in for the real
// GPIO-backed driver.
package simrelay

import (
	"sync"

	"github.com/turntablefw/ttcore/internal/config"
)

// Driver is a fake relay driver that just remembers the last-commanded
// state of each relay, so tests can assert on it.
type Driver struct {
	mu       sync.Mutex
	standby  bool
	muted    [config.NumChannels]bool
}

// New returns a Driver with the standby relay engaged and all channels
// muted, matching the power-on grace period default.
func New() *Driver {
	d := &Driver{standby: true}
	for i := range d.muted {
		d.muted[i] = true
	}
	return d
}

func (d *Driver) SetStandby(active bool) error {
	d.mu.Lock()
	d.standby = active
	d.mu.Unlock()
	return nil
}

func (d *Driver) SetMute(ch int, muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch < 0 || ch >= config.NumChannels {
		return nil
	}
	d.muted[ch] = muted
	return nil
}

func (d *Driver) MuteAll() error {
	d.mu.Lock()
	for i := range d.muted {
		d.muted[i] = true
	}
	d.mu.Unlock()
	return nil
}

// Standby reports the last-commanded standby relay state; test helper.
func (d *Driver) Standby() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.standby
}

// Muted reports the last-commanded mute state for channel ch; test helper.
func (d *Driver) Muted(ch int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch < 0 || ch >= config.NumChannels {
		return true
	}
	return d.muted[ch]
}
