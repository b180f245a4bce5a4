// Package linuxgpio implements hal.RelayDriver against a Linux GPIO
// character device (/dev/gpiochipN), using golang.org/x/sys/unix directly
// rather than a higher-level GPIO library: the driver only ever requests a
// handful of output lines and holds them for the process lifetime, which
// is exactly the shape of the raw ioctl calls below and doesn't need a
// general-purpose line-request abstraction on top.
//
// Pin assignments follow the board's wiring: standby relay on GPIO16,
// per-phase mute on GPIO17-20.
package linuxgpio

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/turntablefw/ttcore/internal/config"
)

const (
	standbyLine = 16
	muteLineLo  = 17 // channels 0..3 map to GPIO 17..20
)

// Linux GPIO character-device ioctl numbers (linux/gpio.h), handle-request
// form. These are stable uAPI constants, not derived at runtime.
const (
	gpioGetLineHandleIOCTL       = 0xC16CB403
	gpiohandleSetLineValuesIOCTL = 0xC040B409
	gpiohandleRequestOutput      = 1 << 1
)

type gpiohandleRequest struct {
	lineOffsets [64]uint32
	flags       uint32
	defaultVals [64]uint8
	consumerLabel [32]byte
	lines   uint32
	fd      int32
}

type gpiohandleData struct {
	values [64]uint8
}

// Driver drives the standby and per-phase mute relays through a single
// GPIO chip's line-handle request, held open for the process lifetime.
type Driver struct {
	mu         sync.Mutex
	chip       *os.File
	handleFd   int32
	activeHigh bool
	lineForCh  [config.NumChannels]int // index into the handle's lineOffsets
	standbyIdx int
	cur        [1 + config.NumChannels]uint8 // last-written raw level per requested line
}

// Open requests an output handle covering the standby line and the four
// mute lines on the named GPIO chip device (e.g. "/dev/gpiochip0").
func Open(chipPath string, activeHigh bool) (*Driver, error) {
	chip, err := os.OpenFile(chipPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("linuxgpio: open %s: %w", chipPath, err)
	}

	req := gpiohandleRequest{flags: gpiohandleRequestOutput}
	req.lineOffsets[0] = standbyLine
	for c := 0; c < config.NumChannels; c++ {
		req.lineOffsets[c+1] = uint32(muteLineLo + c)
	}
	req.lines = uint32(1 + config.NumChannels)
	copy(req.consumerLabel[:], "ttcore-relay")

	if err := ioctl(chip.Fd(), gpioGetLineHandleIOCTL, unsafe.Pointer(&req)); err != nil {
		chip.Close()
		return nil, fmt.Errorf("linuxgpio: request line handle: %w", err)
	}

	d := &Driver{
		chip:       chip,
		handleFd:   req.fd,
		activeHigh: activeHigh,
		standbyIdx: 0,
	}
	for c := 0; c < config.NumChannels; c++ {
		d.lineForCh[c] = c + 1
	}
	return d, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	unix.Close(int(d.handleFd))
	return d.chip.Close()
}

func (d *Driver) SetStandby(active bool) error {
	return d.setLine(d.standbyIdx, active)
}

func (d *Driver) SetMute(ch int, muted bool) error {
	if ch < 0 || ch >= config.NumChannels {
		return fmt.Errorf("linuxgpio: channel %d out of range", ch)
	}
	return d.setLine(d.lineForCh[ch], muted)
}

func (d *Driver) MuteAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := 0; c < config.NumChannels; c++ {
		d.cur[d.lineForCh[c]] = d.level(true)
	}
	return d.flush()
}

// setLine sets a single requested line's logical value, honouring
// RelayActiveHigh polarity, while
// preserving every other requested line's last-written level — the
// handle-set ioctl always writes every requested line at once.
func (d *Driver) setLine(idx int, logicalActive bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cur[idx] = d.level(logicalActive)
	return d.flush()
}

func (d *Driver) level(logicalActive bool) uint8 {
	if logicalActive == d.activeHigh {
		return 1
	}
	return 0
}

func (d *Driver) flush() error {
	var data gpiohandleData
	copy(data.values[:len(d.cur)], d.cur[:])
	return ioctl(uintptr(d.handleFd), gpiohandleSetLineValuesIOCTL, unsafe.Pointer(&data))
}

func ioctl(fd uintptr, request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
