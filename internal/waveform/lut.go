// Package waveform implements the precomputed sine lookup table used by the
// DDS engine to synthesise phase-shifted waveforms without calling math.Sin
// on the hot path.
package waveform

import "math"

// TableSize is the number of entries in the sine table. Valid build-time
// choices are 1024, 2048, 4096, 8192 or 16384; the accumulator math below
// assumes TableSize is a power of two and that bitsForIndex equals
// log2(TableSize). 8192 entries gives sub-LSB interpolation error against
// the 10-bit sample range at negligible memory cost (16KiB of int16).
const TableSize = 8192

// bitsForIndex is log2(TableSize): the number of high bits of the 32-bit
// phase accumulator used to index the table.
const bitsForIndex = 13 // log2(8192)

// fracBits is the number of accumulator bits, below the index bits, used as
// the linear-interpolation fraction between a sample and its successor.
const fracBits = 10

const (
	indexShift = 32 - bitsForIndex
	fracShift  = indexShift - fracBits
	fracMask   = (1 << fracBits) - 1

	// Amplitude is applied after interpolation, so the table itself stores
	// raw signed samples scaled to the motor-control PWM's 10-bit range.
	sampleScale = 511.0
)

// LUT is an immutable, power-of-two sine table. It is generated once at
// startup and never mutated afterwards, so a *LUT may be shared across
// goroutines (and, on the real hardware, across cores) without locking.
type LUT struct {
	samples [TableSize]int16
}

// New builds a sine table spanning one period, scaled to ±511 (10-bit
// signed range).
func New() *LUT {
	l := &LUT{}
	for i := 0; i < TableSize; i++ {
		phase := 2 * math.Pi * float64(i) / float64(TableSize)
		l.samples[i] = int16(math.Round(sampleScale * math.Sin(phase)))
	}
	return l
}

// Interpolate returns the interpolated sine value for a 32-bit fractional
// phase (phase/2^32 turns). The top bitsForIndex bits select the table
// entry; the next fracBits bits linearly blend it with its successor,
// wrapping at the table boundary. The result is a raw, amplitude-free
// sample in roughly [-511, 511].
func (l *LUT) Interpolate(phase uint32) float64 {
	index := phase >> indexShift
	frac := float64((phase>>fracShift)&fracMask) / float64(1<<fracBits)

	next := (index + 1) % TableSize
	a := float64(l.samples[index])
	b := float64(l.samples[next])
	return a + frac*(b-a)
}

// Sample returns the raw int16 table entry at index i without interpolation,
// mainly useful for tests and diagnostics.
func (l *LUT) Sample(i int) int16 {
	return l.samples[i%TableSize]
}
