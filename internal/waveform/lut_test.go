package waveform

import (
	"math"
	"testing"
)

func TestNewTableBounds(t *testing.T) {
	l := New()
	for i := 0; i < TableSize; i++ {
		if l.samples[i] < -511 || l.samples[i] > 511 {
			t.Fatalf("sample %d out of range: %d", i, l.samples[i])
		}
	}
}

func TestInterpolateMatchesExactIndices(t *testing.T) {
	l := New()
	for i := 0; i < TableSize; i += 37 {
		phase := uint32(i) << indexShift
		got := l.Interpolate(phase)
		want := float64(l.Sample(i))
		if math.Abs(got-want) > 0.001 {
			t.Fatalf("index %d: got %.4f want %.4f", i, got, want)
		}
	}
}

func TestInterpolateWrapsAtBoundary(t *testing.T) {
	l := New()
	// Phase just below a full turn should interpolate toward sample 0,
	// wrapping rather than reading out of bounds.
	phase := uint32(TableSize-1)<<indexShift | fracMask<<fracShift
	got := l.Interpolate(phase)
	lo := float64(l.Sample(TableSize - 1))
	hi := float64(l.Sample(0))
	min, max := lo, hi
	if min > max {
		min, max = max, min
	}
	if got < min-1 || got > max+1 {
		t.Fatalf("wrap interpolation %.4f outside [%.4f,%.4f]", got, min, max)
	}
}

func TestTableSymmetry(t *testing.T) {
	l := New()
	// sin(x + pi) == -sin(x): the table's second half should be the
	// negated mirror of the first.
	half := TableSize / 2
	for i := 0; i < half; i++ {
		if math.Abs(float64(l.Sample(i)+l.Sample(i+half))) > 1 {
			t.Fatalf("sample %d and %d not antisymmetric: %d vs %d", i, i+half, l.Sample(i), l.Sample(i+half))
		}
	}
}
