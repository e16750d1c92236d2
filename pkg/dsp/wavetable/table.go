// Package wavetable provides single-cycle lookup tables and the oscillator
// that reads them with linear interpolation.
package wavetable

import (
	"errors"
	"fmt"
	"math"

	"github.com/justyntemme/tonegen/pkg/dsp"
)

// ErrTableSize is returned when a table would be too small to represent a cycle
var ErrTableSize = errors.New("wavetable: invalid table size")

// TableHarmonics bounds the additive tables: partials 1..TableHarmonics-1
// contribute and every partial is divided by TableHarmonics.
const TableHarmonics = 15

// Table holds one cycle of a waveform plus a guard sample equal to the
// first, so interpolation never has to wrap its second index.
type Table struct {
	samples []float32
}

// NewTable fills a table of size samples, calling fill with the angular
// phase of each sample in [0, 2π).
func NewTable(size int, fill func(phase float64) float64) (*Table, error) {
	if size < dsp.MinTableSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrTableSize, size, dsp.MinTableSize)
	}

	samples := make([]float32, size+1)
	delta := dsp.TwoPi / float64(size)
	for i := 0; i < size; i++ {
		samples[i] = float32(fill(float64(i) * delta))
	}
	samples[size] = samples[0]

	return &Table{samples: samples}, nil
}

// Size returns the cycle length, excluding the guard sample
func (t *Table) Size() int {
	return len(t.samples) - 1
}

// At returns sample i; i may address the guard sample
func (t *Table) At(i int) float32 {
	return t.samples[i]
}

// Samples returns the backing samples including the guard sample
func (t *Table) Samples() []float32 {
	return t.samples
}

func sineFill(phase float64) float64 {
	return math.Sin(phase)
}

// additive returns a fill function summing sin(h·phase)/TableHarmonics
// weighted by weight(h), skipping partials for which keep returns false.
func additive(keep func(h int) bool, weight func(h int) float64) func(float64) float64 {
	return func(phase float64) float64 {
		sum := 0.0
		for h := 1; h < TableHarmonics; h++ {
			if keep(h) {
				sum += math.Sin(phase*float64(h)) / TableHarmonics * weight(h)
			}
		}
		return sum
	}
}

func all(int) bool { return true }

func odd(h int) bool { return h%2 == 1 }

func unit(int) float64 { return 1 }

func inverse(h int) float64 { return 1 / float64(h) }

func inverseSquare(h int) float64 { return 1 / float64(h*h) }

// Sine builds a pure sine table
func Sine(size int) (*Table, error) {
	return NewTable(size, sineFill)
}

// Impulse builds an impulse train from equal-weight partials
func Impulse(size int) (*Table, error) {
	return NewTable(size, additive(all, unit))
}

// Square builds a square wave from odd partials weighted 1/h
func Square(size int) (*Table, error) {
	return NewTable(size, additive(odd, inverse))
}

// Sawtooth builds a sawtooth from every partial weighted 1/h
func Sawtooth(size int) (*Table, error) {
	return NewTable(size, additive(all, inverse))
}

// Triangle builds a triangle wave from odd partials weighted 1/h²
func Triangle(size int) (*Table, error) {
	return NewTable(size, additive(odd, inverseSquare))
}
