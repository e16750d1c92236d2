package wavetable

import (
	"math"

	"github.com/justyntemme/tonegen/pkg/dsp/interpolation"
)

// Oscillator reads a Table at a fractional index with linear interpolation.
// It keeps its own index, so several oscillators can share one table.
type Oscillator struct {
	table *Table
	index float64
	delta float64
}

// NewOscillator creates an oscillator reading table
func NewOscillator(table *Table) Oscillator {
	return Oscillator{table: table}
}

// SetFrequency sets the per-sample index increment to size·f/sr.
// The current index is kept so retuning does not click.
func (o *Oscillator) SetFrequency(frequency, sampleRate float64) {
	if o.table == nil || sampleRate <= 0 || !(frequency >= 0) {
		o.delta = 0
		return
	}
	o.delta = float64(o.table.Size()) * frequency / sampleRate
}

// Delta returns the per-sample index increment
func (o *Oscillator) Delta() float64 {
	return o.delta
}

// Index returns the current fractional read position
func (o *Oscillator) Index() float64 {
	return o.index
}

// Reset moves the read position back to the start of the cycle
func (o *Oscillator) Reset() {
	o.index = 0
}

// Next returns the interpolated sample at the current index, then advances
func (o *Oscillator) Next() float32 {
	if o.table == nil {
		return 0
	}

	i0 := int(o.index)
	frac := float32(o.index - float64(i0))
	sample := interpolation.Linear(o.table.samples[i0], o.table.samples[i0+1], frac)

	size := float64(o.table.Size())
	o.index += o.delta
	if o.index >= size {
		o.index = math.Mod(o.index, size)
	}
	return sample
}

// Process fills buffer with level-scaled samples - no allocations
func (o *Oscillator) Process(buffer []float32, level float32) {
	for i := range buffer {
		buffer[i] = o.Next() * level
	}
}
