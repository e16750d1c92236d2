// Package oscillator provides audio oscillators for tone generation
package oscillator

import "math"

// Phasor is a phase accumulator producing a normalized phase in [0,1).
// It is the timing primitive shared by every periodic generator that
// does not read a wavetable.
type Phasor struct {
	phase float64
	delta float64
}

// NewPhasor creates a phasor tuned to frequency at sampleRate
func NewPhasor(frequency, sampleRate float64) Phasor {
	var p Phasor
	p.SetFrequency(frequency, sampleRate)
	return p
}

// SetFrequency recomputes the per-sample increment. A non-positive
// sample rate leaves the phasor stopped instead of producing Inf.
func (p *Phasor) SetFrequency(frequency, sampleRate float64) {
	if sampleRate <= 0 || frequency < 0 || math.IsNaN(frequency) {
		p.delta = 0
		return
	}
	p.delta = frequency / sampleRate
}

// Delta returns the per-sample phase increment
func (p *Phasor) Delta() float64 {
	return p.delta
}

// Phase returns the current phase without advancing
func (p *Phasor) Phase() float64 {
	return p.phase
}

// SetPhase sets the phase, wrapping it into [0,1)
func (p *Phasor) SetPhase(phase float64) {
	p.phase = phase - math.Floor(phase)
}

// Reset resets the phase to 0
func (p *Phasor) Reset() {
	p.phase = 0
}

// Advance returns the phase before advancing, then moves it forward by
// one sample using a floating-point modulo.
func (p *Phasor) Advance() float64 {
	current := p.phase
	p.phase = math.Mod(p.phase+p.delta, 1.0)
	return current
}
