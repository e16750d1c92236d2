package oscillator

import (
	"math"

	"github.com/justyntemme/tonegen/pkg/dsp"
)

// Additive generates band-limited waveforms by summing sine partials
// below Nyquist, recomputing the partials for every output sample.
type Additive struct {
	sampleRate   float64
	frequency    float64
	numHarmonics float64
	nyquist      float64
}

// NewAdditive creates an additive generator for sampleRate and frequency
func NewAdditive(frequency, sampleRate float64) *Additive {
	a := &Additive{}
	a.Configure(frequency, sampleRate)
	return a
}

// Configure recomputes the harmonic budget. Frequencies below
// dsp.MinToneFrequency produce no harmonics at all.
func (a *Additive) Configure(frequency, sampleRate float64) {
	a.sampleRate = sampleRate
	a.frequency = frequency
	a.nyquist = dsp.Nyquist(sampleRate)
	a.numHarmonics = NumHarmonics(frequency, sampleRate)
}

// NumHarmonics returns sampleRate/2/frequency, the exclusive upper bound
// on harmonic index. The result is not rounded.
func NumHarmonics(frequency, sampleRate float64) float64 {
	if sampleRate <= 0 || !(frequency >= dsp.MinToneFrequency) {
		return 0
	}
	n := sampleRate / 2 / frequency
	if n > dsp.MaxHarmonics {
		n = dsp.MaxHarmonics
	}
	return n
}

// Harmonics returns the current harmonic bound
func (a *Additive) Harmonics() float64 {
	return a.numHarmonics
}

// Frequency returns the configured fundamental
func (a *Additive) Frequency() float64 {
	return a.frequency
}

// below reports whether partial h at phase passes the Nyquist guard.
// The guard compares angular phase against Nyquist in Hz, so it only
// trips for very low fundamentals. Output depends on that behaviour.
func (a *Additive) below(phase float64, h int) bool {
	return phase*dsp.TwoPi*float64(h) < a.nyquist
}

// ImpulseSample sums equal-weight partials normalized by the harmonic count
func (a *Additive) ImpulseSample(phase, level float64) float64 {
	if a.numHarmonics == 0 {
		return 0
	}
	weight := level / a.numHarmonics
	sum := 0.0
	for h := 1; float64(h) < a.numHarmonics; h++ {
		if a.below(phase, h) {
			sum += math.Sin(phase*dsp.TwoPi*float64(h)) * weight
		}
	}
	return sum
}

// SquareSample sums odd partials weighted 1/h
func (a *Additive) SquareSample(phase, level float64) float64 {
	sum := 0.0
	for h := 1; float64(h) < a.numHarmonics; h += 2 {
		sum += math.Sin(phase*dsp.TwoPi*float64(h)) * level / float64(h)
	}
	return sum
}

// SawSample sums every partial weighted 1/h
func (a *Additive) SawSample(phase, level float64) float64 {
	sum := 0.0
	for h := 1; float64(h) < a.numHarmonics; h++ {
		if a.below(phase, h) {
			sum += math.Sin(phase*dsp.TwoPi*float64(h)) * level / float64(h)
		}
	}
	return sum
}

// TriangleSample sums odd partials weighted 1/h²
func (a *Additive) TriangleSample(phase, level float64) float64 {
	sum := 0.0
	for h := 1; float64(h) < a.numHarmonics; h += 2 {
		if a.below(phase, h) {
			sum += math.Sin(phase*dsp.TwoPi*float64(h)) * level / float64(h*h)
		}
	}
	return sum
}

// ProcessImpulse fills buffer with a band-limited impulse train - no allocations
func (a *Additive) ProcessImpulse(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(a.ImpulseSample(p.Advance(), level))
	}
}

// ProcessSquare fills buffer with a band-limited square - no allocations
func (a *Additive) ProcessSquare(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(a.SquareSample(p.Advance(), level))
	}
}

// ProcessSaw fills buffer with a band-limited sawtooth - no allocations
func (a *Additive) ProcessSaw(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(a.SawSample(p.Advance(), level))
	}
}

// ProcessTriangle fills buffer with a band-limited triangle - no allocations
func (a *Additive) ProcessTriangle(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(a.TriangleSample(p.Advance(), level))
	}
}
