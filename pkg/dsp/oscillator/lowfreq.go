package oscillator

import "math"

// The generators in this file compute waveforms directly from the phasor.
// They alias badly at audio rates and are meant for sub-audio use.
// Each writes one channel; callers duplicate the result across channels.

// wrapThreshold is the drop between consecutive phasor values that marks a wrap.
const wrapThreshold = 0.9

// SquareSample returns level or -level depending on the half of the cycle
func SquareSample(phase, level float64) float64 {
	if level*(phase*2-1) > 0 {
		return level
	}
	return -level
}

// SawSample ramps from -level to +level across one cycle
func SawSample(phase, level float64) float64 {
	return level * (phase*2 - 1)
}

// TriangleSample ramps up over the first half of the cycle and down over the second
func TriangleSample(phase, level float64) float64 {
	if phase <= 0.5 {
		return level * (phase*4 - 1)
	}
	return level * (phase*4 - 3) * -1
}

// ProcessSine fills buffer with a sine at level - no allocations
func ProcessSine(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(level * math.Sin(p.Advance()*2*math.Pi))
	}
}

// ProcessImpulse writes a single sample at every phase wrap and leaves the
// rest of the buffer untouched. Wrap detection restarts with every call.
func ProcessImpulse(p *Phasor, buffer []float32, level float64) {
	last := 0.0
	for i := range buffer {
		phase := p.Advance()
		if last-phase > wrapThreshold {
			buffer[i] = float32(level * (phase*-2 + 1))
		}
		last = phase
	}
}

// ProcessSquare fills buffer with a 50% duty square wave - no allocations
func ProcessSquare(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(SquareSample(p.Advance(), level))
	}
}

// ProcessSaw fills buffer with a sawtooth wave - no allocations
func ProcessSaw(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(SawSample(p.Advance(), level))
	}
}

// ProcessTriangle fills buffer with a triangle wave - no allocations
func ProcessTriangle(p *Phasor, buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(TriangleSample(p.Advance(), level))
	}
}
