// Package noise provides the stochastic generators used by the tone engine.
package noise

import (
	"math/rand"

	"github.com/justyntemme/tonegen/pkg/dsp"
)

const (
	// BrownAlpha is the smoothing factor of the brown noise low-pass
	BrownAlpha = 0.025

	// BrownGain restores the level lost to low-pass filtering
	BrownGain = 3.0
)

// Generator produces white, dust and brown noise from a single random
// source. Brown noise keeps one integrator per channel so channels stay
// statistically independent, and the integrators persist across calls.
type Generator struct {
	rand  *rand.Rand
	brown [dsp.MaxChannels]float64
}

// New creates a noise generator. A zero seed draws one from the global source.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Generator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// SetSeed sets the random seed for reproducible noise.
func (g *Generator) SetSeed(seed int64) {
	g.rand = rand.New(rand.NewSource(seed))
}

// Uniform returns a sample uniformly distributed in [-1, 1).
func (g *Generator) Uniform() float64 {
	return g.rand.Float64()*2.0 - 1.0
}

// White fills buffer with uniform noise scaled by level.
func (g *Generator) White(buffer []float32, level float64) {
	for i := range buffer {
		buffer[i] = float32(g.Uniform() * level)
	}
}

// Dust writes a single random sample at the start of buffer and leaves
// the rest untouched, so its density follows the callback rate.
func (g *Generator) Dust(buffer []float32, level float64) {
	if len(buffer) == 0 {
		return
	}
	buffer[0] = float32(g.Uniform() * level)
}

// Brown fills buffer with low-passed white noise for one channel.
// Channels beyond dsp.MaxChannels have no integrator and are left alone.
func (g *Generator) Brown(channel int, buffer []float32, level float64) {
	if channel < 0 || channel >= len(g.brown) {
		return
	}
	state := g.brown[channel]
	gain := BrownGain * level
	for i := range buffer {
		state = LowPass(g.Uniform(), state, BrownAlpha)
		buffer[i] = float32(state * gain)
	}
	g.brown[channel] = state
}

// LowPass is a one-pole smoother: y = (x - y) * alpha + y.
func LowPass(value, previous, alpha float64) float64 {
	return (value-previous)*alpha + previous
}
