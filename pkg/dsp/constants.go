// Package dsp provides digital signal processing utilities and algorithms.
package dsp

// Common audio constants used throughout the DSP packages and the engine.
const (
	// Tone parameter ranges
	MinLevel         = 0.0
	MaxLevel         = 1.0
	MinToneFrequency = 0.01   // Lowest frequency fed to harmonic-count math
	MaxToneFrequency = 5000.0 // Upper end of the frequency control
	SkewMidFrequency = 500.0  // Frequency shown at the middle of the control

	// Channel counts
	Mono   = 1
	Stereo = 2

	// MaxChannels bounds the per-channel state the engine pre-allocates.
	MaxChannels = 32

	// Common sample rates
	SampleRate22k05 = 22050.0
	SampleRate32k   = 32000.0
	SampleRate44k1  = 44100.0
	SampleRate48k   = 48000.0
	SampleRate88k2  = 88200.0
	SampleRate96k   = 96000.0
	SampleRate192k  = 192000.0

	// Buffer sizes
	MinBufferSize     = 32
	DefaultBufferSize = 512
	MaxBufferSize     = 8192

	// Wavetable sizes
	MinTableSize     = 16
	DefaultTableSize = 4096

	// MaxHarmonics caps additive synthesis so sub-audio fundamentals
	// cannot blow the real-time budget.
	MaxHarmonics = 4096

	// Phase constants
	TwoPi  = 6.283185307179586
	Pi     = 3.141592653589793
	HalfPi = 1.5707963267948966

	// Small values for comparisons
	Epsilon = 1e-6
)

// Nyquist returns half the sample rate.
func Nyquist(sampleRate float64) float64 {
	return sampleRate / 2
}
