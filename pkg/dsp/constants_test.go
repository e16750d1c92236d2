package dsp

import (
	"math"
	"testing"
)

func TestConstants(t *testing.T) {
	// Test that min/max values make sense
	tests := []struct {
		name string
		min  float64
		max  float64
	}{
		{"Level", MinLevel, MaxLevel},
		{"Frequency", MinToneFrequency, MaxToneFrequency},
		{"Skew", MinToneFrequency, SkewMidFrequency},
		{"Buffer", MinBufferSize, MaxBufferSize},
		{"Channels", Mono, MaxChannels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.min >= tt.max {
				t.Errorf("%s: min (%f) >= max (%f)", tt.name, tt.min, tt.max)
			}
		})
	}
}

func TestMathConstants(t *testing.T) {
	if math.Abs(Pi-math.Pi) > 1e-10 {
		t.Errorf("Pi constant incorrect: %f vs %f", Pi, math.Pi)
	}

	if math.Abs(TwoPi-2*math.Pi) > 1e-10 {
		t.Errorf("TwoPi constant incorrect: %f vs %f", TwoPi, 2*math.Pi)
	}

	if math.Abs(HalfPi-math.Pi/2) > 1e-10 {
		t.Errorf("HalfPi constant incorrect: %f vs %f", HalfPi, math.Pi/2)
	}
}

func TestNyquist(t *testing.T) {
	if got := Nyquist(SampleRate44k1); got != 22050 {
		t.Errorf("Nyquist(44100) = %f, want 22050", got)
	}
}

func TestBufferHelpers(t *testing.T) {
	buf := []float32{0.5, -1, 0.25, 0}

	if got := Peak(buf); got != 1 {
		t.Errorf("Peak = %f, want 1", got)
	}

	if got := Energy(buf); math.Abs(got-1.3125) > 1e-9 {
		t.Errorf("Energy = %f, want 1.3125", got)
	}

	if got := RMS(buf); math.Abs(float64(got)-math.Sqrt(1.3125/4)) > 1e-6 {
		t.Errorf("RMS = %f", got)
	}

	if RMS(nil) != 0 {
		t.Error("RMS of empty buffer should be 0")
	}

	dst := []float32{1, 2, 3, 4}
	Clear(dst)
	for i, v := range dst {
		if v != 0 {
			t.Errorf("Clear left %f at %d", v, i)
		}
	}

	if !Finite(buf) {
		t.Error("finite buffer reported as non-finite")
	}
	if Finite([]float32{0, float32(math.NaN())}) {
		t.Error("NaN not detected")
	}
	if Finite([]float32{float32(math.Inf(1))}) {
		t.Error("Inf not detected")
	}
}
