// Package dsp provides digital signal processing utilities for audio
package dsp

import "math"

// Buffer utilities for common audio operations

// Clear zeroes a buffer - no allocations
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Peak finds the maximum absolute value in a buffer
func Peak(buffer []float32) float32 {
	peak := float32(0)
	for _, sample := range buffer {
		abs := float32(math.Abs(float64(sample)))
		if abs > peak {
			peak = abs
		}
	}
	return peak
}

// Energy returns the sum of squared samples
func Energy(buffer []float32) float64 {
	sum := 0.0
	for _, sample := range buffer {
		sum += float64(sample) * float64(sample)
	}
	return sum
}

// RMS calculates the root mean square of a buffer
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	return float32(math.Sqrt(Energy(buffer) / float64(len(buffer))))
}

// Finite reports whether every sample is a finite number
func Finite(buffer []float32) bool {
	for _, sample := range buffer {
		f := float64(sample)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
