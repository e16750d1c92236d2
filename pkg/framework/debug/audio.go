package debug

import "math"

// AudioAnalyzer provides utilities for analyzing audio buffers.
type AudioAnalyzer struct {
	clippingThreshold float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates a new audio analyzer with default settings.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int     `json:"samples"`
	Peak           float32 `json:"peak"`
	RMS            float32 `json:"rms"`
	DC             float32 `json:"dc"`
	Clipping       bool    `json:"clipping"`
	ClippedSamples int     `json:"clippedSamples"`
	Silent         bool    `json:"silent"`
	NonFinite      int     `json:"nonFinite"`
	ZeroCrossings  int     `json:"zeroCrossings"`
}

// Analyze performs comprehensive analysis on an audio buffer.
// NaN and Inf samples are counted and otherwise skipped.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}

	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	var lastSample float32
	haveLast := false

	for _, sample := range buffer {
		f := float64(sample)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			result.NonFinite++
			continue
		}

		absSample := sample
		if absSample < 0 {
			absSample = -absSample
		}
		if absSample > result.Peak {
			result.Peak = absSample
		}
		if absSample >= a.clippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += f
		sumSquares += f * f

		if haveLast && crosses(lastSample, sample) {
			result.ZeroCrossings++
		}
		lastSample = sample
		haveLast = true
	}

	result.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	result.DC = float32(sum / float64(len(buffer)))
	result.Silent = result.RMS < a.silenceThreshold

	return result
}

func crosses(prev, cur float32) bool {
	return (prev < 0 && cur >= 0) || (prev >= 0 && cur < 0)
}

// ZeroCrossings returns the indices i where the sign changes between
// buffer[i-1] and buffer[i].
func ZeroCrossings(buffer []float32) []int {
	var idx []int
	for i := 1; i < len(buffer); i++ {
		if crosses(buffer[i-1], buffer[i]) {
			idx = append(idx, i)
		}
	}
	return idx
}
