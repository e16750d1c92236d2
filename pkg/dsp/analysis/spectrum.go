package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// WindowFunc selects the analysis window
type WindowFunc int

const (
	RectangularWindow WindowFunc = iota
	HannWindow
	HammingWindow
	BlackmanWindow
)

// String returns the window name
func (w WindowFunc) String() string {
	switch w {
	case HannWindow:
		return "hann"
	case HammingWindow:
		return "hamming"
	case BlackmanWindow:
		return "blackman"
	default:
		return "rectangular"
	}
}

// ParseWindow accepts a window name as returned by String. An empty name
// selects Hann.
func ParseWindow(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return HannWindow, nil
	case "hamming":
		return HammingWindow, nil
	case "blackman":
		return BlackmanWindow, nil
	case "rectangular", "rect", "none":
		return RectangularWindow, nil
	}
	return HannWindow, fmt.Errorf("unknown window %q", name)
}

func (w WindowFunc) coefficients(n int) []float64 {
	switch w {
	case HannWindow:
		return window.Hann(n)
	case HammingWindow:
		return window.Hamming(n)
	case BlackmanWindow:
		return window.Blackman(n)
	default:
		return window.Rectangular(n)
	}
}

// minMagnitude is the floor used when converting to decibels
const minMagnitude = 1e-10

// Spectrum is a single-sided amplitude spectrum. A full-scale sine centred
// on a bin reads as its amplitude.
type Spectrum struct {
	SampleRate float64   `json:"sampleRate"`
	Size       int       `json:"size"`
	Magnitude  []float64 `json:"magnitude"`
}

// Analyze windows samples and returns their amplitude spectrum.
// The input is not modified.
func Analyze(samples []float64, sampleRate float64, w WindowFunc) Spectrum {
	n := len(samples)
	spec := Spectrum{SampleRate: sampleRate, Size: n}
	if n == 0 {
		return spec
	}

	coeffs := w.coefficients(n)
	x := make([]float64, n)
	gain := 0.0
	for i, c := range coeffs {
		x[i] = samples[i] * c
		gain += c
	}
	if gain == 0 {
		gain = 1
	}

	bins := fft.FFTReal(x)
	spec.Magnitude = make([]float64, n/2+1)
	for k := range spec.Magnitude {
		scale := 2.0
		if k == 0 || (n%2 == 0 && k == n/2) {
			scale = 1.0
		}
		spec.Magnitude[k] = cmplx.Abs(bins[k]) * scale / gain
	}
	return spec
}

// FrequencyForBin returns the centre frequency of bin
func (s Spectrum) FrequencyForBin(bin int) float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(bin) * s.SampleRate / float64(s.Size)
}

// BinForFrequency returns the bin nearest to freq
func (s Spectrum) BinForFrequency(freq float64) int {
	if s.SampleRate == 0 {
		return 0
	}
	bin := int(math.Round(freq * float64(s.Size) / s.SampleRate))
	if bin < 0 {
		return 0
	}
	if bin >= len(s.Magnitude) {
		return len(s.Magnitude) - 1
	}
	return bin
}

// Peak returns the frequency and magnitude of the strongest non-DC bin
func (s Spectrum) Peak() (float64, float64) {
	peakBin := 0
	peakMag := 0.0
	for k := 1; k < len(s.Magnitude); k++ {
		if s.Magnitude[k] > peakMag {
			peakMag = s.Magnitude[k]
			peakBin = k
		}
	}
	return s.FrequencyForBin(peakBin), peakMag
}

// BandEnergy sums squared magnitudes between minFreq and maxFreq inclusive
func (s Spectrum) BandEnergy(minFreq, maxFreq float64) float64 {
	if len(s.Magnitude) == 0 {
		return 0
	}
	energy := 0.0
	for k := s.BinForFrequency(minFreq); k <= s.BinForFrequency(maxFreq); k++ {
		energy += s.Magnitude[k] * s.Magnitude[k]
	}
	return energy
}

// DB returns the spectrum in decibels relative to full scale
func (s Spectrum) DB() []float64 {
	db := make([]float64, len(s.Magnitude))
	for k, m := range s.Magnitude {
		db[k] = ToDB(m)
	}
	return db
}

// ToDB converts a linear magnitude to decibels
func ToDB(magnitude float64) float64 {
	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return 20 * math.Log10(magnitude)
}
