package debug

import (
	"math"
	"sync/atomic"
	"time"
)

// LoadStats summarizes callback load over one measurement window, in percent
// of the real time the produced audio covers.
type LoadStats struct {
	Average   float64 `json:"average"`
	Peak      float64 `json:"peak"`
	Callbacks uint64  `json:"callbacks"`
}

// LoadMeter measures how much of each buffer period the audio callback
// consumes. Record runs on the audio thread and never blocks; Update runs
// on a reporting goroutine and closes the current window.
type LoadMeter struct {
	busy      atomic.Int64 // ns inside callbacks this window
	audio     atomic.Int64 // ns of audio produced this window
	peak      atomic.Uint64
	callbacks atomic.Uint64

	average atomic.Uint64
	last    atomic.Uint64
}

// NewLoadMeter creates an empty meter
func NewLoadMeter() *LoadMeter {
	return &LoadMeter{}
}

// Record accounts one callback that took elapsed to produce samples frames
func (m *LoadMeter) Record(elapsed time.Duration, samples int, sampleRate float64) {
	m.callbacks.Add(1)
	if samples <= 0 || sampleRate <= 0 {
		return
	}

	period := float64(samples) / sampleRate * float64(time.Second)
	m.busy.Add(int64(elapsed))
	m.audio.Add(int64(period))

	load := float64(elapsed) / period * 100
	for {
		old := m.peak.Load()
		if load <= math.Float64frombits(old) {
			break
		}
		if m.peak.CompareAndSwap(old, math.Float64bits(load)) {
			break
		}
	}
}

// Update closes the window and returns its statistics. A window without
// audio keeps the previous average.
func (m *LoadMeter) Update() LoadStats {
	busy := m.busy.Swap(0)
	audio := m.audio.Swap(0)
	peak := math.Float64frombits(m.peak.Swap(0))

	if audio > 0 {
		m.average.Store(math.Float64bits(float64(busy) / float64(audio) * 100))
	}

	stats := LoadStats{
		Average:   math.Float64frombits(m.average.Load()),
		Peak:      peak,
		Callbacks: m.callbacks.Load(),
	}
	m.last.Store(math.Float64bits(peak))
	return stats
}

// Load returns the average load of the last closed window
func (m *LoadMeter) Load() float64 {
	return math.Float64frombits(m.average.Load())
}

// LastPeak returns the peak callback load of the last closed window
func (m *LoadMeter) LastPeak() float64 {
	return math.Float64frombits(m.last.Load())
}

// Callbacks returns the total number of recorded callbacks
func (m *LoadMeter) Callbacks() uint64 {
	return m.callbacks.Load()
}
