// Package host drives a Source from an audio device or an offline renderer.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justyntemme/tonegen/pkg/framework/debug"
	"github.com/justyntemme/tonegen/pkg/framework/process"
	"github.com/justyntemme/tonegen/pkg/metrics"
)

// ErrAlreadyRunning is returned by Play while a source is attached
var ErrAlreadyRunning = errors.New("host: already playing")

// Source is anything that renders buffers on the audio thread
type Source interface {
	PrepareToPlay(expectedBufferSize int, sampleRate float64) error
	ReleaseResources()
	FillBuffer(ctx *process.Context)
}

// faultCounter is implemented by sources that count degraded callbacks
type faultCounter interface {
	Faults() uint64
}

type attachment struct {
	source Source
}

// Settings fixes the stream format for a Player's lifetime
type Settings struct {
	SampleRate float64
	BufferSize int
	Channels   int
}

// DeviceInfo describes an output-capable audio device
type DeviceInfo struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	HostAPI           string  `json:"hostApi"`
	MaxOutputChannels int     `json:"maxOutputChannels"`
	DefaultSampleRate float64 `json:"defaultSampleRate"`
	Default           bool    `json:"default"`
}

// Stats is a point-in-time view of the player for status reporting
type Stats struct {
	Playing    bool            `json:"playing"`
	StreamID   string          `json:"streamId,omitempty"`
	SampleRate float64         `json:"sampleRate"`
	BufferSize int             `json:"bufferSize"`
	Channels   int             `json:"channels"`
	Load       debug.LoadStats `json:"load"`
	Samples    uint64          `json:"samples"`
}

// Player attaches and detaches a Source from the device callback. While
// detached, Process writes silence and the source keeps its state.
type Player struct {
	logger   *zap.Logger
	settings Settings
	source   Source
	meter    *debug.LoadMeter

	mu       sync.Mutex // serializes Play and Stop
	active   atomic.Pointer[attachment]
	streamID atomic.Pointer[string]
	load     atomic.Pointer[debug.LoadStats]
	samples  atomic.Uint64

	// audio thread only
	ctx process.Context
}

// NewPlayer creates a stopped player for source
func NewPlayer(source Source, settings Settings, logger *zap.Logger) *Player {
	return &Player{
		logger:   debug.OrNop(logger),
		settings: settings,
		source:   source,
		meter:    debug.NewLoadMeter(),
	}
}

// Settings returns the stream format
func (p *Player) Settings() Settings {
	return p.settings
}

// Playing reports whether the source is attached
func (p *Player) Playing() bool {
	return p.active.Load() != nil
}

// Play prepares the source and attaches it to the callback
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active.Load() != nil {
		return ErrAlreadyRunning
	}
	if err := p.source.PrepareToPlay(p.settings.BufferSize, p.settings.SampleRate); err != nil {
		return fmt.Errorf("prepare source: %w", err)
	}

	id := uuid.New().String()
	p.streamID.Store(&id)
	p.active.Store(&attachment{source: p.source})
	metrics.Playing.Set(1)

	p.logger.Info("playback started",
		zap.String("streamId", id),
		zap.Float64("sampleRate", p.settings.SampleRate),
		zap.Int("bufferSize", p.settings.BufferSize),
		zap.Int("channels", p.settings.Channels))
	return nil
}

// Stop detaches the source and releases it. Stopping a stopped player is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active.Swap(nil) == nil {
		return
	}
	p.source.ReleaseResources()
	metrics.Playing.Set(0)

	id := ""
	if s := p.streamID.Swap(nil); s != nil {
		id = *s
	}
	p.logger.Info("playback stopped", zap.String("streamId", id))
}

// Toggle plays when stopped and stops when playing. It returns the new state.
func (p *Player) Toggle() (bool, error) {
	if p.Playing() {
		p.Stop()
		return false, nil
	}
	if err := p.Play(); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		return false, err
	}
	return true, nil
}

// Process is the device callback. out holds one non-interleaved buffer
// per channel.
func (p *Player) Process(out [][]float32) {
	start := time.Now()

	p.ctx.ResetFull(out)
	if a := p.active.Load(); a != nil {
		a.source.FillBuffer(&p.ctx)
	} else {
		p.ctx.ClearAll()
	}

	n := p.ctx.NumSamples()
	p.samples.Add(uint64(n))
	p.meter.Record(time.Since(start), n, p.settings.SampleRate)
}

// Stats reports the current state and the last closed load window
func (p *Player) Stats() Stats {
	s := Stats{
		Playing:    p.Playing(),
		SampleRate: p.settings.SampleRate,
		BufferSize: p.settings.BufferSize,
		Channels:   p.settings.Channels,
		Samples:    p.samples.Load(),
	}
	if id := p.streamID.Load(); id != nil {
		s.StreamID = *id
	}
	if l := p.load.Load(); l != nil {
		s.Load = *l
	}
	return s
}

// Watch closes a load window every interval, publishes it to the metrics
// and logs faults the audio thread counted. It returns when ctx is done.
func (p *Player) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastCallbacks, lastSamples, lastFaults uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		stats := p.meter.Update()
		p.load.Store(&stats)
		metrics.CPULoad.Set(stats.Average)
		metrics.CPULoadPeak.Set(stats.Peak)

		metrics.CallbacksTotal.Add(float64(stats.Callbacks - lastCallbacks))
		lastCallbacks = stats.Callbacks

		samples := p.samples.Load()
		metrics.SamplesTotal.Add(float64(samples - lastSamples))
		lastSamples = samples

		if fc, ok := p.source.(faultCounter); ok {
			faults := fc.Faults()
			if faults > lastFaults {
				metrics.FaultsTotal.Add(float64(faults - lastFaults))
				p.logger.Warn("audio callbacks degraded to silence",
					zap.Uint64("faults", faults-lastFaults),
					zap.Uint64("total", faults))
			}
			lastFaults = faults
		}
	}
}
