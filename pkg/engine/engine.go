// Package engine implements the tone generator: a set of waveform
// generators selected at run time and rendered one buffer at a time from
// a real-time audio callback.
package engine

import (
	"fmt"
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/justyntemme/tonegen/pkg/dsp"
	"github.com/justyntemme/tonegen/pkg/dsp/noise"
	"github.com/justyntemme/tonegen/pkg/dsp/oscillator"
	"github.com/justyntemme/tonegen/pkg/dsp/wavetable"
	"github.com/justyntemme/tonegen/pkg/framework/debug"
	"github.com/justyntemme/tonegen/pkg/framework/param"
)

// Parameter IDs
const (
	ParamWaveform uint32 = iota
	ParamFrequency
	ParamLevel
)

// Defaults applied at construction
const (
	DefaultFrequency = 440.0
	DefaultLevel     = 0.5
)

// Sink receives a read-only view of every filled region. It is called on
// the audio thread and must neither block nor retain the slices.
type Sink interface {
	PushBuffer(channels [][]float32)
}

// Params is the control state read by the audio thread once per callback
type Params struct {
	Waveform  Waveform `json:"waveform"`
	Frequency float64  `json:"frequency"`
	Level     float64  `json:"level"`
}

// Config configures a new Engine
type Config struct {
	// TableSize is the wavetable length; 0 selects dsp.DefaultTableSize
	TableSize int

	// Seed seeds the noise source; 0 draws a random seed
	Seed int64

	Sink   Sink
	Logger *zap.Logger
}

type streamConfig struct {
	sampleRate float64
	bufferSize int
	generation uint64
}

// Engine renders the selected waveform into caller-owned buffers.
//
// Setters run on control goroutines and publish an immutable Params
// snapshot with an atomic pointer swap. FillBuffer runs on the audio
// thread, loads the snapshot once, and owns all generator state, so it
// never locks or allocates.
type Engine struct {
	logger   *zap.Logger
	registry *param.Registry
	bank     *wavetable.Bank
	sink     Sink

	params     atomic.Pointer[Params]
	stream     atomic.Pointer[streamConfig]
	generation atomic.Uint64
	faults     atomic.Uint64
	callbacks  atomic.Uint64

	// audio thread state
	appliedGeneration uint64
	sampleRate        float64
	tunedFrequency    float64
	tunedRate         float64
	phasor            oscillator.Phasor
	additive          oscillator.Additive
	voices            [wavetable.NumShapes]wavetable.Oscillator
	noise             *noise.Generator
}

// New builds the wavetables and returns an engine playing Empty
func New(cfg Config) (*Engine, error) {
	size := cfg.TableSize
	if size == 0 {
		size = dsp.DefaultTableSize
	}

	bank, err := wavetable.NewBank(size)
	if err != nil {
		return nil, fmt.Errorf("build wavetables: %w", err)
	}

	e := &Engine{
		logger: debug.OrNop(cfg.Logger),
		bank:   bank,
		sink:   cfg.Sink,
		noise:  noise.New(cfg.Seed),
	}
	for shape := wavetable.Shape(0); shape < wavetable.NumShapes; shape++ {
		e.voices[shape] = wavetable.NewOscillator(bank.Table(shape))
	}

	if e.registry, err = newRegistry(); err != nil {
		return nil, err
	}
	e.params.Store(&Params{
		Waveform:  Empty,
		Frequency: DefaultFrequency,
		Level:     DefaultLevel,
	})

	e.logger.Debug("engine created", zap.Int("tableSize", size))
	return e, nil
}

func newRegistry() (*param.Registry, error) {
	options := make([]param.ChoiceOption, 0, numWaveforms)
	for _, w := range Waveforms() {
		options = append(options, param.ChoiceOption{Value: float64(w), Name: w.String()})
	}

	r := param.NewRegistry()
	err := r.Add(
		param.Choice(ParamWaveform, "Waveform", options).ShortName("waveform").Build(),
		param.FrequencyParameter(ParamFrequency, "Frequency", 0, dsp.MaxToneFrequency, dsp.SkewMidFrequency, DefaultFrequency).
			ShortName("frequency").Build(),
		param.LevelParameter(ParamLevel, "Level", DefaultLevel).ShortName("level").Build(),
	)
	if err != nil {
		return nil, fmt.Errorf("register parameters: %w", err)
	}
	return r, nil
}

// Parameters returns the registry describing the engine's controls
func (e *Engine) Parameters() *param.Registry {
	return e.registry
}

// Bank returns the shared wavetables
func (e *Engine) Bank() *wavetable.Bank {
	return e.bank
}

// PrepareToPlay is called before streaming starts. Phase and tuning are
// reset on the audio thread at the start of the next callback. Brown noise
// integrators are left alone; they only start from zero at construction.
func (e *Engine) PrepareToPlay(expectedBufferSize int, sampleRate float64) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if expectedBufferSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBufferSize, expectedBufferSize)
	}

	e.stream.Store(&streamConfig{
		sampleRate: sampleRate,
		bufferSize: expectedBufferSize,
		generation: e.generation.Add(1),
	})

	e.logger.Info("prepare to play",
		zap.Float64("sampleRate", sampleRate),
		zap.Int("bufferSize", expectedBufferSize))
	return nil
}

// ReleaseResources marks the stream stopped. Generator state is kept; the
// engine renders silence until prepared again.
func (e *Engine) ReleaseResources() {
	e.stream.Store(nil)
	e.logger.Info("resources released")
}

// Prepared reports whether PrepareToPlay has been called since the last release
func (e *Engine) Prepared() bool {
	return e.stream.Load() != nil
}

// SampleRate returns the prepared sample rate, or 0 when not prepared
func (e *Engine) SampleRate() float64 {
	if st := e.stream.Load(); st != nil {
		return st.sampleRate
	}
	return 0
}

// BufferSize returns the prepared buffer size, or 0 when not prepared
func (e *Engine) BufferSize() int {
	if st := e.stream.Load(); st != nil {
		return st.bufferSize
	}
	return 0
}

// Params returns the current control state
func (e *Engine) Params() Params {
	return *e.params.Load()
}

// Playable reports whether a waveform other than Empty is selected
func (e *Engine) Playable() bool {
	return e.params.Load().Waveform != Empty
}

// Faults returns how many callbacks degraded to silence
func (e *Engine) Faults() uint64 {
	return e.faults.Load()
}

// Callbacks returns how many times FillBuffer has run
func (e *Engine) Callbacks() uint64 {
	return e.callbacks.Load()
}

func (e *Engine) update(fn func(p *Params)) {
	for {
		old := e.params.Load()
		next := *old
		fn(&next)
		if e.params.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetLevel sets the output amplitude in [0, 1]
func (e *Engine) SetLevel(level float64) error {
	if !(level >= dsp.MinLevel && level <= dsp.MaxLevel) {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, level)
	}
	e.update(func(p *Params) { p.Level = level })
	e.registry.Get(ParamLevel).SetPlainValue(level)
	e.logger.Debug("level changed", zap.Float64("level", level))
	return nil
}

// SetFrequency sets the fundamental in [0, 5000] Hz. It takes effect at
// the next callback boundary without rewinding any phase.
func (e *Engine) SetFrequency(hz float64) error {
	if !(hz >= 0 && hz <= dsp.MaxToneFrequency) {
		return fmt.Errorf("%w: %v", ErrInvalidFrequency, hz)
	}
	e.update(func(p *Params) { p.Frequency = hz })
	e.registry.Get(ParamFrequency).SetPlainValue(hz)
	e.logger.Debug("frequency changed", zap.Float64("frequency", hz))
	return nil
}

// SetWaveform selects the active generator
func (e *Engine) SetWaveform(w Waveform) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownWaveform, int32(w))
	}
	e.update(func(p *Params) { p.Waveform = w })
	e.registry.Get(ParamWaveform).SetPlainValue(float64(w))
	e.logger.Debug("waveform changed", zap.Stringer("waveform", w))
	return nil
}

// SetParameter parses text with the named parameter's parser and applies it.
// The waveform accepts anything ParseWaveform does.
func (e *Engine) SetParameter(name, text string) error {
	p := e.registry.Lookup(name)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}

	if p.ID == ParamWaveform {
		w, err := ParseWaveform(text)
		if err != nil {
			return err
		}
		return e.SetWaveform(w)
	}

	plain, err := p.ParsePlain(text)
	if err != nil {
		return fmt.Errorf("parse %s: %w", p.ShortName, err)
	}
	switch p.ID {
	case ParamFrequency:
		return e.SetFrequency(plain)
	case ParamLevel:
		return e.SetLevel(plain)
	}
	return fmt.Errorf("%w: %q is read-only", ErrUnknownParameter, name)
}
