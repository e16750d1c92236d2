package engine

import (
	"github.com/justyntemme/tonegen/pkg/dsp"
	"github.com/justyntemme/tonegen/pkg/dsp/debug"
	"github.com/justyntemme/tonegen/pkg/dsp/oscillator"
	"github.com/justyntemme/tonegen/pkg/dsp/wavetable"
	"github.com/justyntemme/tonegen/pkg/framework/process"
)

type generator func(e *Engine, ctx *process.Context, level float64)

// dispatch maps every selector to its generator. The array is sized by
// numWaveforms, so a new waveform without an entry leaves a nil slot that
// TestDispatchIsExhaustive reports.
var dispatch = [numWaveforms]generator{
	Empty:      silence,
	WhiteNoise: whiteNoise,
	BrownNoise: brownNoise,
	DustNoise:  dustNoise,
	SineWave:   mono(oscillator.ProcessSine),
	LFImpulse:  mono(oscillator.ProcessImpulse),
	LFSquare:   mono(oscillator.ProcessSquare),
	LFSawtooth: mono(oscillator.ProcessSaw),
	LFTriangle: mono(oscillator.ProcessTriangle),
	BLImpulse:  additive((*oscillator.Additive).ProcessImpulse),
	BLSquare:   additive((*oscillator.Additive).ProcessSquare),
	BLSawtooth: additive((*oscillator.Additive).ProcessSaw),
	BLTriangle: additive((*oscillator.Additive).ProcessTriangle),
	WTSine:     table(wavetable.ShapeSine),
	WTImpulse:  table(wavetable.ShapeImpulse),
	WTSquare:   table(wavetable.ShapeSquare),
	WTSawtooth: table(wavetable.ShapeSawtooth),
	WTTriangle: table(wavetable.ShapeTriangle),
}

// FillBuffer clears the context's region, renders the selected waveform
// into it and forwards it to the sink. Inconsistent input or non-finite
// output degrades to silence and counts a fault; it never panics in
// release builds.
func (e *Engine) FillBuffer(ctx *process.Context) {
	e.callbacks.Add(1)

	if err := ctx.Validate(); err != nil {
		e.faults.Add(1)
		clearSafely(ctx)
		return
	}

	ctx.Clear()

	st := e.stream.Load()
	if st == nil {
		e.push(ctx)
		return
	}
	if st.generation != e.appliedGeneration {
		e.applyStream(st)
	}

	p := e.params.Load()
	e.tune(p.Frequency)

	if ctx.NumOutputChannels() > 0 && ctx.NumSamples() > 0 {
		if p.Waveform.Valid() && dispatch[p.Waveform] != nil {
			dispatch[p.Waveform](e, ctx, p.Level)
		} else {
			debug.Unreachable("no generator for waveform %d", p.Waveform)
			e.faults.Add(1)
		}

		for ch := range ctx.Output {
			if !dsp.Finite(ctx.Channel(ch)) {
				ctx.Clear()
				e.faults.Add(1)
				break
			}
		}
	}

	e.push(ctx)
}

func (e *Engine) push(ctx *process.Context) {
	if e.sink != nil && ctx.NumOutputChannels() > 0 {
		e.sink.PushBuffer(ctx.Region())
	}
}

// clearSafely zeros whatever part of the requested region lies inside
// each channel.
func clearSafely(ctx *process.Context) {
	start := ctx.StartOffset
	if start < 0 {
		start = 0
	}
	for _, ch := range ctx.Output {
		end := ctx.StartOffset + ctx.Samples
		if end > len(ch) {
			end = len(ch)
		}
		if start < end {
			dsp.Clear(ch[start:end])
		}
	}
}

func (e *Engine) applyStream(st *streamConfig) {
	e.appliedGeneration = st.generation
	e.sampleRate = st.sampleRate
	e.phasor.Reset()
	e.tunedRate = 0
}

// tune retunes every periodic generator, including all wavetable voices,
// when the frequency or sample rate moved.
func (e *Engine) tune(frequency float64) {
	if frequency == e.tunedFrequency && e.sampleRate == e.tunedRate {
		return
	}
	e.phasor.SetFrequency(frequency, e.sampleRate)
	e.additive.Configure(frequency, e.sampleRate)
	for i := range e.voices {
		e.voices[i].SetFrequency(frequency, e.sampleRate)
	}
	e.tunedFrequency = frequency
	e.tunedRate = e.sampleRate
}

func silence(*Engine, *process.Context, float64) {}

func whiteNoise(e *Engine, ctx *process.Context, level float64) {
	for ch := range ctx.Output {
		e.noise.White(ctx.Channel(ch), level)
	}
}

func dustNoise(e *Engine, ctx *process.Context, level float64) {
	for ch := range ctx.Output {
		e.noise.Dust(ctx.Channel(ch), level)
	}
}

func brownNoise(e *Engine, ctx *process.Context, level float64) {
	for ch := range ctx.Output {
		e.noise.Brown(ch, ctx.Channel(ch), level)
	}
}

// mono adapts a phasor-driven generator: it renders channel 0 and copies
// it to every other channel.
func mono(fn func(*oscillator.Phasor, []float32, float64)) generator {
	return func(e *Engine, ctx *process.Context, level float64) {
		fn(&e.phasor, ctx.Channel(0), level)
		ctx.Duplicate(0)
	}
}

func additive(fn func(*oscillator.Additive, *oscillator.Phasor, []float32, float64)) generator {
	return func(e *Engine, ctx *process.Context, level float64) {
		fn(&e.additive, &e.phasor, ctx.Channel(0), level)
		ctx.Duplicate(0)
	}
}

// table advances only the voice for shape; the other voices hold their index.
func table(shape wavetable.Shape) generator {
	return func(e *Engine, ctx *process.Context, level float64) {
		e.voices[shape].Process(ctx.Channel(0), float32(level))
		ctx.Duplicate(0)
	}
}
