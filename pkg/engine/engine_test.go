package engine

import (
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/tonegen/pkg/dsp"
	"github.com/justyntemme/tonegen/pkg/dsp/noise"
	"github.com/justyntemme/tonegen/pkg/framework/debug"
	"github.com/justyntemme/tonegen/pkg/framework/process"
)

type recordingSink struct {
	pushes   int
	channels int
	samples  int
}

func (s *recordingSink) PushBuffer(channels [][]float32) {
	s.pushes++
	s.channels = len(channels)
	if len(channels) > 0 {
		s.samples = len(channels[0])
	}
}

func newTestEngine(t testing.TB, sink Sink) *Engine {
	t.Helper()
	e, err := New(Config{TableSize: 1024, Seed: 42, Sink: sink})
	require.NoError(t, err)
	return e
}

func stereo(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func fill(buffers [][]float32, v float32) {
	for _, ch := range buffers {
		for i := range ch {
			ch[i] = v
		}
	}
}

func TestEmptyRendersSilence(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.PrepareToPlay(256, dsp.SampleRate48k))

	out := stereo(256)
	fill(out, 0.3)
	e.FillBuffer(process.NewContext(out))

	want := stereo(256)
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Empty output mismatch (-want +got):\n%s", diff)
	}
}

func TestUnpreparedRendersSilence(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.SetWaveform(WhiteNoise))

	out := stereo(64)
	fill(out, 1)
	e.FillBuffer(process.NewContext(out))

	assert.Zero(t, dsp.Peak(out[0]))
	assert.Zero(t, dsp.Peak(out[1]))
	assert.Zero(t, e.Faults())
}

func TestDustWritesFirstSampleOnly(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.PrepareToPlay(512, dsp.SampleRate44k1))
	require.NoError(t, e.SetWaveform(DustNoise))
	require.NoError(t, e.SetLevel(1))

	out := stereo(512)
	e.FillBuffer(process.NewContext(out))

	for ch, buf := range out {
		assert.NotZero(t, buf[0], "channel %d first sample", ch)
		assert.LessOrEqual(t, math.Abs(float64(buf[0])), 1.0)
		for i := 1; i < len(buf); i++ {
			if buf[i] != 0 {
				t.Fatalf("channel %d sample %d: got %f, want 0", ch, i, buf[i])
			}
		}
	}
}

func TestSineFrequencyAndLevel(t *testing.T) {
	const (
		sampleRate = 44100.0
		frequency  = 440.0
		level      = 0.5
	)
	e := newTestEngine(t, nil)
	require.NoError(t, e.PrepareToPlay(int(sampleRate), sampleRate))
	require.NoError(t, e.SetWaveform(SineWave))
	require.NoError(t, e.SetFrequency(frequency))
	require.NoError(t, e.SetLevel(level))

	out := stereo(int(sampleRate))
	e.FillBuffer(process.NewContext(out))

	assert.InDelta(t, level, dsp.Peak(out[0]), 1e-3)
	assert.Equal(t, out[0], out[1], "sine should be identical on every channel")

	halfPeriod := sampleRate / (2 * frequency)
	crossings := debug.ZeroCrossings(out[0])
	require.GreaterOrEqual(t, len(crossings), int(sampleRate/halfPeriod)-1)
	for k, idx := range crossings {
		want := float64(k+1) * halfPeriod
		if math.Abs(float64(idx)-want) > 1 {
			t.Fatalf("crossing %d at %d, want near %.2f", k, idx, want)
		}
	}
}

func TestEveryWaveformIsFiniteAndBounded(t *testing.T) {
	const level = 0.5
	for _, w := range Waveforms() {
		t.Run(w.String(), func(t *testing.T) {
			e := newTestEngine(t, nil)
			require.NoError(t, e.PrepareToPlay(dsp.DefaultBufferSize, dsp.SampleRate48k))
			require.NoError(t, e.SetWaveform(w))
			require.NoError(t, e.SetFrequency(220))
			require.NoError(t, e.SetLevel(level))

			out := stereo(dsp.DefaultBufferSize)
			ctx := process.NewContext(out)
			for i := 0; i < 8; i++ {
				e.FillBuffer(ctx)
				for ch := range out {
					require.True(t, dsp.Finite(out[ch]))
					// a Fourier sawtooth overshoots to roughly 1.85x its level
					require.LessOrEqual(t, float64(dsp.Peak(out[ch])), 2*level)
				}
			}
			assert.Zero(t, e.Faults())
		})
	}
}

func TestBandLimitedAtZeroFrequencyIsSilent(t *testing.T) {
	for _, w := range []Waveform{BLImpulse, BLSquare, BLSawtooth, BLTriangle} {
		e := newTestEngine(t, nil)
		require.NoError(t, e.PrepareToPlay(128, dsp.SampleRate44k1))
		require.NoError(t, e.SetWaveform(w))
		require.NoError(t, e.SetFrequency(0))

		out := stereo(128)
		e.FillBuffer(process.NewContext(out))
		assert.Zero(t, dsp.Peak(out[0]), w.String())
		assert.Zero(t, e.Faults(), w.String())
	}
}

func TestRegionIsRespected(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.PrepareToPlay(64, dsp.SampleRate48k))
	require.NoError(t, e.SetWaveform(WhiteNoise))
	require.NoError(t, e.SetLevel(0.25))

	out := stereo(64)
	fill(out, 7)
	ctx := &process.Context{}
	ctx.Reset(out, 16, 32)
	e.FillBuffer(ctx)

	for ch, buf := range out {
		for i, v := range buf {
			inside := i >= 16 && i < 48
			if inside && v == 7 {
				t.Fatalf("channel %d sample %d was not rendered", ch, i)
			}
			if !inside && v != 7 {
				t.Fatalf("channel %d sample %d outside the region was touched", ch, i)
			}
		}
	}
}

func TestInvalidRegionCountsFault(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.PrepareToPlay(64, dsp.SampleRate48k))
	require.NoError(t, e.SetWaveform(SineWave))

	out := stereo(32)
	fill(out, 1)
	ctx := &process.Context{}
	ctx.Reset(out, 16, 64)

	assert.NotPanics(t, func() { e.FillBuffer(ctx) })
	assert.Equal(t, uint64(1), e.Faults())
	assert.Equal(t, float32(1), out[0][15], "samples before the region must be kept")
	assert.Zero(t, dsp.Peak(out[0][16:]), "the reachable part of the region degrades to silence")
}

func TestSinkReceivesRegion(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(t, sink)
	require.NoError(t, e.PrepareToPlay(64, dsp.SampleRate48k))

	out := stereo(64)
	ctx := &process.Context{}
	ctx.Reset(out, 8, 40)
	e.FillBuffer(ctx)

	assert.Equal(t, recordingSink{pushes: 1, channels: 2, samples: 40}, *sink)
	assert.Equal(t, uint64(1), e.Callbacks())
}

func TestPrepareValidates(t *testing.T) {
	e := newTestEngine(t, nil)

	assert.ErrorIs(t, e.PrepareToPlay(512, 0), ErrInvalidSampleRate)
	assert.ErrorIs(t, e.PrepareToPlay(512, math.NaN()), ErrInvalidSampleRate)
	assert.ErrorIs(t, e.PrepareToPlay(512, math.Inf(1)), ErrInvalidSampleRate)
	assert.ErrorIs(t, e.PrepareToPlay(-1, 44100), ErrInvalidBufferSize)
	assert.False(t, e.Prepared())

	require.NoError(t, e.PrepareToPlay(512, 44100))
	assert.True(t, e.Prepared())
	assert.Equal(t, 44100.0, e.SampleRate())
	assert.Equal(t, 512, e.BufferSize())

	e.ReleaseResources()
	assert.False(t, e.Prepared())
	assert.Zero(t, e.SampleRate())
}

func TestPrepareRestartsPhase(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.SetWaveform(SineWave))
	require.NoError(t, e.SetLevel(1))

	first := stereo(100)
	require.NoError(t, e.PrepareToPlay(100, 44100))
	e.FillBuffer(process.NewContext(first))
	e.FillBuffer(process.NewContext(stereo(37)))

	second := stereo(100)
	require.NoError(t, e.PrepareToPlay(100, 44100))
	e.FillBuffer(process.NewContext(second))

	assert.Equal(t, first, second)
}

func TestBrownStateSurvivesPrepare(t *testing.T) {
	const level = 0.5
	e := newTestEngine(t, nil)
	require.NoError(t, e.SetWaveform(BrownNoise))
	require.NoError(t, e.SetLevel(level))

	require.NoError(t, e.PrepareToPlay(256, dsp.SampleRate48k))
	e.FillBuffer(process.NewContext([][]float32{make([]float32, 256)}))

	require.NoError(t, e.PrepareToPlay(256, dsp.SampleRate48k))
	next := [][]float32{make([]float32, 1)}
	e.FillBuffer(process.NewContext(next))

	// Same seed, one uninterrupted integrator.
	want := make([]float32, 257)
	noise.New(42).Brown(0, want, level)
	assert.Equal(t, want[256], next[0][0])
	assert.NotZero(t, next[0][0])
}

func TestFrequencyChangeKeepsPhase(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.PrepareToPlay(64, 1000))
	require.NoError(t, e.SetWaveform(LFSawtooth))
	require.NoError(t, e.SetFrequency(62.5))
	require.NoError(t, e.SetLevel(1))

	// 62.5 Hz at 1 kHz advances 1/16 of a cycle per sample
	out := stereo(4)
	e.FillBuffer(process.NewContext(out))
	require.NoError(t, e.SetFrequency(125))
	next := stereo(2)
	e.FillBuffer(process.NewContext(next))

	// the saw continues from phase 4/16 rather than restarting at -1
	assert.InDelta(t, 4.0/16*2-1, next[0][0], 1e-6)
	assert.InDelta(t, 6.0/16*2-1, next[0][1], 1e-6)
}

func TestSettersValidate(t *testing.T) {
	e := newTestEngine(t, nil)

	assert.ErrorIs(t, e.SetLevel(-0.1), ErrInvalidLevel)
	assert.ErrorIs(t, e.SetLevel(1.5), ErrInvalidLevel)
	assert.ErrorIs(t, e.SetLevel(math.NaN()), ErrInvalidLevel)
	assert.ErrorIs(t, e.SetFrequency(-1), ErrInvalidFrequency)
	assert.ErrorIs(t, e.SetFrequency(5000.5), ErrInvalidFrequency)
	assert.ErrorIs(t, e.SetFrequency(math.Inf(1)), ErrInvalidFrequency)
	assert.ErrorIs(t, e.SetWaveform(Waveform(99)), ErrUnknownWaveform)

	want := Params{Waveform: Empty, Frequency: DefaultFrequency, Level: DefaultLevel}
	if diff := cmp.Diff(want, e.Params()); diff != "" {
		t.Errorf("rejected values leaked into params (-want +got):\n%s", diff)
	}
}

func TestSetParameter(t *testing.T) {
	e := newTestEngine(t, nil)

	require.NoError(t, e.SetParameter("frequency", "1.5 kHz"))
	require.NoError(t, e.SetParameter("Level", "25%"))
	require.NoError(t, e.SetParameter("waveform", "bl_square"))

	want := Params{Waveform: BLSquare, Frequency: 1500, Level: 0.25}
	if diff := cmp.Diff(want, e.Params()); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "1.50 kHz", e.Parameters().Get(ParamFrequency).FormatPlain(e.Parameters().Get(ParamFrequency).GetPlainValue()))

	assert.ErrorIs(t, e.SetParameter("resonance", "1"), ErrUnknownParameter)
	assert.ErrorIs(t, e.SetParameter("level", "200%"), ErrInvalidLevel)
	assert.ErrorIs(t, e.SetParameter("waveform", "kazoo"), ErrUnknownWaveform)
	assert.Error(t, e.SetParameter("frequency", "loud"))
}

func TestConcurrentSettersDoNotLoseUpdates(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.PrepareToPlay(64, dsp.SampleRate48k))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = e.SetFrequency(float64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = e.SetLevel(float64(i) / 500)
		}
	}()
	go func() {
		defer wg.Done()
		out := stereo(64)
		ctx := process.NewContext(out)
		for i := 0; i < 500; i++ {
			_ = e.SetWaveform(Waveforms()[i%int(numWaveforms)])
			e.FillBuffer(ctx)
		}
	}()
	wg.Wait()

	p := e.Params()
	assert.Equal(t, 499.0, p.Frequency)
	assert.Equal(t, 499.0/500, p.Level)
	assert.Zero(t, e.Faults())
}

func TestDispatchIsExhaustive(t *testing.T) {
	for _, w := range Waveforms() {
		assert.NotNil(t, dispatch[w], "no generator for %s", w)
	}
}

func TestFillBufferDoesNotAllocate(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(t, sink)
	require.NoError(t, e.PrepareToPlay(dsp.DefaultBufferSize, dsp.SampleRate48k))

	out := stereo(dsp.DefaultBufferSize)
	ctx := process.NewContext(out)
	for _, w := range Waveforms() {
		require.NoError(t, e.SetWaveform(w))
		allocs := testing.AllocsPerRun(20, func() { e.FillBuffer(ctx) })
		assert.Zero(t, allocs, "%s allocated", w)
	}
}

func BenchmarkFillBuffer(b *testing.B) {
	for _, w := range []Waveform{WhiteNoise, SineWave, LFSawtooth, BLSawtooth, WTSawtooth} {
		b.Run(w.String(), func(b *testing.B) {
			e := newTestEngine(b, nil)
			require.NoError(b, e.PrepareToPlay(dsp.DefaultBufferSize, dsp.SampleRate48k))
			require.NoError(b, e.SetWaveform(w))

			ctx := process.NewContext(stereo(dsp.DefaultBufferSize))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.FillBuffer(ctx)
			}
		})
	}
}
