package oscillator

import (
	"math"
	"testing"

	"github.com/justyntemme/tonegen/pkg/dsp"
)

func TestPhasorAdvance(t *testing.T) {
	p := NewPhasor(440, 44100)

	if got := p.Advance(); got != 0 {
		t.Errorf("first Advance: got %f, want 0", got)
	}

	p.Reset()
	const n = 1000
	for i := 0; i < n; i++ {
		phase := p.Advance()
		if phase < 0 || phase >= 1 {
			t.Fatalf("phase out of range at %d: %f", i, phase)
		}
	}

	want := math.Mod(n*440.0/44100.0, 1)
	if math.Abs(p.Phase()-want) > 1e-9 {
		t.Errorf("phase after %d samples: got %f, want %f", n, p.Phase(), want)
	}
}

func TestPhasorSetFrequency(t *testing.T) {
	tests := []struct {
		name       string
		frequency  float64
		sampleRate float64
		want       float64
	}{
		{"A440", 440, 44100, 440.0 / 44100.0},
		{"zero frequency", 0, 48000, 0},
		{"zero sample rate", 440, 0, 0},
		{"negative frequency", -1, 44100, 0},
		{"NaN frequency", math.NaN(), 44100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Phasor
			p.SetFrequency(tt.frequency, tt.sampleRate)
			if p.Delta() != tt.want {
				t.Errorf("delta: got %f, want %f", p.Delta(), tt.want)
			}
		})
	}
}

func TestPhasorSetPhaseWraps(t *testing.T) {
	var p Phasor
	p.SetPhase(1.25)
	if math.Abs(p.Phase()-0.25) > 1e-12 {
		t.Errorf("SetPhase(1.25): got %f, want 0.25", p.Phase())
	}
	p.SetPhase(-0.25)
	if math.Abs(p.Phase()-0.75) > 1e-12 {
		t.Errorf("SetPhase(-0.25): got %f, want 0.75", p.Phase())
	}
}

func TestLowFrequencyBounds(t *testing.T) {
	const level = 0.7
	generators := map[string]func(*Phasor, []float32, float64){
		"sine":     ProcessSine,
		"impulse":  ProcessImpulse,
		"square":   ProcessSquare,
		"saw":      ProcessSaw,
		"triangle": ProcessTriangle,
	}

	for name, gen := range generators {
		t.Run(name, func(t *testing.T) {
			p := NewPhasor(3, 1000)
			buffer := make([]float32, 2000)
			gen(&p, buffer, level)
			for i, v := range buffer {
				if math.Abs(float64(v)) > level+1e-6 {
					t.Fatalf("sample %d out of bounds: %f", i, v)
				}
			}
		})
	}
}

func TestSampleShapes(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(float64, float64) float64
		phase float64
		want  float64
	}{
		{"saw start", SawSample, 0, -1},
		{"saw middle", SawSample, 0.5, 0},
		{"triangle start", TriangleSample, 0, -1},
		{"triangle peak", TriangleSample, 0.5, 1},
		{"triangle three quarters", TriangleSample, 0.75, 0},
		{"square first half", SquareSample, 0.25, -1},
		{"square second half", SquareSample, 0.75, 1},
		{"square edge", SquareSample, 0.5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.phase, 1); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestImpulseFiresOnWrap(t *testing.T) {
	// 62.5 Hz at 1 kHz wraps exactly every 16 samples.
	p := NewPhasor(62.5, 1000)
	buffer := make([]float32, 64)
	ProcessImpulse(&p, buffer, 1)

	nonZero := 0
	for i, v := range buffer {
		if v != 0 {
			nonZero++
			if i%16 != 0 {
				t.Errorf("impulse at unexpected index %d", i)
			}
		}
	}
	// The first wrap of a call is only seen once the previous phase is known.
	if nonZero != 3 {
		t.Errorf("impulse count: got %d, want 3", nonZero)
	}
}

func TestNumHarmonics(t *testing.T) {
	tests := []struct {
		name       string
		frequency  float64
		sampleRate float64
		want       float64
	}{
		{"A440", 440, 44100, 44100.0 / 2 / 440},
		{"below minimum", 0, 44100, 0},
		{"capped", 1, 192000, dsp.MaxHarmonics},
		{"no sample rate", 440, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumHarmonics(tt.frequency, tt.sampleRate); got != tt.want {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestNumHarmonicsCap(t *testing.T) {
	// Below the cap the bound is sampleRate/2/frequency.
	if got := NumHarmonics(10, 8000); got != 400 {
		t.Errorf("uncapped: got %f, want 400", got)
	}

	// Sub-audio fundamentals saturate, so rates above the cap agree.
	for _, sr := range []float64{dsp.SampleRate44k1, dsp.SampleRate96k, dsp.SampleRate192k} {
		if got := NumHarmonics(5, sr); got != dsp.MaxHarmonics {
			t.Errorf("5 Hz at %f: got %f, want %d", sr, got, dsp.MaxHarmonics)
		}
	}

	// The impulse weight follows the capped count.
	a := NewAdditive(5, dsp.SampleRate44k1)
	want := 0.0
	for h := 1; h < dsp.MaxHarmonics; h++ {
		if 0.001*dsp.TwoPi*float64(h) < dsp.Nyquist(dsp.SampleRate44k1) {
			want += math.Sin(0.001*dsp.TwoPi*float64(h)) / dsp.MaxHarmonics
		}
	}
	if got := a.ImpulseSample(0.001, 1); math.Abs(got-want) > 1e-9 {
		t.Errorf("capped impulse: got %f, want %f", got, want)
	}
}

func TestHarmonicsStayBelowNyquist(t *testing.T) {
	const frequency = 440.0
	for _, sr := range []float64{dsp.SampleRate22k05, dsp.SampleRate44k1, dsp.SampleRate48k, dsp.SampleRate96k, dsp.SampleRate192k} {
		n := NumHarmonics(frequency, sr)
		highest := math.Ceil(n) - 1
		if highest*frequency >= dsp.Nyquist(sr) {
			t.Errorf("sr %f: harmonic %f at %f Hz exceeds Nyquist", sr, highest, highest*frequency)
		}
	}
}

// cycleEnergy sums squared samples over a uniform grid spanning one cycle.
func cycleEnergy(fn func(float64, float64) float64) float64 {
	const points = 4096
	sum := 0.0
	for i := 0; i < points; i++ {
		v := fn(float64(i)/points, 1)
		sum += v * v
	}
	return sum
}

func TestEnergyGrowsWithHarmonics(t *testing.T) {
	const frequency = 440.0
	rates := []float64{8000, 16000, dsp.SampleRate44k1, dsp.SampleRate96k}

	shapes := map[string]func(*Additive) func(float64, float64) float64{
		"saw":      func(a *Additive) func(float64, float64) float64 { return a.SawSample },
		"square":   func(a *Additive) func(float64, float64) float64 { return a.SquareSample },
		"triangle": func(a *Additive) func(float64, float64) float64 { return a.TriangleSample },
	}

	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			previous := -1.0
			for _, sr := range rates {
				energy := cycleEnergy(shape(NewAdditive(frequency, sr)))
				if energy <= previous {
					t.Errorf("sr %f: energy %f did not exceed %f", sr, energy, previous)
				}
				previous = energy
			}
		})
	}
}

func TestAdditiveBounds(t *testing.T) {
	a := NewAdditive(440, dsp.SampleRate44k1)
	p := NewPhasor(440, dsp.SampleRate44k1)
	buffer := make([]float32, 512)

	const level = 0.5
	// A Fourier square overshoots by roughly 9% at its edges.
	a.ProcessSquare(&p, buffer, level)
	if peak := dsp.Peak(buffer); peak > level*1.2 {
		t.Errorf("square peak too high: %f", peak)
	}

	a.ProcessTriangle(&p, buffer, level)
	if peak := dsp.Peak(buffer); peak > level*math.Pi*math.Pi/8+1e-3 {
		t.Errorf("triangle peak too high: %f", peak)
	}

	a.ProcessImpulse(&p, buffer, level)
	if peak := dsp.Peak(buffer); peak > level {
		t.Errorf("impulse peak too high: %f", peak)
	}
}

func TestAdditiveSilentWithoutHarmonics(t *testing.T) {
	a := NewAdditive(0, dsp.SampleRate44k1)
	p := NewPhasor(0, dsp.SampleRate44k1)
	buffer := make([]float32, 64)
	for i := range buffer {
		buffer[i] = 1
	}

	a.ProcessSaw(&p, buffer, 1)
	for i, v := range buffer {
		if v != 0 {
			t.Fatalf("sample %d: got %f, want 0", i, v)
		}
	}
}

func TestNyquistGuardOnlyTripsForLowFundamentals(t *testing.T) {
	unguarded := func(a *Additive, phase float64) float64 {
		sum := 0.0
		for h := 1; float64(h) < a.Harmonics(); h++ {
			sum += math.Sin(phase*dsp.TwoPi*float64(h)) / float64(h)
		}
		return sum
	}

	audio := NewAdditive(440, dsp.SampleRate44k1)
	if got, want := audio.SawSample(0.9, 1), unguarded(audio, 0.9); got != want {
		t.Errorf("guard changed a 440 Hz saw: got %f, want %f", got, want)
	}

	sub := NewAdditive(1, dsp.SampleRate44k1)
	if got, want := sub.SawSample(0.9, 1), unguarded(sub, 0.9); got == want {
		t.Error("guard should drop partials of a 1 Hz saw late in the cycle")
	}
}

func BenchmarkProcessSine(b *testing.B) {
	p := NewPhasor(440, dsp.SampleRate48k)
	buffer := make([]float32, dsp.DefaultBufferSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ProcessSine(&p, buffer, 0.5)
	}
}

func BenchmarkAdditiveSaw(b *testing.B) {
	a := NewAdditive(440, dsp.SampleRate48k)
	p := NewPhasor(440, dsp.SampleRate48k)
	buffer := make([]float32, dsp.DefaultBufferSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.ProcessSaw(&p, buffer, 0.5)
	}
}
