package host

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/tonegen/pkg/engine"
)

const wavHeaderSize = 44

func TestRenderWritesWAV(t *testing.T) {
	src := &constSource{value: 0.5}
	opts := RenderOptions{SampleRate: 8000, BufferSize: 300, Channels: 2, Duration: 250 * time.Millisecond}

	var buf bytes.Buffer
	frames, err := Render(&buf, src, opts)
	require.NoError(t, err)
	assert.Equal(t, 2000, frames)
	assert.Equal(t, 1, src.prepared)
	assert.Equal(t, 1, src.released)
	assert.Equal(t, 300, src.size)

	data := buf.Bytes()
	require.Len(t, data, wavHeaderSize+frames*2*2)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[22:]))
	assert.Equal(t, uint32(8000), binary.LittleEndian.Uint32(data[24:]))
	assert.Equal(t, uint32(frames*4), binary.LittleEndian.Uint32(data[40:]))

	want := int16(math.Round(0.5 * math.MaxInt16))
	for i := wavHeaderSize; i < len(data); i += 2 {
		if got := int16(binary.LittleEndian.Uint16(data[i:])); got != want {
			t.Fatalf("sample at byte %d: got %d, want %d", i, got, want)
		}
	}
}

func TestRenderEngineSine(t *testing.T) {
	e, err := engine.New(engine.Config{TableSize: 1024, Seed: 1})
	require.NoError(t, err)
	require.NoError(t, e.SetWaveform(engine.SineWave))
	require.NoError(t, e.SetFrequency(1000))
	require.NoError(t, e.SetLevel(1))

	var buf bytes.Buffer
	frames, err := Render(&buf, e, RenderOptions{SampleRate: 8000, BufferSize: 64, Channels: 1, Duration: 10 * time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, 80, frames)

	data := buf.Bytes()[wavHeaderSize:]
	require.Len(t, data, 160)
	// 1 kHz at 8 kHz: sample 2 of each cycle sits at the positive peak
	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(data[0:])))
	assert.InDelta(t, math.MaxInt16, int16(binary.LittleEndian.Uint16(data[4:])), 1)
	assert.InDelta(t, -math.MaxInt16, int16(binary.LittleEndian.Uint16(data[12:])), 1)
	assert.False(t, e.Prepared(), "render releases the source")
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	frames, err := RenderFile(path, &constSource{}, RenderOptions{SampleRate: 22050, BufferSize: 512, Channels: 1, Duration: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 22050, frames)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(wavHeaderSize+22050*2), info.Size())
}

func TestRenderRejectsFormats(t *testing.T) {
	tests := []RenderOptions{
		{SampleRate: 0, BufferSize: 64, Channels: 2},
		{SampleRate: 8000, BufferSize: 0, Channels: 2},
		{SampleRate: 8000, BufferSize: 64, Channels: 3},
		{SampleRate: 8000, BufferSize: 64, Channels: 1, Duration: -time.Second},
	}
	for _, opts := range tests {
		_, err := Render(&bytes.Buffer{}, &constSource{}, opts)
		assert.ErrorIs(t, err, ErrRenderFormat)
	}
}

func TestToPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, math.MaxInt16},
		{2, math.MaxInt16},
		{-1, -math.MaxInt16},
		{-3, -math.MaxInt16},
		{float32(math.NaN()), 0},
		{0.5, 16384},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toPCM16(tt.in), "toPCM16(%v)", tt.in)
	}
}
