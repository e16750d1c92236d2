package host

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/arl/blip/wave"

	"github.com/justyntemme/tonegen/pkg/dsp"
	"github.com/justyntemme/tonegen/pkg/framework/process"
)

// maxWriteSamples bounds each wave.Writer.Write call; the writer encodes
// through a fixed 4 KiB scratch buffer.
const maxWriteSamples = 2048

// ErrRenderFormat is returned for formats the WAV writer cannot encode
var ErrRenderFormat = errors.New("host: unsupported render format")

// RenderOptions describes an offline render
type RenderOptions struct {
	SampleRate int
	BufferSize int
	Channels   int // 1 or 2
	Duration   time.Duration
}

func (o RenderOptions) validate() error {
	switch {
	case o.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrRenderFormat, o.SampleRate)
	case o.BufferSize <= 0:
		return fmt.Errorf("%w: buffer size %d", ErrRenderFormat, o.BufferSize)
	case o.Channels != dsp.Mono && o.Channels != dsp.Stereo:
		return fmt.Errorf("%w: %d channels", ErrRenderFormat, o.Channels)
	case o.Duration < 0:
		return fmt.Errorf("%w: negative duration", ErrRenderFormat)
	}
	return nil
}

// Frames returns the number of sample frames the render produces
func (o RenderOptions) Frames() int {
	return int(math.Round(o.Duration.Seconds() * float64(o.SampleRate)))
}

// Render drives src like a device would and writes 16-bit PCM WAV to w.
// It returns the number of frames written.
func Render(w io.Writer, src Source, opts RenderOptions) (int, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	ww := wave.NewWriter(w, opts.SampleRate)
	return render(ww, src, opts)
}

// RenderFile renders to a new WAV file at path
func RenderFile(path string, src Source, opts RenderOptions) (int, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	ww, err := wave.NewFile(path, opts.SampleRate)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	return render(ww, src, opts)
}

func render(ww *wave.Writer, src Source, opts RenderOptions) (int, error) {
	if opts.Channels == dsp.Stereo {
		ww.EnableStereo()
	}

	if err := src.PrepareToPlay(opts.BufferSize, float64(opts.SampleRate)); err != nil {
		ww.Close()
		return 0, fmt.Errorf("prepare source: %w", err)
	}
	defer src.ReleaseResources()

	buffers := make([][]float32, opts.Channels)
	for ch := range buffers {
		buffers[ch] = make([]float32, opts.BufferSize)
	}
	pcm := make([]int16, opts.BufferSize*opts.Channels)

	var ctx process.Context
	total := opts.Frames()
	written := 0
	for written < total {
		n := min(opts.BufferSize, total-written)
		ctx.Reset(buffers, 0, n)
		src.FillBuffer(&ctx)

		interleave(pcm, buffers, n)
		samples := pcm[:n*opts.Channels]
		for len(samples) > 0 {
			chunk := samples[:min(len(samples), maxWriteSamples)]
			if _, err := ww.Write(chunk); err != nil {
				ww.Close()
				return written, fmt.Errorf("write samples: %w", err)
			}
			samples = samples[len(chunk):]
		}
		written += n
	}

	if err := ww.Close(); err != nil {
		return written, fmt.Errorf("finalize wav: %w", err)
	}
	return written, nil
}

// interleave converts the first n frames of buffers to interleaved PCM
func interleave(dst []int16, buffers [][]float32, n int) {
	channels := len(buffers)
	for ch, buf := range buffers {
		for i := 0; i < n; i++ {
			dst[i*channels+ch] = toPCM16(buf[i])
		}
	}
}

// toPCM16 clips to [-1, 1] and scales to 16 bits
func toPCM16(v float32) int16 {
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case v >= 1:
		return math.MaxInt16
	case v <= -1:
		return -math.MaxInt16
	}
	return int16(math.Round(float64(v) * math.MaxInt16))
}
