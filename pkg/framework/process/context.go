// Package process provides the per-callback audio context handed to sources.
package process

import (
	"errors"

	"github.com/justyntemme/tonegen/pkg/dsp"
)

var (
	// ErrRegion means the start offset and sample count do not fit every channel
	ErrRegion = errors.New("process: region outside buffer")

	// ErrTooManyChannels means the buffer has more channels than sources keep state for
	ErrTooManyChannels = errors.New("process: too many channels")
)

// Context describes one callback: caller-owned channel buffers and the
// region [StartOffset, StartOffset+Samples) a source must fill. A source
// must not touch samples outside the region nor retain the buffers.
type Context struct {
	Output      [][]float32
	StartOffset int
	Samples     int

	// region views, reused across callbacks so Region never allocates
	views [dsp.MaxChannels][]float32
}

// NewContext creates a context covering the whole of output
func NewContext(output [][]float32) *Context {
	c := &Context{}
	c.Reset(output, 0, bufferLength(output))
	return c
}

func bufferLength(output [][]float32) int {
	if len(output) == 0 {
		return 0
	}
	return len(output[0])
}

// Reset points the context at a new buffer and region - no allocations
func (c *Context) Reset(output [][]float32, startOffset, samples int) {
	c.Output = output
	c.StartOffset = startOffset
	c.Samples = samples
}

// ResetFull points the context at output and covers every sample of it
func (c *Context) ResetFull(output [][]float32) {
	c.Reset(output, 0, bufferLength(output))
}

// Validate checks the region against every channel
func (c *Context) Validate() error {
	if len(c.Output) > dsp.MaxChannels {
		return ErrTooManyChannels
	}
	if c.StartOffset < 0 || c.Samples < 0 {
		return ErrRegion
	}
	end := c.StartOffset + c.Samples
	for _, ch := range c.Output {
		if end > len(ch) {
			return ErrRegion
		}
	}
	return nil
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	return c.Samples
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// Channel returns the region of channel ch. The context must be valid.
func (c *Context) Channel(ch int) []float32 {
	return c.Output[ch][c.StartOffset : c.StartOffset+c.Samples]
}

// Region returns the region of every channel. The returned slice is owned
// by the context and is only valid until the next Reset.
func (c *Context) Region() [][]float32 {
	n := len(c.Output)
	if n > len(c.views) {
		n = len(c.views)
	}
	for ch := 0; ch < n; ch++ {
		c.views[ch] = c.Channel(ch)
	}
	return c.views[:n]
}

// Clear zeros the region of every channel
func (c *Context) Clear() {
	for ch := range c.Output {
		dsp.Clear(c.Channel(ch))
	}
}

// ClearAll zeros every channel buffer entirely, ignoring the region
func (c *Context) ClearAll() {
	for _, ch := range c.Output {
		dsp.Clear(ch)
	}
}

// Duplicate copies the region of channel src into every other channel
func (c *Context) Duplicate(src int) {
	if src < 0 || src >= len(c.Output) {
		return
	}
	from := c.Channel(src)
	for ch := range c.Output {
		if ch != src {
			copy(c.Channel(ch), from)
		}
	}
}

// ProcessChannels calls fn with the region of every channel
func (c *Context) ProcessChannels(fn func(ch int, output []float32)) {
	for ch := range c.Output {
		fn(ch, c.Channel(ch))
	}
}
