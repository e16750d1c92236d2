package analysis

import (
	"math"
	"sync/atomic"
)

// DefaultSamplesPerBlock is how many samples collapse into one displayed
// min/max pair.
const DefaultSamplesPerBlock = 8

// Envelope is the sample range covered by one display block
type Envelope struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

// ScopeSnapshot is a consistent-enough copy of the scope history for drawing
type ScopeSnapshot struct {
	SamplesPerBlock int          `json:"samplesPerBlock"`
	Channels        [][]Envelope `json:"channels"`
	Tail            []float32    `json:"tail"`
}

// Scope keeps a rolling min/max history per channel plus a raw tail of the
// first channel. PushBuffer must only be called from one goroutine, the
// audio thread; it never blocks or allocates. Readers may run concurrently
// and see individually atomic samples.
type Scope struct {
	channels        int
	samplesPerBlock int

	mins    [][]atomic.Uint32
	maxs    [][]atomic.Uint32
	written atomic.Uint64

	tail        []atomic.Uint32
	tailWritten atomic.Uint64

	// writer-only accumulation of the block in progress
	accMin   []float32
	accMax   []float32
	accCount int
}

// NewScope creates a scope holding historyBlocks blocks per channel
func NewScope(channels, historyBlocks, samplesPerBlock, tailSize int) *Scope {
	if channels < 1 {
		channels = 1
	}
	if historyBlocks < 1 {
		historyBlocks = 1
	}
	if samplesPerBlock < 1 {
		samplesPerBlock = DefaultSamplesPerBlock
	}
	if tailSize < 1 {
		tailSize = 1
	}

	s := &Scope{
		channels:        channels,
		samplesPerBlock: samplesPerBlock,
		mins:            make([][]atomic.Uint32, channels),
		maxs:            make([][]atomic.Uint32, channels),
		tail:            make([]atomic.Uint32, tailSize),
		accMin:          make([]float32, channels),
		accMax:          make([]float32, channels),
	}
	for ch := 0; ch < channels; ch++ {
		s.mins[ch] = make([]atomic.Uint32, historyBlocks)
		s.maxs[ch] = make([]atomic.Uint32, historyBlocks)
	}
	s.resetAccumulator()
	return s
}

// Channels returns the number of channels tracked
func (s *Scope) Channels() int {
	return s.channels
}

// HistoryBlocks returns the number of blocks kept per channel
func (s *Scope) HistoryBlocks() int {
	return len(s.mins[0])
}

func (s *Scope) resetAccumulator() {
	for ch := range s.accMin {
		s.accMin[ch] = float32(math.Inf(1))
		s.accMax[ch] = float32(math.Inf(-1))
	}
	s.accCount = 0
}

// PushBuffer appends equal-length channel slices to the history. Channels
// beyond the scope's width are ignored. The slices are not retained.
func (s *Scope) PushBuffer(channels [][]float32) {
	if len(channels) == 0 {
		return
	}
	n := len(channels[0])
	width := len(channels)
	if width > s.channels {
		width = s.channels
	}

	history := uint64(len(s.mins[0]))
	tailSize := uint64(len(s.tail))

	for i := 0; i < n; i++ {
		for ch := 0; ch < width; ch++ {
			if i >= len(channels[ch]) {
				continue
			}
			v := channels[ch][i]
			if v < s.accMin[ch] {
				s.accMin[ch] = v
			}
			if v > s.accMax[ch] {
				s.accMax[ch] = v
			}
		}

		pos := s.tailWritten.Load()
		s.tail[pos%tailSize].Store(math.Float32bits(channels[0][i]))
		s.tailWritten.Store(pos + 1)

		s.accCount++
		if s.accCount == s.samplesPerBlock {
			block := s.written.Load()
			idx := block % history
			for ch := 0; ch < s.channels; ch++ {
				lo, hi := s.accMin[ch], s.accMax[ch]
				if ch >= width {
					lo, hi = 0, 0
				}
				s.mins[ch][idx].Store(math.Float32bits(lo))
				s.maxs[ch][idx].Store(math.Float32bits(hi))
			}
			s.written.Store(block + 1)
			s.resetAccumulator()
		}
	}
}

// Snapshot copies the history oldest block first. Blocks not yet written
// are omitted.
func (s *Scope) Snapshot() ScopeSnapshot {
	written := s.written.Load()
	history := uint64(len(s.mins[0]))
	count := written
	if count > history {
		count = history
	}
	start := written - count

	snap := ScopeSnapshot{
		SamplesPerBlock: s.samplesPerBlock,
		Channels:        make([][]Envelope, s.channels),
		Tail:            s.tailCopy(),
	}
	for ch := 0; ch < s.channels; ch++ {
		env := make([]Envelope, count)
		for i := uint64(0); i < count; i++ {
			idx := (start + i) % history
			env[i] = Envelope{
				Min: math.Float32frombits(s.mins[ch][idx].Load()),
				Max: math.Float32frombits(s.maxs[ch][idx].Load()),
			}
		}
		snap.Channels[ch] = env
	}
	return snap
}

func (s *Scope) tailCopy() []float32 {
	written := s.tailWritten.Load()
	size := uint64(len(s.tail))
	count := written
	if count > size {
		count = size
	}
	start := written - count

	out := make([]float32, count)
	for i := uint64(0); i < count; i++ {
		out[i] = math.Float32frombits(s.tail[(start+i)%size].Load())
	}
	return out
}

// Tail appends the raw first-channel tail, oldest first, to dst as float64
// for spectral analysis.
func (s *Scope) Tail(dst []float64) []float64 {
	for _, v := range s.tailCopy() {
		dst = append(dst, float64(v))
	}
	return dst
}
