// Package param provides lock-free parameters shared between the control
// goroutines and the audio thread.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter is a ranged value stored normalized (0-1) in an atomic word.
// Reads and writes never block, so the audio thread may read it directly.
type Parameter struct {
	ID           uint32
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // normalized
	StepCount    int32
	Flags        uint32

	// Skew bends the normalized mapping; 0 or 1 is linear. Values below
	// 1 give more of the control's travel to the low end of the range.
	Skew float64

	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsList      uint32 = 1 << 3
	IsHidden    uint32 = 1 << 4
)

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value (0-1)
func (p *Parameter) SetValue(value float64) {
	if value < 0 || math.IsNaN(value) {
		value = 0
	} else if value > 1 {
		value = 1
	}
	p.value.Store(math.Float64bits(value))
}

// GetPlainValue converts normalized to plain value
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// SetPlainValue converts plain to normalized value
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// Reset restores the default value
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns formatted parameter value
func (p *Parameter) FormatValue(normalized float64) string {
	return p.FormatPlain(p.Denormalize(normalized))
}

// FormatPlain formats a plain value
func (p *Parameter) FormatPlain(plain float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParsePlain parses a string to a plain value without clamping
func (p *Parameter) ParsePlain(str string) (float64, error) {
	if p.parseFunc != nil {
		return p.parseFunc(str)
	}
	return strconv.ParseFloat(str, 64)
}

// ParseValue parses string to normalized value
func (p *Parameter) ParseValue(str string) (float64, error) {
	plain, err := p.ParsePlain(str)
	if err != nil {
		return 0, err
	}
	return p.Normalize(plain), nil
}

// InRange reports whether plain lies within [Min, Max]
func (p *Parameter) InRange(plain float64) bool {
	return plain >= p.Min && plain <= p.Max
}

func (p *Parameter) skewed() bool {
	return p.Skew > 0 && p.Skew != 1
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	normalized := (plain - p.Min) / (p.Max - p.Min)
	if normalized <= 0 || math.IsNaN(normalized) {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	if p.skewed() {
		normalized = math.Pow(normalized, p.Skew)
	}
	return normalized
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	if p.skewed() && normalized > 0 {
		normalized = math.Exp(math.Log(normalized) / p.Skew)
	}
	return p.Min + normalized*(p.Max-p.Min)
}
