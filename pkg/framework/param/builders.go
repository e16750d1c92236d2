package param

import (
	"fmt"
	"math"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// fold lowercases s and drops separators so "LF Saw", "lf_saw" and
// "LF-SAW" compare equal.
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// Choice creates a parameter builder for a multiple choice parameter.
// Option values must be ascending.
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		value = math.Round(value)
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		key := fold(str)
		for _, opt := range options {
			if fold(opt.Name) == key {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if fold(alias) == key {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	minVal, maxVal := 0.0, 0.0
	if len(options) > 0 {
		minVal = options[0].Value
		maxVal = options[len(options)-1].Value
	}

	b := New(id, name).
		Range(minVal, maxVal).
		Steps(int32(len(options) - 1)).
		List().
		Formatter(formatter, parser)
	if len(options) > 0 {
		b.Default(options[0].Value)
	}
	return b
}

// FrequencyParameter creates a frequency parameter whose mapping puts mid
// at the centre of the control's travel
func FrequencyParameter(id uint32, name string, min, max, mid, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		SkewFromMidPoint(mid).
		Default(defaultVal).
		Unit("Hz").
		Formatter(FrequencyFormatter, FrequencyParser)
}

// LevelParameter creates a linear amplitude parameter (0-1) shown as a percentage
func LevelParameter(id uint32, name string, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(defaultVal).
		Formatter(LevelFormatter, LevelParser)
}
