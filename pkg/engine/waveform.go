package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/justyntemme/tonegen/pkg/dsp/wavetable"
)

// Waveform selects the active generator. Values match the selector ids the
// control surface exposes, with Empty (silence) as the zero value.
type Waveform int32

const (
	Empty Waveform = iota
	WhiteNoise
	BrownNoise
	DustNoise
	SineWave
	LFImpulse
	LFSquare
	LFSawtooth
	LFTriangle
	BLImpulse
	BLSquare
	BLSawtooth
	BLTriangle
	WTSine
	WTImpulse
	WTSquare
	WTSawtooth
	WTTriangle

	numWaveforms
)

// Family groups waveforms by synthesis method
type Family int

const (
	FamilySilence Family = iota
	FamilyNoise
	FamilySine
	FamilyLowFrequency
	FamilyBandLimited
	FamilyWavetable
)

var familyNames = [...]string{
	FamilySilence:      "silence",
	FamilyNoise:        "noise",
	FamilySine:         "sine",
	FamilyLowFrequency: "low-frequency",
	FamilyBandLimited:  "band-limited",
	FamilyWavetable:    "wavetable",
}

func (f Family) String() string {
	if f < 0 || int(f) >= len(familyNames) {
		return "unknown"
	}
	return familyNames[f]
}

var waveformNames = [numWaveforms]string{
	Empty:      "Empty",
	WhiteNoise: "White",
	BrownNoise: "Brown",
	DustNoise:  "Dust",
	SineWave:   "Sine",
	LFImpulse:  "LF Impulse",
	LFSquare:   "LF Square",
	LFSawtooth: "LF Sawtooth",
	LFTriangle: "LF Triangle",
	BLImpulse:  "BL Impulse",
	BLSquare:   "BL Square",
	BLSawtooth: "BL Sawtooth",
	BLTriangle: "BL Triangle",
	WTSine:     "WT Sine",
	WTImpulse:  "WT Impulse",
	WTSquare:   "WT Square",
	WTSawtooth: "WT Sawtooth",
	WTTriangle: "WT Triangle",
}

// Waveforms returns every selectable waveform in id order, Empty first
func Waveforms() []Waveform {
	out := make([]Waveform, numWaveforms)
	for i := range out {
		out[i] = Waveform(i)
	}
	return out
}

// Valid reports whether w is a known selector
func (w Waveform) Valid() bool {
	return w >= 0 && w < numWaveforms
}

// ID returns the numeric selector id
func (w Waveform) ID() int {
	return int(w)
}

// String returns the display name
func (w Waveform) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Waveform(%d)", int32(w))
	}
	return waveformNames[w]
}

// Family returns the synthesis method used by w
func (w Waveform) Family() Family {
	switch {
	case w == WhiteNoise || w == BrownNoise || w == DustNoise:
		return FamilyNoise
	case w == SineWave:
		return FamilySine
	case w >= LFImpulse && w <= LFTriangle:
		return FamilyLowFrequency
	case w >= BLImpulse && w <= BLTriangle:
		return FamilyBandLimited
	case w >= WTSine && w <= WTTriangle:
		return FamilyWavetable
	default:
		return FamilySilence
	}
}

// Periodic reports whether frequency affects w
func (w Waveform) Periodic() bool {
	switch w.Family() {
	case FamilySine, FamilyLowFrequency, FamilyBandLimited, FamilyWavetable:
		return true
	}
	return false
}

// Shape returns the wavetable shape for wavetable waveforms
func (w Waveform) Shape() (wavetable.Shape, bool) {
	if w.Family() != FamilyWavetable {
		return 0, false
	}
	return wavetable.Shape(w - WTSine), true
}

// MarshalText encodes the waveform by name
func (w Waveform) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWaveform, int32(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText accepts anything ParseWaveform does
func (w *Waveform) UnmarshalText(text []byte) error {
	parsed, err := ParseWaveform(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// UnmarshalJSON accepts a name string or a numeric selector id
func (w *Waveform) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return w.UnmarshalText([]byte(s))
	}

	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownWaveform, data)
	}
	return w.UnmarshalText([]byte(strconv.Itoa(id)))
}

func foldName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// ParseWaveform accepts a display name ("BL Square", "bl_square"), a
// name with a Noise/Wave suffix ("WhiteNoise"), or a numeric id.
func ParseWaveform(s string) (Waveform, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		w := Waveform(id)
		if !w.Valid() {
			return Empty, fmt.Errorf("%w: id %d", ErrUnknownWaveform, id)
		}
		return w, nil
	}

	key := foldName(s)
	for i, name := range waveformNames {
		folded := foldName(name)
		if key == folded || key == folded+"noise" || key == folded+"wave" {
			return Waveform(i), nil
		}
	}
	switch key {
	case "silence", "none", "off":
		return Empty, nil
	case "lfsaw", "blsaw", "wtsaw":
		return ParseWaveform(s + "tooth")
	}
	return Empty, fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
}
