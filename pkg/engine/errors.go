package engine

import "errors"

var (
	// ErrInvalidSampleRate is returned by PrepareToPlay for non-positive or non-finite rates
	ErrInvalidSampleRate = errors.New("engine: invalid sample rate")

	// ErrInvalidBufferSize is returned by PrepareToPlay for negative buffer sizes
	ErrInvalidBufferSize = errors.New("engine: invalid buffer size")

	// ErrInvalidFrequency is returned for frequencies outside [0, 5000] Hz
	ErrInvalidFrequency = errors.New("engine: invalid frequency")

	// ErrInvalidLevel is returned for levels outside [0, 1]
	ErrInvalidLevel = errors.New("engine: invalid level")

	// ErrUnknownWaveform is returned for selectors without a generator
	ErrUnknownWaveform = errors.New("engine: unknown waveform")

	// ErrUnknownParameter is returned by SetParameter for names outside the registry
	ErrUnknownParameter = errors.New("engine: unknown parameter")

	// ErrNotPrepared is returned when a stream operation needs PrepareToPlay first
	ErrNotPrepared = errors.New("engine: not prepared")
)
