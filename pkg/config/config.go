// Package config loads generator settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/justyntemme/tonegen/pkg/dsp"
)

// ErrInvalid is wrapped by every Validate failure
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	ListenAddr string
	SampleRate float64
	BufferSize int
	Channels   int
	TableSize  int
	LogLevel   string
	DevLog     bool
	Seed       int64
}

// Load reads TONEGEN_* variables, falling back to defaults for anything
// unset. Malformed numbers are reported rather than silently defaulted.
func Load() (*Config, error) {
	var err error
	cfg := &Config{
		ListenAddr: getEnv("TONEGEN_LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("TONEGEN_LOG_LEVEL", "info"),
	}

	if cfg.SampleRate, err = strconv.ParseFloat(getEnv("TONEGEN_SAMPLE_RATE", "44100"), 64); err != nil {
		return nil, fmt.Errorf("TONEGEN_SAMPLE_RATE: %w", err)
	}
	if cfg.BufferSize, err = strconv.Atoi(getEnv("TONEGEN_BUFFER_SIZE", "512")); err != nil {
		return nil, fmt.Errorf("TONEGEN_BUFFER_SIZE: %w", err)
	}
	if cfg.Channels, err = strconv.Atoi(getEnv("TONEGEN_CHANNELS", "2")); err != nil {
		return nil, fmt.Errorf("TONEGEN_CHANNELS: %w", err)
	}
	if cfg.TableSize, err = strconv.Atoi(getEnv("TONEGEN_TABLE_SIZE", "4096")); err != nil {
		return nil, fmt.Errorf("TONEGEN_TABLE_SIZE: %w", err)
	}
	if cfg.DevLog, err = strconv.ParseBool(getEnv("TONEGEN_DEV_LOG", "false")); err != nil {
		return nil, fmt.Errorf("TONEGEN_DEV_LOG: %w", err)
	}
	if cfg.Seed, err = strconv.ParseInt(getEnv("TONEGEN_SEED", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("TONEGEN_SEED: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges the audio layer depends on
func (c *Config) Validate() error {
	switch {
	case !(c.SampleRate >= 8000 && c.SampleRate <= dsp.SampleRate192k):
		return fmt.Errorf("%w: sample rate %v outside [8000, 192000]", ErrInvalid, c.SampleRate)
	case c.BufferSize < dsp.MinBufferSize || c.BufferSize > dsp.MaxBufferSize:
		return fmt.Errorf("%w: buffer size %d outside [%d, %d]", ErrInvalid, c.BufferSize, dsp.MinBufferSize, dsp.MaxBufferSize)
	case c.Channels < dsp.Mono || c.Channels > dsp.MaxChannels:
		return fmt.Errorf("%w: channels %d outside [%d, %d]", ErrInvalid, c.Channels, dsp.Mono, dsp.MaxChannels)
	case c.TableSize < dsp.MinTableSize:
		return fmt.Errorf("%w: table size %d below %d", ErrInvalid, c.TableSize, dsp.MinTableSize)
	case c.ListenAddr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
