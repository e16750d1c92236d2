// Package device connects a host.Player to the system's default output
// through PortAudio.
package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/justyntemme/tonegen/pkg/framework/debug"
	"github.com/justyntemme/tonegen/pkg/host"
)

// Stream is an open PortAudio output stream feeding a Player
type Stream struct {
	logger *zap.Logger
	stream *portaudio.Stream
}

// Open initializes PortAudio and starts the default output stream with
// the player's format. The callback is Player.Process.
func Open(player *host.Player, logger *zap.Logger) (*Stream, error) {
	logger = debug.OrNop(logger)
	settings := player.Settings()

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(0, settings.Channels, settings.SampleRate, settings.BufferSize, player.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open default stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start stream: %w", err)
	}

	info := stream.Info()
	logger.Info("output stream started",
		zap.Float64("sampleRate", info.SampleRate),
		zap.Duration("outputLatency", info.OutputLatency))

	return &Stream{logger: logger, stream: stream}, nil
}

// Close stops the stream and releases PortAudio
func (s *Stream) Close() error {
	if err := s.stream.Stop(); err != nil {
		s.logger.Warn("stop stream", zap.Error(err))
	}
	if err := s.stream.Close(); err != nil {
		portaudio.Terminate()
		return fmt.Errorf("close stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminate portaudio: %w", err)
	}
	s.logger.Info("output stream closed")
	return nil
}

// List returns every device with at least one output channel
func List() ([]host.DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var defaultName string
	if d, err := portaudio.DefaultOutputDevice(); err == nil && d != nil {
		defaultName = d.Name
	}

	out := make([]host.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if d.MaxOutputChannels == 0 {
			continue
		}
		info := host.DeviceInfo{
			Index:             d.Index,
			Name:              d.Name,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           d.Name == defaultName,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}
