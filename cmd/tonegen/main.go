// Command tonegen is a real-time tone and noise generator.
//
//	tonegen serve      play through the default output device with an HTTP control API
//	tonegen render     write a WAV file offline
//	tonegen waveforms  list selectable waveforms
//	tonegen devices    list output devices
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/tonegen/pkg/config"
	"github.com/justyntemme/tonegen/pkg/control"
	"github.com/justyntemme/tonegen/pkg/dsp/analysis"
	"github.com/justyntemme/tonegen/pkg/engine"
	"github.com/justyntemme/tonegen/pkg/framework/debug"
	"github.com/justyntemme/tonegen/pkg/host"
	"github.com/justyntemme/tonegen/pkg/host/device"
	"github.com/justyntemme/tonegen/pkg/metrics"
)

// loadInterval matches the 100 ms CPU display refresh
const loadInterval = 100 * time.Millisecond

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(os.Args[2:])
	case "render":
		err = render(os.Args[2:])
	case "waveforms":
		err = listWaveforms()
	case "devices":
		err = listDevices()
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tonegen: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tonegen <serve|render|waveforms|devices> [flags]")
}

// toneFlags holds the initial tone settings shared by serve and render
type toneFlags struct {
	waveform  string
	frequency float64
	level     float64
}

func (t *toneFlags) register(fs *flag.FlagSet, waveform string) {
	fs.StringVar(&t.waveform, "waveform", waveform, "initial waveform name or id")
	fs.Float64Var(&t.frequency, "frequency", engine.DefaultFrequency, "frequency in Hz (0-5000)")
	fs.Float64Var(&t.level, "level", engine.DefaultLevel, "output level (0-1)")
}

func (t *toneFlags) apply(e *engine.Engine) error {
	w, err := engine.ParseWaveform(t.waveform)
	if err != nil {
		return err
	}
	return errors.Join(e.SetWaveform(w), e.SetFrequency(t.frequency), e.SetLevel(t.level))
}

func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	fs.Float64Var(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "sample rate in Hz")
	fs.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "frames per callback")
	fs.IntVar(&cfg.Channels, "channels", cfg.Channels, "output channels")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.DevLog, "dev-log", cfg.DevLog, "human-readable logs")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "noise seed, 0 for random")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var tone toneFlags
	tone.register(fs, engine.Empty.String())
	listen := fs.String("listen", "", "HTTP listen address (default $TONEGEN_LISTEN_ADDR or :8080)")
	autoplay := fs.Bool("play", false, "start playback immediately")

	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	logger, err := debug.NewLogger(cfg.LogLevel, cfg.DevLog)
	if err != nil {
		return err
	}
	defer logger.Sync()

	scope := analysis.NewScope(cfg.Channels, 512, analysis.DefaultSamplesPerBlock, 4096)
	eng, err := engine.New(engine.Config{
		TableSize: cfg.TableSize,
		Seed:      cfg.Seed,
		Sink:      scope,
		Logger:    logger.Named("engine"),
	})
	if err != nil {
		return err
	}
	if err := tone.apply(eng); err != nil {
		return err
	}

	player := host.NewPlayer(eng, host.Settings{
		SampleRate: cfg.SampleRate,
		BufferSize: cfg.BufferSize,
		Channels:   cfg.Channels,
	}, logger.Named("player"))

	stream, err := device.Open(player, logger.Named("device"))
	if err != nil {
		return err
	}
	defer stream.Close()

	if *autoplay {
		if err := player.Play(); err != nil {
			return err
		}
	}
	defer player.Stop()

	api := control.New(control.Options{
		Engine:  eng,
		Player:  player,
		Scope:   scope,
		Devices: device.List,
		Logger:  logger.Named("control"),
	})
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("control API listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return player.Watch(ctx, loadInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func render(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var tone toneFlags
	tone.register(fs, engine.SineWave.String())
	out := fs.String("o", "tone.wav", "output WAV path")
	duration := fs.Duration("duration", 2*time.Second, "length of the render")

	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	logger, err := debug.NewLogger(cfg.LogLevel, cfg.DevLog)
	if err != nil {
		return err
	}
	defer logger.Sync()

	eng, err := engine.New(engine.Config{TableSize: cfg.TableSize, Seed: cfg.Seed, Logger: logger.Named("engine")})
	if err != nil {
		return err
	}
	if err := tone.apply(eng); err != nil {
		return err
	}

	frames, err := host.RenderFile(*out, eng, host.RenderOptions{
		SampleRate: int(cfg.SampleRate),
		BufferSize: cfg.BufferSize,
		Channels:   cfg.Channels,
		Duration:   *duration,
	})
	if err != nil {
		metrics.RendersTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.RendersTotal.WithLabelValues("ok").Inc()

	logger.Info("render complete",
		zap.String("path", *out),
		zap.Int("frames", frames),
		zap.Stringer("waveform", eng.Params().Waveform),
		zap.Uint64("faults", eng.Faults()))
	return nil
}

func listWaveforms() error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFAMILY")
	for _, w := range engine.Waveforms() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", w.ID(), w, w.Family())
	}
	return tw.Flush()
}

func listDevices() error {
	devices, err := device.List()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tAPI\tCHANNELS\tRATE\tDEFAULT")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.0f\t%s\n", d.Index, d.Name, d.HostAPI, d.MaxOutputChannels, d.DefaultSampleRate, def)
	}
	return tw.Flush()
}
