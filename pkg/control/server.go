// Package control exposes the generator's controls over HTTP. It plays the
// role of the UI thread: every handler runs off the audio thread and only
// touches the engine through its setters.
package control

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/justyntemme/tonegen/pkg/dsp/analysis"
	"github.com/justyntemme/tonegen/pkg/engine"
	"github.com/justyntemme/tonegen/pkg/framework/debug"
	"github.com/justyntemme/tonegen/pkg/host"
)

// DeviceLister enumerates output devices
type DeviceLister func() ([]host.DeviceInfo, error)

// Options wires a Server to its collaborators. Scope and Devices are optional.
type Options struct {
	Engine  *engine.Engine
	Player  *host.Player
	Scope   *analysis.Scope
	Devices DeviceLister
	Logger  *zap.Logger
}

// Server routes control requests
type Server struct {
	engine   *engine.Engine
	player   *host.Player
	scope    *analysis.Scope
	devices  DeviceLister
	logger   *zap.Logger
	analyzer *debug.AudioAnalyzer
}

// New creates a server and publishes the engine's initial state to the metrics
func New(opts Options) *Server {
	s := &Server{
		engine:   opts.Engine,
		player:   opts.Player,
		scope:    opts.Scope,
		devices:  opts.Devices,
		logger:   debug.OrNop(opts.Logger),
		analyzer: debug.NewAudioAnalyzer(),
	}
	s.publish()
	return s
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/state", s.GetState)
		r.Get("/waveforms", s.ListWaveforms)

		r.Put("/waveform", s.PutWaveform)
		r.Put("/frequency", s.PutFrequency)
		r.Put("/level", s.PutLevel)

		r.Route("/params", func(r chi.Router) {
			r.Get("/", s.ListParams)
			r.Put("/{name}", s.PutParam)
		})

		r.Post("/play", s.Play)
		r.Post("/stop", s.Stop)
		r.Post("/toggle", s.Toggle)

		r.Get("/scope", s.GetScope)
		r.Get("/spectrum", s.GetSpectrum)
		r.Get("/devices", s.ListDevices)
	})

	return r
}

// logging logs one line per request after it completes
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestId", chimw.GetReqID(r.Context())))
	})
}
