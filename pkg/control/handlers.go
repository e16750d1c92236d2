package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justyntemme/tonegen/pkg/dsp/analysis"
	"github.com/justyntemme/tonegen/pkg/engine"
	"github.com/justyntemme/tonegen/pkg/framework/debug"
	"github.com/justyntemme/tonegen/pkg/framework/param"
	"github.com/justyntemme/tonegen/pkg/host"
	"github.com/justyntemme/tonegen/pkg/metrics"
)

type stateResponse struct {
	Params    engine.Params         `json:"params"`
	Display   map[string]string     `json:"display"`
	Playable  bool                  `json:"playable"`
	Prepared  bool                  `json:"prepared"`
	Faults    uint64                `json:"faults"`
	Callbacks uint64                `json:"callbacks"`
	Player    host.Stats            `json:"player"`
	Output    *debug.AnalysisResult `json:"output,omitempty"`
}

type waveformInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Family   string `json:"family"`
	Periodic bool   `json:"periodic"`
}

type paramInfo struct {
	ID         uint32  `json:"id"`
	Name       string  `json:"name"`
	ShortName  string  `json:"shortName"`
	Unit       string  `json:"unit,omitempty"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Normalized float64 `json:"normalized"`
	Plain      float64 `json:"plain"`
	Display    string  `json:"display"`
}

type waveformRequest struct {
	Waveform engine.Waveform `json:"waveform"`
}

type frequencyRequest struct {
	Hz         *float64 `json:"hz"`
	Normalized *float64 `json:"normalized"`
}

type levelRequest struct {
	Level *float64 `json:"level"`
}

type paramRequest struct {
	Value string `json:"value"`
}

type playResponse struct {
	Playing  bool   `json:"playing"`
	Playable bool   `json:"playable"`
	StreamID string `json:"streamId,omitempty"`
}

type spectrumResponse struct {
	SampleRate    float64   `json:"sampleRate"`
	Size          int       `json:"size"`
	Window        string    `json:"window"`
	PeakHz        float64   `json:"peakHz"`
	PeakMagnitude float64   `json:"peakMagnitude"`
	MagnitudeDB   []float64 `json:"magnitudeDb"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps engine and host errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownParameter):
		return http.StatusNotFound
	case errors.Is(err, host.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidFrequency),
		errors.Is(err, engine.ErrInvalidLevel),
		errors.Is(err, engine.ErrUnknownWaveform):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// publish mirrors the engine's control state into the gauges
func (s *Server) publish() {
	p := s.engine.Params()
	metrics.ActiveWaveform.Set(float64(p.Waveform.ID()))
	metrics.Frequency.Set(p.Frequency)
	metrics.Level.Set(p.Level)
}

func (s *Server) changed(name string) {
	metrics.ParameterChangesTotal.WithLabelValues(name).Inc()
	s.publish()
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) state() stateResponse {
	display := make(map[string]string)
	for _, p := range s.engine.Parameters().All() {
		display[p.ShortName] = p.FormatPlain(p.GetPlainValue())
	}

	resp := stateResponse{
		Params:    s.engine.Params(),
		Display:   display,
		Playable:  s.engine.Playable(),
		Prepared:  s.engine.Prepared(),
		Faults:    s.engine.Faults(),
		Callbacks: s.engine.Callbacks(),
	}
	if s.player != nil {
		resp.Player = s.player.Stats()
	}
	if s.scope != nil {
		// analyze the most recent output seen by the scope
		out := s.analyzer.Analyze(s.scope.Snapshot().Tail)
		resp.Output = &out
	}
	return resp
}

// GetState handles GET /v1/state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

// ListWaveforms handles GET /v1/waveforms.
func (s *Server) ListWaveforms(w http.ResponseWriter, r *http.Request) {
	all := engine.Waveforms()
	out := make([]waveformInfo, 0, len(all))
	for _, wf := range all {
		out = append(out, waveformInfo{
			ID:       wf.ID(),
			Name:     wf.String(),
			Family:   wf.Family().String(),
			Periodic: wf.Periodic(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// PutWaveform handles PUT /v1/waveform.
func (s *Server) PutWaveform(w http.ResponseWriter, r *http.Request) {
	var req waveformRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.SetWaveform(req.Waveform); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.changed("waveform")
	writeJSON(w, http.StatusOK, s.engine.Params())
}

// PutFrequency handles PUT /v1/frequency. The body carries either hz or
// a normalized control position that follows the frequency skew.
func (s *Server) PutFrequency(w http.ResponseWriter, r *http.Request) {
	var req frequencyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var hz float64
	switch {
	case req.Hz != nil && req.Normalized != nil:
		writeError(w, http.StatusBadRequest, "set either hz or normalized, not both")
		return
	case req.Hz != nil:
		hz = *req.Hz
	case req.Normalized != nil:
		n := *req.Normalized
		if !(n >= 0 && n <= 1) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("normalized %v outside [0, 1]", n))
			return
		}
		hz = s.engine.Parameters().Get(engine.ParamFrequency).Denormalize(n)
	default:
		writeError(w, http.StatusBadRequest, "hz or normalized required")
		return
	}

	if err := s.engine.SetFrequency(hz); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.changed("frequency")
	writeJSON(w, http.StatusOK, s.engine.Params())
}

// PutLevel handles PUT /v1/level.
func (s *Server) PutLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Level == nil {
		writeError(w, http.StatusBadRequest, "level required")
		return
	}
	if err := s.engine.SetLevel(*req.Level); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.changed("level")
	writeJSON(w, http.StatusOK, s.engine.Params())
}

func describe(p *param.Parameter) paramInfo {
	plain := p.GetPlainValue()
	return paramInfo{
		ID:         p.ID,
		Name:       p.Name,
		ShortName:  p.ShortName,
		Unit:       p.Unit,
		Min:        p.Min,
		Max:        p.Max,
		Normalized: p.GetValue(),
		Plain:      plain,
		Display:    p.FormatPlain(plain),
	}
}

// ListParams handles GET /v1/params.
func (s *Server) ListParams(w http.ResponseWriter, r *http.Request) {
	all := s.engine.Parameters().All()
	out := make([]paramInfo, 0, len(all))
	for _, p := range all {
		out = append(out, describe(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// PutParam handles PUT /v1/params/{name}. The value is display text such
// as "1.5 kHz", "25%" or "BL Square".
func (s *Server) PutParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req paramRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.engine.SetParameter(name, req.Value); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// parse failures
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	p := s.engine.Parameters().Lookup(name)
	s.changed(p.ShortName)
	writeJSON(w, http.StatusOK, describe(p))
}

func (s *Server) playResponse() playResponse {
	resp := playResponse{Playable: s.engine.Playable()}
	if s.player != nil {
		stats := s.player.Stats()
		resp.Playing = stats.Playing
		resp.StreamID = stats.StreamID
	}
	return resp
}

// Play handles POST /v1/play.
func (s *Server) Play(w http.ResponseWriter, r *http.Request) {
	if s.player == nil {
		writeError(w, http.StatusServiceUnavailable, "no output stream")
		return
	}
	if err := s.player.Play(); err != nil {
		if !errors.Is(err, host.ErrAlreadyRunning) {
			s.logger.Error("play failed", zap.Error(err))
		}
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !s.engine.Playable() {
		s.logger.Info("playing with no waveform selected")
	}
	writeJSON(w, http.StatusOK, s.playResponse())
}

// Stop handles POST /v1/stop.
func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	if s.player == nil {
		writeError(w, http.StatusServiceUnavailable, "no output stream")
		return
	}
	s.player.Stop()
	writeJSON(w, http.StatusOK, s.playResponse())
}

// Toggle handles POST /v1/toggle.
func (s *Server) Toggle(w http.ResponseWriter, r *http.Request) {
	if s.player == nil {
		writeError(w, http.StatusServiceUnavailable, "no output stream")
		return
	}
	if _, err := s.player.Toggle(); err != nil {
		s.logger.Error("toggle failed", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.playResponse())
}

// GetScope handles GET /v1/scope.
func (s *Server) GetScope(w http.ResponseWriter, r *http.Request) {
	if s.scope == nil {
		writeError(w, http.StatusNotFound, "scope disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.scope.Snapshot())
}

// GetSpectrum handles GET /v1/spectrum?window=hann.
func (s *Server) GetSpectrum(w http.ResponseWriter, r *http.Request) {
	if s.scope == nil {
		writeError(w, http.StatusNotFound, "scope disabled")
		return
	}
	win, err := analysis.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sampleRate := s.engine.SampleRate()
	if sampleRate == 0 && s.player != nil {
		sampleRate = s.player.Settings().SampleRate
	}

	tail := s.scope.Tail(nil)
	if len(tail) < 2 {
		tail = nil
	}
	spec := analysis.Analyze(tail, sampleRate, win)
	peakHz, peakMag := spec.Peak()
	writeJSON(w, http.StatusOK, spectrumResponse{
		SampleRate:    spec.SampleRate,
		Size:          spec.Size,
		Window:        win.String(),
		PeakHz:        peakHz,
		PeakMagnitude: peakMag,
		MagnitudeDB:   spec.DB(),
	})
}

// ListDevices handles GET /v1/devices.
func (s *Server) ListDevices(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeError(w, http.StatusNotImplemented, "device listing unavailable")
		return
	}
	devices, err := s.devices()
	if err != nil {
		s.logger.Error("list devices failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list devices failed")
		return
	}
	writeJSON(w, http.StatusOK, devices)
}
