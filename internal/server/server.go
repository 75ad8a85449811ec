// Package server exposes the simulator as an HTTP JSON service with
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/agbru/canonsim/internal/analysis"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/logging"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/simulation"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Config holds listener and request limits.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// RequestTimeout bounds one simulation.
	RequestTimeout  time.Duration
	Security        SecurityConfig
}

// DefaultConfig returns a Config listening on :8080.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    5 * time.Minute,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		RequestTimeout:  4 * time.Minute,
		Security:        DefaultSecurityConfig(),
	}
}

// Server serves simulation requests.
type Server struct {
	cfg     Config
	runner  *orchestration.Runner
	metrics *Metrics
	logger  logging.Logger
}

// New creates a Server. A nil logger selects the default logger.
func New(cfg Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Server{
		cfg:     cfg,
		runner:  orchestration.NewRunner(orchestration.WithLogger(logger)),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// SimulateRequest is the body of POST /simulate. Levels 0 means unbounded;
// Workers 0 means one shard.
type SimulateRequest struct {
	Particles   int    `json:"particles"`
	TotalEnergy int    `json:"total_energy"`
	Levels      int    `json:"levels"`
	Workers     int    `json:"workers"`
	Seed        uint64 `json:"seed"`
}

// SimulateResponse is the body of a successful POST /simulate.
type SimulateResponse struct {
	analysis.Summary
	Particles   int     `json:"particles"`
	TotalEnergy int     `json:"total_energy"`
	Levels      string  `json:"levels"`
	Workers     int     `json:"workers"`
	Seed        uint64  `json:"seed"`
	DurationMS  float64 `json:"duration_ms"`
	Warning     string  `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return SecurityMiddleware(s.cfg.Security, s.metricsMiddleware(h))
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/simulate", wrap(s.handleSimulate))
	mux.HandleFunc("/healthz", wrap(s.handleHealth))
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return apperrors.WrapError(err, "server shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var body SimulateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if err := s.checkLimits(body); err != nil {
		s.writeAppError(w, err)
		return
	}

	workers := max(body.Workers, 1)
	req := orchestration.Request{
		Params: simulation.Params{
			Particles:   body.Particles,
			TotalEnergy: body.TotalEnergy,
			Capacity:    simulation.FromLevelCount(body.Levels),
		},
		Workers: workers,
		Seed:    body.Seed,
	}

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx, req)
	if err != nil {
		s.metrics.RecordSimulation(outcomeError, 0, 0)
		s.writeAppError(w, err)
		return
	}
	s.metrics.RecordSimulation(outcomeOK, res.Duration, body.TotalEnergy)

	fit, fitErr := analysis.Analyze(res.Histogram)
	resp := SimulateResponse{
		Summary:     analysis.Summarize(res.Histogram, fit),
		Particles:   body.Particles,
		TotalEnergy: body.TotalEnergy,
		Levels:      req.Capacity.String(),
		Workers:     workers,
		Seed:        res.Seed,
		DurationMS:  float64(res.Duration.Microseconds()) / 1000,
	}
	if fitErr != nil {
		resp.Warning = fitErr.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// checkLimits rejects requests larger than the service accepts. Semantic
// validation is left to the runner.
func (s *Server) checkLimits(body SimulateRequest) error {
	sec := s.cfg.Security
	switch {
	case sec.MaxParticles > 0 && body.Particles > sec.MaxParticles:
		return apperrors.NewValidationError("particles", "must not exceed %d", sec.MaxParticles)
	case sec.MaxTotalEnergy > 0 && body.TotalEnergy > sec.MaxTotalEnergy:
		return apperrors.NewValidationError("total_energy", "must not exceed %d", sec.MaxTotalEnergy)
	case sec.MaxWorkers > 0 && body.Workers > sec.MaxWorkers:
		return apperrors.NewValidationError("workers", "must not exceed %d", sec.MaxWorkers)
	case body.Levels < 0:
		return apperrors.NewValidationError("levels", "must be non-negative, got %d", body.Levels)
	case body.Workers < 0:
		return apperrors.NewValidationError("workers", "must be non-negative, got %d", body.Workers)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.RecordRequest(r.URL.Path, rec.status)
	}
}

// statusFor maps an application error to an HTTP status.
func statusFor(err error) int {
	switch apperrors.ExitCode(err) {
	case apperrors.ExitErrorConfig:
		return http.StatusBadRequest
	case apperrors.ExitErrorSaturation:
		return http.StatusUnprocessableEntity
	case apperrors.ExitErrorTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ExitErrorCanceled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var ve apperrors.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("simulation failed", err)
	}
	s.writeError(w, code, resp)
}

func (s *Server) writeError(w http.ResponseWriter, code int, resp errorResponse) {
	s.writeJSON(w, code, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.logger != nil {
		s.logger.Error("encode response", err)
	}
}
