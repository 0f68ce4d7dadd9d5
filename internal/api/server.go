package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/agency-report/pkg/logging"
	"github.com/Sternrassler/agency-report/pkg/metrics"
	"github.com/Sternrassler/agency-report/pkg/report"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Options configures a Server.
type Options struct {
	// RequestTimeout bounds one report run; zero means no extra bound
	RequestTimeout time.Duration

	// Ready is consulted by /ready; nil is always ready
	Ready ReadinessCheck
}

// Server wires HTTP handlers to the report generator.
type Server struct {
	router   chi.Router
	fetcher  report.PageFetcher
	defaults report.Config
	opts     Options
	logger   zerolog.Logger
}

// Envelope is the response body of every API route.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Code    int    `json:"code"`
}

// NewServer constructs a Server with middleware and routes. defaults holds
// the report parameters used when a query does not override them.
func NewServer(fetcher report.PageFetcher, defaults report.Config, opts Options) *Server {
	s := &Server{
		fetcher:  fetcher,
		defaults: defaults,
		opts:     opts,
		logger:   logging.NewLogger("api"),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/docs/openapi.json", s.openAPI)

	r.Route("/api", func(r chi.Router) {
		r.Get("/list-agencies", s.listAgencies)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) listAgencies(w http.ResponseWriter, r *http.Request) {
	cfg, err := applyQuery(s.defaults, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	gen, err := report.NewGenerator(s.fetcher, cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	summaries, err := gen.Generate(ctx)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		s.logger.Warn().
			Err(err).
			Str("request_id", RequestID(r.Context())).
			Msg("Report run failed")
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Message: "Data fetched successfully",
		Data:    summaries,
		Code:    http.StatusOK,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Message: message, Code: status})
}
