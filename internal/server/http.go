package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmmcquay/goban/internal/health"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/session"
)

// HTTPRecorder receives request metrics. *metrics.PrometheusCollector
// satisfies it.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path, status string, durationSecs float64)
}

// HTTPOptions configures the ops server.
type HTTPOptions struct {
	Addr     string
	Checker  *health.Checker
	Lobby    *session.Lobby
	Recorder HTTPRecorder
	// Hub enables the /ws route when set.
	Hub         *Hub
	ReadTimeout time.Duration
}

// HTTPServer serves health checks, metrics, match listings and the
// WebSocket transport.
type HTTPServer struct {
	server *http.Server
	logger logging.ContextLogger

	listener net.Listener
}

// NewHTTPServer builds the router for opts.
func NewHTTPServer(opts HTTPOptions, logger logging.ContextLogger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(opts, logger),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter returns the ops routes.
func NewRouter(opts HTTPOptions, logger logging.ContextLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))
	if opts.Recorder != nil {
		r.Use(PrometheusMiddleware(opts.Recorder))
	}

	r.Get("/health", opts.Checker.LivenessHandler())
	r.Get("/ready", opts.Checker.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if opts.Lobby != nil {
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", listMatches(opts.Lobby, logger))
			r.Get("/{id}", getMatch(opts.Lobby, logger))
		})
	}
	if opts.Hub != nil {
		r.Get("/ws", WebSocketHandler(opts.Hub, opts.ReadTimeout, logger))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger logging.ContextLogger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err.Error())
	}
}

func listMatches(lobby *session.Lobby, logger logging.ContextLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"lobby":   lobby.Stats(),
			"matches": lobby.Matches(),
		}, logger)
	}
}

func getMatch(lobby *session.Lobby, logger logging.ContextLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := lobby.Match(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"}, logger)
			return
		}
		writeJSON(w, http.StatusOK, m.Summary(), logger)
	}
}

// Start listens and serves in the background.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("Starting HTTP ops server", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err.Error())
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *HTTPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully stops the HTTP server.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP ops server")
	return s.server.Shutdown(ctx)
}
