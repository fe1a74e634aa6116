package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/footprint-extrusion/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner executes one extrusion request.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
}

// Server exposes the solids endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	runner     Runner
	busy       chan struct{}
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/solids, /healthz, /readyz, and
// /metrics routes. Only one run is admitted at a time.
func NewServer(addr string, ready sharedobs.ReadinessChecker, runner Runner, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A large area can take many minutes of tile downloads.
			WriteTimeout: 30 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		busy:   make(chan struct{}, 1),
		logger: logger,
	}

	mux.HandleFunc("GET /v1/solids", s.handleSolids)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSolids(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	select {
	case s.busy <- struct{}{}:
		defer func() { <-s.busy }()
	default:
		sharedobs.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "a run is already in progress"})
		return
	}

	res := s.runner.Run(r.Context(), req)
	s.logger.Info("run finished", "run_id", res.RunID, "stage", res.Stage, "solids", len(res.Solids))
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

// parseRequest reads lat, lon, radius and run from the query string. Absent
// coordinates are passed through so the pipeline can reject them; run
// defaults to true.
func parseRequest(r *http.Request) (pipeline.Request, error) {
	q := r.URL.Query()
	req := pipeline.Request{Run: true}

	var err error
	if req.Latitude, err = optionalFloat(q.Get("lat"), "lat"); err != nil {
		return pipeline.Request{}, err
	}
	if req.Longitude, err = optionalFloat(q.Get("lon"), "lon"); err != nil {
		return pipeline.Request{}, err
	}
	if req.Radius, err = optionalFloat(q.Get("radius"), "radius"); err != nil {
		return pipeline.Request{}, err
	}
	if v := q.Get("run"); v != "" {
		run, err := strconv.ParseBool(v)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("invalid run: %q", v)
		}
		req.Run = run
	}
	return req, nil
}

func optionalFloat(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, s)
	}
	return &v, nil
}
