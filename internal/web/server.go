// Package web provides the HTTP trigger surface for the ingestion pipeline.
//
// It exposes no UI: each endpoint runs one pipeline stage synchronously and
// returns the resulting run statistics as JSON. Per-file problems never
// surface as HTTP errors; a non-zero failure counter in the response is the
// caller's signal to raise a warning.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/Ingest/internal/config"
	"github.com/JonMunkholm/Ingest/internal/logging"
	"github.com/JonMunkholm/Ingest/internal/pipeline"
	"github.com/JonMunkholm/Ingest/internal/web/middleware"
)

// DispatchRunner runs one dispatch sweep.
type DispatchRunner interface {
	Run(ctx context.Context) (*pipeline.DispatchStats, error)
}

// LoadRunner runs one load sweep.
type LoadRunner interface {
	Run(ctx context.Context) (*pipeline.LoadStats, error)
}

// Server is the HTTP server that triggers pipeline runs.
type Server struct {
	dispatcher DispatchRunner
	loader     LoadRunner
	router     *chi.Mux
	server     *http.Server
}

// NewServer creates a Server wiring routes and middleware.
func NewServer(dispatcher DispatchRunner, loader LoadRunner, cfg *config.ServerConfig) *Server {
	s := &Server{
		dispatcher: dispatcher,
		loader:     loader,
		router:     chi.NewRouter(),
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Timeout(cfg.RequestTimeout))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/dispatch", s.handleDispatch)
		r.Post("/load", s.handleLoad)
		r.Post("/run", s.handleRun)
	})

	s.server = &http.Server{
		Addr:    cfg.Addr(),
		Handler: s.router,
	}
	return s
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dispatcher.Run(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	stats, err := s.loader.Run(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// RunResult bundles both stages of a full pipeline run.
type RunResult struct {
	Dispatch *pipeline.DispatchStats `json:"dispatch"`
	Load     *pipeline.LoadStats     `json:"load"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	dispatchStats, err := s.dispatcher.Run(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	loadStats, err := s.loader.Run(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, RunResult{Dispatch: dispatchStats, Load: loadStats})
}

// respondError logs the technical error and returns it as JSON. A missing
// root folder is the caller's misconfiguration, not a server fault.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, pipeline.ErrRootNotFound) {
		status = http.StatusConflict
	}

	logging.FromContext(r.Context()).Error("pipeline run failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
