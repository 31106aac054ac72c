// Package server provides the HTTP REST API for the audit dashboard.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/avelar/sitegauge/internal/artifacts"
	"github.com/avelar/sitegauge/internal/pagemeta"
	"github.com/avelar/sitegauge/internal/pipeline"
	"github.com/avelar/sitegauge/internal/store"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	store      *store.Store
	runner     *pipeline.Runner
	artifacts  artifacts.Store
	meta       *pagemeta.Fetcher
	auditDelay time.Duration
	log        *zap.SugaredLogger
}

// Config holds server configuration
type Config struct {
	Port       string
	AuditDelay time.Duration
}

// Deps are the collaborators the handlers need. Artifacts may be nil,
// which turns the raw and screenshot endpoints into 404s.
type Deps struct {
	Store     *store.Store
	Runner    *pipeline.Runner
	Artifacts artifacts.Store
	Meta      *pagemeta.Fetcher
	Log       *zap.SugaredLogger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Server{
		store:      deps.Store,
		runner:     deps.Runner,
		artifacts:  deps.Artifacts,
		meta:       deps.Meta,
		auditDelay: cfg.AuditDelay,
		log:        log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/runs", s.handleCreateRun)
	mux.HandleFunc("POST /api/runs/stream", s.handleRunStream)

	mux.HandleFunc("GET /api/results", s.handleListResults)
	mux.HandleFunc("GET /api/results/{id}", s.handleGetResult)
	mux.HandleFunc("GET /api/results/{id}/raw/{route}", s.handleGetRaw)
	mux.HandleFunc("GET /api/results/{id}/screenshot", s.handleGetScreenshot)
	mux.HandleFunc("GET /api/domains", s.handleListDomains)
	mux.HandleFunc("GET /api/compare", s.handleCompare)

	mux.HandleFunc("GET /api/pagemeta", s.handlePageMeta)
	mux.HandleFunc("GET /api/storage/status", s.handleStorageStatus)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.withLogging(s.withRecovery(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // audit runs are slow by nature
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRecovery turns handler panics into 500s instead of dropped connections
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Errorw("handler panic", "path", r.URL.Path, "panic", rec)
				s.errorResponse(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with its duration
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Infow("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnw("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
