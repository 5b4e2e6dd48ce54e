// Package server provides the inspection HTTP server of the recognizer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/pkg/logger"
	"github.com/ayusman/mudra/pkg/metrics"
)

// Config holds the server configuration.
type Config struct {
	Candidates *gesture.CandidateSet
	Thresholds gesture.Thresholds
	// Store exposes broker queue depths when set.
	Store *store.Store
}

// Server represents the inspection HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	start   time.Time
	results *ResultsHandler
	log     logger.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config:  config,
		mux:     http.NewServeMux(),
		start:   time.Now(),
		results: NewResultsHandler(),
		log:     logger.NamedOrNop("server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	s.mux.Handle("/api/results/stream", s.results)

	if s.config.Candidates != nil {
		candidates := api.NewCandidateHandler(s.config.Candidates)
		s.mux.Handle("/api/candidates", candidates)
		s.mux.Handle("/api/candidates/", candidates)
		s.mux.Handle("/api/match", api.NewMatchHandler(s.config.Candidates, gesture.NewMatcher(s.config.Thresholds)))
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/queues", api.NewQueueHandler(s.config.Store))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Results returns the live result stream, for wiring to the recognizer.
func (s *Server) Results() *ResultsHandler {
	return s.results
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.start).String(),
		"clients": s.results.Clients(),
	}
	if s.config.Candidates != nil {
		response["candidates"] = s.config.Candidates.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "inspection server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.results.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
