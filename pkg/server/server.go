// Package server exposes the scheduling orchestrator over HTTP for the
// calendar backend that consumes it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/campusclock/timeblock/pkg/planner"
	"github.com/campusclock/timeblock/pkg/schedule"
	"github.com/campusclock/timeblock/pkg/solver"
	"github.com/campusclock/timeblock/pkg/storage"
)

// Server represents the HTTP API server
type Server struct {
	planner    *planner.Planner
	solver     *solver.Client
	store      *storage.RunStore
	port       int
	logger     *Logger
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance. The store may be nil, in
// which case run history endpoints report an empty history.
func NewServer(p *planner.Planner, solverClient *solver.Client, store *storage.RunStore, port int, logger *Logger) *Server {
	return &Server{
		planner: p,
		solver:  solverClient,
		store:   store,
		port:    port,
		logger:  logger,
	}
}

// Start starts the HTTP server and blocks until ctx is canceled or the
// server fails.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/schedule", s.handleSchedule)
	mux.HandleFunc("/api/runs/recent", s.handleRecentRuns)
	mux.HandleFunc("/api/runs/stats", s.handleRunStats)
	mux.HandleFunc("/api/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}
	s.startedAt = time.Now()

	s.logger.Info("starting HTTP server", "port", s.port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.httpServer.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleSchedule handles POST /api/schedule
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req schedule.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	start := time.Now()
	result, err := s.planner.Schedule(r.Context(), &req)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}

	s.logger.Info("scheduling run finished",
		"status", result.Status,
		"success_rate", result.SuccessRate,
		"attempts", result.AttemptCount,
		"duration_ms", time.Since(start).Milliseconds())

	if s.store != nil && result.Metrics != nil {
		if err := s.store.SaveRun(result.Metrics); err != nil {
			// History is best-effort; the scheduling result still stands
			s.logger.Warn("failed to save run history", "error", err)
		}
	}

	s.writeJSON(w, http.StatusOK, result)
}

// writeScheduleError maps planner errors onto HTTP statuses
func (s *Server) writeScheduleError(w http.ResponseWriter, err error) {
	var validationErrs schedule.ValidationErrors
	var timeoutErr *solver.TimeoutError
	var requestErr *solver.RequestError

	switch {
	case errors.As(err, &validationErrs):
		s.logger.Warn("rejected invalid scheduling request", "error", err)
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &timeoutErr):
		s.logger.Error("solver timed out", "timeout", timeoutErr.Timeout)
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &requestErr):
		s.logger.Error("solver rejected request", "status", requestErr.StatusCode, "error", requestErr.ErrorCode)
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("scheduling run failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleRecentRuns handles GET /api/runs/recent
func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if param := r.URL.Query().Get("limit"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed <= 0 || parsed > 500 {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	if s.store == nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": []interface{}{}})
		return
	}

	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		s.logger.Error("failed to load recent runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load run history")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// handleRunStats handles GET /api/runs/stats
func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.store == nil {
		s.writeJSON(w, http.StatusOK, &storage.AggregatedStats{})
		return
	}

	stats, err := s.store.Stats(time.Now().Add(-24 * time.Hour))
	if err != nil {
		s.logger.Error("failed to aggregate run stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to aggregate run history")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}

	if s.solver != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if info, err := s.solver.Health(ctx); err != nil {
			health["solver"] = "unreachable"
		} else {
			health["solver"] = info.Status
		}
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
