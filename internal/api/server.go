// Package api provides the HTTP server for the Stride engine.
// It exposes the core operations — eligibility, completion commit, stats
// recompute, forgiveness — as a small REST surface.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stride-labs/stride/internal/app/completion"
	"github.com/stride-labs/stride/internal/app/forgiveness"
	"github.com/stride-labs/stride/internal/domain"
	"github.com/stride-labs/stride/internal/health"
	"github.com/stride-labs/stride/internal/infra/sqlite"
)

// Server is the Stride HTTP API server.
type Server struct {
	db             *sqlite.DB
	commits        *completion.Service
	pass           *forgiveness.Scheduler
	health         *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(db *sqlite.DB, commits *completion.Service, pass *forgiveness.Scheduler) *Server {
	return &Server{db: db, commits: commits, pass: pass}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth wires the periodic health checker into /health.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.handleCreateUser)
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/summary", s.handleUserSummary)
			r.Get("/ledger", s.handleUserLedger)
			r.Get("/notifications", s.handleUserNotifications)
		})
		r.Post("/notifications/{id}/shown", s.handleNotificationShown)

		r.Post("/habits", s.handleCreateHabit)
		r.Get("/habits", s.handleListHabits)
		r.Route("/habits/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetHabit)
			r.Get("/eligibility", s.handleEligibility)
			r.Post("/complete", s.handleComplete)
			r.Post("/recalculate", s.handleRecalculate)
			r.Post("/archive", s.handleArchive)
			r.Post("/restore", s.handleRestore)
		})

		r.Post("/forgiveness/run", s.handleForgivenessRun)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil && !s.health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"checks": s.health.Statuses(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrHabitNotFound), errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotEligible), errors.Is(err, domain.ErrHabitArchived),
		errors.Is(err, domain.ErrEmptySchedule), errors.Is(err, domain.ErrNoForgivenessTokens):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotHabitOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidCadence), errors.Is(err, domain.ErrInvalidDifficulty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStoreBusy):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
