// Package httpapi exposes the HTTP interface for the aggregation service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/metrics"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/model"
	"github.com/bawmal/GetNoticed-Assistant-sub001/internal/service"
)

// JobService is the slice of the consumer service the API needs.
type JobService interface {
	GetJobsForUser(ctx context.Context, userID string) ([]model.JobPosting, error)
	ForceRefreshUser(ctx context.Context, userID string) ([]model.JobPosting, error)
	TriggerBatchUpdate(ctx context.Context) ([]model.JobPosting, error)
	GetCacheStats(ctx context.Context) (model.CacheStats, error)
	GetSystemHealth(ctx context.Context) service.Health
}

// Server wires HTTP handlers to the consumer service.
type Server struct {
	router chi.Router
	svc    JobService
	logger *slog.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc JobService, logger *slog.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/users/{user_id}", func(r chi.Router) {
			r.Get("/jobs", s.getUserJobs)
			r.Post("/refresh", s.refreshUser)
		})
		r.Post("/batch/run", s.runBatch)
		r.Get("/cache/stats", s.cacheStats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	h := s.svc.GetSystemHealth(r.Context())
	status := http.StatusOK
	if h.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

type jobsResponse struct {
	UserID string             `json:"user_id"`
	Count  int                `json:"count"`
	Jobs   []model.JobPosting `json:"jobs"`
}

func (s *Server) getUserJobs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	jobs, err := s.svc.GetJobsForUser(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, "loading jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobsResponse{UserID: userID, Count: len(jobs), Jobs: jobs})
}

func (s *Server) refreshUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	jobs, err := s.svc.ForceRefreshUser(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, "refreshing jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobsResponse{UserID: userID, Count: len(jobs), Jobs: jobs})
}

func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svc.TriggerBatchUpdate(r.Context())
	if err != nil {
		s.serviceError(w, r, "batch run", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(jobs), "jobs": jobs})
}

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GetCacheStats(r.Context())
	if err != nil {
		s.serviceError(w, r, "cache stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// serviceError maps service failures onto HTTP statuses. Unknown users come
// back as sql.ErrNoRows-style "not found" errors from the preference store.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error("request failed", "op", op, "path", r.URL.Path, "error", err)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

// Middleware.

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, time.Since(start))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "path", r.URL.Path, "error", rec)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
