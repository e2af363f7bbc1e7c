// Package server exposes the crawler's admin surface: a health check, the
// Prometheus metrics endpoint, and the live progress of the running cycle.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/models"
)

// ProgressSource reports the running cycle's latest progress, or nil when
// no cycle is active.
type ProgressSource interface {
	LastProgress() *models.Progress
}

type Server struct {
	pool     *pgxpool.Pool
	progress ProgressSource
	logger   *zap.SugaredLogger
}

func New(pool *pgxpool.Pool, progress ProgressSource, logger *zap.Logger) *Server {
	return &Server{
		pool:     pool,
		progress: progress,
		logger:   logger.Sugar(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/progress", s.handleProgress)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe runs the admin server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnw("Admin server shutdown failed", "error", err)
		}
	}()

	s.logger.Infow("Admin server listening", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.pool.Ping(ctx); err != nil {
			s.logger.Warnw("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p := s.progress.LastProgress()
	if p == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"active": true, "progress": p})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
