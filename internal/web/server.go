// Package web provides the HTTP surface of the ingestion service: batch
// CSV upload, the text report converter, data reads and reset operations.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yangkidd/socialdw/internal/config"
	"github.com/yangkidd/socialdw/internal/ingest"
	"github.com/yangkidd/socialdw/internal/store"
)

// DataStore is the query and maintenance surface the read and reset
// endpoints serve. *store.Store implements it.
type DataStore interface {
	MaxMetricDate(ctx context.Context) (string, bool, error)
	LatestMetrics(ctx context.Context, limit int) ([]store.MetricPoint, error)
	TopContent(ctx context.Context, limit int) ([]store.ContentPerformance, error)
	RecentUploads(ctx context.Context, limit int) ([]store.UploadLogEntry, error)
	ResetAll(ctx context.Context) error
	DeletePlatform(ctx context.Context, platform string) error
}

// Server is the HTTP server for the upload service.
type Server struct {
	cfg    *config.Config
	ingest *ingest.Service
	store  DataStore
	gate   *uploadGate
	router *chi.Mux
	server *http.Server
}

// NewServer wires middleware and routes around the ingest service.
func NewServer(cfg *config.Config, svc *ingest.Service, st DataStore) *Server {
	s := &Server{
		cfg:    cfg,
		ingest: svc,
		store:  st,
		gate:   newUploadGate(cfg.Upload.MaxConcurrent),
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Upload endpoints get their own, tighter limit.
		if s.cfg.Rate.Enabled {
			uploadLimiter := newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute)
			r.With(uploadLimiter.middleware).Post("/upload", s.handleUpload)
			r.With(uploadLimiter.middleware).Post("/report", s.handleReport)
		} else {
			r.Post("/upload", s.handleUpload)
			r.Post("/report", s.handleReport)
		}

		r.Get("/status", s.handleStatus)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/content", s.handleContent)
		r.Get("/uploads", s.handleUploadLog)

		r.Post("/reset", s.handleResetAll)
		r.Delete("/platform/{platform}", s.handleDeletePlatform)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for in-flight upload
// batches to finish so their transactions can commit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.gate.drain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}
