// Package server provides the HTTP API in front of the recommendation
// service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/redink/recommender/internal/config"
	"github.com/redink/recommender/internal/recommend"
)

// Server is the HTTP server for the recommender API.
type Server struct {
	service *recommend.Service
	config  config.Server
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(service *recommend.Service, cfg config.Server, logger *zap.Logger) *Server {
	return &Server{
		service: service,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// Batch AI scoring can take most of a minute on cold caches.
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(s.logRequests)

	r.Post("/api/recommend", s.handleRecommend)
	r.Get("/api/recommend/similar/{record_id}", s.handleSimilar)
	r.Get("/api/recommend/industries", s.handleIndustries)
	r.Post("/api/cache/clear", s.handleCacheClear)
	r.Get("/api/cache/stats", s.handleCacheStats)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
