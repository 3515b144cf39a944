// Package server provides the HTTP API façade over the reasoning engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sbomrag/internal/config"
	"sbomrag/internal/engine"
)

// Server is the HTTP server exposing indexing and ask endpoints.
type Server struct {
	engine    *engine.Engine
	storeType string
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(eng *engine.Engine, storeType string, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		engine:    eng,
		storeType: storeType,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/inventories", s.handleIndexInventory)
	r.Post("/api/v1/projects/{id}/ask", s.handleAsk)
	r.Get("/api/v1/projects", s.handleListProjects)
	r.Get("/api/v1/projects/{id}/inventory", s.handleGetInventory)
	r.Get("/api/v1/status", s.handleStatus)
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
