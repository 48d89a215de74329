// Package server exposes a curation session over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/biomap/internal/curate"
)

// Server holds the state for the curation API
type Server struct {
	controller   *curate.Controller
	resolverBase string
	logger       *slog.Logger
	router       *gin.Engine
}

// Option configures a Server
type Option func(*Server)

// WithResolverBase sets the resolver used to link CURIEs in responses
func WithResolverBase(base string) Option {
	return func(s *Server) { s.resolverBase = strings.TrimRight(base, "/") }
}

// WithLogger sets the request logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server over one controller
func New(ctrl *curate.Controller, opts ...Option) *Server {
	s := &Server{controller: ctrl, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	s.router = r
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving curation API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	api.GET("/predictions", s.handlePredictions)
	api.GET("/summary", s.handleSummary)
	api.POST("/mark/:position/:value", s.handleMark)
	api.POST("/mappings", s.handleAddMapping)
	api.POST("/persist", s.handlePersist)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
