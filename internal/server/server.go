// Package server exposes repair and analysis over HTTP with gin.
//
// Routes:
//
//	POST /v1/repair   repair a query, returns engine.Report
//	POST /v1/analyze  MFS and XSS of a query
//	GET  /healthz     liveness
//	GET  /metrics     Prometheus metrics
//
// Queries are sent in the workload source form (select, where, filters)
// with optional prefixes, and are compiled per request.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/engine"
)

// Defaults for server options.
const (
	DefaultRequestTimeout = 60 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// Server serves the HTTP API over one data source.
//
// Thread-safety: handlers run concurrently; each request builds its own
// repair state inside the engine.
type Server struct {
	source     datasource.Source
	engineOpts []engine.EngineOption
	engine     *engine.Engine
	defaultK   int
	timeout    time.Duration
	logger     *slog.Logger
	router     *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithEngineOptions sets the options every repair engine is built with.
func WithEngineOptions(opts ...engine.EngineOption) Option {
	return func(s *Server) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithDefaultK sets k for requests that omit it. Default: 1.
func WithDefaultK(k int) Option {
	return func(s *Server) {
		s.defaultK = max(k, 1)
	}
}

// WithRequestTimeout bounds each repair or analysis. Default: 60s.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server over src.
func New(src datasource.Source, opts ...Option) *Server {
	s := &Server{
		source:   src,
		defaultK: engine.DefaultK,
		timeout:  DefaultRequestTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engineOpts = append([]engine.EngineOption{engine.WithLogger(s.logger)}, s.engineOpts...)
	s.engine = engine.New(src, s.engineOpts...)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), instrument())

	router.GET("/healthz", s.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/repair", s.HandleRepair)
		v1.POST("/analyze", s.HandleAnalyze)
	}
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// engineFor returns the engine for a request strategy. An empty strategy
// uses the configured engine.
func (s *Server) engineFor(strategy string) (*engine.Engine, error) {
	if strategy == "" {
		return s.engine, nil
	}
	st, err := engine.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if st == s.engine.Strategy() {
		return s.engine, nil
	}
	opts := append(append([]engine.EngineOption{}, s.engineOpts...), engine.WithStrategy(st))
	return engine.New(s.source, opts...), nil
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
