// Package api serves the analyses as a JSON HTTP API with Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/coverwatch/core"
	"github.com/huangsam/coverwatch/internal/metrics"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Server wires the HTTP routes to an analyzer.
type Server struct {
	analyzer  *core.Analyzer
	collector *metrics.Collector
	logger    logrus.FieldLogger
	version   string
	engine    *gin.Engine
}

// NewServer creates the router. Every analysis served also updates collector.
func NewServer(a *core.Analyzer, collector *metrics.Collector, logger logrus.FieldLogger, version string) *Server {
	if collector == nil {
		collector = metrics.New()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{analyzer: a, collector: collector, logger: logger, version: version}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(engine)
	s.engine = engine
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("Serving coverwatch API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down coverwatch API")
		return srv.Shutdown(shutdownCtx)
	}
}

// registerRoutes registers every route with the engine.
//
//	GET /health
//	GET /metrics
//	GET /api/v1/trends
//	GET /api/v1/regressions
//	GET /api/v1/thresholds
//	GET /api/v1/flaky
//	GET /api/v1/status
//	GET /api/v1/coverage/:component
func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(s.collector.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/trends", s.handleTrends)
		v1.GET("/regressions", s.handleRegressions)
		v1.GET("/thresholds", s.handleThresholds)
		v1.GET("/flaky", s.handleFlaky)
		v1.GET("/status", s.handleStatus)
		v1.GET("/coverage/:component", s.handleCoverage)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Handled request")
	}
}
