package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/coverwatch/core"
	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for rejected requests and failed analyses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

func (s *Server) handleTrends(c *gin.Context) {
	a, ok := s.analyzerFor(c)
	if !ok {
		return
	}
	report, err := a.Trends(c.Request.Context())
	if err == nil {
		s.collector.ObserveTrends(report)
	}
	respond(c, report, err)
}

func (s *Server) handleRegressions(c *gin.Context) {
	a, ok := s.analyzerFor(c)
	if !ok {
		return
	}
	report, err := a.Regressions(c.Request.Context())
	if err == nil {
		s.collector.ObserveRegressions(report)
	}
	respond(c, report, err)
}

func (s *Server) handleThresholds(c *gin.Context) {
	a, ok := s.analyzerFor(c)
	if !ok {
		return
	}
	report, err := a.Thresholds(c.Request.Context())
	if err == nil {
		s.collector.ObserveThresholds(report)
	}
	respond(c, report, err)
}

func (s *Server) handleFlaky(c *gin.Context) {
	a, ok := s.analyzerFor(c)
	if !ok {
		return
	}
	report, err := a.Flaky(c.Request.Context())
	if err == nil {
		s.collector.ObserveFlaky(report)
	}
	respond(c, report, err)
}

func (s *Server) handleStatus(c *gin.Context) {
	report := s.analyzerAt(time.Now()).Connectivity(c.Request.Context())
	s.collector.ObserveConnectivity(report)
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleCoverage(c *gin.Context) {
	a, ok := s.analyzerFor(c)
	if !ok {
		return
	}
	component := strings.ToLower(strings.TrimSpace(c.Param("component")))
	if component == schema.OverallComponent {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "overall is a threshold key, not a component"})
		return
	}
	m, err := a.CurrentCoverage(c.Request.Context(), component)
	respond(c, m, err)
}

// analyzerAt returns an analyzer whose window ends at now.
func (s *Server) analyzerAt(now time.Time) *core.Analyzer {
	return s.analyzer.WithConfig(s.analyzer.Config().CloneAt(now))
}

// analyzerFor pins the request to the current time and applies the optional ?days= override.
// It writes a 400 response and returns false when the value is invalid.
func (s *Server) analyzerFor(c *gin.Context) (*core.Analyzer, bool) {
	a := s.analyzerAt(time.Now())
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err == nil {
			err = contract.RevalidateWindow(a.Config(), days)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("days must be an integer between 1 and %d", contract.MaxLookbackDays),
			})
			return nil, false
		}
	}
	return a, true
}

// respond writes the report. Missing input data is a 404 carrying the report itself,
// so clients still see the load statistics and error field.
func respond(c *gin.Context, body any, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, body)
	case errors.Is(err, core.ErrNoHistory), errors.Is(err, core.ErrNoCoverage), errors.Is(err, core.ErrNoLaunchCoverage):
		c.JSON(http.StatusNotFound, body)
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
