package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/coverwatch/core"
	"github.com/huangsam/coverwatch/internal/contract"
	mcp_internal "github.com/huangsam/coverwatch/internal/mcp"
	"github.com/huangsam/coverwatch/internal/reportportal"
	"github.com/huangsam/coverwatch/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// startNow is the config clock at server start. Requests must not rely on it.
var startNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, dir string, sources ...contract.LaunchSource) *server.MCPServer {
	t.Helper()
	return newTestServerAt(t, dir, startNow, sources...)
}

// newTestServerAt builds the server with its config clock fixed at now.
func newTestServerAt(t *testing.T, dir string, now time.Time, sources ...contract.LaunchSource) *server.MCPServer {
	t.Helper()
	cfg := &contract.Config{
		Days:           30,
		Now:            now,
		ReportsDir:     dir,
		HistoryPattern: contract.DefaultHistoryPattern,
		CoverageDir:    dir,
		Source:         schema.FilesSource,
		Trend:          schema.DefaultTrendParams(),
		Regression:     schema.DefaultRegressionThresholds(),
		Thresholds:     schema.DefaultThresholds(),
		MinRuns:        contract.DefaultMinRuns,
		FlakyLimit:     contract.DefaultFlakyLimit,
		Quiet:          true,
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return mcp_internal.NewMCPServer(core.NewAnalyzer(cfg, logger, nil, sources), "test")
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func writeSeries(t *testing.T, dir, component string, values ...float64) {
	t.Helper()
	writeSeriesEndingAt(t, dir, component, time.Now().UTC().AddDate(0, 0, -1), values...)
}

// writeSeriesEndingAt writes one snapshot per value, one day apart, the last one at end.
func writeSeriesEndingAt(t *testing.T, dir, component string, end time.Time, values ...float64) {
	t.Helper()
	for i, v := range values {
		at := end.AddDate(0, 0, i+1-len(values))
		doc := fmt.Sprintf(`{"metadata": {"generated_at": %q}, "summary": {"components": {%q: {"avg_coverage": %v}}}}`,
			at.Format(time.RFC3339), component, v)
		name := "tv_coverage_analytics_report_" + at.Format("20060102_150405") + ".json"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
	}
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	t.Run("get_coverage_trends invalid days", func(t *testing.T) {
		res := callTool(t, s, "get_coverage_trends", map[string]any{"days": -5.0})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, resultText(res), "days must be an integer between 1 and 3650")
	})

	t.Run("detect_regressions invalid source", func(t *testing.T) {
		res := callTool(t, s, "detect_regressions", map[string]any{"source": "jenkins"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "invalid source 'jenkins'")
	})

	t.Run("check_thresholds invalid override", func(t *testing.T) {
		res := callTool(t, s, "check_thresholds", map[string]any{"thresholds": "xradio=70"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "expected 'component:value'")
	})

	t.Run("get_current_coverage overall", func(t *testing.T) {
		res := callTool(t, s, "get_current_coverage", map[string]any{"component": "overall"})
		assert.True(t, res.IsError)
	})
}

func TestMCPServerHandlers_Trends(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "xradio", 70, 71, 72, 73, 74)
	s := newTestServer(t, dir)

	res := callTool(t, s, "get_coverage_trends", map[string]any{"component": "xradio"})
	require.False(t, res.IsError, resultText(res))

	var report schema.TrendReport
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &report))
	require.Len(t, report.Trends, 1)
	assert.Equal(t, schema.Improving, report.Trends["xradio"].Direction)

	res = callTool(t, s, "get_coverage_trends", map[string]any{"component": "astroviper"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), `no history for component "astroviper"`)
}

func TestMCPServerHandlers_NoHistory(t *testing.T) {
	res := callTool(t, newTestServer(t, t.TempDir()), "detect_regressions", map[string]any{"source": "history"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), core.ErrNoHistory.Error())
}

func TestMCPServerHandlers_Thresholds(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "xradio", 70, 72)
	s := newTestServer(t, dir)

	res := callTool(t, s, "check_thresholds", map[string]any{"source": "history", "thresholds": "xradio:80,overall:50"})
	require.False(t, res.IsError, resultText(res))

	var report schema.ThresholdReport
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &report))
	assert.Equal(t, 80.0, report.Components["xradio"].Threshold)
	assert.Equal(t, schema.FailAction, report.OverallResult)
}

func TestMCPServerHandlers_ReportPortal(t *testing.T) {
	src := reportportal.NewMockLaunchSource("primary")
	src.On("CheckConnection", mock.Anything).Return(nil)
	src.On("FetchCurrentCoverage", mock.Anything, "xradio", mock.Anything).Return(74.5, true, nil)
	src.On("FetchLaunchesSince", mock.Anything, mock.Anything).Return(nil, errors.New("HTTP 500"))
	s := newTestServer(t, t.TempDir(), src)

	res := callTool(t, s, "check_reportportal_status", nil)
	require.False(t, res.IsError)
	var status schema.ConnectivityReport
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &status))
	assert.Equal(t, 1, status.Reachable)

	res = callTool(t, s, "get_current_coverage", map[string]any{"component": "XRadio"})
	require.False(t, res.IsError, resultText(res))
	assert.Contains(t, resultText(res), `"coverage_percentage": 74.5`)

	res = callTool(t, s, "find_flaky_tests", map[string]any{"limit": 3.0})
	require.False(t, res.IsError)
	var flaky schema.FlakyReport
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &flaky))
	assert.Empty(t, flaky.FlakyTests)
	assert.Equal(t, "HTTP 500", flaky.Endpoints[0].Error)
}

func TestMCPServerHandlers_WindowFollowsWallClock(t *testing.T) {
	dir := t.TempDir()
	// Inside the window as of startNow, 40 to 44 days old as of today.
	writeSeriesEndingAt(t, dir, "xradio", time.Now().UTC().AddDate(0, 0, -40), 70, 71, 72, 73, 74)
	s := newTestServerAt(t, dir, time.Now().UTC().AddDate(0, 0, -60))

	res := callTool(t, s, "get_coverage_trends", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), core.ErrNoHistory.Error())

	res = callTool(t, s, "get_coverage_trends", map[string]any{"days": 60.0})
	require.False(t, res.IsError, resultText(res))
}
