// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/coverwatch/core"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the coverwatch MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(a *core.Analyzer, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Coverwatch Coverage Analytics Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{analyzer: a}

	// --- 1. Tool: get_coverage_trends ---
	s.AddTool(mcp.NewTool("get_coverage_trends",
		mcp.WithDescription("Classify the coverage trend of every component from the history snapshots."),
		mcp.WithNumber("days", mcp.Description("Lookback window in days (defaults to the configured window).")),
		mcp.WithString("component", mcp.Description("Only return this component.")),
	), h.handleGetTrends)

	// --- 2. Tool: detect_regressions ---
	s.AddTool(mcp.NewTool("detect_regressions",
		mcp.WithDescription("Detect immediate, trend and volatility coverage regressions."),
		mcp.WithNumber("days", mcp.Description("Lookback window in days.")),
		mcp.WithString("source", mcp.Description("Where current coverage comes from."), mcp.Enum("files", "history", "reportportal")),
	), h.handleDetectRegressions)

	// --- 3. Tool: check_thresholds ---
	s.AddTool(mcp.NewTool("check_thresholds",
		mcp.WithDescription("Gate current coverage of every component against its minimum and quality band."),
		mcp.WithString("source", mcp.Description("Where current coverage comes from."), mcp.Enum("files", "history", "reportportal")),
		mcp.WithString("thresholds", mcp.Description("Per-component overrides, e.g. 'xradio:75,overall:65'.")),
	), h.handleCheckThresholds)

	// --- 4. Tool: find_flaky_tests ---
	s.AddTool(mcp.NewTool("find_flaky_tests",
		mcp.WithDescription("Score test flakiness across recent ReportPortal launches."),
		mcp.WithNumber("days", mcp.Description("Lookback window in days.")),
		mcp.WithNumber("min_runs", mcp.Description("Minimum runs before a test is scored.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleFindFlaky)

	// --- 5. Tool: get_current_coverage ---
	s.AddTool(mcp.NewTool("get_current_coverage",
		mcp.WithDescription("Latest coverage of one component as reported to ReportPortal."),
		mcp.WithString("component", mcp.Description("Component name, e.g. 'xradio'."), mcp.Required()),
	), h.handleGetCurrentCoverage)

	// --- 6. Tool: check_reportportal_status ---
	s.AddTool(mcp.NewTool("check_reportportal_status",
		mcp.WithDescription("Report which configured ReportPortal instances are reachable."),
	), h.handleCheckStatus)

	return s
}

// StartMCPServer starts the coverwatch MCP server on stdio.
func StartMCPServer(_ context.Context, a *core.Analyzer, version string) error {
	s := NewMCPServer(a, version)
	return server.ServeStdio(s)
}
