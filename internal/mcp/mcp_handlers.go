package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/huangsam/coverwatch/core"
	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	analyzer *core.Analyzer
}

// current clones the base config with its clock set to the time of the call.
func (h *toolHandler) current() *contract.Config {
	return h.analyzer.Config().CloneAt(time.Now())
}

// withWindow clones the base config and applies the optional days argument.
func (h *toolHandler) withWindow(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.current()
	if d := request.GetInt("days", 0); d != 0 {
		if err := contract.RevalidateWindow(cfg, d); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (h *toolHandler) handleGetTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.withWindow(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	report, err := h.analyzer.WithConfig(cfg).Trends(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trend analysis failed: %v", err)), nil
	}

	if c := strings.ToLower(request.GetString("component", "")); c != "" {
		trend, ok := report.Trends[c]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no history for component %q", c)), nil
		}
		report.Trends = map[string]schema.TrendResult{c: trend}
	}
	return jsonResult(report)
}

func (h *toolHandler) handleDetectRegressions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.withWindow(request)
	if err == nil {
		err = contract.RevalidateSource(cfg, request.GetString("source", ""))
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	report, err := h.analyzer.WithConfig(cfg).Regressions(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("regression detection failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleCheckThresholds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.current()
	if err := contract.RevalidateSource(cfg, request.GetString("source", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if raw := request.GetString("thresholds", ""); raw != "" {
		overrides, err := contract.ParseThresholdsString(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
		}
		if cfg.Thresholds == nil {
			cfg.Thresholds = make(map[string]float64, len(overrides))
		}
		maps.Copy(cfg.Thresholds, overrides)
	}

	report, err := h.analyzer.WithConfig(cfg).Thresholds(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("threshold check failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleFindFlaky(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.withWindow(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if m := request.GetInt("min_runs", 0); m > 0 {
		cfg.MinRuns = m
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.FlakyLimit = l
	}

	report, err := h.analyzer.WithConfig(cfg).Flaky(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flaky analysis failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleGetCurrentCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	component := strings.ToLower(strings.TrimSpace(request.GetString("component", "")))
	if component == "" || component == schema.OverallComponent {
		return mcp.NewToolResultError("component is required and cannot be 'overall'"), nil
	}

	m, err := h.analyzer.WithConfig(h.current()).CurrentCoverage(ctx, component)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("coverage lookup failed: %v", err)), nil
	}
	return jsonResult(m)
}

func (h *toolHandler) handleCheckStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.analyzer.WithConfig(h.current()).Connectivity(ctx))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
