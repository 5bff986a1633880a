// Package core has core logic for trend analysis, regression detection and threshold gating.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/internal/metrics"
	"github.com/huangsam/coverwatch/schema"
	"gopkg.in/yaml.v3"
)

// ExecutorFunc defines the function signature for executing the analysis commands.
type ExecutorFunc func(ctx context.Context, a *Analyzer, w contract.OutputWriter) error

// ErrNoReachableEndpoint is returned when no ReportPortal instance answered.
var ErrNoReachableEndpoint = errors.New("no ReportPortal instance reachable")

// Saved report file prefixes.
const (
	regressionReportPrefix = "tv_regression_report_"
	thresholdReportPrefix  = "tv_threshold_report_"
)

// ExecuteTrends prints one trend result per component.
// It serves as the main entry point for the 'trends' command.
func ExecuteTrends(ctx context.Context, a *Analyzer, w contract.OutputWriter) error {
	start := time.Now()
	report, err := a.Trends(ctx)
	if werr := w.WriteTrends(report, a.cfg, time.Since(start)); werr != nil {
		return contract.WithExitCode(contract.ExitError, werr)
	}
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	return writeMetricsFile(a.cfg, func(c *metrics.Collector) { c.ObserveTrends(report) })
}

// ExecuteRegressions runs the regression detection and maps its findings to an exit code.
// It serves as the main entry point for the 'regressions' command.
func ExecuteRegressions(ctx context.Context, a *Analyzer, w contract.OutputWriter) error {
	start := time.Now()
	report, err := a.Regressions(ctx)
	if werr := w.WriteRegressions(report, a.cfg, time.Since(start)); werr != nil {
		return contract.WithExitCode(contract.ExitError, werr)
	}
	if a.cfg.Save {
		if _, serr := SaveReport(a.cfg.ReportsDir, regressionReportPrefix, report, a.cfg.Now, a.progress()); serr != nil {
			contract.LogWarn("Cannot save regression report", serr)
		}
	}
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	if merr := writeMetricsFile(a.cfg, func(c *metrics.Collector) { c.ObserveRegressions(report) }); merr != nil {
		return merr
	}
	if code := RegressionExitCode(report.Summary, a.cfg.AlertOnly); code != contract.ExitOK {
		return contract.WithExitCode(code, fmt.Errorf("%d coverage regressions detected (alert level %s)", report.Summary.Total, report.AlertLevel))
	}
	return nil
}

// ExecuteThresholds gates current coverage and maps the overall result to an exit code.
// It serves as the main entry point for the 'thresholds' command.
func ExecuteThresholds(ctx context.Context, a *Analyzer, w contract.OutputWriter) error {
	start := time.Now()
	report, err := a.Thresholds(ctx)
	if werr := w.WriteThresholds(report, a.cfg, time.Since(start)); werr != nil {
		return contract.WithExitCode(contract.ExitError, werr)
	}
	if a.cfg.Save {
		if _, serr := SaveReport(a.cfg.ReportsDir, thresholdReportPrefix, report, a.cfg.Now, a.progress()); serr != nil {
			contract.LogWarn("Cannot save threshold report", serr)
		}
	}
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	if merr := writeMetricsFile(a.cfg, func(c *metrics.Collector) { c.ObserveThresholds(report) }); merr != nil {
		return merr
	}
	if code := ThresholdExitCode(report, a.cfg.Strict, a.cfg.ReportOnly); code != contract.ExitOK {
		return contract.WithExitCode(code, fmt.Errorf("coverage threshold check %s", report.OverallResult))
	}
	return nil
}

// ExecuteFlaky scores test flakiness across ReportPortal launches.
// It serves as the main entry point for the 'flaky' command.
func ExecuteFlaky(ctx context.Context, a *Analyzer, w contract.OutputWriter) error {
	start := time.Now()
	report, err := a.Flaky(ctx)
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	if werr := w.WriteFlaky(report, a.cfg, time.Since(start)); werr != nil {
		return contract.WithExitCode(contract.ExitError, werr)
	}
	if !anyConnected(report.Endpoints) {
		return contract.WithExitCode(contract.ExitError, ErrNoReachableEndpoint)
	}
	return writeMetricsFile(a.cfg, func(c *metrics.Collector) { c.ObserveFlaky(report) })
}

// ExecuteSnapshot pulls launch coverage from ReportPortal and saves it as a history snapshot.
// It serves as the main entry point for the 'snapshot' command.
func ExecuteSnapshot(ctx context.Context, a *Analyzer, w contract.OutputWriter) error {
	start := time.Now()
	snap, err := a.Snapshot(ctx)
	if err != nil {
		if werr := w.WriteSnapshot(snap, "", a.cfg, time.Since(start)); werr != nil {
			return contract.WithExitCode(contract.ExitError, werr)
		}
		return contract.WithExitCode(contract.ExitError, err)
	}

	path, err := WriteSnapshot(a.cfg.ReportsDir, snap, a.cfg.Now)
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	if werr := w.WriteSnapshot(snap, path, a.cfg, time.Since(start)); werr != nil {
		return contract.WithExitCode(contract.ExitError, werr)
	}
	return nil
}

// ExecuteStatus reports ReportPortal connectivity.
// Exits 1 when any instance is unreachable and 2 when none is configured.
func ExecuteStatus(ctx context.Context, a *Analyzer, w contract.OutputWriter) error {
	start := time.Now()
	if len(a.sources) == 0 {
		return contract.WithExitCode(contract.ExitError, errors.New("no ReportPortal instance configured"))
	}
	report := a.Connectivity(ctx)
	if werr := w.WriteConnectivity(report, a.cfg, time.Since(start)); werr != nil {
		return contract.WithExitCode(contract.ExitError, werr)
	}
	if merr := writeMetricsFile(a.cfg, func(c *metrics.Collector) { c.ObserveConnectivity(report) }); merr != nil {
		return merr
	}
	if report.Reachable < report.Total {
		return contract.WithExitCode(contract.ExitFailure,
			fmt.Errorf("%d of %d ReportPortal instances unreachable", report.Total-report.Reachable, report.Total))
	}
	return nil
}

// ExecutePublish pushes the current trend results through publisher.
// It serves as the main entry point for the 'publish' command.
func ExecutePublish(ctx context.Context, a *Analyzer, publisher contract.TrendPublisher, out io.Writer) error {
	report, err := a.Trends(ctx)
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	n, err := publisher.PublishTrends(ctx, report, a.cfg.Now)
	if err != nil {
		return contract.WithExitCode(contract.ExitError, fmt.Errorf("failed to publish trends: %w", err))
	}
	if !a.cfg.Quiet {
		_, _ = fmt.Fprintf(out, "Published %d of %d component trends\n", n, len(report.Trends))
	}
	return nil
}

// SaveReport writes report as indented JSON named <prefix><YYYYMMDD_HHMMSS>.json inside dir.
func SaveReport(dir, prefix string, report any, now time.Time, out io.Writer) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cannot encode report: %w", err)
	}
	path := filepath.Join(dir, prefix+now.Format(fileStampLayout)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write report: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Report saved: %s\n", path)
	return path, nil
}

// defaultConfigFile is the document written by --create-config.
type defaultConfigFile struct {
	Description   string               `json:"description" yaml:"description"`
	Thresholds    map[string]float64   `json:"thresholds" yaml:"thresholds"`
	QualityLevels []schema.QualityBand `json:"quality_levels" yaml:"quality_levels"`
	Notes         []string             `json:"notes" yaml:"notes"`
}

// CreateDefaultConfig writes the stock thresholds and quality bands to path.
// A .json extension selects JSON, anything else YAML.
func CreateDefaultConfig(path string, out io.Writer) error {
	doc := defaultConfigFile{
		Description:   "coverwatch coverage threshold configuration",
		Thresholds:    schema.DefaultThresholds(),
		QualityLevels: schema.QualityBands(),
		Notes: []string{
			"Adjust thresholds based on component complexity and testing needs",
			"Higher thresholds for critical components, lower for experimental code",
			"Use 'overall' threshold for project-wide minimum coverage",
		},
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("cannot encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write default config: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Created default threshold configuration: %s\n", path)
	return nil
}

// writeMetricsFile exports the observed report for the textfile collector when --metrics-file is set.
func writeMetricsFile(cfg *contract.Config, observe func(*metrics.Collector)) error {
	if cfg.MetricsFile == "" {
		return nil
	}
	c := metrics.New()
	observe(c)
	if err := c.WriteTextfile(cfg.MetricsFile); err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}
	return nil
}

// progress is where side notes like saved paths go; quiet runs drop them.
func (a *Analyzer) progress() io.Writer {
	if a.cfg.Quiet {
		return io.Discard
	}
	return os.Stderr
}

func anyConnected(endpoints []schema.EndpointStatus) bool {
	for _, ep := range endpoints {
		if ep.Connected {
			return true
		}
	}
	return false
}
