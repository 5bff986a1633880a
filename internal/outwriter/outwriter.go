// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

var _ contract.OutputWriter = (*OutWriter)(nil)

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteTrends prints trend results using the configured output format.
func (ow *OutWriter) WriteTrends(report schema.TrendReport, cfg *contract.Config, duration time.Duration) error {
	return PrintTrendReport(report, cfg, duration)
}

// WriteRegressions prints regression results using the configured output format.
func (ow *OutWriter) WriteRegressions(report schema.RegressionReport, cfg *contract.Config, duration time.Duration) error {
	return PrintRegressionReport(report, cfg, duration)
}

// WriteThresholds prints threshold verdicts using the configured output format.
func (ow *OutWriter) WriteThresholds(report schema.ThresholdReport, cfg *contract.Config, duration time.Duration) error {
	return PrintThresholdReport(report, cfg, duration)
}

// WriteFlaky prints flaky test results using the configured output format.
func (ow *OutWriter) WriteFlaky(report schema.FlakyReport, cfg *contract.Config, duration time.Duration) error {
	return PrintFlakyReport(report, cfg, duration)
}

// WriteConnectivity prints ReportPortal connectivity using the configured output format.
func (ow *OutWriter) WriteConnectivity(report schema.ConnectivityReport, cfg *contract.Config, duration time.Duration) error {
	return PrintConnectivityReport(report, cfg, duration)
}

// WriteSnapshot prints a generated snapshot using the configured output format.
func (ow *OutWriter) WriteSnapshot(snap schema.GeneratedSnapshot, path string, cfg *contract.Config, duration time.Duration) error {
	return PrintSnapshot(snap, path, cfg, duration)
}
