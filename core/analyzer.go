package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
)

// ErrNoLaunchCoverage is returned when no launch in the window carries coverage attributes.
var ErrNoLaunchCoverage = errors.New("no launches with coverage data found")

// Analyzer holds everything an analysis run needs. It is built once per process
// (or per request) and passed explicitly; nothing here is global.
type Analyzer struct {
	cfg     *contract.Config
	logger  logrus.FieldLogger
	mgr     contract.HistoryManager
	sources []contract.LaunchSource
}

// NewAnalyzer creates an analyzer. mgr and sources may be nil.
func NewAnalyzer(cfg *contract.Config, logger logrus.FieldLogger, mgr contract.HistoryManager, sources []contract.LaunchSource) *Analyzer {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.ErrorLevel)
		logger = l
	}
	return &Analyzer{cfg: cfg, logger: logger, mgr: mgr, sources: sources}
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() *contract.Config {
	return a.cfg
}

// WithConfig returns an analyzer sharing the collaborators of a but using cfg.
func (a *Analyzer) WithConfig(cfg *contract.Config) *Analyzer {
	return &Analyzer{cfg: cfg, logger: a.logger, mgr: a.mgr, sources: a.sources}
}

// Trends loads the history and classifies every component series.
func (a *Analyzer) Trends(_ context.Context) (schema.TrendReport, error) {
	start := time.Now()
	report := schema.TrendReport{
		GeneratedAt:  a.cfg.Now.Format(contract.DateTimeFormat),
		DaysAnalyzed: a.cfg.Days,
		Trends:       map[string]schema.TrendResult{},
	}

	history, stats, err := LoadHistory(a.cfg.ReportsDir, a.cfg.HistoryPattern, a.cfg.WindowStart(), a.logger)
	report.Stats = stats
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	trends := AnalyzeTrends(history, a.cfg.Trend)
	outcomes := make(map[string]schema.ComponentOutcome, len(trends))
	for component, trend := range trends {
		report.Trends[component] = trend.Rounded()
		outcomes[component] = schema.ComponentOutcome{AnalysisTime: a.cfg.Now, Trend: trend}
	}

	a.recordRun("trends", start, outcomes)
	return report, nil
}

// Regressions runs the full regression detection.
func (a *Analyzer) Regressions(ctx context.Context) (schema.RegressionReport, error) {
	start := time.Now()
	b := NewRegressionReportBuilder(ctx, a)

	if _, err := b.LoadHistory(); err != nil {
		return b.FailedReport(err), err
	}
	b.LoadCurrentCoverage().
		AnalyzeTrends().
		DetectRegressions().
		BuildReport()

	a.recordRun("regressions", start, b.Outcomes())
	return b.GetReport(), nil
}

// Thresholds gates the current coverage of every component.
func (a *Analyzer) Thresholds(ctx context.Context) (schema.ThresholdReport, error) {
	start := time.Now()

	measurements, err := a.currentMeasurements(ctx)
	if err != nil && !errors.Is(err, ErrNoCoverage) && !errors.Is(err, ErrNoHistory) {
		return schema.ThresholdReport{}, err
	}

	report := CheckThresholds(measurements, a.cfg.Thresholds, a.cfg.Now)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	outcomes := make(map[string]schema.ComponentOutcome, len(report.Components))
	for component, verdict := range report.Components {
		outcomes[component] = schema.ComponentOutcome{
			AnalysisTime:    a.cfg.Now,
			Trend:           schema.TrendResult{Component: component},
			ThresholdAction: verdict.Action,
		}
	}
	a.recordRun("thresholds", start, outcomes)
	return report, nil
}

// currentMeasurements reads current coverage from the configured source.
func (a *Analyzer) currentMeasurements(ctx context.Context) (map[string]schema.CoverageMeasurement, error) {
	switch a.cfg.Source {
	case schema.HistorySource:
		history, _, err := LoadHistory(a.cfg.ReportsDir, a.cfg.HistoryPattern, a.cfg.WindowStart(), a.logger)
		if err != nil {
			return nil, err
		}
		measurements := make(map[string]schema.CoverageMeasurement, len(history))
		for component, series := range history {
			if p, ok := series.Latest(); ok {
				measurements[component] = schema.CoverageMeasurement{
					Component:  component,
					Coverage:   p.CoveragePercentage,
					SourceFile: p.SourceFile,
				}
			}
		}
		if len(measurements) == 0 {
			return nil, ErrNoHistory
		}
		return measurements, nil

	case schema.ReportPortalSource:
		batches := fetchAllLaunches(ctx, a.sources, a.cfg.WindowStart(), a.logger)
		measurements := make(map[string]schema.CoverageMeasurement)
		for _, launch := range mergeLaunches(batches) {
			c, ok := ExtractLaunchCoverage(launch)
			if !ok {
				continue
			}
			if _, seen := measurements[c.Component]; seen {
				continue // Launches are newest first
			}
			measurements[c.Component] = schema.CoverageMeasurement{
				Component:       c.Component,
				Coverage:        c.Percentage,
				TotalStatements: c.Statements,
				MissingLines:    c.Missing,
				CoveredLines:    max(c.Statements-c.Missing, 0),
				SourceFile:      fmt.Sprintf("launch:%d", c.LaunchID),
			}
		}
		if len(measurements) == 0 {
			return nil, ErrNoCoverage
		}
		return measurements, nil

	default:
		return LoadCurrentCoverage(a.cfg.CoverageDir, contract.DefaultCoveragePrefix, a.logger)
	}
}

// Flaky scores test flakiness across the launches of the window.
func (a *Analyzer) Flaky(ctx context.Context) (schema.FlakyReport, error) {
	batches := fetchAllLaunches(ctx, a.sources, a.cfg.WindowStart(), a.logger)
	outcomes, items := collectTestOutcomes(ctx, batches, a.logger)

	flaky := AnalyzeFlakiness(outcomes, a.cfg.MinRuns)
	if a.cfg.FlakyLimit > 0 && len(flaky) > a.cfg.FlakyLimit {
		flaky = flaky[:a.cfg.FlakyLimit]
	}

	launches := 0
	for _, b := range batches {
		launches += len(b.launches)
	}
	return schema.FlakyReport{
		GeneratedAt:     a.cfg.Now.Format(contract.DateTimeFormat),
		DaysAnalyzed:    a.cfg.Days,
		LaunchesScanned: launches,
		TestsScanned:    items,
		FlakyTests:      flaky,
		Endpoints:       batchStatuses(batches),
	}, nil
}

// Snapshot builds a history snapshot from the coverage attributes of recent launches.
// The snapshot is returned even when empty so endpoint errors can be shown.
func (a *Analyzer) Snapshot(ctx context.Context) (schema.GeneratedSnapshot, error) {
	batches := fetchAllLaunches(ctx, a.sources, a.cfg.WindowStart(), a.logger)

	var coverages []schema.LaunchCoverage
	for _, launch := range mergeLaunches(batches) {
		if c, ok := ExtractLaunchCoverage(launch); ok {
			coverages = append(coverages, c)
		}
	}

	snap := BuildSnapshot(coverages, a.cfg.Days, a.cfg.Now)
	snap.Endpoints = batchStatuses(batches)
	if len(coverages) == 0 {
		return snap, ErrNoLaunchCoverage
	}
	return snap, nil
}

// Connectivity reports which ReportPortal instances answer.
func (a *Analyzer) Connectivity(ctx context.Context) schema.ConnectivityReport {
	return CheckConnectivity(ctx, a.sources, a.cfg.Now, a.logger)
}

// CurrentCoverage asks each source in priority order for the latest coverage of component.
// Unreachable sources are skipped; ErrNoCoverage is returned when none reports it.
func (a *Analyzer) CurrentCoverage(ctx context.Context, component string) (schema.CoverageMeasurement, error) {
	for _, src := range a.sources {
		pct, ok, err := src.FetchCurrentCoverage(ctx, component, a.cfg.WindowStart())
		if err != nil {
			a.logger.WithField("endpoint", src.Name()).WithError(err).Warn("ReportPortal instance unavailable")
			continue
		}
		if ok {
			return schema.CoverageMeasurement{
				Component:  component,
				Coverage:   pct,
				SourceFile: "reportportal:" + src.Name(),
			}, nil
		}
	}
	return schema.CoverageMeasurement{Component: component}, ErrNoCoverage
}
