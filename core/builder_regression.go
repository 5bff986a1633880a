package core

import (
	"context"
	"errors"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
)

// RegressionReportBuilder builds the regression report using a builder pattern.
type RegressionReportBuilder struct {
	ctx      context.Context
	a        *Analyzer
	history  schema.History
	stats    schema.LoadStats
	current  map[string]float64
	previous map[string]float64
	trends   map[string]schema.TrendResult
	events   []schema.RegressionEvent
	summary  schema.RegressionSummary
	report   *schema.RegressionReport
}

// NewRegressionReportBuilder creates a new builder for regression reports.
func NewRegressionReportBuilder(ctx context.Context, a *Analyzer) *RegressionReportBuilder {
	return &RegressionReportBuilder{ctx: ctx, a: a}
}

// LoadHistory reads the snapshots of the lookback window.
func (b *RegressionReportBuilder) LoadHistory() (*RegressionReportBuilder, error) {
	cfg := b.a.cfg
	history, stats, err := LoadHistory(cfg.ReportsDir, cfg.HistoryPattern, cfg.WindowStart(), b.a.logger)
	b.stats = stats
	if err != nil {
		return nil, err
	}
	b.history = history
	return b, nil
}

// LoadCurrentCoverage resolves the current and previous values for immediate detection.
// Missing current coverage leaves only trend-based detection.
func (b *RegressionReportBuilder) LoadCurrentCoverage() *RegressionReportBuilder {
	cfg := b.a.cfg

	if cfg.Source == schema.HistorySource {
		b.current, b.previous = lastTwoPoints(b.history)
		return b
	}

	b.previous = LatestCoverage(b.history)
	measurements, err := b.a.currentMeasurements(b.ctx)
	if err != nil {
		if errors.Is(err, ErrNoCoverage) {
			b.a.logger.WithField("source", cfg.Source).Warn("No current coverage found; only trend regressions will be detected")
		} else {
			b.a.logger.WithError(err).Warn("Cannot read current coverage")
		}
		b.current = map[string]float64{}
		return b
	}
	b.current = CoverageValues(measurements)
	return b
}

// AnalyzeTrends classifies every component series.
func (b *RegressionReportBuilder) AnalyzeTrends() *RegressionReportBuilder {
	b.trends = AnalyzeTrends(b.history, b.a.cfg.Trend)
	return b
}

// DetectRegressions runs the immediate, trend and volatility checks.
func (b *RegressionReportBuilder) DetectRegressions() *RegressionReportBuilder {
	b.events, b.summary = DetectRegressions(b.current, b.previous, b.trends, b.a.cfg.Regression)
	return b
}

// BuildReport constructs the final RegressionReport.
func (b *RegressionReportBuilder) BuildReport() *RegressionReportBuilder {
	cfg := b.a.cfg
	rounded := make(map[string]schema.TrendResult, len(b.trends))
	for component, trend := range b.trends {
		rounded[component] = trend.Rounded()
	}
	current := make(map[string]float64, len(b.current))
	for component, v := range b.current {
		current[component] = schema.Round(v, 2)
	}

	b.report = &schema.RegressionReport{
		DetectionDate:      cfg.Now.Format(contract.DateTimeFormat),
		DaysAnalyzed:       cfg.Days,
		ComponentsAnalyzed: len(b.trends),
		Regressions:        b.events,
		Summary:            b.summary,
		AlertLevel:         AlertLevelFor(b.summary),
		ComponentTrends:    rounded,
		CurrentCoverage:    current,
		Stats:              b.stats,
	}
	return b
}

// FailedReport returns the report carrying err as its top-level error.
func (b *RegressionReportBuilder) FailedReport(err error) schema.RegressionReport {
	cfg := b.a.cfg
	return schema.RegressionReport{
		DetectionDate:   cfg.Now.Format(contract.DateTimeFormat),
		DaysAnalyzed:    cfg.Days,
		Regressions:     []schema.RegressionEvent{},
		AlertLevel:      schema.OKAlert,
		ComponentTrends: map[string]schema.TrendResult{},
		CurrentCoverage: map[string]float64{},
		Stats:           b.stats,
		Error:           err.Error(),
	}
}

// Outcomes returns what the run concluded per component, for run tracking.
func (b *RegressionReportBuilder) Outcomes() map[string]schema.ComponentOutcome {
	perComponent := make(map[string][]schema.RegressionEvent)
	for _, e := range b.events {
		perComponent[e.Component] = append(perComponent[e.Component], e)
	}
	outcomes := make(map[string]schema.ComponentOutcome, len(b.trends))
	for component, trend := range b.trends {
		events := perComponent[component]
		outcomes[component] = schema.ComponentOutcome{
			AnalysisTime:  b.a.cfg.Now,
			Trend:         trend,
			Regressions:   len(events),
			WorstSeverity: schema.WorstSeverity(events),
		}
	}
	return outcomes
}

// GetReport returns the built RegressionReport.
func (b *RegressionReportBuilder) GetReport() schema.RegressionReport {
	if b.report == nil {
		return schema.RegressionReport{}
	}
	return *b.report
}

// lastTwoPoints splits each series with at least two points into its newest and previous value.
func lastTwoPoints(history schema.History) (current, previous map[string]float64) {
	current = make(map[string]float64, len(history))
	previous = make(map[string]float64, len(history))
	for component, series := range history {
		if len(series) < 2 {
			continue
		}
		current[component] = series[len(series)-1].CoveragePercentage
		previous[component] = series[len(series)-2].CoveragePercentage
	}
	return current, previous
}
