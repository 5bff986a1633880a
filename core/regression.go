package core

import (
	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
)

// ClassifyDrop returns the severity of a coverage drop from previous to current.
// The boolean is false when the drop is below every tier or coverage went up.
func ClassifyDrop(previous, current float64, th schema.RegressionThresholds) (schema.Severity, bool) {
	drop := previous - current
	switch {
	case drop >= th.MajorDrop:
		return schema.MajorSeverity, true
	case drop >= th.ModerateDrop:
		return schema.ModerateSeverity, true
	case drop >= th.MinorDrop:
		return schema.MinorSeverity, true
	default:
		return "", false
	}
}

// DetectImmediate compares current and previous coverage for every component present in both.
// Events are ordered by component name.
func DetectImmediate(current, previous map[string]float64, th schema.RegressionThresholds) []schema.RegressionEvent {
	var events []schema.RegressionEvent
	for _, component := range schema.SortedKeys(current) {
		prev, ok := previous[component]
		if !ok {
			continue
		}
		cur := current[component]
		severity, regressed := ClassifyDrop(prev, cur, th)
		if !regressed {
			continue
		}

		drop := prev - cur
		dropPct := 0.0
		if prev != 0 {
			dropPct = drop / prev * 100
		}
		events = append(events, schema.RegressionEvent{
			Component:        component,
			Kind:             schema.ImmediateRegression,
			Severity:         severity,
			CurrentCoverage:  schema.Float(schema.Round(cur, 2)),
			PreviousCoverage: schema.Float(schema.Round(prev, 2)),
			CoverageDrop:     schema.Float(schema.Round(drop, 2)),
			DropPercentage:   schema.Float(schema.Round(dropPct, 2)),
		})
	}
	return events
}

// DetectTrendRegressions emits a trend event for every declining component and,
// independently, a minor volatility event for every volatile one.
// Components without sufficient data never produce events.
func DetectTrendRegressions(trends map[string]schema.TrendResult, th schema.RegressionThresholds) []schema.RegressionEvent {
	var events []schema.RegressionEvent
	for _, component := range schema.SortedKeys(trends) {
		trend := trends[component]
		stats, ok := trend.Stats()
		if !ok {
			continue
		}

		if stats.Direction == schema.Declining {
			severity := schema.MinorSeverity
			if stats.Slope < th.TrendModerateSlope {
				severity = schema.ModerateSeverity
			}
			events = append(events, schema.RegressionEvent{
				Component:      component,
				Kind:           schema.TrendRegression,
				Severity:       severity,
				TrendSlope:     schema.Float(schema.Round(stats.Slope, 3)),
				MeanCoverage:   schema.Float(schema.Round(stats.Mean, 2)),
				LatestCoverage: schema.Float(schema.Round(stats.Latest, 2)),
				CoverageDrop:   schema.Float(schema.Round(stats.Mean-stats.Latest, 2)),
				Volatility:     schema.Float(schema.Round(stats.VolatilityPct, 2)),
				PointsAnalyzed: schema.Int(trend.SampleCount),
			})
		}

		if stats.IsVolatile {
			events = append(events, schema.RegressionEvent{
				Component:      component,
				Kind:           schema.VolatilityRegression,
				Severity:       schema.MinorSeverity,
				Volatility:     schema.Float(schema.Round(stats.VolatilityPct, 2)),
				CoverageRange:  schema.Float(schema.Round(stats.CoverageRange, 2)),
				MeanCoverage:   schema.Float(schema.Round(stats.Mean, 2)),
				LatestCoverage: schema.Float(schema.Round(stats.Latest, 2)),
				PointsAnalyzed: schema.Int(trend.SampleCount),
			})
		}
	}
	return events
}

// DetectRegressions combines immediate events followed by trend and volatility events.
// Nothing is deduplicated: one component may appear several times.
func DetectRegressions(current, previous map[string]float64, trends map[string]schema.TrendResult, th schema.RegressionThresholds) ([]schema.RegressionEvent, schema.RegressionSummary) {
	events := DetectImmediate(current, previous, th)
	events = append(events, DetectTrendRegressions(trends, th)...)

	summary := Summarize(events)
	if events == nil {
		events = []schema.RegressionEvent{}
	}
	return events, summary
}

// Summarize counts events per severity.
func Summarize(events []schema.RegressionEvent) schema.RegressionSummary {
	var summary schema.RegressionSummary
	for _, e := range events {
		summary = summary.Add(e.Severity)
	}
	return summary
}

// AlertLevelFor maps the worst severity present to an alert level.
func AlertLevelFor(summary schema.RegressionSummary) schema.AlertLevel {
	switch {
	case summary.Major > 0:
		return schema.CriticalAlert
	case summary.Moderate > 0:
		return schema.WarningAlert
	case summary.Minor > 0:
		return schema.InfoAlert
	default:
		return schema.OKAlert
	}
}

// RegressionExitCode decides the exit code of a regression run.
// With alertOnly only major and moderate events fail the run.
func RegressionExitCode(summary schema.RegressionSummary, alertOnly bool) int {
	if alertOnly {
		if summary.Major > 0 || summary.Moderate > 0 {
			return contract.ExitFailure
		}
		return contract.ExitOK
	}
	if summary.Total > 0 {
		return contract.ExitFailure
	}
	return contract.ExitOK
}
