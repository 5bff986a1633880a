package core

import (
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
)

// QualityBandFor returns the band containing coverage. Values are expected in [0,100].
func QualityBandFor(coverage float64) schema.QualityBand {
	bands := schema.QualityBands()
	for _, band := range bands {
		if coverage < band.Max {
			return band
		}
	}
	return bands[len(bands)-1]
}

// EvaluateComponent gates one component: below its threshold it fails,
// otherwise the quality band decides.
func EvaluateComponent(m schema.CoverageMeasurement, threshold float64) schema.ThresholdVerdict {
	band := QualityBandFor(m.Coverage)
	met := m.Coverage >= threshold

	action := band.Action
	if !met {
		action = schema.FailAction
	}

	return schema.ThresholdVerdict{
		Component:       m.Component,
		Coverage:        schema.Round(m.Coverage, 2),
		Threshold:       threshold,
		ThresholdMet:    met,
		QualityLevel:    band.Level,
		Action:          action,
		Gap:             schema.ThresholdGap(m.Coverage, threshold),
		TotalStatements: m.TotalStatements,
		CoveredLines:    m.CoveredLines,
		MissingLines:    m.MissingLines,
		CoverageFile:    m.SourceFile,
	}
}

// CheckThresholds gates every measurement and aggregates the verdicts.
// The overall result is the strictest component action, forced to FAIL when the
// average coverage is below the overall threshold. No measurements at all is an error.
func CheckThresholds(measurements map[string]schema.CoverageMeasurement, thresholds map[string]float64, now time.Time) schema.ThresholdReport {
	overallThreshold := schema.ResolveThreshold(thresholds, schema.OverallComponent)
	report := schema.ThresholdReport{
		OverallResult:    schema.PassAction,
		OverallThreshold: overallThreshold,
		Components:       make(map[string]schema.ThresholdVerdict, len(measurements)),
		Timestamp:        now.Format(contract.DateTimeFormat),
	}

	if len(measurements) == 0 {
		report.OverallResult = schema.FailAction
		report.Error = ErrNoCoverage.Error()
		return report
	}

	sum := 0.0
	for _, component := range schema.SortedKeys(measurements) {
		m := measurements[component]
		m.Component = component
		verdict := EvaluateComponent(m, schema.ResolveThreshold(thresholds, component))
		report.Components[component] = verdict
		sum += m.Coverage

		switch verdict.Action {
		case schema.FailAction:
			report.Summary.Failing++
		case schema.WarnAction:
			report.Summary.Warnings++
		default:
			report.Summary.Passing++
		}
		if verdict.Action.Rank() > report.OverallResult.Rank() {
			report.OverallResult = verdict.Action
		}
	}

	average := sum / float64(len(measurements))
	report.OverallCoverage = schema.Round(average, 2)
	report.OverallMeetsThreshold = average >= overallThreshold
	if !report.OverallMeetsThreshold {
		report.OverallResult = schema.FailAction
	}
	report.Summary.TotalComponents = len(measurements)
	report.Summary.AverageCoverage = report.OverallCoverage

	return report
}

// ThresholdExitCode decides the exit code of a threshold run.
// WARN only fails under strict; reportOnly never fails unless the check errored.
func ThresholdExitCode(report schema.ThresholdReport, strict, reportOnly bool) int {
	if report.Error != "" {
		return contract.ExitError
	}
	if reportOnly {
		return contract.ExitOK
	}
	switch report.OverallResult {
	case schema.FailAction:
		return contract.ExitFailure
	case schema.WarnAction:
		if strict {
			return contract.ExitFailure
		}
	}
	return contract.ExitOK
}
