package core

import (
	"testing"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityBandFor(t *testing.T) {
	tests := []struct {
		coverage float64
		level    schema.QualityLevel
	}{
		{0, schema.CriticalQuality},
		{39.99, schema.CriticalQuality},
		{40, schema.LowQuality},
		{59.9, schema.LowQuality},
		{60, schema.GoodQuality},
		{80, schema.ExcellentQuality},
		{100, schema.ExcellentQuality},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, QualityBandFor(tt.coverage).Level, "coverage %.2f", tt.coverage)
	}
}

func TestEvaluateComponent(t *testing.T) {
	tests := []struct {
		name      string
		coverage  float64
		threshold float64
		action    schema.Action
		met       bool
		level     schema.QualityLevel
		gap       float64
	}{
		{name: "55 under 60 fails", coverage: 55, threshold: 60, action: schema.FailAction, level: schema.LowQuality, gap: 5},
		{name: "59.5 under 70 fails", coverage: 59.5, threshold: 70, action: schema.FailAction, level: schema.LowQuality, gap: 10.5},
		{name: "85 over 60 passes", coverage: 85, threshold: 60, action: schema.PassAction, met: true, level: schema.ExcellentQuality},
		{name: "35 over 30 still fails on band", coverage: 35, threshold: 30, action: schema.FailAction, met: true, level: schema.CriticalQuality},
		{name: "45 over 30 warns", coverage: 45, threshold: 30, action: schema.WarnAction, met: true, level: schema.LowQuality},
		{name: "exactly at threshold passes", coverage: 70, threshold: 70, action: schema.PassAction, met: true, level: schema.GoodQuality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := EvaluateComponent(schema.CoverageMeasurement{Component: "xradio", Coverage: tt.coverage}, tt.threshold)
			assert.Equal(t, tt.action, v.Action)
			assert.Equal(t, tt.met, v.ThresholdMet)
			assert.Equal(t, tt.level, v.QualityLevel)
			assert.Equal(t, tt.gap, v.Gap)
		})
	}
}

func TestCheckThresholds(t *testing.T) {
	measurements := map[string]schema.CoverageMeasurement{
		"xradio":     {Coverage: 85},
		"graphviper": {Coverage: 55},
		"newcomp":    {Coverage: 62},
	}
	report := CheckThresholds(measurements, schema.DefaultThresholds(), refNow)

	assert.Equal(t, schema.FailAction, report.OverallResult)
	assert.Equal(t, 67.33, report.OverallCoverage)
	assert.Equal(t, 60.0, report.OverallThreshold)
	assert.True(t, report.OverallMeetsThreshold)
	assert.Equal(t, schema.ThresholdSummary{TotalComponents: 3, Passing: 2, Failing: 1, AverageCoverage: 67.33}, report.Summary)

	// Unknown components fall back to the overall threshold
	assert.Equal(t, 60.0, report.Components["newcomp"].Threshold)
	assert.Equal(t, "newcomp", report.Components["newcomp"].Component)
	assert.Empty(t, report.Error)
}

func TestCheckThresholds_MixedCaseComponent(t *testing.T) {
	report := CheckThresholds(map[string]schema.CoverageMeasurement{
		"XRadio": {Coverage: 65},
	}, schema.DefaultThresholds(), refNow)

	v := report.Components["XRadio"]
	assert.Equal(t, 70.0, v.Threshold)
	assert.False(t, v.ThresholdMet)
	assert.Equal(t, 5.0, v.Gap)
	assert.Equal(t, schema.FailAction, report.OverallResult)
}

func TestCheckThresholds_AggregateFailsOnAverage(t *testing.T) {
	thresholds := map[string]float64{"a": 40, "b": 40, schema.OverallComponent: 75}
	report := CheckThresholds(map[string]schema.CoverageMeasurement{
		"a": {Coverage: 70},
		"b": {Coverage: 72},
	}, thresholds, refNow)

	assert.Equal(t, 2, report.Summary.Passing)
	assert.False(t, report.OverallMeetsThreshold)
	assert.Equal(t, schema.FailAction, report.OverallResult)
}

func TestCheckThresholds_WarnDominatesPass(t *testing.T) {
	report := CheckThresholds(map[string]schema.CoverageMeasurement{
		"a": {Coverage: 90},
		"b": {Coverage: 50},
	}, map[string]float64{"b": 30, schema.OverallComponent: 60}, refNow)

	assert.Equal(t, schema.WarnAction, report.OverallResult)
	assert.Equal(t, 1, report.Summary.Warnings)
}

func TestCheckThresholds_NoMeasurements(t *testing.T) {
	report := CheckThresholds(nil, schema.DefaultThresholds(), refNow)
	assert.Equal(t, schema.FailAction, report.OverallResult)
	assert.Equal(t, ErrNoCoverage.Error(), report.Error)
	require.NotNil(t, report.Components)
}

func TestThresholdExitCode(t *testing.T) {
	tests := []struct {
		name       string
		report     schema.ThresholdReport
		strict     bool
		reportOnly bool
		want       int
	}{
		{name: "pass", report: schema.ThresholdReport{OverallResult: schema.PassAction}, want: contract.ExitOK},
		{name: "warn", report: schema.ThresholdReport{OverallResult: schema.WarnAction}, want: contract.ExitOK},
		{name: "warn strict", report: schema.ThresholdReport{OverallResult: schema.WarnAction}, strict: true, want: contract.ExitFailure},
		{name: "fail", report: schema.ThresholdReport{OverallResult: schema.FailAction}, want: contract.ExitFailure},
		{name: "fail report-only", report: schema.ThresholdReport{OverallResult: schema.FailAction}, reportOnly: true, want: contract.ExitOK},
		{name: "error", report: schema.ThresholdReport{OverallResult: schema.FailAction, Error: "x"}, reportOnly: true, want: contract.ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThresholdExitCode(tt.report, tt.strict, tt.reportOnly))
		})
	}
}
