package core

import (
	"testing"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDrop(t *testing.T) {
	th := schema.DefaultRegressionThresholds()
	tests := []struct {
		name      string
		previous  float64
		current   float64
		severity  schema.Severity
		regressed bool
	}{
		{name: "80 to 65 is major", previous: 80, current: 65, severity: schema.MajorSeverity, regressed: true},
		{name: "exactly ten points is major", previous: 80, current: 70, severity: schema.MajorSeverity, regressed: true},
		{name: "80 to 74 is moderate", previous: 80, current: 74, severity: schema.ModerateSeverity, regressed: true},
		{name: "80 to 76 is minor", previous: 80, current: 76, severity: schema.MinorSeverity, regressed: true},
		{name: "80 to 79 is no event", previous: 80, current: 79},
		{name: "improvement is no event", previous: 70, current: 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			severity, regressed := ClassifyDrop(tt.previous, tt.current, th)
			assert.Equal(t, tt.regressed, regressed)
			assert.Equal(t, tt.severity, severity)
		})
	}
}

func TestDetectImmediate(t *testing.T) {
	current := map[string]float64{"xradio": 65, "graphviper": 76, "toolviper": 79, "astroviper": 50}
	previous := map[string]float64{"xradio": 80, "graphviper": 80, "toolviper": 80, "zero": 0}

	events := DetectImmediate(current, previous, schema.DefaultRegressionThresholds())
	require.Len(t, events, 2)

	assert.Equal(t, "graphviper", events[0].Component)
	assert.Equal(t, schema.MinorSeverity, events[0].Severity)

	major := events[1]
	assert.Equal(t, "xradio", major.Component)
	assert.Equal(t, schema.ImmediateRegression, major.Kind)
	assert.Equal(t, schema.MajorSeverity, major.Severity)
	assert.Equal(t, 65.0, *major.CurrentCoverage)
	assert.Equal(t, 80.0, *major.PreviousCoverage)
	assert.Equal(t, 15.0, *major.CoverageDrop)
	assert.Equal(t, 18.75, *major.DropPercentage)
	assert.Nil(t, major.TrendSlope)
}

func TestDetectImmediate_ZeroPrevious(t *testing.T) {
	th := schema.RegressionThresholds{MajorDrop: 10, ModerateDrop: 5, MinorDrop: 2, TrendModerateSlope: -1}
	events := DetectImmediate(map[string]float64{"x": -5}, map[string]float64{"x": 0}, th)
	require.Len(t, events, 1)
	assert.Equal(t, 0.0, *events[0].DropPercentage)
}

func TestDetectTrendRegressions(t *testing.T) {
	params := schema.DefaultTrendParams()
	trends := map[string]schema.TrendResult{
		"volatile_decline": AnalyzeTrend("volatile_decline", []float64{80, 70, 85, 65, 60}, params),
		"slow_decline":     AnalyzeTrend("slow_decline", []float64{80, 79.2, 78.4, 77.6, 76.8}, params),
		"flat":             AnalyzeTrend("flat", []float64{70, 70, 70, 70, 70}, params),
		"sparse":           AnalyzeTrend("sparse", []float64{90, 10}, params),
	}

	events := DetectTrendRegressions(trends, schema.DefaultRegressionThresholds())
	require.Len(t, events, 3)

	assert.Equal(t, "slow_decline", events[0].Component)
	assert.Equal(t, schema.TrendRegression, events[0].Kind)
	assert.Equal(t, schema.MinorSeverity, events[0].Severity)
	assert.Equal(t, -0.8, *events[0].TrendSlope)
	assert.Equal(t, 5, *events[0].PointsAnalyzed)

	// Declining and volatile yields two independent events
	assert.Equal(t, "volatile_decline", events[1].Component)
	assert.Equal(t, schema.TrendRegression, events[1].Kind)
	assert.Equal(t, schema.ModerateSeverity, events[1].Severity)
	assert.Equal(t, 12.0, *events[1].CoverageDrop)

	assert.Equal(t, "volatile_decline", events[2].Component)
	assert.Equal(t, schema.VolatilityRegression, events[2].Kind)
	assert.Equal(t, schema.MinorSeverity, events[2].Severity)
	assert.Equal(t, 25.0, *events[2].CoverageRange)
	assert.Nil(t, events[2].TrendSlope)
}

func TestDetectTrendRegressions_VolatileWithoutDecline(t *testing.T) {
	params := schema.DefaultTrendParams()
	trends := map[string]schema.TrendResult{
		"oscillating": AnalyzeTrend("oscillating", []float64{70, 80, 70, 80, 70}, params),
		"rising":      AnalyzeTrend("rising", []float64{60, 75, 65, 80, 72}, params),
	}
	require.Equal(t, schema.Stable, trends["oscillating"].Direction)
	require.Equal(t, schema.Improving, trends["rising"].Direction)

	events := DetectTrendRegressions(trends, schema.DefaultRegressionThresholds())
	require.Len(t, events, 2)
	for i, component := range []string{"oscillating", "rising"} {
		assert.Equal(t, component, events[i].Component)
		assert.Equal(t, schema.VolatilityRegression, events[i].Kind)
		assert.Equal(t, schema.MinorSeverity, events[i].Severity)
		assert.Nil(t, events[i].TrendSlope)
	}
	assert.Equal(t, 10.0, *events[0].CoverageRange)
	assert.Equal(t, 74.0, *events[0].MeanCoverage)
}

func TestDetectRegressions_OrderAndSummary(t *testing.T) {
	params := schema.DefaultTrendParams()
	trends := map[string]schema.TrendResult{
		"xradio": AnalyzeTrend("xradio", []float64{80, 79, 78, 77, 76}, params),
	}

	events, summary := DetectRegressions(map[string]float64{"xradio": 64}, map[string]float64{"xradio": 76}, trends, schema.DefaultRegressionThresholds())
	require.Len(t, events, 2)
	assert.Equal(t, schema.ImmediateRegression, events[0].Kind)
	assert.Equal(t, schema.TrendRegression, events[1].Kind)
	assert.Equal(t, schema.RegressionSummary{Total: 2, Major: 1, Minor: 1}, summary)

	events, summary = DetectRegressions(nil, nil, nil, schema.DefaultRegressionThresholds())
	assert.NotNil(t, events)
	assert.Empty(t, events)
	assert.Zero(t, summary.Total)
}

func TestAlertLevelFor(t *testing.T) {
	assert.Equal(t, schema.CriticalAlert, AlertLevelFor(schema.RegressionSummary{Total: 3, Major: 1, Minor: 2}))
	assert.Equal(t, schema.WarningAlert, AlertLevelFor(schema.RegressionSummary{Total: 1, Moderate: 1}))
	assert.Equal(t, schema.InfoAlert, AlertLevelFor(schema.RegressionSummary{Total: 1, Minor: 1}))
	assert.Equal(t, schema.OKAlert, AlertLevelFor(schema.RegressionSummary{}))
}

func TestRegressionExitCode(t *testing.T) {
	tests := []struct {
		name      string
		summary   schema.RegressionSummary
		alertOnly bool
		want      int
	}{
		{name: "clean", want: contract.ExitOK},
		{name: "minor fails by default", summary: schema.RegressionSummary{Total: 1, Minor: 1}, want: contract.ExitFailure},
		{name: "minor passes with alert-only", summary: schema.RegressionSummary{Total: 1, Minor: 1}, alertOnly: true, want: contract.ExitOK},
		{name: "moderate fails with alert-only", summary: schema.RegressionSummary{Total: 1, Moderate: 1}, alertOnly: true, want: contract.ExitFailure},
		{name: "major fails with alert-only", summary: schema.RegressionSummary{Total: 1, Major: 1}, alertOnly: true, want: contract.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegressionExitCode(tt.summary, tt.alertOnly))
		})
	}
}
