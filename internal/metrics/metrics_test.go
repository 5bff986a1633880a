package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/coverwatch/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTrends(t *testing.T) {
	c := New()
	c.ObserveTrends(schema.TrendReport{Trends: map[string]schema.TrendResult{
		"xradio": {
			Component: "xradio", HasSufficientData: true, SampleCount: 6,
			TrendStats: &schema.TrendStats{Slope: -1.25, VolatilityPct: 4.5, Latest: 71},
		},
		"graphviper": {Component: "graphviper", SampleCount: 2},
	}})

	assert.InDelta(t, -1.25, testutil.ToFloat64(c.slope.WithLabelValues("xradio")), 1e-9)
	assert.InDelta(t, 71.0, testutil.ToFloat64(c.coverage.WithLabelValues("xradio")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(c.samples.WithLabelValues("graphviper")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(c.slope))
}

func TestObserveRegressions(t *testing.T) {
	c := New()
	c.ObserveRegressions(schema.RegressionReport{
		Summary:         schema.RegressionSummary{Total: 3, Major: 1, Minor: 2},
		AlertLevel:      schema.CriticalAlert,
		CurrentCoverage: map[string]float64{"xradio": 65},
	})

	assert.InDelta(t, 1.0, testutil.ToFloat64(c.regressions.WithLabelValues("major")), 1e-9)
	assert.InDelta(t, 0.0, testutil.ToFloat64(c.regressions.WithLabelValues("moderate")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(c.regressions.WithLabelValues("minor")), 1e-9)
	assert.InDelta(t, 3.0, testutil.ToFloat64(c.alertLevel), 1e-9)
	assert.InDelta(t, 65.0, testutil.ToFloat64(c.coverage.WithLabelValues("xradio")), 1e-9)
}

func TestObserveThresholdsIsOneHot(t *testing.T) {
	c := New()
	c.ObserveThresholds(schema.ThresholdReport{
		Components: map[string]schema.ThresholdVerdict{
			"xradio": {Coverage: 55, Action: schema.FailAction},
		},
		Summary: schema.ThresholdSummary{AverageCoverage: 55},
	})

	assert.InDelta(t, 1.0, testutil.ToFloat64(c.thresholdAction.WithLabelValues("xradio", "FAIL")), 1e-9)
	assert.InDelta(t, 0.0, testutil.ToFloat64(c.thresholdAction.WithLabelValues("xradio", "PASS")), 1e-9)
	assert.InDelta(t, 55.0, testutil.ToFloat64(c.overallCoverage), 1e-9)
}

func TestObserveFlakyResetsScores(t *testing.T) {
	c := New()
	c.ObserveFlaky(schema.FlakyReport{
		FlakyTests: []schema.FlakyTest{{TestName: "test_a", FlakinessScore: 0.8}, {TestName: "test_b", FlakinessScore: 0.4}},
		Endpoints:  []schema.EndpointStatus{{Name: "primary", Connected: true}},
	})
	c.ObserveFlaky(schema.FlakyReport{
		FlakyTests: []schema.FlakyTest{{TestName: "test_b", FlakinessScore: 0.6}},
		Endpoints:  []schema.EndpointStatus{{Name: "primary"}},
	})

	assert.InDelta(t, 1.0, testutil.ToFloat64(c.flakyTests), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(c.flakiness))
	assert.InDelta(t, 0.0, testutil.ToFloat64(c.endpointUp.WithLabelValues("primary")), 1e-9)
}

func TestHandlerAndTextfile(t *testing.T) {
	c := New()
	c.ObserveConnectivity(schema.ConnectivityReport{Endpoints: []schema.EndpointStatus{{Name: "primary", Connected: true}}})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coverwatch_reportportal_up{endpoint="primary"} 1`)
	assert.Contains(t, rec.Body.String(), `coverwatch_last_analysis_timestamp_seconds{analysis="status"}`)

	path := filepath.Join(t.TempDir(), "coverwatch.prom")
	require.NoError(t, c.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "coverwatch_reportportal_up")

	err = c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.ErrorContains(t, err, "failed to write metrics file")
}
