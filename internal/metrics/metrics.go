// Package metrics exposes analysis results as Prometheus gauges.
package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/huangsam/coverwatch/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coverwatch"

// Collector owns a private registry so several collectors can coexist in tests and servers.
type Collector struct {
	mu       sync.Mutex
	registry *prometheus.Registry

	coverage        *prometheus.GaugeVec
	slope           *prometheus.GaugeVec
	volatility      *prometheus.GaugeVec
	samples         *prometheus.GaugeVec
	regressions     *prometheus.GaugeVec
	alertLevel      prometheus.Gauge
	thresholdAction *prometheus.GaugeVec
	overallCoverage prometheus.Gauge
	flakyTests      prometheus.Gauge
	flakiness       *prometheus.GaugeVec
	endpointUp      *prometheus.GaugeVec
	lastAnalysis    *prometheus.GaugeVec
}

// New creates a collector with every gauge registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		// Labels: component
		coverage: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coverage_percent",
			Help:      "Latest known coverage percentage per component",
		}, []string{"component"}),
		// Labels: component
		slope: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trend",
			Name:      "slope",
			Help:      "Least-squares coverage slope in points per run",
		}, []string{"component"}),
		// Labels: component
		volatility: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trend",
			Name:      "volatility_percent",
			Help:      "Coefficient of variation of the coverage series",
		}, []string{"component"}),
		// Labels: component
		samples: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trend",
			Name:      "samples",
			Help:      "Number of history points analyzed",
		}, []string{"component"}),
		// Labels: severity (major, moderate, minor)
		regressions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regressions",
			Help:      "Regression events of the last detection by severity",
		}, []string{"severity"}),
		alertLevel: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_level",
			Help:      "Alert level of the last detection (0 OK, 1 INFO, 2 WARNING, 3 CRITICAL)",
		}),
		// Labels: component, action (PASS, WARN, FAIL); the active action is 1
		thresholdAction: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "threshold",
			Name:      "action",
			Help:      "Threshold gate action per component",
		}, []string{"component", "action"}),
		overallCoverage: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "threshold",
			Name:      "average_coverage_percent",
			Help:      "Average coverage across gated components",
		}),
		flakyTests: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "flaky",
			Name:      "tests",
			Help:      "Number of tests classified as flaky",
		}),
		// Labels: test
		flakiness: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "flaky",
			Name:      "score",
			Help:      "Flakiness score per test",
		}, []string{"test"}),
		// Labels: endpoint
		endpointUp: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reportportal",
			Name:      "up",
			Help:      "Whether the ReportPortal instance answered",
		}, []string{"endpoint"}),
		// Labels: analysis
		lastAnalysis: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_analysis_timestamp_seconds",
			Help:      "Unix time of the last completed analysis",
		}, []string{"analysis"}),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// WriteTextfile writes the registry for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

// ObserveTrends records the per-component trend statistics.
func (c *Collector) ObserveTrends(report schema.TrendReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for component, trend := range report.Trends {
		c.samples.WithLabelValues(component).Set(float64(trend.SampleCount))
		if trend.TrendStats == nil {
			continue
		}
		c.coverage.WithLabelValues(component).Set(trend.Latest)
		c.slope.WithLabelValues(component).Set(trend.Slope)
		c.volatility.WithLabelValues(component).Set(trend.VolatilityPct)
	}
	c.markDone("trends")
}

// ObserveRegressions records severity counts, the alert level and the fresh coverage values.
func (c *Collector) ObserveRegressions(report schema.RegressionReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.regressions.WithLabelValues(string(schema.MajorSeverity)).Set(float64(report.Summary.Major))
	c.regressions.WithLabelValues(string(schema.ModerateSeverity)).Set(float64(report.Summary.Moderate))
	c.regressions.WithLabelValues(string(schema.MinorSeverity)).Set(float64(report.Summary.Minor))
	c.alertLevel.Set(alertLevelValue(report.AlertLevel))
	for component, value := range report.CurrentCoverage {
		c.coverage.WithLabelValues(component).Set(value)
	}
	c.markDone("regressions")
}

// ObserveThresholds records one-hot gate actions per component.
func (c *Collector) ObserveThresholds(report schema.ThresholdReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for component, verdict := range report.Components {
		c.coverage.WithLabelValues(component).Set(verdict.Coverage)
		for _, action := range []schema.Action{schema.PassAction, schema.WarnAction, schema.FailAction} {
			v := 0.0
			if verdict.Action == action {
				v = 1
			}
			c.thresholdAction.WithLabelValues(component, string(action)).Set(v)
		}
	}
	c.overallCoverage.Set(report.Summary.AverageCoverage)
	c.markDone("thresholds")
}

// ObserveFlaky records the flaky test count and the score of each reported test.
func (c *Collector) ObserveFlaky(report schema.FlakyReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flakyTests.Set(float64(len(report.FlakyTests)))
	c.flakiness.Reset()
	for _, test := range report.FlakyTests {
		c.flakiness.WithLabelValues(test.TestName).Set(test.FlakinessScore)
	}
	c.observeEndpoints(report.Endpoints)
	c.markDone("flaky")
}

// ObserveConnectivity records which ReportPortal instances answered.
func (c *Collector) ObserveConnectivity(report schema.ConnectivityReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.observeEndpoints(report.Endpoints)
	c.markDone("status")
}

func (c *Collector) observeEndpoints(endpoints []schema.EndpointStatus) {
	for _, ep := range endpoints {
		v := 0.0
		if ep.Connected {
			v = 1
		}
		c.endpointUp.WithLabelValues(ep.Name).Set(v)
	}
}

func (c *Collector) markDone(analysis string) {
	c.lastAnalysis.WithLabelValues(analysis).SetToCurrentTime()
}

func alertLevelValue(level schema.AlertLevel) float64 {
	switch level {
	case schema.CriticalAlert:
		return 3
	case schema.WarningAlert:
		return 2
	case schema.InfoAlert:
		return 1
	default:
		return 0
	}
}
