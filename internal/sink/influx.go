// Package sink publishes analysis results to external time-series stores.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"
)

// trendMeasurement is the InfluxDB measurement trend points are written to.
const trendMeasurement = "coverage_trend"

// pointWriter is the part of the InfluxDB write API the publisher needs.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxPublisher writes trend results as InfluxDB points.
type InfluxPublisher struct {
	client influxdb2.Client
	writer pointWriter
	logger logrus.FieldLogger
}

var _ contract.TrendPublisher = (*InfluxPublisher)(nil)

// NewInfluxPublisher connects to the configured bucket with a blocking write API.
func NewInfluxPublisher(cfg contract.InfluxConfig, logger logrus.FieldLogger) (*InfluxPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("--influx-url and --influx-bucket are required to publish")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxPublisher{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger: logger.WithField("bucket", cfg.Bucket),
	}, nil
}

// PublishTrends writes one point per component with enough data, tagged by component and direction.
func (p *InfluxPublisher) PublishTrends(ctx context.Context, report schema.TrendReport, at time.Time) (int, error) {
	points := TrendPoints(report, at)
	if len(points) == 0 {
		p.logger.Warn("No component has enough data to publish")
		return 0, nil
	}
	if err := p.writer.WritePoint(ctx, points...); err != nil {
		return 0, fmt.Errorf("influx write: %w", err)
	}
	p.logger.WithField("points", len(points)).Info("Published trend points")
	return len(points), nil
}

// Close releases the client.
func (p *InfluxPublisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// TrendPoints converts the classified components of report into points stamped at.
// Components without sufficient data are left out.
func TrendPoints(report schema.TrendReport, at time.Time) []*write.Point {
	var points []*write.Point
	for _, component := range schema.SortedKeys(report.Trends) {
		stats, ok := report.Trends[component].Stats()
		if !ok {
			continue
		}
		points = append(points, influxdb2.NewPoint(
			trendMeasurement,
			map[string]string{
				"component": component,
				"direction": string(stats.Direction),
			},
			map[string]any{
				"latest":         stats.Latest,
				"mean":           stats.Mean,
				"stdev":          stats.Stdev,
				"slope":          stats.Slope,
				"volatility_pct": stats.VolatilityPct,
				"is_volatile":    stats.IsVolatile,
				"samples":        report.Trends[component].SampleCount,
			},
			at,
		))
	}
	return points
}
