package core

import (
	"math"
	"slices"

	"github.com/huangsam/coverwatch/schema"
	"gonum.org/v1/gonum/stat"
)

// AnalyzeTrend computes the statistics of one component series, oldest first.
// The result keeps full precision; use TrendResult.Rounded for reporting.
func AnalyzeTrend(component string, values []float64, params schema.TrendParams) schema.TrendResult {
	result := schema.TrendResult{
		Component:   component,
		SampleCount: len(values),
	}
	if len(values) == 0 || len(values) < params.MinSamples {
		return result
	}

	m, sd := meanStdev(values)
	slope := olsSlope(values)

	volatility := 0.0
	if m != 0 {
		volatility = sd / m * 100
	}

	result.HasSufficientData = true
	result.TrendStats = &schema.TrendStats{
		Direction:     classifyDirection(slope, params.SlopeThreshold),
		Slope:         slope,
		Mean:          m,
		Stdev:         sd,
		VolatilityPct: volatility,
		IsVolatile:    volatility > params.VolatilityThreshold,
		Min:           slices.Min(values),
		Max:           slices.Max(values),
		Latest:        values[len(values)-1],
		CoverageRange: slices.Max(values) - slices.Min(values),
	}
	return result
}

// AnalyzeTrends runs AnalyzeTrend for every component of the history.
func AnalyzeTrends(history schema.History, params schema.TrendParams) map[string]schema.TrendResult {
	trends := make(map[string]schema.TrendResult, len(history))
	for component, series := range history {
		trends[component] = AnalyzeTrend(component, series.Values(), params)
	}
	return trends
}

// classifyDirection applies the dead band around zero.
func classifyDirection(slope, threshold float64) schema.Direction {
	switch {
	case slope > threshold:
		return schema.Improving
	case slope < -threshold:
		return schema.Declining
	default:
		return schema.Stable
	}
}

// meanStdev returns the mean and the population standard deviation (divides by n).
func meanStdev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// olsSlope fits y against x = 0..n-1 by ordinary least squares.
func olsSlope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	if math.IsNaN(beta) {
		return 0
	}
	return beta
}
