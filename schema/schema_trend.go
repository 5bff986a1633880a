package schema

// TrendResult is the statistical summary of one component series.
// When HasSufficientData is false the embedded stats are nil and absent from JSON,
// so callers must check the flag before reading any statistic.
type TrendResult struct {
	Component         string `json:"component"`
	HasSufficientData bool   `json:"has_sufficient_data"`
	SampleCount       int    `json:"sample_count"`
	*TrendStats
}

// TrendStats holds the numbers computed for a series with enough samples.
type TrendStats struct {
	Direction     Direction `json:"direction"`
	Slope         float64   `json:"slope"`
	Mean          float64   `json:"mean"`
	Stdev         float64   `json:"stdev"`
	VolatilityPct float64   `json:"volatility_pct"`
	IsVolatile    bool      `json:"is_volatile"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	Latest        float64   `json:"latest"`
	CoverageRange float64   `json:"coverage_range"`
}

// Stats returns a copy of the computed statistics and whether they exist.
func (r TrendResult) Stats() (TrendStats, bool) {
	if !r.HasSufficientData || r.TrendStats == nil {
		return TrendStats{}, false
	}
	return *r.TrendStats, true
}

// TrendParams are the tunables of trend classification.
type TrendParams struct {
	MinSamples          int     // Minimum points before a trend is classified
	SlopeThreshold      float64 // Dead-band half width for the slope
	VolatilityThreshold float64 // Coefficient of variation (percent) above which a series is volatile
}

// DefaultTrendParams returns the calibrated defaults.
func DefaultTrendParams() TrendParams {
	return TrendParams{
		MinSamples:          5,
		SlopeThreshold:      0.5,
		VolatilityThreshold: 5.0,
	}
}

// TrendReport is the output of the trends command.
type TrendReport struct {
	GeneratedAt  string                 `json:"generated_at"`
	DaysAnalyzed int                    `json:"days_analyzed"`
	Stats        LoadStats              `json:"load_stats"`
	Trends       map[string]TrendResult `json:"component_trends"`
	Error        string                 `json:"error,omitempty"`
}

// Rounded returns a copy with reported precision: slope to 3 decimals, the rest to 2.
func (r TrendResult) Rounded() TrendResult {
	stats, ok := r.Stats()
	if !ok {
		return TrendResult{Component: r.Component, SampleCount: r.SampleCount}
	}
	stats.Slope = Round(stats.Slope, 3)
	stats.Mean = Round(stats.Mean, 2)
	stats.Stdev = Round(stats.Stdev, 2)
	stats.VolatilityPct = Round(stats.VolatilityPct, 2)
	stats.Min = Round(stats.Min, 2)
	stats.Max = Round(stats.Max, 2)
	stats.Latest = Round(stats.Latest, 2)
	stats.CoverageRange = Round(stats.CoverageRange, 2)
	r.TrendStats = &stats
	return r
}
