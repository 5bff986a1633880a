package schema

// RegressionEvent is one detected coverage regression.
// Only the numeric fields relevant to the event kind are set.
type RegressionEvent struct {
	Component string         `json:"component"`
	Kind      RegressionKind `json:"type"`
	Severity  Severity       `json:"severity"`

	// immediate
	CurrentCoverage  *float64 `json:"current_coverage,omitempty"`
	PreviousCoverage *float64 `json:"previous_coverage,omitempty"`
	DropPercentage   *float64 `json:"drop_percentage,omitempty"`

	// immediate and trend
	CoverageDrop *float64 `json:"coverage_drop,omitempty"`

	// trend and volatility
	TrendSlope     *float64 `json:"trend_slope,omitempty"`
	MeanCoverage   *float64 `json:"mean_coverage,omitempty"`
	LatestCoverage *float64 `json:"latest_coverage,omitempty"`
	Volatility     *float64 `json:"volatility,omitempty"`
	CoverageRange  *float64 `json:"coverage_range,omitempty"`
	PointsAnalyzed *int     `json:"points_analyzed,omitempty"`
}

// RegressionSummary counts events by severity.
type RegressionSummary struct {
	Total    int `json:"total"`
	Major    int `json:"major"`
	Moderate int `json:"moderate"`
	Minor    int `json:"minor"`
}

// Add counts one event of the given severity.
func (s RegressionSummary) Add(sev Severity) RegressionSummary {
	s.Total++
	switch sev {
	case MajorSeverity:
		s.Major++
	case ModerateSeverity:
		s.Moderate++
	case MinorSeverity:
		s.Minor++
	}
	return s
}

// RegressionThresholds are the cutoffs used by the regression detector.
type RegressionThresholds struct {
	MajorDrop          float64 // Percentage points
	ModerateDrop       float64 // Percentage points
	MinorDrop          float64 // Percentage points
	TrendModerateSlope float64 // Declining slope below which a trend regression is moderate
}

// DefaultRegressionThresholds returns the calibrated defaults.
func DefaultRegressionThresholds() RegressionThresholds {
	return RegressionThresholds{
		MajorDrop:          10.0,
		ModerateDrop:       5.0,
		MinorDrop:          2.0,
		TrendModerateSlope: -1.0,
	}
}

// RegressionReport is the output of the regressions command.
type RegressionReport struct {
	DetectionDate      string                 `json:"detection_date"`
	DaysAnalyzed       int                    `json:"days_analyzed"`
	ComponentsAnalyzed int                    `json:"components_analyzed"`
	Regressions        []RegressionEvent      `json:"regressions"`
	Summary            RegressionSummary      `json:"summary"`
	AlertLevel         AlertLevel             `json:"alert_level"`
	ComponentTrends    map[string]TrendResult `json:"component_trends"`
	CurrentCoverage    map[string]float64     `json:"current_coverage"`
	Stats              LoadStats              `json:"load_stats"`
	Error              string                 `json:"error,omitempty"`
}
