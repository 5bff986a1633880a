package schema

import "strings"

// ThresholdVerdict is the gate decision for one component.
type ThresholdVerdict struct {
	Component       string       `json:"component"`
	Coverage        float64      `json:"coverage"`
	Threshold       float64      `json:"threshold"`
	ThresholdMet    bool         `json:"threshold_met"`
	QualityLevel    QualityLevel `json:"quality_level"`
	Action          Action       `json:"action"`
	Gap             float64      `json:"gap"`
	TotalStatements int          `json:"total_statements,omitempty"`
	CoveredLines    int          `json:"covered_lines,omitempty"`
	MissingLines    int          `json:"missing_lines,omitempty"`
	CoverageFile    string       `json:"coverage_file,omitempty"`
}

// QualityBand is one row of the fixed quality band table.
// Min is inclusive, Max is exclusive except for the top band.
type QualityBand struct {
	Level  QualityLevel `json:"level" yaml:"level"`
	Min    float64      `json:"min" yaml:"min"`
	Max    float64      `json:"max" yaml:"max"`
	Action Action       `json:"action" yaml:"action"`
}

var qualityBands = [...]QualityBand{
	{Level: CriticalQuality, Min: 0, Max: 40, Action: FailAction},
	{Level: LowQuality, Min: 40, Max: 60, Action: WarnAction},
	{Level: GoodQuality, Min: 60, Max: 80, Action: PassAction},
	{Level: ExcellentQuality, Min: 80, Max: 100, Action: PassAction},
}

// QualityBands returns a copy of the fixed band table, ordered by range.
func QualityBands() []QualityBand {
	bands := qualityBands
	return bands[:]
}

// ThresholdGap is how far coverage falls short of threshold, or 0 when it is met.
func ThresholdGap(coverage, threshold float64) float64 {
	if coverage >= threshold {
		return 0
	}
	return Round(threshold-coverage, 2)
}

// DefaultOverallThreshold applies when neither the component nor "overall" has an entry.
const DefaultOverallThreshold = 60.0

// DefaultThresholds returns the stock per-component minimums.
func DefaultThresholds() map[string]float64 {
	return map[string]float64{
		"xradio":                70.0,
		"astroviper":            65.0,
		"toolviper":             60.0,
		"graphviper":            60.0,
		"testviper_integration": 50.0,
		"testviper_misc":        30.0,
		OverallComponent:        DefaultOverallThreshold,
	}
}

// ThresholdSummary counts verdicts by action.
type ThresholdSummary struct {
	TotalComponents int     `json:"total_components"`
	Passing         int     `json:"passing"`
	Warnings        int     `json:"warnings"`
	Failing         int     `json:"failing"`
	AverageCoverage float64 `json:"average_coverage"`
}

// ThresholdReport is the output of the thresholds command.
type ThresholdReport struct {
	OverallResult         Action                      `json:"overall_result"`
	OverallCoverage       float64                     `json:"overall_coverage"`
	OverallThreshold      float64                     `json:"overall_threshold"`
	OverallMeetsThreshold bool                        `json:"overall_meets_threshold"`
	Components            map[string]ThresholdVerdict `json:"components"`
	Summary               ThresholdSummary            `json:"summary"`
	Timestamp             string                      `json:"timestamp"`
	Error                 string                      `json:"error,omitempty"`
}

// ResolveThreshold returns the minimum for a component: its own entry, then "overall",
// then DefaultOverallThreshold.
func ResolveThreshold(thresholds map[string]float64, component string) float64 {
	if v, ok := thresholds[component]; ok {
		return v
	}
	// Configured keys are lowercased; file and snapshot names may not be.
	if v, ok := thresholds[strings.ToLower(component)]; ok {
		return v
	}
	if v, ok := thresholds[OverallComponent]; ok {
		return v
	}
	return DefaultOverallThreshold
}
