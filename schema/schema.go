// Package schema has the models shared by all parts of coverwatch.
package schema

import (
	"strings"
	"time"
)

// CoveragePoint is one component's coverage as recorded by a single history snapshot.
type CoveragePoint struct {
	Timestamp          time.Time `json:"timestamp"`           // Embedded generation time of the snapshot
	CoveragePercentage float64   `json:"coverage_percentage"` // Coverage in [0,100]
	Component          string    `json:"component"`           // Component name
	LaunchCount        int       `json:"launch_count"`        // Launches aggregated into this point
	ReportedTrend      string    `json:"reported_trend"`      // Trend string stored in the snapshot itself
	SourceFile         string    `json:"source_file"`         // Snapshot the point was read from
}

// ComponentSeries is the ordered coverage history of one component, oldest first.
type ComponentSeries []CoveragePoint

// Values returns the coverage percentages in series order.
func (s ComponentSeries) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.CoveragePercentage
	}
	return values
}

// Latest returns the newest point of the series.
func (s ComponentSeries) Latest() (CoveragePoint, bool) {
	if len(s) == 0 {
		return CoveragePoint{}, false
	}
	return s[len(s)-1], true
}

// History maps a component name to its series.
type History map[string]ComponentSeries

// LoadStats summarizes what the history loader saw on disk.
type LoadStats struct {
	FilesFound       int `json:"files_found"`
	FilesLoaded      int `json:"files_loaded"`
	FilesSkipped     int `json:"files_skipped"`
	FilesOutOfWindow int `json:"files_out_of_window"`
}

// Snapshot is the on-disk coverage analytics report consumed by the history loader.
type Snapshot struct {
	Metadata SnapshotMetadata `json:"metadata"`
	Summary  SnapshotSummary  `json:"summary"`
}

// SnapshotMetadata carries the embedded report timestamp.
type SnapshotMetadata struct {
	GeneratedAt           string `json:"generated_at"`
	AnalysisPeriod        string `json:"analysis_period,omitempty"`
	TotalLaunchesAnalyzed int    `json:"total_launches_analyzed,omitempty"`
	Source                string `json:"source,omitempty"`
}

// SnapshotSummary holds the per-component summaries of a snapshot.
type SnapshotSummary struct {
	Components map[string]SnapshotComponent `json:"components"`
}

// SnapshotComponent is one component entry inside a snapshot.
// Pointer fields distinguish a missing value from a zero value.
type SnapshotComponent struct {
	DisplayName         string         `json:"display_name,omitempty"`
	AvgCoverage         *float64       `json:"avg_coverage"`
	Launches            int            `json:"launches"`
	Trend               string         `json:"trend"`
	MaxCoverage         float64        `json:"max_coverage,omitempty"`
	MinCoverage         float64        `json:"min_coverage,omitempty"`
	LastCoverage        float64        `json:"last_coverage,omitempty"`
	CoverageStability   string         `json:"coverage_stability,omitempty"`
	QualityDistribution map[string]int `json:"quality_distribution,omitempty"`
}

// SnapshotTrendPoint is one chart point of a generated snapshot.
type SnapshotTrendPoint struct {
	Date       string  `json:"date"`
	Coverage   float64 `json:"coverage"`
	Quality    string  `json:"quality"`
	LaunchName string  `json:"launch_name"`
}

// GeneratedSnapshot is a snapshot produced by coverwatch from ReportPortal launches.
type GeneratedSnapshot struct {
	Metadata        SnapshotMetadata                `json:"metadata"`
	Summary         SnapshotSummary                 `json:"summary"`
	Trends          map[string][]SnapshotTrendPoint `json:"trends"`
	Insights        []string                        `json:"insights"`
	Recommendations []string                        `json:"recommendations"`
	Endpoints       []EndpointStatus                `json:"endpoints"`
}

// CoverageMeasurement is a freshly measured coverage value for a component.
type CoverageMeasurement struct {
	Component       string  `json:"component"`
	Coverage        float64 `json:"coverage_percentage"`
	TotalStatements int     `json:"total_statements"`
	CoveredLines    int     `json:"covered_lines"`
	MissingLines    int     `json:"missing_lines"`
	SourceFile      string  `json:"coverage_file,omitempty"`
}

// displayNames maps known component keys to their human names.
var displayNames = map[string]string{
	"xradio":                "XRADIO",
	"toolviper":             "ToolViper",
	"graphviper":            "GraphViper",
	"astroviper":            "AstroViper",
	"testviper_integration": "TestViper Integration",
	"testviper_misc":        "TestViper Misc",
}

// DisplayName returns the human name of a component, title-casing unknown keys.
func DisplayName(component string) string {
	if name, ok := displayNames[component]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(component, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
