package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/coverwatch/schema"
	"gonum.org/v1/gonum/stat"
)

// Snapshot trend and stability labels.
const (
	insufficientData = "insufficient_data"
	noCoverage       = "no_coverage"
	veryStable       = "very_stable"
	stableLabel      = "stable"
	variable         = "variable"
	highlyVariable   = "highly_variable"
)

// snapshotFilePrefix and the timestamp layout name written snapshots.
const (
	snapshotFilePrefix = "tv_coverage_analytics_report_"
	fileStampLayout    = "20060102_150405"
)

// ExtractLaunchCoverage reads the coverage attributes of a launch.
// The boolean is false when the launch carries no component attribute.
// Unparsable numbers read as zero.
func ExtractLaunchCoverage(launch schema.Launch) (schema.LaunchCoverage, bool) {
	component := launch.CoverageComponent()
	if component == "" {
		return schema.LaunchCoverage{}, false
	}

	pct, err := launch.CoveragePercentage()
	if err != nil {
		pct = 0
	}

	quality := launch.Attributes[schema.AttrCoverageQuality]
	if quality == "" {
		quality = "unknown"
	}
	status := launch.Attributes[schema.AttrCoverageStatus]
	if status == "" {
		status = "normal"
	}

	return schema.LaunchCoverage{
		LaunchID:   launch.ID,
		LaunchName: launch.Name,
		Time:       launch.StartTime,
		Component:  component,
		Percentage: pct,
		Quality:    quality,
		Statements: atoiOrZero(launch.Attributes[schema.AttrCoverageStatements]),
		Missing:    atoiOrZero(launch.Attributes[schema.AttrCoverageMissing]),
		Status:     status,
	}, true
}

// BuildSnapshot aggregates per-launch coverage into a history snapshot.
func BuildSnapshot(coverages []schema.LaunchCoverage, days int, now time.Time) schema.GeneratedSnapshot {
	byComponent := make(map[string][]schema.LaunchCoverage)
	for _, c := range coverages {
		byComponent[c.Component] = append(byComponent[c.Component], c)
	}

	snap := schema.GeneratedSnapshot{
		Metadata: schema.SnapshotMetadata{
			GeneratedAt:           now.Format(time.RFC3339),
			AnalysisPeriod:        fmt.Sprintf("Last %d days", days),
			TotalLaunchesAnalyzed: len(coverages),
			Source:                "reportportal",
		},
		Summary: schema.SnapshotSummary{Components: make(map[string]schema.SnapshotComponent, len(byComponent))},
		Trends:  make(map[string][]schema.SnapshotTrendPoint, len(byComponent)),
	}

	for _, component := range schema.SortedKeys(byComponent) {
		launches := byComponent[component]
		sort.SliceStable(launches, func(i, j int) bool {
			return launches[i].Time.Before(launches[j].Time)
		})

		percentages := make([]float64, len(launches))
		qualities := make(map[string]int)
		points := make([]schema.SnapshotTrendPoint, len(launches))
		for i, l := range launches {
			percentages[i] = l.Percentage
			qualities[l.Quality]++
			points[i] = schema.SnapshotTrendPoint{
				Date:       l.Time.Format(time.RFC3339),
				Coverage:   l.Percentage,
				Quality:    l.Quality,
				LaunchName: l.LaunchName,
			}
		}

		avg := schema.Round(stat.Mean(percentages, nil), 2)
		lo, hi := percentages[0], percentages[0]
		for _, p := range percentages {
			lo = min(lo, p)
			hi = max(hi, p)
		}
		snap.Summary.Components[component] = schema.SnapshotComponent{
			DisplayName:         schema.DisplayName(component),
			AvgCoverage:         &avg,
			Launches:            len(launches),
			Trend:               quarterTrend(percentages),
			MaxCoverage:         hi,
			MinCoverage:         lo,
			LastCoverage:        percentages[len(percentages)-1],
			CoverageStability:   stabilityLabel(percentages),
			QualityDistribution: qualities,
		}
		snap.Trends[component] = points
	}

	snap.Insights = snapshotInsights(snap.Summary.Components)
	snap.Recommendations = snapshotRecommendations(snap.Summary.Components)
	return snap
}

// WriteSnapshot saves the snapshot under dir with a timestamped name and returns the path.
func WriteSnapshot(dir string, snap schema.GeneratedSnapshot, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create reports dir: %w", err)
	}
	path := filepath.Join(dir, snapshotFilePrefix+now.Format(fileStampLayout)+".json")
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write snapshot: %w", err)
	}
	return path, nil
}

// quarterTrend compares the average of the newest quarter with the oldest quarter.
// Under four points the first and last values are compared.
func quarterTrend(percentages []float64) string {
	n := len(percentages)
	if n < 2 {
		return insufficientData
	}

	var recent, older float64
	if n < 4 {
		recent, older = percentages[n-1], percentages[0]
	} else {
		q := n / 4
		recent = stat.Mean(percentages[n-q:], nil)
		older = stat.Mean(percentages[:q], nil)
	}

	diff := recent - older
	switch {
	case diff > 5:
		return string(schema.Improving)
	case diff < -5:
		return string(schema.Declining)
	default:
		return string(schema.Stable)
	}
}

// stabilityLabel buckets the coefficient of variation of the values.
func stabilityLabel(percentages []float64) string {
	if len(percentages) < 3 {
		return insufficientData
	}
	m, sd := meanStdev(percentages)
	if m == 0 {
		return noCoverage
	}
	cv := sd / m * 100
	switch {
	case cv < 10:
		return veryStable
	case cv < 25:
		return stableLabel
	case cv < 50:
		return variable
	default:
		return highlyVariable
	}
}

func snapshotInsights(components map[string]schema.SnapshotComponent) []string {
	if len(components) == 0 {
		return []string{"No coverage data available for analysis"}
	}

	names := schema.SortedKeys(components)
	sum := 0.0
	best := names[0]
	var low, improving, declining []string
	for _, name := range names {
		c := components[name]
		avg := *c.AvgCoverage
		sum += avg
		if avg > *components[best].AvgCoverage {
			best = name
		}
		if avg < 60 {
			low = append(low, c.DisplayName)
		}
		switch c.Trend {
		case string(schema.Improving):
			improving = append(improving, c.DisplayName)
		case string(schema.Declining):
			declining = append(declining, c.DisplayName)
		}
	}

	insights := []string{
		fmt.Sprintf("Overall average coverage across all components: %.1f%%", sum/float64(len(names))),
		fmt.Sprintf("Best performing component: %s (%.1f%%)", components[best].DisplayName, *components[best].AvgCoverage),
	}
	if len(low) > 0 {
		insights = append(insights, "Components below 60% coverage: "+strings.Join(low, ", "))
	}
	if len(improving) > 0 {
		insights = append(insights, "Improving coverage trends: "+strings.Join(improving, ", "))
	}
	if len(declining) > 0 {
		insights = append(insights, "Declining coverage trends: "+strings.Join(declining, ", "))
	}
	return insights
}

func snapshotRecommendations(components map[string]schema.SnapshotComponent) []string {
	recs := []string{}
	for _, name := range schema.SortedKeys(components) {
		c := components[name]
		avg := *c.AvgCoverage
		switch {
		case avg < 40:
			recs = append(recs, c.DisplayName+": Critical - Coverage below 40%. Immediate action needed to add comprehensive tests.")
		case avg < 60:
			recs = append(recs, c.DisplayName+": Coverage below 60%. Consider adding more unit tests and integration tests.")
		case avg > 85:
			recs = append(recs, c.DisplayName+": Excellent coverage! Maintain current testing practices.")
		}
		switch c.Trend {
		case string(schema.Declining):
			recs = append(recs, c.DisplayName+": Coverage is declining. Review recent changes and ensure new code includes tests.")
		case string(schema.Improving):
			recs = append(recs, c.DisplayName+": Coverage improving. Continue current testing efforts.")
		}
		if c.CoverageStability == highlyVariable {
			recs = append(recs, c.DisplayName+": Coverage is highly variable. Implement consistent testing practices.")
		}
	}
	if len(components) > 1 {
		recs = append(recs,
			"Focus testing efforts on components with lowest coverage first for maximum impact.",
			"Use ReportPortal dashboard filters to track component-specific coverage trends.")
	}
	return recs
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
