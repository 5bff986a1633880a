package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
)

// ErrNoHistory is returned when no snapshot inside the window could be used.
var ErrNoHistory = errors.New("no coverage history available")

// snapshotTimeLayouts are tried in order; layouts without a zone are read as UTC.
var snapshotTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseSnapshotTime parses the generated_at value of a snapshot.
func ParseSnapshotTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range snapshotTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// LoadHistory reads every snapshot in dir matching pattern whose embedded generation
// time is at or after since, and returns one series per component, oldest first.
// Unusable files are skipped with a warning. File modification times are never consulted.
func LoadHistory(dir, pattern string, since time.Time, logger logrus.FieldLogger) (schema.History, schema.LoadStats, error) {
	var stats schema.LoadStats

	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, stats, fmt.Errorf("invalid history pattern %q: %w", pattern, err)
	}
	sort.Strings(files)
	stats.FilesFound = len(files)

	history := make(schema.History)
	for _, file := range files {
		log := logger.WithField("file", filepath.Base(file))

		snap, generatedAt, err := readSnapshot(file)
		if err != nil {
			stats.FilesSkipped++
			log.WithError(err).Warn("Skipping unusable snapshot")
			continue
		}
		if generatedAt.Before(since) {
			stats.FilesOutOfWindow++
			log.WithField("generated_at", generatedAt.Format(time.RFC3339)).Debug("Snapshot outside lookback window")
			continue
		}
		stats.FilesLoaded++

		for _, component := range schema.SortedKeys(snap.Summary.Components) {
			entry := snap.Summary.Components[component]
			if entry.AvgCoverage == nil {
				log.WithField("component", component).Debug("Component without avg_coverage")
				continue
			}
			coverage, clamped := schema.ClampCoverage(*entry.AvgCoverage)
			if clamped {
				log.WithField("component", component).WithField("value", *entry.AvgCoverage).Warn("Coverage outside [0,100] clamped")
			}
			history[component] = append(history[component], schema.CoveragePoint{
				Timestamp:          generatedAt,
				CoveragePercentage: coverage,
				Component:          component,
				LaunchCount:        entry.Launches,
				ReportedTrend:      entry.Trend,
				SourceFile:         filepath.Base(file),
			})
		}
	}

	if stats.FilesLoaded == 0 {
		return nil, stats, ErrNoHistory
	}

	for component, series := range history {
		sort.SliceStable(series, func(i, j int) bool {
			if !series[i].Timestamp.Equal(series[j].Timestamp) {
				return series[i].Timestamp.Before(series[j].Timestamp)
			}
			return series[i].SourceFile < series[j].SourceFile
		})
		history[component] = series
	}

	return history, stats, nil
}

// LatestCoverage returns the newest coverage of every component in the history.
func LatestCoverage(history schema.History) map[string]float64 {
	latest := make(map[string]float64, len(history))
	for component, series := range history {
		if p, ok := series.Latest(); ok {
			latest[component] = p.CoveragePercentage
		}
	}
	return latest
}

// readSnapshot decodes one snapshot and its embedded generation time.
func readSnapshot(path string) (schema.Snapshot, time.Time, error) {
	var snap schema.Snapshot

	data, err := os.ReadFile(path)
	if err != nil {
		return snap, time.Time{}, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, time.Time{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if snap.Metadata.GeneratedAt == "" {
		return snap, time.Time{}, errors.New("missing metadata.generated_at")
	}
	generatedAt, err := ParseSnapshotTime(snap.Metadata.GeneratedAt)
	if err != nil {
		return snap, time.Time{}, err
	}
	return snap, generatedAt, nil
}
