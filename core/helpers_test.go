package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// refNow anchors every lookback window in the tests.
var refNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testConfig(dir string) *contract.Config {
	return &contract.Config{
		Days:           30,
		Now:            refNow,
		ReportsDir:     dir,
		HistoryPattern: contract.DefaultHistoryPattern,
		CoverageDir:    dir,
		Source:         schema.FilesSource,
		Trend:          schema.DefaultTrendParams(),
		Regression:     schema.DefaultRegressionThresholds(),
		Thresholds:     schema.DefaultThresholds(),
		MinRuns:        contract.DefaultMinRuns,
		FlakyLimit:     contract.DefaultFlakyLimit,
		Precision:      1,
		Output:         schema.JSONOut,
		Quiet:          true,
		HistoryBackend: schema.NoneBackend,
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// writeSnapshotFile writes a history snapshot generated daysAgo days before refNow.
func writeSnapshotFile(t *testing.T, dir string, daysAgo int, coverage map[string]float64) string {
	t.Helper()
	at := refNow.AddDate(0, 0, -daysAgo)
	components := make(map[string]any, len(coverage))
	for name, v := range coverage {
		components[name] = map[string]any{"avg_coverage": v, "launches": 3, "trend": "stable"}
	}
	doc := map[string]any{
		"metadata": map[string]any{"generated_at": at.Format(time.RFC3339)},
		"summary":  map[string]any{"components": components},
	}
	name := fmt.Sprintf("tv_coverage_analytics_report_%s.json", at.Format("20060102_150405"))
	return writeJSONFile(t, dir, name, doc)
}

// writeCoverageFile writes a coverage.py JSON report for component.
func writeCoverageFile(t *testing.T, dir, component string, pct float64) string {
	t.Helper()
	doc := map[string]any{"totals": map[string]any{
		"percent_covered": pct, "num_statements": 200, "covered_lines": int(pct * 2), "missing_lines": 200 - int(pct*2),
	}}
	return writeJSONFile(t, dir, "coverage_"+component+".json", doc)
}

func writeJSONFile(t *testing.T, dir, name string, doc any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// writeSeries writes one snapshot per value for component, oldest first, one day apart.
func writeSeries(t *testing.T, dir, component string, values ...float64) {
	t.Helper()
	for i, v := range values {
		writeSnapshotFile(t, dir, len(values)-i, map[string]float64{component: v})
	}
}

func coverageLaunch(id int64, name string, at time.Time, component, pct string) schema.Launch {
	return schema.Launch{
		ID:        id,
		Name:      name,
		Status:    "PASSED",
		StartTime: at,
		Attributes: map[string]string{
			schema.AttrCoverageComponent:  component,
			schema.AttrCoveragePercentage: pct,
			schema.AttrCoverageQuality:    "good",
			schema.AttrCoverageStatements: "200",
			schema.AttrCoverageMissing:    "50",
		},
	}
}
