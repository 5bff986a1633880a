package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/coverwatch/schema"
	"github.com/sirupsen/logrus"
)

// ErrNoCoverage is returned when no current coverage measurement could be read.
var ErrNoCoverage = errors.New("no coverage data found")

// coverageFile is the subset of a coverage.py JSON report that is read.
type coverageFile struct {
	Totals *struct {
		PercentCovered *float64 `json:"percent_covered"`
		NumStatements  int      `json:"num_statements"`
		CoveredLines   int      `json:"covered_lines"`
		MissingLines   int      `json:"missing_lines"`
	} `json:"totals"`
}

// LoadCurrentCoverage reads the coverage_<component>.json reports in dir.
// Files without totals.percent_covered are skipped with a warning.
func LoadCurrentCoverage(dir, prefix string, logger logrus.FieldLogger) (map[string]schema.CoverageMeasurement, error) {
	files, err := filepath.Glob(filepath.Join(dir, prefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("invalid coverage prefix %q: %w", prefix, err)
	}
	sort.Strings(files)

	measurements := make(map[string]schema.CoverageMeasurement, len(files))
	for _, file := range files {
		base := filepath.Base(file)
		component := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".json")
		log := logger.WithField("file", base)
		if component == "" {
			log.Warn("Skipping coverage file without component name")
			continue
		}

		m, err := readCoverageFile(file)
		if err != nil {
			log.WithError(err).Warn("Skipping unusable coverage file")
			continue
		}
		coverage, clamped := schema.ClampCoverage(m.Coverage)
		if clamped {
			log.WithField("value", m.Coverage).Warn("Coverage outside [0,100] clamped")
		}
		m.Coverage = coverage
		m.Component = component
		m.SourceFile = base
		measurements[component] = m
	}

	if len(measurements) == 0 {
		return nil, ErrNoCoverage
	}
	return measurements, nil
}

// CoverageValues flattens measurements into component -> percentage.
func CoverageValues(measurements map[string]schema.CoverageMeasurement) map[string]float64 {
	values := make(map[string]float64, len(measurements))
	for component, m := range measurements {
		values[component] = m.Coverage
	}
	return values
}

func readCoverageFile(path string) (schema.CoverageMeasurement, error) {
	var m schema.CoverageMeasurement

	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	var raw coverageFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return m, fmt.Errorf("malformed JSON: %w", err)
	}
	if raw.Totals == nil || raw.Totals.PercentCovered == nil {
		return m, errors.New("missing totals.percent_covered")
	}
	m.Coverage = *raw.Totals.PercentCovered
	m.TotalStatements = raw.Totals.NumStatements
	m.CoveredLines = raw.Totals.CoveredLines
	m.MissingLines = raw.Totals.MissingLines
	return m, nil
}
