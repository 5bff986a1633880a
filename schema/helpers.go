package schema

import (
	"math"
	"sort"
)

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for optional numeric fields.
func Int(v int) *int {
	return &v
}

// SortedKeys returns the keys of any string-keyed map in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClampCoverage forces a percentage into [0,100] and reports whether it had to.
func ClampCoverage(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v):
		return 0, true
	case v < 0:
		return 0, true
	case v > 100:
		return 100, true
	default:
		return v, false
	}
}

// WorstSeverity returns the most severe tier among events, or "" when there are none.
func WorstSeverity(events []RegressionEvent) Severity {
	var worst Severity
	for _, e := range events {
		if e.Severity.Rank() > worst.Rank() {
			worst = e.Severity
		}
	}
	return worst
}
