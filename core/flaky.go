package core

import (
	"math"
	"sort"
	"strings"

	"github.com/huangsam/coverwatch/schema"
)

// Outcome statuses as normalized from ReportPortal items.
const (
	statusPassed = "passed"
	statusFailed = "failed"
)

// AnalyzeFlakiness finds tests that both passed and failed in at least minRuns results.
// Results are sorted by flakiness score, highest first, ties by name.
func AnalyzeFlakiness(outcomes map[string][]string, minRuns int) []schema.FlakyTest {
	flaky := []schema.FlakyTest{}
	for _, name := range schema.SortedKeys(outcomes) {
		results := outcomes[name]
		total := len(results)
		if total < minRuns {
			continue
		}

		passed, failed := 0, 0
		for _, status := range results {
			switch strings.ToLower(status) {
			case statusPassed:
				passed++
			case statusFailed:
				failed++
			}
		}
		if passed == 0 || failed == 0 {
			continue
		}

		successRate := float64(passed) / float64(total)
		flaky = append(flaky, schema.FlakyTest{
			TestName:        name,
			SuccessRate:     schema.Round(successRate, 4),
			FlakinessScore:  schema.Round(1-math.Abs(successRate-0.5)*2, 4),
			TotalRuns:       total,
			PassedRuns:      passed,
			FailedRuns:      failed,
			StabilityRating: StabilityRatingFor(successRate),
			Recommendations: flakyRecommendations(successRate, total),
		})
	}

	sort.SliceStable(flaky, func(i, j int) bool {
		if flaky[i].FlakinessScore != flaky[j].FlakinessScore {
			return flaky[i].FlakinessScore > flaky[j].FlakinessScore
		}
		return flaky[i].TestName < flaky[j].TestName
	})
	return flaky
}

// StabilityRatingFor rates a pass rate in [0,1].
func StabilityRatingFor(successRate float64) schema.StabilityRating {
	switch {
	case successRate >= 0.95:
		return schema.ExcellentStability
	case successRate >= 0.85:
		return schema.GoodStability
	case successRate >= 0.70:
		return schema.FairStability
	case successRate >= 0.50:
		return schema.PoorStability
	default:
		return schema.CriticalStability
	}
}

func flakyRecommendations(successRate float64, totalRuns int) []string {
	var recs []string
	switch {
	case successRate < 0.5:
		recs = append(recs,
			"Critical: Test fails more often than it passes",
			"Consider disabling test until root cause is identified")
	case successRate < 0.8:
		recs = append(recs,
			"Add retry logic with exponential backoff",
			"Review test dependencies and timing issues")
	}
	if totalRuns < 10 {
		recs = append(recs, "Insufficient data - monitor over more test runs")
	}
	return append(recs,
		"Review test environment setup and teardown",
		"Check for race conditions or timing dependencies")
}
