package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/coverwatch/schema"
)

// writeCSVFlaky writes every flaky test with its recommendations joined by "; ".
func writeCSVFlaky(w io.Writer, report schema.FlakyReport, fmtFloat func(float64) string) error {
	header := []string{
		"rank",
		"test_name",
		"total_runs",
		"passed_runs",
		"failed_runs",
		"success_rate",
		"flakiness_score",
		"stability_rating",
		"recommendations",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, ft := range report.FlakyTests {
			row := []string{
				strconv.Itoa(i + 1),
				ft.TestName,
				strconv.Itoa(ft.TotalRuns),
				strconv.Itoa(ft.PassedRuns),
				strconv.Itoa(ft.FailedRuns),
				strconv.FormatFloat(ft.SuccessRate, 'f', 4, 64),
				fmtFloat(ft.FlakinessScore),
				string(ft.StabilityRating),
				strings.Join(ft.Recommendations, "; "),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
