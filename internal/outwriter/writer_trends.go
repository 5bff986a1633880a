package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/coverwatch/schema"
)

// writeCSVTrends writes one row per component; statistic columns stay empty without enough data.
func writeCSVTrends(w io.Writer, report schema.TrendReport, fmtFloat func(float64) string) error {
	header := []string{
		"component",
		"sample_count",
		"has_sufficient_data",
		"direction",
		"slope",
		"mean",
		"stdev",
		"volatility_pct",
		"is_volatile",
		"min",
		"max",
		"latest",
		"coverage_range",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, component := range schema.SortedKeys(report.Trends) {
			trend := report.Trends[component]
			row := []string{
				component,
				strconv.Itoa(trend.SampleCount),
				strconv.FormatBool(trend.HasSufficientData),
			}
			if stats, ok := trend.Stats(); ok {
				row = append(row,
					string(stats.Direction),
					strconv.FormatFloat(stats.Slope, 'f', 3, 64),
					fmtFloat(stats.Mean),
					fmtFloat(stats.Stdev),
					fmtFloat(stats.VolatilityPct),
					strconv.FormatBool(stats.IsVolatile),
					fmtFloat(stats.Min),
					fmtFloat(stats.Max),
					fmtFloat(stats.Latest),
					fmtFloat(stats.CoverageRange),
				)
			} else {
				row = append(row, "", "", "", "", "", "", "", "", "", "")
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
