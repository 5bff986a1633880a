package outwriter

import (
	"encoding/csv"
	"io"

	"github.com/huangsam/coverwatch/schema"
)

// writeCSVRegressions writes one row per regression event in detection order.
func writeCSVRegressions(w io.Writer, report schema.RegressionReport, fmtFloat func(float64) string) error {
	header := []string{
		"component",
		"type",
		"severity",
		"current_coverage",
		"previous_coverage",
		"drop_percentage",
		"coverage_drop",
		"trend_slope",
		"mean_coverage",
		"latest_coverage",
		"volatility",
		"coverage_range",
		"points_analyzed",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range report.Regressions {
			row := []string{
				e.Component,
				string(e.Kind),
				string(e.Severity),
				optFloat(e.CurrentCoverage, fmtFloat),
				optFloat(e.PreviousCoverage, fmtFloat),
				optFloat(e.DropPercentage, fmtFloat),
				optFloat(e.CoverageDrop, fmtFloat),
				optFloat(e.TrendSlope, fmtFloat),
				optFloat(e.MeanCoverage, fmtFloat),
				optFloat(e.LatestCoverage, fmtFloat),
				optFloat(e.Volatility, fmtFloat),
				optFloat(e.CoverageRange, fmtFloat),
				optInt(e.PointsAnalyzed),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
