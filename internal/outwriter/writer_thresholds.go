package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/coverwatch/schema"
)

// writeCSVThresholds writes a row per component followed by the overall row.
func writeCSVThresholds(w io.Writer, report schema.ThresholdReport, fmtFloat func(float64) string) error {
	header := []string{
		"component",
		"coverage",
		"threshold",
		"threshold_met",
		"gap",
		"quality_level",
		"action",
		"total_statements",
		"covered_lines",
		"missing_lines",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, component := range schema.SortedKeys(report.Components) {
			v := report.Components[component]
			row := []string{
				component,
				fmtFloat(v.Coverage),
				fmtFloat(v.Threshold),
				strconv.FormatBool(v.ThresholdMet),
				fmtFloat(v.Gap),
				string(v.QualityLevel),
				string(v.Action),
				strconv.Itoa(v.TotalStatements),
				strconv.Itoa(v.CoveredLines),
				strconv.Itoa(v.MissingLines),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return cw.Write([]string{
			schema.OverallComponent,
			fmtFloat(report.OverallCoverage),
			fmtFloat(report.OverallThreshold),
			strconv.FormatBool(report.OverallMeetsThreshold),
			fmtFloat(schema.ThresholdGap(report.OverallCoverage, report.OverallThreshold)),
			"",
			string(report.OverallResult),
			"", "", "",
		})
	})
}
