package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintThresholdReport outputs the quality gate verdicts, dispatching based on the output format configured.
func PrintThresholdReport(report schema.ThresholdReport, cfg *contract.Config, duration time.Duration) error {
	if skipOutput(cfg) {
		return nil
	}
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVThresholds(w, report, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeThresholdTable(report, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeThresholdTable prints one row per component and the overall verdict.
func writeThresholdTable(report schema.ThresholdReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, w io.Writer) error {
	if report.Error != "" {
		if _, err := fmt.Fprintf(w, "Threshold check failed: %s\n", report.Error); err != nil {
			return err
		}
	}

	if len(report.Components) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Component", "Coverage", "Threshold", "Gap", "Quality", "Result"})
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})

		nameWidth := GetMaxTableNameWidth(cfg, 60)
		var data [][]string
		for _, component := range schema.SortedKeys(report.Components) {
			v := report.Components[component]
			data = append(data, []string{
				contract.TruncateName(schema.DisplayName(component), nameWidth),
				fmtFloat(v.Coverage) + "%",
				fmtFloat(v.Threshold) + "%",
				fmtFloat(v.Gap),
				string(v.QualityLevel),
				contract.GetActionLabel(v.Action, cfg.UseColors),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	s := report.Summary
	if _, err := fmt.Fprintf(w, "Overall: %s (average %s%% vs threshold %s%%; %d passing, %d warnings, %d failing)\n",
		contract.GetActionLabel(report.OverallResult, cfg.UseColors),
		fmtFloat(report.OverallCoverage), fmtFloat(report.OverallThreshold),
		s.Passing, s.Warnings, s.Failing); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Check completed in %v\n", duration)
	return err
}
