package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintFlakyReport outputs the flaky test ranking, dispatching based on the output format configured.
func PrintFlakyReport(report schema.FlakyReport, cfg *contract.Config, duration time.Duration) error {
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
			return writeCSVFlaky(w, report, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFlakyTable(report, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeFlakyTable prints the ranked tests, limited by cfg.FlakyLimit.
func writeFlakyTable(report schema.FlakyReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, w io.Writer) error {
	tests := report.FlakyTests
	if cfg.FlakyLimit > 0 && len(tests) > cfg.FlakyLimit {
		tests = tests[:cfg.FlakyLimit]
	}

	if len(tests) == 0 {
		if _, err := fmt.Fprintln(w, "No flaky tests found."); err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Rank", "Test", "Runs", "Passed", "Failed", "Success", "Flakiness", "Stability"})
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})

		nameWidth := GetMaxTableNameWidth(cfg, 70)
		var data [][]string
		for i, ft := range tests {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				contract.TruncateName(ft.TestName, nameWidth),
				strconv.Itoa(ft.TotalRuns),
				strconv.Itoa(ft.PassedRuns),
				strconv.Itoa(ft.FailedRuns),
				fmtFloat(ft.SuccessRate*100) + "%",
				fmtFloat(ft.FlakinessScore),
				string(ft.StabilityRating),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Showing %d of %d flaky tests (launches scanned: %d, tests scanned: %d)\n",
		len(tests), len(report.FlakyTests), report.LaunchesScanned, report.TestsScanned); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v\n", duration)
	return err
}
