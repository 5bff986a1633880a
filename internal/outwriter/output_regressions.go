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

// PrintRegressionReport outputs detected regressions, dispatching based on the output format configured.
func PrintRegressionReport(report schema.RegressionReport, cfg *contract.Config, duration time.Duration) error {
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
			return writeCSVRegressions(w, report, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRegressionTable(report, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeRegressionTable prints the alert banner followed by one row per event.
func writeRegressionTable(report schema.RegressionReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, w io.Writer) error {
	if report.Error != "" {
		_, err := fmt.Fprintf(w, "Regression detection failed: %s\n", report.Error)
		return err
	}

	s := report.Summary
	if _, err := fmt.Fprintf(w, "Alert level: %s (%d regressions: %d major, %d moderate, %d minor)\n",
		contract.GetAlertLabel(report.AlertLevel, cfg.UseColors), s.Total, s.Major, s.Moderate, s.Minor); err != nil {
		return err
	}

	if len(report.Regressions) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Component", "Type", "Severity", "Previous", "Current", "Drop", "Detail"})
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})

		nameWidth := GetMaxTableNameWidth(cfg, 70)
		var data [][]string
		for _, e := range report.Regressions {
			data = append(data, []string{
				contract.TruncateName(e.Component, nameWidth),
				string(e.Kind),
				contract.GetSeverityLabel(e.Severity, cfg.UseColors),
				optFloat(e.PreviousCoverage, fmtFloat),
				optFloat(firstFloat(e.CurrentCoverage, e.LatestCoverage), fmtFloat),
				optFloat(firstFloat(e.DropPercentage, e.CoverageDrop), fmtFloat),
				regressionDetail(e, fmtFloat),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Analyzed %d components over %d days\n", report.ComponentsAnalyzed, report.DaysAnalyzed); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Detection completed in %v\n", duration)
	return err
}

// regressionDetail summarizes the trend or volatility context of an event.
func regressionDetail(e schema.RegressionEvent, fmtFloat func(float64) string) string {
	switch e.Kind {
	case schema.TrendRegression:
		if e.TrendSlope != nil {
			return fmt.Sprintf("slope %+.3f/run", *e.TrendSlope)
		}
	case schema.VolatilityRegression:
		if e.Volatility != nil {
			return "volatility " + fmtFloat(*e.Volatility) + "%"
		}
	}
	return ""
}

// firstFloat returns the first non-nil value.
func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
