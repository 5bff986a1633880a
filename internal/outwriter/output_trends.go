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

// PrintTrendReport outputs the trend analysis, dispatching based on the output format configured.
func PrintTrendReport(report schema.TrendReport, cfg *contract.Config, duration time.Duration) error {
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
			return writeCSVTrends(w, report, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrendTable(report, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeTrendTable generates and writes the human-readable trend table.
func writeTrendTable(report schema.TrendReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, w io.Writer) error {
	if report.Error != "" {
		_, err := fmt.Fprintf(w, "Trend analysis failed: %s\n", report.Error)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Component", "Samples", "Direction", "Slope", "Mean", "Stdev", "Volatility", "Latest"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg, 70)
	var data [][]string
	for _, component := range schema.SortedKeys(report.Trends) {
		trend := report.Trends[component]
		row := []string{contract.TruncateName(component, nameWidth), strconv.Itoa(trend.SampleCount)}
		stats, ok := trend.Stats()
		if !ok {
			row = append(row, "insufficient data", "", "", "", "", "")
			data = append(data, row)
			continue
		}
		volatility := fmtFloat(stats.VolatilityPct) + "%"
		if stats.IsVolatile {
			volatility += " !"
		}
		row = append(row,
			contract.GetDirectionLabel(stats.Direction, cfg.UseColors),
			fmt.Sprintf("%+.3f", stats.Slope),
			fmtFloat(stats.Mean),
			fmtFloat(stats.Stdev),
			volatility,
			fmtFloat(stats.Latest),
		)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	st := report.Stats
	if _, err := fmt.Fprintf(w, "Analyzed %d components over %d days (snapshots loaded: %d, skipped: %d)\n",
		len(report.Trends), report.DaysAnalyzed, st.FilesLoaded, st.FilesSkipped); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v\n", duration)
	return err
}
