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

// PrintConnectivityReport outputs the ReportPortal reachability, dispatching based on the output format configured.
func PrintConnectivityReport(report schema.ConnectivityReport, cfg *contract.Config, duration time.Duration) error {
	if skipOutput(cfg) {
		return nil
	}

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVEndpoints(w, report.Endpoints)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeEndpointTable(report.Endpoints, cfg, w); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%d of %d instances reachable\n", report.Reachable, report.Total); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Check completed in %v\n", duration)
			return err
		}, "Wrote table")
	}
	return nil
}

// PrintSnapshot outputs a generated snapshot summary, dispatching based on the output format configured.
// JSON output carries the whole document; text and CSV show the component summary.
func PrintSnapshot(snap schema.GeneratedSnapshot, path string, cfg *contract.Config, duration time.Duration) error {
	if skipOutput(cfg) {
		return nil
	}
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, snap)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSnapshot(w, snap, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSnapshotTable(snap, path, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeSnapshotTable prints the per-component summary with insights and recommendations.
func writeSnapshotTable(snap schema.GeneratedSnapshot, path string, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, w io.Writer) error {
	components := snap.Summary.Components
	if len(components) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Component", "Launches", "Average", "Min", "Max", "Last", "Trend", "Stability"})
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for _, name := range schema.SortedKeys(components) {
			c := components[name]
			data = append(data, []string{
				c.DisplayName,
				fmt.Sprintf("%d", c.Launches),
				optFloat(c.AvgCoverage, fmtFloat),
				fmtFloat(c.MinCoverage),
				fmtFloat(c.MaxCoverage),
				fmtFloat(c.LastCoverage),
				c.Trend,
				c.CoverageStability,
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	for _, line := range snap.Insights {
		if _, err := fmt.Fprintf(w, "* %s\n", line); err != nil {
			return err
		}
	}
	for _, line := range snap.Recommendations {
		if _, err := fmt.Fprintf(w, "> %s\n", line); err != nil {
			return err
		}
	}
	if path != "" {
		if _, err := fmt.Fprintf(w, "Snapshot saved to %s\n", path); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Snapshot of %d launches generated in %v\n", snap.Metadata.TotalLaunchesAnalyzed, duration)
	return err
}

// writeEndpointTable prints one row per configured ReportPortal instance.
func writeEndpointTable(endpoints []schema.EndpointStatus, cfg *contract.Config, w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Instance", "Endpoint", "Project", "Status", "Launches", "Error"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, ep := range endpoints {
		status := contract.GetActionLabel(schema.PassAction, cfg.UseColors)
		if !ep.Connected {
			status = contract.GetActionLabel(schema.FailAction, cfg.UseColors)
		}
		data = append(data, []string{
			ep.Name,
			ep.Endpoint,
			ep.Project,
			status,
			fmt.Sprintf("%d", ep.Launches),
			contract.TruncateName(ep.Error, GetMaxTableNameWidth(cfg, 60)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintHistoryStatus shows the state of the run history database.
func PrintHistoryStatus(status schema.HistoryStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryStatus(status, w)
		}, "Wrote status")
	}
}

func writeHistoryStatus(status schema.HistoryStatus, w io.Writer) error {
	lines := []string{
		fmt.Sprintf("Backend:            %s", status.Backend),
		fmt.Sprintf("Connected:          %t", status.Connected),
		fmt.Sprintf("Total runs:         %d", status.TotalRuns),
		fmt.Sprintf("Components tracked: %d", status.TotalComponentsTracked),
	}
	if status.TotalRuns > 0 {
		lines = append(lines,
			fmt.Sprintf("Last run:           #%d at %s", status.LastRunID, status.LastRunTime.Format(contract.DateTimeFormat)),
			fmt.Sprintf("Oldest run:         %s", status.OldestRunTime.Format(contract.DateTimeFormat)),
		)
	}
	for _, table := range schema.SortedKeys(status.TableSizes) {
		lines = append(lines, fmt.Sprintf("Table %-24s %d rows", table+":", status.TableSizes[table]))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
