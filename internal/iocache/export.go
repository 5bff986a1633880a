package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/internal/parquet"
)

// ErrNothingToExport is returned when the store holds no runs.
var ErrNothingToExport = errors.New("no run history found to export")

// ExportHistory writes the runs and component results of store to two Parquet files
// named after outputFile and reports progress to out.
func ExportHistory(store contract.HistoryStore, outputFile string, out io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history tracking is disabled; set --history-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNothingToExport
	}

	_, _ = fmt.Fprintf(out, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(out, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(out, "Total component records: %d\n", status.TableSizes[componentResultsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	results, err := store.GetAllComponentResults()
	if err != nil {
		return fmt.Errorf("failed to retrieve component results: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d runs to: %s\n", len(runs), runsFile)

	resultsFile := outputFile + ".component_results.parquet"
	if err := parquet.WriteComponentResultsParquet(parquet.ConvertComponentResultRecords(results), resultsFile); err != nil {
		return fmt.Errorf("failed to write component results: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d component results to: %s\n", len(results), resultsFile)
	return nil
}
