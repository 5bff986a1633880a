// Package parquet exports coverwatch run history to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/coverwatch/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one analysis command execution.
// This struct maps to the coverwatch_runs database table.
type Run struct {
	RunID   int64  `parquet:"run_id,snappy"`
	RunUUID string `parquet:"run_uuid,snappy"`
	Command string `parquet:"command,snappy,dict"`

	StartTime time.Time  `parquet:"start_time,snappy"`
	EndTime   *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is absent for runs that never finished
	RunDurationMs      *int32 `parquet:"run_duration_ms,optional,snappy"`
	ComponentsAnalyzed int32  `parquet:"components_analyzed,snappy"`

	// ConfigParams contains the JSON-encoded analysis parameters
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ComponentResult is what one run concluded about one component.
// This struct maps to the coverwatch_component_results database table.
type ComponentResult struct {
	RunID             int64     `parquet:"run_id,snappy"`
	Component         string    `parquet:"component,snappy,dict"`
	AnalysisTime      time.Time `parquet:"analysis_time,snappy"`
	SampleCount       int32     `parquet:"sample_count,snappy"`
	HasSufficientData bool      `parquet:"has_sufficient_data"`

	// Trend statistics are absent without sufficient data
	Mean       *float64 `parquet:"mean,optional,snappy"`
	Stdev      *float64 `parquet:"stdev,optional,snappy"`
	Slope      *float64 `parquet:"slope,optional,snappy"`
	Volatility *float64 `parquet:"volatility,optional,snappy"`
	Latest     *float64 `parquet:"latest,optional,snappy"`
	Direction  *string  `parquet:"direction,optional,snappy"`
	IsVolatile bool     `parquet:"is_volatile"`

	Regressions     int32   `parquet:"regressions,snappy"`
	WorstSeverity   *string `parquet:"worst_severity,optional,snappy"`
	ThresholdAction *string `parquet:"threshold_action,optional,snappy"`
}

// writeParquet writes rows to outputPath using the schema inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteComponentResultsParquet writes component results to a Parquet file.
func WriteComponentResultsParquet(data []ComponentResult, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertRunRecords converts store records for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:              r.RunID,
			RunUUID:            r.RunUUID,
			Command:            r.Command,
			StartTime:          r.StartTime,
			EndTime:            r.EndTime,
			RunDurationMs:      r.RunDurationMs,
			ComponentsAnalyzed: r.ComponentsAnalyzed,
			ConfigParams:       r.ConfigParams,
		}
	}
	return result
}

// ConvertComponentResultRecords converts store records for Parquet export.
func ConvertComponentResultRecords(records []schema.ComponentResultRecord) []ComponentResult {
	result := make([]ComponentResult, len(records))
	for i, r := range records {
		result[i] = ComponentResult{
			RunID:             r.RunID,
			Component:         r.Component,
			AnalysisTime:      r.AnalysisTime,
			SampleCount:       r.SampleCount,
			HasSufficientData: r.HasSufficientData,
			Mean:              r.Mean,
			Stdev:             r.Stdev,
			Slope:             r.Slope,
			Volatility:        r.Volatility,
			Latest:            r.Latest,
			Direction:         r.Direction,
			IsVolatile:        r.IsVolatile,
			Regressions:       r.Regressions,
			WorstSeverity:     r.WorstSeverity,
			ThresholdAction:   r.ThresholdAction,
		}
	}
	return result
}
