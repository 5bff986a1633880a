package schema

import "time"

// ComponentOutcome is what a single run concluded about one component.
type ComponentOutcome struct {
	AnalysisTime    time.Time
	Trend           TrendResult
	Regressions     int      // Events recorded for the component
	WorstSeverity   Severity // Empty when no event fired
	ThresholdAction Action   // Empty when the run did not gate thresholds
}

// RunRecord represents a row from the coverwatch_runs table.
type RunRecord struct {
	RunID              int64
	RunUUID            string
	Command            string
	StartTime          time.Time
	EndTime            *time.Time
	RunDurationMs      *int32
	ComponentsAnalyzed int32
	ConfigParams       *string
}

// ComponentResultRecord represents a row from the coverwatch_component_results table.
type ComponentResultRecord struct {
	RunID             int64
	Component         string
	AnalysisTime      time.Time
	SampleCount       int32
	HasSufficientData bool
	Mean              *float64
	Stdev             *float64
	Slope             *float64
	Volatility        *float64
	Latest            *float64
	Direction         *string
	IsVolatile        bool
	Regressions       int32
	WorstSeverity     *string
	ThresholdAction   *string
}
