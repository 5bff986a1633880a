// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/coverwatch/schema"
)

// LaunchSource is the boundary to one ReportPortal instance.
// The analyses only ever ask for launches since a date, the current coverage of a
// component, and test items of a launch; authentication and paging stay behind it.
type LaunchSource interface {
	// Name returns the configured instance name.
	Name() string

	// Endpoint returns the base URL of the instance.
	Endpoint() string

	// Project returns the ReportPortal project queried.
	Project() string

	// FetchLaunchesSince returns launches started at or after since, newest first.
	FetchLaunchesSince(ctx context.Context, since time.Time) ([]schema.Launch, error)

	// FetchCurrentCoverage returns the coverage of the newest launch carrying the component.
	// The boolean is false when no launch reports coverage for it.
	FetchCurrentCoverage(ctx context.Context, component string, since time.Time) (float64, bool, error)

	// FetchTestItems returns the test-level items of a launch.
	FetchTestItems(ctx context.Context, launchID int64) ([]schema.TestItem, error)

	// CheckConnection verifies the instance answers an authenticated request.
	CheckConnection(ctx context.Context) error
}

// HistoryManager defines the interface for managing the run history store.
// This allows the persistence layer to be mocked for testing.
type HistoryManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore defines the interface for tracking analysis runs and their per-component outcomes.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error)

	// RecordComponentOutcome stores what the run concluded for one component
	RecordComponentOutcome(runID int64, component string, outcome schema.ComponentOutcome) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, componentsAnalyzed int) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllComponentResults returns every stored component outcome
	GetAllComponentResults() ([]schema.ComponentResultRecord, error)

	// Close closes the underlying connection
	Close() error
}

// OutputWriter renders analysis reports in the configured output format.
// This allows the command layer to be tested without touching stdout.
type OutputWriter interface {
	WriteTrends(report schema.TrendReport, cfg *Config, duration time.Duration) error
	WriteRegressions(report schema.RegressionReport, cfg *Config, duration time.Duration) error
	WriteThresholds(report schema.ThresholdReport, cfg *Config, duration time.Duration) error
	WriteFlaky(report schema.FlakyReport, cfg *Config, duration time.Duration) error
	WriteConnectivity(report schema.ConnectivityReport, cfg *Config, duration time.Duration) error
	WriteSnapshot(snap schema.GeneratedSnapshot, path string, cfg *Config, duration time.Duration) error
}

// TrendPublisher pushes trend results to an external time-series store.
type TrendPublisher interface {
	// PublishTrends writes one point per component with enough data and returns how many were written.
	PublishTrends(ctx context.Context, report schema.TrendReport, at time.Time) (int, error)

	// Close flushes and releases the connection.
	Close()
}
