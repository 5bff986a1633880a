package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/internal/iocache"
	"github.com/huangsam/coverwatch/internal/outwriter"
	"github.com/huangsam/coverwatch/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromViper reads and validates the history backend settings.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need the store without the full shared setup.
func historySetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}

	if err := historyManager.InitStores(backend, connStr); err != nil {
		return contract.WithExitCode(contract.ExitError, fmt.Errorf("failed to initialize history: %w", err))
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	return nil
}

// historyMigrateSetup resolves the backend without opening the store, so that
// migrations can run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return contract.WithExitCode(contract.ExitError, err)
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by analysis commands. This avoids ReportPortal and
// threshold processing for simple database operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the run history database and exports",
	Long: `Manage the run history recorded by the analysis commands.

When a history backend is set, every trends, regressions and thresholds run stores:
- Run metadata (command, timestamps, configuration, duration)
- Per-component outcomes (trend statistics, regressions, threshold action)

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history data
  migrate - Run database schema migrations

Examples:
  # Check history status
  coverwatch history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  coverwatch history export --history-backend sqlite --output-file coverage-history`,
}

// historyClearCmd clears the history data.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded run history",
	Long: `Delete all stored runs and per-component outcomes.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  coverwatch history export --output-file backup
  coverwatch history clear`,
	PreRunE: historyMigrateSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath := cfg.HistoryDBConnect
		if dbPath == "" {
			dbPath = contract.GetHistoryDBFilePath()
		}
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbPath, cfg.HistoryDBConnect); err != nil {
			return contract.WithExitCode(contract.ExitError, fmt.Errorf("failed to clear history: %w", err))
		}
		cmd.Println("History cleared successfully.")
		return nil
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show the backend, connection state, run counts, newest and oldest runs
and table sizes of the run history store.

Examples:
  coverwatch history status --history-backend sqlite
  coverwatch history status --output json`,
	PreRunE: historySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := historyManager.GetHistoryStore().GetStatus()
		if err != nil {
			return contract.WithExitCode(contract.ExitError, fmt.Errorf("failed to get history status: %w", err))
		}
		if err := outwriter.PrintHistoryStatus(status, cfg); err != nil {
			return contract.WithExitCode(contract.ExitError, err)
		}
		return nil
	},
}

// historyExportCmd exports history data to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs to Parquet format.

Writes two files next to --output-file:
- <output-file>.runs.parquet               - one row per run
- <output-file>.component_results.parquet  - one row per component outcome

Examples:
  coverwatch history export --output-file coverage-history
  duckdb -c "SELECT * FROM read_parquet('coverage-history.runs.parquet') LIMIT 10"`,
	PreRunE: historySetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		err := iocache.ExportHistory(historyManager.GetHistoryStore(), cfg.OutputFile, os.Stdout)
		switch {
		case errors.Is(err, iocache.ErrNothingToExport):
			contract.LogWarn("Nothing exported", err)
			return nil
		case err != nil:
			return contract.WithExitCode(contract.ExitError, fmt.Errorf("failed to export history: %w", err))
		}
		return nil
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  coverwatch history migrate --history-backend sqlite

  # Rollback to initial state
  coverwatch history migrate --target-version 0`,
	PreRunE: historyMigrateSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion, os.Stdout); err != nil {
			return contract.WithExitCode(contract.ExitError, fmt.Errorf("failed to run migrations: %w", err))
		}
		return nil
	},
}
