package cmd

import (
	"os"

	"github.com/huangsam/coverwatch/core"
	"github.com/huangsam/coverwatch/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runExecutor adapts an analysis executor to Cobra's RunE.
func runExecutor(fn core.ExecutorFunc) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		return fn(rootCtx, newAnalyzer(), outwriter.NewOutWriter())
	}
}

// trendsCmd classifies the coverage trend of every component.
var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Classify coverage trends per component from history snapshots.",
	Long: `Load the coverage history snapshots inside the lookback window and fit a
least-squares trend per component.

Each component is reported with:
- Sample count and whether it has enough data
- Mean, standard deviation and latest coverage
- Slope in percentage points per sample
- Direction (improving, stable, declining) and volatility

Examples:
  # Trends over the last 30 days
  coverwatch trends

  # Longer window with a stricter slope threshold
  coverwatch trends --days 90 --slope-threshold 0.25

  # Export as JSON for dashboards
  coverwatch trends --output json --output-file trends.json`,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteTrends),
}

// regressionsCmd detects coverage regressions and fails the build on them.
var regressionsCmd = &cobra.Command{
	Use:   "regressions",
	Short: "Detect coverage regressions (exits 1 on regressions).",
	Long: `Compare current coverage against the latest history snapshot and inspect the
trend of every component for gradual decline and volatility.

Three kinds of regression are reported:
- immediate  - current coverage dropped against the last snapshot
- trend      - the fitted trend is declining
- volatility - the coverage range in the window is too wide

Exit codes: 0 no regressions, 1 regressions found, 2 analysis error.
With --alert-only only major and moderate regressions fail the run.

Examples:
  # Gate a CI job on regressions
  coverwatch regressions --reports-dir reports --coverage-dir coverage

  # Only fail on significant drops and keep a JSON record
  coverwatch regressions --alert-only --save

  # Use the newest history snapshot as the current state
  coverwatch regressions --source history`,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteRegressions),
}

// thresholdsCmd gates current coverage against per-component minimums.
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Enforce per-component coverage thresholds for CI/CD pipelines.",
	Long: `Check the current coverage of every component against its configured minimum
and quality band.

Results:
- FAIL - below the minimum or in the critical band
- WARN - above the minimum but in the low band
- PASS - good or excellent coverage

Exit codes: 0 pass, 1 failure (and warnings with --strict), 2 analysis error.
With --report-only the command always exits 0 unless the analysis errors.

Examples:
  # Gate on coverage_*.json files in the current directory
  coverwatch thresholds

  # Custom thresholds per component
  coverwatch thresholds --thresholds-override "xradio:75,overall:65"

  # Gate on the latest ReportPortal launches
  coverwatch thresholds --source reportportal --strict

  # Write a starter config
  coverwatch thresholds --create-config .coverwatch.yaml`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		if path := viper.GetString("create-config"); path != "" {
			return core.CreateDefaultConfig(path, os.Stdout)
		}
		return runExecutor(core.ExecuteThresholds)(cmd, args)
	},
}
