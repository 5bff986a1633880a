package cmd

import (
	"github.com/huangsam/coverwatch/core"
	"github.com/spf13/cobra"
)

// snapshotCmd turns recent ReportPortal launches into a history snapshot.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write a coverage history snapshot from ReportPortal launches.",
	Long: `Fetch launches from every enabled ReportPortal instance, extract the coverage
they carry and write a tv_coverage_analytics_report_<timestamp>.json snapshot into
--reports-dir. Snapshots feed the trends and regressions commands.

ReportPortal instances come from the reportportal.instances config section,
or RP_ENDPOINT, RP_PROJECT and RP_API_KEY in the environment or a .env file.

Examples:
  # Snapshot the last 30 days of launches
  coverwatch snapshot --reports-dir reports

  # Load credentials from a specific env file
  coverwatch snapshot --env-file ci.env`,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteSnapshot),
}

// flakyCmd scores test flakiness from ReportPortal test items.
var flakyCmd = &cobra.Command{
	Use:   "flaky",
	Short: "Find flaky tests across recent ReportPortal launches.",
	Long: `Collect the outcome of every test across the launches in the lookback window
and score how often it flips between passing and failing.

Tests with fewer than --min-runs outcomes are not scored. The most flaky tests
are listed first, capped by --limit.

Examples:
  # Flaky tests in the last two weeks
  coverwatch flaky --days 14

  # Require more evidence and show more results
  coverwatch flaky --min-runs 10 --limit 50`,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteFlaky),
}

// statusCmd checks connectivity to every configured ReportPortal instance.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check connectivity to the configured ReportPortal instances.",
	Long: `Send an authenticated request to every enabled ReportPortal instance and report
which ones answered.

Exit codes: 0 all reachable, 1 some unreachable, 2 none configured.

Examples:
  coverwatch status
  coverwatch status --output json`,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteStatus),
}
