// Package cmd defines the command-line interface for coverwatch.
package cmd

import (
	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(regressionsCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(flakyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().IntP("days", "d", contract.DefaultLookbackDays, "Number of days of history to analyze")
	rootCmd.PersistentFlags().String("reports-dir", ".", "Directory holding the coverage history snapshots")
	rootCmd.PersistentFlags().String("history-pattern", contract.DefaultHistoryPattern, "Glob pattern of history snapshot file names")
	rootCmd.PersistentFlags().String("coverage-dir", ".", "Directory holding the coverage_*.json measurements")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print the report and errors")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Int("min-samples", 0, "Minimum samples before a trend is classified (0 = default 5)")
	rootCmd.PersistentFlags().Float64("slope-threshold", 0, "Slope beyond which a trend is improving or declining (0 = default 0.5)")
	rootCmd.PersistentFlags().Float64("volatility-threshold", 0, "Standard deviation above which a component is volatile (0 = default 5)")
	rootCmd.PersistentFlags().String("source", string(schema.FilesSource), "Current coverage source: files or history or reportportal")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus textfile metrics to this path")
	rootCmd.PersistentFlags().String("log-level", "info", "Diagnostic log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("env-file", "", "Dotenv file with RP_ENDPOINT, RP_PROJECT and RP_API_KEY (default .env)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of regressionsCmd to Viper
	regressionsCmd.Flags().Bool("alert-only", false, "Exit 1 only for major and moderate regressions")
	regressionsCmd.Flags().Float64("major-drop", 0, "Drop in points classified as major (0 = default 10)")
	regressionsCmd.Flags().Float64("moderate-drop", 0, "Drop in points classified as moderate (0 = default 5)")
	regressionsCmd.Flags().Float64("minor-drop", 0, "Drop in points classified as minor (0 = default 2)")
	regressionsCmd.Flags().Float64("trend-moderate-slope", 0, "Slope below which a declining trend is moderate (0 = default -1)")
	regressionsCmd.Flags().Bool("save", false, "Save the report as tv_regression_report_<timestamp>.json in --reports-dir")
	if err := viper.BindPFlags(regressionsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding regressions flags", err)
	}

	// Bind all flags of thresholdsCmd to Viper
	thresholdsCmd.Flags().Bool("strict", false, "Exit 1 on warnings as well as failures")
	thresholdsCmd.Flags().Bool("report-only", false, "Always exit 0 unless the analysis errors")
	thresholdsCmd.Flags().String("thresholds-override", "", "Per-component minimums (format: 'xradio:70,overall:60')")
	thresholdsCmd.Flags().String("create-config", "", "Write a default threshold config to this path and exit")
	thresholdsCmd.Flags().Bool("save", false, "Save the report as tv_threshold_report_<timestamp>.json in --reports-dir")
	if err := viper.BindPFlags(thresholdsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding thresholds flags", err)
	}

	// Bind all flags of flakyCmd to Viper
	flakyCmd.Flags().Int("min-runs", contract.DefaultMinRuns, "Minimum runs before a test is scored")
	flakyCmd.Flags().IntP("limit", "l", contract.DefaultFlakyLimit, "Number of results to display")
	if err := viper.BindPFlags(flakyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding flaky flags", err)
	}

	// Bind all flags of publishCmd to Viper
	publishCmd.Flags().String("influx-url", "", "InfluxDB server URL")
	publishCmd.Flags().String("influx-token", "", "InfluxDB API token")
	publishCmd.Flags().String("influx-org", "", "InfluxDB organization")
	publishCmd.Flags().String("influx-bucket", "", "InfluxDB bucket")
	if err := viper.BindPFlags(publishCmd.Flags()); err != nil {
		contract.LogFatal("Error binding publish flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Address to listen on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
