package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/coverwatch/core"
	"github.com/huangsam/coverwatch/internal/api"
	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/huangsam/coverwatch/internal/metrics"
	"github.com/huangsam/coverwatch/internal/sink"
	"github.com/spf13/cobra"
)

// publishCmd pushes the trend results to InfluxDB.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish component coverage trends to InfluxDB.",
	Long: `Run the trend analysis and write one coverage_trend point per component with
enough data, tagged by component and direction.

The token is best passed as COVERWATCH_INFLUX_TOKEN rather than a flag.

Examples:
  coverwatch publish --influx-url http://localhost:8086 --influx-org qa --influx-bucket coverage`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		publisher, err := sink.NewInfluxPublisher(cfg.Influx, logger)
		if err != nil {
			return contract.WithExitCode(contract.ExitError, err)
		}
		defer publisher.Close()
		return core.ExecutePublish(rootCtx, newAnalyzer(), publisher, os.Stdout)
	},
}

// serveCmd exposes the analyses over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyses as a JSON HTTP API with Prometheus metrics.",
	Long: `Start an HTTP server exposing every analysis as JSON. Each request re-reads
the history and coverage files, so results track new snapshots without a restart.

Routes:
  GET /health
  GET /metrics
  GET /api/v1/trends?days=N
  GET /api/v1/regressions?days=N
  GET /api/v1/thresholds
  GET /api/v1/flaky?days=N
  GET /api/v1/status
  GET /api/v1/coverage/:component

Examples:
  coverwatch serve --addr :8090 --reports-dir reports`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(newAnalyzer(), metrics.New(), logger, version)
		if err := srv.Run(ctx, cfg.ServeAddr); err != nil {
			return contract.WithExitCode(contract.ExitError, err)
		}
		return nil
	},
}
