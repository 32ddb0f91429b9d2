package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/leapscreener/internal/api"
	"github.com/wonny/leapscreener/internal/api/handlers"
	"github.com/wonny/leapscreener/internal/scan"
	"github.com/wonny/leapscreener/internal/scheduler"
	"github.com/wonny/leapscreener/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled scans and serve the latest results over HTTP",
	Long: `Start the scheduler and the read-only API.

Endpoints:
  GET  /health                - Health check (database when configured)
  GET  /metrics               - Prometheus metrics (METRICS_ENABLED)
  GET  /api/results?top=N     - Latest ranked scan (JSON)
  GET  /api/results/{ticker}  - One ticker from the latest scan
  GET  /api/report.md         - Latest Markdown report
  GET  /api/jobs              - Scheduled job status
  GET  /api/jobs/{name}/history - Recent runs of one job
  POST /api/scan              - Start a scan now

Example:
  go run ./cmd/leapscreener serve
  go run ./cmd/leapscreener serve --port 8089 --run-now`,
	RunE: runServe,
}

var (
	servePort   string
	serveRunNow bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port (default PORT)")
	serveCmd.Flags().BoolVar(&serveRunNow, "run-now", false, "start a scan immediately instead of waiting for the schedule")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	store := scan.NewStore()
	requireSpike := a.cfg.Scan.RequireVolumeSpike || a.strategy.Technical.RequireVolumeSpike
	runner := a.runner(a.cfg.Scan.Workers, requireSpike)
	scanJob := jobs.NewScanJob(a.universeBuilder(nil), runner, store, a.cfg.Scan.Schedule, a.log)

	sched := scheduler.New(a.log)
	if err := sched.AddJob(scanJob); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if serveRunNow {
		if err := sched.RunJob(scanJob.Name()); err != nil {
			return err
		}
	}

	var metricsHandler http.Handler
	if a.metrics != nil {
		metricsHandler = a.metrics.Handler()
	}

	h := api.Handlers{
		Results: handlers.NewResultsHandler(store, a.funnel.Describe(), a.cfg.Scan.TopN, a.log),
		Jobs:    handlers.NewJobsHandler(sched, scanJob.Name(), a.log),
		Metrics: metricsHandler,
	}
	if a.db != nil {
		h.Database = a.db
	}
	router := api.NewRouter(h, a.log)

	a.log.WithFields(map[string]interface{}{
		"jobs":     sched.GetAllJobs(),
		"port":     a.cfg.Port,
		"schedule": a.cfg.Scan.Schedule,
		"workers":  a.cfg.Scan.Workers,
	}).Info("Serve mode ready")

	if err := api.New(":"+a.cfg.Port, router, a.log).Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}
