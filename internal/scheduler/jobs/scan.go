package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/pkg/logger"
)

// UniverseBuilder produces the tickers for one run (s1_universe.Builder)
type UniverseBuilder interface {
	Build(ctx context.Context) (*contracts.Universe, error)
}

// ScanRunner evaluates a universe (scan.Runner)
type ScanRunner interface {
	Run(ctx context.Context, universe []string) (*contracts.ScanReport, error)
}

// ReportSink receives completed reports (scan.Store)
type ReportSink interface {
	Set(report *contracts.ScanReport)
}

// ScanJob rebuilds the universe and runs a full scan
// ⭐ SSOT: 정기 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	universe UniverseBuilder
	runner   ScanRunner
	sink     ReportSink
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a new scan job
func NewScanJob(universe UniverseBuilder, runner ScanRunner, sink ReportSink, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		universe: universe,
		runner:   runner,
		sink:     sink,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "leap_scan"
}

// Schedule returns the cron schedule (default weekdays after the US close)
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan
func (j *ScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	u, err := j.universe.Build(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	report, err := j.runner.Run(ctx, u.Tickers)
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	j.sink.Set(report)

	j.logger.WithFields(map[string]interface{}{
		"run_id":  report.Metadata.RunID,
		"tickers": report.Metadata.UniverseSize,
		"elapsed": report.Metadata.Elapsed.String(),
	}).Info("Scheduled scan stored")
	return nil
}
