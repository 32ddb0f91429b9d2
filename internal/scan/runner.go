package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/telemetry"
	"github.com/wonny/leapscreener/pkg/logger"
)

// ErrEmptyUniverse aborts a run before any ticker is evaluated
var ErrEmptyUniverse = errors.New("empty universe: no tickers to scan")

// Evaluator produces exactly one result per ticker (selection.Funnel)
type Evaluator interface {
	Evaluate(ctx context.Context, ticker string) contracts.ScreeningResult
}

// Options configures a Runner
type Options struct {
	Workers            int
	RequireVolumeSpike bool
	StrategyHash       string
	Metrics            *telemetry.Metrics
}

// Runner evaluates a universe with bounded fan-out
// ⭐ SSOT: 배치 스캔 (티커 실패는 배치를 중단시키지 않음)
type Runner struct {
	evaluator Evaluator
	opts      Options
	logger    *logger.Logger
	now       func() time.Time
}

// NewRunner creates a runner. Workers < 1 is treated as 1.
func NewRunner(evaluator Evaluator, opts Options, log *logger.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		evaluator: evaluator,
		opts:      opts,
		logger:    log,
		now:       time.Now,
	}
}

// Run evaluates every ticker. Results keep the universe order regardless of
// worker count. The only error is ErrEmptyUniverse.
func (r *Runner) Run(ctx context.Context, universe []string) (*contracts.ScanReport, error) {
	tickers := normalize(universe)
	if len(tickers) == 0 {
		return nil, ErrEmptyUniverse
	}

	runID := uuid.NewString()
	start := r.now()
	total := len(tickers)
	log := r.logger.WithRun(runID)

	log.WithFields(map[string]interface{}{
		"universe_size":        total,
		"workers":              r.opts.Workers,
		"require_volume_spike": r.opts.RequireVolumeSpike,
	}).Info("Starting scan")
	r.opts.Metrics.ScanStarted()

	results := make([]contracts.ScreeningResult, total)
	var done int64

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			res := r.evaluate(ctx, ticker)
			results[i] = res
			r.opts.Metrics.ObserveResult(res)

			n := atomic.AddInt64(&done, 1)
			log.WithTicker(ticker).WithFields(map[string]interface{}{
				"progress": fmt.Sprintf("%d/%d", n, total),
				"reason":   res.Reason,
			}).Info("Ticker evaluated")
			return nil
		})
	}
	_ = g.Wait()

	elapsed := r.now().Sub(start)
	passed := 0
	for _, res := range results {
		if res.Passed() {
			passed++
		}
	}
	r.opts.Metrics.ScanFinished(elapsed, passed)

	log.WithFields(map[string]interface{}{
		"total":   total,
		"passed":  passed,
		"elapsed": elapsed.String(),
	}).Info("Scan completed")

	return &contracts.ScanReport{
		Metadata: contracts.RunMetadata{
			RunID:              runID,
			StartedAt:          start,
			Elapsed:            elapsed,
			UniverseSize:       total,
			RequireVolumeSpike: r.opts.RequireVolumeSpike,
			Workers:            r.opts.Workers,
			StrategyHash:       r.opts.StrategyHash,
		},
		Results: results,
	}, nil
}

// evaluate converts a panic inside one ticker into a collaborator failure
func (r *Runner) evaluate(ctx context.Context, ticker string) (res contracts.ScreeningResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithTicker(ticker).WithField("panic", fmt.Sprintf("%v", rec)).Error("Ticker evaluation panicked")
			res = contracts.NewCollaboratorFailure(ticker, fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := ctx.Err(); err != nil {
		return contracts.NewCollaboratorFailure(ticker, err)
	}
	return r.evaluator.Evaluate(ctx, ticker)
}

// normalize trims and upper-cases tickers, dropping blanks
func normalize(universe []string) []string {
	out := make([]string, 0, len(universe))
	for _, t := range universe {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
