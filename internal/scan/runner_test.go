package scan

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/telemetry"
	"github.com/wonny/leapscreener/pkg/logger"
)

type fakeEvaluator struct {
	mu       sync.Mutex
	seen     []string
	inFlight int32
	maxSeen  int32
	jitter   bool
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, ticker string) contracts.ScreeningResult {
	cur := atomic.AddInt32(&e.inFlight, 1)
	defer atomic.AddInt32(&e.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&e.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt32(&e.maxSeen, prev, cur) {
			break
		}
	}

	if e.jitter {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}

	e.mu.Lock()
	e.seen = append(e.seen, ticker)
	e.mu.Unlock()

	switch ticker {
	case "PANIC":
		panic("nil map")
	case "FAIL":
		return contracts.NewCollaboratorFailure(ticker, errors.New("fetch fundamentals: HTTP 404"))
	case "PASS":
		return contracts.ScreeningResult{
			Ticker: ticker, Score: 50, Layer1Pass: true, Layer2Pass: true, Layer3Pass: true,
			Outcome: contracts.OutcomePassed,
		}
	default:
		return contracts.ScreeningResult{Ticker: ticker, Outcome: contracts.OutcomeFunnelFailure, Reason: "failed Layer 1 fundamentals screen"}
	}
}

func TestRun_EmptyUniverse(t *testing.T) {
	r := NewRunner(&fakeEvaluator{}, Options{}, logger.Nop())

	_, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyUniverse)

	_, err = r.Run(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, ErrEmptyUniverse)
}

func TestRun_PreservesUniverseOrder(t *testing.T) {
	universe := make([]string, 50)
	for i := range universe {
		universe[i] = fmt.Sprintf("T%02d", i)
	}

	ev := &fakeEvaluator{jitter: true}
	r := NewRunner(ev, Options{Workers: 8}, logger.Nop())

	report, err := r.Run(context.Background(), universe)
	require.NoError(t, err)
	require.Len(t, report.Results, 50)

	for i, res := range report.Results {
		assert.Equal(t, universe[i], res.Ticker)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&ev.maxSeen), int32(8))
	assert.Equal(t, 50, report.Metadata.UniverseSize)
	assert.Equal(t, 8, report.Metadata.Workers)
}

func TestRun_SingleWorkerIsSequential(t *testing.T) {
	ev := &fakeEvaluator{}
	r := NewRunner(ev, Options{Workers: 0}, logger.Nop())

	_, err := r.Run(context.Background(), []string{"c", "a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "A", "B"}, ev.seen)
	assert.Equal(t, int32(1), ev.maxSeen)
}

func TestRun_FailuresDoNotAbortBatch(t *testing.T) {
	metrics := telemetry.New()
	r := NewRunner(&fakeEvaluator{}, Options{Workers: 2, RequireVolumeSpike: true, StrategyHash: "abc", Metrics: metrics}, logger.Nop())

	report, err := r.Run(context.Background(), []string{"FAIL", "PANIC", "PASS", "OTHER"})
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	assert.Equal(t, "processing failed: fetch fundamentals: HTTP 404", report.Results[0].Reason)

	panicked := report.Results[1]
	assert.Equal(t, contracts.OutcomeCollaboratorFailure, panicked.Outcome)
	assert.Equal(t, "processing failed: panic: nil map", panicked.Reason)

	assert.True(t, report.Results[2].Passed())
	assert.False(t, report.Results[3].Passed())

	md := report.Metadata
	assert.NotEmpty(t, md.RunID)
	assert.True(t, md.RequireVolumeSpike)
	assert.Equal(t, "abc", md.StrategyHash)
	assert.False(t, md.StartedAt.IsZero())
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := &fakeEvaluator{}
	report, err := NewRunner(ev, Options{}, logger.Nop()).Run(ctx, []string{"AAPL", "MSFT"})
	require.NoError(t, err)

	for _, res := range report.Results {
		assert.Equal(t, contracts.OutcomeCollaboratorFailure, res.Outcome)
	}
	assert.Empty(t, ev.seen)
}

func TestStore(t *testing.T) {
	s := NewStore()
	_, ok := s.Latest()
	assert.False(t, ok)

	report := &contracts.ScanReport{Metadata: contracts.RunMetadata{RunID: "r1"}}
	s.Set(report)

	got, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "r1", got.Metadata.RunID)
}
