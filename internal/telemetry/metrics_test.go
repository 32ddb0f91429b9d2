package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscreener/internal/contracts"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Scan(t *testing.T) {
	m := New()

	m.ScanStarted()
	assert.Contains(t, scrape(t, m), "leapscreener_active_scans 1")

	m.ObserveResult(contracts.ScreeningResult{Outcome: contracts.OutcomePassed})
	m.ObserveResult(contracts.ScreeningResult{Outcome: contracts.OutcomeFunnelFailure, FailedLayer: contracts.LayerTechnical})
	m.ObserveResult(contracts.NewCollaboratorFailure("X", errors.New("boom")))
	m.ScanFinished(90*time.Second, 1)

	out := scrape(t, m)
	assert.Contains(t, out, "leapscreener_active_scans 0")
	assert.Contains(t, out, "leapscreener_scans_total 1")
	assert.Contains(t, out, "leapscreener_passed_tickers 1")
	assert.Contains(t, out, `leapscreener_ticker_outcomes_total{layer="technical",outcome="funnel_failure"} 1`)
	assert.Contains(t, out, `leapscreener_ticker_outcomes_total{layer="fundamentals",outcome="collaborator_failure"} 1`)
	assert.Contains(t, out, "leapscreener_scan_duration_seconds_count 1")
}

func TestMetrics_Provider(t *testing.T) {
	m := New()

	m.ObserveProvider("chart", "ok", 120*time.Millisecond)
	m.ObserveProvider("chart", "error", time.Second)
	m.ObserveCache("history", true)
	m.ObserveCache("history", false)
	m.SetBreakerState("yahoo", 2)

	out := scrape(t, m)
	assert.Contains(t, out, `leapscreener_provider_requests_total{endpoint="chart",status="ok"} 1`)
	assert.Contains(t, out, `leapscreener_provider_requests_total{endpoint="chart",status="error"} 1`)
	assert.Contains(t, out, `leapscreener_cache_lookups_total{kind="history",result="hit"} 1`)
	assert.Contains(t, out, `leapscreener_breaker_state{name="yahoo"} 2`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ScanStarted()
		m.ScanFinished(time.Second, 0)
		m.ObserveResult(contracts.ScreeningResult{})
		m.ObserveProvider("chart", "ok", time.Millisecond)
		m.ObserveCache("chain", false)
		m.SetBreakerState("yahoo", 0)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
