// Package telemetry exposes Prometheus metrics for scans and provider calls.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/leapscreener/internal/contracts"
)

// Metrics holds every collector. A nil *Metrics is a valid no-op.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal     prometheus.Counter
	ActiveScans    prometheus.Gauge
	ScanDuration   prometheus.Histogram
	LastScanTime   prometheus.Gauge
	TickerOutcomes *prometheus.CounterVec
	PassedTickers  prometheus.Gauge

	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
}

// New creates metrics on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leapscreener_scans_total",
			Help: "Total number of completed scans",
		}),
		ActiveScans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leapscreener_active_scans",
			Help: "Number of scans currently running",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leapscreener_scan_duration_seconds",
			Help:    "Wall time of a full universe scan",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		LastScanTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leapscreener_last_scan_timestamp_seconds",
			Help: "Unix time the last scan finished",
		}),
		TickerOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leapscreener_ticker_outcomes_total",
			Help: "Per-ticker outcomes by variant and failed layer",
		}, []string{"outcome", "layer"}),
		PassedTickers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leapscreener_passed_tickers",
			Help: "Tickers that passed all layers in the last scan",
		}),

		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leapscreener_provider_requests_total",
			Help: "Market-data provider requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leapscreener_provider_latency_seconds",
			Help:    "Market-data provider request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"endpoint"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leapscreener_cache_lookups_total",
			Help: "Provider cache lookups by kind and result",
		}, []string{"kind", "result"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leapscreener_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ScansTotal,
		m.ActiveScans,
		m.ScanDuration,
		m.LastScanTime,
		m.TickerOutcomes,
		m.PassedTickers,
		m.ProviderRequests,
		m.ProviderLatency,
		m.CacheLookups,
		m.BreakerState,
	)

	return m
}

// Handler serves the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ScanStarted marks a scan as running
func (m *Metrics) ScanStarted() {
	if m == nil {
		return
	}
	m.ActiveScans.Inc()
}

// ScanFinished records scan duration and pass count
func (m *Metrics) ScanFinished(elapsed time.Duration, passed int) {
	if m == nil {
		return
	}
	m.ActiveScans.Dec()
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
	m.LastScanTime.SetToCurrentTime()
	m.PassedTickers.Set(float64(passed))
}

// ObserveResult counts one ticker outcome
func (m *Metrics) ObserveResult(r contracts.ScreeningResult) {
	if m == nil {
		return
	}
	m.TickerOutcomes.WithLabelValues(string(r.Outcome), r.FailedLayer.String()).Inc()
}

// ObserveProvider records one provider call
func (m *Metrics) ObserveProvider(endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(endpoint, status).Inc()
	m.ProviderLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveCache records a cache hit or miss
func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

// SetBreakerState records a breaker transition
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
