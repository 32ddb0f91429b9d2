package s2_signals

import (
	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/strategyconfig"
)

// TechnicalExtractor turns daily bars into technical metrics
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type TechnicalExtractor struct {
	rsiPeriod        int
	volumeWindow     int
	volumeSpikeRatio float64
	minBars          int
}

// NewTechnicalExtractor creates an extractor from the technical strategy section
func NewTechnicalExtractor(cfg strategyconfig.Technical) *TechnicalExtractor {
	return &TechnicalExtractor{
		rsiPeriod:        cfg.RSIPeriod,
		volumeWindow:     cfg.VolumeWindow,
		volumeSpikeRatio: cfg.VolumeSpikeRatio,
		minBars:          cfg.MinBars,
	}
}

// Extract computes price, RSI, 52-week drawdown and volume ratio.
// With fewer than minBars valid bars every metric is absent.
func (e *TechnicalExtractor) Extract(bars []contracts.PriceBar) contracts.TechnicalMetrics {
	valid := make([]contracts.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Valid() {
			valid = append(valid, b)
		}
	}

	if len(valid) < e.minBars {
		return contracts.TechnicalMetrics{}
	}

	closes := make([]float64, len(valid))
	for i, b := range valid {
		closes[i] = b.Close
	}

	last := valid[len(valid)-1]
	metrics := contracts.TechnicalMetrics{
		Price: contracts.Present(last.Close),
		RSI14: contracts.Present(calculateRSI(closes, e.rsiPeriod)),
	}

	// 52주 고점 대비 하락률 (%)
	high := closes[0]
	for _, c := range closes[1:] {
		if c > high {
			high = c
		}
	}
	if high > 0 {
		metrics.Drawdown52W = contracts.Present((last.Close/high - 1) * 100)
	}

	// 거래량 비율: 당일 / 최근 N일 평균 (당일 포함)
	window := valid[len(valid)-e.volumeWindow:]
	var sum float64
	for _, b := range window {
		sum += b.Volume
	}
	mean := sum / float64(len(window))
	if mean > 0 {
		ratio := last.Volume / mean
		spike := ratio > e.volumeSpikeRatio
		metrics.VolumeRatio = contracts.Present(ratio)
		metrics.VolumeSpike = &spike
	}

	return metrics
}

// calculateRSI returns the last value of Wilder's RSI.
// Averages are exponentially smoothed with alpha = 1/period, seeded with a
// zero move on the first bar.
func calculateRSI(closes []float64, period int) float64 {
	alpha := 1.0 / float64(period)

	var avgUp, avgDown float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var up, down float64
		if change > 0 {
			up = change
		} else {
			down = -change
		}
		avgUp = (1-alpha)*avgUp + alpha*up
		avgDown = (1-alpha)*avgDown + alpha*down
	}

	if avgDown == 0 {
		return 100.0
	}

	rs := avgUp / avgDown
	return 100 - 100/(1+rs)
}
