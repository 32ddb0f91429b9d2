package contracts

import (
	"math"
	"time"
)

// PriceBar is one daily OHLCV bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the bar can take part in indicator math
func (b PriceBar) Valid() bool {
	return isFinite(b.Close) && b.Close > 0 && isFinite(b.Volume) && b.Volume >= 0
}

// RawFundamentals is what the fundamentals provider returns. Any field may be nil.
type RawFundamentals struct {
	RevenueGrowth     *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth    *float64 `json:"earnings_growth,omitempty"` // quarterly YoY
	TrailingEPS       *float64 `json:"trailing_eps,omitempty"`
	ForwardEPS        *float64 `json:"forward_eps,omitempty"`
	PEGRatio          *float64 `json:"peg_ratio,omitempty"`
	TrailingPEGRatio  *float64 `json:"trailing_peg_ratio,omitempty"` // fallback when PEGRatio is missing
	MarketCap         *float64 `json:"market_cap,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	FloatShares       *float64 `json:"float_shares,omitempty"`
	TargetMeanPrice   *float64 `json:"target_mean_price,omitempty"`
	TargetMedianPrice *float64 `json:"target_median_price,omitempty"`
	CurrentPrice      *float64 `json:"current_price,omitempty"` // provider quote, upside fallback

	// Reported quarterly EPS, oldest first, at most the last four prints
	QuarterlyEPS []float64 `json:"quarterly_eps,omitempty"`
}

// OptionContract is a single call quote from a chain snapshot
type OptionContract struct {
	ContractSymbol    string   `json:"contract_symbol"`
	Strike            float64  `json:"strike"`
	Bid               *float64 `json:"bid,omitempty"`
	Ask               *float64 `json:"ask,omitempty"`
	ImpliedVolatility *float64 `json:"implied_volatility,omitempty"`
	OpenInterest      float64  `json:"open_interest"`
}

// Float returns a pointer to v, for building optional fields
func Float(v float64) *float64 {
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
