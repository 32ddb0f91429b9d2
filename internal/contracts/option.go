package contracts

// OptionQuote is the chosen long-dated ATM call and its derived metrics.
// A non-nil quote always carries an expiration and a strike.
type OptionQuote struct {
	Expiration        string `json:"expiration"`
	Strike            Field  `json:"strike"`
	Bid               Field  `json:"bid"`
	Ask               Field  `json:"ask"`
	ImpliedVolatility Field  `json:"implied_volatility"`
	Premium           Field  `json:"premium"`              // bid/ask midpoint
	SpreadPct         Field  `json:"spread_pct"`           // (ask-bid)/mid*100
	IVRank            Field  `json:"iv_rank"`              // 0~100 proxy
	RequiredMove2xPct Field  `json:"required_move_2x_pct"` // spot rise for intrinsic = 2x premium

	// ATM implied volatilities observed across every eligible expiration
	ObservedIVs []float64 `json:"observed_ivs,omitempty"`
}
