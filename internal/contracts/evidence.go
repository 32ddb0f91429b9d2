package contracts

// PEGSource records which provider field the PEG came from
type PEGSource string

const (
	PEGSourceNone     PEGSource = ""
	PEGSourcePrimary  PEGSource = "primary"
	PEGSourceTrailing PEGSource = "trailing"
)

// TechnicalMetrics is derived from daily price history
type TechnicalMetrics struct {
	Price       Field `json:"price"`
	RSI14       Field `json:"rsi14"`
	Drawdown52W Field `json:"drawdown_52w_pct"`
	VolumeRatio Field `json:"volume_ratio"`
	VolumeSpike *bool `json:"volume_spike,omitempty"`
}

// TickerEvidence is the per-ticker input to the funnel
// ⭐ SSOT: S2 → 퍼널 입력 (매 실행마다 새로 생성)
type TickerEvidence struct {
	Ticker string `json:"ticker"`

	Price Field `json:"price"`

	// Fundamentals (post sanity check)
	RevenueGrowth      Field     `json:"revenue_growth"`
	QuarterlyEPSGrowth Field     `json:"quarterly_eps_growth"`
	ForwardEPSGrowth   Field     `json:"forward_eps_growth"`
	TrailingEPS        Field     `json:"trailing_eps"`
	ForwardEPS         Field     `json:"forward_eps"`
	PEG                Field     `json:"peg"`
	PEGSource          PEGSource `json:"peg_source,omitempty"`
	MarketCap          Field     `json:"market_cap"`
	Upside             Field     `json:"upside"`

	// Technicals
	RSI14       Field `json:"rsi14"`
	Drawdown52W Field `json:"drawdown_52w_pct"`
	VolumeRatio Field `json:"volume_ratio"`
	VolumeSpike *bool `json:"volume_spike,omitempty"`

	SanityFlags []string `json:"sanity_flags,omitempty"`
}

// ApplyTechnicals copies extractor output onto the evidence
func (e *TickerEvidence) ApplyTechnicals(m TechnicalMetrics) {
	e.Price = m.Price
	e.RSI14 = m.RSI14
	e.Drawdown52W = m.Drawdown52W
	e.VolumeRatio = m.VolumeRatio
	e.VolumeSpike = m.VolumeSpike
}

// BestEPSGrowth returns the larger of the usable quarterly and forward growth
func (e *TickerEvidence) BestEPSGrowth() Field {
	q, qok := e.QuarterlyEPSGrowth.Get()
	f, fok := e.ForwardEPSGrowth.Get()

	switch {
	case qok && fok:
		if f > q {
			return Present(f)
		}
		return Present(q)
	case qok:
		return Present(q)
	case fok:
		return Present(f)
	default:
		return Absent()
	}
}

// Flagged reports whether any sanity rule fired
func (e *TickerEvidence) Flagged() bool {
	return e != nil && len(e.SanityFlags) > 0
}
