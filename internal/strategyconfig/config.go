package strategyconfig

// Config는 LEAP 스크리닝 전략의 전체 설정
// ⭐ SSOT: 퍼널 임계값, sanity 규칙, 옵션 파라미터, 점수 가중치
type Config struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	Fundamentals Fundamentals `yaml:"fundamentals" json:"fundamentals"`
	Technical    Technical    `yaml:"technical" json:"technical"`
	Sanity       Sanity       `yaml:"sanity" json:"sanity"`
	Options      Options      `yaml:"options" json:"options"`
	Scoring      Scoring      `yaml:"scoring" json:"scoring"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Fundamentals Layer 1: 모든 조건 AND (EPS는 분기/forward OR)
type Fundamentals struct {
	RevenueGrowthMin float64 `yaml:"revenue_growth_min" json:"revenue_growth_min"` // ratio, 0.10 = 10%
	EPSGrowthMin     float64 `yaml:"eps_growth_min" json:"eps_growth_min"`
	PEGMax           float64 `yaml:"peg_max" json:"peg_max"`
	MarketCapMin     float64 `yaml:"market_cap_min" json:"market_cap_min"` // USD
	UpsideMin        float64 `yaml:"upside_min" json:"upside_min"`
}

// Technical Layer 2 + 지표 계산 파라미터
type Technical struct {
	RSIMax             float64 `yaml:"rsi_max" json:"rsi_max"`
	DrawdownMinPct     float64 `yaml:"drawdown_min_pct" json:"drawdown_min_pct"` // -35 = -35%
	RequireVolumeSpike bool    `yaml:"require_volume_spike" json:"require_volume_spike"`

	RSIPeriod        int     `yaml:"rsi_period" json:"rsi_period"`
	VolumeWindow     int     `yaml:"volume_window" json:"volume_window"`
	VolumeSpikeRatio float64 `yaml:"volume_spike_ratio" json:"volume_spike_ratio"`
	MinBars          int     `yaml:"min_bars" json:"min_bars"`
	LookbackDays     int     `yaml:"lookback_days" json:"lookback_days"`
}

// Sanity 일회성 요인(M&A, 저베이스) 감지 임계값
type Sanity struct {
	ShareStructureRatioMax float64 `yaml:"share_structure_ratio_max" json:"share_structure_ratio_max"`
	RevenueGrowthCap       float64 `yaml:"revenue_growth_cap" json:"revenue_growth_cap"`
	EPSGrowthCap           float64 `yaml:"eps_growth_cap" json:"eps_growth_cap"`
	TrailingEPSMinAbs      float64 `yaml:"trailing_eps_min_abs" json:"trailing_eps_min_abs"` // forward growth 계산 최소 분모
	LowBaseTrailingEPSMax  float64 `yaml:"low_base_trailing_eps_max" json:"low_base_trailing_eps_max"`
	LowBaseForwardEPSMin   float64 `yaml:"low_base_forward_eps_min" json:"low_base_forward_eps_min"`
	PEGMin                 float64 `yaml:"peg_min" json:"peg_min"`
	EPSVolatilityMax       float64 `yaml:"eps_volatility_max" json:"eps_volatility_max"`
	EPSVolatilityQuarters  int     `yaml:"eps_volatility_quarters" json:"eps_volatility_quarters"`
}

// Options Layer 3
type Options struct {
	MinMonths    int `yaml:"min_months" json:"min_months"`
	DaysPerMonth int `yaml:"days_per_month" json:"days_per_month"`
}

// Scoring 점수 가중치 (합 = 1.0)
type Scoring struct {
	Weights      ScoreWeights `yaml:"weights" json:"weights"`
	IVRankTarget float64      `yaml:"iv_rank_target" json:"iv_rank_target"`
	IVRankSlope  float64      `yaml:"iv_rank_slope" json:"iv_rank_slope"`
}

type ScoreWeights struct {
	Fundamental float64 `yaml:"fundamental" json:"fundamental"`
	Valuation   float64 `yaml:"valuation" json:"valuation"`
	Technical   float64 `yaml:"technical" json:"technical"`
	Catalyst    float64 `yaml:"catalyst" json:"catalyst"`
	Option      float64 `yaml:"option" json:"option"`
}

// Sum returns the total weight
func (w ScoreWeights) Sum() float64 {
	return w.Fundamental + w.Valuation + w.Technical + w.Catalyst + w.Option
}

// Default returns the built-in strategy
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "leap_call_default",
			Version:    "1",
		},
		Fundamentals: Fundamentals{
			RevenueGrowthMin: 0.10,
			EPSGrowthMin:     0.15,
			PEGMax:           2.0,
			MarketCapMin:     5_000_000_000,
			UpsideMin:        0.15,
		},
		Technical: Technical{
			RSIMax:             60,
			DrawdownMinPct:     -35,
			RequireVolumeSpike: false,
			RSIPeriod:          14,
			VolumeWindow:       20,
			VolumeSpikeRatio:   1.5,
			MinBars:            30,
			LookbackDays:       365,
		},
		Sanity: Sanity{
			ShareStructureRatioMax: 1.3,
			RevenueGrowthCap:       2.0,
			EPSGrowthCap:           4.0,
			TrailingEPSMinAbs:      0.01,
			LowBaseTrailingEPSMax:  0.50,
			LowBaseForwardEPSMin:   5.0,
			PEGMin:                 0.2,
			EPSVolatilityMax:       5.0,
			EPSVolatilityQuarters:  4,
		},
		Options: Options{
			MinMonths:    9,
			DaysPerMonth: 30,
		},
		Scoring: Scoring{
			Weights: ScoreWeights{
				Fundamental: 0.25,
				Valuation:   0.20,
				Technical:   0.15,
				Catalyst:    0.20,
				Option:      0.20,
			},
			IVRankTarget: 35,
			IVRankSlope:  2.2,
		},
	}
}
