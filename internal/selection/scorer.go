package selection

import (
	"math"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/strategyconfig"
)

// Scorer combines surviving metrics into a 0~100 composite
// ⭐ SSOT: 점수 공식 (구간/가중치 변경 금지)
type Scorer struct {
	weights  strategyconfig.ScoreWeights
	ivTarget float64
	ivSlope  float64
}

// NewScorer creates a scorer
func NewScorer(cfg strategyconfig.Scoring) *Scorer {
	return &Scorer{
		weights:  cfg.Weights,
		ivTarget: cfg.IVRankTarget,
		ivSlope:  cfg.IVRankSlope,
	}
}

// Score computes the breakdown. Absent or nulled inputs take the
// worst-of-range default, except IV rank which is neutral (50).
func (s *Scorer) Score(ev *contracts.TickerEvidence, q *contracts.OptionQuote) contracts.ScoreBreakdown {
	if ev == nil {
		ev = &contracts.TickerEvidence{}
	}
	if q == nil {
		q = &contracts.OptionQuote{}
	}

	// 펀더멘털 강도
	peg := ev.PEG.Or(2.0)
	fundamental := mean(
		linear(ev.RevenueGrowth.Or(0), 0.05, 0.30),
		linear(ev.BestEPSGrowth().Or(0), 0.05, 0.40),
		clamp((2.0-peg)/1.5*100),
		clamp((math.Log10(math.Max(ev.MarketCap.Or(1), 1))-9.0)/3.0*100),
	)

	// 밸류에이션 할인
	valuation := clamp((2.0 - peg) / 2.0 * 100)

	// 기술적 진입 구간
	technical := mean(
		clamp((55-ev.RSI14.Or(60))/25*100),
		drawdownScore(ev.Drawdown52W.Or(0)),
		linear(ev.VolumeRatio.Or(1.0), 0.8, 1.2),
	)

	// 촉매 (애널리스트 upside)
	catalyst := linear(ev.Upside.Or(0), 0.10, 0.50)

	// 옵션 매력도
	ivScore := 50.0
	if rank, ok := q.IVRank.Get(); ok {
		ivScore = clamp(100 - math.Abs(rank-s.ivTarget)*s.ivSlope)
	}
	option := mean(
		clamp((20-q.SpreadPct.Or(20))/20*100),
		clamp((80-q.RequiredMove2xPct.Or(80))/80*100),
		ivScore,
	)

	w := s.weights
	composite := fundamental*w.Fundamental +
		valuation*w.Valuation +
		technical*w.Technical +
		catalyst*w.Catalyst +
		option*w.Option

	return contracts.ScoreBreakdown{
		Fundamental: fundamental,
		Valuation:   valuation,
		Technical:   technical,
		Catalyst:    catalyst,
		Option:      option,
		Composite:   round2(clamp(composite)),
	}
}

// drawdownScore favors a -25% ~ -5% pullback
func drawdownScore(dd float64) float64 {
	switch {
	case dd < -40:
		return 5
	case dd >= -25 && dd <= -5:
		return 90
	case dd < -25:
		return 50
	default:
		return 40
	}
}

// linear maps [floor, floor+span] onto [0, 100]
func linear(v, floor, span float64) float64 {
	return clamp((v - floor) / span * 100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func mean(vals ...float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// round2 rounds to two decimals. Exact binary ties (x.125, x.375, ...) go to
// the even hundredth, so 61.625 scores 61.62.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
