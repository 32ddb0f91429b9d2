package selection

import (
	"context"
	"fmt"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/strategyconfig"
	"github.com/wonny/leapscreener/pkg/logger"
)

// Funnel outcome reasons
const (
	ReasonLayer1Failed = "failed Layer 1 fundamentals screen"
	ReasonLayer2Failed = "failed Layer 2 technical screen"
	ReasonLayer3Prefix = "failed Layer 3 options screen: "
	ReasonPassed       = "passed all layers"
)

// EvidenceSource builds per-ticker evidence (s2_signals.EvidenceBuilder)
type EvidenceSource interface {
	Build(ctx context.Context, ticker string) (*contracts.TickerEvidence, error)
}

// OptionSelector picks the LEAP call (options.Selector)
type OptionSelector interface {
	Select(ctx context.Context, ticker string, spot float64) (*contracts.OptionQuote, string, error)
}

// Funnel runs the three sequential layers for one ticker
// ⭐ SSOT: 퍼널 판정 로직은 여기서만 (첫 실패에서 즉시 종료)
type Funnel struct {
	evidence EvidenceSource
	options  OptionSelector
	scorer   *Scorer

	fundamentals       strategyconfig.Fundamentals
	technical          strategyconfig.Technical
	requireVolumeSpike bool
	minMonths          int

	logger *logger.Logger
}

// NewFunnel creates a funnel. Strict volume mode comes from
// cfg.Technical.RequireVolumeSpike unless overridden.
func NewFunnel(evidence EvidenceSource, options OptionSelector, cfg *strategyconfig.Config, log *logger.Logger) *Funnel {
	return &Funnel{
		evidence:           evidence,
		options:            options,
		scorer:             NewScorer(cfg.Scoring),
		fundamentals:       cfg.Fundamentals,
		technical:          cfg.Technical,
		requireVolumeSpike: cfg.Technical.RequireVolumeSpike,
		minMonths:          cfg.Options.MinMonths,
		logger:             log,
	}
}

// WithRequireVolumeSpike sets the strict Layer 2 volume mode
func (f *Funnel) WithRequireVolumeSpike(require bool) *Funnel {
	f.requireVolumeSpike = require
	return f
}

// RequireVolumeSpike reports the strict Layer 2 mode
func (f *Funnel) RequireVolumeSpike() bool {
	return f.requireVolumeSpike
}

// Evaluate produces exactly one result for the ticker.
// Provider failures become a collaborator-failure result, never an error.
func (f *Funnel) Evaluate(ctx context.Context, ticker string) contracts.ScreeningResult {
	ev, err := f.evidence.Build(ctx, ticker)
	if err != nil {
		return contracts.NewCollaboratorFailure(ticker, err)
	}
	return f.EvaluateEvidence(ctx, ev)
}

// EvaluateEvidence runs the layers on already-built evidence
func (f *Funnel) EvaluateEvidence(ctx context.Context, ev *contracts.TickerEvidence) contracts.ScreeningResult {
	result := contracts.ScreeningResult{
		Ticker:   ev.Ticker,
		Outcome:  contracts.OutcomeFunnelFailure,
		Evidence: ev,
	}

	// Layer 1: 펀더멘털
	if !f.PassesFundamentals(ev) {
		result.FailedLayer = contracts.LayerFundamentals
		result.Reason = ReasonLayer1Failed
		return f.done(result)
	}
	result.Layer1Pass = true

	// Layer 2: 기술적
	if !f.PassesTechnical(ev) {
		result.FailedLayer = contracts.LayerTechnical
		result.Reason = ReasonLayer2Failed
		return f.done(result)
	}
	result.Layer2Pass = true

	// Layer 3: 옵션
	spot := ev.Price.Or(0)
	quote, reason, err := f.options.Select(ctx, ev.Ticker, spot)
	if err != nil {
		failed := contracts.NewCollaboratorFailure(ev.Ticker, err)
		failed.Evidence = ev
		return f.done(failed)
	}
	if quote == nil {
		result.FailedLayer = contracts.LayerOptions
		result.Reason = ReasonLayer3Prefix + reason
		return f.done(result)
	}
	result.Layer3Pass = true
	result.Option = quote

	// 전 레이어 통과 → 점수
	breakdown := f.scorer.Score(ev, quote)
	result.Outcome = contracts.OutcomePassed
	result.FailedLayer = contracts.LayerNone
	result.Reason = ReasonPassed
	result.Score = breakdown.Composite
	result.Breakdown = &breakdown

	return f.done(result)
}

// PassesFundamentals checks Layer 1. Absent or nulled fields fail their clause.
func (f *Funnel) PassesFundamentals(ev *contracts.TickerEvidence) bool {
	c := f.fundamentals

	rev, ok := ev.RevenueGrowth.Get()
	if !ok || rev <= c.RevenueGrowthMin {
		return false
	}

	// EPS: 분기 OR forward
	q, qok := ev.QuarterlyEPSGrowth.Get()
	fw, fok := ev.ForwardEPSGrowth.Get()
	if !(qok && q > c.EPSGrowthMin) && !(fok && fw > c.EPSGrowthMin) {
		return false
	}

	peg, ok := ev.PEG.Get()
	if !ok || peg >= c.PEGMax {
		return false
	}

	mcap, ok := ev.MarketCap.Get()
	if !ok || mcap <= c.MarketCapMin {
		return false
	}

	up, ok := ev.Upside.Get()
	return ok && up > c.UpsideMin
}

// PassesTechnical checks Layer 2
func (f *Funnel) PassesTechnical(ev *contracts.TickerEvidence) bool {
	rsi, ok := ev.RSI14.Get()
	if !ok || rsi >= f.technical.RSIMax {
		return false
	}

	dd, ok := ev.Drawdown52W.Get()
	if !ok || dd <= f.technical.DrawdownMinPct {
		return false
	}

	if f.requireVolumeSpike {
		return ev.VolumeSpike != nil && *ev.VolumeSpike
	}
	return true
}

func (f *Funnel) done(r contracts.ScreeningResult) contracts.ScreeningResult {
	f.logger.WithTicker(r.Ticker).WithFields(map[string]interface{}{
		"layer1":  r.Layer1Pass,
		"layer2":  r.Layer2Pass,
		"layer3":  r.Layer3Pass,
		"score":   r.Score,
		"outcome": string(r.Outcome),
		"reason":  r.Reason,
	}).Debug("Evaluated ticker")
	return r
}

// Describe summarizes the active criteria for reports
func (f *Funnel) Describe() []string {
	c, t := f.fundamentals, f.technical
	volume := "optional"
	if f.requireVolumeSpike {
		volume = "required"
	}
	return []string{
		fmt.Sprintf("Layer 1 (fundamentals): revenue growth > %.0f%%, EPS growth > %.0f%% (quarterly or forward), PEG < %.1f, market cap > $%.0fB, analyst upside > %.0f%%",
			c.RevenueGrowthMin*100, c.EPSGrowthMin*100, c.PEGMax, c.MarketCapMin/1e9, c.UpsideMin*100),
		fmt.Sprintf("Layer 2 (technical): RSI(%d) < %.0f, drawdown from 52-week high > %.0f%%, volume spike %s",
			t.RSIPeriod, t.RSIMax, t.DrawdownMinPct, volume),
		fmt.Sprintf("Layer 3 (options): expiration beyond %d months available, ATM call spread / IV rank proxy / move required to double",
			f.minMonths),
	}
}
