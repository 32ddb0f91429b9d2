package s2_signals

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/strategyconfig"
	"github.com/wonny/leapscreener/pkg/logger"
	"github.com/wonny/leapscreener/pkg/ratelimit"
)

// EvidenceBuilder fetches raw data for a ticker and assembles its evidence
// ⭐ SSOT: 티커별 evidence 생성 오케스트레이션은 여기서만
type EvidenceBuilder struct {
	history      contracts.PriceHistoryProvider
	fundamentals contracts.FundamentalsProvider
	limiter      ratelimit.Limiter

	extractor *TechnicalExtractor
	sanity    *SanityChecker
	lookback  time.Duration

	logger *logger.Logger
}

// NewEvidenceBuilder creates a builder. The limiter is acquired before
// every provider call and may be shared with other components.
func NewEvidenceBuilder(
	history contracts.PriceHistoryProvider,
	fundamentals contracts.FundamentalsProvider,
	limiter ratelimit.Limiter,
	cfg *strategyconfig.Config,
	log *logger.Logger,
) *EvidenceBuilder {
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	return &EvidenceBuilder{
		history:      history,
		fundamentals: fundamentals,
		limiter:      limiter,
		extractor:    NewTechnicalExtractor(cfg.Technical),
		sanity:       NewSanityChecker(cfg.Sanity),
		lookback:     time.Duration(cfg.Technical.LookbackDays) * 24 * time.Hour,
		logger:       log,
	}
}

// Build returns the evidence for one ticker. Missing or short data only
// leaves fields absent; an error means a provider call itself failed.
func (b *EvidenceBuilder) Build(ctx context.Context, ticker string) (*contracts.TickerEvidence, error) {
	// 1. Fundamentals
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	raw, err := b.fundamentals.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch fundamentals: %w", err)
	}

	// 2. Price history
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	bars, err := b.history.History(ctx, ticker, b.lookback)
	if err != nil {
		return nil, fmt.Errorf("fetch price history: %w", err)
	}

	tech := b.extractor.Extract(bars)
	checked := b.sanity.Check(raw)

	evidence := &contracts.TickerEvidence{
		Ticker:             ticker,
		RevenueGrowth:      checked.RevenueGrowth,
		QuarterlyEPSGrowth: checked.QuarterlyEPSGrowth,
		ForwardEPSGrowth:   checked.ForwardEPSGrowth,
		TrailingEPS:        checked.TrailingEPS,
		ForwardEPS:         checked.ForwardEPS,
		PEG:                checked.PEG,
		PEGSource:          checked.PEGSource,
		MarketCap:          checked.MarketCap,
		SanityFlags:        checked.Flags,
	}
	evidence.ApplyTechnicals(tech)
	evidence.Upside = upside(raw, tech.Price)

	b.logger.WithFields(map[string]interface{}{
		"ticker":       ticker,
		"bars":         len(bars),
		"rsi14":        evidence.RSI14.Ptr(),
		"drawdown":     evidence.Drawdown52W.Ptr(),
		"sanity_flags": len(evidence.SanityFlags),
	}).Debug("Built ticker evidence")

	return evidence, nil
}

// upside = analyst target (mean, else median) / price - 1.
// Without bars the provider quote stands in; Price itself stays absent.
func upside(raw *contracts.RawFundamentals, price contracts.Field) contracts.Field {
	if raw == nil {
		return contracts.Absent()
	}
	if !price.IsPresent() {
		price = contracts.FromPtr(raw.CurrentPrice)
	}
	p, ok := price.Get()
	if !ok || p <= 0 {
		return contracts.Absent()
	}

	target := contracts.FromPtr(raw.TargetMeanPrice)
	if !target.IsPresent() {
		target = contracts.FromPtr(raw.TargetMedianPrice)
	}
	t, ok := target.Get()
	if !ok {
		return contracts.Absent()
	}
	return contracts.Present(t/p - 1)
}
