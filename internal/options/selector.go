package options

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/strategyconfig"
	"github.com/wonny/leapscreener/pkg/logger"
	"github.com/wonny/leapscreener/pkg/ratelimit"
)

// Layer 3 failure reasons
const (
	ReasonNoChain = "no option chain available"
	ReasonNoATM   = "no usable ATM call"
)

// ReasonNoEligibleExpiration is returned when every expiration is too near
func ReasonNoEligibleExpiration(months int) string {
	return fmt.Sprintf("no eligible expiration beyond %d months", months)
}

const expirationLayout = "2006-01-02"

// Selector picks the long-dated ATM call for a ticker
// ⭐ SSOT: LEAP 옵션 선택 + 스프레드/IV rank/2배 필요 상승률 계산
type Selector struct {
	chains       contracts.OptionChainProvider
	limiter      ratelimit.Limiter
	minMonths    int
	daysPerMonth int
	now          func() time.Time
	logger       *logger.Logger
}

// NewSelector creates a selector. The limiter is acquired before every
// provider call.
func NewSelector(chains contracts.OptionChainProvider, limiter ratelimit.Limiter, cfg strategyconfig.Options, log *logger.Logger) *Selector {
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	return &Selector{
		chains:       chains,
		limiter:      limiter,
		minMonths:    cfg.MinMonths,
		daysPerMonth: cfg.DaysPerMonth,
		now:          time.Now,
		logger:       log,
	}
}

// WithClock overrides the clock used for the expiration cutoff
func (s *Selector) WithClock(now func() time.Time) *Selector {
	s.now = now
	return s
}

type expiration struct {
	raw  string
	date time.Time
}

// Select returns the chosen quote, or a Layer 3 failure reason.
// Per-expiration chain errors are skipped. An error is returned only when
// the expiration list itself cannot be fetched or ctx is done.
func (s *Selector) Select(ctx context.Context, ticker string, spot float64) (*contracts.OptionQuote, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limiter: %w", err)
	}
	listed, err := s.chains.Expirations(ctx, ticker)
	if err != nil {
		return nil, "", fmt.Errorf("fetch expirations: %w", err)
	}
	if len(listed) == 0 {
		return nil, ReasonNoChain, nil
	}

	// 1. cutoff 이후 만기만 (오름차순)
	eligible := s.eligibleExpirations(listed)
	if len(eligible) == 0 {
		return nil, ReasonNoEligibleExpiration(s.minMonths), nil
	}

	// 2~3. 모든 만기의 ATM 수집
	atms := make([]*contracts.OptionContract, len(eligible))
	var ivs []float64

	for i, exp := range eligible {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("rate limiter: %w", err)
		}

		calls, err := s.chains.CallChain(ctx, ticker, exp.raw)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"ticker":     ticker,
				"expiration": exp.raw,
				"error":      err.Error(),
			}).Debug("Skipping option chain")
			continue
		}

		atm := pickATM(calls, spot)
		if atm == nil {
			continue
		}
		atms[i] = atm
		if atm.ImpliedVolatility != nil && *atm.ImpliedVolatility > 0 {
			ivs = append(ivs, *atm.ImpliedVolatility)
		}
	}

	// 4. 선호 만기(가장 가까운) 우선, 없으면 다음 만기
	chosenIdx := -1
	for i, atm := range atms {
		if atm != nil {
			chosenIdx = i
			break
		}
	}
	if chosenIdx < 0 {
		return nil, ReasonNoATM, nil
	}

	quote := buildQuote(eligible[chosenIdx].raw, atms[chosenIdx], spot, ivs)

	s.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"expiration": quote.Expiration,
		"strike":     quote.Strike.Ptr(),
		"iv_rank":    quote.IVRank.Ptr(),
		"observed":   len(ivs),
	}).Debug("Selected LEAP call")

	return quote, "", nil
}

func (s *Selector) eligibleExpirations(listed []string) []expiration {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, s.minMonths*s.daysPerMonth)

	var out []expiration
	for _, raw := range listed {
		d, err := time.Parse(expirationLayout, raw)
		if err != nil {
			continue
		}
		if d.After(cutoff) {
			out = append(out, expiration{raw: raw, date: d})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].date.Before(out[j].date)
	})
	return out
}

// pickATM returns the call with the strike nearest to spot.
// Ties go to the higher open interest, then to the earlier contract.
func pickATM(calls []contracts.OptionContract, spot float64) *contracts.OptionContract {
	var best *contracts.OptionContract
	bestDist := math.Inf(1)

	for i := range calls {
		c := &calls[i]
		if math.IsNaN(c.Strike) || math.IsInf(c.Strike, 0) {
			continue
		}
		dist := math.Abs(c.Strike - spot)
		if dist < bestDist || (best != nil && dist == bestDist && c.OpenInterest > best.OpenInterest) {
			best = c
			bestDist = dist
		}
	}
	return best
}

func buildQuote(exp string, atm *contracts.OptionContract, spot float64, ivs []float64) *contracts.OptionQuote {
	q := &contracts.OptionQuote{
		Expiration:        exp,
		Strike:            contracts.Present(atm.Strike),
		Bid:               contracts.FromPtr(atm.Bid),
		Ask:               contracts.FromPtr(atm.Ask),
		ImpliedVolatility: contracts.FromPtr(atm.ImpliedVolatility),
		ObservedIVs:       ivs,
	}

	// 5. 스프레드 (mid 기준)
	bid, hasBid := q.Bid.Get()
	ask, hasAsk := q.Ask.Get()
	if hasBid && hasAsk && ask > 0 {
		mid := (bid + ask) / 2
		q.Premium = contracts.Present(mid)
		if mid > 0 {
			q.SpreadPct = contracts.Present((ask - bid) / mid * 100)
		}
	}

	// 6. IV rank (관측된 ATM IV 구간 내 위치)
	if iv, ok := q.ImpliedVolatility.Get(); ok {
		if rank, ok := ivRank(iv, ivs); ok {
			q.IVRank = contracts.Present(rank)
		}
	}

	// 7. 2배 수익에 필요한 상승률
	strike, _ := q.Strike.Get()
	if premium, ok := q.Premium.Get(); ok {
		if move, ok := requiredMoveFor2x(strike, premium, spot); ok {
			q.RequiredMove2xPct = contracts.Present(move)
		}
	}

	return q
}

// ivRank places iv between the observed min and max, scaled to 0~100
func ivRank(iv float64, observed []float64) (float64, bool) {
	if len(observed) < 2 {
		return 0, false
	}
	lo, hi := observed[0], observed[0]
	for _, v := range observed[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= lo {
		return 0, false
	}
	rank := (iv - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, rank)), true
}

// requiredMoveFor2x is the % spot rise at which intrinsic value = 2x premium
func requiredMoveFor2x(strike, premium, spot float64) (float64, bool) {
	if spot <= 0 {
		return 0, false
	}
	target := strike + 2*premium
	return (target/spot - 1) * 100, true
}
