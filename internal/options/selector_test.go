package options

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/strategyconfig"
	"github.com/wonny/leapscreener/pkg/logger"
)

var fixedNow = time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)

func f(v float64) *float64 { return contracts.Float(v) }

type fakeChains struct {
	expirations []string
	expErr      error
	chains      map[string][]contracts.OptionContract
	errs        map[string]error
	fetched     []string
}

func (c *fakeChains) Expirations(ctx context.Context, ticker string) ([]string, error) {
	return c.expirations, c.expErr
}

func (c *fakeChains) CallChain(ctx context.Context, ticker, expiration string) ([]contracts.OptionContract, error) {
	c.fetched = append(c.fetched, expiration)
	if err := c.errs[expiration]; err != nil {
		return nil, err
	}
	return c.chains[expiration], nil
}

func newSelector(chains contracts.OptionChainProvider) *Selector {
	return NewSelector(chains, nil, strategyconfig.Default().Options, logger.Nop()).
		WithClock(func() time.Time { return fixedNow })
}

func TestSelect_RequiredMoveScenario(t *testing.T) {
	// cutoff = 2026-01-15 + 270d = 2026-10-12
	chains := &fakeChains{
		expirations: []string{"2026-03-20", "2027-01-15"},
		chains: map[string][]contracts.OptionContract{
			"2027-01-15": {
				{Strike: 90, Bid: f(16), Ask: f(17), OpenInterest: 10},
				{Strike: 105, Bid: f(8), Ask: f(9), ImpliedVolatility: f(0.4), OpenInterest: 50},
				{Strike: 120, Bid: f(3), Ask: f(3.5), OpenInterest: 80},
			},
		},
	}

	quote, reason, err := newSelector(chains).Select(context.Background(), "NVDA", 100)
	require.NoError(t, err)
	require.NotNil(t, quote, reason)

	assert.Equal(t, "2027-01-15", quote.Expiration)
	assert.Equal(t, []string{"2027-01-15"}, chains.fetched, "near expirations are never fetched")

	strike, _ := quote.Strike.Get()
	assert.Equal(t, 105.0, strike)

	premium, _ := quote.Premium.Get()
	assert.Equal(t, 8.5, premium)

	move, ok := quote.RequiredMove2xPct.Get()
	require.True(t, ok)
	assert.InDelta(t, 22.0, move, 1e-9)

	spread, ok := quote.SpreadPct.Get()
	require.True(t, ok)
	assert.InDelta(t, 1.0/8.5*100, spread, 1e-9)

	assert.False(t, quote.IVRank.IsPresent(), "one observation is not enough")
}

func TestIVRank(t *testing.T) {
	rank, ok := ivRank(0.40, []float64{0.30, 0.50})
	require.True(t, ok)
	assert.InDelta(t, 50.0, rank, 1e-9)

	rank, ok = ivRank(0.60, []float64{0.30, 0.50})
	require.True(t, ok)
	assert.Equal(t, 100.0, rank, "clamped")

	_, ok = ivRank(0.40, []float64{0.40})
	assert.False(t, ok, "fewer than two observations")

	_, ok = ivRank(0.40, []float64{0.40, 0.40, 0.40})
	assert.False(t, ok, "all equal")
}

func TestSelect_IVRankAcrossExpirations(t *testing.T) {
	chains := &fakeChains{
		expirations: []string{"2027-06-17", "2027-01-15", "2028-01-21"},
		chains: map[string][]contracts.OptionContract{
			"2027-01-15": {{Strike: 100, Bid: f(10), Ask: f(11), ImpliedVolatility: f(0.40)}},
			"2027-06-17": {{Strike: 100, Bid: f(12), Ask: f(13), ImpliedVolatility: f(0.30)}},
			"2028-01-21": {{Strike: 100, Bid: f(15), Ask: f(16), ImpliedVolatility: f(0.50)}},
		},
	}

	quote, _, err := newSelector(chains).Select(context.Background(), "AMD", 100)
	require.NoError(t, err)
	require.NotNil(t, quote)

	assert.Equal(t, "2027-01-15", quote.Expiration, "earliest eligible is preferred")
	assert.Equal(t, []string{"2027-01-15", "2027-06-17", "2028-01-21"}, chains.fetched)
	assert.ElementsMatch(t, []float64{0.40, 0.30, 0.50}, quote.ObservedIVs)

	rank, ok := quote.IVRank.Get()
	require.True(t, ok)
	assert.InDelta(t, 50.0, rank, 1e-9)
}

func TestSelect_FallbackAndSwallowedErrors(t *testing.T) {
	chains := &fakeChains{
		expirations: []string{"2027-01-15", "2027-06-17", "2028-01-21"},
		chains: map[string][]contracts.OptionContract{
			"2027-06-17": {}, // no calls
			"2028-01-21": {{Strike: 110, Bid: f(9), Ask: f(10), ImpliedVolatility: f(0.35)}},
		},
		errs: map[string]error{
			"2027-01-15": errors.New("HTTP 500"),
		},
	}

	quote, reason, err := newSelector(chains).Select(context.Background(), "TSLA", 100)
	require.NoError(t, err)
	require.NotNil(t, quote, reason)
	assert.Equal(t, "2028-01-21", quote.Expiration)
}

func TestSelect_FailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		chains *fakeChains
		reason string
	}{
		{
			name:   "no chain",
			chains: &fakeChains{},
			reason: ReasonNoChain,
		},
		{
			name:   "no eligible expiration",
			chains: &fakeChains{expirations: []string{"2026-02-20", "2026-10-12", "garbage"}},
			reason: "no eligible expiration beyond 9 months",
		},
		{
			name: "no usable ATM call",
			chains: &fakeChains{
				expirations: []string{"2027-01-15"},
				errs:        map[string]error{"2027-01-15": errors.New("boom")},
			},
			reason: ReasonNoATM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, reason, err := newSelector(tt.chains).Select(context.Background(), "XYZ", 100)
			require.NoError(t, err)
			assert.Nil(t, quote)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestSelect_ExpirationListError(t *testing.T) {
	_, _, err := newSelector(&fakeChains{expErr: errors.New("HTTP 401")}).Select(context.Background(), "XYZ", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch expirations")
}

func TestPickATM(t *testing.T) {
	calls := []contracts.OptionContract{
		{ContractSymbol: "A", Strike: 95, OpenInterest: 100},
		{ContractSymbol: "B", Strike: 105, OpenInterest: 300},
		{ContractSymbol: "C", Strike: 120, OpenInterest: 900},
	}

	atm := pickATM(calls, 100)
	require.NotNil(t, atm)
	assert.Equal(t, "B", atm.ContractSymbol, "equal distance → higher open interest")

	assert.Nil(t, pickATM(nil, 100))
}

func TestSelect_ATMWithoutBidAskIsUsable(t *testing.T) {
	chains := &fakeChains{
		expirations: []string{"2027-01-15"},
		chains: map[string][]contracts.OptionContract{
			"2027-01-15": {
				{Strike: 95, OpenInterest: 5},
				{Strike: 100, ImpliedVolatility: f(0.35), OpenInterest: 40},
			},
		},
	}

	quote, reason, err := newSelector(chains).Select(context.Background(), "THIN", 101)
	require.NoError(t, err)
	require.NotNil(t, quote, reason)
	assert.Empty(t, reason)

	strike, _ := quote.Strike.Get()
	assert.Equal(t, 100.0, strike)
	assert.False(t, quote.Bid.IsPresent())
	assert.False(t, quote.Ask.IsPresent())
	assert.False(t, quote.Premium.IsPresent())
	assert.False(t, quote.SpreadPct.IsPresent())
	assert.False(t, quote.RequiredMove2xPct.IsPresent())
	assert.False(t, quote.IVRank.IsPresent())
}

func TestBuildQuote_MissingQuotes(t *testing.T) {
	q := buildQuote("2027-01-15", &contracts.OptionContract{Strike: 100}, 100, nil)

	assert.True(t, q.Strike.IsPresent())
	assert.False(t, q.Premium.IsPresent())
	assert.False(t, q.SpreadPct.IsPresent())
	assert.False(t, q.RequiredMove2xPct.IsPresent())

	// ask = 0 → no premium
	q = buildQuote("2027-01-15", &contracts.OptionContract{Strike: 100, Bid: f(0), Ask: f(0)}, 100, nil)
	assert.False(t, q.Premium.IsPresent())

	// spot 0 → required move undefined
	q = buildQuote("2027-01-15", &contracts.OptionContract{Strike: 100, Bid: f(1), Ask: f(2)}, 0, nil)
	assert.True(t, q.Premium.IsPresent())
	assert.False(t, q.RequiredMove2xPct.IsPresent())
}
