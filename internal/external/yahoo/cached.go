package yahoo

import (
	"context"
	"time"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/telemetry"
	"github.com/wonny/leapscreener/pkg/logger"
	"github.com/wonny/leapscreener/pkg/redis"
)

var (
	_ contracts.MarketDataProvider = (*Client)(nil)
	_ contracts.MarketDataProvider = (*CachedProvider)(nil)
)

// CachedProvider serves provider responses from Redis when possible.
// Cache errors fall through to the wrapped provider.
type CachedProvider struct {
	next    contracts.MarketDataProvider
	cache   *redis.Cache
	ttl     time.Duration
	metrics *telemetry.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewCachedProvider wraps next. ttl applies to history and fundamentals;
// option data uses the short TTL.
func NewCachedProvider(next contracts.MarketDataProvider, cache *redis.Cache, ttl time.Duration, metrics *telemetry.Metrics, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &CachedProvider{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  log,
		now:     time.Now,
	}
}

func (p *CachedProvider) day() string {
	return p.now().UTC().Format(expirationLayout)
}

// History implements contracts.PriceHistoryProvider
func (p *CachedProvider) History(ctx context.Context, ticker string, lookback time.Duration) ([]contracts.PriceBar, error) {
	var bars []contracts.PriceBar
	key := redis.HistoryKey(ticker, p.day())
	if p.lookup(ctx, "history", key, &bars) {
		return bars, nil
	}

	bars, err := p.next.History(ctx, ticker, lookback)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, bars, p.ttl)
	return bars, nil
}

// Fundamentals implements contracts.FundamentalsProvider
func (p *CachedProvider) Fundamentals(ctx context.Context, ticker string) (*contracts.RawFundamentals, error) {
	var raw contracts.RawFundamentals
	key := redis.FundamentalsKey(ticker, p.day())
	if p.lookup(ctx, "fundamentals", key, &raw) {
		return &raw, nil
	}

	fetched, err := p.next.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, fetched, p.ttl)
	return fetched, nil
}

// Expirations implements contracts.OptionChainProvider
func (p *CachedProvider) Expirations(ctx context.Context, ticker string) ([]string, error) {
	var dates []string
	key := redis.ExpirationsKey(ticker, p.day())
	if p.lookup(ctx, "expirations", key, &dates) {
		return dates, nil
	}

	dates, err := p.next.Expirations(ctx, ticker)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, dates, redis.TTLShort)
	return dates, nil
}

// CallChain implements contracts.OptionChainProvider
func (p *CachedProvider) CallChain(ctx context.Context, ticker, expiration string) ([]contracts.OptionContract, error) {
	var chain []contracts.OptionContract
	key := redis.ChainKey(ticker, expiration)
	if p.lookup(ctx, "chain", key, &chain) {
		return chain, nil
	}

	chain, err := p.next.CallChain(ctx, ticker, expiration)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, chain, redis.TTLShort)
	return chain, nil
}

func (p *CachedProvider) lookup(ctx context.Context, kind, key string, dest interface{}) bool {
	if p.cache == nil || !p.cache.Enabled() {
		return false
	}

	hit, err := p.cache.Get(ctx, key, dest)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}).Warn("Cache read failed")
		hit = false
	}
	p.metrics.ObserveCache(kind, hit)
	return hit
}

func (p *CachedProvider) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, key, value, ttl); err != nil {
		p.logger.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}).Warn("Cache write failed")
	}
}
