package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/internal/external/yahoo"
	"github.com/wonny/leapscreener/internal/options"
	"github.com/wonny/leapscreener/internal/s1_universe"
	"github.com/wonny/leapscreener/internal/s2_signals"
	"github.com/wonny/leapscreener/internal/scan"
	"github.com/wonny/leapscreener/internal/selection"
	"github.com/wonny/leapscreener/internal/strategyconfig"
	"github.com/wonny/leapscreener/internal/telemetry"
	"github.com/wonny/leapscreener/pkg/config"
	"github.com/wonny/leapscreener/pkg/database"
	"github.com/wonny/leapscreener/pkg/httputil"
	"github.com/wonny/leapscreener/pkg/logger"
	"github.com/wonny/leapscreener/pkg/ratelimit"
	"github.com/wonny/leapscreener/pkg/redis"
)

const keyPrefix = "leapscreener"

// app holds the wired components shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	strategy     *strategyconfig.Config
	strategyHash string
	metrics      *telemetry.Metrics

	httpClient *httputil.Client
	redis      *redis.Client
	db         *database.DB
	provider   contracts.MarketDataProvider
	limiter    ratelimit.Limiter
	funnel     *selection.Funnel
}

// newApp loads config and strategy, then wires provider, limiter and funnel
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	if err := a.loadStrategy(); err != nil {
		return nil, err
	}

	if cfg.MetricsEnabled {
		a.metrics = telemetry.New()
	}

	a.httpClient = httputil.New(cfg, log)

	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	if cfg.Database.Enabled() {
		a.db, err = database.New(ctx, cfg.Database)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
	}

	yahooClient := yahoo.NewClient(a.httpClient, cfg.Yahoo, a.metrics, log)
	a.provider = yahooClient
	if a.redis.Enabled() {
		cache := redis.NewCache(a.redis, keyPrefix)
		a.provider = yahoo.NewCachedProvider(yahooClient, cache, cfg.Redis.CacheTTL, a.metrics, log)
	}

	a.limiter = a.newLimiter()

	evidence := s2_signals.NewEvidenceBuilder(a.provider, a.provider, a.limiter, a.strategy, log)
	selector := options.NewSelector(a.provider, a.limiter, a.strategy.Options, log)
	a.funnel = selection.NewFunnel(evidence, selector, a.strategy, log)

	return a, nil
}

func (a *app) loadStrategy() error {
	path := strategyFile
	if path == "" {
		path = a.cfg.Scan.StrategyFile
	}

	strategy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}
	for _, w := range strategyconfig.Warn(strategy) {
		a.log.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy: %w", err)
	}

	a.strategy = strategy
	a.strategyHash = hash
	return nil
}

// newLimiter returns the aggregate provider budget shared by every worker
func (a *app) newLimiter() ratelimit.Limiter {
	rl := a.cfg.RateLimit
	if rl.Distributed && a.redis.Enabled() {
		a.log.WithField("rps", rl.RequestsPerSecond).Info("Using distributed provider rate limit")
		return redis.NewRateLimiter(a.redis, keyPrefix).Bind(redis.ProviderRateLimit("yahoo", rl.RequestsPerSecond))
	}
	return ratelimit.NewLocal(rl.RequestsPerSecond, rl.Burst)
}

// universeBuilder assembles universe sources. Explicit tickers replace the
// default sources and disable the built-in fallback.
func (a *app) universeBuilder(explicit []string) *s1_universe.Builder {
	if len(explicit) > 0 {
		return s1_universe.NewBuilder(a.log, s1_universe.NewStaticSource("tickers", explicit)).WithoutFallback()
	}

	sources := []contracts.UniverseSource{
		s1_universe.NewSP500Source(a.httpClient, ""),
		s1_universe.NewNasdaq100Source(a.httpClient, "", a.log),
	}
	if a.db != nil {
		sources = append(sources, s1_universe.NewWatchlistRepository(a.db.Pool))
	}
	return s1_universe.NewBuilder(a.log, sources...)
}

// runner builds a batch runner with the given overrides
func (a *app) runner(workers int, requireVolumeSpike bool) *scan.Runner {
	a.funnel.WithRequireVolumeSpike(requireVolumeSpike)
	return scan.NewRunner(a.funnel, scan.Options{
		Workers:            workers,
		RequireVolumeSpike: requireVolumeSpike,
		StrategyHash:       a.strategyHash,
		Metrics:            a.metrics,
	}, a.log)
}

// watchlist returns the watchlist repository or an error when no database is configured
func (a *app) watchlist(ctx context.Context) (*s1_universe.WatchlistRepository, error) {
	if a.db == nil {
		return nil, fmt.Errorf("watchlist: %w (set DATABASE_URL)", database.ErrNotConfigured)
	}
	repo := s1_universe.NewWatchlistRepository(a.db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, context.Canceled) {
			a.log.WithError(err).Warn("Redis close failed")
		}
	}
}
