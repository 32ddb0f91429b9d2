package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/leapscreener/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestOptions(t *testing.T) {
	opts := options(config.RedisConfig{Host: "cache.local", Port: "6380", DB: 2})

	assert.Equal(t, "cache.local:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, ioTimeout, opts.ReadTimeout)
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	assert.Nil(t, c.Redis())
	assert.NoError(t, c.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := ProviderRateLimit("yahoo", 2.2)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)

	bound := limiter.Bind(cfg)
	assert.NoError(t, bound.Wait(context.Background()))
}

func TestProviderRateLimit(t *testing.T) {
	tests := []struct {
		rps       float64
		wantLimit int
	}{
		{2.2, 2},
		{0.5, 1},
		{10, 10},
	}

	for _, tt := range tests {
		cfg := ProviderRateLimit("yahoo", tt.rps)
		assert.Equal(t, tt.wantLimit, cfg.Limit)
		assert.Equal(t, time.Second, cfg.Window)
		assert.Equal(t, "yahoo", cfg.Key)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"HistoryKey", HistoryKey("NVDA", "2026-01-15"), "history:NVDA:2026-01-15"},
		{"FundamentalsKey", FundamentalsKey("NVDA", "2026-01-15"), "fundamentals:NVDA:2026-01-15"},
		{"ExpirationsKey", ExpirationsKey("NVDA", "2026-01-15"), "expirations:NVDA:2026-01-15"},
		{"ChainKey", ChainKey("NVDA", "2027-01-15"), "chain:NVDA:2027-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestRateLimiter_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := &config.Config{
		Redis: config.RedisConfig{Host: "localhost", Port: "6379", Enabled: true},
	}
	client, err := New(cfg)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	defer client.Close()

	limiter := NewRateLimiter(client, "leapscreener-test-"+time.Now().Format("150405.000"))
	rl := RateLimitConfig{Key: "burst", Limit: 2, Window: time.Second}
	ctx := context.Background()

	first, _, err := limiter.Allow(ctx, rl)
	require.NoError(t, err)
	second, _, err := limiter.Allow(ctx, rl)
	require.NoError(t, err)
	third, _, err := limiter.Allow(ctx, rl)
	require.NoError(t, err)

	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, third)
}
