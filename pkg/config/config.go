package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the screener
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (serve mode)
	Port string
	Env  string // development, staging, production

	// Database (optional watchlist universe)
	Database DatabaseConfig

	// Redis (provider cache + distributed rate limit)
	Redis RedisConfig

	// Market data provider
	Yahoo YahooConfig

	// Aggregate provider budget shared by every worker
	RateLimit RateLimitConfig

	// Scan
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a watchlist database was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds Yahoo Finance endpoint configuration
type YahooConfig struct {
	QueryURL  string // chart / quoteSummary / options
	CookieURL string // cookie bootstrap for the crumb session
	UserAgent string
	Timeout   time.Duration
}

// RateLimitConfig defines the aggregate request budget toward the provider
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	Distributed       bool // Redis sliding window instead of in-process token bucket
}

// ScanConfig holds batch scan options
type ScanConfig struct {
	Workers            int
	StrategyFile       string // optional YAML, defaults built in
	Schedule           string // cron expression (with seconds)
	RequireVolumeSpike bool
	TopN               int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("CACHE_TTL", "6h"),
		},

		Yahoo: YahooConfig{
			QueryURL:  getEnv("YAHOO_QUERY_URL", "https://query2.finance.yahoo.com"),
			CookieURL: getEnv("YAHOO_COOKIE_URL", "https://fc.yahoo.com"),
			UserAgent: getEnv("YAHOO_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
			Timeout:   getEnvAsDuration("YAHOO_TIMEOUT", "20s"),
		},

		// 0.45초 간격 ≈ 2.2 req/s
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 2.2),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 1),
			Distributed:       getEnvAsBool("RATE_LIMIT_DISTRIBUTED", false),
		},

		Scan: ScanConfig{
			Workers:            getEnvAsInt("SCAN_WORKERS", 1),
			StrategyFile:       getEnv("STRATEGY_FILE", ""),
			Schedule:           getEnv("SCAN_SCHEDULE", "0 30 16 * * 1-5"),
			RequireVolumeSpike: getEnvAsBool("REQUIRE_VOLUME_SPIKE", false),
			TopN:               getEnvAsInt("SCAN_TOP", 10),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be > 0")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 1")
	}
	if c.RateLimit.Distributed && !c.Redis.Enabled {
		return fmt.Errorf("RATE_LIMIT_DISTRIBUTED requires REDIS_ENABLED")
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be >= 1")
	}
	if c.Scan.TopN < 1 {
		return fmt.Errorf("SCAN_TOP must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	return getEnvAs(key, defaultValue, strconv.Atoi)
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	return getEnvAs(key, defaultValue, func(v string) (float64, error) {
		return strconv.ParseFloat(v, 64)
	})
}

func getEnvAsBool(key string, defaultValue bool) bool {
	return getEnvAs(key, defaultValue, strconv.ParseBool)
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	fallback, _ := time.ParseDuration(defaultValue)
	return getEnvAs(key, fallback, time.ParseDuration)
}

// getEnvAs parses key with parse, falling back to defaultValue when unset or malformed
func getEnvAs[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := parse(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
