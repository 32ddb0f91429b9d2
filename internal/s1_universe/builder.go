package s1_universe

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/wonny/leapscreener/internal/contracts"
	"github.com/wonny/leapscreener/pkg/logger"
)

// ErrNoTickers means no source produced a usable symbol
var ErrNoTickers = errors.New("no tickers available for universe")

// FallbackSourceName labels tickers that came from the built-in list
const FallbackSourceName = "fallback"

// fallbackTickers is used when every remote source fails
var fallbackTickers = []string{
	"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "AVGO", "AMD", "NFLX",
	"COST", "ADBE", "INTC", "QCOM", "CRM", "ORCL", "CSCO", "TXN", "AMAT", "MU",
}

// Builder merges ticker sources into one universe
type Builder struct {
	sources  []contracts.UniverseSource
	fallback []string
	logger   *logger.Logger
	now      func() time.Time
}

// NewBuilder creates a builder over the given sources with the built-in fallback list
func NewBuilder(log *logger.Logger, sources ...contracts.UniverseSource) *Builder {
	return &Builder{
		sources:  sources,
		fallback: fallbackTickers,
		logger:   log,
		now:      time.Now,
	}
}

// WithoutFallback disables the built-in list (explicit ticker lists)
func (b *Builder) WithoutFallback() *Builder {
	b.fallback = nil
	return b
}

// Build collects every source. A failing source is logged and skipped.
// ⭐ SSOT: S1 유니버스 생성
func (b *Builder) Build(ctx context.Context) (*contracts.Universe, error) {
	universe := &contracts.Universe{
		Date:    b.now().UTC(),
		Sources: make(map[string]int),
	}

	var all []string
	for _, src := range b.sources {
		tickers, err := src.Tickers(ctx)
		if err != nil {
			b.logger.WithFields(map[string]interface{}{
				"source": src.Name(),
				"error":  err.Error(),
			}).Warn("Universe source failed")
			continue
		}

		normalized := Normalize(tickers)
		universe.Sources[src.Name()] = len(normalized)
		all = append(all, normalized...)
	}

	universe.Tickers = Normalize(all)

	if len(universe.Tickers) == 0 && len(b.fallback) > 0 {
		b.logger.Warn("All universe sources empty, using built-in fallback list")
		universe.Tickers = Normalize(b.fallback)
		universe.Sources[FallbackSourceName] = len(universe.Tickers)
	}

	if len(universe.Tickers) == 0 {
		return nil, ErrNoTickers
	}

	b.logger.WithFields(map[string]interface{}{
		"count":   universe.Count(),
		"sources": universe.Sources,
	}).Info("Universe built")
	return universe, nil
}

// Normalize upper-cases symbols, maps share-class dots to dashes (BRK.B -> BRK-B),
// drops blanks and "N/A", then dedupes and sorts
func Normalize(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))

	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		t = strings.ReplaceAll(t, ".", "-")
		if t == "" || t == "N/A" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	sort.Strings(out)
	return out
}

// ParseTickerList splits a comma separated --tickers value
func ParseTickerList(s string) []string {
	return Normalize(strings.Split(s, ","))
}
