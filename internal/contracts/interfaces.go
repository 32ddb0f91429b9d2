package contracts

import (
	"context"
	"time"
)

// PriceHistoryProvider returns daily bars, oldest first.
// Short or empty history is not an error.
type PriceHistoryProvider interface {
	History(ctx context.Context, ticker string, lookback time.Duration) ([]PriceBar, error)
}

// FundamentalsProvider returns raw fundamental fields
type FundamentalsProvider interface {
	Fundamentals(ctx context.Context, ticker string) (*RawFundamentals, error)
}

// OptionChainProvider lists expirations ("2006-01-02") and call chains
type OptionChainProvider interface {
	Expirations(ctx context.Context, ticker string) ([]string, error)
	CallChain(ctx context.Context, ticker, expiration string) ([]OptionContract, error)
}

// MarketDataProvider bundles the three collaborator contracts
// ⭐ SSOT: 외부 데이터 제공자 인터페이스
type MarketDataProvider interface {
	PriceHistoryProvider
	FundamentalsProvider
	OptionChainProvider
}

// UniverseSource contributes tickers to the scan universe
type UniverseSource interface {
	Name() string
	Tickers(ctx context.Context) ([]string, error)
}
