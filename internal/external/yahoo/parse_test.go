package yahoo

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{
  "timestamp":[1767225600,1767312000,1767398400],
  "indicators":{"quote":[{
    "open":[100.0,null,102.0],
    "high":[101.0,null,103.5],
    "low":[99.0,null,101.0],
    "close":[100.5,null,103.0],
    "volume":[1000000,null,null]
  }]}
}],"error":null}}`

func TestHistory(t *testing.T) {
	var query string
	f := newFakeYahoo(t, map[string]http.HandlerFunc{
		"/v8/finance/chart/AAPL": func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			jsonHandler(chartBody)(w, r)
		},
	})

	bars, err := f.client().History(context.Background(), "AAPL", 365*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 1000000.0, bars[0].Volume)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Date)

	// 거래량 없는 행은 0
	assert.Equal(t, 103.0, bars[1].Close)
	assert.Equal(t, 0.0, bars[1].Volume)

	assert.Contains(t, query, "interval=1d")
	assert.Contains(t, query, "period2=1768510800")
}

func TestHistory_EmptyResult(t *testing.T) {
	f := newFakeYahoo(t, map[string]http.HandlerFunc{
		"/v8/finance/chart/AAPL": jsonHandler(`{"chart":{"result":[],"error":null}}`),
	})

	bars, err := f.client().History(context.Background(), "AAPL", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

const summaryBody = `{"quoteSummary":{"result":[{
  "financialData":{
    "revenueGrowth":{"raw":0.25,"fmt":"25.00%"},
    "earningsGrowth":{"raw":0.3},
    "targetMeanPrice":{"raw":150.0},
    "targetMedianPrice":{},
    "currentPrice":{"raw":125.5}
  },
  "defaultKeyStatistics":{
    "trailingEps":{"raw":4.0},
    "forwardEps":{"raw":5.0},
    "pegRatio":{"raw":1.2},
    "sharesOutstanding":{"raw":1000},
    "floatShares":{"raw":900}
  },
  "summaryDetail":{"marketCap":{"raw":2.0e10}},
  "earningsHistory":{"history":[
    {"epsActual":{"raw":1.3},"quarter":{"raw":1735603200}},
    {"epsActual":{"raw":1.0},"quarter":{"raw":1711843200}},
    {"epsActual":{},"quarter":{"raw":1719705600}},
    {"epsActual":{"raw":1.1},"quarter":{"raw":1727654400}},
    {"epsActual":{"raw":0.9},"quarter":{"raw":1703980800}}
  ]}
}],"error":null}}`

func TestFundamentals(t *testing.T) {
	f := newFakeYahoo(t, map[string]http.HandlerFunc{
		"/v10/finance/quoteSummary/AAPL": jsonHandler(summaryBody),
	})

	raw, err := f.client().Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, raw.RevenueGrowth)
	assert.Equal(t, 0.25, *raw.RevenueGrowth)
	assert.Equal(t, 0.3, *raw.EarningsGrowth)
	assert.Equal(t, 4.0, *raw.TrailingEPS)
	assert.Equal(t, 5.0, *raw.ForwardEPS)
	assert.Equal(t, 1.2, *raw.PEGRatio)
	assert.Equal(t, 2.0e10, *raw.MarketCap)
	assert.Equal(t, 150.0, *raw.TargetMeanPrice)
	require.NotNil(t, raw.CurrentPrice)
	assert.Equal(t, 125.5, *raw.CurrentPrice)
	assert.Nil(t, raw.TargetMedianPrice)
	assert.Nil(t, raw.TrailingPEGRatio)

	// 분기 순서, 결측 제외, 최근 4개
	assert.Equal(t, []float64{0.9, 1.0, 1.1, 1.3}, raw.QuarterlyEPS)
}

func TestFundamentals_TrailingPEGFallback(t *testing.T) {
	f := newFakeYahoo(t, map[string]http.HandlerFunc{
		"/v10/finance/quoteSummary/MSFT": jsonHandler(`{"quoteSummary":{"result":[{"defaultKeyStatistics":{"pegRatio":{}}}]}}`),
		"/ws/fundamentals-timeseries/v1/finance/timeseries/MSFT": jsonHandler(`{"timeseries":{"result":[{
			"trailingPegRatio":[{"reportedValue":{"raw":1.8}},{"reportedValue":{"raw":1.6}}]
		}]}}`),
	})

	raw, err := f.client().Fundamentals(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Nil(t, raw.PEGRatio)
	require.NotNil(t, raw.TrailingPEGRatio)
	assert.Equal(t, 1.6, *raw.TrailingPEGRatio)
}

func TestFundamentals_TrailingPEGUnavailable(t *testing.T) {
	f := newFakeYahoo(t, map[string]http.HandlerFunc{
		"/v10/finance/quoteSummary/MSFT": jsonHandler(`{"quoteSummary":{"result":[{}]}}`),
	})

	raw, err := f.client().Fundamentals(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Nil(t, raw.TrailingPEGRatio)
}

func TestExpirations(t *testing.T) {
	f := newFakeYahoo(t, map[string]http.HandlerFunc{
		"/v7/finance/options/AAPL": jsonHandler(`{"optionChain":{"result":[{
			"expirationDates":[1768521600,1800489600]
		}]}}`),
	})

	dates, err := f.client().Expirations(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-16", "2027-01-21"}, dates)
}

func TestCallChain(t *testing.T) {
	var date string
	f := newFakeYahoo(t, map[string]http.HandlerFunc{
		"/v7/finance/options/AAPL": func(w http.ResponseWriter, r *http.Request) {
			date = r.URL.Query().Get("date")
			jsonHandler(`{"optionChain":{"result":[{
				"expirationDates":[1800489600],
				"options":[{"expirationDate":1800489600,"calls":[
					{"contractSymbol":"AAPL270121C00100000","strike":100,"bid":20.1,"ask":20.9,"impliedVolatility":0.31,"openInterest":1200},
					{"contractSymbol":"AAPL270121C00105000","strike":105,"impliedVolatility":0.30},
					{"contractSymbol":"BROKEN"}
				]}]
			}]}}`)(w, r)
		},
	})

	calls, err := f.client().CallChain(context.Background(), "AAPL", "2027-01-21")
	require.NoError(t, err)
	require.Len(t, calls, 2)

	assert.Equal(t, "1800489600", date)
	assert.Equal(t, 100.0, calls[0].Strike)
	assert.Equal(t, 20.1, *calls[0].Bid)
	assert.Equal(t, 1200.0, calls[0].OpenInterest)

	assert.Nil(t, calls[1].Bid)
	assert.Nil(t, calls[1].Ask)
	assert.Equal(t, 0.0, calls[1].OpenInterest)
}

func TestCallChain_InvalidExpiration(t *testing.T) {
	f := newFakeYahoo(t, nil)

	_, err := f.client().CallChain(context.Background(), "AAPL", "Jan 2027")
	assert.Error(t, err)
}
