package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/wonny/leapscreener/internal/contracts"
)

const summaryModules = "financialData,defaultKeyStatistics,summaryDetail,earningsHistory"

// 최근 분기 EPS 개수
const maxQuarterlyPrints = 4

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiError            `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	FinancialData *struct {
		RevenueGrowth     *rawValue `json:"revenueGrowth"`
		EarningsGrowth    *rawValue `json:"earningsGrowth"`
		TargetMeanPrice   *rawValue `json:"targetMeanPrice"`
		TargetMedianPrice *rawValue `json:"targetMedianPrice"`
		CurrentPrice      *rawValue `json:"currentPrice"`
	} `json:"financialData"`

	DefaultKeyStatistics *struct {
		TrailingEps       *rawValue `json:"trailingEps"`
		ForwardEps        *rawValue `json:"forwardEps"`
		PegRatio          *rawValue `json:"pegRatio"`
		SharesOutstanding *rawValue `json:"sharesOutstanding"`
		FloatShares       *rawValue `json:"floatShares"`
	} `json:"defaultKeyStatistics"`

	SummaryDetail *struct {
		MarketCap *rawValue `json:"marketCap"`
	} `json:"summaryDetail"`

	EarningsHistory *struct {
		History []earningsPrint `json:"history"`
	} `json:"earningsHistory"`
}

type earningsPrint struct {
	EpsActual *rawValue `json:"epsActual"`
	Quarter   *rawValue `json:"quarter"` // quarter end, unix seconds
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []struct {
			TrailingPegRatio []struct {
				ReportedValue *rawValue `json:"reportedValue"`
			} `json:"trailingPegRatio"`
		} `json:"result"`
	} `json:"timeseries"`
}

// Fundamentals fetches growth, valuation, share structure, analyst targets
// and the last quarterly EPS prints
// ⭐ SSOT: 재무 데이터 조회
func (c *Client) Fundamentals(ctx context.Context, ticker string) (*contracts.RawFundamentals, error) {
	params := url.Values{}
	params.Set("modules", summaryModules)

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, "quote_summary", "/v10/finance/quoteSummary/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w", ticker, err)
	}
	if err := resp.QuoteSummary.Error.asError(ticker); err != nil {
		return nil, err
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quoteSummary %s: %w", ticker, ErrNotFound)
	}

	raw := parseQuoteSummary(resp.QuoteSummary.Result[0])

	if raw.PEGRatio == nil {
		peg, err := c.trailingPEG(ctx, ticker)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Debug("Trailing PEG unavailable")
		}
		raw.TrailingPEGRatio = peg
	}

	return raw, nil
}

func parseQuoteSummary(r quoteSummaryResult) *contracts.RawFundamentals {
	raw := &contracts.RawFundamentals{}

	if fd := r.FinancialData; fd != nil {
		raw.RevenueGrowth = fd.RevenueGrowth.ptr()
		raw.EarningsGrowth = fd.EarningsGrowth.ptr()
		raw.TargetMeanPrice = fd.TargetMeanPrice.ptr()
		raw.TargetMedianPrice = fd.TargetMedianPrice.ptr()
		raw.CurrentPrice = fd.CurrentPrice.ptr()
	}
	if ks := r.DefaultKeyStatistics; ks != nil {
		raw.TrailingEPS = ks.TrailingEps.ptr()
		raw.ForwardEPS = ks.ForwardEps.ptr()
		raw.PEGRatio = ks.PegRatio.ptr()
		raw.SharesOutstanding = ks.SharesOutstanding.ptr()
		raw.FloatShares = ks.FloatShares.ptr()
	}
	if sd := r.SummaryDetail; sd != nil {
		raw.MarketCap = sd.MarketCap.ptr()
	}
	if eh := r.EarningsHistory; eh != nil {
		raw.QuarterlyEPS = quarterlyEPS(eh.History)
	}
	return raw
}

// quarterlyEPS keeps reported prints in quarter order, dropping missing ones
func quarterlyEPS(history []earningsPrint) []float64 {
	type epsPrint struct {
		quarter float64
		eps     float64
	}

	prints := make([]epsPrint, 0, len(history))
	for i, h := range history {
		eps := h.EpsActual.ptr()
		if eps == nil {
			continue
		}
		q := float64(i)
		if v := h.Quarter.ptr(); v != nil {
			q = *v
		}
		prints = append(prints, epsPrint{quarter: q, eps: *eps})
	}

	sort.SliceStable(prints, func(i, j int) bool { return prints[i].quarter < prints[j].quarter })
	if len(prints) > maxQuarterlyPrints {
		prints = prints[len(prints)-maxQuarterlyPrints:]
	}

	out := make([]float64, len(prints))
	for i, p := range prints {
		out[i] = p.eps
	}
	return out
}

// trailingPEG reads the latest trailing PEG from the fundamentals timeseries
func (c *Client) trailingPEG(ctx context.Context, ticker string) (*float64, error) {
	now := c.now()
	params := url.Values{}
	params.Set("type", "trailingPegRatio")
	params.Set("period1", strconv.FormatInt(now.AddDate(0, -6, 0).Unix(), 10))
	params.Set("period2", strconv.FormatInt(now.Unix(), 10))

	var resp timeseriesResponse
	path := "/ws/fundamentals-timeseries/v1/finance/timeseries/" + url.PathEscape(ticker)
	if err := c.getJSON(ctx, "timeseries", path, params, &resp); err != nil {
		return nil, err
	}

	for _, r := range resp.Timeseries.Result {
		for i := len(r.TrailingPegRatio) - 1; i >= 0; i-- {
			if v := r.TrailingPegRatio[i].ReportedValue.ptr(); v != nil {
				return v, nil
			}
		}
	}
	return nil, nil
}
