package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/leapscreener/internal/contracts"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// History fetches unadjusted daily bars covering lookback, oldest first
// ⭐ SSOT: 일봉 조회
func (c *Client) History(ctx context.Context, ticker string, lookback time.Duration) ([]contracts.PriceBar, error) {
	now := c.now()
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(now.Add(-lookback).Unix(), 10))
	params.Set("period2", strconv.FormatInt(now.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	var resp chartResponse
	if err := c.getJSON(ctx, "chart", "/v8/finance/chart/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, fmt.Errorf("chart %s: %w", ticker, err)
	}
	if err := resp.Chart.Error.asError(ticker); err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	bars := parseChart(resp.Chart.Result[0])

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched price history")
	return bars, nil
}

// parseChart zips the column arrays, skipping rows without a close
func parseChart(r chartResult) []contracts.PriceBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]

	bars := make([]contracts.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePx := at(q.Close, i)
		if closePx == nil {
			continue
		}

		bar := contracts.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closePx,
		}
		if v := at(q.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(q.High, i); v != nil {
			bar.High = *v
		}
		if v := at(q.Low, i); v != nil {
			bar.Low = *v
		}
		if v := at(q.Volume, i); v != nil {
			bar.Volume = *v
		}
		bars = append(bars, bar)
	}
	return bars
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
