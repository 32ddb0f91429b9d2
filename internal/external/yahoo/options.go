package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/leapscreener/internal/contracts"
)

const expirationLayout = "2006-01-02"

type optionChainResponse struct {
	OptionChain struct {
		Result []optionChainResult `json:"result"`
		Error  *apiError           `json:"error"`
	} `json:"optionChain"`
}

type optionChainResult struct {
	ExpirationDates []int64 `json:"expirationDates"`
	Options         []struct {
		ExpirationDate int64       `json:"expirationDate"`
		Calls          []callQuote `json:"calls"`
	} `json:"options"`
}

type callQuote struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            *float64 `json:"strike"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	OpenInterest      *float64 `json:"openInterest"`
}

// Expirations lists listed expiration dates as "2006-01-02" (UTC)
func (c *Client) Expirations(ctx context.Context, ticker string) ([]string, error) {
	result, err := c.optionChain(ctx, ticker, nil)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	out := make([]string, 0, len(result.ExpirationDates))
	for _, ts := range result.ExpirationDates {
		out = append(out, time.Unix(ts, 0).UTC().Format(expirationLayout))
	}
	return out, nil
}

// CallChain fetches the call side for one expiration
// ⭐ SSOT: 옵션 체인 조회
func (c *Client) CallChain(ctx context.Context, ticker, expiration string) ([]contracts.OptionContract, error) {
	day, err := time.ParseInLocation(expirationLayout, expiration, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration %q: %w", expiration, err)
	}

	params := url.Values{}
	params.Set("date", strconv.FormatInt(day.Unix(), 10))

	result, err := c.optionChain(ctx, ticker, params)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Options) == 0 {
		return nil, nil
	}

	calls := parseCalls(result.Options[0].Calls)

	c.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"expiration": expiration,
		"count":      len(calls),
	}).Debug("Fetched call chain")
	return calls, nil
}

func (c *Client) optionChain(ctx context.Context, ticker string, params url.Values) (*optionChainResult, error) {
	if params == nil {
		params = url.Values{}
	}

	var resp optionChainResponse
	if err := c.getJSON(ctx, "options", "/v7/finance/options/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, fmt.Errorf("options %s: %w", ticker, err)
	}
	if err := resp.OptionChain.Error.asError(ticker); err != nil {
		return nil, err
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, nil
	}
	return &resp.OptionChain.Result[0], nil
}

// parseCalls drops contracts without a strike
func parseCalls(quotes []callQuote) []contracts.OptionContract {
	out := make([]contracts.OptionContract, 0, len(quotes))
	for _, q := range quotes {
		if q.Strike == nil {
			continue
		}
		oc := contracts.OptionContract{
			ContractSymbol:    q.ContractSymbol,
			Strike:            *q.Strike,
			Bid:               q.Bid,
			Ask:               q.Ask,
			ImpliedVolatility: q.ImpliedVolatility,
		}
		if q.OpenInterest != nil {
			oc.OpenInterest = *q.OpenInterest
		}
		out = append(out, oc)
	}
	return out
}
