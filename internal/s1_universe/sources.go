package s1_universe

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/leapscreener/pkg/httputil"
	"github.com/wonny/leapscreener/pkg/logger"
)

const (
	// DefaultSP500URL is the public S&P 500 constituents dataset
	DefaultSP500URL = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/main/data/constituents.csv"
	// DefaultNasdaq100URL lists Nasdaq-100 constituents in a "Ticker" table column
	DefaultNasdaq100URL = "https://en.wikipedia.org/wiki/Nasdaq-100"
)

// nasdaq100Tickers is the constituent list used when the page cannot be scraped (early 2026)
var nasdaq100Tickers = []string{
	"AAPL", "ABNB", "ADBE", "ADI", "ADP", "ADSK", "AEP", "AMAT", "AMD", "AMGN",
	"AMZN", "ANSS", "APP", "ARM", "ASML", "AVGO", "AZN", "BIIB", "BKNG", "BKR",
	"CCEP", "CDNS", "CDW", "CEG", "CHTR", "CMCSA", "COST", "CPRT", "CRWD", "CSCO",
	"CSGP", "CSX", "CTAS", "CTSH", "DASH", "DDOG", "DLTR", "DXCM", "EA", "EXC",
	"FANG", "FAST", "FTNT", "GEHC", "GFS", "GILD", "GOOG", "GOOGL", "HON", "IDXX",
	"ILMN", "INTC", "INTU", "ISRG", "KDP", "KHC", "KLAC", "LIN", "LRCX", "LULU",
	"MAR", "MCHP", "MDB", "MDLZ", "MELI", "META", "MNST", "MRVL", "MSFT", "MU",
	"NFLX", "NVDA", "NXPI", "ODFL", "ON", "ORLY", "PANW", "PAYX", "PCAR", "PDD",
	"PEP", "PYPL", "QCOM", "REGN", "ROP", "ROST", "SBUX", "SMCI", "SNPS", "TEAM",
	"TMUS", "TSLA", "TTD", "TTWO", "TXN", "VRSK", "VRTX", "WBD", "WDAY", "XEL",
	"ZS",
}

// SP500Source reads the constituents CSV ("Symbol" column)
type SP500Source struct {
	httpClient *httputil.Client
	url        string
}

// NewSP500Source creates the S&P 500 source. Empty url uses DefaultSP500URL.
func NewSP500Source(httpClient *httputil.Client, url string) *SP500Source {
	if url == "" {
		url = DefaultSP500URL
	}
	return &SP500Source{httpClient: httpClient, url: url}
}

// Name implements contracts.UniverseSource
func (s *SP500Source) Name() string { return "sp500" }

// Tickers implements contracts.UniverseSource
func (s *SP500Source) Tickers(ctx context.Context) ([]string, error) {
	body, err := s.httpClient.GetBody(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch sp500 csv: %w", err)
	}
	return parseSymbolCSV(bytes.NewReader(body), "Symbol")
}

func parseSymbolCSV(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("csv has no %q column", column)
	}

	var out []string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if idx < len(rec) {
			out = append(out, rec[idx])
		}
	}
	return out, nil
}

// Nasdaq100Source scrapes the constituents table, falling back to a built-in list
type Nasdaq100Source struct {
	httpClient *httputil.Client
	url        string
	logger     *logger.Logger
}

// NewNasdaq100Source creates the Nasdaq-100 source. Empty url uses DefaultNasdaq100URL.
func NewNasdaq100Source(httpClient *httputil.Client, url string, log *logger.Logger) *Nasdaq100Source {
	if url == "" {
		url = DefaultNasdaq100URL
	}
	return &Nasdaq100Source{httpClient: httpClient, url: url, logger: log}
}

// Name implements contracts.UniverseSource
func (s *Nasdaq100Source) Name() string { return "nasdaq100" }

// Tickers implements contracts.UniverseSource. Never fails.
func (s *Nasdaq100Source) Tickers(ctx context.Context) ([]string, error) {
	if s.httpClient != nil {
		body, err := s.httpClient.GetBody(ctx, s.url)
		if err == nil {
			tickers, perr := parseTickerTable(string(body))
			if perr == nil && len(tickers) > 0 {
				return tickers, nil
			}
			err = perr
		}
		s.logger.WithFields(map[string]interface{}{
			"url":   s.url,
			"error": fmt.Sprintf("%v", err),
		}).Warn("Nasdaq-100 scrape failed, using built-in list")
	}

	out := make([]string, len(nasdaq100Tickers))
	copy(out, nasdaq100Tickers)
	return out, nil
}

// parseTickerTable finds the first table with a "Ticker" or "Symbol" header
func parseTickerTable(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tickers []string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := -1
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			h := strings.TrimSpace(th.Text())
			if col < 0 && (strings.EqualFold(h, "Ticker") || strings.EqualFold(h, "Symbol")) {
				col = i
			}
		})
		if col < 0 {
			return true
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= col {
				return
			}
			if t := strings.TrimSpace(cells.Eq(col).Text()); t != "" {
				tickers = append(tickers, t)
			}
		})
		return len(tickers) == 0
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("no ticker table found")
	}
	return tickers, nil
}

// StaticSource serves a fixed list (--tickers)
type StaticSource struct {
	name    string
	tickers []string
}

// NewStaticSource creates a fixed-list source
func NewStaticSource(name string, tickers []string) *StaticSource {
	return &StaticSource{name: name, tickers: tickers}
}

// Name implements contracts.UniverseSource
func (s *StaticSource) Name() string { return s.name }

// Tickers implements contracts.UniverseSource
func (s *StaticSource) Tickers(ctx context.Context) ([]string, error) {
	out := make([]string, len(s.tickers))
	copy(out, s.tickers)
	return out, nil
}
