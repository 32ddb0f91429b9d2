package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/leapscreener/internal/telemetry"
	"github.com/wonny/leapscreener/pkg/config"
	"github.com/wonny/leapscreener/pkg/httputil"
	"github.com/wonny/leapscreener/pkg/logger"
)

var (
	// ErrNotFound means the provider knows nothing about the symbol
	ErrNotFound = errors.New("symbol not found")
	// ErrNoCrumb means the session bootstrap did not yield a crumb
	ErrNoCrumb = errors.New("yahoo crumb unavailable")
)

// Client handles communication with the Yahoo Finance query API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	metrics    *telemetry.Metrics
	breaker    *gobreaker.CircuitBreaker

	baseURL   string
	cookieURL string
	now       func() time.Time

	mu    sync.Mutex
	crumb string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, metrics *telemetry.Metrics, log *logger.Logger) *Client {
	c := &Client{
		httpClient: httpClient,
		logger:     log,
		metrics:    metrics,
		baseURL:    strings.TrimRight(cfg.QueryURL, "/"),
		cookieURL:  cfg.CookieURL,
		now:        time.Now,
	}
	c.breaker = newBreaker("yahoo", metrics, log)
	return c
}

// session returns the cached crumb, bootstrapping cookies on first use
func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" {
		return c.crumb, nil
	}

	// 쿠키만 필요함 (응답 상태는 무시)
	if c.cookieURL != "" {
		if resp, err := c.httpClient.Get(ctx, c.cookieURL); err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	body, err := c.httpClient.GetBody(ctx, c.baseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCrumb, err)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", ErrNoCrumb
	}

	c.crumb = crumb
	c.logger.Debug("Yahoo session established")
	return crumb, nil
}

func (c *Client) resetSession() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}

// getJSON performs an authenticated query through the breaker.
// A 401 drops the crumb and retries once.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, dest interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		err := c.fetch(ctx, endpoint, path, params, dest)

		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			c.resetSession()
			err = c.fetch(ctx, endpoint, path, params, dest)
		}
		return nil, err
	})
	return err
}

func (c *Client) fetch(ctx context.Context, endpoint, path string, params url.Values, dest interface{}) error {
	crumb, err := c.session(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("crumb", crumb)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())

	start := time.Now()
	err = c.httpClient.GetJSON(ctx, fullURL, dest)
	c.metrics.ObserveProvider(endpoint, statusLabel(err), time.Since(start))

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("%d", statusErr.StatusCode)
	}
	return "error"
}

// apiError is the error envelope shared by chart, quoteSummary and options
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) asError(ticker string) error {
	if e == nil {
		return nil
	}
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("%s: %w", ticker, ErrNotFound)
	}
	return fmt.Errorf("%s: %s", e.Code, e.Description)
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v *rawValue) ptr() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}
