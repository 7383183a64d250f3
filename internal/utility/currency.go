package utility

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Akasxh/mcp-server-daily/internal/cache"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

const (
	// DefaultCurrencyAPIURL is the currencyapi.com latest-rates endpoint.
	DefaultCurrencyAPIURL = "https://api.currencyapi.com/v3/latest"

	// RateCacheTTL is how long an exchange rate is reused.
	RateCacheTTL = time.Hour
)

// CurrencyConverter converts amounts using live rates, caching each pair.
type CurrencyConverter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	now        func() time.Time
	rates      *cache.TTL[float64]
}

// CurrencyOption configures a CurrencyConverter.
type CurrencyOption func(*CurrencyConverter)

// WithCurrencyBaseURL points the converter at another endpoint.
func WithCurrencyBaseURL(u string) CurrencyOption {
	return func(c *CurrencyConverter) { c.baseURL = u }
}

// WithCurrencyHTTPClient sets the HTTP client.
func WithCurrencyHTTPClient(hc *http.Client) CurrencyOption {
	return func(c *CurrencyConverter) { c.httpClient = hc }
}

// WithCurrencyMetrics records upstream calls and cache lookups.
func WithCurrencyMetrics(m *instrumentation.Metrics) CurrencyOption {
	return func(c *CurrencyConverter) { c.metrics = m }
}

// WithCurrencyClock overrides the rate cache clock.
func WithCurrencyClock(now func() time.Time) CurrencyOption {
	return func(c *CurrencyConverter) { c.now = now }
}

// NewCurrencyConverter creates a converter. An empty apiKey is allowed; every
// conversion then fails with ErrCurrencyNotConfigured.
func NewCurrencyConverter(apiKey string, opts ...CurrencyOption) *CurrencyConverter {
	c := &CurrencyConverter{
		apiKey:     apiKey,
		baseURL:    DefaultCurrencyAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rates = cache.NewTTL[float64](RateCacheTTL,
		cache.WithClock[float64](c.now),
		cache.WithObserver[float64](func(hit bool) {
			c.metrics.RecordCacheLookup(context.Background(), "currency_rates", hit)
		}),
	)
	return c
}

// Convert returns amount expressed in the to currency.
func (c *CurrencyConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	rate, err := c.rates.GetOrLoad(ctx, from+"/"+to, func(ctx context.Context) (float64, error) {
		return c.fetchRate(ctx, from, to)
	})
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

type latestRates struct {
	Data map[string]struct {
		Code  string  `json:"code"`
		Value float64 `json:"value"`
	} `json:"data"`
}

func (c *CurrencyConverter) fetchRate(ctx context.Context, from, to string) (rate float64, err error) {
	if c.apiKey == "" {
		return 0, ErrCurrencyNotConfigured
	}

	ctx, call := instrumentation.StartUpstreamCall(ctx, c.metrics, instrumentation.ServiceCurrency, "latest")
	defer func() { call.End(err) }()

	q := url.Values{}
	q.Set("base_currency", from)
	q.Set("currencies", to)
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("network error: %w", err)
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return 0, ErrUnsupportedCurrency
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("currency API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed latestRates
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, errors.New("invalid response from currency API")
	}
	r, ok := parsed.Data[to]
	if !ok {
		return 0, ErrUnsupportedCurrency
	}
	return r.Value, nil
}
