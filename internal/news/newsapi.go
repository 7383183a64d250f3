// Package news fetches headlines from NewsAPI and from Google News RSS.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// DefaultNewsAPIURL is the NewsAPI top-headlines endpoint.
const DefaultNewsAPIURL = "https://newsapi.org/v2/top-headlines"

// ErrNewsAPINotConfigured is returned when no API key is set.
var ErrNewsAPINotConfigured = errors.New("NEWS_API environment variable not set")

// HeadlinesQuery filters NewsAPI top headlines. Empty fields are omitted.
type HeadlinesQuery struct {
	Query    string
	Country  string
	Category string
	Limit    int
}

// NewsAPI is a NewsAPI client.
type NewsAPI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

// NewNewsAPI creates a client. baseURL and hc may be empty or nil.
func NewNewsAPI(apiKey, baseURL string, hc *http.Client, m *instrumentation.Metrics) *NewsAPI {
	if baseURL == "" {
		baseURL = DefaultNewsAPIURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &NewsAPI{apiKey: apiKey, baseURL: baseURL, httpClient: hc, metrics: m}
}

// TopHeadlines returns the NewsAPI response document as is.
func (n *NewsAPI) TopHeadlines(ctx context.Context, q HeadlinesQuery) (doc json.RawMessage, err error) {
	if n.apiKey == "" {
		return nil, ErrNewsAPINotConfigured
	}

	ctx, call := instrumentation.StartUpstreamCall(ctx, n.metrics, instrumentation.ServiceNews, "top_headlines")
	defer func() { call.End(err) }()

	params := url.Values{}
	params.Set("apiKey", n.apiKey)
	params.Set("pageSize", strconv.Itoa(q.Limit))
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading news response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NewsAPI returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !json.Valid(body) {
		return nil, errors.New("NewsAPI returned invalid JSON")
	}
	return json.RawMessage(body), nil
}
