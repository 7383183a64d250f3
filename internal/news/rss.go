package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Akasxh/mcp-server-daily/internal/cache"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

const (
	// DefaultRSSURL is the Google News RSS feed.
	DefaultRSSURL = "https://news.google.com/rss"

	// MaxHeadlines is how many items a summary lists.
	MaxHeadlines = 5

	MsgNoHeadlines  = "No headlines found."
	MsgFetchFailure = "Error fetching news headlines. Please try again later."
)

// Headline is one feed item.
type Headline struct {
	Title string
	Link  string
}

// RSSReader summarises Google News RSS feeds, caching each summary.
type RSSReader struct {
	baseURL    string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	summaries  *cache.TTL[string]
}

// NewRSSReader creates a reader whose summaries live for ttl.
func NewRSSReader(baseURL string, hc *http.Client, ttl time.Duration, m *instrumentation.Metrics) *RSSReader {
	if baseURL == "" {
		baseURL = DefaultRSSURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &RSSReader{
		baseURL:    baseURL,
		httpClient: hc,
		metrics:    m,
		summaries: cache.NewTTL[string](ttl, cache.WithObserver[string](func(hit bool) {
			m.RecordCacheLookup(context.Background(), "news_rss", hit)
		})),
	}
}

// FeedURL builds the feed URL for an optional topic and region.
func (r *RSSReader) FeedURL(category, region string) string {
	var params []string
	if region != "" {
		region = strings.ToUpper(region)
		params = append(params, "hl="+region, "gl="+region, "ceid="+region+":"+region)
	}
	if category != "" {
		params = append(params, "topic="+strings.ToUpper(category))
	}
	if len(params) == 0 {
		return r.baseURL
	}
	return r.baseURL + "?" + strings.Join(params, "&")
}

// Headlines returns "- title (link)" lines for the feed. Fetch failures
// yield MsgFetchFailure and are not cached.
func (r *RSSReader) Headlines(ctx context.Context, category, region string) string {
	key := category + "|" + region
	summary, err := r.summaries.GetOrLoad(ctx, key, func(ctx context.Context) (string, error) {
		items, err := r.fetch(ctx, r.FeedURL(category, region))
		if err != nil {
			return "", err
		}
		return Summarize(items), nil
	})
	if err != nil {
		return MsgFetchFailure
	}
	return summary
}

// Summarize renders headlines as bullet lines.
func Summarize(items []Headline) string {
	if len(items) == 0 {
		return MsgNoHeadlines
	}
	lines := make([]string, 0, len(items))
	for _, h := range items {
		lines = append(lines, fmt.Sprintf("- %s (%s)", h.Title, h.Link))
	}
	return strings.Join(lines, "\n")
}

func (r *RSSReader) fetch(ctx context.Context, feedURL string) (items []Headline, err error) {
	ctx, call := instrumentation.StartUpstreamCall(ctx, r.metrics, instrumentation.ServiceNews, "rss")
	defer func() { call.End(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed returned %d", resp.StatusCode)
	}
	return ParseRSS(io.LimitReader(resp.Body, 4<<20), MaxHeadlines)
}

// ParseRSS reads up to limit items that have both a title and a link. RSS
// and Atom feeds are accepted.
func ParseRSS(r io.Reader, limit int) ([]Headline, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var out []Headline
	for i, item := range feed.Items {
		if i >= limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title != "" && link != "" {
			out = append(out, Headline{Title: title, Link: link})
		}
	}
	return out, nil
}
