// Package jobs helps with job hunting: it analyzes pasted descriptions,
// fetches postings by URL and searches the web for openings.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

const (
	// UserAgent is sent with every outbound request.
	UserAgent = "Puch/1.0 (Autonomous)"

	DefaultSearchURL = "https://html.duckduckgo.com/html/"
	MaxSearchResults = 5

	// maxPageBytes bounds fetched pages.
	maxPageBytes = 5 << 20

	MsgSearchFailed   = "<error>Failed to perform search.</error>"
	MsgNoResults      = "<error>No results found.</error>"
	MsgNotSimplified  = "<error>Page failed to be simplified from HTML</error>"
	rawContentPrefix  = "Content type %s cannot be simplified to markdown, but here is the raw content:\n"
	searchKeywordLook = "look for"
	searchKeywordFind = "find"
)

// ErrNoInput is returned when a request has nothing to act on.
var ErrNoInput = errors.New("Please provide either a job description, a job URL, or a search query in user_goal.")

// Request is one job_finder call.
type Request struct {
	Goal        string
	Description string
	URL         string
	Raw         bool
}

// Finder performs page fetches and searches.
type Finder struct {
	httpClient *http.Client
	searchURL  string
	metrics    *instrumentation.Metrics
}

// Option configures a Finder.
type Option func(*Finder)

// WithHTTPClient replaces the default client (30s timeout, follows redirects).
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Finder) { f.httpClient = hc }
}

// WithSearchURL points searches at a different HTML results endpoint.
func WithSearchURL(u string) Option {
	return func(f *Finder) { f.searchURL = u }
}

// WithMetrics records upstream calls.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(f *Finder) { f.metrics = m }
}

// NewFinder creates a Finder.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		searchURL:  DefaultSearchURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find handles a request. A description takes precedence over a URL, and a
// URL over a search phrased as "find ..." or "look for ...".
func (f *Finder) Find(ctx context.Context, req Request) (string, error) {
	switch {
	case strings.TrimSpace(req.Description) != "":
		return fmt.Sprintf("📝 **Job Description Analysis**\n\n---\n%s\n---\n\nUser Goal: **%s**\n\n"+
			"💡 Suggestions:\n- Tailor your resume.\n- Evaluate skill match.\n- Consider applying if relevant.",
			strings.TrimSpace(req.Description), req.Goal), nil

	case req.URL != "":
		content, _, err := f.Fetch(ctx, req.URL, req.Raw)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🔗 **Fetched Job Posting from URL**: %s\n\n---\n%s\n---\n\nUser Goal: **%s**",
			req.URL, strings.TrimSpace(content), req.Goal), nil

	case isSearch(req.Goal):
		links := f.Search(ctx, req.Goal)
		var b strings.Builder
		fmt.Fprintf(&b, "🔍 **Search Results for**: _%s_\n\n", req.Goal)
		for i, link := range links {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- " + link)
		}
		return b.String(), nil
	}
	return "", ErrNoInput
}

func isSearch(goal string) bool {
	g := strings.ToLower(goal)
	return strings.Contains(g, searchKeywordLook) || strings.Contains(g, searchKeywordFind)
}

// Fetch downloads rawURL. HTML pages are reduced to readable text unless raw
// is set; anything else is returned verbatim with an explanatory prefix.
func (f *Finder) Fetch(ctx context.Context, rawURL string, raw bool) (content, prefix string, err error) {
	ctx, upstream := instrumentation.StartUpstreamCall(ctx, f.metrics, instrumentation.ServiceJobs, "fetch")
	defer func() { upstream.End(err) }()

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", fmt.Errorf("Failed to fetch %s: invalid URL", rawURL)
	}

	resp, err := f.get(ctx, u.String())
	if err != nil {
		return "", "", fmt.Errorf("Failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("Failed to fetch %s - status code %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", "", fmt.Errorf("Failed to fetch %s: %w", rawURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") && !raw {
		return ExtractText(strings.NewReader(string(body))), "", nil
	}
	return string(body), fmt.Sprintf(rawContentPrefix, contentType), nil
}

// Search returns up to MaxSearchResults result links for query. Failures are
// reported as a single error marker entry rather than an error.
func (f *Finder) Search(ctx context.Context, query string) []string {
	var err error
	ctx, upstream := instrumentation.StartUpstreamCall(ctx, f.metrics, instrumentation.ServiceJobs, "search")
	defer func() { upstream.End(err) }()

	resp, err := f.get(ctx, f.searchURL+"?"+url.Values{"q": {query}}.Encode())
	if err != nil {
		return []string{MsgSearchFailed}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("search returned %d", resp.StatusCode)
		return []string{MsgSearchFailed}
	}

	links, err := ParseResultLinks(io.LimitReader(resp.Body, maxPageBytes), MaxSearchResults)
	if err != nil {
		return []string{MsgSearchFailed}
	}
	if len(links) == 0 {
		return []string{MsgNoResults}
	}
	return links
}

func (f *Finder) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	return f.httpClient.Do(req)
}
