// Package translate translates text through the public Google Translate
// endpoint.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// DefaultURL is the gtx translate endpoint.
const DefaultURL = "https://translate.googleapis.com/translate_a/single"

// ErrUnsupportedLanguage is returned when the endpoint rejects a language.
var ErrUnsupportedLanguage = errors.New("Unsupported language specified.")

// APIError is a non-success response other than 400.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return "Translation API error: " + e.Body
}

// Client calls the translate endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

// NewClient creates a client. baseURL and hc may be empty or nil.
func NewClient(baseURL string, hc *http.Client, m *instrumentation.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: hc, metrics: m}
}

// Translate translates text into target. An empty or "auto" source lets the
// service detect the language.
func (c *Client) Translate(ctx context.Context, text, target, source string) (translated string, err error) {
	src := strings.ToLower(strings.TrimSpace(source))
	if src == "" {
		src = "auto"
	}
	dest := strings.ToLower(strings.TrimSpace(target))

	ctx, call := instrumentation.StartUpstreamCall(ctx, c.metrics, instrumentation.ServiceTranslate, "translate")
	defer func() { call.End(err) }()

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", src)
	q.Set("tl", dest)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Translation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("Translation request failed: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return "", ErrUnsupportedLanguage
	case resp.StatusCode >= 300:
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return parseResponse(body)
}

// parseResponse joins the translated segments: the first element of each
// entry in the top-level first array.
func parseResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("Unexpected translation response: invalid JSON")
	}
	segments := gjson.GetBytes(body, "0")
	if !segments.IsArray() {
		return "", errors.New("Unexpected translation response: missing segments")
	}

	var b strings.Builder
	for _, seg := range segments.Array() {
		b.WriteString(seg.Get("0").String())
	}
	return b.String(), nil
}
