// Package spotify controls playback on the configured user's active Spotify
// device. Access tokens come from a long-lived refresh token.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

const (
	DefaultAPIURL   = "https://api.spotify.com/v1"
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	MsgPlaying        = "Playing"
	MsgPaused         = "Paused"
	MsgNext           = "Skipped to next track"
	MsgPrevious       = "Went to previous track"
	MsgNothingPlaying = "No track currently playing"
)

var (
	ErrNotConfigured  = errors.New("Spotify credentials not configured")
	ErrRefreshFailed  = errors.New("Failed to refresh Spotify token")
	ErrNoActiveDevice = errors.New("No active device found")
)

// APIError carries the body of a failed Spotify call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("Spotify API returned %d", e.Status)
	}
	return e.Body
}

// Credentials identify the Spotify app and user.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Complete reports whether all three values are set.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Client is a Spotify Web API player client. Safe for concurrent use.
type Client struct {
	configured bool
	conf       *oauth2.Config
	apiURL     string
	httpClient *http.Client
	metrics    *instrumentation.Metrics

	mu           sync.Mutex
	refreshToken string
	tokens       oauth2.TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoints overrides the API and token URLs.
func WithEndpoints(apiURL, tokenURL string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimSuffix(apiURL, "/")
		c.conf.Endpoint.TokenURL = tokenURL
	}
}

// WithHTTPClient sets the HTTP client for API and token calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records upstream calls.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client. Incomplete credentials are accepted; every
// call then fails with ErrNotConfigured.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		configured:   creds.Complete(),
		refreshToken: creds.RefreshToken,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  DefaultTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiURL:     DefaultAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Play starts the track on the active device.
func (c *Client) Play(ctx context.Context, trackID string) (string, error) {
	body := map[string][]string{"uris": {"spotify:track:" + trackID}}
	if _, _, err := c.call(ctx, "play", http.MethodPut, "/me/player/play", body); err != nil {
		return "", err
	}
	return MsgPlaying, nil
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) (string, error) {
	if _, _, err := c.call(ctx, "pause", http.MethodPut, "/me/player/pause", nil); err != nil {
		return "", err
	}
	return MsgPaused, nil
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) (string, error) {
	if _, _, err := c.call(ctx, "next", http.MethodPost, "/me/player/next", nil); err != nil {
		return "", err
	}
	return MsgNext, nil
}

// Previous goes back one track.
func (c *Client) Previous(ctx context.Context) (string, error) {
	if _, _, err := c.call(ctx, "previous", http.MethodPost, "/me/player/previous", nil); err != nil {
		return "", err
	}
	return MsgPrevious, nil
}

type currentlyPlaying struct {
	Item *struct {
		Name       string `json:"name"`
		DurationMS int64  `json:"duration_ms"`
		Artists    []struct {
			Name string `json:"name"`
		} `json:"artists"`
	} `json:"item"`
}

// Current describes the playing track as "<title> by <artists> (<n>s)".
func (c *Client) Current(ctx context.Context) (string, error) {
	status, body, err := c.call(ctx, "current", http.MethodGet, "/me/player/currently-playing", nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return MsgNothingPlaying, nil
	}

	var cp currentlyPlaying
	if err := json.Unmarshal(body, &cp); err != nil {
		return "", fmt.Errorf("decoding currently playing: %w", err)
	}
	if cp.Item == nil {
		return MsgNothingPlaying, nil
	}

	title := cp.Item.Name
	if title == "" {
		title = "Unknown"
	}
	names := make([]string, 0, len(cp.Item.Artists))
	for _, a := range cp.Item.Artists {
		names = append(names, a.Name)
	}
	return fmt.Sprintf("%s by %s (%ds)", title, strings.Join(names, ", "), cp.Item.DurationMS/1000), nil
}

// call performs an authorized request, refreshing the token and retrying
// once on 401. 404 means no active device.
func (c *Client) call(ctx context.Context, op, method, path string, payload any) (status int, body []byte, err error) {
	if !c.configured {
		return 0, nil, ErrNotConfigured
	}

	ctx, upstream := instrumentation.StartUpstreamCall(ctx, c.metrics, instrumentation.ServiceSpotify, op)
	defer func() { upstream.End(err) }()

	var encoded []byte
	if payload != nil {
		if encoded, err = json.Marshal(payload); err != nil {
			return 0, nil, err
		}
	}

	status, body, err = c.do(ctx, method, path, encoded, c.tokenSource(false))
	if err != nil {
		return 0, nil, err
	}
	if status == http.StatusUnauthorized {
		if status, body, err = c.do(ctx, method, path, encoded, c.tokenSource(true)); err != nil {
			return 0, nil, err
		}
	}

	switch {
	case status == http.StatusNotFound:
		return status, body, ErrNoActiveDevice
	case status >= 400:
		return status, body, &APIError{Status: status, Body: strings.TrimSpace(string(body))}
	}
	return status, body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, tokens oauth2.TokenSource) (int, []byte, error) {
	if _, err := tokens.Token(); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), tokens)
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("reading spotify response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// tokenSource returns the shared refreshing token source. reset discards the
// cached access token, after a 401, keeping any rotated refresh token.
func (c *Client) tokenSource(reset bool) oauth2.TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokens != nil && !reset {
		return c.tokens
	}
	if c.tokens != nil {
		if tok, err := c.tokens.Token(); err == nil && tok.RefreshToken != "" {
			c.refreshToken = tok.RefreshToken
		}
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	c.tokens = c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.refreshToken})
	return c.tokens
}
