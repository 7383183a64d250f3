package spotify_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/spotify"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/tools/tooltest"
)

var creds = spotify.Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"}

func setup(t *testing.T, c spotify.Credentials, api http.HandlerFunc) *registry.Registry {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "access", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/v1/", api)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := spotify.NewClient(c,
		spotify.WithEndpoints(srv.URL+"/v1", srv.URL+"/token"),
		spotify.WithHTTPClient(srv.Client()),
	)
	sc := tooltest.NewServerContext(t, tooltest.Config(t), server.WithSpotify(client))
	r := registry.New(sc)
	require.NoError(t, RegisterSpotifyTools(r, sc))
	return r
}

func TestSpotifyTools(t *testing.T) {
	var lastPath string
	r := setup(t, creds, func(w http.ResponseWriter, req *http.Request) {
		lastPath = req.Method + " " + req.URL.Path
		if req.URL.Path == "/v1/me/player/currently-playing" {
			_, _ = io.WriteString(w, `{"item":{"name":"Song","duration_ms":61000,"artists":[{"name":"Band"}]}}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		tool string
		args map[string]any
		path string
		want string
	}{
		{"spotify_play", map[string]any{"track_id": "abc"}, "PUT /v1/me/player/play", spotify.MsgPlaying},
		{"spotify_pause", nil, "PUT /v1/me/player/pause", spotify.MsgPaused},
		{"spotify_next", nil, "POST /v1/me/player/next", spotify.MsgNext},
		{"spotify_previous", nil, "POST /v1/me/player/previous", spotify.MsgPrevious},
		{"spotify_current", nil, "GET /v1/me/player/currently-playing", "Song by Band (61s)"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			result := tooltest.Invoke(t, r, context.Background(), tt.tool, tt.args)
			assert.False(t, result.IsError)
			assert.Equal(t, tt.want, tooltest.Text(result))
			assert.Equal(t, tt.path, lastPath)
		})
	}
}

func TestSpotifyTools_Errors(t *testing.T) {
	r := setup(t, spotify.Credentials{}, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected without credentials")
	})
	result := tooltest.Invoke(t, r, context.Background(), "spotify_pause", nil)
	assert.True(t, result.IsError)
	assert.Equal(t, spotify.ErrNotConfigured.Error(), tooltest.Text(result))

	result = tooltest.Invoke(t, r, context.Background(), "spotify_play", nil)
	assert.True(t, result.IsError)
	assert.Equal(t, "invalid arguments: track_id is required", tooltest.Text(result))

	r = setup(t, creds, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"status":403,"message":"Premium required"}}`)
	})
	result = tooltest.Invoke(t, r, context.Background(), "spotify_next", nil)
	assert.True(t, result.IsError)
	assert.Equal(t, `Spotify request failed: {"error":{"status":403,"message":"Premium required"}}`, tooltest.Text(result))
}
