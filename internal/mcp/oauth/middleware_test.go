package oauth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireBearer(t *testing.T) {
	h, _ := newTestHandler(t, nil, func(c *Config) {
		c.StaticGoogleToken = "static-google"
	})
	require.NoError(t, h.tokens.SaveAccessToken("issued", Session{
		Name: "Bob", Email: "bob@example.com", AccessToken: "g-bob", ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, h.tokens.SaveAccessToken("stale", Session{
		Email: "old@example.com", ExpiresAt: time.Now().Add(-time.Minute),
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantName   string
		wantToken  string
		wantError  string
	}{
		{name: "issued token", header: "Bearer issued", wantStatus: http.StatusOK, wantName: "Bob", wantToken: "g-bob"},
		{name: "static token", header: "Bearer puch-secret", wantStatus: http.StatusOK, wantName: StaticClientName, wantToken: "static-google"},
		{name: "lowercase scheme", header: "bearer issued", wantStatus: http.StatusOK, wantName: "Bob", wantToken: "g-bob"},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic Zm9vOmJhcg==", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantError: "invalid_token"},
		{name: "expired token", header: "Bearer stale", wantStatus: http.StatusUnauthorized, wantError: "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Session
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = SessionFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.RequireBearer(next).ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantName, got.Name)
				assert.Equal(t, tt.wantToken, got.AccessToken)
				return
			}

			challenge := w.Header().Get("WWW-Authenticate")
			assert.True(t, strings.HasPrefix(challenge, `Bearer resource_metadata="`+testResource+ProtectedResourceMetadataPath+`"`), challenge)
			if tt.wantError != "" {
				assert.Contains(t, challenge, `error="`+tt.wantError+`"`)
			}
		})
	}
}

func TestRequireBearer_StaticTokenDisabled(t *testing.T) {
	h, _ := newTestHandler(t, nil, func(c *Config) { c.StaticToken = "" })

	_, err := h.Authenticate("")
	assert.ErrorIs(t, err, ErrInvalidBearer)
	_, err = h.Authenticate("puch-secret")
	assert.ErrorIs(t, err, ErrInvalidBearer)
}

func TestSessionContext(t *testing.T) {
	_, ok := SessionFromContext(t.Context())
	assert.False(t, ok)

	s := Session{Name: "Alice", Email: "alice@example.com", AccessToken: "g"}
	got, ok := SessionFromContext(WithSession(t.Context(), s))
	require.True(t, ok)
	assert.Equal(t, s, got)
	assert.True(t, got.HasGoogleToken())
	assert.False(t, Session{}.HasGoogleToken())
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "Bearer  abc ")
	assert.Equal(t, "abc", BearerToken(req))
}
