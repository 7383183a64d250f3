package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "https resource", config: &Config{Resource: "https://mcp.example.com"}},
		{name: "loopback http resource", config: &Config{Resource: "http://127.0.0.1:8086"}},
		{name: "trailing slash trimmed", config: &Config{Resource: "https://mcp.example.com/"}},
		{name: "nil config", config: nil, wantErr: true},
		{name: "missing resource", config: &Config{}, wantErr: true},
		{name: "plain http on public host", config: &Config{Resource: "http://mcp.example.com"}, wantErr: true},
		{name: "relative resource", config: &Config{Resource: "/mcp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer h.Close()
			assert.False(t, strings.HasSuffix(h.Resource(), "/"))
			assert.False(t, h.CanAuthorize(), "no Google client configured")
		})
	}
}

func TestHandler_Metadata(t *testing.T) {
	_, mux := newTestHandler(t, nil)

	t.Run("protected resource", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ProtectedResourceMetadataPath, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var md ProtectedResourceMetadata
		require.NoError(t, json.NewDecoder(w.Body).Decode(&md))
		assert.Equal(t, testResource, md.Resource)
		assert.Equal(t, []string{testResource}, md.AuthorizationServers)
		assert.Equal(t, []string{"header"}, md.BearerMethodsSupported)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "no HSTS over plain http")
	})

	t.Run("authorization server", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, AuthorizationServerMetadataPath, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var md AuthorizationServerMetadata
		require.NoError(t, json.NewDecoder(w.Body).Decode(&md))
		assert.Equal(t, testResource+"/authorize", md.AuthorizationEndpoint)
		assert.Equal(t, testResource+"/token", md.TokenEndpoint)
		assert.Equal(t, testResource+"/register", md.RegistrationEndpoint)
		assert.Contains(t, md.CodeChallengeMethodsSupported, "S256")
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, ProtectedResourceMetadataPath, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		public     bool
		regToken   string
		authHeader string
		body       string
		wantStatus int
	}{
		{
			name:       "public registration",
			public:     true,
			body:       `{"redirect_uris":["http://localhost:3000/cb"]}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "token required",
			regToken:   "reg",
			body:       `{"redirect_uris":["http://localhost:3000/cb"]}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong token",
			regToken:   "reg",
			authHeader: "Bearer nope",
			body:       `{"redirect_uris":["http://localhost:3000/cb"]}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			regToken:   "reg",
			authHeader: "Bearer reg",
			body:       `{"redirect_uris":["http://localhost:3000/cb"]}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "registration not configured",
			body:       `{"redirect_uris":["http://localhost:3000/cb"]}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "missing redirect uris",
			public:     true,
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "http redirect to public host",
			public:     true,
			body:       `{"redirect_uris":["http://evil.example.com/cb"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			public:     true,
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mux := newTestHandler(t, nil, func(c *Config) {
				c.Security.AllowPublicClientRegistration = tt.public
				c.Security.RegistrationAccessToken = tt.regToken
			})

			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestHandler_RegisterPerIPLimit(t *testing.T) {
	_, mux := newTestHandler(t, nil, func(c *Config) {
		c.Security.MaxClientsPerIP = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"redirect_uris":["https://app.example.com/cb"]}`))
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestValidateRedirectURI(t *testing.T) {
	tests := []struct {
		uri     string
		custom  bool
		wantErr bool
	}{
		{uri: "https://app.example.com/cb"},
		{uri: "http://localhost:3000/cb"},
		{uri: "http://127.0.0.1/cb"},
		{uri: "http://[::1]:8080/cb"},
		{uri: "myapp://callback", custom: true},
		{uri: "myapp://callback", wantErr: true},
		{uri: "http://app.example.com/cb", wantErr: true},
		{uri: "https://app.example.com/cb#frag", wantErr: true},
		{uri: "javascript:alert(1)", custom: true, wantErr: true},
		{uri: "data:text/html,hi", custom: true, wantErr: true},
		{uri: "/relative", wantErr: true},
		{uri: "https:///nohost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			err := validateRedirectURI(tt.uri, tt.custom)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRedirectURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
		})
	}
}

func TestHandler_AuthorizeValidation(t *testing.T) {
	google := newFakeGoogle(t)
	_, mux := newTestHandler(t, google)
	public := registerClient(t, mux, `{"redirect_uris":["`+testRedirectURI+`"],"token_endpoint_auth_method":"none"}`)

	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantErrParam string
	}{
		{
			name:       "unsupported response type",
			query:      "response_type=token&client_id=" + public.ClientID,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing state",
			query:      "response_type=code&client_id=" + public.ClientID + "&redirect_uri=" + testRedirectURI,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown client",
			query:      "response_type=code&client_id=nope&redirect_uri=" + testRedirectURI + "&state=s",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unregistered redirect",
			query:      "response_type=code&client_id=" + public.ClientID + "&redirect_uri=http://localhost:9999/x&state=s",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:         "public client without PKCE",
			query:        "response_type=code&client_id=" + public.ClientID + "&redirect_uri=" + testRedirectURI + "&state=s",
			wantStatus:   http.StatusFound,
			wantErrParam: "invalid_request",
		},
		{
			name:         "unsupported Google scope",
			query:        "response_type=code&client_id=" + public.ClientID + "&redirect_uri=" + testRedirectURI + "&state=s&code_challenge=abc&scope=https://www.googleapis.com/auth/admin",
			wantStatus:   http.StatusFound,
			wantErrParam: "invalid_scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/authorize?"+tt.query, nil))
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantErrParam != "" {
				assert.Contains(t, w.Header().Get("Location"), "error="+tt.wantErrParam)
			}
		})
	}
}

func TestHandler_AuthorizeWithoutGoogle(t *testing.T) {
	_, mux := newTestHandler(t, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/authorize?response_type=code", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_Revoke(t *testing.T) {
	h, mux := newTestHandler(t, nil)
	require.NoError(t, h.tokens.SaveAccessToken("tok", Session{Email: "a@example.com"}))

	req := httptest.NewRequest(http.MethodPost, "/revoke", strings.NewReader("token=tok"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := h.Authenticate("tok")
	assert.ErrorIs(t, err, ErrInvalidBearer)
}
