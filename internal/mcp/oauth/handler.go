package oauth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"
	oauth2google "golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// Handler serves the Auth Gateway endpoints
type Handler struct {
	config       *Config
	tokens       *TokenStore
	clientStore  *ClientStore
	flowStore    *FlowStore
	rateLimiter  *RateLimiter
	googleConfig *oauth2.Config
	httpClient   *http.Client
	googleTokens storage.TokenStore
	stopTokens   func()
	metrics      *instrumentation.Metrics
	logger       *slog.Logger
	now          func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHandler validates config, applies defaults and starts the background cleanup.
// Call Close to stop it.
func NewHandler(config *Config) (*Handler, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := *config

	if cfg.Resource == "" {
		return nil, fmt.Errorf("resource URL is required")
	}
	cfg.Resource = strings.TrimRight(cfg.Resource, "/")
	resourceURL, err := url.Parse(cfg.Resource)
	if err != nil || resourceURL.Host == "" {
		return nil, fmt.Errorf("invalid resource URL: %s", cfg.Resource)
	}
	if resourceURL.Scheme != "https" && !isLoopback(resourceURL.Hostname()) {
		return nil, fmt.Errorf("resource URL must use HTTPS unless it is a loopback address: %s", cfg.Resource)
	}

	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Security.RefreshTokenTTL <= 0 {
		cfg.Security.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if cfg.Security.MaxClientsPerIP == 0 {
		cfg.Security.MaxClientsPerIP = DefaultMaxClientsPerIP
	}
	if cfg.RateLimit.Burst <= 0 && cfg.RateLimit.Rate > 0 {
		cfg.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "oauth")
	googleTokens, stopTokens := newGoogleTokenStore(cfg.GoogleTokenStore)

	h := &Handler{
		config:       &cfg,
		tokens:       NewTokenStore(logger),
		clientStore:  NewClientStore(logger),
		flowStore:    NewFlowStore(logger),
		httpClient:   cfg.HTTPClient,
		googleTokens: googleTokens,
		stopTokens:   stopTokens,
		metrics:      cfg.Metrics,
		logger:       logger,
		now:          time.Now,
		stop:         make(chan struct{}),
	}

	if cfg.RateLimit.Rate > 0 {
		h.rateLimiter = NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)
	}

	if cfg.Google.ClientID != "" {
		endpoint := cfg.Google.Endpoint
		if endpoint.AuthURL == "" {
			endpoint = oauth2google.Endpoint
		}
		h.googleConfig = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.Resource + CallbackPath,
			Scopes:       googleScopes(cfg.SupportedScopes),
		}
	} else {
		logger.Warn("Google OAuth client not configured, only the static bearer token can authenticate")
	}

	go h.cleanupLoop()

	return h, nil
}

// googleScopes adds the identity scopes needed for the userinfo lookup.
func googleScopes(supported []string) []string {
	scopes := []string{googleoauth2.OpenIDScope, googleoauth2.UserinfoEmailScope, googleoauth2.UserinfoProfileScope}
	for _, s := range supported {
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func (h *Handler) cleanupLoop() {
	ticker := time.NewTicker(h.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			now := h.now()
			h.tokens.CleanupExpired(now)
			h.flowStore.CleanupExpired(now)
			if h.rateLimiter != nil {
				h.rateLimiter.CleanupInactive(now)
			}
		}
	}
}

// Close stops the background cleanup. It is safe to call more than once.
func (h *Handler) Close() {
	h.stopOnce.Do(func() {
		close(h.stop)
		h.stopTokens()
	})
}

// Resource returns the normalised public base URL.
func (h *Handler) Resource() string {
	return h.config.Resource
}

// CanAuthorize reports whether the Google consent flow is available.
func (h *Handler) CanAuthorize() bool {
	return h.googleConfig != nil
}

// ResourceMetadataURL is advertised in WWW-Authenticate challenges.
func (h *Handler) ResourceMetadataURL() string {
	return h.config.Resource + ProtectedResourceMetadataPath
}

// ServeProtectedResourceMetadata serves RFC 9728 metadata
func (h *Handler) ServeProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, ProtectedResourceMetadata{
		Resource:               h.config.Resource,
		AuthorizationServers:   []string{h.config.Resource},
		BearerMethodsSupported: []string{"header"},
		ScopesSupported:        h.config.SupportedScopes,
	})
}

// ServeAuthorizationServerMetadata serves RFC 8414 metadata
func (h *Handler) ServeAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, AuthorizationServerMetadata{
		Issuer:                            h.config.Resource,
		AuthorizationEndpoint:             h.config.Resource + "/authorize",
		TokenEndpoint:                     h.config.Resource + "/token",
		RegistrationEndpoint:              h.config.Resource + "/register",
		RevocationEndpoint:                h.config.Resource + "/revoke",
		ScopesSupported:                   h.config.SupportedScopes,
		ResponseTypesSupported:            DefaultResponseTypes,
		GrantTypesSupported:               DefaultGrantTypes,
		TokenEndpointAuthMethodsSupported: SupportedTokenAuthMethods,
		CodeChallengeMethodsSupported:     SupportedCodeChallengeMethods,
	})
}

func (h *Handler) setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-XSS-Protection", "1; mode=block")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	if strings.HasPrefix(h.config.Resource, "https://") {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	h.setSecurityHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeOAuthError writes an RFC 6749 error body
func (h *Handler) writeOAuthError(w http.ResponseWriter, e *OAuthError) {
	h.writeJSON(w, e.Status, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// RegisterRoutes mounts the gateway endpoints on mux, rate limited per IP.
// The /oauth/ prefixed paths are aliases used by some MCP clients.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		ProtectedResourceMetadataPath:   h.ServeProtectedResourceMetadata,
		AuthorizationServerMetadataPath: h.ServeAuthorizationServerMetadata,
		"/register":                     h.ServeRegister,
		"/authorize":                    h.ServeAuthorize,
		CallbackPath:                    h.ServeCallback,
		"/token":                        h.ServeToken,
		"/revoke":                       h.ServeRevoke,
		"/oauth/register":               h.ServeRegister,
		"/oauth/authorize":              h.ServeAuthorize,
		"/oauth/google/callback":        h.ServeCallback,
		"/oauth/token":                  h.ServeToken,
		"/oauth/revoke":                 h.ServeRevoke,
	}
	for path, fn := range routes {
		mux.Handle(path, h.RateLimitMiddleware(fn))
	}
}
