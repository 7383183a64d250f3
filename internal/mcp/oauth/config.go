package oauth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// Config holds the Auth Gateway configuration
type Config struct {
	// Resource is the public base URL of this server, e.g. https://mcp.example.com.
	// It must be HTTPS unless the host is a loopback address.
	Resource string

	// SupportedScopes are the Google API scopes requested at consent time.
	SupportedScopes []string

	Google GoogleConfig

	// StaticToken is the pre-shared bearer token of the Puch AI client.
	StaticToken string

	// StaticGoogleToken is attached to static-token sessions so they can
	// call Google tools without an interactive login.
	StaticGoogleToken string

	RateLimit RateLimitConfig

	Security SecurityConfig

	// CleanupInterval is how often expired state is swept (default: 1 minute)
	CleanupInterval time.Duration

	// GoogleTokenStore keeps the latest Google token per account email.
	// Defaults to the mcp-oauth in-memory store.
	GoogleTokenStore storage.TokenStore

	// HTTPClient is used for Google token exchange and userinfo.
	HTTPClient *http.Client

	Logger *slog.Logger

	// Metrics is optional.
	Metrics *instrumentation.Metrics
}

// GoogleConfig holds the Google OAuth client credentials.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string

	// Endpoint overrides the Google authorization endpoints (tests).
	Endpoint oauth2.Endpoint

	// UserInfoURL overrides the Google API base used for userinfo (tests).
	UserInfoURL string
}

// RateLimitConfig holds per-IP rate limiting settings
type RateLimitConfig struct {
	// Rate is requests per second per IP; 0 disables limiting.
	Rate int

	Burst int

	// TrustProxy honours X-Forwarded-For and X-Real-IP. Only enable behind a trusted proxy.
	TrustProxy bool
}

// SecurityConfig holds security related settings
type SecurityConfig struct {
	// AllowPublicClientRegistration allows /register without a registration token.
	AllowPublicClientRegistration bool

	// RegistrationAccessToken is required as a bearer token on /register
	// unless public registration is enabled.
	RegistrationAccessToken string

	// MaxClientsPerIP caps registrations per client IP (default: 10)
	MaxClientsPerIP int

	// RefreshTokenTTL is the lifetime of issued refresh tokens (default: 90 days)
	RefreshTokenTTL time.Duration

	// AllowCustomRedirectSchemes permits native app schemes such as myapp://cb.
	AllowCustomRedirectSchemes bool
}
