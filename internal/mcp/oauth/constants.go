package oauth

import "time"

// Token and code lifetimes
const (
	// DefaultRefreshTokenTTL is the default time-to-live for refresh tokens (90 days)
	DefaultRefreshTokenTTL = 90 * 24 * time.Hour

	// DefaultAuthorizationCodeTTL is how long authorization codes and pending
	// authorizations are valid
	DefaultAuthorizationCodeTTL = 10 * time.Minute

	// DefaultAccessTokenTTL is used when Google does not report an expiry
	DefaultAccessTokenTTL = 1 * time.Hour

	// DefaultCleanupInterval is how often expired entries are removed
	DefaultCleanupInterval = 1 * time.Minute

	// InactiveLimiterWindow is the idle time after which a per-IP limiter is dropped
	InactiveLimiterWindow = 10 * time.Minute
)

// Client and rate limit defaults
const (
	DefaultMaxClientsPerIP = 10

	// DefaultRateLimitRate is requests per second per IP
	DefaultRateLimitRate = 10

	DefaultRateLimitBurst = 20

	DefaultTokenEndpointAuthMethod = "client_secret_basic"
)

// PKCE and generated token sizes (bytes of entropy before encoding)
const (
	MinCodeVerifierLength = 43
	MaxCodeVerifierLength = 128

	ClientIDTokenLength     = 32
	ClientSecretTokenLength = 48
	AccessTokenLength       = 48
	RefreshTokenLength      = 48
	StateTokenLength        = 32
)

// Well-known paths
const (
	ProtectedResourceMetadataPath   = "/.well-known/oauth-protected-resource"
	AuthorizationServerMetadataPath = "/.well-known/oauth-authorization-server"
	CallbackPath                    = "/callback"
)

// StaticClientName is the session name given to the static bearer token client.
const StaticClientName = "puch-client"

const (
	authMethodNone  = "none"
	authMethodBasic = "client_secret_basic"
	authMethodPost  = "client_secret_post"

	challengeS256  = "S256"
	challengePlain = "plain"
)

var (
	// DangerousSchemes can never be used as redirect URI schemes
	DangerousSchemes = []string{"javascript", "data", "file", "vbscript", "about"}

	// LoopbackAddresses are hosts allowed to use plain http redirect URIs
	LoopbackAddresses = []string{"localhost", "127.0.0.1", "::1", "[::1]"}

	SupportedTokenAuthMethods = []string{authMethodBasic, authMethodPost, authMethodNone}

	DefaultGrantTypes = []string{"authorization_code", "refresh_token"}

	DefaultResponseTypes = []string{"code"}

	SupportedCodeChallengeMethods = []string{challengeS256, challengePlain}
)
