package oauth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Session is the identity attached to every tool call of an authenticated
// client. It is created when a bearer token is issued and never modified.
type Session struct {
	Name  string
	Email string

	// AccessToken is the Google access token. It may be empty for the static client.
	AccessToken string

	ClientID  string
	ExpiresAt time.Time
}

// HasGoogleToken reports whether Google-backed tools can be called.
func (s Session) HasGoogleToken() bool {
	return s.AccessToken != ""
}

// Expired reports whether the session is past its expiry. A zero expiry never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Grant is the result of one Google consent. Refresh tokens point at a grant;
// every access token minted from it gets its own Session.
type Grant struct {
	Name        string
	Email       string
	ClientID    string
	Scope       string
	GoogleToken *oauth2.Token
}

func (g *Grant) session(expiresAt time.Time) Session {
	s := Session{
		Name:      g.Name,
		Email:     g.Email,
		ClientID:  g.ClientID,
		ExpiresAt: expiresAt,
	}
	if g.GoogleToken != nil {
		s.AccessToken = g.GoogleToken.AccessToken
	}
	return s
}

// withGoogleToken returns a copy of the grant holding tok. Grants are shared
// between goroutines and are replaced rather than mutated.
func (g *Grant) withGoogleToken(tok *oauth2.Token) *Grant {
	c := *g
	c.GoogleToken = tok
	return &c
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by RequireBearer or WithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
