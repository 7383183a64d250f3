package oauth

import (
	"context"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	"golang.org/x/oauth2"

	"github.com/Akasxh/mcp-server-daily/internal/logging"
)

// newGoogleTokenStore returns the configured store, or an in-memory one the
// handler owns and stops on Close.
func newGoogleTokenStore(configured storage.TokenStore) (storage.TokenStore, func()) {
	if configured != nil {
		return configured, func() {}
	}
	store := memory.New()
	return store, store.Stop
}

// GoogleToken returns the latest Google token stored for the account.
func (h *Handler) GoogleToken(ctx context.Context, email string) (*oauth2.Token, error) {
	return h.googleTokens.GetToken(ctx, email)
}

func (h *Handler) saveGoogleToken(ctx context.Context, email string, tok *oauth2.Token) {
	if email == "" || tok == nil {
		return
	}
	if err := h.googleTokens.SaveToken(ctx, email, tok); err != nil {
		h.logger.Warn("Failed to store Google token", logging.UserHash(email), logging.Err(err))
	}
}

// currentGoogleToken picks whichever of the grant's token and the stored
// token for the same account expires later. Several grants of one account
// then share a single refresh.
func (h *Handler) currentGoogleToken(ctx context.Context, g *Grant) *oauth2.Token {
	if g.Email == "" {
		return g.GoogleToken
	}
	stored, err := h.googleTokens.GetToken(ctx, g.Email)
	if err != nil || stored == nil {
		return g.GoogleToken
	}
	if g.GoogleToken == nil || stored.Expiry.After(g.GoogleToken.Expiry) {
		return stored
	}
	return g.GoogleToken
}

// parseCallback reads the provider redirect. A non-nil error means Google
// reported a failure that must be forwarded to the client.
func parseCallback(q interface{ Get(string) string }) (*mcpoauth.CallbackResult, error) {
	result := mcpoauth.ParseCallbackQuery(q.Get("code"), q.Get("state"), q.Get("error"),
		q.Get("error_description"), q.Get("error_uri"))
	return result, result.Err()
}
