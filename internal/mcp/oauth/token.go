package oauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/logging"
)

// ServeToken handles the token endpoint
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeOAuthError(w, ErrInvalidRequest("Failed to parse request"))
		return
	}

	var (
		resp     *TokenResponse
		oauthErr *OAuthError
	)
	switch grantType := r.PostFormValue("grant_type"); grantType {
	case "authorization_code":
		resp, oauthErr = h.exchangeAuthorizationCode(r)
	case "refresh_token":
		resp, oauthErr = h.exchangeRefreshToken(r)
	default:
		oauthErr = ErrUnsupportedGrantType(fmt.Sprintf("Grant type %q not supported", grantType))
	}

	if oauthErr != nil {
		h.writeOAuthError(w, oauthErr)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) exchangeAuthorizationCode(r *http.Request) (*TokenResponse, *OAuthError) {
	code := r.PostFormValue("code")
	redirectURI := r.PostFormValue("redirect_uri")
	if code == "" {
		return nil, ErrInvalidRequest("code is required")
	}

	authCode, err := h.flowStore.RedeemCode(code, h.now())
	if err != nil {
		h.logger.Warn("Authorization code rejected", logging.Err(err))
		return nil, ErrInvalidGrant("Invalid, expired or already used authorization code")
	}

	if _, oauthErr := h.authenticateClient(r, authCode.ClientID); oauthErr != nil {
		return nil, oauthErr
	}
	if redirectURI != authCode.RedirectURI {
		return nil, ErrInvalidGrant("redirect_uri does not match the authorization request")
	}

	if authCode.CodeChallenge != "" {
		verifier := r.PostFormValue("code_verifier")
		if verifier == "" {
			return nil, ErrInvalidRequest("code_verifier is required")
		}
		if err := ValidateCodeVerifier(verifier, authCode.CodeChallenge, authCode.CodeChallengeMethod); err != nil {
			return nil, ErrInvalidGrant(err.Error())
		}
	}

	return h.issueTokens(authCode.Grant)
}

func (h *Handler) exchangeRefreshToken(r *http.Request) (*TokenResponse, *OAuthError) {
	refreshToken := r.PostFormValue("refresh_token")
	if refreshToken == "" {
		return nil, ErrInvalidRequest("refresh_token is required")
	}

	grant, err := h.tokens.ConsumeRefreshToken(refreshToken, h.now())
	if err != nil {
		h.logger.Warn("Refresh token rejected", logging.Err(err))
		return nil, ErrInvalidGrant("Invalid or expired refresh token")
	}

	if _, oauthErr := h.authenticateClient(r, grant.ClientID); oauthErr != nil {
		return nil, oauthErr
	}

	if current := h.currentGoogleToken(r.Context(), grant); current != grant.GoogleToken {
		grant = grant.withGoogleToken(current)
	}
	if grant.GoogleToken != nil && !grant.GoogleToken.Valid() {
		if grant.GoogleToken.RefreshToken == "" || h.googleConfig == nil {
			h.metrics.RecordOAuthTokenRefresh(r.Context(), instrumentation.OAuthResultExpired)
			return nil, ErrInvalidGrant("Google authorization expired. Please re-authenticate.")
		}
		fresh, err := h.refreshGoogleToken(r.Context(), grant.GoogleToken)
		if err != nil {
			h.logger.Warn("Failed to refresh Google token", logging.UserHash(grant.Email), logging.Err(err))
			h.metrics.RecordOAuthTokenRefresh(r.Context(), instrumentation.OAuthResultFailure)
			return nil, ErrInvalidGrant("Google token refresh failed. Please re-authenticate.")
		}
		h.metrics.RecordOAuthTokenRefresh(r.Context(), instrumentation.OAuthResultSuccess)
		h.saveGoogleToken(r.Context(), grant.Email, fresh)
		grant = grant.withGoogleToken(fresh)
	}

	return h.issueTokens(grant)
}

// refreshGoogleToken uses the oauth2 token source, which keeps the old
// refresh token when Google does not rotate it.
func (h *Handler) refreshGoogleToken(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, h.httpClient)
	return h.googleConfig.TokenSource(ctx, tok).Token()
}

// authenticateClient identifies the client from HTTP Basic credentials or the
// form. Confidential clients must present their secret.
func (h *Handler) authenticateClient(r *http.Request, expectedClientID string) (*RegisteredClient, *OAuthError) {
	clientID, secret, hasBasic := r.BasicAuth()
	if !hasBasic {
		clientID = r.PostFormValue("client_id")
		secret = r.PostFormValue("client_secret")
	}
	if clientID == "" {
		clientID = expectedClientID
	}
	if clientID != expectedClientID {
		return nil, ErrInvalidGrant("Token was issued to another client")
	}

	client, err := h.clientStore.GetClient(clientID)
	if err != nil {
		return nil, ErrInvalidClient("Unknown client")
	}
	if client.IsPublic() {
		return client, nil
	}
	if secret == "" {
		return nil, ErrInvalidClient("Client authentication required")
	}
	if err := h.clientStore.ValidateClientSecret(clientID, secret); err != nil {
		h.logger.Warn("Client authentication failed", "client_id", clientID)
		return nil, ErrInvalidClient("Client authentication failed")
	}
	return client, nil
}

// issueTokens mints a bearer token with its session and a rotated refresh token.
func (h *Handler) issueTokens(grant *Grant) (*TokenResponse, *OAuthError) {
	now := h.now()

	accessToken, err := generateSecureToken(AccessTokenLength)
	if err != nil {
		return nil, ErrServerError("Failed to generate access token")
	}
	refreshToken, err := generateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, ErrServerError("Failed to generate refresh token")
	}

	expiresAt := now.Add(DefaultAccessTokenTTL)
	if grant.GoogleToken != nil && !grant.GoogleToken.Expiry.IsZero() && grant.GoogleToken.Expiry.After(now) {
		expiresAt = grant.GoogleToken.Expiry
	}

	if err := h.tokens.SaveAccessToken(accessToken, grant.session(expiresAt)); err != nil {
		return nil, ErrServerError("Failed to store access token")
	}
	if err := h.tokens.SaveRefreshToken(refreshToken, grant, now.Add(h.config.Security.RefreshTokenTTL)); err != nil {
		return nil, ErrServerError("Failed to store refresh token")
	}

	h.logger.Info("Issued access token",
		"client_id", grant.ClientID,
		logging.UserHash(grant.Email),
		"expires_at", expiresAt)

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(expiresAt.Sub(now).Seconds()),
		RefreshToken: refreshToken,
		Scope:        grant.Scope,
	}, nil
}

// ServeRevoke handles RFC 7009 token revocation. Unknown tokens are not an error.
func (h *Handler) ServeRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeOAuthError(w, ErrInvalidRequest("Failed to parse request"))
		return
	}
	token := r.PostFormValue("token")
	if token == "" {
		h.writeOAuthError(w, ErrInvalidRequest("token is required"))
		return
	}

	var revoked bool
	switch r.PostFormValue("token_type_hint") {
	case "refresh_token":
		revoked = h.tokens.DeleteRefreshToken(token) || h.tokens.DeleteAccessToken(token)
	default:
		revoked = h.tokens.DeleteAccessToken(token) || h.tokens.DeleteRefreshToken(token)
	}
	h.logger.Info("Token revocation", "revoked", revoked)

	h.setSecurityHeaders(w)
	w.WriteHeader(http.StatusOK)
}
