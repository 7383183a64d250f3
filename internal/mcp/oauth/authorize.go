package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/logging"
)

// ServeAuthorize validates the client request, records it and redirects the
// user to Google consent.
func (h *Handler) ServeAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.googleConfig == nil {
		h.writeOAuthError(w, ErrServerError("Google OAuth is not configured on this server"))
		return
	}

	query := r.URL.Query()
	clientID := query.Get("client_id")
	redirectURI := query.Get("redirect_uri")
	state := query.Get("state")
	scope := query.Get("scope")
	codeChallenge := query.Get("code_challenge")
	codeChallengeMethod := query.Get("code_challenge_method")

	if rt := query.Get("response_type"); rt != "code" {
		h.writeOAuthError(w, ErrUnsupportedResponseType("response_type must be code"))
		return
	}
	if clientID == "" {
		h.writeOAuthError(w, ErrInvalidRequest("client_id is required"))
		return
	}
	if redirectURI == "" {
		h.writeOAuthError(w, ErrInvalidRequest("redirect_uri is required"))
		return
	}
	if state == "" {
		h.writeOAuthError(w, ErrInvalidRequest("state parameter is required for CSRF protection"))
		return
	}

	client, err := h.clientStore.GetClient(clientID)
	if err != nil {
		h.logger.Warn("Unknown client_id on authorize", "client_id", clientID)
		h.writeOAuthError(w, ErrInvalidClient("Invalid client_id"))
		return
	}
	if err := h.clientStore.ValidateRedirectURI(clientID, redirectURI); err != nil {
		h.logger.Warn("Unregistered redirect_uri", "client_id", clientID)
		h.writeOAuthError(w, ErrInvalidRequest("redirect_uri not registered for this client"))
		return
	}

	// Errors from here on are reported to the validated redirect URI.
	if err := h.validateScopes(scope); err != nil {
		redirectWithError(w, r, redirectURI, state, ErrInvalidScope(err.Error()))
		return
	}

	if codeChallenge == "" && client.IsPublic() {
		redirectWithError(w, r, redirectURI, state, ErrInvalidRequest("PKCE is required for public clients"))
		return
	}
	if codeChallenge != "" {
		if codeChallengeMethod == "" {
			codeChallengeMethod = challengeS256
		}
		if !slices.Contains(SupportedCodeChallengeMethods, codeChallengeMethod) {
			redirectWithError(w, r, redirectURI, state, ErrInvalidRequest("Invalid code_challenge_method"))
			return
		}
	}

	googleState, err := generateSecureToken(StateTokenLength)
	if err != nil {
		h.logger.Error("Failed to generate state", "error", err)
		h.writeOAuthError(w, ErrServerError("Failed to generate state"))
		return
	}

	h.flowStore.SavePending(&PendingAuthorization{
		GoogleState:         googleState,
		ClientState:         state,
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		Scope:               scope,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		ExpiresAt:           h.now().Add(DefaultAuthorizationCodeTTL),
	})

	authURL := h.googleConfig.AuthCodeURL(googleState,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)

	h.logger.Info("Redirecting to Google for authorization", "client_id", clientID)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// ServeCallback completes the Google consent, binds a session to a fresh
// authorization code and sends the user back to the client.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.googleConfig == nil {
		h.writeOAuthError(w, ErrServerError("Google OAuth is not configured on this server"))
		return
	}

	query := r.URL.Query()
	pending, err := h.flowStore.TakePending(query.Get("state"), h.now())
	if err != nil {
		h.logger.Warn("Invalid or expired callback state", logging.Err(err))
		h.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultFailure)
		h.setSecurityHeaders(w)
		http.Error(w, "Invalid or expired state", http.StatusBadRequest)
		return
	}

	callback, err := parseCallback(query)
	if err != nil {
		h.logger.Warn("Google OAuth error",
			"error", callback.Error,
			"description", callback.ErrorDescription,
			"silent_auth", mcpoauth.IsSilentAuthError(err),
			"client_id", pending.ClientID)
		h.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultFailure)
		redirectWithError(w, r, pending.RedirectURI, pending.ClientState,
			NewOAuthError(callback.Error, callback.ErrorDescription, http.StatusBadRequest))
		return
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, h.httpClient)
	googleToken, err := h.googleConfig.Exchange(ctx, callback.Code)
	if err != nil {
		h.logger.Error("Failed to exchange code for Google token",
			"client_id", pending.ClientID,
			logging.Err(err))
		h.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultFailure)
		redirectWithError(w, r, pending.RedirectURI, pending.ClientState,
			ErrServerError(fmt.Sprintf("Google token exchange failed: %v", err)))
		return
	}

	userInfo, err := h.fetchUserInfo(ctx, googleToken)
	if err != nil {
		h.logger.Error("Failed to fetch Google user info", logging.Err(err))
		h.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultFailure)
		redirectWithError(w, r, pending.RedirectURI, pending.ClientState,
			ErrServerError("Failed to fetch user information"))
		return
	}

	h.saveGoogleToken(r.Context(), userInfo.Email, googleToken)

	code, err := generateSecureToken(StateTokenLength)
	if err != nil {
		h.logger.Error("Failed to generate authorization code", logging.Err(err))
		h.writeOAuthError(w, ErrServerError("Failed to generate authorization code"))
		return
	}

	h.flowStore.SaveCode(&AuthorizationCode{
		Code:                code,
		ClientID:            pending.ClientID,
		RedirectURI:         pending.RedirectURI,
		Scope:               pending.Scope,
		CodeChallenge:       pending.CodeChallenge,
		CodeChallengeMethod: pending.CodeChallengeMethod,
		Grant: &Grant{
			Name:        userInfo.Name,
			Email:       userInfo.Email,
			ClientID:    pending.ClientID,
			Scope:       pending.Scope,
			GoogleToken: googleToken,
		},
		ExpiresAt: h.now().Add(DefaultAuthorizationCodeTTL),
	})

	h.logger.Info("Google OAuth successful",
		logging.UserHash(userInfo.Email),
		"client_id", pending.ClientID)
	h.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultSuccess)

	redirectTo, err := url.Parse(pending.RedirectURI)
	if err != nil {
		h.writeOAuthError(w, ErrServerError("Invalid redirect URI"))
		return
	}
	q := redirectTo.Query()
	q.Set("code", code)
	q.Set("state", pending.ClientState)
	redirectTo.RawQuery = q.Encode()

	http.Redirect(w, r, redirectTo.String(), http.StatusFound)
}

// fetchUserInfo reads the name and email of the consenting user.
func (h *Handler) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*googleoauth2.Userinfo, error) {
	opts := []option.ClientOption{
		option.WithHTTPClient(h.googleConfig.Client(ctx, tok)),
	}
	if h.config.Google.UserInfoURL != "" {
		opts = append(opts, option.WithEndpoint(h.config.Google.UserInfoURL))
	}

	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("google user info has no email")
	}
	return info, nil
}

// validateScopes only checks Google API scopes. Protocol scopes such as
// mcp:tools are accepted and ignored.
func (h *Handler) validateScopes(scope string) error {
	for _, requested := range strings.Fields(scope) {
		if !strings.HasPrefix(requested, "https://") {
			continue
		}
		if !slices.Contains(h.config.SupportedScopes, requested) {
			return fmt.Errorf("unsupported Google API scope: %s", requested)
		}
	}
	return nil
}

func redirectWithError(w http.ResponseWriter, r *http.Request, redirectURI, state string, e *OAuthError) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, e.Description, e.Status)
		return
	}
	q := u.Query()
	q.Set("error", e.Code)
	if e.Description != "" {
		q.Set("error_description", e.Description)
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}
