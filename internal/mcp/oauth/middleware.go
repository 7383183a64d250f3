package oauth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// ErrInvalidBearer is returned by Authenticate for unknown tokens.
var ErrInvalidBearer = errors.New("invalid bearer token")

// Authenticate resolves a bearer token to its session. The static client
// token is checked first.
func (h *Handler) Authenticate(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidBearer
	}

	if static := h.config.StaticToken; static != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(static)) == 1 {
		return Session{
			Name:        StaticClientName,
			AccessToken: h.config.StaticGoogleToken,
			ClientID:    StaticClientName,
		}, nil
	}

	session, err := h.tokens.LookupAccessToken(token, h.now())
	switch {
	case errors.Is(err, ErrExpired):
		return Session{}, ErrExpired
	case err != nil:
		return Session{}, ErrInvalidBearer
	}
	return session, nil
}

// RequireBearer rejects requests without a valid bearer token and stores the
// caller's Session in the request context.
func (h *Handler) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			h.metrics.RecordOAuthAuth(r.Context(), instrumentation.OAuthResultFailure)
			h.challenge(w, "", "Missing or malformed Authorization header")
			return
		}

		session, err := h.Authenticate(token)
		if err != nil {
			result := instrumentation.OAuthResultFailure
			desc := "The access token is invalid"
			if errors.Is(err, ErrExpired) {
				result = instrumentation.OAuthResultExpired
				desc = "The access token expired"
			}
			h.metrics.RecordOAuthAuth(r.Context(), result)
			h.challenge(w, "invalid_token", desc)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// challenge writes a 401 pointing the client at the protected resource metadata.
func (h *Handler) challenge(w http.ResponseWriter, code, description string) {
	header := fmt.Sprintf(`Bearer resource_metadata="%s"`, h.ResourceMetadataURL())
	if code != "" {
		header += fmt.Sprintf(`, error="%s", error_description="%s"`, code, description)
	}
	w.Header().Set("WWW-Authenticate", header)

	if code == "" {
		code = "invalid_request"
	}
	h.writeOAuthError(w, NewOAuthError(code, description, http.StatusUnauthorized))
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	token, _ := bearerToken(r)
	return token
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
