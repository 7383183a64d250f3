package oauth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// ServeRegister handles Dynamic Client Registration (RFC 7591)
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientIP := getClientIP(r, h.config.RateLimit.TrustProxy)

	if !h.config.Security.AllowPublicClientRegistration {
		if h.config.Security.RegistrationAccessToken == "" {
			h.logger.Error("Client registration disabled: no registration access token configured")
			h.writeOAuthError(w, ErrServerError("Client registration is not configured on this server"))
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			h.logger.Warn("Client registration rejected: missing registration token", "client_ip", clientIP)
			w.Header().Set("WWW-Authenticate", "Bearer")
			h.writeOAuthError(w, ErrInvalidToken("Registration access token required"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.config.Security.RegistrationAccessToken)) != 1 {
			h.logger.Warn("Client registration rejected: invalid registration token", "client_ip", clientIP)
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			h.writeOAuthError(w, ErrInvalidToken("Invalid registration access token"))
			return
		}
	}

	var req ClientRegistrationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		h.writeOAuthError(w, ErrInvalidRequest("Failed to parse registration request"))
		return
	}

	if len(req.RedirectURIs) == 0 {
		h.writeOAuthError(w, ErrInvalidRedirectURI("At least one redirect_uri is required"))
		return
	}
	for _, uri := range req.RedirectURIs {
		if err := validateRedirectURI(uri, h.config.Security.AllowCustomRedirectSchemes); err != nil {
			h.writeOAuthError(w, ErrInvalidRedirectURI(err.Error()))
			return
		}
	}

	if req.TokenEndpointAuthMethod != "" && !slices.Contains(SupportedTokenAuthMethods, req.TokenEndpointAuthMethod) {
		h.writeOAuthError(w, NewOAuthError("invalid_client_metadata",
			fmt.Sprintf("Unsupported token_endpoint_auth_method: %s", req.TokenEndpointAuthMethod),
			http.StatusBadRequest))
		return
	}

	if err := h.clientStore.CheckIPLimit(clientIP, h.config.Security.MaxClientsPerIP); err != nil {
		h.logger.Warn("Client registration limit exceeded",
			"client_ip", clientIP,
			"limit", h.config.Security.MaxClientsPerIP)
		h.writeOAuthError(w, NewOAuthError("invalid_request",
			fmt.Sprintf("Client registration limit exceeded for your IP address (%d max)", h.config.Security.MaxClientsPerIP),
			http.StatusTooManyRequests))
		return
	}

	resp, err := h.clientStore.RegisterClient(&req, clientIP)
	if err != nil {
		h.logger.Error("Failed to register client", "error", err)
		h.writeOAuthError(w, ErrServerError("Failed to register client"))
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// validateRedirectURI applies the OAuth 2.0 Security BCP rules: absolute URI,
// no fragment, no dangerous scheme, plain http only for loopback hosts.
func validateRedirectURI(uri string, allowCustomSchemes bool) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri format: %s", uri)
	}
	if parsed.Fragment != "" {
		return fmt.Errorf("redirect_uri must not contain fragments: %s", uri)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("redirect_uri must be absolute: %s", uri)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if slices.Contains(DangerousSchemes, scheme) {
		return fmt.Errorf("redirect_uri scheme '%s' is not allowed", parsed.Scheme)
	}

	switch scheme {
	case "https":
		if parsed.Host == "" {
			return fmt.Errorf("redirect_uri must have a host: %s", uri)
		}
	case "http":
		if parsed.Host == "" {
			return fmt.Errorf("redirect_uri must have a host: %s", uri)
		}
		if !isLoopback(parsed.Hostname()) {
			return fmt.Errorf("redirect_uri must use HTTPS unless it targets a loopback address: %s", uri)
		}
	default:
		if !allowCustomSchemes {
			return fmt.Errorf("custom redirect_uri schemes are not allowed: %s", parsed.Scheme)
		}
	}
	return nil
}

func isLoopback(hostname string) bool {
	hostname = strings.Trim(hostname, "[]")
	return slices.Contains(LoopbackAddresses, hostname) || strings.HasPrefix(hostname, "127.")
}
