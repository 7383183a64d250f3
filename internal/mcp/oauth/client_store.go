package oauth

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ClientStore manages dynamically registered OAuth clients
type ClientStore struct {
	mu           sync.RWMutex
	clients      map[string]*RegisteredClient
	clientsPerIP map[string]int
	logger       *slog.Logger
}

// NewClientStore creates a new client store
func NewClientStore(logger *slog.Logger) *ClientStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientStore{
		clients:      make(map[string]*RegisteredClient),
		clientsPerIP: make(map[string]int),
		logger:       logger,
	}
}

// CheckIPLimit returns an error when ip has registered max clients already.
// A max of zero or less disables the limit.
func (s *ClientStore) CheckIPLimit(ip string, max int) error {
	if max <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if count := s.clientsPerIP[ip]; count >= max {
		return fmt.Errorf("client registration limit reached for IP %s (%d/%d)", ip, count, max)
	}
	return nil
}

// RegisterClient registers a new client. Confidential clients get a secret
// which is returned once and stored only as a bcrypt hash.
func (s *ClientStore) RegisterClient(req *ClientRegistrationRequest, clientIP string) (*ClientRegistrationResponse, error) {
	clientID, err := generateSecureToken(ClientIDTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate client ID: %w", err)
	}

	authMethod := req.TokenEndpointAuthMethod
	if authMethod == "" {
		authMethod = DefaultTokenEndpointAuthMethod
	}
	if !slices.Contains(SupportedTokenAuthMethods, authMethod) {
		return nil, fmt.Errorf("unsupported token_endpoint_auth_method: %s", authMethod)
	}

	var secret, secretHash string
	if authMethod != authMethodNone {
		secret, err = generateSecureToken(ClientSecretTokenLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate client secret: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash client secret: %w", err)
		}
		secretHash = string(hash)
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = DefaultGrantTypes
	}
	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = DefaultResponseTypes
	}

	now := time.Now().Unix()
	client := &RegisteredClient{
		ClientID:                clientID,
		ClientSecretHash:        secretHash,
		ClientIDIssuedAt:        now,
		RedirectURIs:            slices.Clone(req.RedirectURIs),
		TokenEndpointAuthMethod: authMethod,
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		ClientName:              req.ClientName,
		Scope:                   req.Scope,
	}

	s.mu.Lock()
	s.clients[clientID] = client
	if clientIP != "" {
		s.clientsPerIP[clientIP]++
	}
	fromIP := s.clientsPerIP[clientIP]
	s.mu.Unlock()

	s.logger.Info("Registered new OAuth client",
		"client_id", clientID,
		"client_name", req.ClientName,
		"auth_method", authMethod,
		"clients_from_ip", fromIP)

	return &ClientRegistrationResponse{
		ClientID:                clientID,
		ClientSecret:            secret,
		ClientIDIssuedAt:        now,
		RedirectURIs:            client.RedirectURIs,
		TokenEndpointAuthMethod: authMethod,
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		ClientName:              req.ClientName,
		Scope:                   req.Scope,
	}, nil
}

// GetClient retrieves a registered client by ID
func (s *ClientStore) GetClient(clientID string) (*RegisteredClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	return client, nil
}

// ValidateClientSecret checks secret against the stored bcrypt hash
func (s *ClientStore) ValidateClientSecret(clientID, secret string) error {
	client, err := s.GetClient(clientID)
	if err != nil {
		return err
	}
	if client.ClientSecretHash == "" {
		return fmt.Errorf("client has no secret")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.ClientSecretHash), []byte(secret)); err != nil {
		return fmt.Errorf("invalid client secret")
	}
	return nil
}

// ValidateRedirectURI checks that redirectURI was registered by the client
func (s *ClientStore) ValidateRedirectURI(clientID, redirectURI string) error {
	client, err := s.GetClient(clientID)
	if err != nil {
		return err
	}
	if !slices.Contains(client.RedirectURIs, redirectURI) {
		return fmt.Errorf("redirect_uri not registered for this client")
	}
	return nil
}

// Count returns the number of registered clients.
func (s *ClientStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
