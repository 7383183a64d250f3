package oauth

import (
	"log/slog"
	"sync"
	"time"
)

// FlowStore holds in-flight authorizations and issued authorization codes.
type FlowStore struct {
	mu      sync.Mutex
	pending map[string]*PendingAuthorization // Google state -> pending authorization
	codes   map[string]*AuthorizationCode
	logger  *slog.Logger
}

// NewFlowStore creates a new flow store
func NewFlowStore(logger *slog.Logger) *FlowStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowStore{
		pending: make(map[string]*PendingAuthorization),
		codes:   make(map[string]*AuthorizationCode),
		logger:  logger,
	}
}

// SavePending stores p under its Google state.
func (s *FlowStore) SavePending(p *PendingAuthorization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[p.GoogleState] = p
	s.logger.Debug("Saved pending authorization",
		"client_id", p.ClientID,
		"expires_at", p.ExpiresAt)
}

// TakePending removes and returns the pending authorization for googleState.
func (s *FlowStore) TakePending(googleState string, now time.Time) (*PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[googleState]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.pending, googleState)
	if now.After(p.ExpiresAt) {
		return nil, ErrExpired
	}
	return p, nil
}

// SaveCode stores an authorization code.
func (s *FlowStore) SaveCode(c *AuthorizationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[c.Code] = c
}

// RedeemCode marks code as used and returns it. A second redemption returns
// ErrUsed; the entry is kept until expiry so replays stay detectable.
func (s *FlowStore) RedeemCode(code string, now time.Time) (*AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	if now.After(c.ExpiresAt) {
		delete(s.codes, code)
		return nil, ErrExpired
	}
	if c.Used {
		s.logger.Warn("Authorization code replay detected", "client_id", c.ClientID)
		return nil, ErrUsed
	}
	c.Used = true

	redeemed := *c
	return &redeemed, nil
}

// CleanupExpired drops expired pending authorizations and codes.
func (s *FlowStore) CleanupExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for state, p := range s.pending {
		if now.After(p.ExpiresAt) {
			delete(s.pending, state)
		}
	}
	for code, c := range s.codes {
		if now.After(c.ExpiresAt) {
			delete(s.codes, code)
		}
	}
}
