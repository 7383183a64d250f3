package oauth

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type refreshEntry struct {
	grant     *Grant
	expiresAt time.Time
}

// TokenStore maps issued bearer tokens to sessions and refresh tokens to grants.
// It is safe for concurrent use.
type TokenStore struct {
	mu       sync.RWMutex
	sessions map[string]Session       // access token -> session
	refresh  map[string]*refreshEntry // refresh token -> grant
	logger   *slog.Logger
}

// NewTokenStore creates an empty in-memory token store
func NewTokenStore(logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{
		sessions: make(map[string]Session),
		refresh:  make(map[string]*refreshEntry),
		logger:   logger,
	}
}

// SaveAccessToken maps an issued access token to its session.
func (s *TokenStore) SaveAccessToken(token string, session Session) error {
	if token == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session
	return nil
}

// LookupAccessToken returns the session for token. Expired tokens are removed
// and reported as ErrExpired.
func (s *TokenStore) LookupAccessToken(token string, now time.Time) (Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrNotFound
	}
	if session.Expired(now) {
		s.DeleteAccessToken(token)
		return Session{}, ErrExpired
	}
	return session, nil
}

// DeleteAccessToken removes an access token. Unknown tokens are ignored.
func (s *TokenStore) DeleteAccessToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	return ok
}

// SaveRefreshToken stores a refresh token for grant until expiresAt.
func (s *TokenStore) SaveRefreshToken(token string, grant *Grant, expiresAt time.Time) error {
	if token == "" {
		return fmt.Errorf("refresh token cannot be empty")
	}
	if grant == nil {
		return fmt.Errorf("grant cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token] = &refreshEntry{grant: grant, expiresAt: expiresAt}
	return nil
}

// ConsumeRefreshToken removes token and returns its grant. A refresh token is
// valid for exactly one exchange.
func (s *TokenStore) ConsumeRefreshToken(token string, now time.Time) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.refresh[token]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.refresh, token)

	if now.After(entry.expiresAt) {
		return nil, ErrExpired
	}
	return entry.grant, nil
}

// DeleteRefreshToken removes a refresh token. Unknown tokens are ignored.
func (s *TokenStore) DeleteRefreshToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.refresh[token]
	delete(s.refresh, token)
	return ok
}

// CleanupExpired drops expired sessions and refresh tokens.
func (s *TokenStore) CleanupExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions, refresh int
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			sessions++
		}
	}
	for token, entry := range s.refresh {
		if now.After(entry.expiresAt) {
			delete(s.refresh, token)
			refresh++
		}
	}

	if sessions+refresh > 0 {
		s.logger.Debug("Cleaned up expired tokens",
			"access_tokens", sessions,
			"refresh_tokens", refresh)
	}
}

// Stats returns the number of live entries.
func (s *TokenStore) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"access_tokens":  len(s.sessions),
		"refresh_tokens": len(s.refresh),
	}
}
