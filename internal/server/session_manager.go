package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/logging"
	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
)

// DefaultSessionTimeout is how long an idle session is remembered.
const DefaultSessionTimeout = 24 * time.Hour

const sessionCleanupInterval = 10 * time.Minute

// sessionInfo tracks session metadata for cleanup
type sessionInfo struct {
	account    string
	lastAccess time.Time
}

// SessionIDManager tracks the callers of the HTTP transports. A session ID
// is the SHA-256 of the bearer token, so the same token always maps to the
// same session and the token itself is never stored.
type SessionIDManager struct {
	sessions       map[string]*sessionInfo
	mu             sync.RWMutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
	metrics        *instrumentation.Metrics
	logger         *slog.Logger
}

// NewSessionIDManager creates a manager that forgets sessions idle for
// longer than timeout. metrics may be nil.
func NewSessionIDManager(timeout time.Duration, metrics *instrumentation.Metrics, logger *slog.Logger) *SessionIDManager {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}

	m := &SessionIDManager{
		sessions:       make(map[string]*sessionInfo),
		cleanupTicker:  time.NewTicker(sessionCleanupInterval),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		metrics:        metrics,
		logger:         logger,
	}

	go m.cleanupLoop()

	return m
}

// ErrNoAuthorizationHeader is returned when no Authorization header is provided
var ErrNoAuthorizationHeader = errors.New("no authorization header provided")

// ResolveSessionID derives the session ID from the request's bearer token.
func (m *SessionIDManager) ResolveSessionID(r *http.Request) (string, error) {
	token := oauth.BearerToken(r)
	if token == "" {
		return "", ErrNoAuthorizationHeader
	}
	return sessionID(token), nil
}

// ResolveSessionIdManager lets the streamable HTTP transport issue the
// token-derived session ID on initialize and reject session IDs that belong
// to another token.
func (m *SessionIDManager) ResolveSessionIdManager(r *http.Request) mcpserver.SessionIdManager {
	id, err := m.ResolveSessionID(r)
	if err != nil {
		return &mcpserver.StatelessSessionIdManager{}
	}
	return &tokenSession{manager: m, id: id}
}

// tokenSession is the mcp-go view of one caller's session.
type tokenSession struct {
	manager *SessionIDManager
	id      string
}

func (t *tokenSession) Generate() string {
	return t.id
}

func (t *tokenSession) Validate(sessionID string) (isTerminated bool, err error) {
	if sessionID != t.id {
		return false, fmt.Errorf("session ID does not belong to this bearer token")
	}
	return false, nil
}

// Terminate forgets the session. A later initialize with the same token
// starts it again under the same ID.
func (t *tokenSession) Terminate(sessionID string) (isNotAllowed bool, err error) {
	if sessionID != t.id {
		return true, nil
	}
	t.manager.RemoveSession(sessionID)
	return false, nil
}

// Track records the authenticated caller of each request. It must run after
// RequireBearer so the session is in the request context.
func (m *SessionIDManager) Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := m.ResolveSessionID(r); err == nil {
			account := "unknown"
			if session, ok := oauth.SessionFromContext(r.Context()); ok {
				account = session.Email
				if account == "" {
					account = session.Name
				}
			}
			if m.touch(id, account) {
				m.metrics.SessionStarted(r.Context())
				m.logger.Debug("Session started", logging.UserHash(account))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// touch updates the session and reports whether it is new.
func (m *SessionIDManager) touch(id, account string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.sessions[id]; ok {
		info.account = account
		info.lastAccess = time.Now()
		return false
	}
	m.sessions[id] = &sessionInfo{account: account, lastAccess: time.Now()}
	return true
}

// GetAccountForSession returns the account of a session, or "" if unknown.
func (m *SessionIDManager) GetAccountForSession(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if info, ok := m.sessions[id]; ok {
		return info.account
	}
	return ""
}

// RemoveSession removes a session from the manager
func (m *SessionIDManager) RemoveSession(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.metrics.SessionEnded(context.Background())
	}
}

// ListSessions returns the active session IDs, sorted.
func (m *SessionIDManager) ListSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions
}

// Count returns the number of active sessions.
func (m *SessionIDManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// expire removes sessions idle since before now minus the timeout.
func (m *SessionIDManager) expire(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, info := range m.sessions {
		if now.Sub(info.lastAccess) > m.sessionTimeout {
			delete(m.sessions, id)
			expired++
		}
	}
	return expired
}

func (m *SessionIDManager) cleanupLoop() {
	for {
		select {
		case now := <-m.cleanupTicker.C:
			if n := m.expire(now); n > 0 {
				for i := 0; i < n; i++ {
					m.metrics.SessionEnded(context.Background())
				}
				m.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (m *SessionIDManager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}

func sessionID(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
