package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
)

func TestSessionIDManager_ResolveSessionID(t *testing.T) {
	m := NewSessionIDManager(time.Hour, nil, discardLogger())
	t.Cleanup(m.Stop)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	_, err := m.ResolveSessionID(req)
	assert.ErrorIs(t, err, ErrNoAuthorizationHeader)

	req.Header.Set("Authorization", "Bearer abc")
	first, err := m.ResolveSessionID(req)
	require.NoError(t, err)
	second, err := m.ResolveSessionID(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotContains(t, first, "abc")

	req.Header.Set("Authorization", "Bearer other")
	third, err := m.ResolveSessionID(req)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestSessionIDManager_ResolveSessionIdManager(t *testing.T) {
	m := NewSessionIDManager(time.Hour, nil, discardLogger())
	t.Cleanup(m.Stop)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	assert.IsType(t, &mcpserver.StatelessSessionIdManager{}, m.ResolveSessionIdManager(req))

	req.Header.Set("Authorization", "Bearer abc")
	ids := m.ResolveSessionIdManager(req)
	id := ids.Generate()
	assert.Equal(t, sessionID("abc"), id)

	terminated, err := ids.Validate(id)
	require.NoError(t, err)
	assert.False(t, terminated)

	_, err = ids.Validate(sessionID("other"))
	assert.Error(t, err)

	notAllowed, err := ids.Terminate(sessionID("other"))
	require.NoError(t, err)
	assert.True(t, notAllowed)

	notAllowed, err = ids.Terminate(id)
	require.NoError(t, err)
	assert.False(t, notAllowed)
}

func TestSessionIDManager_Track(t *testing.T) {
	m := NewSessionIDManager(time.Hour, nil, discardLogger())
	t.Cleanup(m.Stop)

	called := 0
	handler := m.Track(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called++ }))

	for _, email := range []string{"alice@example.com", "alice@example.com"} {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer alice-token")
		req = req.WithContext(oauth.WithSession(req.Context(), oauth.Session{Email: email}))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	// no bearer: passed through untracked
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/mcp", nil))

	assert.Equal(t, 3, called)
	require.Equal(t, []string{sessionID("alice-token")}, m.ListSessions())
	assert.Equal(t, "alice@example.com", m.GetAccountForSession(sessionID("alice-token")))

	m.RemoveSession(sessionID("alice-token"))
	assert.Zero(t, m.Count())
	assert.Empty(t, m.GetAccountForSession(sessionID("alice-token")))
}

func TestSessionIDManager_Expire(t *testing.T) {
	m := NewSessionIDManager(time.Minute, nil, discardLogger())
	t.Cleanup(m.Stop)

	m.touch("old", "a")
	m.touch("new", "b")
	m.sessions["old"].lastAccess = time.Now().Add(-2 * time.Minute)

	assert.Equal(t, 1, m.expire(time.Now()))
	assert.Equal(t, []string{"new"}, m.ListSessions())

	m.Stop()
	m.Stop()
}
