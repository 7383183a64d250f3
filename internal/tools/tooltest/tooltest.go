// Package tooltest has helpers for testing tool handlers.
package tooltest

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/config"
	"github.com/Akasxh/mcp-server-daily/internal/google"
	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/common"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Config returns defaults with the expense database in a temp dir and no
// unanswered question log.
func Config(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Expenses.DBPath = filepath.Join(t.TempDir(), "expenses.db")
	cfg.Legal.UnansweredLog = ""
	return cfg
}

// NewServerContext creates a ServerContext that is shut down with the test.
func NewServerContext(t *testing.T, cfg config.Config, opts ...server.Option) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// GoogleBackend points Google API clients at srv.
func GoogleBackend(srv *httptest.Server) server.Option {
	return server.WithGoogleBackend(google.Backend{Endpoint: srv.URL + "/", HTTPClient: srv.Client()})
}

// Authenticated returns a context carrying a session with accessToken.
func Authenticated(accessToken string) context.Context {
	return oauth.WithSession(context.Background(), oauth.Session{
		Name:        "Test User",
		Email:       "test@example.com",
		AccessToken: accessToken,
	})
}

// Request builds a call for tool name.
func Request(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// Invoke runs a registered tool through the dispatcher middleware, the same
// path a client call takes.
func Invoke(t *testing.T, r *registry.Registry, ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	next := r.Handler(name)
	require.NotNil(t, next, "tool %s not registered", name)

	handler := r.Middleware(nil)(next)
	result, err := handler(ctx, Request(name, args))
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// Text returns the text content of result.
func Text(result *mcp.CallToolResult) string {
	return common.ResultText(result)
}
