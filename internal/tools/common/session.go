package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/google"
	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
)

// Session returns the caller's session, or the zero Session for
// unauthenticated contexts.
func Session(ctx context.Context) oauth.Session {
	s, _ := oauth.SessionFromContext(ctx)
	return s
}

// RequireGoogleToken returns the session's Google access token. When there is
// none it returns the (non-error) result to send back instead.
func RequireGoogleToken(ctx context.Context) (string, *mcp.CallToolResult) {
	s := Session(ctx)
	if !s.HasGoogleToken() {
		return "", FailureText(ctx, google.NoTokenMessage)
	}
	return s.AccessToken, nil
}
