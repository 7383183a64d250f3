package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Akasxh/mcp-server-daily/internal/config"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
	"github.com/Akasxh/mcp-server-daily/internal/server"
)

func newServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()
	cfg := config.Default()
	cfg.Expenses.DBPath = filepath.Join(t.TempDir(), "expenses.db")
	cfg.Legal.UnansweredLog = ""

	sc, err := server.NewServerContext(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestInstrumentedToolHandler(t *testing.T) {
	tests := []struct {
		name   string
		result *mcp.CallToolResult
		err    error
		wantOK bool
	}{
		{"success", mcp.NewToolResultText("ok"), nil, true},
		{"error result", mcp.NewToolResultError("Failed to send email: quota"), nil, false},
		{"go error", nil, errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
			require.NoError(t, err)
			audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)),
				instrumentation.AuditLoggingConfig{Enabled: true})
			sc := newServerContext(t, server.WithMetrics(metrics), server.WithAuditLogger(audit))

			var seen oauth.Session
			wrapped := InstrumentedToolHandler("send_gmail", instrumentation.ServiceGmail, sc,
				func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					seen = Session(ctx)
					return tt.result, tt.err
				})

			ctx := oauth.WithSession(context.Background(), oauth.Session{Email: "ada@example.com", ClientID: "c1"})
			result, err := wrapped(ctx, mcp.CallToolRequest{})
			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.result, result)
			assert.Equal(t, "ada@example.com", seen.Email)

			line := buf.String()
			assert.Contains(t, line, `"tool":"send_gmail"`)
			assert.Contains(t, line, `"user_domain":"example.com"`)
			assert.NotContains(t, line, "ada@example.com")
			if tt.wantOK {
				assert.Contains(t, line, `"success":true`)
			} else {
				assert.Contains(t, line, `"success":false`)
			}
		})
	}
}

func TestInstrumentedToolHandler_NoInstrumentation(t *testing.T) {
	sc := newServerContext(t)
	called := false
	wrapped := InstrumentedToolHandler("validate", instrumentation.ServiceLocal, sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return mcp.NewToolResultText("919876543210"), nil
		})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "919876543210", ResultText(result))
}

func TestRequireGoogleToken(t *testing.T) {
	_, result := RequireGoogleToken(context.Background())
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	assert.Equal(t, "No Google access token found. Please authenticate with Google first.", ResultText(result))

	ctx := oauth.WithSession(context.Background(), oauth.Session{AccessToken: "ya29.x"})
	token, result := RequireGoogleToken(ctx)
	assert.Nil(t, result)
	assert.Equal(t, "ya29.x", token)
}

func TestProviderFailure(t *testing.T) {
	result := ProviderFailure(context.Background(), "search files", errors.New("connection refused"))
	assert.False(t, result.IsError)
	assert.Equal(t, "Failed to search files: connection refused", ResultText(result))
}

func TestInstrumentedToolHandler_FailureTextCountsAsFailure(t *testing.T) {
	var buf bytes.Buffer
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true})
	sc := newServerContext(t, server.WithMetrics(metrics), server.WithAuditLogger(audit))

	wrapped := InstrumentedToolHandler("search_files", instrumentation.ServiceDrive, sc,
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			_, denied := RequireGoogleToken(ctx)
			return denied, nil
		})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, buf.String(), `"success":false`)
	assert.Contains(t, buf.String(), "No Google access token found")
}
