package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/config"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := config.Default()
	cfg.Expenses.DBPath = filepath.Join(t.TempDir(), "expenses.db")
	cfg.Legal.UnansweredLog = ""
	sc, err := server.NewServerContext(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return New(sc)
}

func sendTool() mcp.Tool {
	return mcp.NewTool("send_gmail",
		mcp.WithString("to", mcp.Required(), FormatEmail()),
		mcp.WithString("subject", mcp.Required()),
		mcp.WithString("body", mcp.Required()),
	)
}

func textHandler(text string) mcpserver.ToolHandlerFunc {
	return func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(text), nil
	}
}

func TestRegistry_Add(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Add("gmail", sendTool(), instrumentation.ServiceGmail, textHandler("sent")))
	require.NoError(t, r.Add("puch", mcp.NewTool("validate"), instrumentation.ServiceLocal, textHandler("1")))

	err := r.Add("other", sendTool(), instrumentation.ServiceGmail, textHandler("again"))
	assert.ErrorIs(t, err, ErrDuplicateTool)

	assert.Error(t, r.Add("x", mcp.Tool{}, "", textHandler("")))

	entries := r.Tools()
	require.Len(t, entries, 2)
	assert.Equal(t, "send_gmail", entries[0].Tool.Name)
	assert.Equal(t, "gmail", entries[0].Group)
	assert.Equal(t, "validate", entries[1].Tool.Name)

	_, ok := r.Lookup("validate")
	assert.True(t, ok)
	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistry_Install(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Add("gmail", sendTool(), instrumentation.ServiceGmail, textHandler("sent")))

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	r.Install(s)

	tools := s.ListTools()
	require.Contains(t, tools, "send_gmail")
	assert.Equal(t, []string{"to", "subject", "body"}, tools["send_gmail"].Tool.InputSchema.Required)
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestMiddleware(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.Add("gmail", sendTool(), instrumentation.ServiceGmail, textHandler("sent")))

	called := 0
	next := func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called++
		return mcp.NewToolResultText("handled"), nil
	}
	handler := r.Middleware(nil)(next)

	tests := []struct {
		name    string
		req     mcp.CallToolRequest
		wantErr string
	}{
		{
			name: "valid",
			req:  call("send_gmail", map[string]any{"to": "Bob <bob@example.com>", "subject": "Hi", "body": "x"}),
		},
		{
			name:    "bad email",
			req:     call("send_gmail", map[string]any{"to": "not-an-address", "subject": "Hi", "body": "x"}),
			wantErr: "invalid arguments: to must be a valid email address",
		},
		{
			name:    "missing and empty",
			req:     call("send_gmail", map[string]any{"to": "bob@example.com", "subject": "  "}),
			wantErr: "invalid arguments: body is required; subject must not be empty",
		},
		{
			name: "unknown tool passes through",
			req:  call("mystery", nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := called
			result, err := handler(context.Background(), tt.req)
			require.NoError(t, err)
			text := result.Content[0].(mcp.TextContent).Text
			if tt.wantErr == "" {
				assert.Equal(t, before+1, called)
				assert.Equal(t, "handled", text)
				return
			}
			assert.Equal(t, before, called, "handler must not run")
			assert.True(t, result.IsError)
			assert.Equal(t, tt.wantErr, text)
		})
	}
}

func TestValidate(t *testing.T) {
	tool := mcp.NewTool("t",
		mcp.WithNumber("count", mcp.Min(1), mcp.Max(10)),
		mcp.WithString("format", mcp.Enum("csv", "json")),
		mcp.WithBoolean("raw"),
		mcp.WithString("name", mcp.MinLength(2)),
		mcp.WithArray("tags"),
		mcp.WithObject("meta"),
	)

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"empty is fine", nil, nil},
		{"all valid", map[string]any{"count": 3.0, "format": "csv", "raw": true, "name": "ab", "tags": []any{"x"}, "meta": map[string]any{}}, nil},
		{"below minimum", map[string]any{"count": 0.0}, []string{"count must be >= 1"}},
		{"above maximum", map[string]any{"count": 11.0}, []string{"count must be <= 10"}},
		{"wrong type", map[string]any{"count": "three"}, []string{"count must be of type number"}},
		{"enum", map[string]any{"format": "xml"}, []string{"format must be one of csv, json"}},
		{"boolean", map[string]any{"raw": "yes"}, []string{"raw must be of type boolean"}},
		{"short string", map[string]any{"name": "a"}, []string{"name must be at least 2 characters"}},
		{"array", map[string]any{"tags": "x"}, []string{"tags must be of type array"}},
		{"object", map[string]any{"meta": 1.0}, []string{"meta must be of type object"}},
		{"null optional", map[string]any{"count": nil}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range Validate(tool.InputSchema, tt.args) {
				got = append(got, p.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchesType_Integer(t *testing.T) {
	assert.True(t, matchesType("integer", 3.0))
	assert.False(t, matchesType("integer", 3.5))
	assert.True(t, matchesType("", "anything"))
}
