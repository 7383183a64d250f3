package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/config"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "https://www.googleapis.com/auth/tasks",
			expected: []string{"https://www.googleapis.com/auth/tasks"},
		},
		{
			name:     "multiple values",
			input:    "https://www.googleapis.com/auth/tasks,openid",
			expected: []string{"https://www.googleapis.com/auth/tasks", "openid"},
		},
		{
			name:     "values with spaces around comma",
			input:    "https://www.googleapis.com/auth/tasks, openid",
			expected: []string{"https://www.googleapis.com/auth/tasks", "openid"},
		},
		{
			name:     "values with leading/trailing spaces",
			input:    "  https://www.googleapis.com/auth/tasks  ,  openid  ",
			expected: []string{"https://www.googleapis.com/auth/tasks", "openid"},
		},
		{
			name:     "trailing comma",
			input:    "https://www.googleapis.com/auth/tasks,openid,",
			expected: []string{"https://www.googleapis.com/auth/tasks", "openid"},
		},
		{
			name:     "leading comma",
			input:    ",https://www.googleapis.com/auth/tasks,openid",
			expected: []string{"https://www.googleapis.com/auth/tasks", "openid"},
		},
		{
			name:     "multiple consecutive commas",
			input:    "https://www.googleapis.com/auth/tasks,,openid",
			expected: []string{"https://www.googleapis.com/auth/tasks", "openid"},
		},
		{
			name:     "only commas and spaces",
			input:    ",  , , ",
			expected: []string{},
		},
		{
			name:     "single value with surrounding whitespace",
			input:    "  https://www.googleapis.com/auth/tasks  ",
			expected: []string{"https://www.googleapis.com/auth/tasks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCommaSeparatedList(tt.input)

			// Handle nil vs empty slice comparison
			if tt.expected == nil {
				if result != nil {
					t.Errorf("parseCommaSeparatedList(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("parseCommaSeparatedList(%q) = %v (len %d), want %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCommaSeparatedList(%q)[%d] = %q, want %q",
						tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestResolveBaseURL(t *testing.T) {
	assert.Equal(t, "https://mcp.example.com", resolveBaseURL("https://mcp.example.com/", ":8086"))
	assert.Equal(t, "http://localhost:8086", resolveBaseURL("", ":8086"))
	assert.Equal(t, "http://127.0.0.1:9000", resolveBaseURL("", "127.0.0.1:9000"))
}

func TestLoadServeConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("MCP_TRANSPORT", config.TransportSSE)
	t.Setenv("MCP_HTTP_ADDR", ":7000")
	t.Setenv("MY_NUMBER", "919876543210")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("transport", config.TransportStdio))

	cfg, err := loadServeConfig(cmd, serveOptions{
		envFile:   filepath.Join(t.TempDir(), "missing.env"),
		transport: config.TransportStdio,
	})
	require.NoError(t, err)
	assert.Equal(t, config.TransportStdio, cfg.Server.Transport)
	assert.Equal(t, ":7000", cfg.Server.HTTPAddr)
	assert.Equal(t, "919876543210", cfg.Puch.MyNumber)
}

func TestLoadServeConfig_InvalidTransport(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("transport", "carrier-pigeon"))

	_, err := loadServeConfig(cmd, serveOptions{transport: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unsupported transport")
}

func TestRegisterAllTools(t *testing.T) {
	r, cleanup, err := offlineRegistry(context.Background())
	require.NoError(t, err)
	defer cleanup()

	for _, name := range []string{
		"validate", "send_gmail", "search_files", "read_file",
		"calculate", "add_expense", "news_headlines", "translate", "spotify_play",
	} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, "tool %s not registered", name)
	}
	assert.Equal(t, r.Len(), len(r.Tools()))
}

func TestGenerateToolsMarkdown(t *testing.T) {
	r, cleanup, err := offlineRegistry(context.Background())
	require.NoError(t, err)
	defer cleanup()

	md := generateToolsMarkdown(r.Tools())
	assert.True(t, strings.HasPrefix(md, "# MCP Tools Reference"))
	assert.Contains(t, md, "- [Puch Tools](#puch-tools)")
	assert.Contains(t, md, "### send_gmail")

	html, err := renderHTML([]byte(md))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h3>send_gmail</h3>")
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("convert_units",
		mcp.WithDescription("Convert a value between units"),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Value to convert")),
		mcp.WithString("to_unit", mcp.Enum("m", "ft")),
	)

	got := generateToolMarkdown(tool)
	assert.Equal(t, "### convert_units\n\n"+
		"Convert a value between units\n\n"+
		"**Arguments:**\n"+
		"- `to_unit` (string, optional): string parameter One of: `m`, `ft`.\n"+
		"- `value` (number, required): Value to convert\n\n", got)
}

func TestArgumentSummary(t *testing.T) {
	tool := mcp.NewTool("split_bill",
		mcp.WithNumber("total", mcp.Required()),
		mcp.WithNumber("tip_percent"),
	)
	assert.Equal(t, "tip_percent, total*", argumentSummary(tool))
	assert.Equal(t, "first", firstLine("first\nsecond"))
}
