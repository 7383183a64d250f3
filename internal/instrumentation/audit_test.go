package instrumentation

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := NewToolInvocation("send_gmail").
		WithUser("jane@example.com", "client-1").
		WithService(ServiceGmail, "send")

	assert.NotEmpty(t, ti.ID)
	assert.Equal(t, StatusError, ti.Status())

	ti.Complete(true, "")
	assert.Equal(t, StatusSuccess, ti.Status())
	assert.GreaterOrEqual(t, ti.Duration.Nanoseconds(), int64(0))
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("read_file").WithUser("jane@example.com", "")
	ti.Complete(false, "not found")

	keys := func(attrs []slog.Attr) map[string]string {
		m := make(map[string]string)
		for _, a := range attrs {
			m[a.Key] = a.Value.String()
		}
		return m
	}

	anon := keys(ti.LogAttrs(false))
	assert.Equal(t, "example.com", anon["user_domain"])
	assert.NotContains(t, anon, "user")
	assert.NotContains(t, anon, "client_id")
	assert.Equal(t, "not found", anon["error"])

	full := keys(ti.LogAttrs(true))
	assert.Equal(t, "jane@example.com", full["user"])
}

func TestAuditLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    AuditLoggingConfig
		success   bool
		wantLines int
		wantMsg   string
		wantLevel string
	}{
		{"success", AuditLoggingConfig{Enabled: true}, true, 1, "tool_executed", "INFO"},
		{"failure", AuditLoggingConfig{Enabled: true}, false, 1, "tool_failed", "WARN"},
		{"disabled", AuditLoggingConfig{Enabled: false}, true, 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), tt.config)

			ti := NewToolInvocation("validate")
			ti.Complete(tt.success, "")
			al.LogToolInvocation(ti)

			if tt.wantLines == 0 {
				assert.Zero(t, buf.Len())
				return
			}
			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantMsg, entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "audit", entry["component"])
		})
	}

	var nilLogger *AuditLogger
	assert.NotPanics(t, func() { nilLogger.LogToolInvocation(NewToolInvocation("x")) })
}

func TestExtractUserDomain(t *testing.T) {
	tests := map[string]string{
		"jane@example.com": "example.com",
		"":                 "unknown",
		"invalid":          "unknown",
		"@example.com":     "unknown",
		"user@":            "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractUserDomain(in), in)
	}
}
