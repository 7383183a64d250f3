package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, FormatJSON, false)
		logger.Info("hello", Tool("validate"))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if entry[KeyTool] != "validate" {
			t.Errorf("tool = %v, want validate", entry[KeyTool])
		}
	})

	t.Run("text format hides debug by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "unknown", false)
		logger.Debug("quiet")
		if buf.Len() != 0 {
			t.Errorf("debug line written at info level: %q", buf.String())
		}
	})

	t.Run("debug enabled", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, FormatText, true)
		logger.Debug("loud")
		if !strings.Contains(buf.String(), "loud") {
			t.Errorf("debug line missing: %q", buf.String())
		}
	})
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	WithService(WithTool(WithOperation(base, "drive.search"), "search_files"), "drive").Info("done")

	out := buf.String()
	for _, want := range []string{"operation=drive.search", "tool=search_files", "service=drive"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("gmail.send"), KeyOperation, "gmail.send"},
		{"service", Service("spotify"), KeyService, "spotify"},
		{"tool", Tool("send_gmail"), KeyTool, "send_gmail"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"client", ClientID("abc"), KeyClientID, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err = %v, want error=boom", attr)
	}

	if attr := Err(nil); attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty group", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	got := AnonymizeEmail("jane@example.com")
	if len(got) != 21 || !strings.HasPrefix(got, "user:") {
		t.Errorf("AnonymizeEmail = %q, want user: + 16 hex chars", got)
	}
	if AnonymizeEmail("Jane@Example.com") != got {
		t.Error("AnonymizeEmail should ignore case")
	}
	if AnonymizeEmail("other@example.com") == got {
		t.Error("different emails should produce different hashes")
	}
	if AnonymizeEmail("") != "" {
		t.Error("empty email should stay empty")
	}
}

func TestAnonymizePhone(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"formatting ignored", "+1 555-0100", "15550100", true},
		{"different numbers", "15550100", "15550101", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := AnonymizePhone(tt.a), AnonymizePhone(tt.b)
			if (a == b) != tt.equal {
				t.Errorf("AnonymizePhone(%q)=%q AnonymizePhone(%q)=%q, equal=%v", tt.a, a, tt.b, b, tt.equal)
			}
			if !strings.HasPrefix(a, "phone:") {
				t.Errorf("missing prefix: %q", a)
			}
		})
	}

	if AnonymizePhone("no digits") != "" {
		t.Error("phone without digits should anonymize to empty string")
	}
}

func TestUserHashAndOwner(t *testing.T) {
	if attr := UserHash("jane@example.com"); attr.Key != KeyUserHash || len(attr.Value.String()) != 21 {
		t.Errorf("UserHash = %v", attr)
	}
	if attr := Owner("5550100"); attr.Key != KeyOwner || !strings.HasPrefix(attr.Value.String(), "phone:") {
		t.Errorf("Owner = %v", attr)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"jane@example.com", "example.com"},
		{"invalid", ""},
		{"", ""},
		{"user@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.expected {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.expected)
			}
		})
	}

	if attr := Domain("jane@example.com"); attr.Value.String() != "example.com" {
		t.Errorf("Domain = %v", attr)
	}
}
