package gmail_tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/tools/tooltest"
)

func setup(t *testing.T, handler http.HandlerFunc) *registry.Registry {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sc := tooltest.NewServerContext(t, tooltest.Config(t), tooltest.GoogleBackend(srv))
	r := registry.New(sc)
	require.NoError(t, RegisterGmailTools(r, sc))
	return r
}

var validArgs = map[string]any{"to": "bob@example.com", "subject": "Hello", "body": "Hi Bob"}

func TestSendGmail(t *testing.T) {
	var raw string
	r := setup(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/send", req.URL.Path)
		assert.Equal(t, "Bearer ya29.token", req.Header.Get("Authorization"))
		var msg struct {
			Raw string `json:"raw"`
		}
		body, _ := io.ReadAll(req.Body)
		require.NoError(t, json.Unmarshal(body, &msg))
		raw = msg.Raw
		_, _ = io.WriteString(w, `{"id":"m-1"}`)
	})

	result := tooltest.Invoke(t, r, tooltest.Authenticated("ya29.token"), "send_gmail", validArgs)
	assert.False(t, result.IsError)
	assert.Equal(t, "Email sent successfully to bob@example.com.", tooltest.Text(result))

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Subject: Hello\r\n")
	assert.Contains(t, string(decoded), "Hi Bob")
}

func TestSendGmail_NoToken(t *testing.T) {
	r := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected without a token")
	})

	result := tooltest.Invoke(t, r, context.Background(), "send_gmail", validArgs)
	assert.False(t, result.IsError)
	assert.Equal(t, "No Google access token found. Please authenticate with Google first.", tooltest.Text(result))
}

func TestSendGmail_ProviderError(t *testing.T) {
	const providerBody = `{"error":{"code":403,"message":"Insufficient Permission"}}`
	r := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, providerBody)
	})

	result := tooltest.Invoke(t, r, tooltest.Authenticated("ya29.token"), "send_gmail", validArgs)
	assert.False(t, result.IsError)
	assert.Equal(t, "Failed to send email: "+providerBody, tooltest.Text(result))
}

func TestSendGmail_InvalidArguments(t *testing.T) {
	r := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler must not run for invalid arguments")
	})

	result := tooltest.Invoke(t, r, tooltest.Authenticated("ya29.token"), "send_gmail",
		map[string]any{"to": "nobody", "subject": "x", "body": "y"})
	assert.True(t, result.IsError)
	assert.Equal(t, "invalid arguments: to must be a valid email address", tooltest.Text(result))
}
