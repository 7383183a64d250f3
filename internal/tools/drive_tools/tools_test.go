package drive_tools

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/tools/tooltest"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 1, 2}

// fakeDrive serves metadata and media for a few fixed files.
func fakeDrive(t *testing.T, searchBody string) http.HandlerFunc {
	meta := map[string]string{
		"txt": `{"id":"txt","name":"notes.txt","mimeType":"text/plain"}`,
		"img": `{"id":"img","name":"logo.png","mimeType":"image/png"}`,
		"bin": `{"id":"bin","name":"a.zip","mimeType":"application/zip"}`,
	}
	media := map[string][]byte{
		"txt": []byte("héllo\nworld"),
		"img": pngBytes,
		"bin": {0xde, 0xad, 0xbe, 0xef},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))
		if r.URL.Path == "/files" {
			assert.Equal(t, "name contains 'report' and trashed = false", r.URL.Query().Get("q"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, searchBody)
			return
		}

		id := r.URL.Path[len("/files/"):]
		if _, ok := meta[id]; !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"File not found: `+id+`."}}`)
			return
		}
		if r.URL.Query().Get("alt") == "media" {
			_, _ = w.Write(media[id])
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, meta[id])
	}
}

func setup(t *testing.T, searchBody string) *registry.Registry {
	t.Helper()
	srv := httptest.NewServer(fakeDrive(t, searchBody))
	t.Cleanup(srv.Close)

	sc := tooltest.NewServerContext(t, tooltest.Config(t), tooltest.GoogleBackend(srv))
	r := registry.New(sc)
	require.NoError(t, RegisterDriveTools(r, sc))
	return r
}

func TestSearchFiles(t *testing.T) {
	r := setup(t, `{"files":[
		{"id":"1","name":"report.pdf","mimeType":"application/pdf"},
		{"id":"2","name":"report notes","mimeType":"application/vnd.google-apps.document"}]}`)

	result := tooltest.Invoke(t, r, tooltest.Authenticated("ya29.token"), "search_files", map[string]any{"query": "report"})
	assert.False(t, result.IsError)
	assert.Equal(t,
		"report.pdf (application/pdf) - gdrive:///1\nreport notes (application/vnd.google-apps.document) - gdrive:///2",
		tooltest.Text(result))
}

func TestSearchFiles_NoResults(t *testing.T) {
	r := setup(t, `{"files":[]}`)
	result := tooltest.Invoke(t, r, tooltest.Authenticated("ya29.token"), "search_files", map[string]any{"query": "report"})
	assert.Equal(t, "No files found.", tooltest.Text(result))
}

func TestReadFile(t *testing.T) {
	r := setup(t, "")
	ctx := tooltest.Authenticated("ya29.token")

	t.Run("text", func(t *testing.T) {
		result := tooltest.Invoke(t, r, ctx, "read_file", map[string]any{"file_id": "gdrive:///txt"})
		assert.Equal(t, "héllo\nworld", tooltest.Text(result))
	})

	t.Run("image", func(t *testing.T) {
		result := tooltest.Invoke(t, r, ctx, "read_file", map[string]any{"file_id": "img"})
		var image *mcp.ImageContent
		for _, c := range result.Content {
			if ic, ok := mcp.AsImageContent(c); ok {
				image = ic
			}
		}
		require.NotNil(t, image)
		assert.Equal(t, "image/png", image.MIMEType)
		decoded, err := base64.StdEncoding.DecodeString(image.Data)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, decoded)
	})

	t.Run("binary", func(t *testing.T) {
		result := tooltest.Invoke(t, r, ctx, "read_file", map[string]any{"file_id": "bin"})
		assert.Equal(t, "Binary file (application/zip), base64 content:\n3q2+7w==", tooltest.Text(result))
	})

	t.Run("provider error", func(t *testing.T) {
		result := tooltest.Invoke(t, r, ctx, "read_file", map[string]any{"file_id": "missing"})
		assert.False(t, result.IsError)
		assert.Equal(t, `Failed to read file: {"error":{"code":404,"message":"File not found: missing."}}`, tooltest.Text(result))
	})
}

func TestDriveTools_NoToken(t *testing.T) {
	r := setup(t, "")
	for name, args := range map[string]map[string]any{
		"search_files": {"query": "report"},
		"read_file":    {"file_id": "txt"},
	} {
		t.Run(name, func(t *testing.T) {
			result := tooltest.Invoke(t, r, context.Background(), name, args)
			assert.False(t, result.IsError)
			assert.Equal(t, "No Google access token found. Please authenticate with Google first.", tooltest.Text(result))
		})
	}
}
