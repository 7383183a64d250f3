// Package drive searches and reads files in the session user's Google Drive.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	drive "google.golang.org/api/drive/v3"

	"github.com/Akasxh/mcp-server-daily/internal/google"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

// URIPrefix marks a Drive resource URI as produced by search_files.
const URIPrefix = "gdrive:///"

// MaxDownloadBytes caps file content read into memory.
const MaxDownloadBytes = 10 << 20

// exportFormats maps Google-native mime types to their export format.
var exportFormats = map[string]string{
	"application/vnd.google-apps.document":     "text/plain",
	"application/vnd.google-apps.spreadsheet":  "text/csv",
	"application/vnd.google-apps.presentation": "text/plain",
	"application/vnd.google-apps.drawing":      "image/png",
}

// File is a search hit.
type File struct {
	ID       string
	Name     string
	MimeType string
}

// Content is a downloaded or exported file.
type Content struct {
	Name     string
	MimeType string
	Data     []byte
}

// IsText reports whether the content should be returned as text.
func (c Content) IsText() bool {
	mt := c.MimeType
	return strings.HasPrefix(mt, "text/") ||
		mt == "application/json" ||
		mt == "application/xml" ||
		mt == "application/javascript"
}

// IsImage reports whether the content is an image.
func (c Content) IsImage() bool {
	return strings.HasPrefix(c.MimeType, "image/")
}

// Client wraps the Drive Files service.
type Client struct {
	files   *drive.FilesService
	backend google.Backend
}

// NewClient creates a Drive client authorized by accessToken.
func NewClient(ctx context.Context, accessToken string, backend google.Backend) (*Client, error) {
	opts, err := backend.ClientOptions(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Client{files: svc.Files, backend: backend}, nil
}

// SearchQuery builds a Drive name search that skips trashed files.
func SearchQuery(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, `'`, `\'`)
	return fmt.Sprintf("name contains '%s' and trashed = false", q)
}

// SearchFiles returns files whose names contain query.
func (c *Client) SearchFiles(ctx context.Context, query string, pageSize int64) ([]File, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	ctx, call := c.backend.StartCall(ctx, instrumentation.ServiceDrive, "search")
	resp, err := c.files.List().
		Q(SearchQuery(query)).
		PageSize(pageSize).
		Fields("files(id, name, mimeType)").
		Context(ctx).
		Do()
	if call.End(err) != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}

	out := make([]File, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}
	return out, nil
}

// FileID accepts a bare ID or a gdrive:/// URI.
func FileID(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), URIPrefix)
}

// ReadFile fetches the file's content. Google-native documents are exported.
func (c *Client) ReadFile(ctx context.Context, ref string) (*Content, error) {
	id := FileID(ref)
	if id == "" {
		return nil, fmt.Errorf("file id is required")
	}

	ctx, call := c.backend.StartCall(ctx, instrumentation.ServiceDrive, "read")

	meta, err := c.files.Get(id).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		call.End(err)
		return nil, fmt.Errorf("failed to get file metadata: %w", err)
	}

	mimeType := meta.MimeType
	var data []byte
	if export, ok := exportFormats[meta.MimeType]; ok {
		mimeType = export
		data, err = c.export(ctx, id, export)
	} else if strings.HasPrefix(meta.MimeType, "application/vnd.google-apps.") {
		err = fmt.Errorf("unsupported Google file type %s", meta.MimeType)
	} else {
		data, err = c.download(ctx, id)
	}
	if call.End(err) != nil {
		return nil, err
	}

	return &Content{Name: meta.Name, MimeType: mimeType, Data: data}, nil
}

func (c *Client) export(ctx context.Context, id, mimeType string) ([]byte, error) {
	resp, err := c.files.Export(id, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to export file: %w", err)
	}
	defer resp.Body.Close()
	return readLimited(resp.Body)
}

func (c *Client) download(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", MaxDownloadBytes)
	}
	return data, nil
}
