package drive_tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/drive"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/common"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the Drive tools.
const Group = "drive"

// MsgNoFiles is returned when a search has no hits.
const MsgNoFiles = "No files found."

const defaultSearchLimit = 10

// RegisterDriveTools registers the Drive tools.
func RegisterDriveTools(r *registry.Registry, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("search_files",
		mcp.WithDescription("Search Google Drive for files whose name contains the query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for in file names"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of files to list (default: 10)"),
			mcp.Min(1),
			mcp.Max(100),
		),
	)
	if err := r.Add(Group, searchTool, instrumentation.ServiceDrive,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchFiles(ctx, request, sc)
		}); err != nil {
		return err
	}

	readTool := mcp.NewTool("read_file",
		mcp.WithDescription("Read a Google Drive file. Text is returned as is, images as image content, other files as base64"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("Drive file ID, optionally prefixed with gdrive:///"),
		),
	)
	return r.Add(Group, readTool, instrumentation.ServiceDrive,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadFile(ctx, request, sc)
		})
}

func handleSearchFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	token, denied := common.RequireGoogleToken(ctx)
	if denied != nil {
		return denied, nil
	}

	client, err := sc.DriveClient(ctx, token)
	if err != nil {
		return common.FailureText(ctx, fmt.Sprintf("Failed to create Drive client: %v", err)), nil
	}

	limit := int64(request.GetInt("limit", defaultSearchLimit))
	files, err := client.SearchFiles(ctx, request.GetString("query", ""), limit)
	if err != nil {
		return common.ProviderFailure(ctx, "search files", err), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(MsgNoFiles), nil
	}

	lines := make([]string, len(files))
	for i, f := range files {
		lines[i] = fmt.Sprintf("%s (%s) - %s%s", f.Name, f.MimeType, drive.URIPrefix, f.ID)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func handleReadFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	token, denied := common.RequireGoogleToken(ctx)
	if denied != nil {
		return denied, nil
	}

	client, err := sc.DriveClient(ctx, token)
	if err != nil {
		return common.FailureText(ctx, fmt.Sprintf("Failed to create Drive client: %v", err)), nil
	}

	content, err := client.ReadFile(ctx, request.GetString("file_id", ""))
	if err != nil {
		return common.ProviderFailure(ctx, "read file", err), nil
	}

	encoded := base64.StdEncoding.EncodeToString(content.Data)
	switch {
	case content.IsText():
		return mcp.NewToolResultText(string(content.Data)), nil
	case content.IsImage():
		return mcp.NewToolResultImage(content.Name, encoded, content.MimeType), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("Binary file (%s), base64 content:\n%s", content.MimeType, encoded)), nil
	}
}
