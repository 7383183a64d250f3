package spotify_tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/spotify"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the Spotify tools.
const Group = "spotify"

// RegisterSpotifyTools registers the playback tools.
func RegisterSpotifyTools(r *registry.Registry, sc *server.ServerContext) error {
	client := sc.Spotify()

	tools := []struct {
		tool    mcp.Tool
		handler mcpserver.ToolHandlerFunc
	}{
		{
			tool: mcp.NewTool("spotify_play",
				mcp.WithDescription("Play a track on the active Spotify device"),
				mcp.WithString("track_id", mcp.Required(), mcp.Description("Spotify track ID")),
			),
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return result(client.Play(ctx, request.GetString("track_id", "")))
			},
		},
		{
			tool: mcp.NewTool("spotify_pause", mcp.WithDescription("Pause playback")),
			handler: func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return result(client.Pause(ctx))
			},
		},
		{
			tool: mcp.NewTool("spotify_next", mcp.WithDescription("Skip to the next track")),
			handler: func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return result(client.Next(ctx))
			},
		},
		{
			tool: mcp.NewTool("spotify_previous", mcp.WithDescription("Go back to the previous track")),
			handler: func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return result(client.Previous(ctx))
			},
		},
		{
			tool: mcp.NewTool("spotify_current", mcp.WithDescription("Describe the track that is currently playing")),
			handler: func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return result(client.Current(ctx))
			},
		},
	}

	for _, t := range tools {
		if err := r.Add(Group, t.tool, instrumentation.ServiceSpotify, t.handler); err != nil {
			return err
		}
	}
	return nil
}

func result(text string, err error) (*mcp.CallToolResult, error) {
	if err == nil {
		return mcp.NewToolResultText(text), nil
	}
	var apiErr *spotify.APIError
	if errors.As(err, &apiErr) {
		return mcp.NewToolResultError("Spotify request failed: " + apiErr.Error()), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}
