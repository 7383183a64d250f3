package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Akasxh/mcp-server-daily/internal/config"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/assistant_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/calendar_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/drive_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/expense_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/gmail_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/news_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/puch_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
	"github.com/Akasxh/mcp-server-daily/internal/tools/spotify_tools"
	"github.com/Akasxh/mcp-server-daily/internal/tools/utility_tools"
)

// registerAllTools builds the registry with every tool group.
func registerAllTools(sc *server.ServerContext) (*registry.Registry, error) {
	type toolRegistration struct {
		name     string
		register func(*registry.Registry, *server.ServerContext) error
	}

	registrations := []toolRegistration{
		{name: "Puch", register: puch_tools.RegisterPuchTools},
		{name: "Gmail", register: gmail_tools.RegisterGmailTools},
		{name: "Drive", register: drive_tools.RegisterDriveTools},
		{name: "Calendar", register: calendar_tools.RegisterCalendarTools},
		{name: "Utility", register: utility_tools.RegisterUtilityTools},
		{name: "Expenses", register: expense_tools.RegisterExpenseTools},
		{name: "News", register: news_tools.RegisterNewsTools},
		{name: "Spotify", register: spotify_tools.RegisterSpotifyTools},
		{name: "Assistant", register: assistant_tools.RegisterAssistantTools},
	}

	r := registry.New(sc)
	for _, reg := range registrations {
		if err := reg.register(r, sc); err != nil {
			return nil, fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return r, nil
}

// offlineRegistry registers every tool against a throwaway context for
// commands that only inspect definitions.
func offlineRegistry(ctx context.Context) (*registry.Registry, func(), error) {
	cfg := config.Default()
	cfg.Expenses.DBPath = ":memory:"
	cfg.Legal.UnansweredLog = ""

	sc, err := server.NewServerContext(ctx, cfg,
		server.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create server context: %w", err)
	}
	cleanup := func() { _ = sc.Shutdown() }

	r, err := registerAllTools(sc)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return r, cleanup, nil
}
