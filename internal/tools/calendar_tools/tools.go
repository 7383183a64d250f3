package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Akasxh/mcp-server-daily/internal/calendar"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/server"
	"github.com/Akasxh/mcp-server-daily/internal/tools/common"
	"github.com/Akasxh/mcp-server-daily/internal/tools/registry"
)

// Group is the registry group of the calendar tools.
const Group = "calendar"

// MsgNoEvents is returned when nothing is scheduled.
const MsgNoEvents = "No upcoming events found."

const defaultEventCount = 5

// RegisterCalendarTools registers the calendar tools.
func RegisterCalendarTools(r *registry.Registry, sc *server.ServerContext) error {
	addTool := mcp.NewTool("add_event",
		mcp.WithDescription("Add a one hour event to Google Calendar in the server's time zone"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the event"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Event date in YYYY-MM-DD format"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Event time in HH:MM (24h) format"),
		),
	)
	if err := r.Add(Group, addTool, instrumentation.ServiceCalendar,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddEvent(ctx, request, sc)
		}); err != nil {
		return err
	}

	upcomingTool := mcp.NewTool("upcoming_events",
		mcp.WithDescription("List the next scheduled Google Calendar events"),
		mcp.WithNumber("count",
			mcp.Description("Number of events to return (default: 5)"),
			mcp.Min(1),
			mcp.Max(50),
		),
	)
	return r.Add(Group, upcomingTool, instrumentation.ServiceCalendar,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpcomingEvents(ctx, request, sc)
		})
}

func handleAddEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	token, denied := common.RequireGoogleToken(ctx)
	if denied != nil {
		return denied, nil
	}

	title := request.GetString("title", "")
	date := request.GetString("date", "")
	clock := request.GetString("time", "")

	cfg := sc.Config()
	loc := cfg.Location()
	if _, err := calendar.ParseStart(date, clock, loc); err != nil {
		return common.FailureText(ctx, fmt.Sprintf("Invalid event time: %v", err)), nil
	}

	client, err := sc.CalendarClient(ctx, token)
	if err != nil {
		return common.FailureText(ctx, fmt.Sprintf("Failed to create Calendar client: %v", err)), nil
	}

	event, err := client.AddEvent(ctx, title, date, clock)
	if err != nil {
		return common.ProviderFailure(ctx, "create event", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event '%s' scheduled for %s (id: %s)",
		title, event.Format(loc), event.ID)), nil
}

func handleUpcomingEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	token, denied := common.RequireGoogleToken(ctx)
	if denied != nil {
		return denied, nil
	}

	client, err := sc.CalendarClient(ctx, token)
	if err != nil {
		return common.FailureText(ctx, fmt.Sprintf("Failed to create Calendar client: %v", err)), nil
	}

	events, err := client.UpcomingEvents(ctx, int64(request.GetInt("count", defaultEventCount)))
	if err != nil {
		return common.ProviderFailure(ctx, "list events", err), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText(MsgNoEvents), nil
	}

	lines := make([]string, len(events))
	for i, ev := range events {
		summary := ev.Summary
		if summary == "" {
			summary = "(no title)"
		}
		lines[i] = fmt.Sprintf("- %s %s", ev.Format(client.Location()), summary)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
