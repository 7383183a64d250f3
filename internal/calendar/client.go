// Package calendar schedules and lists events in the session user's Google
// Calendar.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/Akasxh/mcp-server-daily/internal/google"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
)

const (
	// InputLayout is the date and time format accepted by AddEvent.
	InputLayout = "2006-01-02 15:04"

	// DisplayLayout is how event times are rendered.
	DisplayLayout = "2006-01-02 15:04 MST"

	// EventDuration is the length of events created by AddEvent.
	EventDuration = time.Hour

	// DefaultCalendarID is used when none is configured.
	DefaultCalendarID = "primary"
)

// Event is a created or listed event.
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	// AllDay is set when the event has a date but no time.
	AllDay bool
	// RawStart is the provider value when it could not be parsed.
	RawStart string
}

// Format renders the start in loc.
func (e Event) Format(loc *time.Location) string {
	switch {
	case e.RawStart != "":
		return e.RawStart
	case e.AllDay:
		return e.Start.Format("2006-01-02")
	default:
		return e.Start.In(loc).Format(DisplayLayout)
	}
}

// Client wraps the Calendar Events service for a single calendar.
type Client struct {
	events     *calendar.EventsService
	backend    google.Backend
	calendarID string
	loc        *time.Location
	now        func() time.Time
}

// NewClient creates a Calendar client authorized by accessToken. Times are
// interpreted in loc.
func NewClient(ctx context.Context, accessToken string, backend google.Backend, calendarID string, loc *time.Location) (*Client, error) {
	opts, err := backend.ClientOptions(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		events:     svc.Events,
		backend:    backend,
		calendarID: calendarID,
		loc:        loc,
		now:        time.Now,
	}, nil
}

// Location is the zone events are created and displayed in.
func (c *Client) Location() *time.Location {
	return c.loc
}

// ParseStart parses date (YYYY-MM-DD) and clock (HH:MM) in loc.
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
	start, err := time.ParseInLocation(InputLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD and time HH:MM: %w", err)
	}
	return start, nil
}

// AddEvent creates a one hour event starting at date and clock.
func (c *Client) AddEvent(ctx context.Context, title, date, clock string) (*Event, error) {
	start, err := ParseStart(date, clock, c.loc)
	if err != nil {
		return nil, err
	}
	end := start.Add(EventDuration)
	zone := c.loc.String()

	ctx, call := c.backend.StartCall(ctx, instrumentation.ServiceCalendar, "insert")
	created, err := c.events.Insert(c.calendarID, &calendar.Event{
		Summary: title,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: zone},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: zone},
	}).Context(ctx).Do()
	if call.End(err) != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &Event{ID: created.Id, Summary: title, Start: start}, nil
}

// UpcomingEvents lists up to n events starting from now, ordered by start.
func (c *Client) UpcomingEvents(ctx context.Context, n int64) ([]Event, error) {
	if n < 1 {
		n = 1
	}

	ctx, call := c.backend.StartCall(ctx, instrumentation.ServiceCalendar, "list")
	resp, err := c.events.List(c.calendarID).
		TimeMin(c.now().UTC().Format(time.RFC3339)).
		MaxResults(n).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if call.End(err) != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

func toEvent(item *calendar.Event) Event {
	ev := Event{ID: item.Id, Summary: item.Summary}
	if item.Start == nil {
		return ev
	}
	if item.Start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			ev.RawStart = item.Start.DateTime
			return ev
		}
		ev.Start = t
		return ev
	}
	if item.Start.Date != "" {
		t, err := time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			ev.RawStart = item.Start.Date
			return ev
		}
		ev.Start = t
		ev.AllDay = true
	}
	return ev
}
