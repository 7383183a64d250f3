// Package calendar_tools provides add_event and upcoming_events for the
// configured Google Calendar.
package calendar_tools
