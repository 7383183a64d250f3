package google

import (
	calendar "google.golang.org/api/calendar/v3"
	drive "google.golang.org/api/drive/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultOAuthScopes are requested at consent time. Identity scopes are added
// by the Auth Gateway.
var DefaultOAuthScopes = []string{
	gmail.GmailSendScope,
	drive.DriveReadonlyScope,
	calendar.CalendarEventsScope,
}
