// Package logging provides structured logging helpers built on log/slog.
//
// It keeps attribute names consistent across packages and scrubs personal
// data before it reaches a log line: emails and phone numbers are hashed,
// tokens are reduced to their length.
//
//	logger := logging.WithTool(slog.Default(), "send_gmail")
//	logger.Info("email sent", logging.UserHash(session.Email), logging.Status("success"))
package logging
