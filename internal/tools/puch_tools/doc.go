// Package puch_tools provides the validate tool the Puch client calls to
// confirm which phone number owns this server.
package puch_tools
