// Package gmail_tools provides the send_gmail tool.
package gmail_tools
