// Package expense_tools exposes the SQLite expense tracker. Every tool is
// scoped to the phone number passed by the caller.
package expense_tools
