// Package resources provides MCP resources for exposing session and user data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the identity behind the current bearer token or a weekly expense summary.
package resources
