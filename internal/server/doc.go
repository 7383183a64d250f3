// Package server holds the shared state of a running MCP server and its
// HTTP front end.
//
// ServerContext owns the configuration and the adapters tool handlers use:
// the expense store, the currency, news, translation, Spotify and job search
// clients, and a Google backend from which per-call Gmail, Drive and Calendar
// clients are built with the caller's access token.
//
// HTTPServer mounts the Auth Gateway routes (/authorize, /register, /token,
// /callback, /revoke and the RFC 8414 and RFC 9728 metadata documents) next
// to the MCP endpoints: /sse and /message for the SSE transport, /mcp for
// streamable HTTP. The MCP endpoints are rate limited per IP and require a
// bearer token; the resolved gateway session is placed in the context of
// every tool call.
//
// SessionIDManager keys callers by the SHA-256 of their bearer token, and
// HealthChecker serves /healthz, /readyz and /healthz/detailed. MetricsServer
// exposes Prometheus metrics on a separate listener.
package server
