// Package instrumentation wires OpenTelemetry metrics and tracing into the
// server and provides the audit log for tool invocations.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: gateway and MCP HTTP traffic
//   - active_sessions: live gateway sessions
//   - oauth_auth_total, oauth_token_refresh_total: Auth Gateway outcomes
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: per tool
//   - mcp_tool_validation_failures_total: calls rejected before the handler ran
//   - upstream_api_calls_total, upstream_api_call_duration_seconds: Gmail, Drive,
//     Calendar, currency, news, translate, Spotify and job search calls
//   - cache_lookups_total: currency and news cache hits and misses
//
// Metrics are exported through Prometheus (default), OTLP or stdout, selected
// by METRICS_EXPORTER. Tracing is off unless TRACING_EXPORTER is otlp or stdout.
//
// A zero-value or nil *Metrics is a no-op, so callers never need nil checks.
package instrumentation
