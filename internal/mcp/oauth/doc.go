// Package oauth implements the Auth Gateway of the MCP server.
//
// The gateway is an OAuth 2.1 authorization server that proxies user consent
// to Google. MCP clients register dynamically (RFC 7591), send the user to
// /authorize, and exchange the resulting code at /token for an opaque bearer
// token issued by this server. Each bearer token maps to an immutable Session
// holding the user's name, email and Google access token.
//
// Endpoints:
//
//   - /.well-known/oauth-authorization-server (RFC 8414)
//   - /.well-known/oauth-protected-resource (RFC 9728)
//   - /register, /authorize, /callback, /token, /revoke
//
// RequireBearer protects the MCP transport. It also accepts a single static
// token configured for the Puch AI client, which gets a session without a
// Google login unless a Google access token is configured alongside it.
//
// All state lives in memory and is lost on restart.
package oauth
