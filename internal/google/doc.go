// Package google holds what the Gmail, Drive and Calendar adapters share:
// building authorized HTTP clients from a session's access token, turning
// API errors into the provider's response body, and the OAuth scopes the
// server requests.
//
// Tokens are never refreshed here. The Auth Gateway owns refresh; adapters
// use whatever access token the session carries.
package google
