package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Akasxh/mcp-server-daily/internal/config"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
)

// HTTP server timeouts. There is no write timeout: SSE streams stay open.
const (
	ReadHeaderTimeout = 10 * time.Second
	IdleTimeout       = 120 * time.Second
)

// HTTPServer serves the MCP endpoints behind the Auth Gateway. The gateway's
// own endpoints (/authorize, /register, /token, metadata) and the health
// endpoints are public; the MCP endpoints require a bearer token.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	auth       *oauth.Handler
	transport  string
	health     *HealthChecker
	sessions   *SessionIDManager
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
	httpServer *http.Server
}

// HTTPServerOption configures an HTTPServer.
type HTTPServerOption func(*HTTPServer)

func WithHealthChecker(h *HealthChecker) HTTPServerOption {
	return func(s *HTTPServer) { s.health = h }
}

func WithSessionManager(m *SessionIDManager) HTTPServerOption {
	return func(s *HTTPServer) { s.sessions = m }
}

func WithHTTPMetrics(m *instrumentation.Metrics) HTTPServerOption {
	return func(s *HTTPServer) { s.metrics = m }
}

func WithHTTPLogger(l *slog.Logger) HTTPServerOption {
	return func(s *HTTPServer) { s.logger = l }
}

// NewHTTPServer creates a server for the sse or streamable-http transport.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, auth *oauth.Handler, transport string, opts ...HTTPServerOption) (*HTTPServer, error) {
	if auth == nil {
		return nil, fmt.Errorf("auth gateway is required")
	}
	if transport != config.TransportSSE && transport != config.TransportStreamableHTTP {
		return nil, fmt.Errorf("unsupported server type: %s", transport)
	}
	if err := validateHTTPSRequirement(auth.Resource()); err != nil {
		return nil, err
	}

	s := &HTTPServer{
		mcpServer: mcpServer,
		auth:      auth,
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = NewHealthChecker(nil)
	}
	return s, nil
}

// Handler builds the routing table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.auth.RegisterRoutes(mux)
	s.health.RegisterHealthEndpoints(mux)

	protect := func(h http.Handler) http.Handler {
		if s.sessions != nil {
			h = s.sessions.Track(h)
		}
		return s.auth.RateLimitMiddleware(s.auth.RequireBearer(h))
	}

	switch s.transport {
	case config.TransportSSE:
		sseServer := mcpserver.NewSSEServer(s.mcpServer,
			mcpserver.WithBaseURL(s.auth.Resource()),
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
			mcpserver.WithSSEContextFunc(sessionContext),
		)
		mux.Handle("/sse", protect(sseServer.SSEHandler()))
		mux.Handle("/message", protect(sseServer.MessageHandler()))

	case config.TransportStreamableHTTP:
		streamOpts := []mcpserver.StreamableHTTPOption{
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithHTTPContextFunc(sessionContext),
		}
		if s.sessions != nil {
			streamOpts = append(streamOpts, mcpserver.WithSessionIdManagerResolver(s.sessions))
		}
		streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer, streamOpts...)
		mux.Handle("/mcp", protect(streamable))
	}

	return s.instrumentationMiddleware(mux)
}

// sessionContext carries the gateway session from the HTTP request into the
// context tool handlers receive.
func sessionContext(ctx context.Context, r *http.Request) context.Context {
	if session, ok := oauth.SessionFromContext(r.Context()); ok {
		return oauth.WithSession(ctx, session)
	}
	return ctx
}

// Start listens on addr and blocks until the server stops.
func (s *HTTPServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}
	s.logger.Info("Starting HTTP server", "addr", addr, "transport", s.transport, "base_url", s.auth.Resource())
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and stops the
// gateway's background cleanup.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	defer s.auth.Close()
	if s.sessions != nil {
		defer s.sessions.Stop()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *HTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// responseWriter records the status code. It forwards Flush so SSE streams
// keep working through the middleware.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// validateHTTPSRequirement allows plain HTTP only for loopback hosts.
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
