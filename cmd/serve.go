package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/Akasxh/mcp-server-daily/internal/config"
	"github.com/Akasxh/mcp-server-daily/internal/google"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/logging"
	"github.com/Akasxh/mcp-server-daily/internal/mcp/oauth"
	"github.com/Akasxh/mcp-server-daily/internal/resources"
	"github.com/Akasxh/mcp-server-daily/internal/server"
)

const banner = `
  ┌┬┐┌─┐┌─┐  ┌┬┐┌─┐┬┬ ┬ ┬
  │││└─┐├─┘   ││├─┤││ └┬┘
  ┴ ┴└─┘┴    ─┴┘┴ ┴┴┴─┘┴
`

// serveOptions are the command-line overrides for the serve command. Only
// flags the user set explicitly take precedence over the config file and the
// environment.
type serveOptions struct {
	configFile  string
	envFile     string
	transport   string
	httpAddr    string
	baseURL     string
	metricsAddr string
	logFormat   string
	debug       bool

	metricsEnabled bool
	extraScopes    string

	allowPublicRegistration bool
	registrationToken       string
	trustProxy              bool
	rateLimit               int
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server.

Transports:
  - streamable-http: HTTP endpoint at /mcp behind the OAuth gateway (default)
  - sse: Server-Sent Events at /sse and /message behind the OAuth gateway
  - stdio: standard input/output for local clients; Google tools use GOOGLE_ACCESS_TOKEN

Configuration is read from built-in defaults, then the optional config file
(YAML or TOML), then the environment (including a .env file), then flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML or TOML config file")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment. Existing variables win.")
	cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStreamableHTTP, "Transport type: stdio, sse or streamable-http. Can also use MCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8086", "HTTP listen address (sse and streamable-http). Can also use MCP_HTTP_ADDR env var.")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Public base URL used as the OAuth resource identifier, e.g. https://mcp.example.com. Can also use MCP_BASE_URL env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics on --metrics-addr (HTTP transports only)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json. Can also use LOG_FORMAT env var.")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.extraScopes, "extra-scopes", "", "Comma-separated Google scopes requested in addition to the defaults")
	cmd.Flags().BoolVar(&opts.allowPublicRegistration, "oauth-allow-public-registration", false, "WARNING: Allow unauthenticated client registration. Can also use MCP_ALLOW_PUBLIC_REGISTRATION env var.")
	cmd.Flags().StringVar(&opts.registrationToken, "oauth-registration-token", "", "Bearer token required on /register when public registration is disabled. Can also use MCP_REGISTRATION_TOKEN env var.")
	cmd.Flags().BoolVar(&opts.trustProxy, "trust-proxy", false, "Use X-Forwarded-For and X-Real-IP for rate limiting. Only enable behind a trusted proxy.")
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", oauth.DefaultRateLimitRate, "Requests per second per client IP; 0 disables rate limiting")

	return cmd
}

// loadServeConfig layers defaults, config file, environment and explicitly
// set flags.
func loadServeConfig(cmd *cobra.Command, opts serveOptions) (config.Config, error) {
	if opts.envFile != "" {
		if err := config.LoadDotEnv(opts.envFile); err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Server.Transport = opts.transport
	}
	if flags.Changed("http-addr") {
		cfg.Server.HTTPAddr = opts.httpAddr
	}
	if flags.Changed("base-url") {
		cfg.Server.BaseURL = opts.baseURL
	}
	if flags.Changed("metrics-addr") {
		cfg.Server.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("log-format") {
		cfg.Server.LogFormat = opts.logFormat
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = opts.debug
	}
	if flags.Changed("oauth-allow-public-registration") {
		cfg.Auth.AllowPublicRegistration = opts.allowPublicRegistration
	}
	if flags.Changed("oauth-registration-token") {
		cfg.Auth.RegistrationToken = opts.registrationToken
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(cfg config.Config, opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdio := cfg.Server.Transport == config.TransportStdio

	// stdout carries the protocol in stdio mode
	logger := logging.NewLogger(os.Stderr, cfg.Server.LogFormat, cfg.Server.Debug)
	slog.SetDefault(logger)

	if !stdio {
		color.New(color.FgCyan).Fprint(os.Stderr, banner)
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()),
	}
	if instrConfig.AuditLogging.Enabled {
		serverOpts = append(serverOpts, server.WithAuditLogger(
			instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging)))
	}

	serverContext, err := server.NewServerContext(shutdownCtx, cfg, serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Error during server context shutdown", logging.Err(err))
		}
	}()

	r, err := registerAllTools(serverContext)
	if err != nil {
		return err
	}

	mcpSrv := mcpserver.NewMCPServer("mcp-server-daily", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithToolHandlerMiddleware(r.Middleware(provider.Metrics())),
		mcpserver.WithRecovery(),
	)
	r.Install(mcpSrv)
	if err := resources.RegisterUserResources(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}
	logger.Info("Registered tools", "count", r.Len())

	if cfg.Puch.MyNumber == "" {
		logger.Warn("MY_NUMBER is not set, the validate tool will report an error")
	}

	if stdio {
		return runStdioServer(mcpSrv, cfg, logger)
	}

	// Start metrics server if enabled
	if opts.metricsEnabled && provider.Enabled() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Server.MetricsAddr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("Error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	return runHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, opts, provider, logger)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, cfg config.Config, logger *slog.Logger) error {
	// Local clients act as the owner of the configured Google token.
	session := oauth.Session{
		Name:        oauth.StaticClientName,
		AccessToken: cfg.Auth.GoogleAccessToken,
	}
	if !session.HasGoogleToken() {
		logger.Warn("GOOGLE_ACCESS_TOKEN is not set, Google tools will ask for authentication")
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return oauth.WithSession(ctx, session)
		}))
		if err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg config.Config, opts serveOptions, provider *instrumentation.Provider, logger *slog.Logger) error {
	baseURL := resolveBaseURL(cfg.Server.BaseURL, cfg.Server.HTTPAddr)
	if cfg.Server.BaseURL == "" {
		logger.Warn("No base URL configured, using auto-detected value. Set --base-url or MCP_BASE_URL for deployed instances.",
			"base_url", baseURL)
	}

	scopes := append([]string{}, google.DefaultOAuthScopes...)
	scopes = append(scopes, parseCommaSeparatedList(opts.extraScopes)...)

	auth, err := oauth.NewHandler(&oauth.Config{
		Resource:        baseURL,
		SupportedScopes: scopes,
		Google: oauth.GoogleConfig{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
		},
		StaticToken:       cfg.Auth.StaticToken,
		StaticGoogleToken: cfg.Auth.GoogleAccessToken,
		RateLimit: oauth.RateLimitConfig{
			Rate:       opts.rateLimit,
			TrustProxy: opts.trustProxy,
		},
		Security: oauth.SecurityConfig{
			AllowPublicClientRegistration: cfg.Auth.AllowPublicRegistration,
			RegistrationAccessToken:       cfg.Auth.RegistrationToken,
		},
		Logger:  logger,
		Metrics: provider.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create auth gateway: %w", err)
	}

	sessions := server.NewSessionIDManager(server.DefaultSessionTimeout, provider.Metrics(), logger)
	health := server.NewHealthChecker(sc).WithSessions(sessions)

	httpServer, err := server.NewHTTPServer(mcpSrv, auth, cfg.Server.Transport,
		server.WithHealthChecker(health),
		server.WithSessionManager(sessions),
		server.WithHTTPMetrics(provider.Metrics()),
		server.WithHTTPLogger(logger),
	)
	if err != nil {
		auth.Close()
		sessions.Stop()
		return err
	}

	printEndpoints(cfg, baseURL, opts.metricsEnabled && provider.Enabled())

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// resolveBaseURL returns baseURL, or a loopback URL derived from addr for
// local development.
func resolveBaseURL(baseURL, addr string) string {
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/")
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func printEndpoints(cfg config.Config, baseURL string, metrics bool) {
	green := color.New(color.FgGreen)
	line := func(label, value string) {
		green.Fprint(os.Stderr, "    ▶ ")
		fmt.Fprintf(os.Stderr, "%-16s %s\n", label, value)
	}

	line("Transport:", cfg.Server.Transport)
	line("Listening:", cfg.Server.HTTPAddr)
	line("Base URL:", baseURL)
	if cfg.Server.Transport == config.TransportSSE {
		line("MCP endpoint:", "/sse (messages: /message)")
	} else {
		line("MCP endpoint:", "/mcp")
	}
	line("OAuth:", "/authorize, /token, /register, "+oauth.ProtectedResourceMetadataPath)
	line("Health:", "/healthz, /readyz, /healthz/detailed")
	if metrics {
		line("Metrics:", cfg.Server.MetricsAddr+"/metrics")
	}

	yellow := color.New(color.FgYellow)
	if cfg.Auth.GoogleClientID == "" {
		yellow.Fprintln(os.Stderr, "\n  Google OAuth client not configured: only the AUTH_TOKEN bearer can connect.")
	}
	if cfg.Auth.StaticToken == "" {
		yellow.Fprintln(os.Stderr, "  AUTH_TOKEN not set: the static Puch client is disabled.")
	}
	fmt.Fprintln(os.Stderr)
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
