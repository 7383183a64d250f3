package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Akasxh/mcp-server-daily/internal/calendar"
	"github.com/Akasxh/mcp-server-daily/internal/config"
	"github.com/Akasxh/mcp-server-daily/internal/drive"
	"github.com/Akasxh/mcp-server-daily/internal/expenses"
	"github.com/Akasxh/mcp-server-daily/internal/gmail"
	"github.com/Akasxh/mcp-server-daily/internal/google"
	"github.com/Akasxh/mcp-server-daily/internal/instrumentation"
	"github.com/Akasxh/mcp-server-daily/internal/jobs"
	"github.com/Akasxh/mcp-server-daily/internal/legal"
	"github.com/Akasxh/mcp-server-daily/internal/logging"
	"github.com/Akasxh/mcp-server-daily/internal/news"
	"github.com/Akasxh/mcp-server-daily/internal/spotify"
	"github.com/Akasxh/mcp-server-daily/internal/translate"
	"github.com/Akasxh/mcp-server-daily/internal/utility"
)

// ServerContext holds the configuration and shared adapters used by tool
// handlers. Google clients are created per call from the caller's session
// token; everything else is shared across sessions.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	config  config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	google  google.Backend

	expenses      *expenses.Store
	ownsExpenses  bool
	utility       *utility.Dispatcher
	newsAPI       *news.NewsAPI
	rss           *news.RSSReader
	translator    *translate.Client
	legal         *legal.Assistant
	spotify       *spotify.Client
	jobs          *jobs.Finder
	expensesError error

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext. Adapters not supplied through options
// are built from the configuration.
type Option func(*ServerContext)

func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = logger }
}

func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.audit = al }
}

// WithGoogleBackend overrides the Google API endpoint and HTTP client.
func WithGoogleBackend(b google.Backend) Option {
	return func(sc *ServerContext) { sc.google = b }
}

// WithExpenseStore uses an already opened store. The caller keeps ownership.
func WithExpenseStore(s *expenses.Store) Option {
	return func(sc *ServerContext) { sc.expenses = s }
}

func WithUtility(d *utility.Dispatcher) Option {
	return func(sc *ServerContext) { sc.utility = d }
}

func WithNewsAPI(n *news.NewsAPI) Option {
	return func(sc *ServerContext) { sc.newsAPI = n }
}

func WithRSSReader(r *news.RSSReader) Option {
	return func(sc *ServerContext) { sc.rss = r }
}

func WithTranslator(t *translate.Client) Option {
	return func(sc *ServerContext) { sc.translator = t }
}

func WithLegalAssistant(a *legal.Assistant) Option {
	return func(sc *ServerContext) { sc.legal = a }
}

func WithSpotify(c *spotify.Client) Option {
	return func(sc *ServerContext) { sc.spotify = c }
}

func WithJobFinder(f *jobs.Finder) Option {
	return func(sc *ServerContext) { sc.jobs = f }
}

// NewServerContext creates a server context. A failure to open the expense
// database is logged and reported by the expense tools rather than aborting
// startup.
func NewServerContext(ctx context.Context, cfg config.Config, opts ...Option) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		config: cfg,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.logger == nil {
		sc.logger = slog.Default()
	}
	if sc.google.Metrics == nil {
		sc.google.Metrics = sc.metrics
	}

	if sc.expenses == nil {
		store, err := expenses.Open(cfg.Expenses.DBPath, sc.logger, expenses.WithLocation(cfg.Location()))
		if err != nil {
			sc.logger.Warn("Expense store unavailable", "path", cfg.Expenses.DBPath, logging.Err(err))
			sc.expensesError = err
		} else {
			sc.expenses = store
			sc.ownsExpenses = true
		}
	}
	if sc.utility == nil {
		sc.utility = utility.NewDispatcher(utility.NewCurrencyConverter(cfg.Currency.APIKey,
			utility.WithCurrencyMetrics(sc.metrics)))
	}
	if sc.newsAPI == nil {
		sc.newsAPI = news.NewNewsAPI(cfg.News.APIKey, "", nil, sc.metrics)
	}
	if sc.rss == nil {
		sc.rss = news.NewRSSReader("", nil, cfg.NewsCacheTTL(), sc.metrics)
	}
	if sc.translator == nil {
		sc.translator = translate.NewClient("", nil, sc.metrics)
	}
	if sc.legal == nil {
		assistant, err := legal.NewAssistant(cfg.Legal.UnansweredLog, sc.logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to load legal knowledge base: %w", err)
		}
		sc.legal = assistant
	}
	if sc.spotify == nil {
		sc.spotify = spotify.NewClient(spotify.Credentials{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
		}, spotify.WithMetrics(sc.metrics))
	}
	if sc.jobs == nil {
		sc.jobs = jobs.NewFinder(jobs.WithMetrics(sc.metrics))
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Config() config.Config { return sc.config }

func (sc *ServerContext) Logger() *slog.Logger { return sc.logger }

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics { return sc.metrics }

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger { return sc.audit }

// GmailClient returns a Gmail client authorized with accessToken.
func (sc *ServerContext) GmailClient(ctx context.Context, accessToken string) (*gmail.Client, error) {
	return gmail.NewClient(ctx, accessToken, sc.google)
}

// DriveClient returns a Drive client authorized with accessToken.
func (sc *ServerContext) DriveClient(ctx context.Context, accessToken string) (*drive.Client, error) {
	return drive.NewClient(ctx, accessToken, sc.google)
}

// CalendarClient returns a client for the configured calendar and time zone.
func (sc *ServerContext) CalendarClient(ctx context.Context, accessToken string) (*calendar.Client, error) {
	return calendar.NewClient(ctx, accessToken, sc.google, sc.config.Calendar.ID, sc.config.Location())
}

// Expenses returns the expense store or the error that prevented opening it.
func (sc *ServerContext) Expenses() (*expenses.Store, error) {
	if sc.expenses == nil {
		if sc.expensesError != nil {
			return nil, sc.expensesError
		}
		return nil, fmt.Errorf("expense store not configured")
	}
	return sc.expenses, nil
}

func (sc *ServerContext) Utility() *utility.Dispatcher { return sc.utility }
func (sc *ServerContext) NewsAPI() *news.NewsAPI { return sc.newsAPI }
func (sc *ServerContext) RSS() *news.RSSReader { return sc.rss }
func (sc *ServerContext) Translator() *translate.Client { return sc.translator }
func (sc *ServerContext) Legal() *legal.Assistant { return sc.legal }
func (sc *ServerContext) Spotify() *spotify.Client { return sc.spotify }
func (sc *ServerContext) Jobs() *jobs.Finder { return sc.jobs }

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the context and closes the expense store if this context
// opened it. Repeated calls are no-ops.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	if sc.ownsExpenses && sc.expenses != nil {
		return sc.expenses.Close()
	}
	return nil
}
