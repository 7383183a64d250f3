// Package expenses records per-user spending in SQLite and reports on it.
// Users are identified by phone number.
package expenses

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Akasxh/mcp-server-daily/internal/logging"
)

// TimestampLayout is how timestamps are stored. Being lexically ordered,
// range filters compare the text directly.
const TimestampLayout = "2006-01-02T15:04:05"

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrMissingCategory   = errors.New("category is required")
	ErrMissingPhone      = errors.New("phone is required")
	ErrUnsupportedFormat = errors.New("Unsupported format. Use 'csv' or 'json'.")
)

// Expense is one recorded spend.
type Expense struct {
	ID        string
	Phone     string
	Amount    float64
	Category  string
	Timestamp time.Time
}

// Store persists expenses in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the zone used for week and month boundaries and for
// stored timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens or creates the database at path. Parent directories are created
// as needed.
func Open(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer at a time; SQLite serialises anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logging.WithService(logger, "expenses"),
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Info("Expense store initialized", "path", path)
	return s, nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS expenses (
			id        TEXT PRIMARY KEY,
			phone     TEXT NOT NULL,
			amount    REAL NOT NULL,
			category  TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_expenses_phone_timestamp
			ON expenses(phone, timestamp);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Now is the store's clock in its location.
func (s *Store) Now() time.Time {
	return s.now().In(s.loc)
}

// Add records an expense. A zero Timestamp means now.
func (s *Store) Add(ctx context.Context, e Expense) (Expense, error) {
	e.Phone = strings.TrimSpace(e.Phone)
	e.Category = strings.TrimSpace(e.Category)
	switch {
	case e.Phone == "":
		return Expense{}, ErrMissingPhone
	case e.Amount <= 0:
		return Expense{}, ErrInvalidAmount
	case e.Category == "":
		return Expense{}, ErrMissingCategory
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.Now()
	}
	e.ID = uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, phone, amount, category, timestamp) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Phone, e.Amount, e.Category, s.format(e.Timestamp),
	)
	if err != nil {
		return Expense{}, fmt.Errorf("inserting expense: %w", err)
	}

	s.logger.Debug("Expense recorded", logging.Owner(e.Phone), "category", e.Category)
	return e, nil
}

// WeeklySummary totals the user's spending per category since Monday 00:00.
func (s *Store) WeeklySummary(ctx context.Context, phone string) (map[string]float64, error) {
	start := startOfWeek(s.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount) FROM expenses
		WHERE phone = ? AND timestamp >= ?
		GROUP BY category`,
		phone, s.format(start),
	)
	if err != nil {
		return nil, fmt.Errorf("querying weekly summary: %w", err)
	}
	return collectTotals(rows)
}

// MonthlyBreakdown totals the user's spending in category per day of the
// current month. Keys are YYYY-MM-DD.
func (s *Store) MonthlyBreakdown(ctx context.Context, phone, category string) (map[string]float64, error) {
	now := s.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(timestamp), SUM(amount) FROM expenses
		WHERE phone = ? AND category = ? AND timestamp >= ? AND timestamp < ?
		GROUP BY DATE(timestamp)
		ORDER BY DATE(timestamp)`,
		phone, category, s.format(start), s.format(end),
	)
	if err != nil {
		return nil, fmt.Errorf("querying monthly breakdown: %w", err)
	}
	return collectTotals(rows)
}

// List returns all of the user's expenses, oldest first.
func (s *Store) List(ctx context.Context, phone string) ([]Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phone, amount, category, timestamp FROM expenses
		WHERE phone = ?
		ORDER BY timestamp`,
		phone,
	)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		var ts string
		if err := rows.Scan(&e.ID, &e.Phone, &e.Amount, &e.Category, &ts); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		e.Timestamp, err = time.ParseInLocation(TimestampLayout, ts, s.loc)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", ts, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type exportRow struct {
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	Timestamp string  `json:"timestamp"`
}

// Export renders the user's expenses as "csv" or "json".
func (s *Store) Export(ctx context.Context, phone, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "json" {
		return "", ErrUnsupportedFormat
	}

	list, err := s.List(ctx, phone)
	if err != nil {
		return "", err
	}

	rows := make([]exportRow, 0, len(list))
	for _, e := range list {
		rows = append(rows, exportRow{Amount: e.Amount, Category: e.Category, Timestamp: s.format(e.Timestamp)})
	}

	if format == "json" {
		b, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"amount", "category", "timestamp"})
	for _, r := range rows {
		_ = w.Write([]string{strconv.FormatFloat(r.Amount, 'f', -1, 64), r.Category, r.Timestamp})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Store) format(t time.Time) string {
	return t.In(s.loc).Format(TimestampLayout)
}

func startOfWeek(now time.Time) time.Time {
	// time.Weekday has Sunday as 0; weeks start on Monday
	offset := (int(now.Weekday()) + 6) % 7
	d := now.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
}

func collectTotals(rows *sql.Rows) (map[string]float64, error) {
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var key string
		var sum float64
		if err := rows.Scan(&key, &sum); err != nil {
			return nil, fmt.Errorf("scanning totals: %w", err)
		}
		totals[key] = sum
	}
	return totals, rows.Err()
}
