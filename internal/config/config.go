// Package config loads server configuration from defaults, an optional YAML
// or TOML file, a .env file and the process environment, in increasing order
// of precedence. Command-line flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transports supported by the serve command.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Puch     PuchConfig     `yaml:"puch" toml:"puch"`
	Calendar CalendarConfig `yaml:"calendar" toml:"calendar"`
	Expenses ExpensesConfig `yaml:"expenses" toml:"expenses"`
	Currency CurrencyConfig `yaml:"currency" toml:"currency"`
	News     NewsConfig     `yaml:"news" toml:"news"`
	Spotify  SpotifyConfig  `yaml:"spotify" toml:"spotify"`
	Legal    LegalConfig    `yaml:"legal" toml:"legal"`
}

type ServerConfig struct {
	Transport   string `yaml:"transport" toml:"transport"`
	HTTPAddr    string `yaml:"httpAddr" toml:"http_addr"`
	BaseURL     string `yaml:"baseURL" toml:"base_url"`
	MetricsAddr string `yaml:"metricsAddr" toml:"metrics_addr"`
	LogFormat   string `yaml:"logFormat" toml:"log_format"`
	Debug       bool   `yaml:"debug" toml:"debug"`
}

// AuthConfig configures the Auth Gateway.
type AuthConfig struct {
	// StaticToken is the bearer token handed to the Puch client (AUTH_TOKEN).
	StaticToken string `yaml:"staticToken" toml:"static_token"`

	RegistrationToken       string `yaml:"registrationToken" toml:"registration_token"`
	AllowPublicRegistration bool   `yaml:"allowPublicRegistration" toml:"allow_public_registration"`

	GoogleClientID     string `yaml:"googleClientID" toml:"google_client_id"`
	GoogleClientSecret string `yaml:"googleClientSecret" toml:"google_client_secret"`

	// GoogleAccessToken is attached to stdio and static-token sessions.
	GoogleAccessToken string `yaml:"googleAccessToken" toml:"google_access_token"`
}

type PuchConfig struct {
	// MyNumber is returned by the validate tool, digits with country code.
	MyNumber string `yaml:"myNumber" toml:"my_number"`
}

type CalendarConfig struct {
	ID       string `yaml:"id" toml:"id"`
	TimeZone string `yaml:"timeZone" toml:"time_zone"`
}

type ExpensesConfig struct {
	DBPath string `yaml:"dbPath" toml:"db_path"`
}

type CurrencyConfig struct {
	APIKey string `yaml:"apiKey" toml:"api_key"`
}

type NewsConfig struct {
	APIKey          string `yaml:"apiKey" toml:"api_key"`
	CacheTTLSeconds int    `yaml:"cacheTTLSeconds" toml:"cache_ttl_seconds"`
}

type SpotifyConfig struct {
	ClientID     string `yaml:"clientID" toml:"client_id"`
	ClientSecret string `yaml:"clientSecret" toml:"client_secret"`
	RefreshToken string `yaml:"refreshToken" toml:"refresh_token"`
}

type LegalConfig struct {
	UnansweredLog string `yaml:"unansweredLog" toml:"unanswered_log"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Transport:   TransportStreamableHTTP,
			HTTPAddr:    ":8086",
			MetricsAddr: ":9090",
			LogFormat:   "text",
		},
		Calendar: CalendarConfig{ID: "primary", TimeZone: "UTC"},
		Expenses: ExpensesConfig{DBPath: "expenses.db"},
		News:     NewsConfig{CacheTTLSeconds: 600},
		Legal:    LegalConfig{UnansweredLog: "unanswered_questions.log"},
	}
}

// Load builds a Config from defaults, the file at path (if any) and the
// environment. An empty path skips the file; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("error loading config from %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("error loading config from %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			if parsed, err := strconv.ParseBool(v); err == nil {
				*dst = parsed
			}
		}
	}

	str("MCP_TRANSPORT", &c.Server.Transport)
	str("MCP_HTTP_ADDR", &c.Server.HTTPAddr)
	str("MCP_BASE_URL", &c.Server.BaseURL)
	str("METRICS_ADDR", &c.Server.MetricsAddr)
	str("LOG_FORMAT", &c.Server.LogFormat)
	boolean("DEBUG", &c.Server.Debug)

	str("AUTH_TOKEN", &c.Auth.StaticToken)
	str("MCP_REGISTRATION_TOKEN", &c.Auth.RegistrationToken)
	boolean("MCP_ALLOW_PUBLIC_REGISTRATION", &c.Auth.AllowPublicRegistration)
	str("GOOGLE_CLIENT_ID", &c.Auth.GoogleClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Auth.GoogleClientSecret)
	str("GOOGLE_ACCESS_TOKEN", &c.Auth.GoogleAccessToken)

	str("MY_NUMBER", &c.Puch.MyNumber)
	str("GOOGLE_CALENDAR_ID", &c.Calendar.ID)
	str("TIME_ZONE", &c.Calendar.TimeZone)
	str("EXPENSE_DB_PATH", &c.Expenses.DBPath)
	str("CURRENCY_API_KEY", &c.Currency.APIKey)
	str("NEWS_API", &c.News.APIKey)
	if v, ok := lookup("NEWS_CACHE_TTL"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.News.CacheTTLSeconds = n
		}
	}
	str("SPOTIFY_CLIENT_ID", &c.Spotify.ClientID)
	str("SPOTIFY_CLIENT_SECRET", &c.Spotify.ClientSecret)
	str("SPOTIFY_REFRESH_TOKEN", &c.Spotify.RefreshToken)
	str("LEGAL_UNANSWERED_LOG", &c.Legal.UnansweredLog)
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport %q (use stdio, sse or streamable-http)", c.Server.Transport)
	}

	if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.Calendar.TimeZone, err)
	}

	if c.News.CacheTTLSeconds < 0 {
		return fmt.Errorf("news cache TTL must not be negative, got %d", c.News.CacheTTLSeconds)
	}

	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}

	return nil
}

// Location returns the configured calendar time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewsCacheTTL returns the Google News cache lifetime.
func (c *Config) NewsCacheTTL() time.Duration {
	return time.Duration(c.News.CacheTTLSeconds) * time.Second
}

// SpotifyConfigured reports whether all Spotify credentials are present.
func (c *Config) SpotifyConfigured() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != "" && c.Spotify.RefreshToken != ""
}
