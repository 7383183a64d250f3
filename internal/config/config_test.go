package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, TransportStreamableHTTP, cfg.Server.Transport)
	assert.Equal(t, ":8086", cfg.Server.HTTPAddr)
	assert.Equal(t, "primary", cfg.Calendar.ID)
	assert.Equal(t, "UTC", cfg.Calendar.TimeZone)
	assert.Equal(t, "expenses.db", cfg.Expenses.DBPath)
	assert.Equal(t, 10*time.Minute, cfg.NewsCacheTTL())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  transport: sse
  httpAddr: ":9000"
puch:
  myNumber: "919876543210"
calendar:
  timeZone: Asia/Kolkata
news:
  cacheTTLSeconds: 60
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.loadFile(path))

	assert.Equal(t, TransportSSE, cfg.Server.Transport)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "919876543210", cfg.Puch.MyNumber)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Equal(t, time.Minute, cfg.NewsCacheTTL())
	assert.Equal(t, "primary", cfg.Calendar.ID, "unset fields keep defaults")
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
transport = "stdio"

[auth]
static_token = "puch-secret"

[expenses]
db_path = "/var/lib/daily/expenses.db"
`), 0o600))

	cfg := Default()
	require.NoError(t, cfg.loadFile(path))

	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, "puch-secret", cfg.Auth.StaticToken)
	assert.Equal(t, "/var/lib/daily/expenses.db", cfg.Expenses.DBPath)
}

func TestLoad_FileErrors(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	err := cfg.loadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist, "an explicitly named file must exist")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unclosed"), 0o600))
	assert.Error(t, cfg.loadFile(bad))

	ini := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(ini, []byte("x=1"), 0o600))
	err = cfg.loadFile(ini)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file extension")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "typo.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envFrom(map[string]string{
		"AUTH_TOKEN":                    "tok",
		"MY_NUMBER":                     "15550100",
		"GOOGLE_CALENDAR_ID":            "team@example.com",
		"TIME_ZONE":                     "Europe/London",
		"NEWS_API":                      "news-key",
		"NEWS_CACHE_TTL":                "30",
		"MCP_ALLOW_PUBLIC_REGISTRATION": "true",
		"DEBUG":                         "not-bool",
		"EXPENSE_DB_PATH":               "",
	}))

	assert.Equal(t, "tok", cfg.Auth.StaticToken)
	assert.Equal(t, "15550100", cfg.Puch.MyNumber)
	assert.Equal(t, "team@example.com", cfg.Calendar.ID)
	assert.Equal(t, "Europe/London", cfg.Calendar.TimeZone)
	assert.Equal(t, "news-key", cfg.News.APIKey)
	assert.Equal(t, 30*time.Second, cfg.NewsCacheTTL())
	assert.True(t, cfg.Auth.AllowPublicRegistration)
	assert.False(t, cfg.Server.Debug, "unparseable bool is ignored")
	assert.Equal(t, "expenses.db", cfg.Expenses.DBPath, "empty value is ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad transport", func(c *Config) { c.Server.Transport = "websocket" }, "unsupported transport"},
		{"bad time zone", func(c *Config) { c.Calendar.TimeZone = "Mars/Olympus" }, "invalid TIME_ZONE"},
		{"negative ttl", func(c *Config) { c.News.CacheTTLSeconds = -1 }, "must not be negative"},
		{"half spotify", func(c *Config) { c.Spotify.ClientID = "id" }, "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSpotifyConfigured(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.SpotifyConfigured())

	cfg.Spotify = SpotifyConfig{ClientID: "id", ClientSecret: "secret", RefreshToken: "rt"}
	assert.True(t, cfg.SpotifyConfigured())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DAILY_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DAILY_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("DAILY_TEST_DOTENV"))
}
