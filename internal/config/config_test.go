package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
api:
  secret: s3cret
firecrawl:
  api_key: fc-key
storage:
  github:
    token: ghp
    owner: me
    repo: notes
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:3000", cfg.API.PublicURL)
	assert.Equal(t, "https://api.firecrawl.dev", cfg.Firecrawl.BaseURL)
	assert.Equal(t, BackendGitHub, cfg.Storage.Backend)
	assert.Equal(t, "inbox", cfg.Storage.Prefix)
	assert.Equal(t, "main", cfg.Storage.GitHub.Branch)
	assert.Equal(t, 15*time.Second, cfg.Callback.Timeout)
	assert.Less(t, 3*cfg.Callback.Timeout, cfg.Server.WriteTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Callback.DedupeTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Database.Host)
	assert.Empty(t, cfg.RabbitMQ.URL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_INGEST_SECRET", "from-env")
	path := writeConfig(t, `
api:
  secret: ${TEST_INGEST_SECRET}
firecrawl:
  api_key: fc-key
storage:
  backend: vault
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.API.Secret)
	assert.Equal(t, "vault", cfg.Storage.Vault.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "api: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.secret is required")
	assert.Contains(t, err.Error(), "firecrawl.api_key is required")
	assert.Contains(t, err.Error(), "storage.github requires token, owner and repo")
}

func TestValidate_Backends(t *testing.T) {
	base := func() *Config {
		cfg := &Config{API: APIConfig{Secret: "s"}, Firecrawl: FirecrawlConfig{APIKey: "k"}}
		return cfg
	}

	cfg := base()
	cfg.Storage.Backend = BackendS3
	cfg.setDefaults()
	assert.ErrorContains(t, cfg.Validate(), "storage.s3.bucket is required")

	cfg.Storage.S3.Bucket = "notes"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Backend = "ftp"
	cfg.setDefaults()
	assert.ErrorContains(t, cfg.Validate(), `storage.backend "ftp"`)

	cfg = base()
	cfg.Storage.Backend = BackendVault
	cfg.Callback.Dedupe = true
	cfg.setDefaults()
	assert.ErrorContains(t, cfg.Validate(), "callback.dedupe requires redis.addr")
}

func TestValidate_BadTimezone(t *testing.T) {
	cfg := &Config{API: APIConfig{Secret: "s"}, Firecrawl: FirecrawlConfig{APIKey: "k"}}
	cfg.Storage.Backend = BackendVault
	cfg.Storage.Timezone = "Mars/Olympus"
	cfg.setDefaults()

	assert.ErrorContains(t, cfg.Validate(), "storage.timezone")
}

func TestPublicURL_Normalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "http://localhost:3000"},
		{"ingest.example.com", "https://ingest.example.com"},
		{"http://10.0.0.5:3000/", "http://10.0.0.5:3000"},
		{"https://ingest.example.com", "https://ingest.example.com"},
	}

	for _, tt := range tests {
		cfg := &Config{API: APIConfig{PublicURL: tt.in}}
		cfg.setDefaults()
		assert.Equal(t, tt.want, cfg.API.PublicURL, tt.in)
	}
}

func TestWebhookURL(t *testing.T) {
	cfg := &Config{API: APIConfig{PublicURL: "ingest.example.com"}}
	cfg.setDefaults()
	assert.Equal(t, "https://ingest.example.com/api/callback", cfg.WebhookURL())

	cfg.Callback.Token = "a b&c"
	assert.Equal(t, "https://ingest.example.com/api/callback?token=a+b%26c", cfg.WebhookURL())
}

func TestLocation(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Timezone: "Europe/Madrid"}}
	assert.Equal(t, "Europe/Madrid", cfg.Location().String())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "notes", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=notes sslmode=disable", d.DSN())
}

func TestValidate_CallbackBudgetFitsWriteTimeout(t *testing.T) {
	newConfig := func(callback, write time.Duration) *Config {
		cfg := &Config{API: APIConfig{Secret: "s"}, Firecrawl: FirecrawlConfig{APIKey: "k"}}
		cfg.Storage.Backend = BackendVault
		cfg.Callback.Timeout = callback
		cfg.Server.WriteTimeout = write
		cfg.setDefaults()
		return cfg
	}

	assert.NoError(t, newConfig(0, 0).Validate())
	assert.NoError(t, newConfig(19*time.Second, 60*time.Second).Validate())

	err := newConfig(30*time.Second, 60*time.Second).Validate()
	assert.ErrorContains(t, err, "callback.timeout 30s leaves no room")

	assert.ErrorContains(t, newConfig(20*time.Second, 60*time.Second).Validate(), "server.write_timeout 1m0s")
	assert.NoError(t, newConfig(30*time.Second, 2*time.Minute).Validate())
}
