package sitestatus_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sitestatus.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeYAML(t, "email:\n  to: ops@example.com\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Check.SSLExpiry)
	assert.True(t, cfg.Check.SSLFailSafe)
	assert.True(t, cfg.Store.Enabled)
	assert.True(t, cfg.Email.Enabled)
	assert.False(t, cfg.Store.TruncateBeforeRun)
	assert.Equal(t, "site_status", cfg.Store.Table)
	assert.Equal(t, 10*time.Second, cfg.Check.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Check.TLSTimeout)
	assert.Equal(t, 443, cfg.Check.TLSPort)
	assert.Equal(t, 1, cfg.Check.Concurrency)
	assert.Equal(t, DefaultFrom, cfg.Email.From)
	assert.Equal(t, DefaultFromName, cfg.Email.FromName)
	assert.Equal(t, "ops@example.com", cfg.Email.To)
	assert.Equal(t, "@hourly", cfg.Schedule.Cron)
	assert.True(t, cfg.Schedule.RunOnStart)
}

func TestLoad_FileOverrides(t *testing.T) {
	cfg, err := Load(writeYAML(t, `
domains: [example.com, https://example.org]
check:
  ssl_expiry: false
  concurrency: 4
store:
  backend: sqlite
  table: my_new_table
email:
  enabled: false
  from: "Status Bot <bot@example.com>"
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com", "https://example.org"}, cfg.Domains)
	assert.False(t, cfg.Check.SSLExpiry)
	assert.Equal(t, 4, cfg.Check.Concurrency)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "my_new_table", cfg.Store.Table)
	assert.Equal(t, "bot@example.com", cfg.Email.From)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STORE_TABLE", "from_env")
	t.Setenv("EMAIL_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Store.Table)
}

func TestValidate(t *testing.T) {
	t.Run("invalid sender falls back", func(t *testing.T) {
		c := Config{Email: Email{From: "not-an-address"}, Store: Store{Backend: "postgres"}}
		require.NoError(t, c.Validate())
		assert.Equal(t, DefaultFrom, c.Email.From)
	})
	t.Run("invalid recipient with email on", func(t *testing.T) {
		c := Config{Email: Email{Enabled: true, To: "nope"}, Store: Store{Backend: "postgres"}}
		require.Error(t, c.Validate())
	})
	t.Run("unknown backend", func(t *testing.T) {
		c := Config{Store: Store{Backend: "redis"}}
		require.Error(t, c.Validate())
	})
	t.Run("concurrency floor", func(t *testing.T) {
		c := Config{Store: Store{Backend: "mongo"}, Check: Check{Concurrency: -3}}
		require.NoError(t, c.Validate())
		assert.Equal(t, 1, c.Check.Concurrency)
	})
	t.Run("outbox needs postgres and kafka", func(t *testing.T) {
		c := Config{Store: Store{Enabled: true, Backend: "sqlite"}, Outbox: Outbox{Enabled: true}}
		c.Kafka.Enabled = true
		require.Error(t, c.Validate())

		c.Store.Backend = "postgres"
		require.NoError(t, c.Validate())

		c.Kafka.Enabled = false
		require.Error(t, c.Validate())
	})
}
