package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxUploadSize)
	assert.Equal(t, 10, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, 7, cfg.Analytics.Days)
	assert.True(t, cfg.Tokens.ReconcileOnStart)
	assert.False(t, cfg.Auth.AllowSelfPromote)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKENUP_DATABASE_DRIVER", "memory")
	t.Setenv("PORT", "8088")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/tokenup")
	t.Setenv("TOKENUP_AUTH_ADMIN_USERNAMES", "alice,bob")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db/tokenup", cfg.Database.DSN)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Auth.AdminUsernames)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "tokenup.yaml")
	content := []byte(`
database:
  driver: sqlite
  path: /tmp/t.db
leaderboard:
  default_limit: 5
  max_limit: 20
analytics:
  timezone: Asia/Kolkata
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, "Asia/Kolkata", cfg.Analytics.Location().String())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:      ServerConfig{Port: 5000, Mode: "debug"},
			Session:     SessionConfig{Secret: "s"},
			Database:    DatabaseConfig{Driver: "memory"},
			Storage:     StorageConfig{Backend: "local", LocalDir: "x", MaxUploadSize: 1},
			Logging:     LoggingConfig{Level: "info", Format: "json"},
			Leaderboard: LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100},
			Analytics:   AnalyticsConfig{Timezone: "UTC", Days: 7},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, false},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, false},
		{"default secret in release", func(c *Config) {
			c.Server.Mode = "release"
			c.Session.Secret = "secret_key_change_me"
		}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, false},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, false},
		{"limits inverted", func(c *Config) { c.Leaderboard.MaxLimit = 5 }, false},
		{"bad timezone", func(c *Config) { c.Analytics.Timezone = "Mars/Olympus" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
