package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval.Std())
}

func TestLoadTOMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supstats.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"
format = "json"

[db]
driver = "postgres"
dsn = "postgres://localhost/supstats"

[api]
port = 9000
cors_origins = ["https://stats.example.com"]

[refresh]
interval = "1m"
`), 0o644))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SUPSTATS_TEST_DOTENV=loaded\n"), 0o644))

	t.Setenv("SUPSTATS_API_PORT", "9100")
	t.Setenv("SUPSTATS_ADMIN_KEY", "secret")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 9100, cfg.API.Port)
	assert.Equal(t, "secret", cfg.API.AdminKey)
	assert.Equal(t, []string{"https://stats.example.com"}, cfg.API.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.Refresh.Interval.Std())
	assert.Equal(t, "loaded", os.Getenv("SUPSTATS_TEST_DOTENV"))
	os.Unsetenv("SUPSTATS_TEST_DOTENV")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SUPSTATS_LOG_LEVEL":        "warn",
		"SUPSTATS_DB_DSN":           "/tmp/x.db",
		"CORS_ORIGINS":              " https://a.example , ,https://b.example",
		"SUPSTATS_REDIS_ADDR":       "localhost:6379",
		"SUPSTATS_REFRESH_INTERVAL": "30s",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, slog.LevelWarn, cfg.Log.Level)
	assert.Equal(t, "/tmp/x.db", cfg.DB.DSN)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.CORSOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Interval.Std())

	bad := Default()
	assert.Error(t, bad.applyEnv(func(k string) string {
		if k == "SUPSTATS_API_PORT" {
			return "eighty"
		}
		return ""
	}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.DB.Driver = "mysql" }},
		{"dsn", func(c *Config) { c.DB.DSN = "" }},
		{"port", func(c *Config) { c.API.Port = 0 }},
		{"interval", func(c *Config) { c.Refresh.Interval = 0 }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
