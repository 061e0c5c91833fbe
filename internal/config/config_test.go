package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), envconfig.MapLookuper(nil))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, BackendFile, cfg.Session.Backend)
	require.Equal(t, "localhost:6379", cfg.Session.Redis.Addr)
	require.Equal(t, "homeservices:session", cfg.Session.Redis.Prefix)
	require.False(t, cfg.Insecure)
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Parallel()
	p := writeFile(t, `
api_base_url: https://hs.example.com/api
http_timeout: 5s
insecure: true
log:
  level: debug
session:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
`)
	cfg, err := Load(context.Background(), p, envconfig.MapLookuper(map[string]string{
		"HS_HTTP_TIMEOUT": "9s",
		"HS_REDIS_DB":     "4",
	}))
	require.NoError(t, err)

	require.Equal(t, "https://hs.example.com/api", cfg.APIBaseURL, "file value kept")
	require.Equal(t, 9*time.Second, cfg.HTTPTimeout, "env overrides file")
	require.True(t, cfg.Insecure)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, BackendRedis, cfg.Session.Backend)
	require.Equal(t, "redis:6379", cfg.Session.Redis.Addr)
	require.Equal(t, 4, cfg.Session.Redis.DB)
	require.Equal(t, "homeservices:session", cfg.Session.Redis.Prefix, "default fills the gap")
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := Load(ctx, writeFile(t, "api_base_url: [\n"), envconfig.MapLookuper(nil))
	require.Error(t, err)

	_, err = Load(ctx, writeFile(t, "api_url: http://x\n"), envconfig.MapLookuper(nil))
	require.Error(t, err, "unknown keys are rejected")

	_, err = Load(ctx, writeFile(t, ""), envconfig.MapLookuper(map[string]string{"HS_HTTP_TIMEOUT": "soon"}))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	ok := func() Config {
		return Config{
			APIBaseURL:  "http://localhost:5000/api",
			HTTPTimeout: time.Second,
			Log:         LogConfig{Level: "info"},
			Session:     SessionConfig{Backend: BackendMemory},
		}
	}
	require.NoError(t, ok().Validate())

	tests := map[string]func(*Config){
		"relative url":  func(c *Config) { c.APIBaseURL = "/api" },
		"ftp url":       func(c *Config) { c.APIBaseURL = "ftp://x/api" },
		"zero timeout":  func(c *Config) { c.HTTPTimeout = 0 },
		"bad level":     func(c *Config) { c.Log.Level = "loud" },
		"bad backend":   func(c *Config) { c.Session.Backend = "sqlite" },
		"redis no addr": func(c *Config) { c.Session.Backend = BackendRedis },
	}
	for name, mut := range tests {
		c := ok()
		mut(&c)
		require.Error(t, c.Validate(), name)
	}
}

func TestDefaultPathAndSessionDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.Equal(t, filepath.Join(dir, "homeservices", "config.yaml"), DefaultPath())

	require.Equal(t, filepath.Join(dir, "homeservices"), Config{}.SessionDir())
	require.Equal(t, "/tmp/x", Config{Session: SessionConfig{Dir: "/tmp/x"}}.SessionDir())
}
