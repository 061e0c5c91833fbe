// Package config loads client settings from an optional YAML file and the
// environment. Environment variables override the file; command-line flags
// are applied on top by the caller.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/and161185/homeservices/internal/session"
)

// Session backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the complete client configuration.
type Config struct {
	APIBaseURL  string        `yaml:"api_base_url" env:"HS_API_BASE_URL, default=http://localhost:5000/api"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"HS_HTTP_TIMEOUT, default=30s"`
	CACert      string        `yaml:"ca_cert" env:"HS_CA_CERT"`
	Insecure    bool          `yaml:"insecure" env:"HS_INSECURE"`
	Tracing     bool          `yaml:"tracing" env:"HS_TRACING"`

	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level string `yaml:"level" env:"HS_LOG_LEVEL, default=info"`
	Dev   bool   `yaml:"dev" env:"HS_LOG_DEV"`
}

// SessionConfig selects where the session is kept.
type SessionConfig struct {
	Backend    string      `yaml:"backend" env:"HS_SESSION_BACKEND, default=file"`
	Dir        string      `yaml:"dir" env:"HS_SESSION_DIR"`
	Passphrase string      `yaml:"passphrase" env:"HS_SESSION_PASSPHRASE"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr   string `yaml:"addr" env:"HS_REDIS_ADDR, default=localhost:6379"`
	DB     int    `yaml:"db" env:"HS_REDIS_DB"`
	Prefix string `yaml:"prefix" env:"HS_REDIS_PREFIX, default=homeservices:session"`
}

// DefaultPath is $XDG_CONFIG_HOME/homeservices/config.yaml.
func DefaultPath() string {
	return filepath.Join(session.DefaultDir(), "config.yaml")
}

// Load reads path (DefaultPath when empty; a missing file is fine), then the
// environment through l (the process environment when nil), then validates.
func Load(ctx context.Context, path string, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if path == "" {
		path = DefaultPath()
	}
	if err := readFile(path, &cfg); err != nil {
		return Config{}, err
	}

	if l == nil {
		l = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           &cfg,
		Lookuper:         l,
		DefaultOverwrite: true,
	}); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the client cannot start with.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api base url %q must be an absolute http(s) url", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.Session.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Session.Redis.Addr == "" {
			return errors.New("redis session backend needs an address")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	return nil
}

// SessionDir is the configured directory or the default one.
func (c Config) SessionDir() string {
	if c.Session.Dir != "" {
		return c.Session.Dir
	}
	return session.DefaultDir()
}
