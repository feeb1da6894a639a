// Package config loads the catalog server configuration.
//
// Sources, lowest precedence first: built-in defaults, an optional TOML
// file, then CATALOG_* environment variables (CATALOG_CURSOR_KEY,
// CATALOG_DATABASE_PATH, ...).
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/catalog/internal/cursor"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "CATALOG"

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cursor    CursorConfig    `mapstructure:"cursor"`
	Site      SiteConfig      `mapstructure:"site"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// CursorConfig holds the cursor sealing key. Key is a JWK or base64 key
// bytes; see cursor.ParseKey.
type CursorConfig struct {
	Key       string `mapstructure:"key"`
	Algorithm string `mapstructure:"algorithm"`
}

// SiteConfig names the hosts public URLs are built on.
type SiteConfig struct {
	Domain      string `mapstructure:"domain"`
	FilesDomain string `mapstructure:"files_domain"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// RateLimitConfig bounds requests per second across all clients. RPS zero
// disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// SetDefaults registers every key with its default. Keys without a default
// are invisible to environment overrides, so each one is listed here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("database.path", "catalog.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("cursor.key", "")
	v.SetDefault("cursor.algorithm", string(cursor.AESGCM))
	v.SetDefault("site.domain", "")
	v.SetDefault("site.files_domain", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("rate_limit.rps", 0.0)
	v.SetDefault("rate_limit.burst", 20)
}

// NewViper returns a viper instance with defaults and environment binding.
// path, if not empty, is read as a TOML file.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}
	return v, nil
}

// Load reads and validates the configuration.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first problem that would stop the server from
// starting. The cursor key is parsed here so a bad key fails at startup
// rather than on the first paged request.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			return errors.Newf("%s must be positive, got %s", name, d)
		}
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Database.MaxOpenConns < 0 {
		return errors.Newf("database.max_open_conns must not be negative, got %d", c.Database.MaxOpenConns)
	}
	if c.Site.Domain == "" {
		return errors.New("site.domain is required")
	}
	if c.Site.FilesDomain == "" {
		return errors.New("site.files_domain is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if c.RateLimit.RPS < 0 {
		return errors.Newf("rate_limit.rps must not be negative, got %v", c.RateLimit.RPS)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return errors.Newf("rate_limit.burst must be at least 1, got %d", c.RateLimit.Burst)
	}
	if _, err := c.CursorKey(); err != nil {
		return err
	}
	return nil
}

// CursorKey parses the configured cursor key.
func (c *Config) CursorKey() (*cursor.Key, error) {
	if c.Cursor.Key == "" {
		return nil, errors.Newf("cursor.key is required (set %s_CURSOR_KEY; `catalog keygen` prints one)", EnvPrefix)
	}
	key, err := cursor.ParseKey(c.Cursor.Key, cursor.Algorithm(c.Cursor.Algorithm))
	if err != nil {
		return nil, errors.Wrap(err, "cursor.key")
	}
	return key, nil
}
