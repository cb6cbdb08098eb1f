// Package config loads application configuration from an optional YAML
// file and SUBGARDEN_ prefixed environment variables. Environment values
// override file values; a double underscore maps to a nesting level
// (SUBGARDEN_DATABASE__URL sets database.url).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SUBGARDEN_"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Cookie   CookieConfig   `koanf:"cookie"`
	CORS     CORSConfig     `koanf:"cors"`
	Checker  CheckerConfig  `koanf:"checker"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug|info|warn|error
	Format string `koanf:"format"` // text|json
}

// AuthConfig contains the admin credential and session settings.
type AuthConfig struct {
	Username      string        `koanf:"username"`
	Password      string        `koanf:"password"` // bcrypt hash or plaintext
	JWTSecret     string        `koanf:"jwt_secret"`
	TokenDuration time.Duration `koanf:"token_duration"`
}

// CookieConfig contains session cookie settings.
type CookieConfig struct {
	Secure bool   `koanf:"secure"`
	Domain string `koanf:"domain"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// CheckerConfig contains the renewal check scheduler settings.
type CheckerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	Interval            time.Duration `koanf:"interval"`
	DefaultReminderDays int           `koanf:"default_reminder_days"`
	DispatchTimeout     time.Duration `koanf:"dispatch_timeout"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			Username:      "admin",
			TokenDuration: 24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Checker: CheckerConfig{
			Enabled:             true,
			Interval:            time.Hour,
			DefaultReminderDays: 7,
			DispatchTimeout:     10 * time.Second,
		},
	}
}

// Load reads configuration from the given YAML file (optional, may be
// empty) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKeyMapper(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.Password == "" {
		return fmt.Errorf("auth.password is required")
	}
	if c.Checker.Interval <= 0 {
		return fmt.Errorf("checker.interval must be positive")
	}
	return nil
}
