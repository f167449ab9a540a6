// Package config loads server settings from defaults, an optional YAML file
// and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the server and the operator CLI.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Auth   AuthConfig   `yaml:"auth"`
	Gate   GateConfig   `yaml:"gate"`
	Events EventsConfig `yaml:"events"`
	Log    LogConfig    `yaml:"log"`
	OIDC   OIDCConfig   `yaml:"oidc"`
}

// ServerConfig holds HTTP listener and cookie settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WebDir          string        `yaml:"web_dir"`
	SecureCookie    bool          `yaml:"secure_cookie"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AuthRatePerMinute caps signup and login attempts per client IP. Zero
	// disables the limit.
	AuthRatePerMinute int `yaml:"auth_rate_per_minute"`
}

// StoreConfig selects the backend and how to reach it.
type StoreConfig struct {
	Kind          string `yaml:"kind"`
	MongoURI      string `yaml:"mongodb_uri"`
	MongoDatabase string `yaml:"mongodb_database"`
	DatabaseURL   string `yaml:"database_url"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

// GateConfig controls how the page gate trusts the session cookie.
type GateConfig struct {
	VerifyTokens bool `yaml:"verify_tokens"`
}

// EventsConfig enables catalog change events when AMQPURL is set.
type EventsConfig struct {
	AMQPURL string `yaml:"amqp_url"`
}

// LogConfig sets the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OIDCConfig enables SSO when Issuer and ClientID are both set.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether SSO is configured.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			WebDir:            "web",
			ShutdownTimeout:   10 * time.Second,
			AuthRatePerMinute: 20,
		},
		Store: StoreConfig{
			Kind:          StoreMongo,
			MongoDatabase: "moviecatalog",
		},
		Auth: AuthConfig{TokenTTL: 24 * time.Hour},
		Gate: GateConfig{VerifyTokens: true},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds a Config. path names an optional YAML file; when empty,
// CONFIG_FILE is consulted. getenv is usually os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	e := envReader{getenv: getenv}

	e.str("ADDR", &cfg.Server.Addr)
	e.str("WEB_DIR", &cfg.Server.WebDir)
	e.boolean("SECURE_COOKIE", &cfg.Server.SecureCookie)
	e.integer("AUTH_RATE_PER_MINUTE", &cfg.Server.AuthRatePerMinute)
	e.duration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	e.str("STORE", &cfg.Store.Kind)
	e.str("MONGODB_URI", &cfg.Store.MongoURI)
	e.str("MONGODB_DATABASE", &cfg.Store.MongoDatabase)
	e.str("DATABASE_URL", &cfg.Store.DatabaseURL)

	e.str("TOKEN_SECRET", &cfg.Auth.TokenSecret)
	e.duration("TOKEN_TTL", &cfg.Auth.TokenTTL)
	e.boolean("GATE_VERIFY_TOKENS", &cfg.Gate.VerifyTokens)

	e.str("AMQP_URL", &cfg.Events.AMQPURL)
	e.str("LOG_LEVEL", &cfg.Log.Level)
	e.str("LOG_FORMAT", &cfg.Log.Format)

	e.str("OIDC_ISSUER", &cfg.OIDC.Issuer)
	e.str("OIDC_CLIENT_ID", &cfg.OIDC.ClientID)
	e.str("OIDC_CLIENT_SECRET", &cfg.OIDC.ClientSecret)
	e.str("OIDC_REDIRECT_URL", &cfg.OIDC.RedirectURL)

	return errors.Join(e.errs...)
}

// Validate checks that the settings can start a server.
func (c *Config) Validate() error {
	var errs []error

	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	switch c.Store.Kind {
	case StoreMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
		if c.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGODB_DATABASE must not be empty"))
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want mongo, postgres or memory)", c.Store.Kind))
	}

	if c.Auth.TokenSecret == "" && c.Store.Kind != StoreMemory {
		errs = append(errs, errors.New("TOKEN_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Server.AuthRatePerMinute < 0 {
		errs = append(errs, errors.New("AUTH_RATE_PER_MINUTE must not be negative"))
	}
	if c.OIDC.Enabled() && c.OIDC.RedirectURL == "" {
		errs = append(errs, errors.New("OIDC_REDIRECT_URL is required when SSO is enabled"))
	}
	return errors.Join(errs...)
}

type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) str(key string, dst *string) {
	if v := e.getenv(key); v != "" {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	v := e.getenv(key)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return
	}
	*dst = i
}

func (e *envReader) boolean(key string, dst *bool) {
	v := e.getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v := e.getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return
	}
	*dst = d
}
