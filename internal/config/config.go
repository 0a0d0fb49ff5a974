// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	PublicBaseURL   string        `yaml:"public_base_url"` // e.g. https://app.example.com
	HomeURL         string        `yaml:"home_url"`        // "go home" link on result pages
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       int           `yaml:"rate_limit"` // requests per client scope per window on /api; 0 disables
	RateWindow      time.Duration `yaml:"rate_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Driver    string        `yaml:"driver"` // memory|redis|postgres
	IntentTTL time.Duration `yaml:"intent_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	Secret       string        `yaml:"secret"`
	CookieName   string        `yaml:"cookie_name"`
	CookieDomain string        `yaml:"cookie_domain"`
	SecureCookie bool          `yaml:"secure_cookie"`
	TTL          time.Duration `yaml:"ttl"`
}

type PaymentConfig struct {
	ClientKey      string        `yaml:"client_key"` // widget (browser) key of the provider
	SuccessPath    string        `yaml:"success_path"`
	FailPath       string        `yaml:"fail_path"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Backend  BackendConfig  `yaml:"backend"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Payment  PaymentConfig  `yaml:"payment"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path. A .env file next to the process is
// loaded first (if present) so ${VAR} references in the YAML can be expanded.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes raw YAML, applies defaults and validates.
func Parse(raw []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.HomeURL == "" {
		cfg.Server.HomeURL = "/"
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.RateWindow <= 0 {
		cfg.Server.RateWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.IntentTTL <= 0 {
		cfg.Store.IntentTTL = 7 * 24 * time.Hour
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "client_scope"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 365 * 24 * time.Hour
	}
	if cfg.Payment.SuccessPath == "" {
		cfg.Payment.SuccessPath = "/payments/success"
	}
	if cfg.Payment.FailPath == "" {
		cfg.Payment.FailPath = "/payments/fail"
	}
	if cfg.Payment.ConfirmTimeout <= 0 {
		cfg.Payment.ConfirmTimeout = 20 * time.Second
	}
	if cfg.Payment.LockTTL <= 0 {
		cfg.Payment.LockTTL = cfg.Payment.ConfirmTimeout + 10*time.Second
	}
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session.secret must be at least 16 bytes")
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for store.driver=redis")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for store.driver=postgres")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	return nil
}

// CallbackURL joins the public base URL with a path served by this process.
func (c *Config) CallbackURL(path string) string {
	return strings.TrimRight(c.Server.PublicBaseURL, "/") + path
}
