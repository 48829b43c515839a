package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Auth header schemes understood by the practice API.
const (
	AuthHeaderBearer = "bearer"
	AuthHeaderToken  = "x-auth-token"
)

type Config struct {
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	APIBaseURL       string        `mapstructure:"API_BASE_URL"`
	APIToken         string        `mapstructure:"API_TOKEN"`
	AuthHeader       string        `mapstructure:"AUTH_HEADER"`
	SessionFile      string        `mapstructure:"SESSION_FILE"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PageSize         int           `mapstructure:"PAGE_SIZE"`
	NotifyDuration   time.Duration `mapstructure:"NOTIFY_DURATION"`
	NotifyMaxVisible int           `mapstructure:"NOTIFY_MAX_VISIBLE"`
	StubPort         string        `mapstructure:"STUB_PORT"`
	StubTokenSecret  string        `mapstructure:"STUB_TOKEN_SECRET"`
	StubUsername     string        `mapstructure:"STUB_USERNAME"`
	StubPassword     string        `mapstructure:"STUB_PASSWORD"`
	StubSeed         bool          `mapstructure:"STUB_SEED"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("AUTH_HEADER", AuthHeaderBearer)
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("NOTIFY_DURATION", "4s")
	v.SetDefault("NOTIFY_MAX_VISIBLE", 3)
	v.SetDefault("STUB_PORT", "8000")
	v.SetDefault("STUB_TOKEN_SECRET", "praxis-dev-secret")
	v.SetDefault("STUB_USERNAME", "admin")
	v.SetDefault("STUB_PASSWORD", "admin")
	v.SetDefault("STUB_SEED", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "API_BASE_URL", "API_TOKEN", "AUTH_HEADER",
		"SESSION_FILE", "REQUEST_TIMEOUT", "PAGE_SIZE", "NOTIFY_DURATION",
		"NOTIFY_MAX_VISIBLE", "STUB_PORT", "STUB_TOKEN_SECRET",
		"STUB_USERNAME", "STUB_PASSWORD", "STUB_SEED",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AuthHeader = strings.ToLower(strings.TrimSpace(cfg.AuthHeader))
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".praxis-session.json"
	}
	return filepath.Join(home, ".praxis", "session.json")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration can drive the console.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL is not a valid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL scheme must be http or https, got %q", u.Scheme)
	}
	if c.AuthHeader != AuthHeaderBearer && c.AuthHeader != AuthHeaderToken {
		return fmt.Errorf("AUTH_HEADER must be %q or %q, got %q", AuthHeaderBearer, AuthHeaderToken, c.AuthHeader)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.NotifyDuration <= 0 {
		return fmt.Errorf("NOTIFY_DURATION must be positive")
	}
	if c.NotifyMaxVisible <= 0 {
		return fmt.Errorf("NOTIFY_MAX_VISIBLE must be positive, got %d", c.NotifyMaxVisible)
	}
	if c.SessionFile == "" {
		return fmt.Errorf("SESSION_FILE is required")
	}
	return nil
}

// StubAddr is the listen address of the development API.
func (c *Config) StubAddr() string {
	return ":" + c.StubPort
}
