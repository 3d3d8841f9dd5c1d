package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Sandbox   SandboxConfig
	Assistant AssistantConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// SandboxConfig holds snippet execution limits.
type SandboxConfig struct {
	Timeout        time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
	PoolSize       int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	MaxCallStack   int           `envconfig:"SANDBOX_MAX_CALL_STACK" default:"1024"`
	EnableConsole  bool          `envconfig:"SANDBOX_ENABLE_CONSOLE" default:"true"`
	EnableDOM      bool          `envconfig:"SANDBOX_ENABLE_DOM" default:"true"`
	MaxSourceBytes int           `envconfig:"SANDBOX_MAX_SOURCE_BYTES" default:"65536"`
}

// AssistantConfig holds the remote completion service configuration.
type AssistantConfig struct {
	Enabled           bool          `envconfig:"ASSISTANT_ENABLED" default:"true"`
	BaseURL           string        `envconfig:"ASSISTANT_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey            string        `envconfig:"ASSISTANT_API_KEY"`
	Model             string        `envconfig:"ASSISTANT_MODEL" default:"gpt-4o-mini"`
	Timeout           time.Duration `envconfig:"ASSISTANT_TIMEOUT" default:"30s"`
	RequestsPerSecond float64       `envconfig:"ASSISTANT_RPS" default:"2"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values envconfig cannot express as types.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is empty"))
	}
	if c.Sandbox.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("sandbox pool size must be positive, got %d", c.Sandbox.PoolSize))
	}
	if c.Sandbox.Timeout < 0 {
		errs = append(errs, fmt.Errorf("sandbox timeout must not be negative, got %s", c.Sandbox.Timeout))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("rate limit rps must be positive, got %d", c.RateLimit.RequestsPerSecond))
	}
	return errors.Join(errs...)
}

// AssistantReady reports whether assistant requests can be forwarded.
func (c *Config) AssistantReady() bool {
	return c.Assistant.Enabled && c.Assistant.APIKey != "" && c.Assistant.BaseURL != ""
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Sandbox: SandboxConfig{
			Timeout:        5 * time.Second,
			PoolSize:       4,
			MaxCallStack:   1024,
			EnableConsole:  true,
			EnableDOM:      true,
			MaxSourceBytes: 65536,
		},
		Assistant: AssistantConfig{
			Enabled:           true,
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
		},
	}
}
