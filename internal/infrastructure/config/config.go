package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

// Bridge modes
const (
	ModeProcess   = "process"
	ModeSimulator = "simulator"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Bridge    BridgeConfig
	Collector CollectorConfig
	History   HistoryConfig
	Profile   ProfileConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// BridgeConfig selects and tunes the optimization backend.
type BridgeConfig struct {
	Mode          string        `envconfig:"BRIDGE_MODE" default:"process"`
	Executable    string        `envconfig:"BRIDGE_EXECUTABLE" default:"qsolver"`
	PrimaryEntry  string        `envconfig:"BRIDGE_PRIMARY_ENTRY" default:"primary"`
	FallbackEntry string        `envconfig:"BRIDGE_FALLBACK_ENTRY" default:"fallback"`
	MaxRetries    int           `envconfig:"BRIDGE_MAX_RETRIES" default:"1"`
	RetryBackoff  time.Duration `envconfig:"BRIDGE_RETRY_BACKOFF" default:"500ms"`
	Shots         int           `envconfig:"BRIDGE_SHOTS" default:"1024"`
	Timeout       time.Duration `envconfig:"BRIDGE_TIMEOUT" default:"30s"`
	Layers        int           `envconfig:"BRIDGE_LAYERS" default:"2"`
}

// CollectorConfig holds the metric collection schedule.
type CollectorConfig struct {
	Enabled          bool          `envconfig:"COLLECTOR_ENABLED" default:"true"`
	NetworkInterval  time.Duration `envconfig:"COLLECTOR_NETWORK_INTERVAL" default:"2s"`
	SystemInterval   time.Duration `envconfig:"COLLECTOR_SYSTEM_INTERVAL" default:"3s"`
	OptimizeInterval time.Duration `envconfig:"COLLECTOR_OPTIMIZE_INTERVAL" default:"30s"`
	Window           time.Duration `envconfig:"COLLECTOR_WINDOW" default:"30s"`
	ProbeURL         string        `envconfig:"COLLECTOR_PROBE_URL"`
}

// HistoryConfig locates the optimization history database.
type HistoryConfig struct {
	Path string `envconfig:"HISTORY_PATH"`
}

// ProfileConfig locates the optimizer profile.
type ProfileConfig struct {
	Path string `envconfig:"PROFILE_PATH"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Bridge: BridgeConfig{
			Mode:          ModeProcess,
			Executable:    "qsolver",
			PrimaryEntry:  "primary",
			FallbackEntry: "fallback",
			MaxRetries:    1,
			RetryBackoff:  500 * time.Millisecond,
			Shots:         1024,
			Timeout:       30 * time.Second,
			Layers:        2,
		},
		Collector: CollectorConfig{
			Enabled:          true,
			NetworkInterval:  2 * time.Second,
			SystemInterval:   3 * time.Second,
			OptimizeInterval: 30 * time.Second,
			Window:           30 * time.Second,
		},
	}
}

// Validate rejects settings the bridge cannot run with.
func (c *Config) Validate() error {
	b := c.Bridge
	switch b.Mode {
	case ModeProcess:
		if b.Executable == "" || b.PrimaryEntry == "" || b.FallbackEntry == "" {
			return fmt.Errorf("%w: process mode needs an executable and both entry points", ErrInvalid)
		}
	case ModeSimulator:
	default:
		return fmt.Errorf("%w: unknown bridge mode %q", ErrInvalid, b.Mode)
	}
	if b.MaxRetries < 0 || b.RetryBackoff < 0 {
		return fmt.Errorf("%w: retries and backoff must not be negative", ErrInvalid)
	}
	if b.Shots <= 0 || b.Layers <= 0 || b.Timeout <= 0 {
		return fmt.Errorf("%w: shots, layers and timeout must be positive", ErrInvalid)
	}
	if b.Layers > problem.MaxLayers {
		return fmt.Errorf("%w: at most %d layers fit one backend invocation", ErrInvalid, problem.MaxLayers)
	}
	return nil
}
