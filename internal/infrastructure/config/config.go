package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Scheduler SchedulerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// MaxConnections caps concurrent connections; zero means unlimited.
	MaxConnections int `envconfig:"MAX_CONNECTIONS" default:"1024"`
}

// SchedulerConfig holds process table and scheduler configuration.
type SchedulerConfig struct {
	TotalTickets   int           `envconfig:"STRIDE_TOTAL_TICKETS" default:"100"`
	DefaultTickets int           `envconfig:"DEFAULT_TICKETS" default:"100"`
	Policy         int           `envconfig:"SCHED_POLICY" default:"0"`
	TickInterval   time.Duration `envconfig:"TICK_INTERVAL" default:"10ms"`
	MaxProcs       int           `envconfig:"MAX_PROCS" default:"64"`
	MaxMemory      int           `envconfig:"MAX_PROCESS_MEMORY" default:"67108864"`
	BootManifest   string        `envconfig:"BOOT_MANIFEST"`
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
	// Global shares one bucket across all clients instead of one per IP.
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" default:"false"`
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
			Port:           "8000",
			Host:           "0.0.0.0",
			MaxConnections: 1024,
		},
		Scheduler: SchedulerConfig{
			TotalTickets:   100,
			DefaultTickets: 100,
			Policy:         0,
			TickInterval:   10 * time.Millisecond,
			MaxProcs:       64,
			MaxMemory:      64 << 20,
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
	}
}

// Validate rejects values the process table cannot run with.
func (c *Config) Validate() error {
	if c.Scheduler.TotalTickets <= 0 {
		return fmt.Errorf("STRIDE_TOTAL_TICKETS must be positive, got %d", c.Scheduler.TotalTickets)
	}
	if c.Scheduler.DefaultTickets <= 0 {
		return fmt.Errorf("DEFAULT_TICKETS must be positive, got %d", c.Scheduler.DefaultTickets)
	}
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.Scheduler.TickInterval)
	}
	return nil
}
