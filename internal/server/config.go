// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the PointDeck service.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultRoomCodeLength = 6

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst     int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
	PerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"5"`
}

// Config holds the server configuration settings including security controls
// and room lifecycle parameters. A zero RoomIdleTimeout disables the idle
// sweep.
type Config struct {
	Port            string          `env:"SERVER_PORT" envDefault:":8080"`
	AllowedOrigins  []string        `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
	MaxMessageSize  int64           `env:"MAX_MESSAGE_SIZE" envDefault:"4096"`
	RoomCodeLength  int             `env:"ROOM_CODE_LENGTH" envDefault:"6"`
	RoomIdleTimeout time.Duration   `env:"ROOM_IDLE_TIMEOUT" envDefault:"0"`
	RateLimit       RateLimitConfig
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize: 4096,
		RoomCodeLength: defaultRoomCodeLength,
		RateLimit: RateLimitConfig{
			Burst:     10,
			PerSecond: 5,
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}

	if cfg.RoomCodeLength <= 0 {
		cfg.RoomCodeLength = defaultRoomCodeLength
	}

	if cfg.RoomIdleTimeout < 0 {
		cfg.RoomIdleTimeout = 0
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 10
	}

	if cfg.RateLimit.PerSecond <= 0 {
		cfg.RateLimit.PerSecond = 5
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		defaultCfg := defaultConfig()
		sanitizeConfig(defaultCfg)
		return
	}

	sanitized := Config{
		Port:            cfg.Port,
		AllowedOrigins:  append([]string(nil), cfg.AllowedOrigins...),
		MaxMessageSize:  cfg.MaxMessageSize,
		RoomCodeLength:  cfg.RoomCodeLength,
		RoomIdleTimeout: cfg.RoomIdleTimeout,
		RateLimit: RateLimitConfig{
			Burst:     cfg.RateLimit.Burst,
			PerSecond: cfg.RateLimit.PerSecond,
		},
	}
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables,
// falling back to the documented defaults for anything unset.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
