package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Transport TransportConfig
	Store     StoreConfig
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// TransportConfig holds the event stream connection settings. Exactly one of
// URL or SignerEndpoint is normally set; URL wins when both are.
type TransportConfig struct {
	URL              string        `envconfig:"STREAM_URL"`
	SignerEndpoint   string        `envconfig:"SIGNER_ENDPOINT"`
	SignerToken      string        `envconfig:"SIGNER_TOKEN"`
	SignerTimeout    time.Duration `envconfig:"SIGNER_TIMEOUT" default:"10s"`
	BackoffBase      time.Duration `envconfig:"RECONNECT_BASE" default:"1s"`
	MaxAttempts      int           `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`
	HandshakeTimeout time.Duration `envconfig:"HANDSHAKE_TIMEOUT" default:"10s"`
	WriteTimeout     time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	PingInterval     time.Duration `envconfig:"PING_INTERVAL" default:"30s"`
	SendRate         float64       `envconfig:"SEND_RATE" default:"10"`
	SendBurst        int           `envconfig:"SEND_BURST" default:"20"`
}

// StoreConfig holds UI store TTLs.
type StoreConfig struct {
	CardTTL         time.Duration `envconfig:"CARD_TTL" default:"30s"`
	NotificationTTL time.Duration `envconfig:"NOTIFICATION_TTL" default:"5s"`
	HighlightTTL    time.Duration `envconfig:"HIGHLIGHT_TTL" default:"2s"`
}

// ServerConfig holds view API server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
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
	// GlobalRPS caps all clients together; zero leaves it off.
	GlobalRPS   int `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"0"`
	GlobalBurst int `envconfig:"RATE_LIMIT_GLOBAL_BURST" default:"0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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
		Transport: TransportConfig{
			SignerTimeout:    10 * time.Second,
			BackoffBase:      time.Second,
			MaxAttempts:      5,
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     5 * time.Second,
			PingInterval:     30 * time.Second,
			SendRate:         10,
			SendBurst:        20,
		},
		Store: StoreConfig{
			CardTTL:         30 * time.Second,
			NotificationTTL: 5 * time.Second,
			HighlightTTL:    2 * time.Second,
		},
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"http://localhost:3000"},
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

// Validate checks the settings the stream cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Transport.URL) == "" && strings.TrimSpace(c.Transport.SignerEndpoint) == "" {
		errs = append(errs, errors.New("one of STREAM_URL or SIGNER_ENDPOINT is required"))
	}
	if c.Transport.BackoffBase <= 0 {
		errs = append(errs, errors.New("RECONNECT_BASE must be positive"))
	}
	if c.Transport.MaxAttempts <= 0 {
		errs = append(errs, errors.New("RECONNECT_MAX_ATTEMPTS must be positive"))
	}
	if c.Store.CardTTL <= 0 || c.Store.NotificationTTL <= 0 || c.Store.HighlightTTL <= 0 {
		errs = append(errs, errors.New("store TTLs must be positive"))
	}
	if c.RateLimit.GlobalRPS < 0 || c.RateLimit.GlobalBurst < 0 {
		errs = append(errs, errors.New("global rate limit must not be negative"))
	}

	return errors.Join(errs...)
}
