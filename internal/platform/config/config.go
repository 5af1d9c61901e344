package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	Address string `env:"VETER_ADDRESS" default:"0.0.0.0"`
	Port    string `env:"VETER_PORT" default:"3030"`
	Token   string `env:"VETER_TOKEN"`

	ChannelCapacity int `env:"VETER_CHANNEL_CAPACITY" default:"16"`

	SSEPadding   int           `env:"VETER_SSE_PADDING" default:"2048"`
	SSEKeepAlive time.Duration `env:"VETER_SSE_KEEP_ALIVE" default:"15s"`

	WSMaxMessageSize int64    `env:"VETER_WS_MAX_MESSAGE_SIZE" default:"1048576"`
	AllowedOrigins   []string `env:"VETER_ALLOWED_ORIGINS"`

	ConnectRate    float64 `env:"VETER_CONNECT_RATE" default:"0"`
	ConnectBurst   int     `env:"VETER_CONNECT_BURST" default:"20"`
	MaxConnections int64   `env:"VETER_MAX_CONNECTIONS" default:"0"`

	LogLevel  string `env:"VETER_LOG_LEVEL" default:"info"`
	LogFormat string `env:"VETER_LOG_FORMAT" default:"text"`
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, c.Port)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Token == "" {
		return errors.New("VETER_TOKEN is required")
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("VETER_PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}

	if net.ParseIP(cfg.Address) == nil {
		return fmt.Errorf("VETER_ADDRESS must be an IP address, got %q", cfg.Address)
	}

	if cfg.ChannelCapacity < 1 {
		return fmt.Errorf("VETER_CHANNEL_CAPACITY must be at least 1, got %d", cfg.ChannelCapacity)
	}
	if cfg.SSEPadding < 0 {
		return fmt.Errorf("VETER_SSE_PADDING must not be negative, got %d", cfg.SSEPadding)
	}
	if cfg.SSEKeepAlive <= 0 {
		return fmt.Errorf("VETER_SSE_KEEP_ALIVE must be positive, got %s", cfg.SSEKeepAlive)
	}
	if cfg.WSMaxMessageSize <= 0 {
		return fmt.Errorf("VETER_WS_MAX_MESSAGE_SIZE must be positive, got %d", cfg.WSMaxMessageSize)
	}
	if cfg.ConnectRate < 0 {
		return fmt.Errorf("VETER_CONNECT_RATE must not be negative, got %g", cfg.ConnectRate)
	}
	if cfg.ConnectRate > 0 && cfg.ConnectBurst < 1 {
		return fmt.Errorf("VETER_CONNECT_BURST must be at least 1 when VETER_CONNECT_RATE is set, got %d", cfg.ConnectBurst)
	}
	if cfg.MaxConnections < 0 {
		return fmt.Errorf("VETER_MAX_CONNECTIONS must not be negative, got %d", cfg.MaxConnections)
	}

	return nil
}
