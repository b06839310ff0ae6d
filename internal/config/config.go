package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"chat-relay/pkg/logger"
)

type Config struct {
	Port           int           `env:"PORT,default=5000"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	SendBufferSize int           `env:"SEND_BUFFER_SIZE,default=256"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found: %v", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.SendBufferSize <= 0 {
		return nil, fmt.Errorf("SEND_BUFFER_SIZE must be positive, got %d", cfg.SendBufferSize)
	}

	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
