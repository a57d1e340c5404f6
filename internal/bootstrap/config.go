package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cvboard/admin/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	return installLogger(slog.LevelInfo)
}

// ConfigureLogger switches to debug logging in development mode.
func ConfigureLogger(cfg *config.AppConfig) *slog.Logger {
	if cfg != nil && cfg.IsDev {
		return installLogger(slog.LevelDebug)
	}
	return slog.Default()
}

func installLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if cfg.Backend.GraphQLURL == "" {
		return cfg, errors.New("BACKEND_GRAPHQL_URL is required")
	}
	return cfg, nil
}
