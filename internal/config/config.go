/*
Package config loads runtime configuration from the environment, with an
optional .env file for local development.
*/
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the binaries need. Only the store DSN is required;
// email and AI commentary are optional features that switch off when their
// settings are incomplete.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8090"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	SMTP   SMTPConfig   `envconfig:"SMTP"`
	Gemini GeminiConfig `envconfig:"GEMINI"`
}

type SMTPConfig struct {
	Server string `envconfig:"SERVER"`
	Port   int    `envconfig:"PORT" default:"587"`
	User   string `envconfig:"USER"`
	Pass   string `envconfig:"PASS"`
	To     string `envconfig:"TO"`
	From   string `envconfig:"FROM"`
}

type GeminiConfig struct {
	APIKey string `envconfig:"API_KEY"`
	Model  string `envconfig:"MODEL" default:"gemini-2.0-flash"`
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}

	return &cfg, nil
}

// Enabled reports whether enough SMTP settings are present to send email.
func (s SMTPConfig) Enabled() bool {
	return s.Server != "" && s.User != "" && s.Pass != "" && s.To != ""
}

// SlogLevel maps the configured log level string onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
