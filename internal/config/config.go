// Package config loads lmsync settings from an optional YAML file and the
// environment, and sets up logging.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load. They override the config file.
const (
	EnvDatabase   = "LMSYNC_DB"
	EnvUpsertMode = "LMSYNC_UPSERT_MODE"
	EnvBaseURL    = "LMSYNC_BASE_URL"
	EnvLogLevel   = "LMSYNC_LOG_LEVEL"
	EnvLogFile    = "LMSYNC_LOG_FILE"
)

// Config holds all configuration values.
type Config struct {
	// SQLite database file holding live measures.
	Database string `yaml:"database" validate:"required"`

	// UpsertMode selects the write path: auto, always or never.
	UpsertMode string `yaml:"upsert_mode" validate:"oneof=auto always never"`

	// CommitPerComponent commits after each component in addition to the
	// final commit.
	CommitPerComponent bool `yaml:"commit_per_component"`

	// BaseURL of the server, used in links of analysis warnings.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFile  string `yaml:"log_file"`
}

var validate = validator.New()

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database:           "lmsync.db",
		UpsertMode:         "auto",
		CommitPerComponent: true,
		BaseURL:            "http://localhost:9000",
		LogLevel:           "info",
	}
}

// Load reads the YAML file at path, if path is not empty, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Database = getEnv(EnvDatabase, cfg.Database)
	cfg.UpsertMode = getEnv(EnvUpsertMode, cfg.UpsertMode)
	cfg.BaseURL = getEnv(EnvBaseURL, cfg.BaseURL)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)
	cfg.LogFile = getEnv(EnvLogFile, cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate normalizes case-insensitive fields and checks every field.
func (c *Config) Validate() error {
	c.UpsertMode = strings.ToLower(strings.TrimSpace(c.UpsertMode))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	return parseLogLevel(c.LogLevel)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
