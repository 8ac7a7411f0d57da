package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mauv0809/pong-ladder/internal/rating"
)

const envPrefix = "LADDER_"

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		LogLevel:       "info",
		Port:           "8080",
		DBName:         "ladder.db",
		AuditInterval:  time.Hour,
		TargetScore:    rating.DefaultFormula.TargetScore,
		KFactor:        rating.DefaultFormula.K,
		MaxChange:      rating.DefaultFormula.MaxChange,
		FormulaVersion: rating.DefaultFormula.Version,
		MaxAttempts:    3,
	}
}

// Load builds the configuration, lowest precedence first: defaults, the YAML
// file named by LADDER_CONFIG, then LADDER_* environment variables. A .env
// file, if present, is loaded into the environment beforehand.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, reading from environment variables")
	}

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LADDER_SLACK_BOT_TOKEN -> slack_bot_token
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting the service cannot start with.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port must not be empty", ErrInvalidConfig)
	}
	if c.DBName == "" && c.TursoPrimaryURL == "" {
		return fmt.Errorf("%w: one of db_name or turso_primary_url is required", ErrInvalidConfig)
	}
	if c.TursoPrimaryURL != "" && c.TursoAuthToken == "" {
		return fmt.Errorf("%w: turso_auth_token is required with turso_primary_url", ErrInvalidConfig)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.AuditInterval < 0 {
		return fmt.Errorf("%w: audit_interval must not be negative", ErrInvalidConfig)
	}
	if err := c.Formula().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if c.SlackBotToken != "" && c.SlackSigningSecret == "" {
		log.Warn("Slack bot token set without a signing secret; slash commands will be rejected")
	}
	return nil
}
