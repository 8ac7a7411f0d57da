package config

import (
	"time"

	"github.com/mauv0809/pong-ladder/internal/rating"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel string `koanf:"log_level"`
	Port     string `koanf:"port"`
	DBName   string `koanf:"db_name"`

	TursoPrimaryURL string `koanf:"turso_primary_url"`
	TursoAuthToken  string `koanf:"turso_auth_token"`

	SlackBotToken      string `koanf:"slack_bot_token"`
	SlackChannelID     string `koanf:"slack_channel_id"`
	SlackSigningSecret string `koanf:"slack_signing_secret"`

	// ProjectID enables Pub/Sub. Without it match events are handled inline.
	ProjectID string `koanf:"gcp_project"`

	// AuditInterval schedules the ledger audit; zero disables it.
	AuditInterval time.Duration `koanf:"audit_interval"`

	TargetScore    int     `koanf:"target_score"`
	KFactor        float64 `koanf:"k_factor"`
	MaxChange      float64 `koanf:"max_change"`
	FormulaVersion int     `koanf:"formula_version"`
	MaxAttempts    int     `koanf:"max_attempts"`
}

// Formula is the rating formula the config describes.
func (c Config) Formula() rating.Formula {
	return rating.Formula{
		Version:     c.FormulaVersion,
		TargetScore: c.TargetScore,
		K:           c.KFactor,
		MaxChange:   c.MaxChange,
	}
}
