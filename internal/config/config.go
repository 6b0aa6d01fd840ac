package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the configuration for the application.
type Config struct {
	DataDir        string `env:"MEAL_DATA_DIR" envDefault:"data"`
	HistoryBackend string `env:"MEAL_HISTORY_BACKEND" envDefault:"file"`
	HistoryPath    string `env:"MEAL_HISTORY_PATH"`
	DatabasePath   string `env:"MEAL_DATABASE_PATH"`
	CandidatesDir  string `env:"MEAL_CANDIDATES_DIR"`
	PeriodsFile    string `env:"MEAL_PERIODS_FILE"`

	// LookbackWeeks is how many weeks before the planned one are avoided,
	// on top of the planned week itself; 0 disables repeat avoidance.
	LookbackWeeks int   `env:"MEAL_LOOKBACK_WEEKS" envDefault:"4"`
	Seed          int64 `env:"MEAL_SEED" envDefault:"0"`

	// PrintSeed writes a time-based seed to stderr so the run can be repeated.
	PrintSeed bool `env:"MEAL_PRINT_SEED"`

	// Telegram Config (Optional for CLI, required for Bot)
	TelegramBotToken       string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL     string  `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramAllowedUserIDs []int64 `env:"TELEGRAM_ALLOWED_USER_IDS" envSeparator:","`
	Port                   string  `env:"PORT" envDefault:"8080"`

	// Ghost Config (Optional, used by import-ghost and plan --publish)
	GhostURL        string `env:"GHOST_URL"`
	GhostContentKey string `env:"GHOST_CONTENT_KEY"`
	GhostAdminKey   string `env:"GHOST_ADMIN_KEY"`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Paths left unset live under the data directory.
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = filepath.Join(cfg.DataDir, "history.json")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "history.db")
	}
	if cfg.CandidatesDir == "" {
		cfg.CandidatesDir = filepath.Join(cfg.DataDir, "candidates")
	}
	if cfg.PeriodsFile == "" {
		cfg.PeriodsFile = filepath.Join(cfg.DataDir, "periods.yaml")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env parsing cannot.
func (c *Config) Validate() error {
	if c.LookbackWeeks < 0 {
		return fmt.Errorf("MEAL_LOOKBACK_WEEKS must not be negative, got %d", c.LookbackWeeks)
	}
	switch c.HistoryBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("MEAL_HISTORY_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, c.HistoryBackend)
	}
	return nil
}

// GhostEnabled reports whether a Ghost site is configured.
func (c *Config) GhostEnabled() bool {
	return c.GhostURL != ""
}

// ValidateBot checks the settings only the Telegram bot needs.
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable not set")
	}
	return nil
}
