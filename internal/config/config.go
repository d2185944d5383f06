package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI string
	Port        string

	// Due alerts are sent only when both are set.
	TelegramToken  string
	TelegramChatID int64
	AlertInterval  time.Duration

	AIAPIKey  string
	AIBaseURL string
	AIModel   string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{
		DatabaseURI:   os.Getenv("DATABASE_URI"),
		Port:          getEnvOrDefault("PORT", "8080"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIBaseURL:     getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:       getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}

	interval, err := time.ParseDuration(getEnvOrDefault("ALERT_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid ALERT_INTERVAL: must be positive")
	}
	cfg.AlertInterval = interval

	return cfg, nil
}

// AlertsEnabled reports whether the Telegram due alerter should run.
func (c *Config) AlertsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
