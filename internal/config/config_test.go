package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"DATABASE_URI", "PORT", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "ALERT_INTERVAL", "AI_API_KEY", "AI_BASE_URL", "AI_MODEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URI", "postgres://localhost/ledger")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURI != "postgres://localhost/ledger" {
		t.Errorf("DatabaseURI = %q", cfg.DatabaseURI)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AlertInterval != time.Hour {
		t.Errorf("AlertInterval = %s, want 1h", cfg.AlertInterval)
	}
	if cfg.AIModel != "openai/gpt-4o-mini" {
		t.Errorf("AIModel = %q", cfg.AIModel)
	}
	if cfg.AlertsEnabled() {
		t.Error("alerts should be disabled without a token and chat id")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("ALERT_INTERVAL", "15m")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9090" || cfg.TelegramChatID != -100123 || cfg.AlertInterval != 15*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.AlertsEnabled() {
		t.Error("alerts should be enabled")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TELEGRAM_CHAT_ID", "general"},
		{"ALERT_INTERVAL", "hourly"},
		{"ALERT_INTERVAL", "-5m"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected an error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
