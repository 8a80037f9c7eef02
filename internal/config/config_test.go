package config

import (
	"log/slog"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("REVIEW_CHAT_ID", "-1001")
	t.Setenv("PUBLISH_CHAT_ID", "-1002")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Telegram.ReviewChatID != -1001 {
		t.Errorf("expected review chat -1001, got %d", cfg.Telegram.ReviewChatID)
	}
	if cfg.Telegram.PublishChatID != -1002 {
		t.Errorf("expected publish chat -1002, got %d", cfg.Telegram.PublishChatID)
	}
	if cfg.Scrape.Interval != 30*time.Minute {
		t.Errorf("expected default scrape interval 30m, got %v", cfg.Scrape.Interval)
	}
	if cfg.Rewrite.DefaultModel != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", cfg.Rewrite.DefaultModel)
	}
	if cfg.Logging.Level != slog.LevelInfo || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("REVIEW_CHAT_ID", "-1001")
	t.Setenv("PUBLISH_CHAT_ID", "-1002")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing bot token")
	}
}

func TestLoadAllowedUsers(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_USER_IDS", "42, 77,1001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Telegram.AllowedUsers) != 3 {
		t.Fatalf("expected 3 allowed users, got %d", len(cfg.Telegram.AllowedUsers))
	}
	if !cfg.Telegram.Allowed(77) {
		t.Error("user 77 should be allowed")
	}
	if cfg.Telegram.Allowed(5) {
		t.Error("user 5 should not be allowed")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad review chat", key: "REVIEW_CHAT_ID", value: "not-a-number"},
		{name: "bad interval", key: "SCRAPE_INTERVAL_MINUTES", value: "-5"},
		{name: "bad user list", key: "ALLOWED_USER_IDS", value: "1,x"},
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "bad log format", key: "LOG_FORMAT", value: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestAllowedEmptyListAdmitsNobody(t *testing.T) {
	cfg := TelegramConfig{}
	if cfg.Allowed(1) {
		t.Error("empty allow-list should admit nobody")
	}
}
