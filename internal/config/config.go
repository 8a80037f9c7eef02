package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Telegram TelegramConfig
	Rewrite  RewriteConfig
	Scrape   ScrapeConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// TelegramConfig holds bot transport and routing parameters.
type TelegramConfig struct {
	BotToken      string
	ReviewChatID  int64
	PublishChatID int64
	AllowedUsers  []int64
	PollTimeout   time.Duration
}

// RewriteConfig holds parameters for the language-model rewrite call.
type RewriteConfig struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
}

// ScrapeConfig holds the periodic scraper parameters.
type ScrapeConfig struct {
	IndexURL     string
	ItemSelector string
	BodySelector string
	Interval     time.Duration
	MaxItems     int
}

// ServerConfig holds the ops HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

const (
	defaultPort            = "9090"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultPollTimeout    = 30 * time.Second
	defaultScrapeInterval = 30 * time.Minute
	defaultItemSelector   = "article h2 a"
	defaultBodySelector   = "article p"
	defaultMaxItems       = 20
	defaultModel          = "gpt-4o-mini"
	defaultRewriteTimeout = 120 * time.Second

	defaultLogFormat = "json"
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	cfg := Config{
		Telegram: TelegramConfig{
			PollTimeout: defaultPollTimeout,
		},
		Rewrite: RewriteConfig{
			DefaultModel: getEnv("REWRITE_MODEL", defaultModel),
			Timeout:      defaultRewriteTimeout,
		},
		Scrape: ScrapeConfig{
			IndexURL:     os.Getenv("SCRAPE_INDEX_URL"),
			ItemSelector: getEnv("SCRAPE_ITEM_SELECTOR", defaultItemSelector),
			BodySelector: getEnv("SCRAPE_BODY_SELECTOR", defaultBodySelector),
			Interval:     defaultScrapeInterval,
			MaxItems:     defaultMaxItems,
		},
		Server: ServerConfig{
			Port:            getEnv("METRICS_PORT", defaultPort),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
	}

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.Telegram.BotToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	reviewChat, err := parseChatID(os.Getenv("REVIEW_CHAT_ID"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REVIEW_CHAT_ID: %w", err)
	}
	cfg.Telegram.ReviewChatID = reviewChat

	publishChat, err := parseChatID(os.Getenv("PUBLISH_CHAT_ID"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid PUBLISH_CHAT_ID: %w", err)
	}
	cfg.Telegram.PublishChatID = publishChat

	if v := os.Getenv("ALLOWED_USER_IDS"); v != "" {
		users, err := parseUserList(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ALLOWED_USER_IDS: %w", err)
		}
		cfg.Telegram.AllowedUsers = users
	}

	cfg.Rewrite.APIKey = os.Getenv("OPENAI_API_KEY")

	if v := os.Getenv("SCRAPE_INTERVAL_MINUTES"); v != "" {
		d, err := parseMinutes(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCRAPE_INTERVAL_MINUTES: %w", err)
		}
		cfg.Scrape.Interval = d
	}

	if v := os.Getenv("SCRAPE_MAX_ITEMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid SCRAPE_MAX_ITEMS: must be a positive integer")
		}
		cfg.Scrape.MaxItems = n
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	return cfg, nil
}

// Allowed reports whether the given user is on the allow-list. An empty
// allow-list admits nobody.
func (c TelegramConfig) Allowed(userID int64) bool {
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func parseChatID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("must be set")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a numeric chat identifier")
	}
	return id, nil
}

func parseUserList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	users := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("must be comma-separated numeric user identifiers")
		}
		users = append(users, id)
	}
	return users, nil
}

func parseMinutes(raw string) (time.Duration, error) {
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return time.Duration(minutes) * time.Minute, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
