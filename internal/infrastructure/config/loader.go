package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	TwitchUsername      string `env:"TWITCH_BOT_USERNAME"`
	TwitchToken         string `env:"TWITCH_BOT_ACCESS_TOKEN"`
	TwitchChannel       string `env:"TWITCH_CHANNEL"`
	TwitchClientID      string `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret  string `env:"TWITCH_CLIENT_SECRET"`
	TwitchBroadcasterID string `env:"TWITCH_BROADCASTER_ID"`
	ChatRatePer30s      int    `env:"CHAT_RATE_PER_30S" envDefault:"20"`

	WebhookCallbackURL string `env:"WEBHOOK_CALLBACK_URL"`
	WebhookSecret      string `env:"WEBHOOK_SECRET"`

	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":2411"`
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	DatabasePath string `env:"DATABASE_PATH"`
	RuleFilter   string `env:"RULE_FILTER"`

	NowPlayingFile string        `env:"NOW_PLAYING_FILE"`
	NowPlayingPoll time.Duration `env:"NOW_PLAYING_POLL" envDefault:"1s"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	CrashLogPath string `env:"CRASH_LOG_PATH" envDefault:"error.log"`
}

// Load lee .env (si existe) y luego el entorno.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if cfg.TwitchUsername == "" || cfg.TwitchToken == "" {
		slog.Warn("config: twitch chat credentials missing, chat disabled")
	}

	return cfg, nil
}

func (c *Config) DBPath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDir, "alertbot.db")
}

// WebhooksEnabled indica si las alertas llegan por EventSub en vez de IRC.
func (c *Config) WebhooksEnabled() bool {
	return c.WebhookSecret != "" && c.WebhookCallbackURL != ""
}

func (c *Config) ChatEnabled() bool {
	return c.TwitchUsername != "" && c.TwitchToken != "" && c.TwitchChannel != ""
}
