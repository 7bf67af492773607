package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"EconSentinel/internal/store"
)

// Config holds all application configuration.
type Config struct {
	Sources struct {
		FREDAPIKey string `yaml:"fred_api_key"`
		BLSAPIKey  string `yaml:"bls_api_key"`
	} `yaml:"sources"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.Sources.FREDAPIKey = v
	}
	if v := os.Getenv("BLS_API_KEY"); v != "" {
		cfg.Sources.BLSAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 0 */6 * * *" // every 6 hours
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = store.DefaultPath()
	}

	return cfg, nil
}

// Validate checks that all required fields are set. Telegram is
// optional; without it the engine runs headless.
func (c *Config) Validate() error {
	if c.Sources.FREDAPIKey == "" {
		return fmt.Errorf("sources.fred_api_key is required (get one at fred.stlouisfed.org)")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
