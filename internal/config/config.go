package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	StateDir     string
	SettingsPath string
	Lang         string
	LogLevel     string

	TelegramSettings TelegramConfig
}

// TelegramConfig enables the optional Telegram notification relay.
// Both fields must be set together or left empty.
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func NewConfig() (*Config, error) {
	stateDir := getEnv("DSWATCH_STATE_DIR", defaultStateDir())

	config := &Config{
		StateDir:     stateDir,
		SettingsPath: getEnv("DSWATCH_SETTINGS_PATH", filepath.Join(stateDir, "settings.toml")),
		Lang:         getEnv("LANG", "en"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		TelegramSettings: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dswatch"
	}
	return filepath.Join(home, ".dswatch")
}

func (c *Config) validate() error {
	var missingFields []string

	if c.StateDir == "" {
		missingFields = append(missingFields, "DSWATCH_STATE_DIR")
	}
	if c.SettingsPath == "" {
		missingFields = append(missingFields, "DSWATCH_SETTINGS_PATH")
	}
	if len(missingFields) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingFields, ", "))
	}

	if err := c.validateTelegram(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateTelegram() error {
	tg := c.TelegramSettings
	if (tg.BotToken != "" || tg.ChatID != 0) && (tg.BotToken == "" || tg.ChatID == 0) {
		var missingFields []string
		if tg.BotToken == "" {
			missingFields = append(missingFields, "TELEGRAM_BOT_TOKEN (required if TELEGRAM_CHAT_ID is set)")
		}
		if tg.ChatID == 0 {
			missingFields = append(missingFields, "TELEGRAM_CHAT_ID (required if TELEGRAM_BOT_TOKEN is set)")
		}
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingFields, ", "))
	}
	return nil
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramSettings.BotToken != "" && c.TelegramSettings.ChatID != 0
}
