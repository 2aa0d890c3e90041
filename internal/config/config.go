// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process configuration, loaded once at startup and treated as
// immutable.
type Config struct {
	TelegramToken string
	MongoURI      string
	MongoDB       string
	AdminID       int64 // the single identity allowed to run admin commands
	GroupChatID   int64 // broadcast target for scheduled announcements
	DailyCron     string
}

// Load reads the configuration, picking up a .env file when present.
// Missing required variables are an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDB:       os.Getenv("MONGO_DB"),
		DailyCron:     os.Getenv("DAILY_CRON"),
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN not set")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI not set")
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "gymgame"
	}
	if cfg.DailyCron == "" {
		cfg.DailyCron = "0 23 * * *"
	}

	var err error
	cfg.AdminID, err = parseID("ADMIN_ID")
	if err != nil {
		return nil, err
	}
	cfg.GroupChatID, err = parseID("GROUP_CHAT_ID")
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseID(key string) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, fmt.Errorf("%s not set", key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return id, nil
}
