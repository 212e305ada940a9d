package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables
// (a .env file is honored in development via godotenv in main).
type Config struct {
	Port string
	Env  string

	// BotToken is the Telegram bot token shared with the mini-app client;
	// it keys the initData HMAC verification.
	BotToken string

	// InternalAPISecret signs the service tokens required by privileged
	// routes (refund, declare-result). Those routes are disabled when empty.
	InternalAPISecret string

	RedisURL  string
	RedisPass string
	RedisDB   int

	// MatchMaxAge is how long a wagered match may stay active before the
	// reconciliation sweep refunds it.
	MatchMaxAge time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("APP_ENV", "development"),
		BotToken:          os.Getenv("TELEGRAM_BOT_TOKEN"),
		InternalAPISecret: os.Getenv("INTERNAL_API_SECRET"),
		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		MatchMaxAge:       30 * time.Minute,
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %v", v, err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("MATCH_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MATCH_MAX_AGE %q: %v", v, err)
		}
		cfg.MatchMaxAge = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
