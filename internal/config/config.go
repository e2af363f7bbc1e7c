package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// osu!api credentials
	ClientID     string
	ClientSecret string

	// Database URLs. ClickHouse, Redis, and the webhook are optional;
	// the matching feature is disabled when the URL is empty.
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Notifications
	WebhookURL string

	// Admin server
	AdminAddr string

	// API rate limiting
	RequestsPerSecond int
	RequestBurst      int

	// API client
	RequestTimeout time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),

		AdminAddr: getEnv("ADMIN_ADDR", ":8090"),

		RequestsPerSecond: getEnvInt("API_REQUESTS_PER_SECOND", 15),
		RequestBurst:      getEnvInt("API_REQUEST_BURST", 20),

		RequestTimeout: getEnvDuration("API_REQUEST_TIMEOUT", 30*time.Second),
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClientID, err = getEnvRequired("OSU_CLIENT_ID"); err != nil {
		return nil, err
	}
	if cfg.ClientSecret, err = getEnvRequired("OSU_CLIENT_SECRET"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
