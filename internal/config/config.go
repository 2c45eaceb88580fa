package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string // Postgres; takes precedence over Redis and SQLite
	RedisURL    string
	SQLitePath  string

	// Presence
	PresenceTimeout time.Duration // silence threshold before eviction
	SweepInterval   time.Duration // cadence of the eviction pass
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "5000"),
		Env:             getEnv("ENV", "development"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		PresenceTimeout: getDurationMs("PRESENCE_TIMEOUT_MS", 10000),
		SweepInterval:   getDurationMs("SWEEP_INTERVAL_MS", 15000),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationMs reads a millisecond count from the environment. Values that
// do not parse as a positive integer fall back to the default.
func getDurationMs(key string, defaultMs int64) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return time.Duration(defaultMs) * time.Millisecond
}
