// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"os"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
var ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")

// Config holds all application configuration.
// Spotify credentials are read by the auth package directly.
type Config struct {
	DatabaseURL string
	LogLevel    string
	LogFormat   string
}

// Load reads configuration from environment variables.
// Returns ErrMissingDatabaseURL if DATABASE_URL is not set.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	return &Config{
		DatabaseURL: databaseURL,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}, nil
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
