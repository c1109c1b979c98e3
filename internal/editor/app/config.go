package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile  string        // Optional: path to SQLite database file (default: ./shopedit.db)
	MasterKeyPath string        // Optional: path to the secret encryption key file
	Env           string        // Environment (dev, staging, prod) (default: dev)
	LogLevel      string        // Log level (debug, info, warn, error) (default: info)
	LogFormat     string        // Log format (json, text) (default: text)
	RelayRequests int           // Optional: upstream requests allowed per window
	RelayWindow   time.Duration // Optional: rate limit window
	RelayBurst    int           // Optional: burst above the steady rate
	RelayTimeout  time.Duration // Optional: single upstream call timeout
}

func LoadConfig() Config {
	return Config{
		DatabaseFile:  getEnvOrDefault("SHOPEDIT_DATABASE_FILE", "shopedit.db"),
		MasterKeyPath: os.Getenv("SHOPEDIT_MASTER_KEY_PATH"), // Optional
		Env:           getEnvOrDefault("ENV", "dev"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "text"),
		RelayRequests: getEnvIntOrDefault("SHOPEDIT_RELAY_REQUESTS", 0),
		RelayWindow:   getEnvDurationOrDefault("SHOPEDIT_RELAY_WINDOW", 0),
		RelayBurst:    getEnvIntOrDefault("SHOPEDIT_RELAY_BURST", 0),
		RelayTimeout:  getEnvDurationOrDefault("SHOPEDIT_RELAY_TIMEOUT", 0),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
