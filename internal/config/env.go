package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads <environment>.env into the process environment; environment
// may carry a directory prefix. Variables that are already set win over the
// file. An empty environment is a no-op.
func LoadEnv(environment string) error {
	if environment == "" {
		return nil
	}
	if err := godotenv.Load(environment + ".env"); err != nil {
		return fmt.Errorf("error loading %s.env file: %w", environment, err)
	}
	return nil
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getIntEnv gets an environment variable as an integer with a fallback
func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getSecondsEnv reads a whole number of seconds
func getSecondsEnv(key string, fallback time.Duration) time.Duration {
	sec := getIntEnv(key, -1)
	if sec < 0 {
		return fallback
	}
	return time.Duration(sec) * time.Second
}
