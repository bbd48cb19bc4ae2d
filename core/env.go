package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvOrDefault returns the value of an environment variable or a default.
func EnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EnvInt parses an environment variable as an integer, falling back to the
// default when the variable is unset or unparseable.
func EnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// EnvFloat parses an environment variable as a float64, falling back to the
// default when the variable is unset or unparseable.
func EnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// EnvBool parses an environment variable as a boolean. Accepts
// case-insensitive true/false, 1/0, yes/no, on/off. Falls back to the
// default for anything else.
func EnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// EnvDuration parses an environment variable as a time.Duration string
// ("500ms", "2s"). Falls back to the default when unset or unparseable.
func EnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}
