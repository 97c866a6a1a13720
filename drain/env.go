package drain

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetenvOrDefault returns the value of the environment variable key, or
// defaultValue when the variable is unset, empty, or whitespace-only.
func GetenvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	return value
}

// GetenvBoolOrDefault returns the boolean value of the environment variable
// key, or defaultValue when the variable is unset or not a valid boolean.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

// GetenvDurationOrDefault returns the duration value of the environment
// variable key, or defaultValue when the variable is unset or unparseable.
func GetenvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
