// Package config loads runtime settings from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Log levels accepted in LOG_LEVEL. They map onto mono.LogLevelInfo and
// mono.LogLevelError.
const (
	LogLevelInfo  = "info"
	LogLevelError = "error"
)

// Config holds the application settings.
type Config struct {
	Port               string
	CORSAllowedOrigins string
	HistoryLimit       int
	HistoryPageSize    int
	TypingTimeout      time.Duration
	SendQueueSize      int
	PongTimeout        time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
	MaxMessageLength   int
	ShutdownTimeout    time.Duration
	LogLevel           string
}

// Load reads the configuration, falling back to defaults for unset or
// malformed values.
func Load() Config {
	return Config{
		Port:               getEnv("PORT", "3000"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		HistoryLimit:       getEnvInt("HISTORY_LIMIT", 100),
		HistoryPageSize:    getEnvInt("HISTORY_PAGE_SIZE", 50),
		TypingTimeout:      getEnvDuration("TYPING_TIMEOUT", 3*time.Second),
		SendQueueSize:      getEnvInt("SEND_QUEUE_SIZE", 256),
		PongTimeout:        getEnvDuration("PONG_TIMEOUT", 60*time.Second),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
		MaxMessageLength:   getEnvInt("MAX_MESSAGE_LENGTH", 5000),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:           getEnvLogLevel("LOG_LEVEL", LogLevelInfo),
	}
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as a positive int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvFloat returns environment variable as a positive float or default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
		log.Printf("Warning: invalid float value for %s: %s, using default: %g", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvLogLevel returns a supported log level or default. Unsupported
// values such as "debug" are reported instead of silently ignored.
func getEnvLogLevel(key, defaultValue string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case LogLevelInfo, LogLevelError:
		return value
	}
	log.Printf("Warning: unsupported log level for %s: %s (supported: %s, %s), using default: %s",
		key, value, LogLevelInfo, LogLevelError, defaultValue)
	return defaultValue
}

// PingPeriod returns how often connections are pinged: nine tenths of the
// pong timeout, so a healthy peer always answers in time.
func (c Config) PingPeriod() time.Duration {
	return c.PongTimeout * 9 / 10
}
