package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppEnv             string
	LogLevel           slog.Level
	ApiServicePort     string
	PostgreSQLHost     string
	PostgreSQLPort     int64
	PostgreSQLUser     string
	PostgreSQLPassword string
	PostgreSQLDatabase string
	JWTSecret          string
	TokenExpiration    int64 // Session token lifetime in seconds
	BcryptCost         int64
	RedisHost          string
	RedisPort          int64
	RedisPassword      string
	RedisDB            int64
	RateLimitRequests  int64 // Requests allowed per client per window
	RateLimitWindow    int64 // Window length in seconds
	ShutdownTimeout    int64 // Graceful shutdown budget in seconds
}

// Configuration errors
var (
	ErrMissingJWTSecret  = errors.New("JWT_SECRET must be set")
	ErrInvalidBcryptCost = errors.New("BCRYPT_COST out of range")
)

func LoadConfig() *Config {
	return &Config{
		AppEnv:             getEnv("APP_ENV", "development"),                  // Default development
		LogLevel:           getLogLevel(),                                     // Default INFO
		ApiServicePort:     getEnv("API_SERVICE_PORT", "3000"),                // Default 3000
		PostgreSQLHost:     getEnv("POSTGRESQL_HOST", "db"),                   // Default db
		PostgreSQLPort:     getEnvAsInt64("POSTGRESQL_PORT", 5432),            // Default 5432
		PostgreSQLUser:     getEnv("POSTGRESQL_USER", "gadget_user"),          // Default user
		PostgreSQLPassword: getEnv("POSTGRESQL_PASSWORD", "gadget_password"),  // Default password
		PostgreSQLDatabase: getEnv("POSTGRESQL_DATABASE", "gadget_db"),        // Default database name
		JWTSecret:          getEnv("JWT_SECRET", ""),                          // No default, see Validate
		TokenExpiration:    getEnvAsInt64("TOKEN_EXPIRATION", 86400),          // Default 24 hours
		BcryptCost:         getEnvAsInt64("BCRYPT_COST", 10),                  // Default bcrypt.DefaultCost
		RedisHost:          getEnv("REDIS_HOST", "redis"),                     // Default redis
		RedisPort:          getEnvAsInt64("REDIS_PORT", 6379),                 // Default 6379
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),                      // Default empty
		RedisDB:            getEnvAsInt64("REDIS_DB", 0),                      // Default 0
		RateLimitRequests:  getEnvAsInt64("RATE_LIMIT_REQUESTS", 100),         // Default 100 requests
		RateLimitWindow:    getEnvAsInt64("RATE_LIMIT_WINDOW", 900),           // Default 15 minutes
		ShutdownTimeout:    getEnvAsInt64("SHUTDOWN_TIMEOUT", 10),             // Default 10 seconds
	}
}

// Validate reports configuration that must stop the process at startup.
// A missing signing secret is a deployment error, never silently defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.BcryptCost < int64(bcrypt.MinCost) || c.BcryptCost > int64(bcrypt.MaxCost) {
		return fmt.Errorf("%w: %d (allowed %d-%d)", ErrInvalidBcryptCost, c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// TokenTTL returns the session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpiration) * time.Second
}

// RateLimitWindowDuration returns the rate limit window.
func (c *Config) RateLimitWindowDuration() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
