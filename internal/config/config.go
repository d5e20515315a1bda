package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string
	Env     string
	LogMode string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// SRS
	ReferenceTimezone   string
	StreakCacheTTL      time.Duration
	StreakCacheBackend  string
	MissedReviewResetAt string
	GhostSweepEnabled   bool

	// Workers
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		Env:                 getEnvOrDefault("ENV", "development"),
		LogMode:             getEnvOrDefault("LOG_MODE", "development"),
		DatabaseURL:         mustGetEnv("DATABASE_URL"),
		MigrationsDir:       getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:            mustGetEnv("REDIS_URL"),
		JWTSecret:           mustGetEnv("JWT_SECRET"),
		ReferenceTimezone:   getEnvOrDefault("REFERENCE_TIMEZONE", "Asia/Shanghai"),
		StreakCacheTTL:      getEnvAsDurationOrDefault("STREAK_CACHE_TTL", 60*time.Second),
		StreakCacheBackend:  getEnvOrDefault("STREAK_CACHE_BACKEND", "redis"),
		MissedReviewResetAt: getEnvOrDefault("MISSED_REVIEW_RESET_AT", "00:05"),
		GhostSweepEnabled:   getEnvAsBoolOrDefault("GHOST_SWEEP_ENABLED", true),
		WorkerCount:         getEnvAsIntOrDefault("WORKER_COUNT", 2),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultVal
	}
}
