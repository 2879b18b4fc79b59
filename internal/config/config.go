package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogMode string

	// Storage
	StoreDriver   string // "postgres" | "sqlite" | "memory"
	DatabaseURL   string
	SQLitePath    string
	MigrationsDir string // empty applies the schema embedded in the binary
	SecretsFile   string

	// Redis (optional: cache, retry queue, live events)
	RedisURL string

	// Tracker policy
	Timezone            string
	StreakGraceDays     int
	RecentSessionWindow time.Duration
	NeverStudiedDays    int
	ChallengeDays       int

	// Reminders
	ReminderAfterDays int
	ReminderEmail     string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

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
		StoreDriver:         getEnvOrDefault("STORE_DRIVER", "sqlite"),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", ""),
		SQLitePath:          getEnvOrDefault("SQLITE_PATH", "./data/study_sessions.db"),
		MigrationsDir:       getEnvOrDefault("MIGRATIONS_DIR", ""),
		SecretsFile:         getEnvOrDefault("SECRETS_FILE", ".streamlit/secrets.toml"),
		RedisURL:            getEnvOrDefault("REDIS_URL", ""),
		Timezone:            getEnvOrDefault("TRACKER_TIMEZONE", "Local"),
		StreakGraceDays:     getEnvAsIntOrDefault("STREAK_GRACE_DAYS", 1),
		RecentSessionWindow: getEnvAsDurationOrDefault("RECENT_SESSION_WINDOW", 12*time.Hour),
		NeverStudiedDays:    getEnvAsIntOrDefault("NEVER_STUDIED_DAYS", 999),
		ChallengeDays:       getEnvAsIntOrDefault("CHALLENGE_DAYS", 100),
		ReminderAfterDays:   getEnvAsIntOrDefault("REMINDER_AFTER_DAYS", 2),
		ReminderEmail:       getEnvOrDefault("REMINDER_EMAIL", ""),
		SMTPHost:            getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:            getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:            getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:            getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:            getEnvOrDefault("SMTP_FROM", "noreply@studytracker.app"),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:8501"),
	}

	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		// The Streamlit deployment kept its connection string in secrets.toml.
		if secrets, err := LoadSecrets(cfg.SecretsFile); err == nil && secrets.DatabaseURL != "" {
			cfg.DatabaseURL = secrets.DatabaseURL
		} else {
			cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
		}
	}

	return cfg
}

// Location resolves the configured time zone that defines "today" for the metrics.
func (c *Config) Location() *time.Location {
	switch c.Timezone {
	case "", "Local":
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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

// getEnvAsDurationOrDefault accepts Go durations ("12h", "90m") or a bare number of hours.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Hour
	}
	return defaultVal
}
