package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Server
	Port        string
	FrontendURL string

	// Cleanup policy
	CleanupIntervalHours   int
	FinishedRetentionHours int
	IdleRetentionHours     int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/chicken_game?sslmode=disable"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Cleanup policy
		CleanupIntervalHours:   getEnvInt("CLEANUP_INTERVAL_HOURS", 6),
		FinishedRetentionHours: getEnvInt("FINISHED_RETENTION_HOURS", 24),
		IdleRetentionHours:     getEnvInt("IDLE_RETENTION_HOURS", 2),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
