package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Analytics AnalyticsConfig
	Fetch     FetchConfig
	Schedule  ScheduleConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AnalyticsConfig tunes the valuation engine.
type AnalyticsConfig struct {
	// CutoffHour is the local hour before which "today" is not yet treated
	// as final: history computed earlier stops at yesterday so same-day
	// prices are never marked as settled.
	CutoffHour int
}

// FetchConfig tunes the market-data fetch adapter.
type FetchConfig struct {
	// Concurrency bounds how many assets are fetched in parallel.
	Concurrency int
}

// ScheduleConfig holds the cron schedule for the nightly refresh.
type ScheduleConfig struct {
	Enabled     bool
	RefreshCron string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/folio.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Analytics: AnalyticsConfig{
			CutoffHour: getEnvInt("ANALYTICS_CUTOFF_HOUR", 20),
		},
		Fetch: FetchConfig{
			Concurrency: getEnvInt("FETCH_CONCURRENCY", 4),
		},
		Schedule: ScheduleConfig{
			Enabled: getEnv("SCHEDULE_ENABLED", "true") == "true",
			// After the cutoff hour, when fund NAVs for the day are settled
			RefreshCron: getEnv("SCHEDULE_REFRESH_CRON", "0 30 20 * * *"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
