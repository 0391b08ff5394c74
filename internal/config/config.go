package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL       string
	HTTPPort          int
	GRPCPort          int
	APIToken          string
	LogLevel          string
	LogPretty         bool
	CSVFilePath       string
	CSVBatchSize      int
	PriceLookbackDays int
	MaxReturnDays     int
	AutoMigrate       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       databaseURL(),
		HTTPPort:          getEnvAsInt("HTTP_PORT", 3000),
		GRPCPort:          getEnvAsInt("GRPC_PORT", 8080),
		APIToken:          getEnv("API_TOKEN", "dev-token"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		CSVFilePath:       getEnv("CSV_FILE_PATH", "./ASX_SQL_DUMP.csv"),
		CSVBatchSize:      getEnvAsInt("CSV_BATCH_SIZE", 100000),
		PriceLookbackDays: getEnvAsInt("PRICE_LOOKBACK_DAYS", 7),
		MaxReturnDays:     getEnvAsInt("MAX_RETURN_DAYS", 30),
		AutoMigrate:       getEnvAsBool("AUTO_MIGRATE", true),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DB_CONN_STR is required")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("GRPC_PORT must be between 1 and 65535, got %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP_PORT and GRPC_PORT must differ")
	}
	if c.APIToken == "" {
		return fmt.Errorf("API_TOKEN is required")
	}
	if c.CSVBatchSize <= 0 {
		return fmt.Errorf("CSV_BATCH_SIZE must be positive, got %d", c.CSVBatchSize)
	}
	if c.PriceLookbackDays <= 0 {
		return fmt.Errorf("PRICE_LOOKBACK_DAYS must be positive, got %d", c.PriceLookbackDays)
	}
	if c.MaxReturnDays <= 0 {
		return fmt.Errorf("MAX_RETURN_DAYS must be positive, got %d", c.MaxReturnDays)
	}
	return nil
}

// databaseURL returns DB_CONN_STR, or builds one from individual vars (Docker friendly)
func databaseURL() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "portfolio"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
