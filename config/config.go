package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataDir string `validate:"required"`

	CSVOutputPath    string
	SQLiteOutputPath string

	PostgresEnabled  bool
	PostgresHost     string `validate:"required_if=PostgresEnabled true"`
	PostgresPort     string `validate:"omitempty,numeric"`
	PostgresUser     string `validate:"required_if=PostgresEnabled true"`
	PostgresPassword string
	PostgresDB       string `validate:"required_if=PostgresEnabled true"`
	PostgresSSLMode  string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	PostgresReplace  bool

	MaxRetries int    `validate:"gte=1,lte=20"`
	LogLevel   string `validate:"oneof=debug info"`
}

// Load reads the .env file and returns a populated, validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DataDir: getEnv("DATA_DIR", "./data"),

		CSVOutputPath:    getEnv("CSV_OUTPUT_PATH", "./output/listings_clean.csv"),
		SQLiteOutputPath: getEnv("SQLITE_OUTPUT_PATH", ""),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "listings"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "listings"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresReplace:  getEnvBool("POSTGRES_REPLACE", false),

		MaxRetries: getEnvInt("MAX_RETRIES", 5),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
