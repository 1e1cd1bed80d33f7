package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/spf13/viper"
)

// Config holds everything the service reads from the environment.
type Config struct {
	HTTPAddr    string
	FrontendURL string

	// Database
	DBDriver    string // "postgres" or "sqlite"
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBTimezone  string
	SQLitePath  string

	JWTSecret string

	// Outbound invitations
	NotifyURL string
	NotifyKey string
	InviteTTL time.Duration

	LogFile   string
	LogLevel  string
	AccessLog bool

	StrictBrigadeTransitions bool
}

var defaults = map[string]interface{}{
	"HTTP_ADDR":                  "0.0.0.0:8080",
	"FRONTEND_URL":               "http://localhost:5173",
	"DB_DRIVER":                  "postgres",
	"DB_HOST":                    "localhost",
	"DB_PORT":                    "5432",
	"DB_USER":                    "postgres",
	"DB_PASSWORD":                "password",
	"DB_NAME":                    "brigades",
	"DB_SSLMODE":                 "disable",
	"DB_TIMEZONE":                "UTC",
	"SQLITE_PATH":                "./brigades.db",
	"INVITE_TTL":                 "168h",
	"LOG_FILE":                   "./logs/app.log",
	"LOG_LEVEL":                  "info",
	"ACCESS_LOG":                 true,
	"BRIGADE_STRICT_TRANSITIONS": false,
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		HTTPAddr:                 v.GetString("HTTP_ADDR"),
		FrontendURL:              v.GetString("FRONTEND_URL"),
		DBDriver:                 v.GetString("DB_DRIVER"),
		DatabaseURL:              v.GetString("DATABASE_URL"),
		DBHost:                   v.GetString("DB_HOST"),
		DBPort:                   v.GetString("DB_PORT"),
		DBUser:                   v.GetString("DB_USER"),
		DBPassword:               v.GetString("DB_PASSWORD"),
		DBName:                   v.GetString("DB_NAME"),
		DBSSLMode:                v.GetString("DB_SSLMODE"),
		DBTimezone:               v.GetString("DB_TIMEZONE"),
		SQLitePath:               v.GetString("SQLITE_PATH"),
		JWTSecret:                v.GetString("JWT_SECRET"),
		NotifyURL:                v.GetString("NOTIFY_URL"),
		NotifyKey:                v.GetString("NOTIFY_KEY"),
		InviteTTL:                v.GetDuration("INVITE_TTL"),
		LogFile:                  v.GetString("LOG_FILE"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		AccessLog:                v.GetBool("ACCESS_LOG"),
		StrictBrigadeTransitions: v.GetBool("BRIGADE_STRICT_TRANSITIONS"),
	}
	return cfg, cfg.Validate()
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.InviteTTL <= 0 {
		return fmt.Errorf("INVITE_TTL must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins over the
// discrete DB_* variables.
func (c *Config) DSN() (string, error) {
	if c.DatabaseURL != "" {
		dsn, err := pq.ParseURL(c.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		return dsn, nil
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	), nil
}
