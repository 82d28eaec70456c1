package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// the HTTP server, the PostgreSQL connection, the SPIMEX crawler and the response cache.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=spimex
//	POSTGRES_SSLMODE=disable
//	SPIMEX_DOWNLOAD_DIR=tables
//	REDIS_ADDR=localhost:6379
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
	Spimex   SpimexConfig   // Report crawler and parser settings
	Cache    CacheConfig    // Query response cache settings
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port        string // The TCP port the HTTP server will listen on (e.g., "8080")
	MetricsAddr string // Listen address of the standalone metrics endpoint in ingest mode; empty disables it
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// SpimexConfig controls where reports are discovered and how they are fetched.
//
// Fields:
//   - BaseURL: paginated listing page of trading results.
//   - Origin: scheme+host prepended to the relative report links found on listing pages.
//   - TableName: marker cell that opens the table block inside each report.
//   - DownloadDir: flat directory holding downloaded report files.
//   - MinYear/MaxYear: inclusive range of report years accepted by the link pattern.
//   - DownloadWorkers: maximum number of concurrent report downloads.
//   - RequestsPerSecond: outbound request pacing towards the publisher (0 = unlimited).
//   - HTTPTimeout: per-request timeout of the crawler HTTP client (0 = none).
type SpimexConfig struct {
	BaseURL           string
	Origin            string
	TableName         string
	DownloadDir       string
	MinYear           int
	MaxYear           int
	DownloadWorkers   int
	RequestsPerSecond float64
	HTTPTimeout       time.Duration
}

// CacheConfig configures the query response cache.
//
// When RedisAddr is empty an in-process cache is used.
// ResetAt ("HH:MM", local time) is the daily moment cached responses expire,
// matching the publication time of the exchange results.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ResetAt       string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("METRICS_ADDR", "")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "spimex")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("SPIMEX_BASE_URL", "https://spimex.com/markets/oil_products/trades/results/")
	viper.SetDefault("SPIMEX_ORIGIN", "https://spimex.com")
	viper.SetDefault("SPIMEX_TABLE_NAME", "Единица измерения: Метрическая тонна")
	viper.SetDefault("SPIMEX_DOWNLOAD_DIR", "tables")
	viper.SetDefault("SPIMEX_MIN_YEAR", 2023)
	viper.SetDefault("SPIMEX_MAX_YEAR", time.Now().Year())
	viper.SetDefault("SPIMEX_DOWNLOAD_WORKERS", 8)
	viper.SetDefault("SPIMEX_REQUESTS_PER_SECOND", 5.0)
	viper.SetDefault("SPIMEX_HTTP_TIMEOUT", "60s")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_RESET_AT", "14:11")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	// Populate global config instance
	AppConfig = Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			MetricsAddr: viper.GetString("METRICS_ADDR"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Spimex: SpimexConfig{
			BaseURL:           viper.GetString("SPIMEX_BASE_URL"),
			Origin:            viper.GetString("SPIMEX_ORIGIN"),
			TableName:         viper.GetString("SPIMEX_TABLE_NAME"),
			DownloadDir:       viper.GetString("SPIMEX_DOWNLOAD_DIR"),
			MinYear:           viper.GetInt("SPIMEX_MIN_YEAR"),
			MaxYear:           viper.GetInt("SPIMEX_MAX_YEAR"),
			DownloadWorkers:   viper.GetInt("SPIMEX_DOWNLOAD_WORKERS"),
			RequestsPerSecond: viper.GetFloat64("SPIMEX_REQUESTS_PER_SECOND"),
			HTTPTimeout:       viper.GetDuration("SPIMEX_HTTP_TIMEOUT"),
		},
		Cache: CacheConfig{
			RedisAddr:     viper.GetString("REDIS_ADDR"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
			ResetAt:       viper.GetString("CACHE_RESET_AT"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// Validate critical fields
	validateConfig()
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// Behavior:
//   - Checks each critical field of AppConfig.
//   - Collects missing ones in a slice.
//   - If any are missing, logs them and terminates the app with log.Fatalf().
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Spimex.BaseURL == "" {
		missing = append(missing, "SPIMEX_BASE_URL")
	}
	if AppConfig.Spimex.Origin == "" {
		missing = append(missing, "SPIMEX_ORIGIN")
	}
	if AppConfig.Spimex.TableName == "" {
		missing = append(missing, "SPIMEX_TABLE_NAME")
	}
	if AppConfig.Spimex.DownloadDir == "" {
		missing = append(missing, "SPIMEX_DOWNLOAD_DIR")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}
