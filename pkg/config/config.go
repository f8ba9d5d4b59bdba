package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External services
	AlphaVantage AlphaVantageConfig
	Yahoo        YahooConfig
	Twilio       TwilioConfig

	// Market data refresh
	Market MarketConfig

	// Alerting
	Alerts AlertConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // empty disables file output
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// AlphaVantageConfig holds Alpha Vantage API configuration.
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string

	// The free tier enforces a per-minute quota on the provider side.
	RequestsPerMinute int
}

// YahooConfig holds the Yahoo Finance scraper configuration.
type YahooConfig struct {
	BaseURL string
}

// TwilioConfig holds Twilio SMS credentials. Leaving any field empty
// switches the transport to log-only mode.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// MarketConfig holds snapshot refresh policy settings.
type MarketConfig struct {
	// Provider selects the market-data source: "alphavantage" or "yahoo".
	Provider string

	// RefreshMaxAge is the staleness threshold for scheduled refreshes.
	RefreshMaxAge time.Duration

	// RefreshBudget caps how many tickers a single run may fetch.
	RefreshBudget int
}

// AlertConfig holds alert scanning settings.
type AlertConfig struct {
	// Timezone is the fixed reference timezone for same-day dedup.
	Timezone string

	// SignificantDrop is the minimum drop-from-high for the
	// corrections-only band to fire.
	SignificantDrop float64

	// MinWeeklyDrop is the freshness sub-filter threshold. Zero disables it.
	MinWeeklyDrop float64
}

// Load reads configuration from environment variables.
// LoadFrom loads an explicit env file before reading the environment.
func LoadFrom(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return Load()
}

func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "dipwatch"),
			User:            getEnv("DB_USER", "dipwatch"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External services
		AlphaVantage: AlphaVantageConfig{
			APIKey:            getEnv("ALPHA_VANTAGE_API_KEY", ""),
			BaseURL:           getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
			RequestsPerMinute: getEnvAsInt("ALPHA_VANTAGE_RPM", 5),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://finance.yahoo.com"),
		},

		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
			BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		},

		// Market data refresh
		Market: MarketConfig{
			Provider:      getEnv("MARKET_PROVIDER", "alphavantage"),
			RefreshMaxAge: getEnvAsDuration("REFRESH_MAX_AGE", "4h"),
			RefreshBudget: getEnvAsInt("REFRESH_BUDGET", 150),
		},

		// Alerting
		Alerts: AlertConfig{
			Timezone:        getEnv("ALERT_TIMEZONE", "UTC"),
			SignificantDrop: getEnvAsFloat("ALERT_SIGNIFICANT_DROP", 0.10),
			MinWeeklyDrop:   getEnvAsFloat("ALERT_MIN_WEEKLY_DROP", 0.05),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Market.Provider != "alphavantage" && c.Market.Provider != "yahoo" {
		return fmt.Errorf("MARKET_PROVIDER must be one of: alphavantage, yahoo")
	}

	if c.Market.RefreshBudget <= 0 {
		return fmt.Errorf("REFRESH_BUDGET must be positive")
	}

	if _, err := time.LoadLocation(c.Alerts.Timezone); err != nil {
		return fmt.Errorf("ALERT_TIMEZONE is invalid: %w", err)
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
