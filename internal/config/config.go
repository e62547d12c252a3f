package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	// APIKey authorizes the storefront frontend. End-user authentication is
	// out of scope; this is only the "is the caller authorized" capability.
	APIKey string

	DB        DatabaseConfig
	Redis     RedisConfig
	StockFeed StockFeedConfig
	Contracts ContractsConfig
	Captcha   CaptchaConfig
	Promo     PromoConfig
	Checkout  CheckoutConfig
	Worker    WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StockFeedConfig contains the upstream dealer-stock feed endpoint.
type StockFeedConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ContractsConfig contains the contract-creation backend endpoint.
type ContractsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CaptchaConfig contains the CAPTCHA provider endpoint and submission policy.
type CaptchaConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	MaxAttempts   int
	RetryCooldown time.Duration
}

// PromoConfig contains promotion matching parameters. PriceTolerance is a
// business constant in currency minor units, not a precision artifact.
type PromoConfig struct {
	PriceTolerance int64
	TieBreak       string // "feed_order" or "lowest_monthly"
}

// CheckoutConfig contains selection session parameters.
type CheckoutConfig struct {
	SessionTTL time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	StockSyncInterval     time.Duration
	StatusCheckInterval   time.Duration
	StatusCheckStaleAfter time.Duration
	StatusCheckMaxAge     time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.APIKey = getEnv("API_KEY", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	var err error

	// Stock feed
	cfg.StockFeed = StockFeedConfig{
		BaseURL: getEnv("STOCKFEED_BASE_URL", ""),
		APIKey:  getEnv("STOCKFEED_API_KEY", ""),
	}
	if cfg.StockFeed.Timeout, err = parseDurationEnv("STOCKFEED_TIMEOUT", "5s"); err != nil {
		return nil, fmt.Errorf("invalid STOCKFEED_TIMEOUT: %w", err)
	}

	// Contracts backend
	cfg.Contracts = ContractsConfig{
		BaseURL: getEnv("CONTRACTS_BASE_URL", ""),
		APIKey:  getEnv("CONTRACTS_API_KEY", ""),
	}
	if cfg.Contracts.Timeout, err = parseDurationEnv("CONTRACTS_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid CONTRACTS_TIMEOUT: %w", err)
	}

	// Captcha
	cfg.Captcha = CaptchaConfig{
		BaseURL:     getEnv("CAPTCHA_BASE_URL", ""),
		APIKey:      getEnv("CAPTCHA_API_KEY", ""),
		MaxAttempts: getEnvInt("CAPTCHA_MAX_ATTEMPTS", 5),
	}
	if cfg.Captcha.Timeout, err = parseDurationEnv("CAPTCHA_TIMEOUT", "5s"); err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_TIMEOUT: %w", err)
	}
	if cfg.Captcha.RetryCooldown, err = parseDurationEnv("CAPTCHA_RETRY_COOLDOWN", "90s"); err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_RETRY_COOLDOWN: %w", err)
	}

	// Promotion matching
	cfg.Promo = PromoConfig{
		PriceTolerance: int64(getEnvInt("PROMO_PRICE_TOLERANCE", 1000000)),
		TieBreak:       getEnv("PROMO_TIE_BREAK", "feed_order"),
	}
	if cfg.Promo.TieBreak != "feed_order" && cfg.Promo.TieBreak != "lowest_monthly" {
		return nil, fmt.Errorf("invalid PROMO_TIE_BREAK: %q", cfg.Promo.TieBreak)
	}
	if cfg.Promo.PriceTolerance <= 0 {
		return nil, errors.New("PROMO_PRICE_TOLERANCE must be positive")
	}

	// Checkout
	if cfg.Checkout.SessionTTL, err = parseDurationEnv("SESSION_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	// Workers (durations)
	if cfg.Worker.StockSyncInterval, err = parseDurationEnv("STOCK_SYNC_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid STOCK_SYNC_INTERVAL: %w", err)
	}
	if cfg.Worker.StatusCheckInterval, err = parseDurationEnv("STATUS_CHECK_INTERVAL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid STATUS_CHECK_INTERVAL: %w", err)
	}
	if cfg.Worker.StatusCheckStaleAfter, err = parseDurationEnv("STATUS_CHECK_STALE_AFTER", "1m"); err != nil {
		return nil, fmt.Errorf("invalid STATUS_CHECK_STALE_AFTER: %w", err)
	}
	if cfg.Worker.StatusCheckMaxAge, err = parseDurationEnv("STATUS_CHECK_MAX_AGE", "30m"); err != nil {
		return nil, fmt.Errorf("invalid STATUS_CHECK_MAX_AGE: %w", err)
	}

	// Basic validation for DB parameters.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for admin authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
