package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerConfig    ServerConfig    `json:"server"`
	DatabaseConfig  DatabaseConfig  `json:"database"`
	RedisConfig     RedisConfig     `json:"redis"`
	AuthConfig      AuthConfig      `json:"auth"`
	VaultConfig     VaultConfig     `json:"vault"`
	KaspiConfig     KaspiConfig     `json:"kaspi"`
	MarketingConfig MarketingConfig `json:"marketing"`
	SyncConfig      SyncConfig      `json:"sync"`
	StoreConfig     StoreConfig     `json:"store"`
	LoggingConfig   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	ProductionMode  bool   `json:"production_mode"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds Redis configuration for report snapshot caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// AuthConfig holds JWT and password policy configuration
type AuthConfig struct {
	JWTSecret            string        `json:"jwt_secret"`
	AccessTokenDuration  time.Duration `json:"access_token_duration"`
	RefreshTokenDuration time.Duration `json:"refresh_token_duration"`
	MinPasswordLength    int           `json:"min_password_length"`
	BcryptCost           int           `json:"bcrypt_cost"`
}

// VaultConfig holds HashiCorp Vault configuration for merchant credentials
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// KaspiConfig holds marketplace API client configuration.
// Merchant credentials are per-user and live in Vault, never here.
type KaspiConfig struct {
	BaseURL        string `json:"base_url"`
	MockMode       bool   `json:"mock_mode"`       // Use simulated data when the marketplace is unreachable
	RequestTimeout int    `json:"request_timeout"` // Seconds
}

// MarketingConfig holds the campaign-summary API configuration
type MarketingConfig struct {
	BaseURL        string `json:"base_url"`
	MockMode       bool   `json:"mock_mode"`
	RequestTimeout int    `json:"request_timeout"` // Seconds
}

// SyncConfig holds the daily ingest scheduler configuration
type SyncConfig struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"interval_minutes"`
	BackfillDays    int  `json:"backfill_days"` // Resync this many trailing days each run
}

// StoreConfig holds store-level rates applied during recomputation
type StoreConfig struct {
	CommissionRate float64 `json:"commission_rate"`
	TaxRate        float64 `json:"tax_rate"`
}

type LoggingConfig struct {
	Level   string `json:"level"`   // debug, info, warn, error
	Console bool   `json:"console"` // Human-readable console output instead of JSON
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Kaspi merchant credentials are NOT read from environment: they are per-user
// and stored in Vault.
func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("PRODUCTION_MODE", "false") == "true"
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)

	// Database config
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", "localhost")
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", 5432)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", "seller_dashboard")
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", "disable")

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", "false") == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", 0)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", 10)

	// Auth config - secret ALWAYS applied from environment when present
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", 15*time.Minute)
	cfg.AuthConfig.RefreshTokenDuration = getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_DURATION", 7*24*time.Hour)
	cfg.AuthConfig.MinPasswordLength = getEnvIntOrDefault("AUTH_MIN_PASSWORD_LENGTH", 8)
	cfg.AuthConfig.BcryptCost = getEnvIntOrDefault("AUTH_BCRYPT_COST", 12)

	// Vault config
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", "false") == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", "http://localhost:8200")
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", "secret")
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", "seller-dashboard/merchants")
	cfg.VaultConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", "false") == "true"

	// Kaspi config
	cfg.KaspiConfig.BaseURL = getEnvOrDefault("KASPI_BASE_URL", cfg.KaspiConfig.BaseURL)
	if cfg.KaspiConfig.BaseURL == "" {
		cfg.KaspiConfig.BaseURL = "https://kaspi.kz/shop/api/v2"
	}
	cfg.KaspiConfig.MockMode = getEnvOrDefault("KASPI_MOCK_MODE", "false") == "true"
	cfg.KaspiConfig.RequestTimeout = getEnvIntOrDefault("KASPI_REQUEST_TIMEOUT", 30)

	// Marketing config
	cfg.MarketingConfig.BaseURL = getEnvOrDefault("MARKETING_BASE_URL", cfg.MarketingConfig.BaseURL)
	cfg.MarketingConfig.MockMode = getEnvOrDefault("MARKETING_MOCK_MODE", "false") == "true"
	cfg.MarketingConfig.RequestTimeout = getEnvIntOrDefault("MARKETING_REQUEST_TIMEOUT", 15)

	// Sync config
	cfg.SyncConfig.Enabled = getEnvOrDefault("SYNC_ENABLED", "true") == "true"
	cfg.SyncConfig.IntervalMinutes = getEnvIntOrDefault("SYNC_INTERVAL_MINUTES", 60)
	cfg.SyncConfig.BackfillDays = getEnvIntOrDefault("SYNC_BACKFILL_DAYS", 2)

	// Store config (Kaspi defaults: 12.5% commission, 4% retail tax regime)
	cfg.StoreConfig.CommissionRate = getEnvFloatOrDefault("STORE_COMMISSION_RATE", 0.125)
	cfg.StoreConfig.TaxRate = getEnvFloatOrDefault("STORE_TAX_RATE", 0.04)

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.LoggingConfig.Console = getEnvOrDefault("LOG_CONSOLE", "false") == "true"
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
