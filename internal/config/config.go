package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the process configuration read from the environment
type Config struct {
	Port     string
	AppURL   string
	LogLevel zerolog.Level

	ShopifyAPIKey     string
	ShopifyAPISecret  string
	ShopifyScopes     []string
	ShopifyAPIVersion string
	BillingTestMode   bool

	EncryptionKey string

	StorageDriver   string
	DatabaseURL     string
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	RedisURL        string
	LockWait        time.Duration
	CORSAllowOrigin []string
}

// Load reads .env when present and then the process environment
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv function and validates it
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:              get("PORT", "8080"),
		AppURL:            strings.TrimSuffix(get("APP_URL", "http://localhost:8080"), "/"),
		ShopifyAPIKey:     get("SHOPIFY_API_KEY", ""),
		ShopifyAPISecret:  get("SHOPIFY_API_SECRET", ""),
		ShopifyScopes:     splitList(get("SHOPIFY_SCOPES", "read_products,read_inventory")),
		ShopifyAPIVersion: get("SHOPIFY_API_VERSION", "2024-10"),
		EncryptionKey:     get("ENCRYPTION_KEY", ""),
		StorageDriver:     strings.ToLower(get("STORAGE_DRIVER", DriverPostgres)),
		DatabaseURL:       get("DATABASE_URL", ""),
		SQLitePath:        get("SQLITE_PATH", "preorder.db"),
		MongoURI:          get("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     get("MONGODB_DATABASE", "shopify_preorder"),
		RedisURL:          get("REDIS_URL", ""),
		CORSAllowOrigin:   splitList(get("CORS_ALLOWED_ORIGINS", "*")),
	}

	level, err := zerolog.ParseLevel(strings.ToLower(get("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.BillingTestMode, err = strconv.ParseBool(get("BILLING_TEST_MODE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_TEST_MODE: %w", err)
	}

	cfg.LockWait, err = time.ParseDuration(get("LOCK_WAIT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_WAIT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or malformed settings
func (c *Config) Validate() error {
	var missing []string
	if c.ShopifyAPIKey == "" {
		missing = append(missing, "SHOPIFY_API_KEY")
	}
	if c.ShopifyAPISecret == "" {
		missing = append(missing, "SHOPIFY_API_SECRET")
	}
	if c.EncryptionKey == "" {
		missing = append(missing, "ENCRYPTION_KEY")
	}
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be 32 bytes hex encoded")
	}
	if c.LockWait <= 0 {
		return fmt.Errorf("LOCK_WAIT must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
