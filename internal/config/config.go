package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tailor-billing-api/internal/adapters/storage"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
)

// Lock backends
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Environment       string
	Port              string
	Database          DatabaseConfig
	Lock              LockConfig
	Billing           BillingConfig
	JWT               JWTConfig
	RateLimit         RateLimitConfig
	Log               LogConfig
	Shop              ShopConfig
	Archive           ArchiveConfig
	ReportConcurrency int
	TaxDefaults       []TaxDefault
	CORSOrigins       []string
}

// DatabaseConfig holds storage configuration
type DatabaseConfig struct {
	Driver        string
	Path          string
	MaxOpenConns  int
	MongoURI      string
	MongoDatabase string
}

// LockConfig selects the per-bill lock used while recording receipts
type LockConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// BillingConfig holds payment validation settings
type BillingConfig struct {
	OverpaymentTolerance models.Money
	ConflictRetries      int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Enabled     bool
	Secret      string
	ExpiryHours int
}

// RateLimitConfig holds the per-client request limit. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// ShopConfig is printed on receipts
type ShopConfig struct {
	Name    string
	Address string
	Phone   string
}

// ArchiveConfig selects where archived report exports are kept. Type "none"
// disables the archive.
type ArchiveConfig struct {
	Type string
	Path string
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	tolerance, err := models.ParseMoney(v.GetString("BILLING_OVERPAYMENT_TOLERANCE"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_OVERPAYMENT_TOLERANCE: %w", err)
	}
	taxDefaults, err := ParseTaxDefaults(v.GetString("TAX_DEFAULTS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_DEFAULTS: %w", err)
	}

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		Database: DatabaseConfig{
			Driver:        strings.ToLower(v.GetString("DB_DRIVER")),
			Path:          v.GetString("DB_PATH"),
			MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
			MongoURI:      v.GetString("MONGO_URI"),
			MongoDatabase: v.GetString("MONGO_DATABASE"),
		},
		Lock: LockConfig{
			Backend:       strings.ToLower(v.GetString("LOCK_BACKEND")),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           v.GetDuration("LOCK_TTL"),
		},
		Billing: BillingConfig{
			OverpaymentTolerance: tolerance,
			ConflictRetries:      v.GetInt("BILLING_CONFLICT_RETRIES"),
		},
		JWT: JWTConfig{
			Enabled:     v.GetBool("AUTH_ENABLED"),
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Shop: ShopConfig{
			Name:    v.GetString("SHOP_NAME"),
			Address: v.GetString("SHOP_ADDRESS"),
			Phone:   v.GetString("SHOP_PHONE"),
		},
		Archive: ArchiveConfig{
			Type: strings.ToLower(v.GetString("ARCHIVE_TYPE")),
			Path: v.GetString("ARCHIVE_PATH"),
		},
		ReportConcurrency: v.GetInt("REPORT_CONCURRENCY"),
		TaxDefaults:       taxDefaults,
		CORSOrigins:       splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DB_DRIVER", repositories.DriverSQLite)
	v.SetDefault("DB_PATH", "./data/tailor.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 1)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MONGO_DATABASE", "tailor")
	v.SetDefault("LOCK_BACKEND", LockBackendMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("BILLING_OVERPAYMENT_TOLERANCE", "5")
	v.SetDefault("BILLING_CONFLICT_RETRIES", 5)
	v.SetDefault("REPORT_CONCURRENCY", 4)
	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHOP_NAME", "Tailor Shop")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("ARCHIVE_TYPE", string(storage.StorageTypeNone))
	v.SetDefault("ARCHIVE_PATH", "./data/archive")
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks the loaded configuration for values the server cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case repositories.DriverSQLite, repositories.DriverMongoDB:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Lock.Backend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Lock.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.Billing.OverpaymentTolerance.IsNegative() {
		return errors.New("BILLING_OVERPAYMENT_TOLERANCE cannot be negative")
	}
	if c.Billing.ConflictRetries < 1 {
		return errors.New("BILLING_CONFLICT_RETRIES must be at least 1")
	}
	if c.JWT.Enabled && c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is set")
	}
	switch storage.StorageType(c.Archive.Type) {
	case "", storage.StorageTypeNone, storage.StorageTypeLocal:
	default:
		return fmt.Errorf("unsupported ARCHIVE_TYPE %q", c.Archive.Type)
	}
	if c.RateLimit.RPS < 0 {
		return errors.New("RATE_LIMIT_RPS cannot be negative")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// RepositoryConfig converts the storage settings into repository configuration
func (c *Config) RepositoryConfig() *repositories.Config {
	repo := repositories.DefaultConfig()
	repo.Database.Driver = c.Database.Driver
	repo.Database.Path = c.Database.Path
	repo.Database.MongoURI = c.Database.MongoURI
	repo.Database.MongoDatabase = c.Database.MongoDatabase
	if c.Database.MaxOpenConns > 0 {
		repo.Pool.MaxOpenConns = c.Database.MaxOpenConns
		if repo.Pool.MaxIdleConns > repo.Pool.MaxOpenConns {
			repo.Pool.MaxIdleConns = repo.Pool.MaxOpenConns
		}
	}
	return repo
}

// RetryConfig returns the conflict retry policy for receipt writes
func (c *Config) RetryConfig() *repositories.RetryConfig {
	retry := repositories.DefaultRetryConfig()
	if c.Billing.ConflictRetries > 0 {
		retry.MaxAttempts = c.Billing.ConflictRetries
	}
	return retry
}

// StorageConfig converts the archive settings into storage configuration
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{Type: storage.StorageType(c.Archive.Type), BasePath: c.Archive.Path}
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

