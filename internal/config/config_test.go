package config

import (
	"testing"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("BILLING_OVERPAYMENT_TOLERANCE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != repositories.DriverSQLite {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Billing.OverpaymentTolerance != models.Units(5) {
		t.Errorf("OverpaymentTolerance = %v, want 5.00", cfg.Billing.OverpaymentTolerance)
	}
	if cfg.Lock.Backend != LockBackendMemory {
		t.Errorf("Lock.Backend = %q, want memory", cfg.Lock.Backend)
	}
	if cfg.Archive.Type != "none" {
		t.Errorf("Archive.Type = %q, want none", cfg.Archive.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "MongoDB")
	t.Setenv("MONGO_DATABASE", "shop")
	t.Setenv("BILLING_OVERPAYMENT_TOLERANCE", "2.50")
	t.Setenv("BILLING_CONFLICT_RETRIES", "3")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("TAX_DEFAULTS", "GST:percentage:18")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != repositories.DriverMongoDB || cfg.Database.MongoDatabase != "shop" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Billing.OverpaymentTolerance != models.NewMoney(2, 50) {
		t.Errorf("OverpaymentTolerance = %v, want 2.50", cfg.Billing.OverpaymentTolerance)
	}
	if cfg.Lock.TTL.Seconds() != 3 {
		t.Errorf("Lock.TTL = %v, want 3s", cfg.Lock.TTL)
	}
	if got := cfg.RetryConfig().MaxAttempts; got != 3 {
		t.Errorf("RetryConfig().MaxAttempts = %d, want 3", got)
	}
	if len(cfg.TaxDefaults) != 1 || cfg.TaxDefaults[0].Type != models.TaxTypePercentage {
		t.Errorf("TaxDefaults = %+v", cfg.TaxDefaults)
	}

	repo := cfg.RepositoryConfig()
	if !repo.IsMongoDB() || repo.Database.MongoDatabase != "shop" {
		t.Errorf("RepositoryConfig() = %+v", repo.Database)
	}
}

func TestLoad_InvalidTolerance(t *testing.T) {
	t.Setenv("BILLING_OVERPAYMENT_TOLERANCE", "five")
	if _, err := Load(); err == nil {
		t.Error("Load() expected error for non-numeric tolerance")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: repositories.DriverSQLite},
			Lock:     LockConfig{Backend: LockBackendMemory},
			Billing:  BillingConfig{OverpaymentTolerance: models.Units(5), ConflictRetries: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"unknown lock backend", func(c *Config) { c.Lock.Backend = "etcd" }, true},
		{"redis without address", func(c *Config) { c.Lock.Backend = LockBackendRedis }, true},
		{"redis with address", func(c *Config) { c.Lock = LockConfig{Backend: LockBackendRedis, RedisAddr: "r:6379"} }, false},
		{"negative tolerance", func(c *Config) { c.Billing.OverpaymentTolerance = models.Units(-1) }, true},
		{"zero retries", func(c *Config) { c.Billing.ConflictRetries = 0 }, true},
		{"auth without secret", func(c *Config) { c.JWT.Enabled = true }, true},
		{"auth with secret", func(c *Config) { c.JWT = JWTConfig{Enabled: true, Secret: "s"} }, false},
		{"negative rate", func(c *Config) { c.RateLimit.RPS = -1 }, true},
		{"local archive", func(c *Config) { c.Archive = ArchiveConfig{Type: "local", Path: "./archive"} }, false},
		{"unknown archive", func(c *Config) { c.Archive.Type = "s3" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseTaxDefaults(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"single", "GST:percentage:18", 1, false},
		{"several", "GST:Percentage:18, Packing:flat:20.50", 2, false},
		{"missing value", "GST:percentage", 0, true},
		{"unknown type", "GST:compound:5", 0, true},
		{"bad value", "GST:percentage:x", 0, true},
		{"negative value", "Packing:flat:-1", 0, true},
		{"duplicate", "GST:flat:1,gst:flat:2", 0, true},
		{"empty name", ":flat:1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTaxDefaults(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTaxDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("ParseTaxDefaults() = %+v, want %d entries", got, tt.want)
			}
		})
	}

	got, _ := ParseTaxDefaults("Packing:flat:20.50")
	if got[0].Value != models.NewMoney(20, 50) || got[0].Type != models.TaxTypeFlat {
		t.Errorf("ParseTaxDefaults() = %+v", got[0])
	}
}

func TestAdaptConfigForServerless(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg := &Config{
		Database: DatabaseConfig{Driver: repositories.DriverSQLite, Path: "./data/tailor.db"},
		Lock:     LockConfig{Backend: LockBackendMemory},
		Log:      LogConfig{Format: "text"},
	}

	if got := AdaptConfigForServerless(cfg, false); got.Lock.Backend != LockBackendMemory {
		t.Errorf("non-serverless config changed: %+v", got.Lock)
	}

	got := AdaptConfigForServerless(cfg, true)
	if got.Database.Path != "/mnt/efs/tailor.db" {
		t.Errorf("Database.Path = %q", got.Database.Path)
	}
	if got.Lock.Backend != LockBackendRedis {
		t.Errorf("Lock.Backend = %q, want redis", got.Lock.Backend)
	}
	if got.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", got.Log.Format)
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "debug", Format: "text"})
	if logger.GetLevel().String() != "debug" {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}

	fallback := NewLogger(LogConfig{Level: "loud"})
	if fallback.GetLevel().String() != "info" {
		t.Errorf("level = %v, want info", fallback.GetLevel())
	}
}
