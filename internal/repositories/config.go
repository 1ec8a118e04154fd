package repositories

import (
	"errors"
	"fmt"
	"time"
)

// Supported storage drivers
const (
	DriverSQLite  = "sqlite"
	DriverMongoDB = "mongodb"
)

// Config represents repository configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Connection pool configuration
	Pool PoolConfig `json:"pool" yaml:"pool"`

	// Query configuration
	Query QueryConfig `json:"query" yaml:"query"`
}

// DatabaseConfig represents database-specific configuration
type DatabaseConfig struct {
	// Driver selects the storage backend (sqlite, mongodb)
	Driver string `json:"driver" yaml:"driver"`

	// Path is the database file path (SQLite)
	Path string `json:"path" yaml:"path"`

	// Journal mode for SQLite
	JournalMode string `json:"journal_mode" yaml:"journal_mode"`

	// Busy timeout for SQLite (in milliseconds)
	BusyTimeout int `json:"busy_timeout" yaml:"busy_timeout"`

	// MongoURI is the MongoDB connection string
	MongoURI string `json:"mongo_uri" yaml:"mongo_uri"`

	// MongoDatabase is the MongoDB database name
	MongoDatabase string `json:"mongo_database" yaml:"mongo_database"`
}

// PoolConfig represents connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// QueryConfig represents query-specific configuration
type QueryConfig struct {
	// Timeout is the default query timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// SlowQueryThreshold is the threshold for logging slow queries
	SlowQueryThreshold time.Duration `json:"slow_query_threshold" yaml:"slow_query_threshold"`
}

// DefaultConfig returns a default repository configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:        DriverSQLite,
			Path:          "data/tailor.db",
			JournalMode:   "WAL",
			BusyTimeout:   5000,
			MongoURI:      "mongodb://localhost:27017/?replicaSet=rs0",
			MongoDatabase: "tailor",
		},
		Pool: PoolConfig{
			// a single connection serializes SQLite writers
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
		},
		Query: QueryConfig{
			Timeout:            30 * time.Second,
			SlowQueryThreshold: 500 * time.Millisecond,
		},
	}
}

// Validate validates the repository configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for SQLite")
		}
	case DriverMongoDB:
		if c.Database.MongoURI == "" {
			return errors.New("mongo URI is required for MongoDB")
		}
		if c.Database.MongoDatabase == "" {
			return errors.New("mongo database name is required for MongoDB")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Pool.MaxOpenConns <= 0 {
		return errors.New("max open connections must be greater than 0")
	}
	if c.Pool.MaxIdleConns > c.Pool.MaxOpenConns {
		return errors.New("max idle connections cannot exceed max open connections")
	}
	if c.Query.Timeout <= 0 {
		return errors.New("query timeout must be greater than 0")
	}
	return nil
}

// IsSQLite returns true if the database driver is SQLite
func (c *Config) IsSQLite() bool {
	return c.Database.Driver == DriverSQLite
}

// IsMongoDB returns true if the database driver is MongoDB
func (c *Config) IsMongoDB() bool {
	return c.Database.Driver == DriverMongoDB
}
