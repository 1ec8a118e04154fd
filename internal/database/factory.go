package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tailor-billing-api/internal/repositories"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ConnectionFactory creates database connections for the configured driver
type ConnectionFactory struct {
	logger *logrus.Logger
}

// NewConnectionFactory creates a new connection factory
func NewConnectionFactory(logger *logrus.Logger) *ConnectionFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConnectionFactory{
		logger: logger,
	}
}

// CreateSQLiteConnection opens the SQLite database, creating its directory if needed
func (f *ConnectionFactory) CreateSQLiteConnection(ctx context.Context, config *repositories.Config) (*sql.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !config.IsSQLite() {
		return nil, fmt.Errorf("driver %q is not sqlite", config.Database.Driver)
	}

	absPath, err := filepath.Abs(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := BuildSQLiteDSN(absPath, config)

	f.logger.WithFields(logrus.Fields{
		"driver": "sqlite",
		"path":   absPath,
	}).Info("Creating SQLite connection")

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, repositories.ConnectionError(err)
	}

	db.SetMaxOpenConns(config.Pool.MaxOpenConns)
	db.SetMaxIdleConns(config.Pool.MaxIdleConns)
	db.SetConnMaxLifetime(config.Pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, repositories.ConnectionError(err)
	}

	f.logger.WithField("path", absPath).Info("SQLite connection established")
	return db, nil
}

// BuildSQLiteDSN builds a go-sqlite3 DSN. Transactions begin IMMEDIATE so that
// concurrent writers queue on the busy timeout instead of failing on upgrade.
func BuildSQLiteDSN(path string, config *repositories.Config) string {
	options := []string{
		"_foreign_keys=on",
		"_txlock=immediate",
	}

	if config.Database.JournalMode != "" {
		options = append(options, "_journal_mode="+config.Database.JournalMode)
	}
	if config.Database.BusyTimeout > 0 {
		options = append(options, fmt.Sprintf("_busy_timeout=%d", config.Database.BusyTimeout))
	}

	return path + "?" + strings.Join(options, "&")
}

// CheckSQLiteHealth runs a trivial query and verifies foreign keys are enforced
func CheckSQLiteHealth(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	var fkEnabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return fmt.Errorf("failed to check foreign key status: %w", err)
	}
	if fkEnabled != 1 {
		return fmt.Errorf("foreign keys are not enabled")
	}

	return nil
}
