package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Store bundles the SQLite repositories over one connection pool
type Store struct {
	*SQLiteTransactionManager

	db       *sql.DB
	logger   *logrus.Logger
	bills    *BillRepository
	receipts *ReceiptRepository
	taxes    *TaxRepository
}

// NewStore creates the SQLite store. The schema must already be migrated.
func NewStore(db *sql.DB, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		SQLiteTransactionManager: NewSQLiteTransactionManager(db, logger),
		db:                       db,
		logger:                   logger,
		bills:                    NewBillRepository(db, logger),
		receipts:                 NewReceiptRepository(db, logger),
		taxes:                    NewTaxRepository(db, logger),
	}
}

// Bills returns the bill repository
func (s *Store) Bills() repositories.BillRepository {
	return s.bills
}

// Receipts returns the receipt repository
func (s *Store) Receipts() repositories.ReceiptRepository {
	return s.receipts
}

// Taxes returns the tax repository
func (s *Store) Taxes() repositories.TaxRepository {
	return s.taxes
}

// Health checks the health of the database connection
func (s *Store) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return repositories.ConnectionError(err)
	}

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health query failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.logger.Info("SQLite store closed")
	return nil
}

var _ repositories.Store = (*Store)(nil)
