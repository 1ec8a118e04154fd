// Package mongodb implements the repositories on MongoDB. Transactions need a
// replica set or a sharded cluster.
package mongodb

import (
	"context"
	"fmt"

	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// collection names
const (
	CollectionBills    = "bills"
	CollectionReceipts = "receipts"
	CollectionTaxes    = "taxes"
	CollectionCounters = "counters"
)

// taxNameCollation compares tax names case-insensitively
var taxNameCollation = &options.Collation{Locale: "en", Strength: 2}

// Store bundles the MongoDB repositories over one client
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	logger   *logrus.Logger
	bills    *BillRepository
	receipts *ReceiptRepository
	taxes    *TaxRepository
}

// NewStore creates the MongoDB store
func NewStore(client *mongo.Client, db *mongo.Database, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		client:   client,
		db:       db,
		logger:   logger,
		bills:    NewBillRepository(db, logger),
		receipts: NewReceiptRepository(db, logger),
		taxes:    NewTaxRepository(db, logger),
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionBills: {
			{Keys: bson.D{{Key: "bill_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "order_date", Value: 1}}},
		},
		CollectionReceipts: {
			{Keys: bson.D{{Key: "receipt_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "bill.bill_number", Value: 1}, {Key: "receipt_number", Value: 1}}},
			{Keys: bson.D{{Key: "payment_date", Value: 1}}},
		},
		CollectionTaxes: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(taxNameCollation)},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	s.logger.Info("MongoDB indexes ensured")
	return nil
}

// WithTransaction runs fn in a session transaction. A context that already
// carries a session joins it.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return repositories.TransactionError("start", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
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

// Health pings the primary
func (s *Store) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return repositories.ConnectionError(err)
	}
	return nil
}

// Close disconnects the client
func (s *Store) Close() error {
	if err := s.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	s.logger.Info("MongoDB store closed")
	return nil
}

var _ repositories.Store = (*Store)(nil)
