package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically. Repositories called with
// the context passed to fn take part in the transaction.
type TransactionManager interface {
	// WithTransaction executes fn within a transaction; the transaction is rolled
	// back if fn returns an error or panics
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
