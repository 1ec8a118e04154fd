package repositories

import (
	"context"

	"tailor-billing-api/internal/models"
)

// BillRepository persists bills. Bill numbers are assigned on Create and are
// strictly increasing.
type BillRepository interface {
	// Create assigns the next bill number and stores the bill
	Create(ctx context.Context, bill *models.Bill) error

	// GetByNumber retrieves a bill by its bill number
	GetByNumber(ctx context.Context, billNumber int64) (*models.Bill, error)

	// List retrieves bills matching the filter, newest first
	List(ctx context.Context, filter models.BillFilter, limit, offset int) ([]*models.Bill, error)

	// Count returns the number of bills matching the filter
	Count(ctx context.Context, filter models.BillFilter) (int64, error)

	// UpdateAggregate stores the bill's aggregate snapshot if its revision still
	// equals expectedRevision, and bumps the revision. A stale revision yields ErrConcurrency.
	UpdateAggregate(ctx context.Context, bill *models.Bill, expectedRevision int64) error

	// UpdateDeliveryStatus changes the delivery status of a bill
	UpdateDeliveryStatus(ctx context.Context, billNumber int64, status models.DeliveryStatus) error
}

// ReceiptRepository persists receipts. Receipts are never updated or deleted.
type ReceiptRepository interface {
	// Create assigns the next receipt number and stores the receipt
	Create(ctx context.Context, receipt *models.Receipt) error

	// GetByNumber retrieves a receipt by its receipt number
	GetByNumber(ctx context.Context, receiptNumber int64) (*models.Receipt, error)

	// ListByBill retrieves every receipt of a bill in receipt-number order
	ListByBill(ctx context.Context, billNumber int64) ([]*models.Receipt, error)

	// List retrieves receipts matching the filter, newest first
	List(ctx context.Context, filter models.ReceiptFilter, limit, offset int) ([]*models.Receipt, error)

	// Count returns the number of receipts matching the filter
	Count(ctx context.Context, filter models.ReceiptFilter) (int64, error)
}

// TaxRepository persists tax definitions keyed by unique name
type TaxRepository interface {
	Create(ctx context.Context, tax *models.TaxDefinition) error
	GetByName(ctx context.Context, name string) (*models.TaxDefinition, error)
	List(ctx context.Context) ([]*models.TaxDefinition, error)
	Update(ctx context.Context, tax *models.TaxDefinition) error
	Delete(ctx context.Context, name string) error
}

// Store provides access to all repositories of one storage backend
type Store interface {
	TransactionManager

	// Bills returns the bill repository
	Bills() BillRepository

	// Receipts returns the receipt repository
	Receipts() ReceiptRepository

	// Taxes returns the tax definition repository
	Taxes() TaxRepository

	// Health checks the health of the storage connection
	Health(ctx context.Context) error

	// Close closes the storage connection
	Close() error
}
