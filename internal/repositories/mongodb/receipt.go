package mongodb

import (
	"context"
	"errors"
	"strconv"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReceiptRepository implements the ReceiptRepository interface for MongoDB
type ReceiptRepository struct {
	baseRepository
	bills *mongo.Collection
}

// NewReceiptRepository creates a new MongoDB receipt repository
func NewReceiptRepository(db *mongo.Database, logger *logrus.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		baseRepository: newBaseRepository(db, CollectionReceipts, logger),
		bills:          db.Collection(CollectionBills),
	}
}

// Create checks the bill exists, assigns the next receipt number and inserts the receipt
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if err := receipt.Validate(); err != nil {
		return repositories.ValidationError("receipt", receipt.ID, err)
	}

	billID := strconv.FormatInt(receipt.Bill.BillNumber, 10)
	err := r.bills.FindOne(ctx, bson.M{"bill_number": receipt.Bill.BillNumber},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repositories.NotFoundError("bill", billID)
		}
		r.logError("create", err, logrus.Fields{"bill_number": receipt.Bill.BillNumber})
		return repositories.NewRepositoryError("create", "receipt", receipt.ID, err)
	}

	number, err := r.nextSequence(ctx, counterReceiptNumber)
	if err != nil {
		return err
	}
	receipt.ReceiptNumber = number
	if receipt.Taxes == nil {
		receipt.Taxes = []models.AppliedTax{}
	}

	if _, err := r.collection.InsertOne(ctx, receipt); err != nil {
		receipt.ReceiptNumber = 0
		if mongo.IsDuplicateKeyError(err) {
			return repositories.DuplicateError("receipt", "id", receipt.ID)
		}
		r.logError("create", err, logrus.Fields{"receipt_id": receipt.ID})
		return repositories.NewRepositoryError("create", "receipt", receipt.ID, err)
	}
	return nil
}

// GetByNumber retrieves a receipt by its receipt number
func (r *ReceiptRepository) GetByNumber(ctx context.Context, receiptNumber int64) (*models.Receipt, error) {
	id := strconv.FormatInt(receiptNumber, 10)

	var receipt models.Receipt
	if err := r.collection.FindOne(ctx, bson.M{"receipt_number": receiptNumber}).Decode(&receipt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.NotFoundError("receipt", id)
		}
		r.logError("get_by_number", err, logrus.Fields{"receipt_number": receiptNumber})
		return nil, repositories.NewRepositoryError("get_by_number", "receipt", id, err)
	}
	return &receipt, nil
}

// ListByBill retrieves every receipt of a bill in receipt-number order
func (r *ReceiptRepository) ListByBill(ctx context.Context, billNumber int64) ([]*models.Receipt, error) {
	return r.find(ctx, "list_by_bill", bson.M{"bill.bill_number": billNumber}, pageOptions("receipt_number", 1, 0, 0))
}

// List retrieves receipts matching the filter, newest first
func (r *ReceiptRepository) List(ctx context.Context, filter models.ReceiptFilter, limit, offset int) ([]*models.Receipt, error) {
	return r.find(ctx, "list", receiptFilter(filter), pageOptions("receipt_number", -1, limit, offset))
}

// Count returns the number of receipts matching the filter
func (r *ReceiptRepository) Count(ctx context.Context, filter models.ReceiptFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, receiptFilter(filter))
	if err != nil {
		r.logError("count", err, nil)
		return 0, repositories.NewRepositoryError("count", "receipt", "", err)
	}
	return count, nil
}

func (r *ReceiptRepository) find(ctx context.Context, operation string, filter bson.M, opts *options.FindOptions) ([]*models.Receipt, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logError(operation, err, nil)
		return nil, repositories.NewRepositoryError(operation, "receipt", "", err)
	}

	receipts := []*models.Receipt{}
	if err := cursor.All(ctx, &receipts); err != nil {
		r.logError(operation, err, nil)
		return nil, repositories.NewRepositoryError(operation, "receipt", "", err)
	}
	return receipts, nil
}

func receiptFilter(filter models.ReceiptFilter) bson.M {
	query := bson.M{}
	if window := dateWindow(filter.From, filter.To); window != nil {
		query["payment_date"] = window
	}
	if filter.BillNumber > 0 {
		query["bill.bill_number"] = filter.BillNumber
	}
	return query
}

var _ repositories.ReceiptRepository = (*ReceiptRepository)(nil)
