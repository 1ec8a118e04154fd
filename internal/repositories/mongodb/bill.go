package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// BillRepository implements the BillRepository interface for MongoDB
type BillRepository struct {
	baseRepository
}

// NewBillRepository creates a new MongoDB bill repository
func NewBillRepository(db *mongo.Database, logger *logrus.Logger) *BillRepository {
	return &BillRepository{baseRepository: newBaseRepository(db, CollectionBills, logger)}
}

// Create assigns the next bill number and inserts the bill
func (r *BillRepository) Create(ctx context.Context, bill *models.Bill) error {
	if err := bill.Validate(); err != nil {
		return repositories.ValidationError("bill", bill.ID, err)
	}

	number, err := r.nextSequence(ctx, counterBillNumber)
	if err != nil {
		return err
	}
	bill.BillNumber = number

	if _, err := r.collection.InsertOne(ctx, bill); err != nil {
		bill.BillNumber = 0
		if mongo.IsDuplicateKeyError(err) {
			return repositories.DuplicateError("bill", "id", bill.ID)
		}
		r.logError("create", err, logrus.Fields{"bill_id": bill.ID})
		return repositories.NewRepositoryError("create", "bill", bill.ID, err)
	}
	return nil
}

// GetByNumber retrieves a bill by its bill number
func (r *BillRepository) GetByNumber(ctx context.Context, billNumber int64) (*models.Bill, error) {
	id := strconv.FormatInt(billNumber, 10)

	var bill models.Bill
	if err := r.collection.FindOne(ctx, bson.M{"bill_number": billNumber}).Decode(&bill); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.NotFoundError("bill", id)
		}
		r.logError("get_by_number", err, logrus.Fields{"bill_number": billNumber})
		return nil, repositories.NewRepositoryError("get_by_number", "bill", id, err)
	}
	return &bill, nil
}

// List retrieves bills matching the filter, newest first
func (r *BillRepository) List(ctx context.Context, filter models.BillFilter, limit, offset int) ([]*models.Bill, error) {
	cursor, err := r.collection.Find(ctx, billFilter(filter), pageOptions("bill_number", -1, limit, offset))
	if err != nil {
		r.logError("list", err, nil)
		return nil, repositories.NewRepositoryError("list", "bill", "", err)
	}

	bills := []*models.Bill{}
	if err := cursor.All(ctx, &bills); err != nil {
		r.logError("list", err, nil)
		return nil, repositories.NewRepositoryError("list", "bill", "", err)
	}
	return bills, nil
}

// Count returns the number of bills matching the filter
func (r *BillRepository) Count(ctx context.Context, filter models.BillFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, billFilter(filter))
	if err != nil {
		r.logError("count", err, nil)
		return 0, repositories.NewRepositoryError("count", "bill", "", err)
	}
	return count, nil
}

// UpdateAggregate writes the aggregate snapshot guarded by the revision token
func (r *BillRepository) UpdateAggregate(ctx context.Context, bill *models.Bill, expectedRevision int64) error {
	id := strconv.FormatInt(bill.BillNumber, 10)
	update := bson.M{
		"$set": bson.M{
			"total_amount":   bill.TotalAmount,
			"discount":       bill.Discount,
			"tax_amount":     bill.TaxAmount,
			"grand_total":    bill.GrandTotal,
			"paid_amount":    bill.PaidAmount,
			"due_amount":     bill.DueAmount,
			"payment_status": bill.PaymentStatus,
			"updated_at":     time.Now().UTC(),
		},
		"$inc": bson.M{"revision": int64(1)},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"bill_number": bill.BillNumber, "revision": expectedRevision}, update)
	if err != nil {
		r.logError("update_aggregate", err, logrus.Fields{"bill_number": bill.BillNumber})
		return repositories.NewRepositoryError("update_aggregate", "bill", id, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByNumber(ctx, bill.BillNumber); err != nil {
			return err
		}
		return repositories.ConcurrencyError("bill", id, expectedRevision)
	}

	bill.Revision = expectedRevision + 1
	return nil
}

// UpdateDeliveryStatus changes the delivery status of a bill
func (r *BillRepository) UpdateDeliveryStatus(ctx context.Context, billNumber int64, status models.DeliveryStatus) error {
	id := strconv.FormatInt(billNumber, 10)
	if !status.IsValid() {
		return repositories.ValidationError("bill", id, fmt.Errorf("invalid delivery status %q", status))
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"bill_number": billNumber}, bson.M{
		"$set": bson.M{"delivery_status": status, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		r.logError("update_delivery_status", err, logrus.Fields{"bill_number": billNumber})
		return repositories.NewRepositoryError("update_delivery_status", "bill", id, err)
	}
	if res.MatchedCount == 0 {
		return repositories.NotFoundError("bill", id)
	}
	return nil
}

func billFilter(filter models.BillFilter) bson.M {
	query := bson.M{}
	if window := dateWindow(filter.From, filter.To); window != nil {
		query["order_date"] = window
	}
	if filter.PaymentStatus != "" {
		query["payment_status"] = filter.PaymentStatus
	}
	if filter.DeliveryStatus != "" {
		query["delivery_status"] = filter.DeliveryStatus
	}
	if filter.CustomerName != "" {
		query["customer_name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.CustomerName), Options: "i"}
	}
	return query
}

var _ repositories.BillRepository = (*BillRepository)(nil)
