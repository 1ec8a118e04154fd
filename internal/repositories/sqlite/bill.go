package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const billColumns = `
	id, bill_number, customer_name, customer_phone, orders, order_date, due_date,
	urgent, trail, delivery_status, created_by, total_amount, discount, tax_amount,
	grand_total, paid_amount, due_amount, payment_status, revision, created_at, updated_at`

// BillRepository implements the BillRepository interface for SQLite
type BillRepository struct {
	*BaseRepository
}

// NewBillRepository creates a new SQLite bill repository
func NewBillRepository(db *sql.DB, logger *logrus.Logger) *BillRepository {
	return &BillRepository{
		BaseRepository: NewBaseRepository(db, "bills", logger),
	}
}

// Create assigns the next bill number and inserts the bill
func (r *BillRepository) Create(ctx context.Context, bill *models.Bill) error {
	if err := bill.Validate(); err != nil {
		return repositories.ValidationError("bill", bill.ID, err)
	}

	orders, err := json.Marshal(bill.Orders)
	if err != nil {
		return fmt.Errorf("failed to encode orders: %w", err)
	}

	return r.inTransaction(ctx, func(ctx context.Context) error {
		number, err := r.nextSequence(ctx, sequenceBillNumber)
		if err != nil {
			return err
		}

		query := `INSERT INTO bills (` + billColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err = r.executeExec(ctx, "create", query,
			bill.ID,
			number,
			bill.CustomerName,
			nullString(bill.CustomerPhone),
			string(orders),
			bill.OrderDate.UTC(),
			nullTime(bill.DueDate),
			bill.Urgent,
			bill.Trail,
			bill.DeliveryStatus,
			nullString(bill.CreatedBy),
			bill.TotalAmount,
			bill.Discount,
			bill.TaxAmount,
			bill.GrandTotal,
			bill.PaidAmount,
			bill.DueAmount,
			bill.PaymentStatus,
			bill.Revision,
			bill.CreatedAt.UTC(),
			bill.UpdatedAt.UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repositories.DuplicateError("bill", "id", bill.ID)
			}
			return err
		}

		bill.BillNumber = number
		return nil
	})
}

// GetByNumber retrieves a bill by its bill number
func (r *BillRepository) GetByNumber(ctx context.Context, billNumber int64) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE bill_number = ?`

	bill, err := scanBill(r.executeQueryRow(ctx, "get_by_number", query, billNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NotFoundError("bill", strconv.FormatInt(billNumber, 10))
		}
		return nil, repositories.NewRepositoryError("get_by_number", "bill", strconv.FormatInt(billNumber, 10), err)
	}
	return bill, nil
}

// List retrieves bills matching the filter, newest first
func (r *BillRepository) List(ctx context.Context, filter models.BillFilter, limit, offset int) ([]*models.Bill, error) {
	where, args := billWhere(filter)
	page, pageArgs := limitOffset(limit, offset)

	query := `SELECT ` + billColumns + ` FROM bills` + where + ` ORDER BY bill_number DESC` + page
	rows, err := r.executeQuery(ctx, "list", query, append(args, pageArgs...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "bill", "", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "bill", "", err)
	}
	return bills, nil
}

// Count returns the number of bills matching the filter
func (r *BillRepository) Count(ctx context.Context, filter models.BillFilter) (int64, error) {
	where, args := billWhere(filter)

	var count int64
	if err := r.executeQueryRow(ctx, "count", `SELECT COUNT(*) FROM bills`+where, args...).Scan(&count); err != nil {
		return 0, repositories.NewRepositoryError("count", "bill", "", err)
	}
	return count, nil
}

// UpdateAggregate writes the aggregate snapshot guarded by the revision token
func (r *BillRepository) UpdateAggregate(ctx context.Context, bill *models.Bill, expectedRevision int64) error {
	id := strconv.FormatInt(bill.BillNumber, 10)
	query := `
		UPDATE bills
		SET total_amount = ?, discount = ?, tax_amount = ?, grand_total = ?,
			paid_amount = ?, due_amount = ?, payment_status = ?,
			revision = revision + 1, updated_at = ?
		WHERE bill_number = ? AND revision = ?`

	result, err := r.executeExec(ctx, "update_aggregate", query,
		bill.TotalAmount,
		bill.Discount,
		bill.TaxAmount,
		bill.GrandTotal,
		bill.PaidAmount,
		bill.DueAmount,
		bill.PaymentStatus,
		time.Now().UTC(),
		bill.BillNumber,
		expectedRevision,
	)
	if err != nil {
		return err
	}

	n, err := r.rowsAffected(result, "update_aggregate", id)
	if err != nil {
		return err
	}
	if n == 0 {
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

	result, err := r.executeExec(ctx, "update_delivery_status",
		`UPDATE bills SET delivery_status = ?, updated_at = ? WHERE bill_number = ?`,
		status, time.Now().UTC(), billNumber)
	if err != nil {
		return err
	}

	n, err := r.rowsAffected(result, "update_delivery_status", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.NotFoundError("bill", id)
	}
	return nil
}

func billWhere(filter models.BillFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, "order_date >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conditions = append(conditions, "order_date <= ?")
		args = append(args, filter.To.UTC())
	}
	if filter.PaymentStatus != "" {
		conditions = append(conditions, "payment_status = ?")
		args = append(args, filter.PaymentStatus)
	}
	if filter.DeliveryStatus != "" {
		conditions = append(conditions, "delivery_status = ?")
		args = append(args, filter.DeliveryStatus)
	}
	if filter.CustomerName != "" {
		conditions = append(conditions, "customer_name LIKE ?")
		args = append(args, "%"+filter.CustomerName+"%")
	}

	return whereClause(conditions), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row rowScanner) (*models.Bill, error) {
	var (
		bill      models.Bill
		phone     sql.NullString
		createdBy sql.NullString
		dueDate   sql.NullTime
		orders    string
	)

	err := row.Scan(
		&bill.ID,
		&bill.BillNumber,
		&bill.CustomerName,
		&phone,
		&orders,
		&bill.OrderDate,
		&dueDate,
		&bill.Urgent,
		&bill.Trail,
		&bill.DeliveryStatus,
		&createdBy,
		&bill.TotalAmount,
		&bill.Discount,
		&bill.TaxAmount,
		&bill.GrandTotal,
		&bill.PaidAmount,
		&bill.DueAmount,
		&bill.PaymentStatus,
		&bill.Revision,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(orders), &bill.Orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders of bill %d: %w", bill.BillNumber, err)
	}
	bill.CustomerPhone = phone.String
	bill.CreatedBy = createdBy.String
	if dueDate.Valid {
		t := dueDate.Time
		bill.DueDate = &t
	}
	return &bill, nil
}

var _ repositories.BillRepository = (*BillRepository)(nil)
