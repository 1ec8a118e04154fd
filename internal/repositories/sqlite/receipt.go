package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const receiptColumns = `
	id, receipt_number, bill_number, payee_name, amount, discount, taxes, tax_amount,
	payment_method, payment_date, payment_type, issued_by, created_at`

// ReceiptRepository implements the ReceiptRepository interface for SQLite
type ReceiptRepository struct {
	*BaseRepository
}

// NewReceiptRepository creates a new SQLite receipt repository
func NewReceiptRepository(db *sql.DB, logger *logrus.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		BaseRepository: NewBaseRepository(db, "receipts", logger),
	}
}

// Create assigns the next receipt number and inserts the receipt
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if err := receipt.Validate(); err != nil {
		return repositories.ValidationError("receipt", receipt.ID, err)
	}

	taxes := receipt.Taxes
	if taxes == nil {
		taxes = []models.AppliedTax{}
	}
	encodedTaxes, err := json.Marshal(taxes)
	if err != nil {
		return fmt.Errorf("failed to encode taxes: %w", err)
	}

	return r.inTransaction(ctx, func(ctx context.Context) error {
		number, err := r.nextSequence(ctx, sequenceReceiptNumber)
		if err != nil {
			return err
		}

		query := `INSERT INTO receipts (` + receiptColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err = r.executeExec(ctx, "create", query,
			receipt.ID,
			number,
			receipt.Bill.BillNumber,
			receipt.Bill.Name,
			receipt.Amount,
			receipt.Discount,
			string(encodedTaxes),
			receipt.TaxAmount,
			receipt.PaymentMethod,
			receipt.PaymentDate.UTC(),
			receipt.PaymentType,
			nullString(receipt.IssuedBy),
			receipt.CreatedAt.UTC(),
		)
		if err != nil {
			switch {
			case isUniqueViolation(err):
				return repositories.DuplicateError("receipt", "id", receipt.ID)
			case isForeignKeyViolation(err):
				return repositories.NotFoundError("bill", strconv.FormatInt(receipt.Bill.BillNumber, 10))
			}
			return err
		}

		receipt.ReceiptNumber = number
		return nil
	})
}

// GetByNumber retrieves a receipt by its receipt number
func (r *ReceiptRepository) GetByNumber(ctx context.Context, receiptNumber int64) (*models.Receipt, error) {
	id := strconv.FormatInt(receiptNumber, 10)
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE receipt_number = ?`

	receipt, err := scanReceipt(r.executeQueryRow(ctx, "get_by_number", query, receiptNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NotFoundError("receipt", id)
		}
		return nil, repositories.NewRepositoryError("get_by_number", "receipt", id, err)
	}
	return receipt, nil
}

// ListByBill retrieves every receipt of a bill in receipt-number order
func (r *ReceiptRepository) ListByBill(ctx context.Context, billNumber int64) ([]*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE bill_number = ? ORDER BY receipt_number`
	return r.queryReceipts(ctx, "list_by_bill", query, billNumber)
}

// List retrieves receipts matching the filter, newest first
func (r *ReceiptRepository) List(ctx context.Context, filter models.ReceiptFilter, limit, offset int) ([]*models.Receipt, error) {
	where, args := receiptWhere(filter)
	page, pageArgs := limitOffset(limit, offset)

	query := `SELECT ` + receiptColumns + ` FROM receipts` + where + ` ORDER BY receipt_number DESC` + page
	return r.queryReceipts(ctx, "list", query, append(args, pageArgs...)...)
}

// Count returns the number of receipts matching the filter
func (r *ReceiptRepository) Count(ctx context.Context, filter models.ReceiptFilter) (int64, error) {
	where, args := receiptWhere(filter)

	var count int64
	if err := r.executeQueryRow(ctx, "count", `SELECT COUNT(*) FROM receipts`+where, args...).Scan(&count); err != nil {
		return 0, repositories.NewRepositoryError("count", "receipt", "", err)
	}
	return count, nil
}

func (r *ReceiptRepository) queryReceipts(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Receipt, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, "receipt", "", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "receipt", "", err)
	}
	return receipts, nil
}

func receiptWhere(filter models.ReceiptFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, "payment_date >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conditions = append(conditions, "payment_date <= ?")
		args = append(args, filter.To.UTC())
	}
	if filter.BillNumber > 0 {
		conditions = append(conditions, "bill_number = ?")
		args = append(args, filter.BillNumber)
	}

	return whereClause(conditions), args
}

func scanReceipt(row rowScanner) (*models.Receipt, error) {
	var (
		receipt  models.Receipt
		taxes    string
		issuedBy sql.NullString
	)

	err := row.Scan(
		&receipt.ID,
		&receipt.ReceiptNumber,
		&receipt.Bill.BillNumber,
		&receipt.Bill.Name,
		&receipt.Amount,
		&receipt.Discount,
		&taxes,
		&receipt.TaxAmount,
		&receipt.PaymentMethod,
		&receipt.PaymentDate,
		&receipt.PaymentType,
		&issuedBy,
		&receipt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(taxes), &receipt.Taxes); err != nil {
		return nil, fmt.Errorf("failed to decode taxes of receipt %d: %w", receipt.ReceiptNumber, err)
	}
	receipt.IssuedBy = issuedBy.String
	return &receipt, nil
}

var _ repositories.ReceiptRepository = (*ReceiptRepository)(nil)
