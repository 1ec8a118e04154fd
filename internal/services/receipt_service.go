package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/locking"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
	"tailor-billing-api/pkg/pagination"
)

// receiptService implements the ReceiptService interface
type receiptService struct {
	store      repositories.Store
	taxService TaxService
	validator  *billing.Validator
	locker     locking.Locker
	retry      *repositories.RetryConfig
	shop       ShopInfo
	logger     *logrus.Logger
}

// NewReceiptService creates a new receipt service instance
func NewReceiptService(
	store repositories.Store,
	taxService TaxService,
	validator *billing.Validator,
	locker locking.Locker,
	retry *repositories.RetryConfig,
	shop ShopInfo,
	logger *logrus.Logger,
) ReceiptService {
	if logger == nil {
		logger = logrus.New()
	}
	if locker == nil {
		locker = locking.NewKeyedMutex()
	}
	if retry == nil {
		retry = repositories.DefaultRetryConfig()
	}
	return &receiptService{
		store:      store,
		taxService: taxService,
		validator:  validator,
		locker:     locker,
		retry:      retry,
		shop:       shop,
		logger:     logger,
	}
}

// CreateReceipt runs the read-validate-write sequence under the bill's lock.
// The write also checks the bill revision, and a conflicting write restarts the
// whole sequence.
func (s *receiptService) CreateReceipt(ctx context.Context, req *CreateReceiptRequest) (*models.Receipt, error) {
	if req == nil {
		return nil, invalidRequest("create receipt request cannot be nil")
	}

	candidate := billing.Candidate{
		Amount:        req.Amount,
		Discount:      req.Discount,
		BillNumber:    req.Bill.BillNumber,
		PayeeName:     strings.TrimSpace(req.Bill.Name),
		PaymentMethod: req.PaymentMethod,
	}
	if strings.TrimSpace(req.PaymentDate) != "" {
		date, err := models.ParseDate(req.PaymentDate)
		if err != nil {
			return nil, invalidRequest("paymentDate: %v", err)
		}
		candidate.PaymentDate = date
	}

	log := s.logger.WithFields(logrus.Fields{
		"bill_number": candidate.BillNumber,
		"amount":      candidate.Amount.String(),
		"discount":    candidate.Discount.String(),
	})

	if err := s.validator.ValidateFields(candidate); err != nil {
		log.WithField("reason", billing.ErrorCode(err)).Warn("Receipt rejected")
		return nil, err
	}

	taxes, err := s.taxService.ResolveTaxes(ctx, req.Tax)
	if err != nil {
		return nil, err
	}
	candidate.Taxes = taxes

	unlock, err := s.locker.Lock(ctx, locking.BillKey(candidate.BillNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to lock bill %d: %w", candidate.BillNumber, err)
	}
	defer unlock()

	var (
		receipt *models.Receipt
		after   billing.Summary
	)
	err = repositories.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		return s.store.WithTransaction(ctx, func(ctx context.Context) error {
			var err error
			receipt, after, err = s.recordPayment(ctx, candidate, req.IssuedBy)
			return err
		})
	})
	if err != nil {
		if billing.IsValidationError(err) {
			log.WithField("reason", billing.ErrorCode(err)).Warn("Receipt rejected")
		} else if repositories.IsConcurrency(err) {
			log.Warn("Receipt abandoned after repeated write conflicts")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"receipt_number": receipt.ReceiptNumber,
		"payment_type":   receipt.PaymentType,
		"bill_status":    after.PaymentStatus,
		"due_amount":     after.DueAmount.String(),
	}).Info("Receipt recorded")
	return receipt, nil
}

// recordPayment must run inside a transaction
func (s *receiptService) recordPayment(ctx context.Context, c billing.Candidate, issuedBy string) (*models.Receipt, billing.Summary, error) {
	bill, err := s.store.Bills().GetByNumber(ctx, c.BillNumber)
	if err != nil {
		return nil, billing.Summary{}, err
	}
	prior, err := s.store.Receipts().ListByBill(ctx, c.BillNumber)
	if err != nil {
		return nil, billing.Summary{}, err
	}

	decision, err := s.validator.Validate(c, billing.Aggregate(bill, prior))
	if err != nil {
		return nil, billing.Summary{}, err
	}

	receipt := models.NewReceipt(models.BillRef{BillNumber: c.BillNumber, Name: c.PayeeName}, c.Amount, c.Discount)
	receipt.Taxes = c.Taxes
	receipt.TaxAmount = decision.TaxAmount
	receipt.PaymentMethod = c.PaymentMethod
	receipt.PaymentDate = c.PaymentDate
	receipt.PaymentType = decision.PaymentType
	receipt.IssuedBy = issuedBy

	if err := s.store.Receipts().Create(ctx, receipt); err != nil {
		return nil, billing.Summary{}, err
	}

	after := billing.Aggregate(bill, slices.Concat(prior, []*models.Receipt{receipt}))
	expected := bill.Revision
	after.ApplyTo(bill)
	if err := s.store.Bills().UpdateAggregate(ctx, bill, expected); err != nil {
		return nil, billing.Summary{}, err
	}
	return receipt, after, nil
}

// GetReceipt retrieves a receipt by number
func (s *receiptService) GetReceipt(ctx context.Context, receiptNumber int64) (*models.Receipt, error) {
	receipt, err := s.store.Receipts().GetByNumber(ctx, receiptNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns one page of receipts, newest first
func (s *receiptService) ListReceipts(ctx context.Context, filters *ReceiptFilters) (*pagination.Result[*models.Receipt], error) {
	if filters == nil {
		filters = &ReceiptFilters{Page: pagination.NewParams(1)}
	}

	receipts, err := s.store.Receipts().List(ctx, filters.ReceiptFilter, filters.Page.Limit(), filters.Page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	total, err := s.store.Receipts().Count(ctx, filters.ReceiptFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count receipts: %w", err)
	}

	return pagination.NewResult(receipts, total, filters.Page), nil
}

// FormatReceiptForPrint aggregates the bill over the receipts issued up to and
// including this one
func (s *receiptService) FormatReceiptForPrint(ctx context.Context, receiptNumber int64) (*PrintableReceipt, error) {
	receipt, err := s.GetReceipt(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}

	bill, err := s.store.Bills().GetByNumber(ctx, receipt.Bill.BillNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill of receipt: %w", err)
	}
	all, err := s.store.Receipts().ListByBill(ctx, bill.BillNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts of bill: %w", err)
	}

	upTo := make([]*models.Receipt, 0, len(all))
	for _, r := range all {
		if r.ReceiptNumber <= receipt.ReceiptNumber {
			upTo = append(upTo, r)
		}
	}

	lines, _, err := billing.TaxBreakdown(receipt.Amount, receipt.Taxes)
	if err != nil {
		return nil, fmt.Errorf("failed to break down taxes of receipt %d: %w", receipt.ReceiptNumber, err)
	}

	return &PrintableReceipt{
		Shop:         s.shop,
		Receipt:      receipt,
		CustomerName: bill.CustomerName,
		Orders:       bill.Orders,
		TaxLines:     lines,
		NetPayment:   receipt.NetPayment(),
		BillSummary:  billing.Aggregate(bill, upTo),
	}, nil
}
