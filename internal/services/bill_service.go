package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
	"tailor-billing-api/pkg/pagination"
)

// DefaultAggregationConcurrency bounds the per-bill receipt queries of a listing
const DefaultAggregationConcurrency = 4

// billService implements the BillService interface
type billService struct {
	store       repositories.Store
	validator   *validator.Validate
	concurrency int
	logger      *logrus.Logger
}

// NewBillService creates a new bill service instance
func NewBillService(store repositories.Store, concurrency int, logger *logrus.Logger) BillService {
	if logger == nil {
		logger = logrus.New()
	}
	if concurrency < 1 {
		concurrency = DefaultAggregationConcurrency
	}
	return &billService{
		store:       store,
		validator:   validator.New(),
		concurrency: concurrency,
		logger:      logger,
	}
}

// CreateBill stores a new unpaid bill
func (s *billService) CreateBill(ctx context.Context, req *CreateBillRequest) (*BillDetails, error) {
	if req == nil {
		return nil, invalidRequest("create bill request cannot be nil")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidRequest("validation failed: %v", err)
	}

	orders := make([]models.LineOrder, len(req.Orders))
	for i, o := range req.Orders {
		orders[i] = models.LineOrder{
			Description: strings.TrimSpace(o.Description),
			Quantity:    o.Quantity,
			Amount:      o.Amount,
		}
	}

	bill := models.NewBill(req.CustomerName, orders)
	bill.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	bill.Urgent = req.Urgent
	bill.Trail = req.Trail
	bill.CreatedBy = req.CreatedBy

	if req.OrderDate != "" {
		date, err := models.ParseDate(req.OrderDate)
		if err != nil {
			return nil, invalidRequest("orderDate: %v", err)
		}
		bill.OrderDate = date
	}
	if req.DueDate != "" {
		date, err := models.ParseDate(req.DueDate)
		if err != nil {
			return nil, invalidRequest("dueDate: %v", err)
		}
		if date.Before(bill.OrderDate.Truncate(24 * time.Hour)) {
			return nil, invalidRequest("dueDate must not be before orderDate")
		}
		bill.DueDate = &date
	}

	summary := billing.Aggregate(bill, nil)
	details := withSummary(bill, summary)
	details.Receipts = []*models.Receipt{}

	if err := s.store.Bills().Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	details.Summary.BillNumber = bill.BillNumber

	s.logger.WithFields(logrus.Fields{
		"bill_number": bill.BillNumber,
		"customer":    bill.CustomerName,
		"total":       bill.TotalAmount.String(),
	}).Info("Bill created")

	return details, nil
}

// GetBill returns the bill with a fresh aggregate over all its receipts
func (s *billService) GetBill(ctx context.Context, billNumber int64) (*BillDetails, error) {
	bill, err := s.store.Bills().GetByNumber(ctx, billNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	receipts, err := s.store.Receipts().ListByBill(ctx, billNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts of bill: %w", err)
	}
	if receipts == nil {
		receipts = []*models.Receipt{}
	}

	details := withSummary(bill, billing.Aggregate(bill, receipts))
	details.Receipts = receipts
	return details, nil
}

// ListBills returns one page of aggregated bills, newest first
func (s *billService) ListBills(ctx context.Context, filters *BillFilters) (*pagination.Result[*BillDetails], error) {
	if filters == nil {
		filters = &BillFilters{Page: pagination.NewParams(1)}
	}

	bills, err := s.store.Bills().List(ctx, filters.BillFilter, filters.Page.Limit(), filters.Page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	total, err := s.store.Bills().Count(ctx, filters.BillFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count bills: %w", err)
	}

	summaries, err := aggregateBills(ctx, s.store.Receipts(), bills, s.concurrency)
	if err != nil {
		return nil, err
	}

	items := make([]*BillDetails, len(bills))
	for i, bill := range bills {
		items[i] = withSummary(bill, summaries[i])
	}
	return pagination.NewResult(items, total, filters.Page), nil
}

// UpdateDeliveryStatus moves a bill from Pending to Delivered. Repeating the
// current status is a no-op.
func (s *billService) UpdateDeliveryStatus(ctx context.Context, billNumber int64, status models.DeliveryStatus) (*BillDetails, error) {
	if !status.IsValid() {
		return nil, invalidRequest("deliveryStatus must be Pending or Delivered")
	}

	bill, err := s.store.Bills().GetByNumber(ctx, billNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	switch {
	case bill.DeliveryStatus == status:
	case bill.DeliveryStatus == models.DeliveryStatusDelivered:
		return nil, invalidRequest("bill %d is already delivered", billNumber)
	default:
		if err := s.store.Bills().UpdateDeliveryStatus(ctx, billNumber, status); err != nil {
			return nil, fmt.Errorf("failed to update delivery status: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"bill_number": billNumber,
			"status":      status,
		}).Info("Bill delivery status updated")
	}

	return s.GetBill(ctx, billNumber)
}

// aggregateBills loads each bill's receipts concurrently and summarizes them.
// Summaries keep the order of bills.
func aggregateBills(ctx context.Context, receipts repositories.ReceiptRepository, bills []*models.Bill, limit int) ([]billing.Summary, error) {
	summaries := make([]billing.Summary, len(bills))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, bill := range bills {
		g.Go(func() error {
			list, err := receipts.ListByBill(gCtx, bill.BillNumber)
			if err != nil {
				return fmt.Errorf("failed to list receipts of bill %d: %w", bill.BillNumber, err)
			}
			summaries[i] = billing.Aggregate(bill, list)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// withSummary overlays the recomputed aggregate on the bill's snapshot fields
func withSummary(bill *models.Bill, summary billing.Summary) *BillDetails {
	updatedAt := bill.UpdatedAt
	summary.ApplyTo(bill)
	bill.UpdatedAt = updatedAt
	return &BillDetails{Bill: bill, Summary: summary}
}
