package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
)

// dashboardService implements the DashboardService interface
type dashboardService struct {
	store  repositories.Store
	logger *logrus.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service instance
func NewDashboardService(store repositories.Store, logger *logrus.Logger) DashboardService {
	if logger == nil {
		logger = logrus.New()
	}
	return &dashboardService{store: store, logger: logger, now: time.Now}
}

// GetStats summarizes the bills ordered inside the window. Bill totals count
// every receipt of those bills; ReceiptsCollected counts only payments made
// inside the window.
func (s *dashboardService) GetStats(ctx context.Context, window models.DateRange) (*models.DashboardStats, error) {
	var (
		bills    []*models.Bill
		receipts []*models.Receipt
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bills, err = s.store.Bills().List(gCtx, models.BillFilter{DateRange: window}, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to list bills: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		receipts, err = s.store.Receipts().List(gCtx, models.ReceiptFilter{}, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to list receipts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	stats := &models.DashboardStats{
		TotalBills:  len(bills),
		Window:      window,
		GeneratedAt: now,
	}

	for i, summary := range billing.AggregateMany(bills, receipts) {
		bill := bills[i]

		switch summary.PaymentStatus {
		case models.PaymentStatusUnpaid:
			stats.UnpaidBills++
		case models.PaymentStatusPartiallyPaid:
			stats.PartiallyPaidBills++
		case models.PaymentStatusPaid:
			stats.PaidBills++
		}
		if bill.DeliveryStatus == models.DeliveryStatusDelivered {
			stats.Delivered++
		} else {
			stats.PendingDelivery++
		}
		if bill.Urgent {
			stats.UrgentBills++
		}
		if bill.IsOverdue(now) {
			stats.OverdueBills++
		}

		stats.TotalAmount += summary.TotalAmount
		stats.TotalDiscount += summary.TotalDiscount
		stats.TotalTax += summary.TotalTaxAmount
		stats.GrandTotal += summary.GrandTotal
		stats.TotalPaid += summary.TotalPaid
		stats.TotalDue += summary.DueAmount
	}

	for _, r := range receipts {
		if window.Contains(r.PaymentDate) {
			stats.TotalReceipts++
			stats.ReceiptsCollected += r.Amount
		}
	}

	s.logger.WithFields(logrus.Fields{
		"bills":    stats.TotalBills,
		"receipts": stats.TotalReceipts,
	}).Debug("Dashboard statistics computed")
	return stats, nil
}
