package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"tailor-billing-api/internal/adapters/storage"
	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/locking"
	"tailor-billing-api/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	ReceiptService   ReceiptService
	BillService      BillService
	TaxService       TaxService
	DashboardService DashboardService
	ReportService    ReportService
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	Validator         billing.ValidatorConfig
	Retry             *repositories.RetryConfig
	Shop              ShopInfo
	ReportConcurrency int

	// Archive keeps exported reports; nil disables archiving
	Archive storage.FileStorage
}

// DefaultServiceConfig returns the standard service settings
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Validator:         billing.DefaultValidatorConfig(),
		Retry:             repositories.DefaultRetryConfig(),
		Shop:              ShopInfo{Name: "Tailor Shop"},
		ReportConcurrency: DefaultAggregationConcurrency,
	}
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(store repositories.Store, locker locking.Locker, config *ServiceConfig, logger *logrus.Logger) (*ServiceContainer, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		config = DefaultServiceConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	taxService := NewTaxService(store.Taxes(), logger)
	receiptService := NewReceiptService(
		store,
		taxService,
		billing.NewValidator(config.Validator),
		locker,
		config.Retry,
		config.Shop,
		logger,
	)

	return &ServiceContainer{
		ReceiptService:   receiptService,
		BillService:      NewBillService(store, config.ReportConcurrency, logger),
		TaxService:       taxService,
		DashboardService: NewDashboardService(store, logger),
		ReportService:    NewReportService(store, config.ReportConcurrency, config.Archive, logger),
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.ReceiptService == nil {
		return fmt.Errorf("receipt service is nil")
	}
	if sc.BillService == nil {
		return fmt.Errorf("bill service is nil")
	}
	if sc.TaxService == nil {
		return fmt.Errorf("tax service is nil")
	}
	if sc.DashboardService == nil {
		return fmt.Errorf("dashboard service is nil")
	}
	if sc.ReportService == nil {
		return fmt.Errorf("report service is nil")
	}
	return nil
}
