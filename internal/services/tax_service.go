package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
)

// taxService implements the TaxService interface
type taxService struct {
	taxRepo   repositories.TaxRepository
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewTaxService creates a new tax service instance
func NewTaxService(taxRepo repositories.TaxRepository, logger *logrus.Logger) TaxService {
	if logger == nil {
		logger = logrus.New()
	}
	return &taxService{
		taxRepo:   taxRepo,
		validator: validator.New(),
		logger:    logger,
	}
}

// CreateTax stores a new tax definition
func (s *taxService) CreateTax(ctx context.Context, req *TaxRequest) (*models.TaxDefinition, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	tax := models.NewTaxDefinition(strings.TrimSpace(req.Name), req.Type, req.Value)
	if err := s.taxRepo.Create(ctx, tax); err != nil {
		return nil, fmt.Errorf("failed to create tax: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tax":   tax.Name,
		"type":  tax.Type,
		"value": tax.Value.String(),
	}).Info("Tax definition created")
	return tax, nil
}

// GetTax retrieves a tax definition by name
func (s *taxService) GetTax(ctx context.Context, name string) (*models.TaxDefinition, error) {
	tax, err := s.taxRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get tax: %w", err)
	}
	return tax, nil
}

// ListTaxes returns every tax definition ordered by name
func (s *taxService) ListTaxes(ctx context.Context) ([]*models.TaxDefinition, error) {
	taxes, err := s.taxRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list taxes: %w", err)
	}
	if taxes == nil {
		taxes = []*models.TaxDefinition{}
	}
	return taxes, nil
}

// UpdateTax replaces the definition stored under name. Existing receipts keep
// the snapshot taken when they were issued.
func (s *taxService) UpdateTax(ctx context.Context, name string, req *TaxRequest) (*models.TaxDefinition, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	tax, err := s.taxRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get tax: %w", err)
	}

	tax.Name = strings.TrimSpace(req.Name)
	tax.Type = req.Type
	tax.Value = req.Value
	if err := s.taxRepo.Update(ctx, tax); err != nil {
		return nil, fmt.Errorf("failed to update tax: %w", err)
	}
	return tax, nil
}

// DeleteTax removes a tax definition
func (s *taxService) DeleteTax(ctx context.Context, name string) error {
	if err := s.taxRepo.Delete(ctx, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("failed to delete tax: %w", err)
	}
	return nil
}

// ResolveTaxes never rejects a tax itself; type and value checks belong to
// payment validation so that they fail in their usual order.
func (s *taxService) ResolveTaxes(ctx context.Context, inputs []TaxInput) ([]models.AppliedTax, error) {
	applied := make([]models.AppliedTax, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name != "" {
			stored, err := s.taxRepo.GetByName(ctx, name)
			switch {
			case err == nil:
				applied = append(applied, stored.Applied())
				continue
			case !repositories.IsNotFound(err):
				return nil, fmt.Errorf("failed to resolve tax %q: %w", name, err)
			}
		}
		applied = append(applied, models.AppliedTax{Name: name, Type: in.Type, Value: in.Value})
	}
	return applied, nil
}

func (s *taxService) validateRequest(req *TaxRequest) error {
	if req == nil {
		return invalidRequest("tax request cannot be nil")
	}
	if err := s.validator.Struct(req); err != nil {
		return invalidRequest("validation failed: %v", err)
	}
	if !req.Type.IsValid() {
		return invalidRequest("tax type must be Percentage or Flat")
	}
	return nil
}
