package services

import (
	"context"
	"errors"
	"testing"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
)

func TestTaxService_CRUD(t *testing.T) {
	services, _ := setupServices(t)
	ctx := context.Background()
	svc := services.TaxService

	tests := []struct {
		name    string
		req     *TaxRequest
		wantErr func(error) bool
	}{
		{name: "percentage", req: &TaxRequest{Name: "GST", Type: models.TaxTypePercentage, Value: models.Units(5)}},
		{name: "flat", req: &TaxRequest{Name: " Packing ", Type: models.TaxTypeFlat, Value: models.Units(20)}},
		{
			name:    "duplicate ignores case",
			req:     &TaxRequest{Name: "gst", Type: models.TaxTypeFlat, Value: models.Units(1)},
			wantErr: repositories.IsDuplicate,
		},
		{
			name:    "missing name",
			req:     &TaxRequest{Type: models.TaxTypeFlat},
			wantErr: func(err error) bool { return errors.Is(err, ErrInvalidRequest) },
		},
		{
			name:    "unknown type",
			req:     &TaxRequest{Name: "Cess", Type: "Compound"},
			wantErr: func(err error) bool { return errors.Is(err, ErrInvalidRequest) },
		},
		{
			name:    "negative value",
			req:     &TaxRequest{Name: "Cess", Type: models.TaxTypeFlat, Value: -1},
			wantErr: func(err error) bool { return errors.Is(err, ErrInvalidRequest) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTax(ctx, tt.req)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("CreateTax() error = %v", err)
			}
			if tt.wantErr != nil && !tt.wantErr(err) {
				t.Fatalf("CreateTax() error = %v", err)
			}
		})
	}

	taxes, err := svc.ListTaxes(ctx)
	if err != nil || len(taxes) != 2 {
		t.Fatalf("ListTaxes() = %v, %v", taxes, err)
	}
	if taxes[1].Name != "Packing" {
		t.Errorf("name should be trimmed, got %q", taxes[1].Name)
	}

	updated, err := svc.UpdateTax(ctx, "packing", &TaxRequest{Name: "Packing", Type: models.TaxTypeFlat, Value: models.Units(25)})
	if err != nil {
		t.Fatalf("UpdateTax() error = %v", err)
	}
	if updated.Value != models.Units(25) {
		t.Errorf("Value = %v", updated.Value)
	}

	if err := svc.DeleteTax(ctx, "Packing"); err != nil {
		t.Fatalf("DeleteTax() error = %v", err)
	}
	if _, err := svc.GetTax(ctx, "Packing"); !repositories.IsNotFound(err) {
		t.Errorf("GetTax() after delete error = %v, want not found", err)
	}
	if _, err := svc.UpdateTax(ctx, "Packing", &TaxRequest{Name: "Packing", Type: models.TaxTypeFlat}); !repositories.IsNotFound(err) {
		t.Errorf("UpdateTax() after delete error = %v, want not found", err)
	}
}

func TestTaxService_ResolveTaxes(t *testing.T) {
	services, _ := setupServices(t)
	ctx := context.Background()
	svc := services.TaxService

	if _, err := svc.CreateTax(ctx, &TaxRequest{Name: "VAT", Type: models.TaxTypePercentage, Value: models.Units(12)}); err != nil {
		t.Fatalf("CreateTax() error = %v", err)
	}

	applied, err := svc.ResolveTaxes(ctx, []TaxInput{
		{Name: "vat"},
		{Name: "Delivery", Type: models.TaxTypeFlat, Value: models.Units(40)},
		{Type: models.TaxTypeFlat, Value: models.Units(1)},
	})
	if err != nil {
		t.Fatalf("ResolveTaxes() error = %v", err)
	}

	want := []models.AppliedTax{
		{Name: "VAT", Type: models.TaxTypePercentage, Value: models.Units(12)},
		{Name: "Delivery", Type: models.TaxTypeFlat, Value: models.Units(40)},
		{Name: "", Type: models.TaxTypeFlat, Value: models.Units(1)},
	}
	if len(applied) != len(want) {
		t.Fatalf("ResolveTaxes() = %+v", applied)
	}
	for i := range want {
		if applied[i] != want[i] {
			t.Errorf("applied[%d] = %+v, want %+v", i, applied[i], want[i])
		}
	}

	none, err := svc.ResolveTaxes(ctx, nil)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("ResolveTaxes(nil) = %#v, %v", none, err)
	}
}
