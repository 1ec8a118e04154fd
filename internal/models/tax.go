package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaxType selects how a tax contribution is computed
type TaxType string

const (
	// TaxTypePercentage contributes value percent of the payment amount
	TaxTypePercentage TaxType = "Percentage"
	// TaxTypeFlat contributes a fixed amount
	TaxTypeFlat TaxType = "Flat"
)

// ParseTaxType accepts the canonical names case-insensitively
func ParseTaxType(s string) (TaxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "percent":
		return TaxTypePercentage, nil
	case "flat", "fixed":
		return TaxTypeFlat, nil
	default:
		return "", fmt.Errorf("unknown tax type %q", s)
	}
}

// IsValid reports whether the tax type is one of the known types
func (t TaxType) IsValid() bool {
	return t == TaxTypePercentage || t == TaxTypeFlat
}

// UnmarshalJSON normalizes the tax type name
func (t *TaxType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tax type must be a string: %w", err)
	}
	parsed, err := ParseTaxType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer
func (t TaxType) Value() (driver.Value, error) {
	return string(t), nil
}

// Scan implements sql.Scanner
func (t *TaxType) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = TaxType(v)
	case []byte:
		*t = TaxType(v)
	case nil:
		*t = ""
	default:
		return fmt.Errorf("cannot scan %T into TaxType", value)
	}
	return nil
}

// TaxDefinition is a named tax the shop can apply to receipts.
// Value carries two implied decimals: a percentage for Percentage taxes
// (10.00 means 10%) and a currency amount for Flat taxes.
type TaxDefinition struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name" validate:"required,max=100"`
	Type      TaxType   `json:"type" bson:"type" validate:"required"`
	Value     Money     `json:"value" bson:"value"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// NewTaxDefinition creates a tax definition with a generated ID
func NewTaxDefinition(name string, taxType TaxType, value Money) *TaxDefinition {
	now := time.Now().UTC()
	return &TaxDefinition{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Type:      taxType,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the definition is storable
func (t *TaxDefinition) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tax name is required")
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("tax type must be Percentage or Flat")
	}
	if t.Value.IsNegative() {
		return fmt.Errorf("tax value cannot be negative")
	}
	return nil
}

// Applied returns the snapshot recorded on a receipt
func (t *TaxDefinition) Applied() AppliedTax {
	return AppliedTax{Name: t.Name, Type: t.Type, Value: t.Value}
}

// AppliedTax is the immutable copy of a tax definition stored on a receipt
type AppliedTax struct {
	Name  string  `json:"name" bson:"name"`
	Type  TaxType `json:"type" bson:"type"`
	Value Money   `json:"value" bson:"value"`
}
