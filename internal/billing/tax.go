package billing

import (
	"github.com/shopspring/decimal"

	"tailor-billing-api/internal/models"
)

var hundredPercent = decimal.NewFromInt(100)

// TaxLine is the contribution of one applied tax
type TaxLine struct {
	Name   string         `json:"name"`
	Type   models.TaxType `json:"type"`
	Value  models.Money   `json:"value"`
	Amount models.Money   `json:"amount"`
}

// CalculateTax returns the total tax owed on amount for the given taxes
func CalculateTax(amount models.Money, taxes []models.AppliedTax) (models.Money, error) {
	_, total, err := TaxBreakdown(amount, taxes)
	return total, err
}

// TaxBreakdown computes every tax contribution along with their sum.
// Percentage contributions are rounded half away from zero to a minor unit.
func TaxBreakdown(amount models.Money, taxes []models.AppliedTax) ([]TaxLine, models.Money, error) {
	lines := make([]TaxLine, 0, len(taxes))
	var total models.Money

	for _, tax := range taxes {
		contribution, err := contributionOf(amount, tax)
		if err != nil {
			return nil, 0, err
		}
		lines = append(lines, TaxLine{
			Name:   tax.Name,
			Type:   tax.Type,
			Value:  tax.Value,
			Amount: contribution,
		})
		total += contribution
	}

	return lines, total, nil
}

func contributionOf(amount models.Money, tax models.AppliedTax) (models.Money, error) {
	var contribution models.Money

	switch tax.Type {
	case models.TaxTypePercentage:
		// value carries two implied decimals, so value.Decimal() is the percentage itself
		var err error
		contribution, err = models.MoneyFromDecimal(
			amount.Decimal().Mul(tax.Value.Decimal()).Div(hundredPercent),
		)
		if err != nil {
			return 0, newValidationError(ErrInvalidTax, "tax %q on %s: %v", tax.Name, amount, err)
		}
	case models.TaxTypeFlat:
		contribution = tax.Value
	default:
		return 0, newValidationError(ErrInvalidTax, "tax %q has unknown type %q", tax.Name, tax.Type)
	}

	if contribution.IsNegative() {
		return 0, newValidationError(ErrInvalidTax, "tax %q yields a negative amount %s", tax.Name, contribution)
	}
	return contribution, nil
}
