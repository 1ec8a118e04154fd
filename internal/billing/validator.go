package billing

import (
	"strings"
	"time"

	"tailor-billing-api/internal/models"
)

// DefaultOverpaymentTolerance is how far a net payment may exceed the amount due
// before it is rejected as an overpayment.
var DefaultOverpaymentTolerance = models.Units(5)

// ValidatorConfig holds the tunables of payment validation
type ValidatorConfig struct {
	OverpaymentTolerance models.Money
}

// DefaultValidatorConfig returns the shop's standard settings
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{OverpaymentTolerance: DefaultOverpaymentTolerance}
}

// Candidate is a receipt submitted for validation
type Candidate struct {
	Amount        models.Money
	Discount      models.Money
	Taxes         []models.AppliedTax
	BillNumber    int64
	PayeeName     string
	PaymentMethod models.PaymentMethod
	PaymentDate   time.Time
}

// Decision is the outcome of a successful validation
type Decision struct {
	NetPayment   models.Money
	Overpayment  models.Money
	TaxAmount    models.Money
	RemainingDue models.Money
	PaymentType  models.PaymentType
}

// Validator checks a candidate receipt against a bill's current aggregate.
// It holds no state beyond its configuration and is safe for concurrent use.
type Validator struct {
	config ValidatorConfig
}

// NewValidator creates a validator; a negative tolerance is treated as zero
func NewValidator(config ValidatorConfig) *Validator {
	if config.OverpaymentTolerance < 0 {
		config.OverpaymentTolerance = 0
	}
	return &Validator{config: config}
}

// Tolerance returns the configured overpayment tolerance
func (v *Validator) Tolerance() models.Money {
	return v.config.OverpaymentTolerance
}

// ValidateFields checks the parts of a candidate that do not depend on the bill.
// These are the first five steps of Validate, in the same order.
func (v *Validator) ValidateFields(c Candidate) error {
	if !c.Amount.IsPositive() {
		return newValidationError(ErrInvalidAmount, "got %s", c.Amount)
	}
	if c.BillNumber <= 0 {
		return ErrMissingBillReference
	}
	if strings.TrimSpace(string(c.PaymentMethod)) == "" {
		return ErrMissingPaymentMethod
	}
	if c.PaymentDate.IsZero() {
		return ErrMissingPaymentDate
	}
	if strings.TrimSpace(c.PayeeName) == "" {
		return ErrMissingPayee
	}
	return nil
}

// Validate runs the full validation sequence; the first failing check wins.
// The summary must describe the bill before this candidate is applied.
func (v *Validator) Validate(c Candidate, bill Summary) (Decision, error) {
	if err := v.ValidateFields(c); err != nil {
		return Decision{}, err
	}

	if bill.TotalPaid >= bill.GrandTotal {
		return Decision{}, newValidationError(ErrBillAlreadyPaid,
			"bill %d has %s paid of %s", bill.BillNumber, bill.TotalPaid, bill.GrandTotal)
	}

	due := bill.DueAmount
	net := c.Amount + c.Discount
	overpayment := net - due

	if overpayment > v.config.OverpaymentTolerance {
		return Decision{}, &OverpaymentError{
			Overpayment: overpayment,
			Tolerance:   v.config.OverpaymentTolerance,
		}
	}

	if net > due {
		return Decision{}, newValidationError(ErrNetPaymentExceedsDue, "net payment %s, due %s", net, due)
	}

	if c.Discount.IsNegative() {
		return Decision{}, newValidationError(ErrInvalidDiscount, "got %s", c.Discount)
	}

	if !net.IsPositive() {
		return Decision{}, newValidationError(ErrInvalidNetPayment, "got %s", net)
	}

	taxAmount, err := CalculateTax(c.Amount, c.Taxes)
	if err != nil {
		return Decision{}, err
	}

	remaining := due - net
	return Decision{
		NetPayment:   net,
		Overpayment:  overpayment,
		TaxAmount:    taxAmount,
		RemainingDue: remaining,
		PaymentType:  PaymentTypeFor(remaining),
	}, nil
}
