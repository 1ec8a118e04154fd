package billing

import (
	"errors"
	"fmt"

	"tailor-billing-api/internal/models"
)

// Sentinel errors for payment validation. Callers compare with errors.Is.
var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrMissingBillReference = errors.New("bill number is required")
	ErrMissingPaymentMethod = errors.New("payment method is required")
	ErrMissingPaymentDate   = errors.New("payment date is required")
	ErrMissingPayee         = errors.New("payee name is required")
	ErrBillAlreadyPaid      = errors.New("bill is already fully paid")
	ErrOverpaymentExceeded  = errors.New("payment exceeds the amount due beyond the allowed tolerance")
	ErrNetPaymentExceedsDue = errors.New("net payment exceeds the amount due")
	ErrInvalidDiscount      = errors.New("discount cannot be negative")
	ErrInvalidNetPayment    = errors.New("net payment must be greater than zero")
	ErrInvalidTax           = errors.New("invalid tax")
)

var errorCodes = map[error]string{
	ErrInvalidAmount:        "InvalidAmountError",
	ErrMissingBillReference: "MissingBillReferenceError",
	ErrMissingPaymentMethod: "MissingPaymentMethodError",
	ErrMissingPaymentDate:   "MissingPaymentDateError",
	ErrMissingPayee:         "MissingPayeeError",
	ErrBillAlreadyPaid:      "BillAlreadyPaidError",
	ErrOverpaymentExceeded:  "OverpaymentExceededError",
	ErrNetPaymentExceedsDue: "NetPaymentExceedsDueError",
	ErrInvalidDiscount:      "InvalidDiscountError",
	ErrInvalidNetPayment:    "InvalidNetPaymentError",
	ErrInvalidTax:           "InvalidTaxError",
}

// ValidationError wraps a sentinel with details about the offending values
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// OverpaymentError is returned when a payment would settle more than the amount
// due plus the configured tolerance.
type OverpaymentError struct {
	Overpayment models.Money
	Tolerance   models.Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("%s: overpayment of %s exceeds tolerance of %s",
		ErrOverpaymentExceeded.Error(), e.Overpayment, e.Tolerance)
}

func (e *OverpaymentError) Unwrap() error {
	return ErrOverpaymentExceeded
}

func newValidationError(err error, format string, args ...interface{}) error {
	return &ValidationError{Err: err, Details: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err came from payment validation
func IsValidationError(err error) bool {
	return ErrorCode(err) != ""
}

// ErrorCode returns the taxonomy name (e.g. "InvalidAmountError") for a
// validation failure, or "" when err is not one.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}
