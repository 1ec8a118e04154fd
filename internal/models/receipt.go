package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod represents the payment method used
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOther        PaymentMethod = "other"
)

// PaymentType classifies a receipt against the bill balance it settled
type PaymentType string

const (
	PaymentTypeFullyPaid PaymentType = "fullyPaid"
	PaymentTypeAdvance   PaymentType = "advance"
)

// BillRef identifies the bill a receipt pays and the payee named on it
type BillRef struct {
	BillNumber int64  `json:"billNumber" bson:"bill_number"`
	Name       string `json:"name" bson:"name"`
}

// Receipt records a single payment against a bill. Receipts are immutable once stored.
type Receipt struct {
	ID            string        `json:"id" bson:"_id"`
	ReceiptNumber int64         `json:"receiptNumber" bson:"receipt_number"`
	Bill          BillRef       `json:"bill" bson:"bill"`
	Amount        Money         `json:"amount" bson:"amount"`
	Discount      Money         `json:"discount" bson:"discount"`
	Taxes         []AppliedTax  `json:"tax" bson:"taxes"`
	TaxAmount     Money         `json:"taxAmount" bson:"tax_amount"`
	PaymentMethod PaymentMethod `json:"paymentMethod" bson:"payment_method"`
	PaymentDate   time.Time     `json:"paymentDate" bson:"payment_date"`
	PaymentType   PaymentType   `json:"paymentType" bson:"payment_type"`
	IssuedBy      string        `json:"issuedBy,omitempty" bson:"issued_by,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" bson:"created_at"`
}

// NewReceipt creates a receipt with a generated ID and timestamp
func NewReceipt(bill BillRef, amount, discount Money) *Receipt {
	return &Receipt{
		ID:        uuid.New().String(),
		Bill:      bill,
		Amount:    amount,
		Discount:  discount,
		CreatedAt: time.Now().UTC(),
	}
}

// NetPayment is the amount that settles the bill balance
func (r *Receipt) NetPayment() Money {
	return r.Amount + r.Discount
}

// Validate checks the stored shape of a receipt
func (r *Receipt) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("receipt ID is required")
	}
	if r.Bill.BillNumber <= 0 {
		return fmt.Errorf("bill number is required")
	}
	if strings.TrimSpace(r.Bill.Name) == "" {
		return fmt.Errorf("payee name is required")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if r.Discount.IsNegative() {
		return fmt.Errorf("discount cannot be negative")
	}
	if r.PaymentDate.IsZero() {
		return fmt.Errorf("payment date is required")
	}
	return nil
}
