package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the derived payment state of a bill
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "Unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusPaid          PaymentStatus = "Paid"
)

// DeliveryStatus tracks whether the garments have been handed over
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "Pending"
	DeliveryStatusDelivered DeliveryStatus = "Delivered"
)

// IsValid reports whether the delivery status is known
func (s DeliveryStatus) IsValid() bool {
	return s == DeliveryStatusPending || s == DeliveryStatusDelivered
}

// LineOrder is one tailoring job on a bill. Amount is the line total.
type LineOrder struct {
	Description string `json:"description" bson:"description" validate:"required,max=200"`
	Quantity    int    `json:"quantity" bson:"quantity" validate:"min=1"`
	Amount      Money  `json:"amount" bson:"amount" validate:"min=0"`
}

// Bill is a customer's order document. The monetary fields below Orders are the
// last persisted aggregate snapshot; authoritative values are always recomputed
// from the bill's receipts.
type Bill struct {
	ID             string         `json:"id" bson:"_id"`
	BillNumber     int64          `json:"billNumber" bson:"bill_number"`
	CustomerName   string         `json:"customerName" bson:"customer_name"`
	CustomerPhone  string         `json:"customerPhone,omitempty" bson:"customer_phone,omitempty"`
	Orders         []LineOrder    `json:"orders" bson:"orders"`
	OrderDate      time.Time      `json:"orderDate" bson:"order_date"`
	DueDate        *time.Time     `json:"dueDate,omitempty" bson:"due_date,omitempty"`
	Urgent         bool           `json:"urgent" bson:"urgent"`
	Trail          bool           `json:"trail" bson:"trail"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus" bson:"delivery_status"`
	CreatedBy      string         `json:"createdBy,omitempty" bson:"created_by,omitempty"`

	TotalAmount   Money         `json:"totalAmount" bson:"total_amount"`
	Discount      Money         `json:"discount" bson:"discount"`
	TaxAmount     Money         `json:"taxAmount" bson:"tax_amount"`
	GrandTotal    Money         `json:"grandTotal" bson:"grand_total"`
	PaidAmount    Money         `json:"paidAmount" bson:"paid_amount"`
	DueAmount     Money         `json:"dueAmount" bson:"due_amount"`
	PaymentStatus PaymentStatus `json:"paymentStatus" bson:"payment_status"`

	Revision  int64     `json:"revision" bson:"revision"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// NewBill creates an unpaid, undelivered bill with a generated ID.
// The bill number is assigned by the repository on insert.
func NewBill(customerName string, orders []LineOrder) *Bill {
	now := time.Now().UTC()
	total := OrdersTotal(orders)
	return &Bill{
		ID:             uuid.New().String(),
		CustomerName:   strings.TrimSpace(customerName),
		Orders:         orders,
		OrderDate:      now,
		DeliveryStatus: DeliveryStatusPending,
		TotalAmount:    total,
		GrandTotal:     total,
		DueAmount:      total,
		PaymentStatus:  PaymentStatusUnpaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// OrdersTotal sums the line totals
func OrdersTotal(orders []LineOrder) Money {
	var total Money
	for _, o := range orders {
		total += o.Amount
	}
	return total
}

// Validate checks the bill before it is stored
func (b *Bill) Validate() error {
	if strings.TrimSpace(b.CustomerName) == "" {
		return fmt.Errorf("customer name is required")
	}
	if len(b.Orders) == 0 {
		return fmt.Errorf("at least one order is required")
	}
	for i, o := range b.Orders {
		if strings.TrimSpace(o.Description) == "" {
			return fmt.Errorf("order %d: description is required", i+1)
		}
		if o.Quantity < 1 {
			return fmt.Errorf("order %d: quantity must be at least 1", i+1)
		}
		if o.Amount.IsNegative() {
			return fmt.Errorf("order %d: amount cannot be negative", i+1)
		}
	}
	if !b.DeliveryStatus.IsValid() {
		return fmt.Errorf("invalid delivery status %q", b.DeliveryStatus)
	}
	return nil
}

// IsOverdue reports whether the due date has passed without delivery
func (b *Bill) IsOverdue(now time.Time) bool {
	return b.DueDate != nil && b.DeliveryStatus != DeliveryStatusDelivered && now.After(*b.DueDate)
}
