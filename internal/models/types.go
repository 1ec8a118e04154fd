package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted by query parameters and payloads
const DateLayout = "2006-01-02"

// ParseDate accepts either a calendar date or an RFC3339 timestamp
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
	}
	return t.UTC(), nil
}

// DateRange is an optional window; To is inclusive
type DateRange struct {
	From *time.Time `json:"fromDate,omitempty"`
	To   *time.Time `json:"toDate,omitempty"`
}

// ParseDateRange parses optional from/to query values. A calendar-date upper
// bound covers the whole day.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if from != "" {
		t, err := ParseDate(from)
		if err != nil {
			return r, fmt.Errorf("fromDate: %w", err)
		}
		r.From = &t
	}
	if to != "" {
		t, err := ParseDate(to)
		if err != nil {
			return r, fmt.Errorf("toDate: %w", err)
		}
		if _, err := time.Parse(DateLayout, strings.TrimSpace(to)); err == nil {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return r, fmt.Errorf("toDate must not be before fromDate")
	}
	return r, nil
}

// Contains reports whether t falls inside the window
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// BillFilter narrows bill listings
type BillFilter struct {
	DateRange
	PaymentStatus  PaymentStatus
	DeliveryStatus DeliveryStatus
	CustomerName   string
}

// ReceiptFilter narrows receipt listings
type ReceiptFilter struct {
	DateRange
	BillNumber int64
}

// DashboardStats summarizes bills and receipts over a window
type DashboardStats struct {
	TotalBills         int       `json:"totalBills"`
	UnpaidBills        int       `json:"unpaidBills"`
	PartiallyPaidBills int       `json:"partiallyPaidBills"`
	PaidBills          int       `json:"paidBills"`
	PendingDelivery    int       `json:"pendingDelivery"`
	Delivered          int       `json:"delivered"`
	UrgentBills        int       `json:"urgentBills"`
	OverdueBills       int       `json:"overdueBills"`
	TotalReceipts      int       `json:"totalReceipts"`
	TotalAmount        Money     `json:"totalAmount"`
	TotalDiscount      Money     `json:"totalDiscount"`
	TotalTax           Money     `json:"totalTax"`
	GrandTotal         Money     `json:"grandTotal"`
	TotalPaid          Money     `json:"totalPaid"`
	TotalDue           Money     `json:"totalDue"`
	ReceiptsCollected  Money     `json:"receiptsCollected"`
	Window             DateRange `json:"window"`
	GeneratedAt        time.Time `json:"generatedAt"`
}
