package billing

import (
	"testing"

	"tailor-billing-api/internal/models"
)

func TestAggregate(t *testing.T) {
	bill := models.NewBill("Ravi", []models.LineOrder{
		{Description: "Shirt", Quantity: 2, Amount: models.Units(600)},
		{Description: "Trouser", Quantity: 1, Amount: models.Units(400)},
	})
	bill.BillNumber = 42

	tests := []struct {
		name     string
		receipts []*models.Receipt
		want     Summary
	}{
		{
			name: "no receipts",
			want: Summary{
				BillNumber:    42,
				TotalAmount:   models.Units(1000),
				GrandTotal:    models.Units(1000),
				DueAmount:     models.Units(1000),
				PaymentStatus: models.PaymentStatusUnpaid,
			},
		},
		{
			name: "discount and tax",
			receipts: []*models.Receipt{
				receiptFor(42, models.Units(300), models.Units(50), models.Units(30)),
				receiptFor(42, models.Units(200), 0, models.Units(20)),
			},
			want: Summary{
				BillNumber:     42,
				TotalAmount:    models.Units(1000),
				TotalDiscount:  models.Units(50),
				TotalTaxAmount: models.Units(50),
				TotalPaid:      models.Units(500),
				GrandTotal:     models.Units(1000),
				DueAmount:      models.Units(500),
				PaymentStatus:  models.PaymentStatusPartiallyPaid,
				ReceiptCount:   2,
			},
		},
		{
			name: "ignores receipts of other bills",
			receipts: []*models.Receipt{
				receiptFor(42, models.Units(1000), 0, 0),
				receiptFor(43, models.Units(999), models.Units(1), 0),
				nil,
			},
			want: Summary{
				BillNumber:    42,
				TotalAmount:   models.Units(1000),
				TotalPaid:     models.Units(1000),
				GrandTotal:    models.Units(1000),
				PaymentStatus: models.PaymentStatusPaid,
				ReceiptCount:  1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(bill, tt.receipts)
			if got != tt.want {
				t.Errorf("Aggregate() = %+v, want %+v", got, tt.want)
			}
			if again := Aggregate(bill, tt.receipts); again != got {
				t.Errorf("second Aggregate() = %+v, differs from %+v", again, got)
			}
			if got.DueAmount != got.GrandTotal-got.TotalPaid {
				t.Errorf("due %v != grand %v - paid %v", got.DueAmount, got.GrandTotal, got.TotalPaid)
			}
		})
	}
}

func TestSummary_ApplyTo(t *testing.T) {
	bill := newTestBill(8, models.Units(500))
	s := Aggregate(bill, []*models.Receipt{receiptFor(8, models.Units(200), models.Units(10), models.Units(5))})
	s.ApplyTo(bill)

	if bill.PaidAmount != models.Units(200) {
		t.Errorf("PaidAmount = %v, want 200.00", bill.PaidAmount)
	}
	if bill.GrandTotal != models.Units(495) {
		t.Errorf("GrandTotal = %v, want 495.00", bill.GrandTotal)
	}
	if bill.DueAmount != models.Units(295) {
		t.Errorf("DueAmount = %v, want 295.00", bill.DueAmount)
	}
	if bill.PaymentStatus != models.PaymentStatusPartiallyPaid {
		t.Errorf("PaymentStatus = %v", bill.PaymentStatus)
	}
}

func TestAggregateMany(t *testing.T) {
	a := newTestBill(1, models.Units(100))
	b := newTestBill(2, models.Units(200))
	receipts := []*models.Receipt{
		receiptFor(2, models.Units(50), 0, 0),
		receiptFor(1, models.Units(100), 0, 0),
		receiptFor(2, models.Units(25), 0, 0),
	}

	got := AggregateMany([]*models.Bill{b, a}, receipts)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].BillNumber != 2 || got[0].TotalPaid != models.Units(75) {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].BillNumber != 1 || got[1].PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestBillStatusFor(t *testing.T) {
	tests := []struct {
		paid, grand models.Money
		want        models.PaymentStatus
	}{
		{0, models.Units(100), models.PaymentStatusUnpaid},
		{models.Units(1), models.Units(100), models.PaymentStatusPartiallyPaid},
		{models.Units(100), models.Units(100), models.PaymentStatusPaid},
		{models.Units(101), models.Units(100), models.PaymentStatusPaid},
		{0, 0, models.PaymentStatusPaid},
	}
	for _, tt := range tests {
		if got := BillStatusFor(tt.paid, tt.grand); got != tt.want {
			t.Errorf("BillStatusFor(%v, %v) = %v, want %v", tt.paid, tt.grand, got, tt.want)
		}
	}
}

func TestPaymentTypeFor(t *testing.T) {
	if got := PaymentTypeFor(0); got != models.PaymentTypeFullyPaid {
		t.Errorf("PaymentTypeFor(0) = %v", got)
	}
	if got := PaymentTypeFor(-1); got != models.PaymentTypeFullyPaid {
		t.Errorf("PaymentTypeFor(-0.01) = %v", got)
	}
	if got := PaymentTypeFor(1); got != models.PaymentTypeAdvance {
		t.Errorf("PaymentTypeFor(0.01) = %v", got)
	}
}
