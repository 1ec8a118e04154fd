package billing

import (
	"time"

	"tailor-billing-api/internal/models"
)

// Summary is the reconciled state of a bill computed from its orders and receipts
type Summary struct {
	BillNumber     int64                `json:"billNumber"`
	TotalAmount    models.Money         `json:"totalAmount"`
	TotalDiscount  models.Money         `json:"totalDiscount"`
	TotalTaxAmount models.Money         `json:"totalTaxAmount"`
	TotalPaid      models.Money         `json:"totalPaid"`
	GrandTotal     models.Money         `json:"grandTotal"`
	DueAmount      models.Money         `json:"dueAmount"`
	PaymentStatus  models.PaymentStatus `json:"paymentStatus"`
	ReceiptCount   int                  `json:"receiptCount"`
}

// Aggregate recomputes a bill's totals. Only receipts referencing the bill's
// number are counted; the result depends solely on the inputs.
func Aggregate(bill *models.Bill, receipts []*models.Receipt) Summary {
	s := Summary{
		BillNumber:  bill.BillNumber,
		TotalAmount: models.OrdersTotal(bill.Orders),
	}

	for _, r := range receipts {
		if r == nil || r.Bill.BillNumber != bill.BillNumber {
			continue
		}
		s.TotalDiscount += r.Discount
		s.TotalTaxAmount += r.TaxAmount
		s.TotalPaid += r.Amount
		s.ReceiptCount++
	}

	s.GrandTotal = s.TotalAmount - s.TotalDiscount + s.TotalTaxAmount
	s.DueAmount = s.GrandTotal - s.TotalPaid
	s.PaymentStatus = BillStatusFor(s.TotalPaid, s.GrandTotal)
	return s
}

// ApplyTo copies the summary onto the bill's persisted snapshot fields
func (s Summary) ApplyTo(bill *models.Bill) {
	bill.TotalAmount = s.TotalAmount
	bill.Discount = s.TotalDiscount
	bill.TaxAmount = s.TotalTaxAmount
	bill.GrandTotal = s.GrandTotal
	bill.PaidAmount = s.TotalPaid
	bill.DueAmount = s.DueAmount
	bill.PaymentStatus = s.PaymentStatus
	bill.UpdatedAt = time.Now().UTC()
}

// AggregateMany summarizes bills against a pool of receipts, preserving bill order
func AggregateMany(bills []*models.Bill, receipts []*models.Receipt) []Summary {
	byBill := make(map[int64][]*models.Receipt, len(bills))
	for _, r := range receipts {
		byBill[r.Bill.BillNumber] = append(byBill[r.Bill.BillNumber], r)
	}

	summaries := make([]Summary, len(bills))
	for i, b := range bills {
		summaries[i] = Aggregate(b, byBill[b.BillNumber])
	}
	return summaries
}
