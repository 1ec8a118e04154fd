package billing

import "tailor-billing-api/internal/models"

// BillStatusFor derives the payment status of a bill from what has been paid.
// A bill whose grand total is zero has nothing outstanding and counts as paid.
func BillStatusFor(paid, grandTotal models.Money) models.PaymentStatus {
	switch {
	case paid >= grandTotal:
		return models.PaymentStatusPaid
	case paid == 0:
		return models.PaymentStatusUnpaid
	default:
		return models.PaymentStatusPartiallyPaid
	}
}

// PaymentTypeFor classifies a receipt by the balance left after it
func PaymentTypeFor(remainingDue models.Money) models.PaymentType {
	if remainingDue <= 0 {
		return models.PaymentTypeFullyPaid
	}
	return models.PaymentTypeAdvance
}
