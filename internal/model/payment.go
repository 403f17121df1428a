package model

import "github.com/shopspring/decimal"

// PaymentRecord is a manual payment submitted by a customer or dealer and
// waiting for staff review.
type PaymentRecord struct {
	PaymentID   string          `json:"paymentId"`
	OrderID     string          `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"paymentMethod"`
	Reference   string          `json:"referenceCode"`
	Status      string          `json:"status"`
	SubmittedAt Timestamp       `json:"submittedAt"`
}
