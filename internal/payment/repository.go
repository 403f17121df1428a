package payment

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type Repository interface {
	ListPending(ctx context.Context) ([]model.PaymentRecord, error)
	Confirm(ctx context.Context, paymentID string) error
	Reject(ctx context.Context, paymentID, reason string) error
}
