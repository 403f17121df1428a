// Package payment reviews manual payments waiting for staff confirmation.
//
// Unlike the order screens, the pending list is updated locally: a record is
// dropped as soon as the server confirms the action, without refetching. A
// failed action leaves the list as it was; Reload reconciles.
package payment

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type Review struct {
	repo   Repository
	logger logger.ZapLogger

	mu      sync.Mutex
	pending []model.PaymentRecord
	busy    map[string]bool
}

func NewReview(repo Repository, log logger.ZapLogger) *Review {
	return &Review{
		repo:   repo,
		logger: log,
		busy:   map[string]bool{},
	}
}

// Reload replaces the local list with the server's.
func (r *Review) Reload(ctx context.Context) ([]model.PaymentRecord, error) {
	records, err := r.repo.ListPending(ctx)
	if err != nil {
		r.logger.Error("failed to list pending payments", zap.Error(err))
		return nil, err
	}
	r.mu.Lock()
	r.pending = records
	r.mu.Unlock()
	return r.Pending(), nil
}

// Pending returns a copy of the local list.
func (r *Review) Pending() []model.PaymentRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.PaymentRecord, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *Review) Approve(ctx context.Context, paymentID string) error {
	return r.resolve(ctx, paymentID, "approve", func() error {
		return r.repo.Confirm(ctx, paymentID)
	})
}

func (r *Review) Reject(ctx context.Context, paymentID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperr.Validation("a reason is required to reject a payment")
	}
	return r.resolve(ctx, paymentID, "reject", func() error {
		return r.repo.Reject(ctx, paymentID, reason)
	})
}

func (r *Review) resolve(ctx context.Context, paymentID, action string, call func() error) error {
	if strings.TrimSpace(paymentID) == "" {
		return apperr.Validation("payment id is required")
	}
	r.mu.Lock()
	if r.busy[paymentID] {
		r.mu.Unlock()
		return apperr.Validation("payment %s is already being processed", paymentID)
	}
	r.busy[paymentID] = true
	r.mu.Unlock()

	err := call()

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.busy, paymentID)
	if err != nil {
		r.logger.Error("payment review failed",
			zap.String("payment_id", paymentID),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	for i, p := range r.pending {
		if p.PaymentID == paymentID {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			break
		}
	}
	r.logger.Info("payment reviewed", zap.String("payment_id", paymentID), zap.String("action", action))
	return nil
}
