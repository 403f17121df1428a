package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/auth"
	"github.com/phu-boop/ev-dealer-platform/internal/journal"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/order"
	"github.com/phu-boop/ev-dealer-platform/internal/order/dto"
)

type orderUseCase struct {
	repo    order.Repository
	journal journal.Repository
	logger  logger.ZapLogger
}

// NewOrderUseCase wires the sales service client. j may be nil, in which case
// actions are only logged.
func NewOrderUseCase(repo order.Repository, j journal.Repository, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:    repo,
		journal: j,
		logger:  log,
	}
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) (*model.Page[model.Order], error) {
	f := *filters
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown order status %q", f.Status)
	}
	if f.Page < 0 {
		return nil, apperr.Validation("page must be zero or more, got %d", f.Page)
	}
	if f.Size <= 0 {
		f.Size = dto.DefaultPageSize
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return nil, apperr.Validation("start date %s is after end date %s",
			f.StartDate.Format("2006-01-02"), f.EndDate.Format("2006-01-02"))
	}

	page, err := uc.repo.List(ctx, &f)
	if err != nil {
		uc.logger.Error("failed to list orders", zap.String("status", string(f.Status)), zap.Int("page", f.Page), zap.Error(err))
		return nil, err
	}
	if page.Size == 0 {
		page.Size = f.Size
	}
	return page, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperr.Validation("order id is required")
	}
	o, err := uc.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	if strings.TrimSpace(input.DealerID) == "" {
		return nil, apperr.Validation("dealer id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperr.Validation("an order needs at least one item")
	}
	req := &dto.CreateOrderRequest{
		DealerID: input.DealerID,
		Notes:    strings.TrimSpace(input.Notes),
		Items:    make([]dto.CreateOrderLine, 0, len(input.Items)),
	}
	for _, it := range input.Items {
		if strings.TrimSpace(it.VariantID) == "" {
			return nil, apperr.Validation("every item needs a variant id")
		}
		if it.Quantity <= 0 {
			return nil, apperr.Validation("quantity for variant %s must be positive, got %d", it.VariantID, it.Quantity)
		}
		req.Items = append(req.Items, dto.CreateOrderLine{VariantID: it.VariantID, Quantity: it.Quantity})
	}

	o, err := uc.repo.Create(ctx, req)
	if err != nil {
		uc.logger.Error("failed to create order", zap.String("dealer_id", input.DealerID), zap.Error(err))
		return nil, err
	}
	uc.logger.Info("order created", zap.String("order_id", o.OrderID), zap.String("dealer_id", o.DealerID))
	return o, nil
}

func (uc *orderUseCase) ApproveOrder(ctx context.Context, orderID string) error {
	return uc.transition(ctx, model.ActionApprove, auth.ActorFrom(ctx), orderID, func() error {
		_, err := uc.repo.Approve(ctx, orderID)
		return err
	})
}

func (uc *orderUseCase) CancelOrder(ctx context.Context, orderID string, actor model.Actor) error {
	return uc.transition(ctx, model.ActionCancel, actor, orderID, func() error {
		var err error
		switch actor {
		case model.ActorDealer:
			_, err = uc.repo.CancelByDealer(ctx, orderID)
		case model.ActorStaff:
			_, err = uc.repo.CancelByStaff(ctx, orderID)
		default:
			err = apperr.Validation("unknown actor %q", actor)
		}
		return err
	})
}

func (uc *orderUseCase) DeleteOrder(ctx context.Context, orderID string) error {
	return uc.transition(ctx, model.ActionDelete, auth.ActorFrom(ctx), orderID, func() error {
		return uc.repo.Delete(ctx, orderID)
	})
}

func (uc *orderUseCase) ConfirmDelivery(ctx context.Context, orderID string) error {
	return uc.transition(ctx, model.ActionDeliver, auth.ActorFrom(ctx), orderID, func() error {
		_, err := uc.repo.Deliver(ctx, orderID)
		return err
	})
}

func (uc *orderUseCase) ShipOrder(ctx context.Context, req *model.ShipmentRequest) error {
	if req == nil || len(req.Items) == 0 {
		return apperr.Validation("shipment has no items")
	}
	return uc.transition(ctx, model.ActionShip, auth.ActorFrom(ctx), req.OrderID, func() error {
		_, err := uc.repo.Ship(ctx, req)
		return err
	})
}

// transition runs one state change and journals the outcome. Server
// rejections are returned unchanged and never retried.
func (uc *orderUseCase) transition(ctx context.Context, action model.OrderAction, actor model.Actor, orderID string, call func() error) error {
	if strings.TrimSpace(orderID) == "" {
		return apperr.Validation("order id is required")
	}

	err := call()

	rec := &model.ActionRecord{
		Actor:   actor,
		Action:  action,
		OrderID: orderID,
		Outcome: model.OutcomeSucceeded,
	}
	if err != nil {
		rec.Outcome = model.OutcomeFailed
		rec.Message = err.Error()
		uc.logger.Warn("order action failed",
			zap.String("order_id", orderID),
			zap.String("action", string(action)),
			zap.String("actor", string(actor)),
			zap.Error(err),
		)
	} else {
		uc.logger.Info("order action succeeded",
			zap.String("order_id", orderID),
			zap.String("action", string(action)),
			zap.String("actor", string(actor)),
		)
	}

	if uc.journal != nil && !apperr.IsValidation(err) {
		if jerr := uc.journal.Log(ctx, rec); jerr != nil {
			uc.logger.Error("failed to journal order action", zap.String("order_id", orderID), zap.Error(jerr))
		}
	}
	return err
}
