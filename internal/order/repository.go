package order

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/order/dto"
)

type Repository interface {
	List(ctx context.Context, filters *dto.OrderFilters) (*model.Page[model.Order], error)
	Get(ctx context.Context, orderID string) (*model.Order, error)
	Create(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, error)

	// Transitions
	Approve(ctx context.Context, orderID string) (*model.Order, error)
	CancelByStaff(ctx context.Context, orderID string) (*model.Order, error)
	CancelByDealer(ctx context.Context, orderID string) (*model.Order, error)
	Delete(ctx context.Context, orderID string) error
	Deliver(ctx context.Context, orderID string) (*model.Order, error)
	Ship(ctx context.Context, req *model.ShipmentRequest) (*model.Order, error)
}
