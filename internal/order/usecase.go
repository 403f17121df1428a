package order

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/order/dto"
)

// UseCase drives order transitions. All business rules are enforced by the
// sales service; a rejected transition comes back as a conflict carrying the
// server's message.
type UseCase interface {
	ListOrders(ctx context.Context, filters *dto.OrderFilters) (*model.Page[model.Order], error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)

	ApproveOrder(ctx context.Context, orderID string) error
	CancelOrder(ctx context.Context, orderID string, actor model.Actor) error
	DeleteOrder(ctx context.Context, orderID string) error
	ConfirmDelivery(ctx context.Context, orderID string) error
	ShipOrder(ctx context.Context, req *model.ShipmentRequest) error
}
