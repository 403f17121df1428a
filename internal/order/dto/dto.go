package dto

import (
	"time"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

const DefaultPageSize = 10

// OrderFilters selects one page of B2B orders. An empty Status lists every
// order. Page is zero-based.
type OrderFilters struct {
	Status    model.OrderStatus
	DealerID  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Size      int
}

type CreateOrderInput struct {
	DealerID string
	Items    []CreateOrderItem
	Notes    string
}

type CreateOrderItem struct {
	VariantID string
	Quantity  int
}

type CreateOrderRequest struct {
	DealerID string            `json:"dealerId"`
	Items    []CreateOrderLine `json:"orderItems"`
	Notes    string            `json:"notes,omitempty"`
}

type CreateOrderLine struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}
