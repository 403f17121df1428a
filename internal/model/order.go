package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Order is a B2B purchase request from a dealer to the manufacturer.
type Order struct {
	OrderID     string          `json:"orderId"`
	DealerID    string          `json:"dealerId"`
	OrderDate   Timestamp       `json:"orderDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	OrderStatus OrderStatus     `json:"orderStatus"`
	Notes       string          `json:"notes,omitempty"`
	Items       []OrderItem     `json:"orderItems"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	OrderItemID string          `json:"orderItemId"`
	VariantID   string          `json:"variantId"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// LineTotal is quantity * unitPrice.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the line totals. The server's TotalAmount stays
// authoritative; this exists to check fixtures and responses.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// TotalQuantity is the number of vehicles ordered across all lines.
func (o Order) TotalQuantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// ShipmentRequest moves a CONFIRMED order to IN_TRANSIT, naming the VIN of
// every unit shipped.
type ShipmentRequest struct {
	OrderID  string         `json:"orderId"`
	DealerID string         `json:"dealerId"`
	Items    []ShipmentItem `json:"items"`
}

type ShipmentItem struct {
	VariantID string   `json:"variantId"`
	Vins      []string `json:"vins"`
}

// VinValidationResult maps every rejected VIN to the server's reason. An
// entry with an empty reason counts as valid.
type VinValidationResult struct {
	InvalidVins map[string]string `json:"invalidVins"`
	ValidVins   []string          `json:"validVins"`
}

func (r *VinValidationResult) HasInvalid() bool {
	return len(r.Rejected()) > 0
}

// Rejected returns the VINs carrying a non-empty reason, sorted.
func (r *VinValidationResult) Rejected() []string {
	if r == nil {
		return nil
	}
	vins := make([]string, 0, len(r.InvalidVins))
	for vin, reason := range r.InvalidVins {
		if reason != "" {
			vins = append(vins, vin)
		}
	}
	sort.Strings(vins)
	return vins
}

// Reason returns the rejection reason for vin, or "" when it was not rejected.
func (r *VinValidationResult) Reason(vin string) string {
	if r == nil {
		return ""
	}
	return r.InvalidVins[vin]
}
