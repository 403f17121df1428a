package dto

import "github.com/phu-boop/ev-dealer-platform/internal/model"

// StockRow is a central stock record joined with its catalog metadata.
type StockRow struct {
	model.InventoryRecord
	Variant model.VariantDetail
}

func (r StockRow) DisplayName() string {
	if r.Variant.VariantID == "" {
		return "#" + r.VariantID
	}
	return r.Variant.DisplayName()
}

// TransactionRequest is the wire body of POST /inventory/transactions.
type TransactionRequest struct {
	TransactionType model.TransactionType `json:"transactionType"`
	VariantID       string                `json:"variantId"`
	Quantity        int                   `json:"quantity"`
	Vins            []string              `json:"vins,omitempty"`
	ToDealerID      string                `json:"toDealerId,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	StaffID         string                `json:"staffId,omitempty"`
}

// ReorderLevelRequest is the wire body of the reorder-level endpoints.
type ReorderLevelRequest struct {
	DealerID     string `json:"dealerId,omitempty"`
	VariantID    string `json:"variantId"`
	ReorderLevel int    `json:"reorderLevel"`
}
