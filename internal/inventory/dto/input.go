package dto

import "github.com/phu-boop/ev-dealer-platform/internal/model"

type TransactionInput struct {
	Type       model.TransactionType
	VariantID  string
	Vins       []string // RESTOCK: quantity is derived from the VIN count
	Quantity   int      // TRANSFER_TO_DEALER, ADJUSTMENT
	ToDealerID string
	Notes      string
	StaffID    string
}

type ReorderScope string

const (
	ScopeCentral ReorderScope = "central"
	ScopeDealer  ReorderScope = "dealer"
)

type ReorderLevelInput struct {
	Scope        ReorderScope
	DealerID     string // required for ScopeDealer
	VariantID    string
	ReorderLevel int
}
