package model

import "fmt"

type StockStatus string

const (
	StockInStock    StockStatus = "IN_STOCK"
	StockLowStock   StockStatus = "LOW_STOCK"
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
)

// InventoryRecord is the stock of one variant, central or at a dealer.
// Status is computed by the inventory service from the quantities.
type InventoryRecord struct {
	VariantID         string      `json:"variantId"`
	DealerID          string      `json:"dealerId,omitempty"`
	TotalQuantity     int         `json:"totalQuantity"`
	AllocatedQuantity int         `json:"allocatedQuantity"`
	AvailableQuantity int         `json:"availableQuantity"`
	ReorderLevel      int         `json:"reorderLevel"`
	Status            StockStatus `json:"status"`
	UpdatedAt         Timestamp   `json:"updatedAt"`
}

type TransactionType string

const (
	TransactionRestock          TransactionType = "RESTOCK"
	TransactionTransferToDealer TransactionType = "TRANSFER_TO_DEALER"
	TransactionAdjustment       TransactionType = "ADJUSTMENT"
)

func ParseTransactionType(raw string) (TransactionType, error) {
	switch t := TransactionType(raw); t {
	case TransactionRestock, TransactionTransferToDealer, TransactionAdjustment:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", raw)
}

// Transaction is the record returned by the inventory service for a stock
// movement.
type Transaction struct {
	TransactionID   string          `json:"transactionId"`
	TransactionType TransactionType `json:"transactionType"`
	VariantID       string          `json:"variantId"`
	Quantity        int             `json:"quantity"`
	Vins            []string        `json:"vins,omitempty"`
	ToDealerID      string          `json:"toDealerId,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	StaffID         string          `json:"staffId,omitempty"`
	TransactionDate Timestamp       `json:"transactionDate"`
}
