package inventory

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/inventory/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type Repository interface {
	// VINs
	AvailableVins(ctx context.Context, variantID string) ([]string, error)
	ValidateVins(ctx context.Context, vins []string) (*model.VinValidationResult, error)

	// Stock records
	CentralStock(ctx context.Context, variantIDs []string) ([]model.InventoryRecord, error)
	UpdateCentralReorderLevel(ctx context.Context, req *dto.ReorderLevelRequest) (*model.InventoryRecord, error)
	UpdateDealerReorderLevel(ctx context.Context, req *dto.ReorderLevelRequest) (*model.InventoryRecord, error)

	// Transactions
	CreateTransaction(ctx context.Context, req *dto.TransactionRequest) (*model.Transaction, error)
}
