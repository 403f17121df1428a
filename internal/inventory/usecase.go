package inventory

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/inventory/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type UseCase interface {
	GetAvailableVins(ctx context.Context, variantID string) ([]string, error)
	ValidateVins(ctx context.Context, vins []string) (*model.VinValidationResult, error)
	ExecuteTransaction(ctx context.Context, input *dto.TransactionInput) (*model.Transaction, error)
	UpdateReorderLevel(ctx context.Context, input *dto.ReorderLevelInput) (*model.InventoryRecord, error)
	GetStock(ctx context.Context, variantIDs []string) ([]dto.StockRow, error)
}
