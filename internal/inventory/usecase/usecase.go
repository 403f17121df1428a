package usecase

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/catalog"
	"github.com/phu-boop/ev-dealer-platform/internal/inventory"
	"github.com/phu-boop/ev-dealer-platform/internal/inventory/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type inventoryUseCase struct {
	repo    inventory.Repository
	catalog catalog.UseCase
	logger  logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, cat catalog.UseCase, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:    repo,
		catalog: cat,
		logger:  log,
	}
}

func (uc *inventoryUseCase) GetAvailableVins(ctx context.Context, variantID string) ([]string, error) {
	if strings.TrimSpace(variantID) == "" {
		return nil, apperr.Validation("variant id is required")
	}
	vins, err := uc.repo.AvailableVins(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return vins, nil
}

// ValidateVins asks the inventory service about each VIN. The answer is
// advisory; the shipment endpoint checks again.
func (uc *inventoryUseCase) ValidateVins(ctx context.Context, vins []string) (*model.VinValidationResult, error) {
	cleaned := normalizeVins(vins)
	if len(cleaned) == 0 {
		return &model.VinValidationResult{InvalidVins: map[string]string{}}, nil
	}
	res, err := uc.repo.ValidateVins(ctx, cleaned)
	if err != nil {
		uc.logger.Error("vin validation failed", zap.Int("vin_count", len(cleaned)), zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (uc *inventoryUseCase) ExecuteTransaction(ctx context.Context, input *dto.TransactionInput) (*model.Transaction, error) {
	if strings.TrimSpace(input.VariantID) == "" {
		return nil, apperr.Validation("variant id is required")
	}

	req := &dto.TransactionRequest{
		TransactionType: input.Type,
		VariantID:       input.VariantID,
		Notes:           strings.TrimSpace(input.Notes),
		StaffID:         input.StaffID,
	}

	switch input.Type {
	case model.TransactionRestock:
		vins := normalizeVins(input.Vins)
		if len(vins) == 0 {
			return nil, apperr.Validation("restock requires at least one VIN")
		}
		if len(vins) != len(nonEmpty(input.Vins)) {
			return nil, apperr.Validation("restock VIN list contains duplicates")
		}
		// quantity always follows the VIN list
		req.Vins = vins
		req.Quantity = len(vins)
	case model.TransactionTransferToDealer:
		if strings.TrimSpace(input.ToDealerID) == "" {
			return nil, apperr.Validation("transfer requires a target dealer")
		}
		if input.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be a positive number, got %d", input.Quantity)
		}
		req.ToDealerID = input.ToDealerID
		req.Quantity = input.Quantity
	case model.TransactionAdjustment:
		if input.Quantity == 0 {
			return nil, apperr.Validation("adjustment quantity cannot be zero")
		}
		if req.Notes == "" {
			return nil, apperr.Validation("adjustment requires a note")
		}
		req.Quantity = input.Quantity
	default:
		return nil, apperr.Validation("unsupported transaction type %q", input.Type)
	}

	tx, err := uc.repo.CreateTransaction(ctx, req)
	if err != nil {
		uc.logger.Error("inventory transaction failed",
			zap.String("type", string(req.TransactionType)),
			zap.String("variant_id", req.VariantID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err),
		)
		return nil, err
	}
	uc.logger.Info("inventory transaction recorded",
		zap.String("type", string(req.TransactionType)),
		zap.String("variant_id", req.VariantID),
		zap.Int("quantity", req.Quantity),
	)
	return tx, nil
}

func (uc *inventoryUseCase) UpdateReorderLevel(ctx context.Context, input *dto.ReorderLevelInput) (*model.InventoryRecord, error) {
	if input.ReorderLevel < 0 {
		return nil, apperr.Validation("reorder level must be zero or more, got %d", input.ReorderLevel)
	}
	if strings.TrimSpace(input.VariantID) == "" {
		return nil, apperr.Validation("variant id is required")
	}
	req := &dto.ReorderLevelRequest{
		VariantID:    input.VariantID,
		ReorderLevel: input.ReorderLevel,
	}

	switch input.Scope {
	case dto.ScopeCentral, "":
		return uc.repo.UpdateCentralReorderLevel(ctx, req)
	case dto.ScopeDealer:
		if strings.TrimSpace(input.DealerID) == "" {
			return nil, apperr.Validation("dealer id is required for a dealer reorder level")
		}
		req.DealerID = input.DealerID
		return uc.repo.UpdateDealerReorderLevel(ctx, req)
	default:
		return nil, apperr.Validation("unknown reorder level scope %q", input.Scope)
	}
}

// GetStock merges central stock records with catalog metadata. A catalog
// failure degrades to bare variant ids rather than failing the listing.
func (uc *inventoryUseCase) GetStock(ctx context.Context, variantIDs []string) ([]dto.StockRow, error) {
	records, err := uc.repo.CentralStock(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.VariantID)
	}
	variants, err := uc.catalog.ResolveVariants(ctx, ids)
	if err != nil {
		uc.logger.Warn("catalog lookup failed, showing variant ids", zap.Error(err))
		variants = map[string]model.VariantDetail{}
	}

	rows := make([]dto.StockRow, len(records))
	for i, r := range records {
		rows[i] = dto.StockRow{InventoryRecord: r, Variant: variants[r.VariantID]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DisplayName() < rows[j].DisplayName() })
	return rows, nil
}

// normalizeVins trims, drops blanks and removes duplicates, keeping the
// first occurrence order.
func normalizeVins(vins []string) []string {
	out := make([]string, 0, len(vins))
	seen := make(map[string]bool, len(vins))
	for _, v := range vins {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func nonEmpty(vins []string) []string {
	out := make([]string, 0, len(vins))
	for _, v := range vins {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
