package repository

import (
	"context"
	"net/url"

	"github.com/phu-boop/ev-dealer-platform/internal/inventory/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

type HTTPRepository struct {
	client *restclient.Client
}

func NewHTTPRepository(client *restclient.Client) *HTTPRepository {
	return &HTTPRepository{client: client}
}

func (r *HTTPRepository) AvailableVins(ctx context.Context, variantID string) ([]string, error) {
	var vins []string
	q := url.Values{"variantId": {variantID}}
	if err := r.client.Get(ctx, "/inventory/vehicles/available-vins", q, &vins); err != nil {
		return nil, err
	}
	return vins, nil
}

func (r *HTTPRepository) ValidateVins(ctx context.Context, vins []string) (*model.VinValidationResult, error) {
	var res model.VinValidationResult
	body := map[string][]string{"vins": vins}
	if err := r.client.Post(ctx, "/inventory/vehicles/validate-vins", body, &res); err != nil {
		return nil, err
	}
	if res.InvalidVins == nil {
		res.InvalidVins = map[string]string{}
	}
	return &res, nil
}

func (r *HTTPRepository) CentralStock(ctx context.Context, variantIDs []string) ([]model.InventoryRecord, error) {
	var out []model.InventoryRecord
	q := url.Values{"variantIds": variantIDs}
	if err := r.client.Get(ctx, "/inventory/central-stock", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRepository) UpdateCentralReorderLevel(ctx context.Context, req *dto.ReorderLevelRequest) (*model.InventoryRecord, error) {
	var out model.InventoryRecord
	if err := r.client.Put(ctx, "/inventory/central-stock/reorder-level", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *HTTPRepository) UpdateDealerReorderLevel(ctx context.Context, req *dto.ReorderLevelRequest) (*model.InventoryRecord, error) {
	var out model.InventoryRecord
	if err := r.client.Put(ctx, "/inventory/dealer-stock/reorder-level", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *HTTPRepository) CreateTransaction(ctx context.Context, req *dto.TransactionRequest) (*model.Transaction, error) {
	var out model.Transaction
	if err := r.client.Post(ctx, "/inventory/transactions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
