package repository

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

type HTTPRepository struct {
	client *restclient.Client
}

func NewHTTPRepository(client *restclient.Client) *HTTPRepository {
	return &HTTPRepository{client: client}
}

func (r *HTTPRepository) BatchGetVariants(ctx context.Context, variantIDs []string) ([]model.VariantDetail, error) {
	if len(variantIDs) == 0 {
		return []model.VariantDetail{}, nil
	}
	var out []model.VariantDetail
	if err := r.client.Post(ctx, "/vehicle-catalog/variants/details", variantIDs, &out); err != nil {
		return nil, err
	}
	return out, nil
}
