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

func (r *HTTPRepository) ListAll(ctx context.Context) ([]model.Dealer, error) {
	var out []model.Dealer
	if err := r.client.Get(ctx, "/dealers/list-all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
