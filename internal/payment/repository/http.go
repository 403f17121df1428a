package repository

import (
	"context"
	"net/url"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

const basePath = "/payments/manual"

type HTTPRepository struct {
	client *restclient.Client
}

func NewHTTPRepository(client *restclient.Client) *HTTPRepository {
	return &HTTPRepository{client: client}
}

func (r *HTTPRepository) ListPending(ctx context.Context) ([]model.PaymentRecord, error) {
	var out []model.PaymentRecord
	if err := r.client.Get(ctx, basePath+"/pending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRepository) Confirm(ctx context.Context, paymentID string) error {
	return r.client.Put(ctx, basePath+"/"+url.PathEscape(paymentID)+"/confirm", nil, nil)
}

func (r *HTTPRepository) Reject(ctx context.Context, paymentID, reason string) error {
	body := map[string]string{"reason": reason}
	return r.client.Put(ctx, basePath+"/"+url.PathEscape(paymentID)+"/reject", body, nil)
}
