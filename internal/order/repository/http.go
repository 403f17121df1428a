package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/order/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

const (
	basePath   = "/sales-orders"
	dateLayout = "2006-01-02"
)

type HTTPRepository struct {
	client *restclient.Client
}

func NewHTTPRepository(client *restclient.Client) *HTTPRepository {
	return &HTTPRepository{client: client}
}

func (r *HTTPRepository) List(ctx context.Context, f *dto.OrderFilters) (*model.Page[model.Order], error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.DealerID != "" {
		q.Set("dealerId", f.DealerID)
	}
	if f.StartDate != nil {
		q.Set("startDate", f.StartDate.Format(dateLayout))
	}
	if f.EndDate != nil {
		q.Set("endDate", f.EndDate.Format(dateLayout))
	}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("size", strconv.Itoa(f.Size))

	var page model.Page[model.Order]
	if err := r.client.Get(ctx, basePath+"/b2b", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *HTTPRepository) Get(ctx context.Context, orderID string) (*model.Order, error) {
	var o model.Order
	if err := r.client.Get(ctx, orderPath(orderID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *HTTPRepository) Create(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, error) {
	var o model.Order
	if err := r.client.Post(ctx, basePath+"/b2b", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *HTTPRepository) Approve(ctx context.Context, orderID string) (*model.Order, error) {
	return r.put(ctx, orderPath(orderID)+"/approve")
}

func (r *HTTPRepository) CancelByStaff(ctx context.Context, orderID string) (*model.Order, error) {
	return r.put(ctx, orderPath(orderID)+"/cancel-by-staff")
}

func (r *HTTPRepository) CancelByDealer(ctx context.Context, orderID string) (*model.Order, error) {
	return r.put(ctx, orderPath(orderID)+"/cancel-by-dealer")
}

func (r *HTTPRepository) Delete(ctx context.Context, orderID string) error {
	return r.client.Delete(ctx, orderPath(orderID))
}

func (r *HTTPRepository) Deliver(ctx context.Context, orderID string) (*model.Order, error) {
	return r.put(ctx, orderPath(orderID)+"/deliver")
}

func (r *HTTPRepository) Ship(ctx context.Context, req *model.ShipmentRequest) (*model.Order, error) {
	var o model.Order
	if err := r.client.Post(ctx, orderPath(req.OrderID)+"/ship", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *HTTPRepository) put(ctx context.Context, path string) (*model.Order, error) {
	var o model.Order
	if err := r.client.Put(ctx, path, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func orderPath(orderID string) string {
	return basePath + "/" + url.PathEscape(orderID)
}
