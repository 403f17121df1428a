// Package allocation is the status-partitioned work queue over B2B orders.
// It holds no order state beyond the last page it loaded: every action is
// followed by a fresh fetch.
package allocation

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/dealer"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/metrics"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/order"
	"github.com/phu-boop/ev-dealer-platform/internal/order/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/shipment"
)

// TabAll lists orders of every status.
const TabAll model.OrderStatus = ""

// Tabs in display order.
var Tabs = append([]model.OrderStatus{TabAll}, model.OrderStatuses...)

// TabLabel is the display label of a tab.
func TabLabel(tab model.OrderStatus) string {
	if tab == TabAll {
		return "ALL"
	}
	return string(tab)
}

// ParseTab accepts "all", "" or any order status.
func ParseTab(raw string) (model.OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return TabAll, nil
	}
	s, err := model.ParseOrderStatus(raw)
	if err != nil {
		return "", apperr.Validation("unknown tab %q", raw)
	}
	return s, nil
}

type Row struct {
	Order      model.Order
	DealerName string
	Actions    []model.OrderAction
}

type View struct {
	Tab           model.OrderStatus
	Page          int
	TotalPages    int
	TotalElements int64
	Rows          []Row
}

type Config struct {
	Orders    order.UseCase
	Dealers   dealer.UseCase
	Inventory shipment.Inventory
	Logger    logger.ZapLogger
	Metrics   *metrics.Registry
	Actor     model.Actor
	// DealerID restricts the queue to one dealer's orders.
	DealerID string
	PageSize int
}

type Dashboard struct {
	cfg Config

	mu         sync.Mutex
	tab        model.OrderStatus
	page       int
	totalPages int
	known      map[string]model.OrderStatus

	refresh chan struct{}
}

func New(cfg Config) *Dashboard {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Actor == "" {
		cfg.Actor = model.ActorStaff
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = dto.DefaultPageSize
	}
	return &Dashboard{
		cfg:     cfg,
		known:   map[string]model.OrderStatus{},
		refresh: make(chan struct{}, 1),
	}
}

func (d *Dashboard) Tab() model.OrderStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tab
}

func (d *Dashboard) Page() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

// SwitchTab selects a tab and resets the cursor to the first page.
func (d *Dashboard) SwitchTab(tab model.OrderStatus) error {
	if tab != TabAll && !tab.Valid() {
		return apperr.Validation("unknown tab %q", tab)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tab = tab
	d.page = 0
	d.totalPages = 0
	return nil
}

// SetPage moves the cursor within the last known page count.
func (d *Dashboard) SetPage(page int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page < 0 {
		return apperr.Validation("page must be zero or more, got %d", page)
	}
	if d.totalPages > 0 && page >= d.totalPages {
		return apperr.Validation("page %d is out of range, last page is %d", page, d.totalPages-1)
	}
	d.page = page
	return nil
}

// Load fetches the current page of the current tab.
func (d *Dashboard) Load(ctx context.Context) (*View, error) {
	d.mu.Lock()
	filters := &dto.OrderFilters{
		Status:   d.tab,
		DealerID: d.cfg.DealerID,
		Page:     d.page,
		Size:     d.cfg.PageSize,
	}
	d.mu.Unlock()

	page, err := d.cfg.Orders.ListOrders(ctx, filters)
	if err != nil {
		return nil, err
	}

	names := map[string]model.Dealer{}
	if d.cfg.Dealers != nil && len(page.Content) > 0 {
		lookup, err := d.cfg.Dealers.Lookup(ctx)
		if err != nil {
			d.cfg.Logger.Warn("dealer lookup failed, showing dealer ids", zap.Error(err))
		} else {
			names = lookup
		}
	}

	view := &View{
		Tab:           filters.Status,
		Page:          page.Number,
		TotalPages:    page.TotalPages,
		TotalElements: page.TotalElements,
		Rows:          make([]Row, 0, len(page.Content)),
	}
	d.mu.Lock()
	d.totalPages = page.TotalPages
	for _, o := range page.Content {
		d.known[o.OrderID] = o.OrderStatus
		name := o.DealerID
		if dl, ok := names[o.DealerID]; ok && dl.DealerName != "" {
			name = dl.DealerName
		}
		view.Rows = append(view.Rows, Row{
			Order:      o,
			DealerName: name,
			Actions:    model.AllowedActions(o.OrderStatus, d.cfg.Actor),
		})
	}
	d.mu.Unlock()
	return view, nil
}

func (d *Dashboard) Approve(ctx context.Context, orderID string) (*View, error) {
	return d.act(ctx, orderID, model.ActionApprove, func() error {
		return d.cfg.Orders.ApproveOrder(ctx, orderID)
	})
}

func (d *Dashboard) Cancel(ctx context.Context, orderID string) (*View, error) {
	return d.act(ctx, orderID, model.ActionCancel, func() error {
		return d.cfg.Orders.CancelOrder(ctx, orderID, d.cfg.Actor)
	})
}

func (d *Dashboard) Delete(ctx context.Context, orderID string) (*View, error) {
	return d.act(ctx, orderID, model.ActionDelete, func() error {
		return d.cfg.Orders.DeleteOrder(ctx, orderID)
	})
}

func (d *Dashboard) Deliver(ctx context.Context, orderID string) (*View, error) {
	return d.act(ctx, orderID, model.ActionDeliver, func() error {
		return d.cfg.Orders.ConfirmDelivery(ctx, orderID)
	})
}

// OpenShipment starts the shipment workflow for a CONFIRMED order. A
// successful shipment requests a refresh.
func (d *Dashboard) OpenShipment(ctx context.Context, orderID string) (*shipment.Workflow, error) {
	if d.cfg.Inventory == nil {
		return nil, apperr.Validation("shipping is not available without an inventory client")
	}
	o, err := d.cfg.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	d.remember(o.OrderID, o.OrderStatus)
	if !model.Allows(o.OrderStatus, d.cfg.Actor, model.ActionShip) {
		return nil, apperr.Validation("cannot ship order %s in status %s", orderID, o.OrderStatus)
	}
	return shipment.Open(ctx, o, shipment.Config{
		Inventory: d.cfg.Inventory,
		Shipper:   d.cfg.Orders,
		Logger:    d.cfg.Logger,
		Metrics:   d.cfg.Metrics,
		OnShipped: func(context.Context, string) { d.RequestRefresh() },
	})
}

// RequestRefresh signals Refreshes without blocking. Pending signals
// coalesce.
func (d *Dashboard) RequestRefresh() {
	select {
	case d.refresh <- struct{}{}:
	default:
	}
}

func (d *Dashboard) Refreshes() <-chan struct{} { return d.refresh }

// act checks the action against the row's last known status, runs it and
// reloads the page. A rejected action returns the error without reloading.
func (d *Dashboard) act(ctx context.Context, orderID string, action model.OrderAction, call func() error) (*View, error) {
	status, err := d.status(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !model.Allows(status, d.cfg.Actor, action) {
		return nil, apperr.Validation("cannot %s order %s in status %s", action, orderID, status)
	}
	if err := call(); err != nil {
		return nil, err
	}
	if action == model.ActionDelete {
		d.mu.Lock()
		delete(d.known, orderID)
		d.mu.Unlock()
	}
	return d.Load(ctx)
}

func (d *Dashboard) status(ctx context.Context, orderID string) (model.OrderStatus, error) {
	d.mu.Lock()
	s, ok := d.known[orderID]
	d.mu.Unlock()
	if ok {
		return s, nil
	}
	o, err := d.cfg.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	d.remember(o.OrderID, o.OrderStatus)
	return o.OrderStatus, nil
}

func (d *Dashboard) remember(orderID string, status model.OrderStatus) {
	d.mu.Lock()
	d.known[orderID] = status
	d.mu.Unlock()
}
