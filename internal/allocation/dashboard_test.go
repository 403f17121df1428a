package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/order/ordertest"
	orderrepo "github.com/phu-boop/ev-dealer-platform/internal/order/repository"
	orderuc "github.com/phu-boop/ev-dealer-platform/internal/order/usecase"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

type stubDealers struct {
	dealers map[string]model.Dealer
	err     error
}

func (s stubDealers) List(context.Context) ([]model.Dealer, error) { return nil, s.err }

func (s stubDealers) Lookup(context.Context) (map[string]model.Dealer, error) {
	return s.dealers, s.err
}

func (s stubDealers) Name(_ context.Context, id string) string {
	if d, ok := s.dealers[id]; ok {
		return d.DealerName
	}
	return id
}

type stubInventory struct{}

func (stubInventory) GetAvailableVins(context.Context, string) ([]string, error) {
	return []string{"LSV1", "LSV2"}, nil
}

func (stubInventory) ValidateVins(_ context.Context, vins []string) (*model.VinValidationResult, error) {
	return &model.VinValidationResult{InvalidVins: map[string]string{}, ValidVins: vins}, nil
}

func newDashboard(t *testing.T, actor model.Actor, dealers stubDealers, orders ...model.Order) (*Dashboard, *ordertest.Server) {
	t.Helper()
	srv := ordertest.NewServer(orders...)
	t.Cleanup(srv.Close)
	client := restclient.New(restclient.Config{Service: "sales", BaseURL: srv.URL, HTTPClient: srv.Client()})
	uc := orderuc.NewOrderUseCase(orderrepo.NewHTTPRepository(client), nil, logger.NewNop())
	return New(Config{
		Orders:    uc,
		Dealers:   dealers,
		Inventory: stubInventory{},
		Logger:    logger.NewNop(),
		Actor:     actor,
		PageSize:  2,
	}), srv
}

func line() model.OrderItem { return ordertest.Line("101", 1, 100) }

func TestLoadResolvesDealerNamesAndActions(t *testing.T) {
	d, _ := newDashboard(t, model.ActorStaff,
		stubDealers{dealers: map[string]model.Dealer{"12": {DealerID: "12", DealerName: "VinFast Thang Long"}}},
		ordertest.NewOrder("o-1", "12", model.StatusPending, line()),
		ordertest.NewOrder("o-2", "99", model.StatusConfirmed, line()),
		ordertest.NewOrder("o-3", "12", model.StatusDelivered, line()),
	)

	view, err := d.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TabAll, view.Tab)
	assert.Equal(t, 2, view.TotalPages)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "VinFast Thang Long", view.Rows[0].DealerName)
	assert.Equal(t, []model.OrderAction{model.ActionApprove, model.ActionCancel}, view.Rows[0].Actions)
	assert.Equal(t, "99", view.Rows[1].DealerName, "unknown dealer falls back to id")
	assert.Equal(t, []model.OrderAction{model.ActionShip}, view.Rows[1].Actions)

	require.NoError(t, d.SetPage(1))
	view, err = d.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Empty(t, view.Rows[0].Actions)

	assert.True(t, apperr.IsValidation(d.SetPage(2)))
	assert.True(t, apperr.IsValidation(d.SetPage(-1)))
}

func TestLoadDegradesWhenDealerLookupFails(t *testing.T) {
	d, _ := newDashboard(t, model.ActorStaff, stubDealers{err: errors.New("dealer service down")},
		ordertest.NewOrder("o-1", "12", model.StatusPending, line()),
	)

	view, err := d.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "12", view.Rows[0].DealerName)
}

func TestSwitchTabResetsPage(t *testing.T) {
	d, _ := newDashboard(t, model.ActorStaff, stubDealers{},
		ordertest.NewOrder("o-1", "12", model.StatusPending, line()),
		ordertest.NewOrder("o-2", "12", model.StatusPending, line()),
		ordertest.NewOrder("o-3", "12", model.StatusPending, line()),
		ordertest.NewOrder("o-4", "12", model.StatusCancelled, line()),
	)
	ctx := context.Background()

	_, err := d.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, d.SetPage(1))

	require.NoError(t, d.SwitchTab(model.StatusCancelled))
	assert.Equal(t, 0, d.Page())
	view, err := d.Load(ctx)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "o-4", view.Rows[0].Order.OrderID)
	assert.Equal(t, []model.OrderAction{model.ActionDelete}, view.Rows[0].Actions)

	assert.True(t, apperr.IsValidation(d.SwitchTab("SHIPPED")))
}

func TestApproveRefetches(t *testing.T) {
	d, srv := newDashboard(t, model.ActorStaff, stubDealers{},
		ordertest.NewOrder("o-1", "12", model.StatusPending, line()),
	)
	ctx := context.Background()
	require.NoError(t, d.SwitchTab(model.StatusPending))
	_, err := d.Load(ctx)
	require.NoError(t, err)

	view, err := d.Approve(ctx, "o-1")
	require.NoError(t, err)
	assert.Empty(t, view.Rows, "approved order leaves the PENDING tab")
	assert.Equal(t, 2, srv.Calls("GET /sales-orders/b2b"))

	// the row's known status is now CONFIRMED, so approve is refused locally
	calls := srv.Calls("PUT /sales-orders/o-1/approve")
	_, err = d.Approve(ctx, "o-1")
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, calls, srv.Calls("PUT /sales-orders/o-1/approve"))
}

func TestActionRefusedForStatus(t *testing.T) {
	d, srv := newDashboard(t, model.ActorDealer, stubDealers{},
		ordertest.NewOrder("o-1", "12", model.StatusConfirmed, line()),
	)
	ctx := context.Background()
	_, err := d.Load(ctx)
	require.NoError(t, err)

	_, err = d.Approve(ctx, "o-1")
	assert.True(t, apperr.IsValidation(err))
	_, err = d.OpenShipment(ctx, "o-1")
	assert.True(t, apperr.IsValidation(err), "dealers do not ship")
	assert.Zero(t, srv.Calls("PUT /sales-orders/o-1/approve"))
}

func TestStaleRowConflictLeavesOrderUnchanged(t *testing.T) {
	d, srv := newDashboard(t, model.ActorDealer, stubDealers{},
		ordertest.NewOrder("o-1", "12", model.StatusPending, line()),
	)
	ctx := context.Background()
	_, err := d.Load(ctx)
	require.NoError(t, err)

	// delivered behind the dashboard's back
	srv.Put(ordertest.NewOrder("o-1", "12", model.StatusDelivered, line()))

	_, err = d.Cancel(ctx, "o-1")
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	require.NoError(t, d.SwitchTab(model.StatusDelivered))
	view, err := d.Load(ctx)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, model.StatusDelivered, view.Rows[0].Order.OrderStatus)
}

func TestOpenShipmentRequestsRefreshOnSuccess(t *testing.T) {
	d, srv := newDashboard(t, model.ActorStaff, stubDealers{}, ordertest.ConfirmedOrder("o-1"))
	ctx := context.Background()

	w, err := d.OpenShipment(ctx, "o-1")
	require.NoError(t, err)
	items := w.Items()
	require.Len(t, items, 2)
	assert.Equal(t, []string{"LSV1", "LSV2"}, items[0].Suggestions)

	require.NoError(t, w.SetText(items[0].ItemID, "A1\nA2\nA3"))
	require.NoError(t, w.SetText(items[1].ItemID, "B1\nB2"))
	require.NoError(t, w.Submit(ctx))

	select {
	case <-d.Refreshes():
	default:
		t.Fatal("expected a refresh request")
	}
	o, _ := srv.Order("o-1")
	assert.Equal(t, model.StatusInTransit, o.OrderStatus)
}

func TestDeleteCancelledOrder(t *testing.T) {
	d, srv := newDashboard(t, model.ActorStaff, stubDealers{},
		ordertest.NewOrder("o-1", "12", model.StatusCancelled, line()),
	)
	ctx := context.Background()

	// unknown row status is fetched before deciding
	view, err := d.Delete(ctx, "o-1")
	require.NoError(t, err)
	assert.Empty(t, view.Rows)
	assert.Equal(t, 1, srv.Calls("GET /sales-orders/o-1"))
	_, ok := srv.Order("o-1")
	assert.False(t, ok)
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab("all")
	require.NoError(t, err)
	assert.Equal(t, TabAll, tab)
	tab, err = ParseTab("in_transit")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInTransit, tab)
	_, err = ParseTab("shipped")
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "ALL", TabLabel(TabAll))
	assert.Len(t, Tabs, 6)
}
