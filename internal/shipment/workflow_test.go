package shipment

import (
	"context"
	"errors"
	"sync"
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

type fakeInventory struct {
	mu        sync.Mutex
	available map[string][]string
	fetchErr  map[string]error
	invalid   map[string]string
	validErr  error
	nilResult bool
	calls     int
	// gates, when set, make ValidateVins wait for a signal per call.
	gates chan chan struct{}
}

func (f *fakeInventory) GetAvailableVins(_ context.Context, variantID string) ([]string, error) {
	if err := f.fetchErr[variantID]; err != nil {
		return nil, err
	}
	return f.available[variantID], nil
}

func (f *fakeInventory) ValidateVins(_ context.Context, vins []string) (*model.VinValidationResult, error) {
	f.mu.Lock()
	f.calls++
	gates := f.gates
	f.mu.Unlock()
	if gates != nil {
		<-<-gates
	}
	if f.validErr != nil || f.nilResult {
		return nil, f.validErr
	}
	res := &model.VinValidationResult{InvalidVins: map[string]string{}}
	for _, v := range vins {
		if reason, ok := f.invalid[v]; ok {
			res.InvalidVins[v] = reason
		} else {
			res.ValidVins = append(res.ValidVins, v)
		}
	}
	return res, nil
}

type countingShipper struct {
	calls int
	err   error
}

func (s *countingShipper) ShipOrder(context.Context, *model.ShipmentRequest) error {
	s.calls++
	return s.err
}

func openConfirmed(t *testing.T, inv *fakeInventory, shipper Shipper) *Workflow {
	t.Helper()
	o := ordertest.ConfirmedOrder("o-1")
	w, err := Open(context.Background(), &o, Config{Inventory: inv, Shipper: shipper, Logger: logger.NewNop()})
	require.NoError(t, err)
	return w
}

func TestOpenRequiresConfirmedOrder(t *testing.T) {
	o := ordertest.NewOrder("o-1", "12", model.StatusPending, ordertest.Line("101", 1, 100))
	_, err := Open(context.Background(), &o, Config{Inventory: &fakeInventory{}, Shipper: &countingShipper{}})
	assert.True(t, apperr.IsValidation(err))

	empty := ordertest.NewOrder("o-2", "12", model.StatusConfirmed)
	_, err = Open(context.Background(), &empty, Config{Inventory: &fakeInventory{}, Shipper: &countingShipper{}})
	assert.True(t, apperr.IsValidation(err))
}

func TestOpenIsolatesSuggestionFailures(t *testing.T) {
	inv := &fakeInventory{
		available: map[string][]string{"101": {"LSV101A", "LSV101B"}},
		fetchErr:  map[string]error{"102": errors.New("inventory down")},
	}
	w := openConfirmed(t, inv, &countingShipper{})

	items := w.Items()
	require.Len(t, items, 2)
	assert.Equal(t, []string{"LSV101A", "LSV101B"}, items[0].Suggestions)
	assert.Empty(t, items[1].Suggestions)
	assert.Equal(t, Idle, items[1].State)
}

// Scenario A: exact VIN counts, all valid, shipped once, order observed
// IN_TRANSIT.
func TestSubmitShipsOrder(t *testing.T) {
	srv := ordertest.NewServer(ordertest.ConfirmedOrder("o-1"))
	defer srv.Close()
	client := restclient.New(restclient.Config{Service: "sales", BaseURL: srv.URL, HTTPClient: srv.Client()})
	orders := orderuc.NewOrderUseCase(orderrepo.NewHTTPRepository(client), nil, logger.NewNop())

	var shipped []string
	o := ordertest.ConfirmedOrder("o-1")
	w, err := Open(context.Background(), &o, Config{
		Inventory: &fakeInventory{},
		Shipper:   orders,
		Logger:    logger.NewNop(),
		OnShipped: func(_ context.Context, id string) { shipped = append(shipped, id) },
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV3"))
	require.NoError(t, w.SetText("o-1-2", "V4\n\nV5\n"))
	require.NoError(t, w.Blur(ctx, "o-1-1"))
	require.NoError(t, w.Blur(ctx, "o-1-2"))
	assert.True(t, w.CanSubmit())

	require.NoError(t, w.Submit(ctx))
	assert.True(t, w.Closed())
	assert.Equal(t, []string{"o-1"}, shipped)
	assert.Equal(t, 1, srv.Calls("POST /sales-orders/o-1/ship"))

	got, _ := srv.Order("o-1")
	assert.Equal(t, model.StatusInTransit, got.OrderStatus)
	ships := srv.Shipments()
	require.Len(t, ships, 1)
	assert.Equal(t, "12", ships[0].DealerID)
	assert.Equal(t, []model.ShipmentItem{
		{VariantID: "101", Vins: []string{"V1", "V2", "V3"}},
		{VariantID: "102", Vins: []string{"V4", "V5"}},
	}, ships[0].Items)

	assert.ErrorIs(t, w.Submit(ctx), ErrClosed)
}

// Scenario B: two VINs for the qty-3 line blocks locally, naming the line.
func TestSubmitCountMismatchMakesNoCall(t *testing.T) {
	shipper := &countingShipper{}
	w := openConfirmed(t, &fakeInventory{}, shipper)
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "V1\nV2"))
	require.NoError(t, w.SetText("o-1-2", "V4\nV5"))
	require.NoError(t, w.Blur(ctx, "o-1-1"))
	require.NoError(t, w.Blur(ctx, "o-1-2"))

	entered, required, err := w.Progress("o-1-1")
	require.NoError(t, err)
	assert.Equal(t, 2, entered)
	assert.Equal(t, 3, required)

	err = w.Submit(ctx)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "variant 101")
	assert.Zero(t, shipper.calls)
	assert.False(t, w.Closed())
}

// Scenario C: a rejected VIN keeps submission disabled until it is replaced
// or removed.
func TestRejectedVinBlocksSubmit(t *testing.T) {
	inv := &fakeInventory{invalid: map[string]string{"V2": "already assigned"}}
	shipper := &countingShipper{}
	w := openConfirmed(t, inv, shipper)
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV3"))
	require.NoError(t, w.SetText("o-1-2", "V4\nV5"))
	require.NoError(t, w.Blur(ctx, "o-1-1"))
	require.NoError(t, w.Blur(ctx, "o-1-2"))

	it, err := w.Item("o-1-1")
	require.NoError(t, err)
	assert.Equal(t, Invalid, it.State)
	assert.Equal(t, map[string]string{"V2": "already assigned"}, it.Errors)
	assert.False(t, w.CanSubmit())
	assert.True(t, apperr.IsValidation(w.Submit(ctx)))
	assert.Zero(t, shipper.calls)

	// editing another VIN does not clear the rejection
	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV9"))
	assert.False(t, w.CanSubmit())

	// replacing the rejected VIN does
	require.NoError(t, w.SetText("o-1-1", "V1\nV8\nV9"))
	assert.True(t, w.CanSubmit())
	require.NoError(t, w.Blur(ctx, "o-1-1"))
	require.NoError(t, w.Submit(ctx))
	assert.Equal(t, 1, shipper.calls)
}

func TestStaleValidationIsDropped(t *testing.T) {
	gates := make(chan chan struct{})
	inv := &fakeInventory{invalid: map[string]string{"OLD": "not found"}, gates: gates}
	w := openConfirmed(t, inv, &countingShipper{})
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "OLD"))
	first := make(chan error)
	go func() { first <- w.Blur(ctx, "o-1-1") }()

	firstGate := make(chan struct{})
	gates <- firstGate
	it, _ := w.Item("o-1-1")
	assert.Equal(t, Pending, it.State)
	assert.False(t, w.CanSubmit())

	require.NoError(t, w.SetText("o-1-1", "NEW1\nNEW2\nNEW3"))
	second := make(chan error)
	go func() { second <- w.Blur(ctx, "o-1-1") }()
	secondGate := make(chan struct{})
	gates <- secondGate

	// the newer validation resolves first, the older one last
	close(secondGate)
	require.NoError(t, <-second)
	close(firstGate)
	require.NoError(t, <-first)

	it, _ = w.Item("o-1-1")
	assert.Equal(t, Valid, it.State)
	assert.Empty(t, it.Errors)
	assert.Equal(t, 2, inv.calls)
}

func TestValidationFailureBlocksUntilRetried(t *testing.T) {
	inv := &fakeInventory{validErr: apperr.Transient("inventory service unreachable", errors.New("dial tcp"))}
	w := openConfirmed(t, inv, &countingShipper{})
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV3"))
	err := w.Blur(ctx, "o-1-1")
	assert.True(t, apperr.IsTransient(err))

	it, _ := w.Item("o-1-1")
	assert.Equal(t, Failed, it.State)
	assert.False(t, w.CanSubmit())

	// editing alone does not unblock the line
	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV7"))
	it, _ = w.Item("o-1-1")
	assert.Equal(t, Failed, it.State)
	assert.False(t, w.CanSubmit())

	inv.validErr = nil
	require.NoError(t, w.Blur(ctx, "o-1-1"))
	it, _ = w.Item("o-1-1")
	assert.Equal(t, Valid, it.State)
	assert.NoError(t, it.Err)
	assert.True(t, w.CanSubmit())
}

func TestEmptyRejectionReasonIsValid(t *testing.T) {
	inv := &fakeInventory{invalid: map[string]string{"V1": "", "V4": ""}}
	shipper := &countingShipper{}
	w := openConfirmed(t, inv, shipper)
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV3"))
	require.NoError(t, w.SetText("o-1-2", "V4\nV5"))
	require.NoError(t, w.Blur(ctx, "o-1-1"))
	require.NoError(t, w.Blur(ctx, "o-1-2"))

	it, err := w.Item("o-1-1")
	require.NoError(t, err)
	assert.Equal(t, Valid, it.State)
	assert.Empty(t, it.Errors)
	assert.True(t, w.CanSubmit())
	require.NoError(t, w.Submit(ctx))
	assert.Equal(t, 1, shipper.calls)
}

func TestNilValidationResultIsValid(t *testing.T) {
	inv := &fakeInventory{nilResult: true}
	w := openConfirmed(t, inv, &countingShipper{})

	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV3"))
	require.NoError(t, w.Blur(context.Background(), "o-1-1"))

	it, err := w.Item("o-1-1")
	require.NoError(t, err)
	assert.Equal(t, Valid, it.State)
	assert.Empty(t, it.Errors)
}

func TestDuplicateVins(t *testing.T) {
	shipper := &countingShipper{}
	w := openConfirmed(t, &fakeInventory{}, shipper)
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "V1\nV1\nV3"))
	require.NoError(t, w.Blur(ctx, "o-1-1"))
	it, _ := w.Item("o-1-1")
	assert.Equal(t, Invalid, it.State)
	assert.Equal(t, duplicateReason, it.Errors["V1"])

	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV3"))
	require.NoError(t, w.SetText("o-1-2", "V3\nV4"))
	err := w.Submit(ctx)
	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "VIN V3")
	assert.Zero(t, shipper.calls)
}

func TestToggleSuggestion(t *testing.T) {
	inv := &fakeInventory{available: map[string][]string{"101": {"S1", "S2"}}}
	w := openConfirmed(t, inv, &countingShipper{})

	require.NoError(t, w.ToggleSuggestion("o-1-1", "S1"))
	require.NoError(t, w.ToggleSuggestion("o-1-1", "S2"))
	it, _ := w.Item("o-1-1")
	assert.Equal(t, "S1\nS2", it.Text)
	assert.Equal(t, 2, it.Entered())

	require.NoError(t, w.ToggleSuggestion("o-1-1", "S1"))
	it, _ = w.Item("o-1-1")
	assert.Equal(t, "S2", it.Text)

	assert.True(t, apperr.IsNotFound(w.ToggleSuggestion("nope", "S1")))
}

func TestSubmitFailureLeavesStateUnchanged(t *testing.T) {
	shipper := &countingShipper{err: apperr.Conflict(400, "VIN V2 is already assigned")}
	w := openConfirmed(t, &fakeInventory{}, shipper)
	ctx := context.Background()

	require.NoError(t, w.SetText("o-1-1", "V1\nV2\nV3"))
	require.NoError(t, w.SetText("o-1-2", "V4\nV5"))

	err := w.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, "VIN V2 is already assigned", err.Error())
	assert.False(t, w.Closed())
	assert.True(t, w.CanSubmit())

	it, _ := w.Item("o-1-1")
	assert.Equal(t, "V1\nV2\nV3", it.Text)
}

func TestClosedWorkflowIgnoresLateValidation(t *testing.T) {
	gates := make(chan chan struct{})
	inv := &fakeInventory{gates: gates}
	w := openConfirmed(t, inv, &countingShipper{})

	require.NoError(t, w.SetText("o-1-1", "V1"))
	done := make(chan error)
	go func() { done <- w.Blur(context.Background(), "o-1-1") }()
	g := make(chan struct{})
	gates <- g

	w.Close()
	close(g)
	assert.NoError(t, <-done)
	assert.ErrorIs(t, w.SetText("o-1-1", "V2"), ErrClosed)
}
