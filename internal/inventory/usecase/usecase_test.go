package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/inventory"
	"github.com/phu-boop/ev-dealer-platform/internal/inventory/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/inventory/repository"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

type stubCatalog struct {
	variants map[string]model.VariantDetail
	err      error
}

func (s stubCatalog) ResolveVariants(context.Context, []string) (map[string]model.VariantDetail, error) {
	return s.variants, s.err
}

type recorder struct {
	requests []*http.Request
	bodies   []map[string]any
}

func newServer(t *testing.T, rec *recorder, handler http.HandlerFunc) inventory.UseCase {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		rec.requests = append(rec.requests, r)
		rec.bodies = append(rec.bodies, body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	client := restclient.New(restclient.Config{Service: "inventory", BaseURL: srv.URL, HTTPClient: srv.Client()})
	cat := stubCatalog{variants: map[string]model.VariantDetail{
		"101": {VariantID: "101", ModelName: "VF 8", Color: "Red"},
		"102": {VariantID: "102", ModelName: "VF 5", Color: "Yellow"},
	}}
	return NewInventoryUseCase(repository.NewHTTPRepository(client), cat, logger.NewNop())
}

func TestValidateVins(t *testing.T) {
	rec := &recorder{}
	uc := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/vehicles/validate-vins", r.URL.Path)
		_, _ = w.Write([]byte(`{"invalidVins":{"VIN2":"already assigned"},"validVins":["VIN1"]}`))
	})

	res, err := uc.ValidateVins(context.Background(), []string{" VIN1 ", "", "VIN2", "VIN1"})
	require.NoError(t, err)
	assert.Equal(t, "already assigned", res.Reason("VIN2"))
	assert.Equal(t, []string{"VIN1"}, res.ValidVins)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, []any{"VIN1", "VIN2"}, rec.bodies[0]["vins"])
}

func TestValidateVinsEmptySkipsCall(t *testing.T) {
	rec := &recorder{}
	uc := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {})

	res, err := uc.ValidateVins(context.Background(), []string{" ", ""})
	require.NoError(t, err)
	assert.False(t, res.HasInvalid())
	assert.Empty(t, rec.requests)
}

func TestGetAvailableVins(t *testing.T) {
	rec := &recorder{}
	uc := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "101", r.URL.Query().Get("variantId"))
		_, _ = w.Write([]byte(`["VIN-A","VIN-B"]`))
	})

	vins, err := uc.GetAvailableVins(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, []string{"VIN-A", "VIN-B"}, vins)

	_, err = uc.GetAvailableVins(context.Background(), " ")
	assert.True(t, apperr.IsValidation(err))
}

func TestRestockDerivesQuantityFromVins(t *testing.T) {
	rec := &recorder{}
	uc := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactionId":"t-1","transactionType":"RESTOCK","variantId":"101","quantity":3}`))
	})

	tx, err := uc.ExecuteTransaction(context.Background(), &dto.TransactionInput{
		Type:      model.TransactionRestock,
		VariantID: "101",
		Vins:      []string{"V1", " V2", "V3 ", ""},
		Quantity:  99,
		Notes:     "batch 7",
		StaffID:   "s-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "t-1", tx.TransactionID)

	body := rec.bodies[0]
	assert.Equal(t, "RESTOCK", body["transactionType"])
	assert.EqualValues(t, 3, body["quantity"])
	assert.Equal(t, []any{"V1", "V2", "V3"}, body["vins"])
}

func TestTransactionValidationMakesNoCall(t *testing.T) {
	rec := &recorder{}
	uc := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.TransactionInput
	}{
		{"restock without vins", dto.TransactionInput{Type: model.TransactionRestock, VariantID: "1"}},
		{"restock with duplicates", dto.TransactionInput{Type: model.TransactionRestock, VariantID: "1", Vins: []string{"A", "A"}}},
		{"transfer without dealer", dto.TransactionInput{Type: model.TransactionTransferToDealer, VariantID: "1", Quantity: 2}},
		{"transfer zero quantity", dto.TransactionInput{Type: model.TransactionTransferToDealer, VariantID: "1", ToDealerID: "d"}},
		{"adjustment without note", dto.TransactionInput{Type: model.TransactionAdjustment, VariantID: "1", Quantity: -1}},
		{"missing variant", dto.TransactionInput{Type: model.TransactionRestock, Vins: []string{"A"}}},
		{"unknown type", dto.TransactionInput{Type: "SELL", VariantID: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ExecuteTransaction(ctx, &tt.input)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
	assert.Empty(t, rec.requests)
}

func TestUpdateReorderLevel(t *testing.T) {
	rec := &recorder{}
	uc := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"variantId":"101","reorderLevel":5,"status":"LOW_STOCK"}`))
	})
	ctx := context.Background()

	_, err := uc.UpdateReorderLevel(ctx, &dto.ReorderLevelInput{Scope: dto.ScopeCentral, VariantID: "101", ReorderLevel: -1})
	assert.True(t, apperr.IsValidation(err))
	_, err = uc.UpdateReorderLevel(ctx, &dto.ReorderLevelInput{Scope: dto.ScopeDealer, VariantID: "101", ReorderLevel: 1})
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, rec.requests)

	rec2, err := uc.UpdateReorderLevel(ctx, &dto.ReorderLevelInput{Scope: dto.ScopeCentral, VariantID: "101", ReorderLevel: 5})
	require.NoError(t, err)
	assert.Equal(t, model.StockLowStock, rec2.Status)

	_, err = uc.UpdateReorderLevel(ctx, &dto.ReorderLevelInput{Scope: dto.ScopeDealer, DealerID: "12", VariantID: "101", ReorderLevel: 0})
	require.NoError(t, err)

	require.Len(t, rec.requests, 2)
	assert.Equal(t, "/inventory/central-stock/reorder-level", rec.requests[0].URL.Path)
	assert.Equal(t, "/inventory/dealer-stock/reorder-level", rec.requests[1].URL.Path)
	assert.Equal(t, "12", rec.bodies[1]["dealerId"])
	assert.Equal(t, http.MethodPut, rec.requests[1].Method)
}

func TestGetStockMergesCatalog(t *testing.T) {
	rec := &recorder{}
	uc := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"101", "102", "103"}, r.URL.Query()["variantIds"])
		_, _ = w.Write([]byte(`[
			{"variantId":"101","totalQuantity":10,"allocatedQuantity":4,"availableQuantity":6,"reorderLevel":3,"status":"IN_STOCK"},
			{"variantId":"103","totalQuantity":0,"availableQuantity":0,"status":"OUT_OF_STOCK"},
			{"variantId":"102","totalQuantity":2,"availableQuantity":2,"reorderLevel":5,"status":"LOW_STOCK"}]`))
	})

	rows, err := uc.GetStock(context.Background(), []string{"101", "102", "103"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "#103", rows[0].DisplayName())
	assert.Equal(t, "VF 5 - Yellow", rows[1].DisplayName())
	assert.Equal(t, 6, rows[2].AvailableQuantity)
}
