package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/payment/repository"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
)

const pendingJSON = `[
  {"paymentId":"p-1","orderId":"o-1","amount":150000000,"paymentMethod":"BANK_TRANSFER","referenceCode":"FT123","status":"PENDING","submittedAt":"2025-05-01T10:00:00"},
  {"paymentId":"p-2","orderId":"o-2","amount":"99000000.50","paymentMethod":"CASH","status":"PENDING"},
  {"paymentId":"p-3","orderId":"o-3","amount":1,"status":"PENDING"}
]`

func newReview(t *testing.T, handler http.HandlerFunc) *Review {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := restclient.New(restclient.Config{Service: "payment", BaseURL: srv.URL, HTTPClient: srv.Client()})
	return NewReview(repository.NewHTTPRepository(client), logger.NewNop())
}

func TestReviewRemovesOptimistically(t *testing.T) {
	var rejectReason string
	listCalls := 0
	r := newReview(t, func(w http.ResponseWriter, req *http.Request) {
		switch req.Method + " " + req.URL.Path {
		case "GET /payments/manual/pending":
			listCalls++
			_, _ = w.Write([]byte(pendingJSON))
		case "PUT /payments/manual/p-1/confirm":
			w.WriteHeader(http.StatusOK)
		case "PUT /payments/manual/p-2/reject":
			var body map[string]string
			_ = json.NewDecoder(req.Body).Decode(&body)
			rejectReason = body["reason"]
		case "PUT /payments/manual/p-3/confirm":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Payment already confirmed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	records, err := r.Reload(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "99000000.5", records[1].Amount.String())

	require.NoError(t, r.Approve(ctx, "p-1"))
	assert.Len(t, r.Pending(), 2)

	assert.True(t, apperr.IsValidation(r.Reject(ctx, "p-2", "  ")))
	require.NoError(t, r.Reject(ctx, "p-2", "amount mismatch"))
	assert.Equal(t, "amount mismatch", rejectReason)

	err = r.Approve(ctx, "p-3")
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, "Payment already confirmed", err.Error())

	pending := r.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "p-3", pending[0].PaymentID)
	assert.Equal(t, 1, listCalls, "no refetch after actions")
}
