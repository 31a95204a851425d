package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseOrderIDRoundTrip(t *testing.T) {
	id := PurchaseOrderID(42, 7)
	assert.Equal(t, "booking_42_user_7", id)

	bookingID, userID, err := ParsePurchaseOrderID(id)
	require.NoError(t, err)
	assert.Equal(t, uint(42), bookingID)
	assert.Equal(t, uint(7), userID)
}

func TestParsePurchaseOrderIDRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"booking_42",
		"booking_42_user_",
		"booking_abc_user_7",
		"order_42_user_7",
		"booking_42_user_7_extra",
	} {
		_, _, err := ParsePurchaseOrderID(s)
		assert.Error(t, err, "expected %q to be rejected", s)
	}
}

func newGatewayClient(t *testing.T, handler http.Handler) *KhaltiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKhaltiClient(config.KhaltiConfig{
		BaseURL:   srv.URL,
		SecretKey: "test-key",
		ReturnURL: "http://localhost:8080/payment/callback",
		Timeout:   5 * time.Second,
	})
}

func TestKhaltiInitiate(t *testing.T) {
	client := newGatewayClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/initiate/", r.URL.Path)
		assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))

		var req InitiateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(2500000), req.Amount)
		assert.Equal(t, "booking_1_user_2", req.PurchaseOrderID)
		// The configured return URL is filled in when the caller omits it
		assert.Equal(t, "http://localhost:8080/payment/callback", req.ReturnURL)

		json.NewEncoder(w).Encode(InitiateResponse{
			Pidx:       "HT6o6PEZRWFJ5ygavzHWd5",
			PaymentURL: "https://test-pay.khalti.com/?pidx=HT6o6PEZRWFJ5ygavzHWd5",
		})
	}))

	resp, err := client.Initiate(context.Background(), InitiateRequest{
		Amount:          2500000,
		PurchaseOrderID: PurchaseOrderID(1, 2),
		PurchaseOrder:   "Two bedroom flat",
	})
	require.NoError(t, err)
	assert.Equal(t, "HT6o6PEZRWFJ5ygavzHWd5", resp.Pidx)
	assert.NotEmpty(t, resp.PaymentURL)
}

func TestKhaltiInitiateMissingPidx(t *testing.T) {
	client := newGatewayClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))

	_, err := client.Initiate(context.Background(), InitiateRequest{Amount: 1000})
	assert.Error(t, err)
}

func TestKhaltiLookup(t *testing.T) {
	client := newGatewayClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/lookup/", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "HT6o6PEZRWFJ5ygavzHWd5", req["pidx"])

		json.NewEncoder(w).Encode(LookupResponse{
			Pidx:        "HT6o6PEZRWFJ5ygavzHWd5",
			Status:      KhaltiStatusCompleted,
			TotalAmount: 2500000,
		})
	}))

	resp, err := client.Lookup(context.Background(), "HT6o6PEZRWFJ5ygavzHWd5")
	require.NoError(t, err)
	assert.Equal(t, KhaltiStatusCompleted, resp.Status)
	assert.Equal(t, int64(2500000), resp.TotalAmount)
}

func TestKhaltiGatewayError(t *testing.T) {
	client := newGatewayClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid token."}`))
	}))

	_, err := client.Lookup(context.Background(), "bad")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Contains(t, gwErr.Body, "Invalid token")
}
