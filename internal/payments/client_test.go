package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.PaymentsConfig{
		BaseURL:        server.URL,
		APIKey:         "backend-key",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestCreateStablecoinPayment(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/usdt", r.URL.Path)
		assert.Equal(t, "backend-key", r.Header.Get("X-API-Key"))

		var req CreatePaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "22.00", req.Amount)

		json.NewEncoder(w).Encode(PaymentDetails{
			ID:      "pay_1",
			Address: "0xabc",
			Amount:  req.Amount,
		})
	})

	details, err := client.CreateStablecoinPayment(context.Background(), &CreatePaymentRequest{
		Amount:   "22.00",
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", details.ID)
	// an omitted status defaults to pending
	assert.Equal(t, StatusPending, details.Status)
}

func TestCreateCardSession(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/card/session", r.URL.Path)
		json.NewEncoder(w).Encode(CardSession{
			SessionID:   "sess_1",
			CheckoutURL: "https://pay.example.com/sess_1",
		})
	})

	session, err := client.CreateCardSession(context.Background(), &CreatePaymentRequest{Amount: "11.00"})
	require.NoError(t, err)
	assert.Equal(t, "sess_1", session.SessionID)
	assert.Equal(t, "https://pay.example.com/sess_1", session.CheckoutURL)
}

func TestGetPaymentStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "CONFIRMED"})
	})

	status, err := client.GetPaymentStatus(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status)
}

func TestBackendErrorMessageSurfaced(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "amount below minimum"})
	})

	_, err := client.CreateStablecoinPayment(context.Background(), &CreatePaymentRequest{Amount: "0.01"})
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusUnprocessableEntity, backendErr.Status)
	assert.Equal(t, "amount below minimum", backendErr.Error())
}

func TestBackendErrorWithoutMessage(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetPaymentStatus(context.Background(), "pay_1")
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "payment backend returned 502", backendErr.Error())
}
