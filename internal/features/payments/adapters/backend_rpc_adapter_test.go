package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/config"
	checkoutdomain "checkout-engine/internal/features/checkout/domain"
	"checkout-engine/internal/features/payments/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRPCAdapter(t *testing.T, handler http.HandlerFunc) *BackendRPCAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewBackendRPCAdapter(server.Client(), config.BackendConfig{
		URL:           server.URL + "/",
		APIKey:        "anon-key",
		OrderFunction: "create-order",
	})
}

func TestBackendRPCAdapter_GetOrCreateCustomer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		adapter := newRPCAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/v1/rpc/get_or_create_customer", r.URL.Path)
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ana@example.com", body["p_email"])
			assert.Equal(t, "user-1", body["p_user_id"])
			assert.Nil(t, body["p_phone"])

			_, _ = w.Write([]byte(`"cus_1"`))
		})

		id, err := adapter.GetOrCreateCustomer(context.Background(), checkoutdomain.Payer{
			Email: "ana@example.com", FullName: "Ana", UserID: "user-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "cus_1", id)
	})

	t.Run("Failure", func(t *testing.T) {
		adapter := newRPCAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"violates check constraint","code":"23514"}`))
		})

		_, err := adapter.GetOrCreateCustomer(context.Background(), checkoutdomain.Payer{Email: "ana@example.com", FullName: "Ana"})
		require.True(t, apperror.IsCode(err, apperror.CodeResolution))
		_, _, msg, _ := apperror.Public(err)
		assert.NotContains(t, msg, "constraint")
	})
}

func TestBackendRPCAdapter_CreateAddress(t *testing.T) {
	adapter := newRPCAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/create_checkout_address", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cus_1", body["p_customer_id"])
		assert.Equal(t, "Bogotá", body["p_city"])
		assert.Nil(t, body["p_postal_code"])

		_, _ = w.Write([]byte(`"addr_1"`))
	})

	id, err := adapter.CreateAddress(context.Background(), "cus_1", checkoutdomain.Address{
		AddressLine: "Cra 7", City: "Bogotá", State: "Cundinamarca", Country: "CO", Phone: "3001234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "addr_1", id)
}

func TestBackendRPCAdapter_SubmitOrder(t *testing.T) {
	submission := domain.OrderSubmission{
		CustomerID: "cus_1",
		AddressID:  "addr_1",
		Items:      []domain.OrderLine{{ProductID: "p1", Quantity: 2}},
		Payment: domain.PaymentPayload{
			MethodPayload:   domain.CardMethod{Token: "tok_1", Installments: 1}.Payload(),
			AcceptanceToken: "acc_1",
			CustomerEmail:   "ana@example.com",
		},
	}

	t.Run("Success", func(t *testing.T) {
		adapter := newRPCAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/functions/v1/create-order", r.URL.Path)

			var body domain.OrderSubmission
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, submission.Items, body.Items)
			assert.Equal(t, "tok_1", body.Payment.Token)

			_, _ = w.Write([]byte(`{"success":true,"order":{"id":"ord_1","reference":"ORD-1","status":"PENDING","total":"100000"},"data":{"transaction_id":"tx_1","status":"PENDING"}}`))
		})

		result, err := adapter.SubmitOrder(context.Background(), submission)
		require.NoError(t, err)
		assert.Equal(t, "tx_1", result.TransactionID())
		assert.Equal(t, "ord_1", result.Order.ID)
	})

	t.Run("FunctionError", func(t *testing.T) {
		adapter := newRPCAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"success":false,"error":"Mug is out of stock"}`))
		})

		_, err := adapter.SubmitOrder(context.Background(), submission)
		require.True(t, apperror.IsCode(err, apperror.CodeSubmission))
		_, _, msg, _ := apperror.Public(err)
		assert.Equal(t, "Mug is out of stock", msg)
	})

	t.Run("TransportError", func(t *testing.T) {
		adapter := newRPCAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := adapter.SubmitOrder(context.Background(), submission)
		require.True(t, apperror.IsCode(err, apperror.CodeSubmission))
	})
}
