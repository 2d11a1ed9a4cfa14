package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checkout-engine/internal/core/config"
	"checkout-engine/internal/core/proxy"
	"checkout-engine/internal/core/wompi"
	"checkout-engine/internal/features/orders/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCharger(t *testing.T, handler http.HandlerFunc) *WompiCharger {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := wompi.NewClient(config.GatewayConfig{
		PublicKey:       "pub_test_abc",
		PrivateKey:      "prv_test_abc",
		IntegritySecret: "test_integrity_abc",
		BaseURL:         server.URL,
		Currency:        "COP",
		Timeout:         5 * time.Second,
	}, proxy.Settings{})
	return NewWompiCharger(client, "https://shop.example.com/checkout/status")
}

func TestWompiCharger_Charge(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		charger := newTestCharger(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transactions", r.URL.Path)
			assert.Equal(t, "Bearer prv_test_abc", r.Header.Get("Authorization"))

			var body wompi.TransactionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(10000000), body.AmountInCents)
			assert.Equal(t, "CHK-1", body.Reference)
			assert.Equal(t, "CARD", body.PaymentMethod.Type)
			assert.Equal(t, 1, body.PaymentMethod.Installments)
			assert.Equal(t, wompi.IntegritySignature("CHK-1", 10000000, "COP", "test_integrity_abc"), body.Signature)
			assert.Equal(t, "https://shop.example.com/checkout/status", body.RedirectURL)
			require.NotNil(t, body.CustomerData)
			assert.Equal(t, "Ana Gomez", body.CustomerData.FullName)

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":"tx_1","status":"PENDING","reference":"CHK-1"}}`))
		})

		charge, err := charger.Charge(context.Background(), domain.ChargeRequest{
			Reference:     "CHK-1",
			AmountInCents: 10000000,
			Currency:      "COP",
			CustomerEmail: "ana@example.com",
			Payment:       domain.PaymentInput{Type: "CARD", Token: "tok_1", AcceptanceToken: "acc_1"},
			CustomerData:  &domain.CustomerData{Email: "ana@example.com", FullName: "Ana Gomez"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Charge{TransactionID: "tx_1", Status: "PENDING"}, charge)
	})

	t.Run("Rejected", func(t *testing.T) {
		charger := newTestCharger(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"type":"INPUT_VALIDATION_ERROR","messages":{"acceptance_token":["expired"]}}}`))
		})

		_, err := charger.Charge(context.Background(), domain.ChargeRequest{
			Reference: "CHK-2",
			Payment:   domain.PaymentInput{Type: "NEQUI", PhoneNumber: "3991111111", AcceptanceToken: "old"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrChargeRejected)
		assert.Contains(t, err.Error(), "acceptance_token: expired")
	})

	t.Run("TransportFailure", func(t *testing.T) {
		charger := newTestCharger(t, func(w http.ResponseWriter, r *http.Request) {})
		charger.client = wompi.NewClient(config.GatewayConfig{
			PublicKey:       "pub_test_abc",
			PrivateKey:      "prv_test_abc",
			IntegritySecret: "test_integrity_abc",
			BaseURL:         "http://127.0.0.1:1",
			Timeout:         time.Second,
		}, proxy.Settings{})

		_, err := charger.Charge(context.Background(), domain.ChargeRequest{Reference: "CHK-3", Payment: domain.PaymentInput{Type: "CARD"}})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrChargeRejected)
	})
}
