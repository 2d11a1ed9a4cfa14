package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/config"
	"checkout-engine/internal/core/proxy"
	"checkout-engine/internal/core/wompi"
	"checkout-engine/internal/features/payments/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWompiAdapter(t *testing.T, handler http.HandlerFunc) *WompiAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := wompi.NewClient(config.GatewayConfig{
		PublicKey: "pub_test_abc",
		BaseURL:   server.URL,
		Currency:  "COP",
		Timeout:   5 * time.Second,
	}, proxy.Settings{})
	return NewWompiAdapter(client)
}

var testCard = domain.CardInstrument{
	Number:     "4242 4242 4242 4242",
	CVC:        "123",
	ExpMonth:   "08",
	ExpYear:    "28",
	CardHolder: "Ana Gomez",
}

func TestWompiAdapter_TokenizeCard(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		adapter := newWompiAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			var body wompi.CardRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "4242424242424242", body.Number)

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"status":"CREATED","data":{"id":"tok_test_42"}}`))
		})

		token, err := adapter.TokenizeCard(context.Background(), testCard)
		require.NoError(t, err)
		assert.Equal(t, "tok_test_42", token)
	})

	t.Run("Rejected", func(t *testing.T) {
		adapter := newWompiAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"type":"INPUT_VALIDATION_ERROR","messages":{"exp_year":["La tarjeta está vencida"]}}}`))
		})

		_, err := adapter.TokenizeCard(context.Background(), testCard)
		require.True(t, apperror.IsCode(err, apperror.CodeTokenization))

		status, code, msg, details := apperror.Public(err)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, apperror.CodeTokenization, code)
		assert.Equal(t, "the card was rejected: exp_year: La tarjeta está vencida", msg)
		assert.Equal(t, map[string]string{"exp_year": "La tarjeta está vencida"}, details)
	})

	t.Run("Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		adapter := NewWompiAdapter(wompi.NewClient(config.GatewayConfig{PublicKey: "pub_test_abc", BaseURL: server.URL, Timeout: time.Second}, proxy.Settings{}))

		_, err := adapter.TokenizeCard(context.Background(), testCard)
		require.True(t, apperror.IsCode(err, apperror.CodeTokenization))
		_, _, msg, _ := apperror.Public(err)
		assert.NotContains(t, msg, "127.0.0.1")
	})
}

func TestWompiAdapter_AcceptanceTerms(t *testing.T) {
	adapter := newWompiAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"presigned_acceptance":{"acceptance_token":"acc_1","permalink":"https://example.com/terms.pdf"}}}`))
	})

	acceptance, err := adapter.AcceptanceTerms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Acceptance{AcceptanceToken: "acc_1", Permalink: "https://example.com/terms.pdf"}, acceptance)
}

func TestWompiAdapter_GetTransaction(t *testing.T) {
	adapter := newWompiAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/tx_3", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":"tx_3","status":"PENDING","payment_method_type":"BANCOLOMBIA_TRANSFER","payment_method":{"extra":{"async_payment_url":"https://bank.example/pay"}}}}`))
	})

	tx, err := adapter.GetTransaction(context.Background(), "tx_3")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, tx.Status)
	assert.Equal(t, domain.MethodBancolombiaTransfer, tx.Method)
	assert.Equal(t, "https://bank.example/pay", tx.RedirectURL)
}
