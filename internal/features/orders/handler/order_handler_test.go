package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/wompi"
	"checkout-engine/internal/features/orders/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey       = "backend-key"
	testEventsSecret = "events_secret"
)

// MockOrderService is a mock implementation of ports.OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrCreateCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockOrderService) CreateAddress(ctx context.Context, in domain.AddressInput) (*domain.Address, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.Placement, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Placement), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, email string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) ApplyTransactionUpdate(ctx context.Context, update domain.TransactionUpdate) (*domain.Order, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type secretVerifier string

func (s secretVerifier) VerifyEvent(event wompi.Event) bool {
	return wompi.VerifyEvent(event, string(s))
}

func setupApp(svc *MockOrderService) *fiber.App {
	app := fiber.New()
	NewOrderHandler(svc, secretVerifier(testEventsSecret), testAPIKey, "create-order").RegisterRoutes(app)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	raw := []byte{}
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

var authorized = map[string]string{"apikey": testAPIKey}

func TestOrderHandler_APIKey(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)

	resp := send(t, app, "POST", "/rest/v1/rpc/get_or_create_customer", domain.CustomerInput{}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = send(t, app, "POST", "/functions/v1/create-order", domain.CreateOrderInput{}, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	svc.AssertNotCalled(t, "GetOrCreateCustomer", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderHandler_GetOrCreateCustomer(t *testing.T) {
	svc := new(MockOrderService)
	app := setupApp(svc)

	in := domain.CustomerInput{Email: "ana@example.com", FullName: "Ana Gomez"}
	svc.On("GetOrCreateCustomer", mock.Anything, in).Return(&domain.Customer{ID: "cus_1"}, nil).Once()

	resp := send(t, app, "POST", "/rest/v1/rpc/get_or_create_customer", in,
		map[string]string{"Authorization": "Bearer " + testAPIKey})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var id string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&id))
	assert.Equal(t, "cus_1", id)
	svc.AssertExpectations(t)
}

func TestOrderHandler_CreateAddress(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		in := domain.AddressInput{CustomerID: "cus_1", AddressLine: "Calle 10", City: "Medellin", State: "Antioquia", Country: "CO"}
		svc.On("CreateAddress", mock.Anything, in).Return(&domain.Address{ID: "addr_1"}, nil).Once()

		resp := send(t, app, "POST", "/rest/v1/rpc/create_checkout_address", in, authorized)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var id string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&id))
		assert.Equal(t, "addr_1", id)
	})

	t.Run("UnknownCustomer", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("CreateAddress", mock.Anything, mock.Anything).Return(nil, domain.ErrCustomerNotFound).Once()

		resp := send(t, app, "POST", "/rest/v1/rpc/create_checkout_address", domain.AddressInput{CustomerID: "nope"}, authorized)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body apperror.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Customer not found", body.Message)
		assert.Equal(t, apperror.CodeResolution, body.Code)
	})
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	in := domain.CreateOrderInput{
		CustomerID: "cus_1",
		AddressID:  "addr_1",
		Items:      []domain.ItemInput{{ProductID: "P1", Quantity: 2}},
		Payment:    domain.PaymentInput{Type: "CARD", Token: "tok_1", AcceptanceToken: "acc_1"},
	}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("CreateOrder", mock.Anything, in).Return(&domain.Placement{
			Order: &domain.Order{
				ID:        "ord_1",
				Reference: "CHK-0123456789ABCDEF",
				Status:    domain.OrderStatusPending,
				Total:     decimal.NewFromInt(100000),
			},
			TransactionID:     "tx_1",
			TransactionStatus: "PENDING",
		}, nil).Once()

		resp := send(t, app, "POST", "/functions/v1/create-order", in, authorized)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body OrderFunctionResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		require.NotNil(t, body.Order)
		assert.Equal(t, "ord_1", body.Order.ID)
		assert.Equal(t, "PENDING", body.Order.Status)
		assert.True(t, decimal.NewFromInt(100000).Equal(body.Order.Total))
		require.NotNil(t, body.Data)
		assert.Equal(t, "tx_1", body.Data.TransactionID)
		svc.AssertExpectations(t)
	})

	t.Run("OutOfStock", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("CreateOrder", mock.Anything, in).Return(nil, fmt.Errorf("%w: Coffee", domain.ErrOutOfStock)).Once()

		resp := send(t, app, "POST", "/functions/v1/create-order", in, authorized)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body OrderFunctionResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.Success)
		assert.Equal(t, "Product is out of stock: Coffee", body.Error)
		assert.Nil(t, body.Order)
	})

	t.Run("UnknownFunction", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		resp := send(t, app, "POST", "/functions/v1/other", in, authorized)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("GetOrder", mock.Anything, "ord_1", "ana@example.com").
			Return(&domain.Order{ID: "ord_1", Status: domain.OrderStatusPaid}, nil).Once()

		resp := send(t, app, "GET", "/orders/ord_1?email=ana@example.com", nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ord_1", body["order_id"])
		assert.Equal(t, "PAID", body["status"])
	})

	t.Run("MissingEmail", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		resp := send(t, app, "GET", "/orders/ord_1", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("EmailMismatch", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("GetOrder", mock.Anything, "ord_1", "eve@example.com").Return(nil, domain.ErrEmailMismatch).Once()

		resp := send(t, app, "GET", "/orders/ord_1?email=eve@example.com", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("GetOrder", mock.Anything, "missing", "ana@example.com").Return(nil, domain.ErrOrderNotFound).Once()

		resp := send(t, app, "GET", "/orders/missing?email=ana@example.com", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func signedEvent(name, status string) wompi.Event {
	var event wompi.Event
	event.Event = name
	event.Data.Transaction = wompi.Transaction{ID: "tx_1", Reference: "CHK-1", Status: status}
	event.Signature.Properties = []string{"transaction.id", "transaction.status"}
	event.Timestamp = 1700000000
	event.Signature.Checksum = wompi.EventChecksum(event, testEventsSecret)
	return event
}

func TestOrderHandler_Webhook(t *testing.T) {
	t.Run("AppliesUpdate", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("ApplyTransactionUpdate", mock.Anything, domain.TransactionUpdate{TransactionID: "tx_1", Reference: "CHK-1", Status: "APPROVED"}).
			Return(&domain.Order{ID: "ord_1", Status: domain.OrderStatusPaid}, nil).Once()

		resp := send(t, app, "POST", "/webhooks/wompi", signedEvent("transaction.updated", "APPROVED"), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "applied", body["status"])
		assert.Equal(t, "PAID", body["order_status"])
		svc.AssertExpectations(t)
	})

	t.Run("BadSignature", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		event := signedEvent("transaction.updated", "APPROVED")
		event.Data.Transaction.Status = "DECLINED"

		resp := send(t, app, "POST", "/webhooks/wompi", event, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		svc.AssertNotCalled(t, "ApplyTransactionUpdate", mock.Anything, mock.Anything)
	})

	t.Run("OtherEventsIgnored", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		resp := send(t, app, "POST", "/webhooks/wompi", signedEvent("nequi_token.updated", "APPROVED"), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertNotCalled(t, "ApplyTransactionUpdate", mock.Anything, mock.Anything)
	})

	t.Run("UnknownReferenceIgnored", func(t *testing.T) {
		svc := new(MockOrderService)
		app := setupApp(svc)

		svc.On("ApplyTransactionUpdate", mock.Anything, mock.Anything).Return(nil, domain.ErrOrderNotFound).Once()

		resp := send(t, app, "POST", "/webhooks/wompi", signedEvent("transaction.updated", "DECLINED"), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ignored", body["status"])
	})
}
