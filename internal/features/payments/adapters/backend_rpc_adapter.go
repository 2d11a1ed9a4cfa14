package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/config"
	checkoutdomain "checkout-engine/internal/features/checkout/domain"
	"checkout-engine/internal/features/payments/domain"
)

// BackendRPCAdapter implements ports.Backend against a Supabase-compatible deployment:
// database functions under /rest/v1/rpc and edge functions under /functions/v1.
type BackendRPCAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the deployment URL, key and order function name.
	config config.BackendConfig
}

// NewBackendRPCAdapter creates a new BackendRPCAdapter.
func NewBackendRPCAdapter(client *http.Client, cfg config.BackendConfig) *BackendRPCAdapter {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &BackendRPCAdapter{
		client: client,
		config: cfg,
	}
}

type customerParams struct {
	Email    string  `json:"p_email"`
	FullName string  `json:"p_full_name"`
	UserID   *string `json:"p_user_id"`
	Phone    *string `json:"p_phone"`
}

type addressParams struct {
	CustomerID  string  `json:"p_customer_id"`
	AddressLine string  `json:"p_address_line"`
	City        string  `json:"p_city"`
	State       string  `json:"p_state"`
	Country     string  `json:"p_country"`
	PostalCode  *string `json:"p_postal_code"`
	Phone       string  `json:"p_phone"`
}

// rpcError is the error body of the REST interface.
type rpcError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// GetOrCreateCustomer calls get_or_create_customer.
func (a *BackendRPCAdapter) GetOrCreateCustomer(ctx context.Context, payer checkoutdomain.Payer) (string, error) {
	var id string
	err := a.post(ctx, "/rest/v1/rpc/get_or_create_customer", customerParams{
		Email:    payer.Email,
		FullName: payer.FullName,
		UserID:   optional(payer.UserID),
		Phone:    optional(payer.Phone),
	}, &id)
	if err != nil {
		return "", apperror.Wrap(apperror.CodeResolution, err, "we could not identify the customer, please try again")
	}
	if id == "" {
		return "", apperror.New(apperror.CodeResolution, "we could not identify the customer, please try again")
	}
	return id, nil
}

// CreateAddress calls create_checkout_address.
func (a *BackendRPCAdapter) CreateAddress(ctx context.Context, customerID string, address checkoutdomain.Address) (string, error) {
	var id string
	err := a.post(ctx, "/rest/v1/rpc/create_checkout_address", addressParams{
		CustomerID:  customerID,
		AddressLine: address.AddressLine,
		City:        address.City,
		State:       address.State,
		Country:     address.Country,
		PostalCode:  optional(address.PostalCode),
		Phone:       address.Phone,
	}, &id)
	if err != nil {
		return "", apperror.Wrap(apperror.CodeResolution, err, "we could not save the shipping address, please try again")
	}
	if id == "" {
		return "", apperror.New(apperror.CodeResolution, "we could not save the shipping address, please try again")
	}
	return id, nil
}

// SubmitOrder invokes the order function.
func (a *BackendRPCAdapter) SubmitOrder(ctx context.Context, submission domain.OrderSubmission) (domain.OrderResult, error) {
	var result domain.OrderResult
	err := a.post(ctx, "/functions/v1/"+a.config.OrderFunction, submission, &result)
	if err != nil && result.Error == "" {
		return domain.OrderResult{}, apperror.Wrap(apperror.CodeSubmission, err, "the order could not be placed, please try again")
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "the order could not be placed, please try again"
		}
		return domain.OrderResult{}, apperror.New(apperror.CodeSubmission, msg)
	}
	return result, nil
}

func (a *BackendRPCAdapter) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		// Functions answer errors with the same envelope as successes.
		_ = json.Unmarshal(data, out)

		var rpcErr rpcError
		if json.Unmarshal(data, &rpcErr) == nil && rpcErr.Message != "" {
			return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, rpcErr.Message)
		}
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
