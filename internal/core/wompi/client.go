package wompi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"checkout-engine/internal/core/config"
	"checkout-engine/internal/core/httpclient"
	"checkout-engine/internal/core/proxy"
)

const (
	// SandboxURL serves test keys.
	SandboxURL = "https://sandbox.wompi.co/v1"
	// ProductionURL serves live keys.
	ProductionURL = "https://production.wompi.co/v1"
)

// ErrNotFound is returned when the gateway answers 404.
var ErrNotFound = errors.New("wompi: resource not found")

// Client calls the payment gateway REST API.
type Client struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// baseURL is the API root, without trailing slash.
	baseURL string
	// config holds the gateway credentials.
	config config.GatewayConfig
}

// BaseURLForKey returns the sandbox host for test keys and the production host otherwise.
func BaseURLForKey(key string) string {
	if strings.HasPrefix(key, "pub_test_") || strings.HasPrefix(key, "prv_test_") {
		return SandboxURL
	}
	return ProductionURL
}

// NewClient creates a gateway client. GATEWAY_BASE_URL overrides the host derived from the public key.
func NewClient(cfg config.GatewayConfig, egress proxy.Settings) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURLForKey(cfg.PublicKey)
	}

	return &Client{
		client:  httpclient.NewClient(cfg.Timeout, egress),
		baseURL: strings.TrimRight(baseURL, "/"),
		config:  cfg,
	}
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Currency returns the configured charge currency.
func (c *Client) Currency() string {
	return c.config.Currency
}

// TokenizeCard exchanges raw card data for a single-use token. Authenticated with the public key.
func (c *Client) TokenizeCard(ctx context.Context, card CardRequest) (*CardToken, error) {
	var out struct {
		Data CardToken `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/tokens/cards", c.config.PublicKey, card, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("wompi: token response without id")
	}
	return &out.Data, nil
}

// Merchant fetches the merchant of the configured public key, including the acceptance token.
func (c *Client) Merchant(ctx context.Context) (*Merchant, error) {
	var out struct {
		Data Merchant `json:"data"`
	}
	path := "/merchants/" + url.PathEscape(c.config.PublicKey)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Transaction fetches a transaction by id.
func (c *Client) Transaction(ctx context.Context, id string) (*Transaction, error) {
	var out struct {
		Data Transaction `json:"data"`
	}
	path := "/transactions/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// CreateTransaction starts a charge. Authenticated with the private key and signed with the integrity secret.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if c.config.PrivateKey == "" || c.config.IntegritySecret == "" {
		return nil, fmt.Errorf("wompi: private key and integrity secret are required to create transactions")
	}
	if req.Currency == "" {
		req.Currency = c.config.Currency
	}
	req.Signature = IntegritySignature(req.Reference, req.AmountInCents, req.Currency, c.config.IntegritySecret)

	var out struct {
		Data Transaction `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/transactions", c.config.PrivateKey, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// VerifyEvent checks a webhook event against the configured events secret.
func (c *Client) VerifyEvent(event Event) bool {
	return VerifyEvent(event, c.config.EventsSecret)
}

// HealthCheck verifies that the gateway is reachable and the public key is known.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Merchant(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == nil {
		envelope.Error = &APIError{Type: http.StatusText(resp.StatusCode)}
	}
	envelope.Error.StatusCode = resp.StatusCode

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, envelope.Error)
	}
	return envelope.Error
}
