package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/config"
)

// StatusChecker is the part of the backend client the monitor needs
type StatusChecker interface {
	GetPaymentStatus(ctx context.Context, paymentID string) (PaymentStatus, error)
}

// Client talks to the external payment backend
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a payment backend client from configuration
func NewClient(cfg config.PaymentsConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode payment request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment backend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &BackendError{Status: resp.StatusCode, Message: backendMessage(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode payment response: %w", err)
		}
	}
	return nil
}

// BackendError carries the payment backend's own error message so it
// can be surfaced to the user verbatim when present.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("payment backend returned %d", e.Status)
}

func backendMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return ""
}

// CreateCardSession creates a hosted card-checkout session
func (c *Client) CreateCardSession(ctx context.Context, req *CreatePaymentRequest) (*CardSession, error) {
	var session CardSession
	if err := c.do(ctx, http.MethodPost, "/payments/card/session", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateStablecoinPayment creates a USDT payment intent: a receiving
// address plus the exact amount to transfer.
func (c *Client) CreateStablecoinPayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentDetails, error) {
	var details PaymentDetails
	if err := c.do(ctx, http.MethodPost, "/payments/usdt", req, &details); err != nil {
		return nil, err
	}
	if details.Status == "" {
		details.Status = StatusPending
	}
	return &details, nil
}

// GetPaymentStatus queries the backend for a payment's current status
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (PaymentStatus, error) {
	var payload struct {
		Status PaymentStatus `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID+"/status", nil, &payload); err != nil {
		return "", err
	}
	return payload.Status, nil
}
