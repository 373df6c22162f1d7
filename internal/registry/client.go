package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"forestblock/marketplace/marketplace-backend/internal/config"
)

// ErrMissingAPIKey is returned when the upstream API key is not configured
var ErrMissingAPIKey = errors.New("registry API key not configured")

// Client talks to the upstream carbon registry REST API
type Client struct {
	baseURL    string
	apiKey     string
	multiplier decimal.Decimal
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a registry client from configuration
func NewClient(cfg config.RegistryConfig, multiplier decimal.Decimal, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		multiplier: multiplier,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}
}

// get issues an authenticated GET against the upstream and returns the
// raw response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registry returned %d: %s", resp.StatusCode, upstreamMessage(body))
	}
	return body, nil
}

// upstreamMessage extracts a human-readable error from an upstream body
// when one is present.
func upstreamMessage(body []byte) string {
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
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

// RawProjects returns the upstream project payload unmodified, for the
// proxy endpoint.
func (c *Client) RawProjects(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/carbonProjects", nil)
}

// RawPrices returns the upstream price payload unmodified
func (c *Client) RawPrices(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/prices", nil)
}

// ListProjects fetches and normalizes the tradable project list
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	raw, err := c.RawProjects(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeProjects(raw)
}

// ListPrices fetches and normalizes the live quote list
func (c *Client) ListPrices(ctx context.Context) ([]Price, error) {
	raw, err := c.RawPrices(ctx)
	if err != nil {
		return nil, err
	}
	return DecodePrices(raw)
}

// ProjectPrices fetches the live quotes for a single project
func (c *Client) ProjectPrices(ctx context.Context, projectKey string) ([]Price, error) {
	prices, err := c.ListPrices(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]Price, 0, len(prices))
	for _, p := range prices {
		if p.ProjectID() == projectKey {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// FetchMarket reads projects and prices concurrently and joins them
// into display-priced projects.
func (c *Client) FetchMarket(ctx context.Context) (*Market, error) {
	var (
		projects []Project
		prices   []Price
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = c.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = c.ListPrices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Market{
		Projects: DeriveDisplayPrices(projects, prices, c.multiplier),
		Prices:   prices,
	}, nil
}
