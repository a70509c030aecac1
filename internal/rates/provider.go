package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/resilience"
)

// ErrInvalidRate is returned when the settings service reports a non-positive rate.
var ErrInvalidRate = errors.New("rates: exchange rate must be positive")

// Provider supplies the current USD exchange rate expressed in minor units of
// the ledger currency per one dollar.
type Provider interface {
	USDRate(ctx context.Context) (float64, error)
}

// Client fetches the rate from the settings collaborator. Split from Provider
// so the cached provider can wrap any source.
type Client interface {
	USDRate(ctx context.Context) (float64, error)
}

// HTTPClient reads the USD rate from the settings service.
type HTTPClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// USDRate fetches the current rate.
func (c *HTTPClient) USDRate(ctx context.Context) (float64, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/settings/usd-rate"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("rates: build request: %w", err)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("rates: fetch usd rate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rates: fetch usd rate: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data struct {
			Rate float64 `json:"rate"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("rates: decode usd rate: %w", err)
	}
	if payload.Data.Rate <= 0 {
		return 0, ErrInvalidRate
	}
	return payload.Data.Rate, nil
}

// StaticClient returns a fixed rate, useful for tests and development.
type StaticClient struct {
	Rate float64
}

// USDRate returns the configured rate.
func (s StaticClient) USDRate(ctx context.Context) (float64, error) {
	_ = ctx
	if s.Rate <= 0 {
		return 0, ErrInvalidRate
	}
	return s.Rate, nil
}
