package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/resilience"
)

// ErrNotFound indicates no product matched the lookup. Barcode misses are
// reported with this error so the UI can show a specific message instead of a
// generic failure.
var ErrNotFound = errors.New("catalog: product not found")

// Filter narrows a product listing.
type Filter struct {
	Query         string
	ID            string
	CategoryID    string
	FavoritesOnly bool
	Limit         int
}

// Client is the catalog collaborator contract.
type Client interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByBarcode(ctx context.Context, code string) (Product, error)
}

// HTTPClient talks to the catalog service over REST.
type HTTPClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// List fetches products matching the filter.
func (c *HTTPClient) List(ctx context.Context, f Filter) ([]Product, error) {
	q := url.Values{}
	if strings.TrimSpace(f.Query) != "" {
		q.Set("query", f.Query)
	}
	if f.ID != "" {
		q.Set("id", f.ID)
	}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}
	if f.FavoritesOnly {
		q.Set("favorite", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/products"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: list products: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data []Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	return payload.Data, nil
}

// GetByBarcode resolves a single product by its barcode.
func (c *HTTPClient) GetByBarcode(ctx context.Context, code string) (Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Product{}, fmt.Errorf("catalog: barcode required: %w", ErrNotFound)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/products/barcode/" + url.PathEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: build request: %w", err)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: barcode lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return Product{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Product{}, fmt.Errorf("catalog: barcode lookup: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Product{}, fmt.Errorf("catalog: decode product: %w", err)
	}
	return payload.Data, nil
}

// MockClient serves products from memory and is useful for tests and development.
type MockClient struct {
	Products []Product
}

// List filters the in-memory product set.
func (m *MockClient) List(ctx context.Context, f Filter) ([]Product, error) {
	_ = ctx
	out := make([]Product, 0, len(m.Products))
	for _, p := range m.Products {
		if f.ID != "" && p.ID != f.ID {
			continue
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.FavoritesOnly && !p.Favorite {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// GetByBarcode resolves a product by barcode from the in-memory set.
func (m *MockClient) GetByBarcode(ctx context.Context, code string) (Product, error) {
	_ = ctx
	for _, p := range m.Products {
		if p.Barcode != "" && p.Barcode == code {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}
