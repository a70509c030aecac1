package customer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/resilience"
)

// Type classifies a customer for pricing purposes.
type Type string

const (
	TypeRegular   Type = "REGULAR"
	TypeVIP       Type = "VIP"
	TypeWholesale Type = "WHOLESALE"
)

// Customer is read-only to this service; the customer service owns the record.
// Monetary fields are minor units of the ledger currency.
type Customer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	Type           Type   `json:"type"`
	Debt           int64  `json:"debt"`
	AdvanceBalance int64  `json:"advanceBalance"`
	CreditLimit    int64  `json:"creditLimit"`
}

// IsVIP reports whether VIP pricing applies to this customer.
func (c *Customer) IsVIP() bool {
	return c != nil && c.Type == TypeVIP
}

// Filter narrows a customer listing.
type Filter struct {
	Query string
	ID    string
	Limit int
}

// Client is the customer collaborator contract.
type Client interface {
	List(ctx context.Context, f Filter) ([]Customer, error)
}

// HTTPClient talks to the customer service over REST.
type HTTPClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// List fetches customers matching the filter.
func (c *HTTPClient) List(ctx context.Context, f Filter) ([]Customer, error) {
	q := url.Values{}
	if strings.TrimSpace(f.Query) != "" {
		q.Set("query", f.Query)
	}
	if f.ID != "" {
		q.Set("id", f.ID)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/customers"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("customer: build request: %w", err)
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("customer: list customers: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("customer: list customers: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data []Customer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("customer: decode customers: %w", err)
	}
	return payload.Data, nil
}

// MockClient serves customers from memory for tests and development.
type MockClient struct {
	Customers []Customer
}

// List filters the in-memory customer set.
func (m *MockClient) List(ctx context.Context, f Filter) ([]Customer, error) {
	_ = ctx
	out := make([]Customer, 0, len(m.Customers))
	for _, c := range m.Customers {
		if f.ID != "" && c.ID != f.ID {
			continue
		}
		if f.Query != "" {
			needle := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(c.Name), needle) && !strings.Contains(c.Phone, f.Query) {
				continue
			}
		}
		out = append(out, c)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}
