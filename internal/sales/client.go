package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/resilience"
)

// RemoteError carries the sales service's own error message so the cashier
// sees what the service rejected, not a generic failure.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sales: %s", e.Message)
	}
	return fmt.Sprintf("sales: request rejected with status %d", e.StatusCode)
}

// Client is the sales collaborator contract.
type Client interface {
	CreateSale(ctx context.Context, req NewSaleRequest) (CreateSaleResult, error)
	UpdateSale(ctx context.Context, saleID string, req EditSaleRequest) error
}

// HTTPClient talks to the sales service over REST. The submission is a single
// atomic request; no partial commit is possible and no automatic retry is
// attempted (MaxAttempts on the wrapped client must stay 1 for submissions).
type HTTPClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// CreateSale submits a new sale.
func (c *HTTPClient) CreateSale(ctx context.Context, payload NewSaleRequest) (CreateSaleResult, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/sales"
	resp, err := c.post(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return CreateSaleResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return CreateSaleResult{}, decodeRemoteError(resp)
	}
	var out struct {
		Data CreateSaleResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CreateSaleResult{}, fmt.Errorf("sales: decode create response: %w", err)
	}
	return out.Data, nil
}

// UpdateSale replaces an existing sale.
func (c *HTTPClient) UpdateSale(ctx context.Context, saleID string, payload EditSaleRequest) error {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/sales/" + url.PathEscape(saleID)
	resp, err := c.post(ctx, http.MethodPut, endpoint, payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return decodeRemoteError(resp)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, method, endpoint string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sales: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sales: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sales: submit: %w", err)
	}
	return resp, nil
}

func decodeRemoteError(resp *http.Response) error {
	remote := &RemoteError{StatusCode: resp.StatusCode}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		remote.Code = payload.Error.Code
		remote.Message = payload.Error.Message
	}
	return remote
}

// MockClient records submissions in memory for tests and development.
type MockClient struct {
	Created      []NewSaleRequest
	Updated      map[string]EditSaleRequest
	CreateErr    error
	UpdateErr    error
	ChangeAmount int64
	NextSaleID   string
}

// CreateSale records the request and returns the configured result.
func (m *MockClient) CreateSale(ctx context.Context, req NewSaleRequest) (CreateSaleResult, error) {
	_ = ctx
	if m.CreateErr != nil {
		return CreateSaleResult{}, m.CreateErr
	}
	m.Created = append(m.Created, req)
	id := m.NextSaleID
	if id == "" {
		id = fmt.Sprintf("sale-%d", len(m.Created))
	}
	return CreateSaleResult{SaleID: id, ChangeAmount: m.ChangeAmount}, nil
}

// UpdateSale records the edit request.
func (m *MockClient) UpdateSale(ctx context.Context, saleID string, req EditSaleRequest) error {
	_ = ctx
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if m.Updated == nil {
		m.Updated = make(map[string]EditSaleRequest)
	}
	m.Updated[saleID] = req
	return nil
}
