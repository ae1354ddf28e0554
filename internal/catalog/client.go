package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hpwell/funnel-pricing/internal/resilience"
)

// Client fetches product snapshots from the catalog service over HTTP.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    resilience.HTTPClient
}

// GetBySKU implements Lookup against GET {base}/products/{sku}.
// A 404 response maps to (nil, nil): the SKU is simply unknown.
func (c Client) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	trimmed := strings.TrimSpace(sku)
	if trimmed == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/products/%s", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(trimmed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", trimmed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog: get %s: unexpected status %s", trimmed, resp.Status)
	}

	var product Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", trimmed, err)
	}
	if product.SKU == "" {
		product.SKU = trimmed
	}
	return &product, nil
}

var _ Lookup = Client{}

// ErrNotConfigured is returned when a lookup is attempted without a base URL.
var ErrNotConfigured = errors.New("catalog: client not configured")
