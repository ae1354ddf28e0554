package ordersub

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

	"github.com/hpwell/funnel-pricing/internal/resilience"
)

// Client drives a remote order engine over its draft HTTP API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    resilience.HTTPClient
}

var errClientNotConfigured = errors.New("ordersub: client not configured")

func (c Client) endpoint(parts ...string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return base + "/" + strings.Join(escaped, "/")
}

func (c Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errClientNotConfigured
	}
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("ordersub: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("ordersub: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("ordersub: %s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUnknownDraft
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("ordersub: %s %s: unexpected status %s", method, endpoint, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ordersub: decode response: %w", err)
	}
	return nil
}

// CreateDraft allocates a new draft on the remote engine.
func (c Client) CreateDraft(ctx context.Context) (DraftHandle, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint("drafts"), nil, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("ordersub: engine returned empty draft id")
	}
	return DraftHandle(created.ID), nil
}

// AddLineItem posts a product line to the draft.
func (c Client) AddLineItem(ctx context.Context, h DraftHandle, line LineInput) error {
	return c.do(ctx, http.MethodPost, c.endpoint("drafts", string(h), "items"), line, nil)
}

// AddFee posts an order-level adjustment to the draft.
func (c Client) AddFee(ctx context.Context, h DraftHandle, fee Fee) error {
	return c.do(ctx, http.MethodPost, c.endpoint("drafts", string(h), "fees"), fee, nil)
}

// AddShipping posts the selected shipping rate to the draft.
func (c Client) AddShipping(ctx context.Context, h DraftHandle, sel ShippingSelection) error {
	return c.do(ctx, http.MethodPost, c.endpoint("drafts", string(h), "shipping"), sel, nil)
}

// ApplyAddress sets the billing or shipping address on the draft.
func (c Client) ApplyAddress(ctx context.Context, h DraftHandle, kind AddressKind, addr Address) error {
	return c.do(ctx, http.MethodPut, c.endpoint("drafts", string(h), "address", string(kind)), addr, nil)
}

// ComputeTotals asks the engine to recompute and return the draft's totals.
func (c Client) ComputeTotals(ctx context.Context, h DraftHandle) (Totals, error) {
	var totals Totals
	if err := c.do(ctx, http.MethodPost, c.endpoint("drafts", string(h), "totals"), nil, &totals); err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// Discard deletes the draft on the remote engine.
func (c Client) Discard(ctx context.Context, h DraftHandle) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("drafts", string(h)), nil, nil)
}

var _ Engine = Client{}
