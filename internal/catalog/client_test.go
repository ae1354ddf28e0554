package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/catalog"
)

func TestClientGetBySKU(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/SERUM-30", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_ = json.NewEncoder(w).Encode(catalog.Product{
			SKU:          "SERUM-30",
			Name:         "Renewal Serum",
			Price:        4000,
			RegularPrice: 4000,
			Cost:         1500,
			StockStatus:  catalog.InStock,
		})
	}))
	defer srv.Close()

	client := catalog.Client{BaseURL: srv.URL, APIKey: "secret"}
	p, err := client.GetBySKU(context.Background(), "SERUM-30")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "Renewal Serum", p.Name)
	require.EqualValues(t, 1500, p.Cost)
}

func TestClientUnknownSKU(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := catalog.Client{BaseURL: srv.URL}
	p, err := client.GetBySKU(context.Background(), "GHOST-1")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := catalog.Client{BaseURL: srv.URL}
	_, err := client.GetBySKU(context.Background(), "SERUM-30")
	require.Error(t, err)
}

func TestClientNotConfigured(t *testing.T) {
	_, err := catalog.Client{}.GetBySKU(context.Background(), "SERUM-30")
	require.ErrorIs(t, err, catalog.ErrNotConfigured)
}
