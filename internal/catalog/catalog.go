package catalog

import (
	"context"

	"github.com/hpwell/funnel-pricing/internal/money"
)

// StockStatus mirrors the catalog service's availability states.
type StockStatus string

const (
	// InStock means the product can be sold immediately.
	InStock StockStatus = "instock"
	// OutOfStock means the product cannot currently be fulfilled.
	OutOfStock StockStatus = "outofstock"
	// Backorder means the product is sellable with delayed fulfilment.
	Backorder StockStatus = "onbackorder"
)

// Product is the pricing-relevant snapshot of a catalog entry.
// Price is the current selling price (sale price when one is active),
// RegularPrice the undiscounted list price and Cost the unit COGS.
type Product struct {
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	Price        money.Money `json:"price"`
	RegularPrice money.Money `json:"regularPrice"`
	Cost         money.Money `json:"cost"`
	WeightOz     float64     `json:"weightOz"`
	StockStatus  StockStatus `json:"stockStatus"`
}

// Lookup resolves SKUs against the external product catalog.
// Implementations return (nil, nil) for SKUs the catalog does not know;
// a non-nil error indicates the catalog itself could not be reached.
type Lookup interface {
	GetBySKU(ctx context.Context, sku string) (*Product, error)
}
