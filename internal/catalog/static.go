package catalog

import "context"

// Static serves lookups from an in-memory product set. It backs local
// development without a catalog service and keeps tests hermetic.
type Static struct {
	products map[string]Product
}

// NewStatic builds a Static lookup from the provided products.
func NewStatic(products ...Product) *Static {
	m := make(map[string]Product, len(products))
	for _, p := range products {
		m[p.SKU] = p
	}
	return &Static{products: m}
}

// GetBySKU returns the configured product or (nil, nil) when absent.
func (s *Static) GetBySKU(_ context.Context, sku string) (*Product, error) {
	if s == nil {
		return nil, nil
	}
	p, ok := s.products[sku]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

var _ Lookup = (*Static)(nil)
