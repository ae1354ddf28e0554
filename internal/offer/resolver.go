package offer

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hpwell/funnel-pricing/internal/catalog"
	"github.com/hpwell/funnel-pricing/internal/money"
)

// ErrOfferUnavailable is returned when an offer resolves to no sellable lines.
var ErrOfferUnavailable = errors.New("offer: no resolvable components")

// ResolutionGap reports a component that could not be priced.
type ResolutionGap struct {
	SKU    string
	Reason string
}

func (e *ResolutionGap) Error() string {
	return fmt.Sprintf("offer: cannot resolve %q: %s", e.SKU, e.Reason)
}

// Selection maps optional kit component SKUs to the quantity the customer
// picked. SKUs absent from the selection fall back to the configured quantity.
type Selection map[string]int

// Resolution is the priced expansion of an offer.
type Resolution struct {
	Lines    []LineItem
	Warnings []string
}

// ProductSubtotal sums the regular-price line subtotals.
func (r Resolution) ProductSubtotal() money.Money {
	var total money.Money
	for _, line := range r.Lines {
		total += line.LineSubtotal
	}
	return total
}

// Resolver expands offers into priced line items against the catalog.
type Resolver struct {
	Catalog catalog.Lookup
}

// Resolve expands the offer into line items. For single offers an
// unresolvable product is fatal; bundles and kits skip the component and
// record a warning so a partially stocked offer still sells.
func (r Resolver) Resolve(ctx context.Context, o *Offer, sel Selection) (Resolution, error) {
	if o == nil {
		return Resolution{}, errors.New("offer: nil offer")
	}
	if err := o.Validate(); err != nil {
		return Resolution{}, err
	}

	var res Resolution
	for _, item := range o.Items {
		qty := resolvedQuantity(o.Type, item, sel)
		if qty <= 0 {
			continue
		}
		line, gap, err := r.resolveItem(ctx, item, qty)
		if err != nil {
			return Resolution{}, err
		}
		if gap != nil {
			if o.Type == Single {
				return Resolution{}, gap
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s skipped: %s", gap.SKU, gap.Reason))
			continue
		}
		res.Lines = append(res.Lines, line)
	}
	if len(res.Lines) == 0 {
		return Resolution{}, ErrOfferUnavailable
	}
	return res, nil
}

// ResolveItems prices an ad-hoc item list outside any configured offer.
// Every item must resolve; there is no offer context to degrade into.
func (r Resolver) ResolveItems(ctx context.Context, items []OfferItem) (Resolution, error) {
	if len(items) == 0 {
		return Resolution{}, errors.New("offer: no items to resolve")
	}
	var res Resolution
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		line, gap, err := r.resolveItem(ctx, item, qty)
		if err != nil {
			return Resolution{}, err
		}
		if gap != nil {
			return Resolution{}, gap
		}
		res.Lines = append(res.Lines, line)
	}
	return res, nil
}

func resolvedQuantity(t Type, item OfferItem, sel Selection) int {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	if t != CustomizableKit {
		return qty
	}
	if item.Role == Must {
		return qty
	}
	// Optional component: honour the customer's choice when present.
	if chosen, ok := sel[item.SKU]; ok {
		qty = chosen
	}
	if qty < 0 {
		qty = 0
	}
	if item.MaxQuantity > 0 && qty > item.MaxQuantity {
		qty = item.MaxQuantity
	}
	return qty
}

func (r Resolver) resolveItem(ctx context.Context, item OfferItem, qty int) (LineItem, *ResolutionGap, error) {
	if r.Catalog == nil {
		return LineItem{}, nil, errors.New("offer: resolver has no catalog")
	}
	product, err := r.Catalog.GetBySKU(ctx, item.SKU)
	if err != nil {
		return LineItem{}, nil, fmt.Errorf("offer: catalog lookup %q: %w", item.SKU, err)
	}
	if product == nil {
		return LineItem{}, &ResolutionGap{SKU: item.SKU, Reason: "not in catalog"}, nil
	}
	if product.StockStatus == catalog.OutOfStock {
		return LineItem{}, &ResolutionGap{SKU: item.SKU, Reason: "out of stock"}, nil
	}

	regular := product.RegularPrice
	if regular <= 0 {
		regular = product.Price
	}
	if regular <= 0 {
		return LineItem{}, &ResolutionGap{SKU: item.SKU, Reason: "no usable price"}, nil
	}

	effective := product.Price
	switch {
	case item.SalePrice != nil:
		effective = *item.SalePrice
	case item.Discount != nil && !item.Discount.IsZero():
		effective = item.Discount.ApplyTo(regular)
	}
	if effective < 0 {
		effective = 0
	}
	if effective > regular {
		effective = regular
	}

	name := product.Name
	if item.Label != "" {
		name = item.Label
	}
	line := LineItem{
		SKU:                   item.SKU,
		Name:                  name,
		Quantity:              qty,
		UnitRegular:           regular,
		UnitEffective:         effective,
		LineSubtotal:          regular * money.Money(qty),
		LineSavings:           (regular - effective) * money.Money(qty),
		ExcludeGlobalDiscount: item.ExcludeGlobalDiscount,
	}
	line.ImpliedDiscountPercent = impliedPercent(regular, effective)
	return line, nil, nil
}

// impliedPercent derives the whole-percent markdown the effective price
// represents. Differences of a cent or less are treated as rounding noise.
func impliedPercent(regular, effective money.Money) int {
	diff := regular - effective
	if diff <= 1 || regular <= 0 {
		return 0
	}
	pct := decimal.New(diff, 0).
		Div(decimal.New(regular, 0)).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return int(pct.IntPart())
}

// BadgeFor renders the storefront badge for an offer, preferring an explicit
// badge over one derived from its discount.
func BadgeFor(o *Offer, res Resolution) string {
	if o == nil {
		return ""
	}
	if o.Badge != "" {
		return o.Badge
	}
	if o.Discount != nil && o.Discount.Kind == Percent && o.Discount.Percent > 0 {
		return fmt.Sprintf("%d%% OFF", int(o.Discount.Percent))
	}
	// Fall back to the largest implied component discount.
	best := 0
	for _, line := range res.Lines {
		if line.ImpliedDiscountPercent > best {
			best = line.ImpliedDiscountPercent
		}
	}
	if best > 0 {
		return fmt.Sprintf("%d%% OFF", best)
	}
	return ""
}
