package offer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hpwell/funnel-pricing/internal/money"
)

// Type discriminates the offer shapes the resolver understands.
type Type string

const (
	// Single sells one product, optionally at a promotional price.
	Single Type = "single"
	// FixedBundle sells a preset group of products as one unit.
	FixedBundle Type = "fixed_bundle"
	// CustomizableKit sells required components plus customer-selected extras.
	CustomizableKit Type = "customizable_kit"
)

// Role marks a kit component as mandatory or selectable.
type Role string

const (
	// Must components are always included in a kit.
	Must Role = "must"
	// Optional components are included only when the customer selects them.
	Optional Role = "optional"
)

// DiscountKind selects how a DiscountSpec is interpreted.
type DiscountKind string

const (
	// None applies no discount.
	None DiscountKind = "none"
	// Percent discounts by a percentage of the base amount.
	Percent DiscountKind = "percent"
	// Fixed discounts by an absolute amount.
	Fixed DiscountKind = "fixed"
)

// DiscountSpec describes a discount attached to an offer or one of its items.
type DiscountSpec struct {
	Kind    DiscountKind `json:"kind"`
	Percent float64      `json:"percent,omitempty"`
	Amount  money.Money  `json:"amount,omitempty"`
}

// SavingsOn returns how much the spec takes off the given base, never more
// than the base itself and never negative.
func (d DiscountSpec) SavingsOn(base money.Money) money.Money {
	var savings money.Money
	switch d.Kind {
	case Percent:
		savings = money.PercentOf(base, d.Percent)
	case Fixed:
		savings = d.Amount
	default:
		return 0
	}
	if savings < 0 {
		savings = 0
	}
	if savings > base {
		savings = base
	}
	return savings
}

// ApplyTo returns the base amount after the discount.
func (d DiscountSpec) ApplyTo(base money.Money) money.Money {
	return base - d.SavingsOn(base)
}

// IsZero reports whether the spec discounts nothing.
func (d DiscountSpec) IsZero() bool {
	switch d.Kind {
	case Percent:
		return d.Percent == 0
	case Fixed:
		return d.Amount == 0
	default:
		return true
	}
}

// OfferItem is one component of an offer.
type OfferItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"qty"`
	// Role only matters for customizable kits; bundle and single items are
	// implicitly mandatory.
	Role Role `json:"role,omitempty"`
	// MaxQuantity caps the customer selection for optional kit components.
	// Zero means the configured quantity is also the maximum.
	MaxQuantity int `json:"maxQty,omitempty"`
	// SalePrice overrides the catalog price for this component when set.
	SalePrice *money.Money `json:"salePrice,omitempty"`
	// Discount, when set, derives the effective price from the regular price.
	Discount *DiscountSpec `json:"discount,omitempty"`
	// ExcludeGlobalDiscount keeps this component out of order-wide
	// percentage discounts.
	ExcludeGlobalDiscount bool   `json:"excludeGlobalDiscount,omitempty"`
	Label                 string `json:"label,omitempty"`
}

// Offer is a sellable configuration of one or more products.
type Offer struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Type  Type        `json:"type"`
	Items []OfferItem `json:"items"`
	// Discount applies at the offer level, on top of per-item pricing.
	Discount *DiscountSpec `json:"discount,omitempty"`
	// ExplicitPrice, when set, pins the offer's product total regardless of
	// component pricing.
	ExplicitPrice *money.Money `json:"explicitPrice,omitempty"`
	Badge         string       `json:"badge,omitempty"`
	Featured      bool         `json:"featured,omitempty"`
}

// Validate checks structural consistency before an offer is stored.
func (o *Offer) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return errors.New("offer: id is required")
	}
	switch o.Type {
	case Single, FixedBundle, CustomizableKit:
	default:
		return fmt.Errorf("offer: unknown type %q", o.Type)
	}
	if len(o.Items) == 0 {
		return errors.New("offer: at least one item is required")
	}
	if o.Type == Single && len(o.Items) != 1 {
		return errors.New("offer: single offers carry exactly one item")
	}
	for i, item := range o.Items {
		if strings.TrimSpace(item.SKU) == "" {
			return fmt.Errorf("offer: item %d: sku is required", i)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("offer: item %d: negative quantity", i)
		}
		switch item.Role {
		case "", Must, Optional:
		default:
			return fmt.Errorf("offer: item %d: unknown role %q", i, item.Role)
		}
		if item.Role == Optional && o.Type != CustomizableKit {
			return fmt.Errorf("offer: item %d: optional role outside a kit", i)
		}
		if item.SalePrice != nil && *item.SalePrice < 0 {
			return fmt.Errorf("offer: item %d: negative sale price", i)
		}
		if item.Discount != nil {
			switch item.Discount.Kind {
			case None, Percent, Fixed:
			default:
				return fmt.Errorf("offer: item %d: unknown discount kind %q", i, item.Discount.Kind)
			}
		}
	}
	if o.Discount != nil {
		switch o.Discount.Kind {
		case None, Percent, Fixed:
		default:
			return fmt.Errorf("offer: unknown discount kind %q", o.Discount.Kind)
		}
	}
	if o.ExplicitPrice != nil && *o.ExplicitPrice < 0 {
		return errors.New("offer: negative explicit price")
	}
	return nil
}

// LineItem is one resolved, priced order line.
type LineItem struct {
	SKU           string      `json:"sku"`
	Name          string      `json:"name"`
	Quantity      int         `json:"qty"`
	UnitRegular   money.Money `json:"unitRegular"`
	UnitEffective money.Money `json:"unitEffective"`
	// LineSubtotal is always quantity times the regular price; promotional
	// pricing surfaces as LineSavings instead of a lowered subtotal.
	LineSubtotal money.Money `json:"lineSubtotal"`
	LineSavings  money.Money `json:"lineSavings"`
	// ImpliedDiscountPercent is the whole-percent discount the effective
	// price represents against regular, zero when prices match.
	ImpliedDiscountPercent int  `json:"impliedDiscountPercent,omitempty"`
	ExcludeGlobalDiscount  bool `json:"excludeGlobalDiscount,omitempty"`
}
