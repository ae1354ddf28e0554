package ordersub

import (
	"context"
	"errors"

	"github.com/hpwell/funnel-pricing/internal/money"
)

// DraftHandle identifies one ephemeral draft order inside the order engine.
// Handles are request-scoped: they are never pooled, shared or reused.
type DraftHandle string

// AddressKind selects which order address context to populate.
type AddressKind string

const (
	// BillingAddress is the payer context.
	BillingAddress AddressKind = "billing"
	// ShippingAddress is the delivery context.
	ShippingAddress AddressKind = "shipping"
)

// Address carries the customer address applied to a draft.
type Address struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Company    string `json:"company,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// LineInput posts one product line to a draft. UnitPrice is always the
// regular price; discounts arrive separately as negative fees.
type LineInput struct {
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	Quantity  int         `json:"qty"`
	UnitPrice money.Money `json:"unitPrice"`
}

// Fee is an order-level adjustment. Discounts carry a negative amount.
type Fee struct {
	Label  string      `json:"label"`
	Amount money.Money `json:"amount"`
}

// ShippingSelection is a quoted rate chosen by the customer.
type ShippingSelection struct {
	ServiceName string      `json:"serviceName"`
	Carrier     string      `json:"carrier,omitempty"`
	Amount      money.Money `json:"amount"`
}

// Totals is the engine's authoritative computation result.
type Totals struct {
	ItemsTotal    money.Money `json:"itemsTotal"`
	ShippingTotal money.Money `json:"shippingTotal"`
	FeesTotal     money.Money `json:"feesTotal"`
	TaxTotal      money.Money `json:"taxTotal"`
	GrandTotal    money.Money `json:"grandTotal"`
}

// ErrUnknownDraft is returned for operations against a handle the engine
// does not recognise, typically one that was already discarded.
var ErrUnknownDraft = errors.New("ordersub: unknown draft")

// Engine is the stateful order subsystem borrowed for totals computation.
// Drafts it creates persist until explicitly discarded; callers own cleanup.
// ComputeTotals must be idempotent: repeated calls recompute from the draft's
// current contents without accumulating state.
type Engine interface {
	CreateDraft(ctx context.Context) (DraftHandle, error)
	AddLineItem(ctx context.Context, h DraftHandle, line LineInput) error
	AddFee(ctx context.Context, h DraftHandle, fee Fee) error
	AddShipping(ctx context.Context, h DraftHandle, sel ShippingSelection) error
	ApplyAddress(ctx context.Context, h DraftHandle, kind AddressKind, addr Address) error
	ComputeTotals(ctx context.Context, h DraftHandle) (Totals, error)
	Discard(ctx context.Context, h DraftHandle) error
}
