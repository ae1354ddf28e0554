package ordersub

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hpwell/funnel-pricing/internal/money"
)

type draft struct {
	lines     []LineInput
	fees      []Fee
	shipping  *ShippingSelection
	addresses map[AddressKind]Address
}

// InMemory is a self-contained order engine. It stands in for the external
// subsystem in local development and tests, and deliberately mimics its
// contract: drafts persist until discarded and totals recompute from scratch
// on every call.
type InMemory struct {
	// TaxBps is the flat tax rate in basis points applied to the
	// post-discount product base.
	TaxBps int

	mu     sync.Mutex
	drafts map[DraftHandle]*draft
}

// NewInMemory constructs an engine with the given flat tax rate.
func NewInMemory(taxBps int) *InMemory {
	return &InMemory{TaxBps: taxBps, drafts: make(map[DraftHandle]*draft)}
}

// CreateDraft allocates a fresh empty draft and returns its handle.
func (e *InMemory) CreateDraft(_ context.Context) (DraftHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drafts == nil {
		e.drafts = make(map[DraftHandle]*draft)
	}
	h := DraftHandle(uuid.NewString())
	e.drafts[h] = &draft{addresses: make(map[AddressKind]Address)}
	return h, nil
}

func (e *InMemory) get(h DraftHandle) (*draft, error) {
	d, ok := e.drafts[h]
	if !ok {
		return nil, ErrUnknownDraft
	}
	return d, nil
}

// AddLineItem appends a product line to the draft.
func (e *InMemory) AddLineItem(_ context.Context, h DraftHandle, line LineInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(h)
	if err != nil {
		return err
	}
	d.lines = append(d.lines, line)
	return nil
}

// AddFee appends an order-level adjustment to the draft.
func (e *InMemory) AddFee(_ context.Context, h DraftHandle, fee Fee) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(h)
	if err != nil {
		return err
	}
	d.fees = append(d.fees, fee)
	return nil
}

// AddShipping records the selected shipping rate.
func (e *InMemory) AddShipping(_ context.Context, h DraftHandle, sel ShippingSelection) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(h)
	if err != nil {
		return err
	}
	d.shipping = &sel
	return nil
}

// ApplyAddress stores the address for the given context.
func (e *InMemory) ApplyAddress(_ context.Context, h DraftHandle, kind AddressKind, addr Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(h)
	if err != nil {
		return err
	}
	d.addresses[kind] = addr
	return nil
}

// ComputeTotals recomputes the draft's totals from its current contents.
// Tax applies to the product base net of negative fees, floored at zero.
func (e *InMemory) ComputeTotals(_ context.Context, h DraftHandle) (Totals, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.get(h)
	if err != nil {
		return Totals{}, err
	}

	var items money.Money
	for _, line := range d.lines {
		if line.Quantity <= 0 {
			continue
		}
		items += line.UnitPrice * money.Money(line.Quantity)
	}
	var fees money.Money
	for _, fee := range d.fees {
		fees += fee.Amount
	}
	var shipping money.Money
	if d.shipping != nil && d.shipping.Amount > 0 {
		shipping = d.shipping.Amount
	}

	taxable := items + fees
	if taxable < 0 {
		taxable = 0
	}
	tax := (taxable * money.Money(e.TaxBps)) / 10000

	grand := items + fees + shipping + tax
	if grand < 0 {
		grand = 0
	}
	return Totals{
		ItemsTotal:    items,
		ShippingTotal: shipping,
		FeesTotal:     fees,
		TaxTotal:      tax,
		GrandTotal:    grand,
	}, nil
}

// Discard removes the draft. Discarding an unknown handle is an error so
// leaks and double-releases show up in tests.
func (e *InMemory) Discard(_ context.Context, h DraftHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.drafts[h]; !ok {
		return ErrUnknownDraft
	}
	delete(e.drafts, h)
	return nil
}

// DraftCount reports how many drafts are currently live. Exposed for leak
// checks in tests and the readiness probe.
func (e *InMemory) DraftCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.drafts)
}

var _ Engine = (*InMemory)(nil)
