// Package totals computes authoritative order totals by borrowing the order
// engine's own machinery: it assembles a throwaway draft, lets the engine run
// its tax and totalling rules, reads the result and discards the draft.
package totals

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hpwell/funnel-pricing/internal/obs"
	"github.com/hpwell/funnel-pricing/internal/ordersub"
)

// Step names identify where in the draft lifecycle a computation failed.
const (
	StepCreateDraft   = "create_draft"
	StepAddLineItem   = "add_line_item"
	StepApplyAddress  = "apply_address"
	StepAddShipping   = "add_shipping"
	StepComputeTotals = "compute_totals"
	StepAddFee        = "add_fee"
)

// ComputationError wraps a failure with the lifecycle step that produced it.
type ComputationError struct {
	Step string
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("totals: %s: %v", e.Step, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

func stepErr(step string, err error) *ComputationError {
	return &ComputationError{Step: step, Err: err}
}

// Input describes everything posted into the draft.
type Input struct {
	// Lines carry regular unit prices; reductions arrive via Fees.
	Lines []ordersub.LineInput
	// Fees are applied one at a time, recomputing totals after each so
	// order-level clamps in the engine see the running state.
	Fees []ordersub.Fee
	// Shipping is optional; digital orders have none.
	Shipping *ordersub.ShippingSelection
	// Billing and ShippingAddr are optional and applied before totalling
	// because the engine's tax rules may depend on destination.
	Billing      *ordersub.Address
	ShippingAddr *ordersub.Address
}

// Computer runs totals computations against an order engine.
type Computer struct {
	Engine ordersub.Engine
}

// Compute creates a draft, posts the input and returns the engine's totals.
// The draft is always discarded, including on failure and caller
// cancellation; a discard failure is logged and counted but never replaces
// the computation's own outcome.
func (c Computer) Compute(ctx context.Context, in Input) (ordersub.Totals, error) {
	if c.Engine == nil {
		return ordersub.Totals{}, errors.New("totals: no order engine configured")
	}
	if len(in.Lines) == 0 {
		return ordersub.Totals{}, errors.New("totals: no lines to compute")
	}

	handle, err := c.Engine.CreateDraft(ctx)
	if err != nil {
		return ordersub.Totals{}, stepErr(StepCreateDraft, err)
	}
	defer func() {
		// The draft must die even when ctx is already cancelled.
		cleanupCtx := context.WithoutCancel(ctx)
		if derr := c.Engine.Discard(cleanupCtx, handle); derr != nil {
			obs.DraftDiscardFailuresTotal.Inc()
			zerolog.Ctx(ctx).Error().Err(derr).
				Str("draft", string(handle)).
				Msg("draft discard failed, draft may leak")
		}
	}()

	for _, line := range in.Lines {
		if err := c.Engine.AddLineItem(ctx, handle, line); err != nil {
			return ordersub.Totals{}, stepErr(StepAddLineItem, err)
		}
	}
	if in.Billing != nil {
		if err := c.Engine.ApplyAddress(ctx, handle, ordersub.BillingAddress, *in.Billing); err != nil {
			return ordersub.Totals{}, stepErr(StepApplyAddress, err)
		}
	}
	if in.ShippingAddr != nil {
		if err := c.Engine.ApplyAddress(ctx, handle, ordersub.ShippingAddress, *in.ShippingAddr); err != nil {
			return ordersub.Totals{}, stepErr(StepApplyAddress, err)
		}
	}
	if in.Shipping != nil {
		if err := c.Engine.AddShipping(ctx, handle, *in.Shipping); err != nil {
			return ordersub.Totals{}, stepErr(StepAddShipping, err)
		}
	}

	result, err := c.Engine.ComputeTotals(ctx, handle)
	if err != nil {
		return ordersub.Totals{}, stepErr(StepComputeTotals, err)
	}
	for _, fee := range in.Fees {
		if err := c.Engine.AddFee(ctx, handle, fee); err != nil {
			return ordersub.Totals{}, stepErr(StepAddFee, err)
		}
		result, err = c.Engine.ComputeTotals(ctx, handle)
		if err != nil {
			return ordersub.Totals{}, stepErr(StepComputeTotals, err)
		}
	}
	return result, nil
}
