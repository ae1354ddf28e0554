// Package pricing is the request-facing surface of the engine. It wires the
// resolver, discount composer, totals computer, economics validator and kit
// advisor into the three computation endpoints.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/hpwell/funnel-pricing/internal/discount"
	"github.com/hpwell/funnel-pricing/internal/economics"
	"github.com/hpwell/funnel-pricing/internal/kit"
	"github.com/hpwell/funnel-pricing/internal/money"
	"github.com/hpwell/funnel-pricing/internal/obs"
	"github.com/hpwell/funnel-pricing/internal/offer"
	"github.com/hpwell/funnel-pricing/internal/ordersub"
	"github.com/hpwell/funnel-pricing/internal/totals"
)

// OfferSource loads stored offer configurations by id.
type OfferSource interface {
	Get(ctx context.Context, id string) (*offer.Offer, error)
}

// Service orchestrates one pricing computation per request. It holds only
// read-only collaborators, so concurrent computations are independent.
type Service struct {
	Resolver  offer.Resolver
	Offers    OfferSource
	Composer  discount.Composer
	Computer  totals.Computer
	Validator economics.Validator
	Advisor   kit.Advisor
}

// ItemRequest names one ad-hoc order line.
type ItemRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"qty" validate:"min=0"`
}

// RateRequest is the shipping rate the customer selected.
type RateRequest struct {
	ServiceName string      `json:"serviceName" validate:"required"`
	Carrier     string      `json:"carrier"`
	Amount      money.Money `json:"amount" validate:"min=0"`
}

// TotalsRequest drives a full order-economics computation, either from an
// ad-hoc item list or from a stored offer plus kit selection.
type TotalsRequest struct {
	Items                 []ItemRequest     `json:"items" validate:"required_without=OfferID,dive"`
	OfferID               string            `json:"offerId"`
	Selection             map[string]int    `json:"selection"`
	Address               *ordersub.Address `json:"address"`
	SelectedRate          *RateRequest      `json:"selectedRate"`
	PointsToRedeem        int               `json:"pointsToRedeem" validate:"min=0"`
	GlobalDiscountPercent float64           `json:"globalDiscountPercent" validate:"min=0,max=100"`
	// OfferTotal pins the product total, overriding any stored explicit
	// price and all discount inputs.
	OfferTotal *money.Money `json:"offerTotal"`
}

// TotalsResponse is the computed order economics summary.
type TotalsResponse struct {
	Subtotal           money.Money `json:"subtotal"`
	DiscountTotal      money.Money `json:"discountTotal"`
	ShippingTotal      money.Money `json:"shippingTotal"`
	TaxTotal           money.Money `json:"taxTotal"`
	FeesTotal          money.Money `json:"feesTotal"`
	PointsDiscount     money.Money `json:"pointsDiscount"`
	DiscountedSubtotal money.Money `json:"discountedSubtotal"`
	GrandTotal         money.Money `json:"grandTotal"`
	Warnings           []string    `json:"warnings,omitempty"`
}

// ComputeTotals resolves the requested lines, composes the discount fees and
// runs the draft roundtrip against the order engine.
func (s *Service) ComputeTotals(ctx context.Context, req TotalsRequest) (TotalsResponse, error) {
	start := time.Now()
	resp, err := s.computeTotals(ctx, req)
	observe("totals", start, err)
	return resp, err
}

func (s *Service) computeTotals(ctx context.Context, req TotalsRequest) (TotalsResponse, error) {
	res, offerDiscount, explicit, err := s.resolveRequest(ctx, req)
	if err != nil {
		return TotalsResponse{}, err
	}
	if req.OfferTotal != nil {
		explicit = req.OfferTotal
	}

	comp := s.Composer.Compose(res.Lines, offerDiscount, req.GlobalDiscountPercent, req.PointsToRedeem, explicit)

	in := totals.Input{
		Lines: lineInputs(res.Lines),
		Fees:  comp.Fees,
	}
	if req.SelectedRate != nil {
		in.Shipping = &ordersub.ShippingSelection{
			ServiceName: req.SelectedRate.ServiceName,
			Carrier:     req.SelectedRate.Carrier,
			Amount:      req.SelectedRate.Amount,
		}
	}
	if req.Address != nil {
		// The order engine wants both contexts; quoting uses one address.
		in.Billing = req.Address
		in.ShippingAddr = req.Address
	}

	engineTotals, err := s.Computer.Compute(ctx, in)
	if err != nil {
		return TotalsResponse{}, err
	}
	return TotalsResponse{
		Subtotal:           comp.SumRegular,
		DiscountTotal:      comp.ProductSavings,
		ShippingTotal:      engineTotals.ShippingTotal,
		TaxTotal:           engineTotals.TaxTotal,
		FeesTotal:          engineTotals.FeesTotal,
		PointsDiscount:     comp.PointsDiscount,
		DiscountedSubtotal: comp.Net,
		GrandTotal:         engineTotals.GrandTotal,
		Warnings:           res.Warnings,
	}, nil
}

// resolveRequest expands either the stored offer or the ad-hoc item list.
func (s *Service) resolveRequest(ctx context.Context, req TotalsRequest) (offer.Resolution, *offer.DiscountSpec, *money.Money, error) {
	if req.OfferID == "" {
		items := make([]offer.OfferItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, offer.OfferItem{SKU: item.SKU, Quantity: item.Quantity})
		}
		res, err := s.Resolver.ResolveItems(ctx, items)
		return res, nil, nil, err
	}

	if s.Offers == nil {
		return offer.Resolution{}, nil, nil, errors.New("pricing: no offer source configured")
	}
	o, err := s.Offers.Get(ctx, req.OfferID)
	if err != nil {
		return offer.Resolution{}, nil, nil, err
	}
	res, err := s.Resolver.Resolve(ctx, o, offer.Selection(req.Selection))
	recordResolution(o.Type, err)
	if err != nil {
		return offer.Resolution{}, nil, nil, err
	}
	return res, o.Discount, o.ExplicitPrice, nil
}

// ValidateOfferRequest carries either an inline offer or a stored offer id.
type ValidateOfferRequest struct {
	Offer    *offer.Offer       `json:"offer" validate:"required_without=OfferID"`
	OfferID  string             `json:"offerId"`
	Scenario economics.Scenario `json:"scenario" validate:"omitempty,oneof=domestic international"`
}

// ValidateOffer evaluates the offer's economics against the guidelines.
func (s *Service) ValidateOffer(ctx context.Context, req ValidateOfferRequest) (economics.Result, error) {
	start := time.Now()
	res, err := s.validateOffer(ctx, req)
	observe("validate_offer", start, err)
	return res, err
}

func (s *Service) validateOffer(ctx context.Context, req ValidateOfferRequest) (economics.Result, error) {
	o := req.Offer
	if o == nil {
		if s.Offers == nil {
			return economics.Result{}, errors.New("pricing: no offer source configured")
		}
		loaded, err := s.Offers.Get(ctx, req.OfferID)
		if err != nil {
			return economics.Result{}, err
		}
		o = loaded
	}
	return s.Validator.ValidateOffer(ctx, o, req.Scenario)
}

// KitOptionsRequest drives a pricing-option sweep for a kit or bundle.
type KitOptionsRequest struct {
	KitName               string          `json:"kitName" validate:"required"`
	Items                 []ItemRequest   `json:"items" validate:"required_without=OfferID,dive"`
	OfferID               string          `json:"offerId"`
	Selection             map[string]int  `json:"selection"`
	TargetDiscountPercent float64         `json:"targetDiscountPercent" validate:"min=0,max=50"`
	Constraints           kit.Constraints `json:"constraints"`
}

// KitOptionsResponse is the full advisory payload: the sweep, the decision
// point framing it, and a ready-to-save offer built from the balanced option.
type KitOptionsResponse struct {
	KitName        string              `json:"kitName"`
	TotalRetail    money.Money         `json:"totalRetail"`
	TotalCost      money.Money         `json:"totalCost"`
	Options        []kit.PricingOption `json:"options"`
	DecisionPoint  kit.DecisionPoint   `json:"decisionPoint"`
	SuggestedOffer *offer.Offer        `json:"suggestedOffer,omitempty"`
	Warnings       []string            `json:"warnings,omitempty"`
}

// KitOptions resolves the kit contents, totals their retail value and cost,
// and sweeps discount levels around the target.
func (s *Service) KitOptions(ctx context.Context, req KitOptionsRequest) (KitOptionsResponse, error) {
	start := time.Now()
	resp, err := s.kitOptions(ctx, req)
	observe("kit_options", start, err)
	return resp, err
}

func (s *Service) kitOptions(ctx context.Context, req KitOptionsRequest) (KitOptionsResponse, error) {
	var (
		res offer.Resolution
		err error
	)
	if req.OfferID != "" {
		if s.Offers == nil {
			return KitOptionsResponse{}, errors.New("pricing: no offer source configured")
		}
		var o *offer.Offer
		o, err = s.Offers.Get(ctx, req.OfferID)
		if err != nil {
			return KitOptionsResponse{}, err
		}
		res, err = s.Resolver.Resolve(ctx, o, offer.Selection(req.Selection))
		recordResolution(o.Type, err)
	} else {
		items := make([]offer.OfferItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, offer.OfferItem{SKU: item.SKU, Quantity: item.Quantity})
		}
		res, err = s.Resolver.ResolveItems(ctx, items)
	}
	if err != nil {
		return KitOptionsResponse{}, err
	}

	var retail, cost money.Money
	for _, line := range res.Lines {
		retail += line.UnitEffective * money.Money(line.Quantity)
		product, perr := s.Resolver.Catalog.GetBySKU(ctx, line.SKU)
		if perr != nil {
			return KitOptionsResponse{}, perr
		}
		if product != nil {
			cost += product.Cost * money.Money(line.Quantity)
		}
	}

	options, err := s.Advisor.BuildOptions(ctx, retail, cost, req.TargetDiscountPercent, req.Constraints)
	if err != nil {
		return KitOptionsResponse{}, err
	}
	return KitOptionsResponse{
		KitName:        req.KitName,
		TotalRetail:    retail,
		TotalCost:      cost,
		Options:        options,
		DecisionPoint:  kit.DecisionPointFor(req.KitName, options),
		SuggestedOffer: kit.SuggestedOffer(req.KitName, res.Lines, options),
		Warnings:       res.Warnings,
	}, nil
}

func lineInputs(lines []offer.LineItem) []ordersub.LineInput {
	out := make([]ordersub.LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, ordersub.LineInput{
			SKU:      line.SKU,
			Name:     line.Name,
			Quantity: line.Quantity,
			// Always the regular price; reductions post as fees.
			UnitPrice: line.UnitRegular,
		})
	}
	return out
}

func observe(endpoint string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.PricingComputationsTotal.WithLabelValues(endpoint, result).Inc()
	obs.ComputationDuration.WithLabelValues(endpoint).Observe(obs.DurationMillis(time.Since(start)))
}

func recordResolution(t offer.Type, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.OfferResolutionsTotal.WithLabelValues(string(t), result).Inc()
}
