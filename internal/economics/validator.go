package economics

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hpwell/funnel-pricing/internal/catalog"
	"github.com/hpwell/funnel-pricing/internal/money"
	"github.com/hpwell/funnel-pricing/internal/obs"
	"github.com/hpwell/funnel-pricing/internal/offer"
)

// ItemEconomics is the cost basis of one order line.
type ItemEconomics struct {
	SKU      string
	Quantity int
	// Price is the current selling price used for retail totals.
	Price money.Money
	// Cost is the unit cost of goods.
	Cost     money.Money
	WeightOz float64
}

// ItemRef names a SKU and quantity to be costed via the catalog.
type ItemRef struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"qty"`
}

// CostBreakdown itemises what the seller spends to fulfil the offer.
type CostBreakdown struct {
	COGSTotal money.Money `json:"cogsTotal"`
	// EstimatedShipping is only the portion the seller absorbs.
	EstimatedShipping money.Money `json:"estimatedShipping"`
	PaymentProcessing money.Money `json:"paymentProcessing"`
	TotalCost         money.Money `json:"totalCost"`
}

// Check is the per-minimum outcome of the guideline evaluation.
type Check struct {
	MeetsMinimumPercent bool `json:"meetsMinimumPercent"`
	MeetsMinimumDollars bool `json:"meetsMinimumDollars"`
	PassesAll           bool `json:"passesAll"`
}

// ShippingAdvice describes the shipping split for the evaluated scenario.
type ShippingAdvice struct {
	Scenario       Scenario    `json:"scenario"`
	EstimatedCost  money.Money `json:"estimatedCost"`
	CustomerPays   money.Money `json:"customerPays"`
	SellerAbsorbs  money.Money `json:"sellerAbsorbs"`
	SubsidyPercent float64     `json:"subsidyPercent"`
	Reason         string      `json:"reason"`
}

// Suggestion proposes a concrete change to bring an offer within guidelines.
type Suggestion struct {
	Action             string      `json:"action"`
	RecommendedPrice   money.Money `json:"recommendedPrice,omitempty"`
	NewDiscountPercent float64     `json:"newDiscountPercent,omitempty"`
	NewProfitDollars   money.Money `json:"newProfitDollars,omitempty"`
	Message            string      `json:"message"`
}

// Report is the full economic picture of one proposed price.
type Report struct {
	RetailTotal         money.Money    `json:"retailTotal"`
	ProposedPrice       money.Money    `json:"proposedPrice"`
	DiscountPercent     float64        `json:"discountPercent"`
	Costs               CostBreakdown  `json:"costs"`
	GrossProfit         money.Money    `json:"grossProfit"`
	ProfitMarginPercent float64        `json:"profitMarginPercent"`
	GuidelinesCheck     Check          `json:"guidelinesCheck"`
	Shipping            ShippingAdvice `json:"shippingRecommendation"`
}

// Result is the validator's verdict. A guideline failure is a value, not an
// error: Valid false with warnings and suggestions attached.
type Result struct {
	Economics   Report       `json:"economics"`
	Valid       bool         `json:"valid"`
	Warnings    []string     `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
	Errors      []string     `json:"errors,omitempty"`
}

// Evaluate is the pure evaluation core: given costed items, a proposed price,
// a scenario and guidelines, produce the economic verdict. It never fails at
// runtime; an empty item set yields an invalid result with an error string.
func Evaluate(items []ItemEconomics, proposedPrice money.Money, scenario Scenario, g Guidelines) Result {
	if len(items) == 0 {
		return Result{
			Valid:  false,
			Errors: []string{"No products found in offer"},
		}
	}
	if scenario == "" {
		scenario = Domestic
	}

	var (
		retail, cogs money.Money
		weightOz     float64
		itemCount    int
	)
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		retail += item.Price * money.Money(qty)
		cogs += item.Cost * money.Money(qty)
		weightOz += item.WeightOz * float64(qty)
		itemCount += qty
	}

	discountPct := decimal.Zero
	if retail > 0 {
		discountPct = money.ToDecimal(retail - proposedPrice).
			Div(money.ToDecimal(retail)).
			Mul(decimal.NewFromInt(100))
	}

	shippingCost := g.ShippingCost(scenario, itemCount, weightOz)
	processingFee := money.FromDecimal(
		money.ToDecimal(proposedPrice).Mul(decimal.NewFromFloat(g.ProcessingRate)),
	)

	advice := ShippingAdvice{Scenario: scenario, EstimatedCost: shippingCost}
	if scenario == International {
		// Tier selection uses the profit before any shipping absorption;
		// the subsidy cannot depend on itself.
		preShippingProfit := proposedPrice - cogs - processingFee
		advice.SubsidyPercent = g.SubsidyPercent(preShippingProfit)
		advice.SellerAbsorbs = money.PercentOf(shippingCost, advice.SubsidyPercent)
		if advice.SubsidyPercent > 0 {
			advice.Reason = fmt.Sprintf("Profit %s qualifies for %s%% subsidy",
				money.FormatUSD(preShippingProfit), formatPercent(advice.SubsidyPercent))
		} else {
			advice.Reason = fmt.Sprintf("Profit %s does not qualify for subsidy",
				money.FormatUSD(preShippingProfit))
		}
	} else {
		if proposedPrice >= g.Domestic.FreeThreshold {
			advice.SellerAbsorbs = shippingCost
			advice.Reason = "Order over threshold - free shipping"
		} else {
			advice.Reason = "Below threshold - standard rates apply"
		}
	}
	advice.CustomerPays = shippingCost - advice.SellerAbsorbs

	totalCost := cogs + processingFee + advice.SellerAbsorbs
	grossProfit := proposedPrice - totalCost

	marginPct := decimal.Zero
	if proposedPrice > 0 {
		marginPct = money.ToDecimal(grossProfit).
			Div(money.ToDecimal(proposedPrice)).
			Mul(decimal.NewFromInt(100))
	}

	meetsPercent := marginPct.GreaterThanOrEqual(decimal.NewFromFloat(g.MinProfitPercent))
	meetsDollars := grossProfit >= g.MinProfitDollars
	passes := g.Passes(meetsPercent, meetsDollars)

	res := Result{
		Economics: Report{
			RetailTotal:     retail,
			ProposedPrice:   proposedPrice,
			DiscountPercent: round1(discountPct),
			Costs: CostBreakdown{
				COGSTotal:         cogs,
				EstimatedShipping: advice.SellerAbsorbs,
				PaymentProcessing: processingFee,
				TotalCost:         totalCost,
			},
			GrossProfit:         grossProfit,
			ProfitMarginPercent: round1(marginPct),
			GuidelinesCheck: Check{
				MeetsMinimumPercent: meetsPercent,
				MeetsMinimumDollars: meetsDollars,
				PassesAll:           passes,
			},
			Shipping: advice,
		},
		Valid:    passes,
		Warnings: buildWarnings(marginPct, grossProfit, discountPct, g),
	}
	if !passes {
		res.Suggestions = buildSuggestions(retail, cogs, g)
	}
	return res
}

// buildWarnings flags every exceeded bound regardless of the overall verdict.
func buildWarnings(marginPct decimal.Decimal, grossProfit money.Money, discountPct decimal.Decimal, g Guidelines) []string {
	var warnings []string
	if marginPct.LessThan(decimal.NewFromFloat(g.MinProfitPercent)) {
		warnings = append(warnings, fmt.Sprintf("Margin %s%% is below minimum %s%%",
			marginPct.Round(1).String(), formatPercent(g.MinProfitPercent)))
	}
	if grossProfit < g.MinProfitDollars {
		warnings = append(warnings, fmt.Sprintf("Profit %s is below minimum %s",
			money.FormatUSD(grossProfit), money.FormatUSD(g.MinProfitDollars)))
	}
	if discountPct.GreaterThan(decimal.NewFromFloat(g.Strategy.MaxDiscountPercent)) {
		warnings = append(warnings, fmt.Sprintf("Discount %s%% exceeds maximum %s%%",
			discountPct.Round(1).String(), formatPercent(g.Strategy.MaxDiscountPercent)))
	}
	return warnings
}

// buildSuggestions solves for the price that hits the minimum dollar profit:
// profit = price*(1-rate) - cogs, so price = (profit+cogs)/(1-rate). The
// suggestion is withheld when the implied discount is negative (price above
// retail) or deeper than the configured maximum.
func buildSuggestions(retail, cogs money.Money, g Guidelines) []Suggestion {
	var suggestions []Suggestion

	oneMinusRate := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(g.ProcessingRate))
	if oneMinusRate.IsPositive() {
		priceForMin := money.FromDecimal(
			money.ToDecimal(g.MinProfitDollars + cogs).Div(oneMinusRate),
		)
		discountForMin := decimal.Zero
		if retail > 0 {
			discountForMin = money.ToDecimal(retail - priceForMin).
				Div(money.ToDecimal(retail)).
				Mul(decimal.NewFromInt(100))
		}
		if !discountForMin.IsNegative() && discountForMin.LessThanOrEqual(decimal.NewFromFloat(g.Strategy.MaxDiscountPercent)) {
			rounded := discountForMin.Round(0)
			suggestions = append(suggestions, Suggestion{
				Action:             "increase_price",
				RecommendedPrice:   priceForMin,
				NewDiscountPercent: toFloat(rounded),
				NewProfitDollars:   g.MinProfitDollars,
				Message: fmt.Sprintf("Increase price to %s (%s%% off) to meet minimum %s profit",
					money.FormatUSD(priceForMin), rounded.String(), money.FormatUSD(g.MinProfitDollars)),
			})
		}
	}

	if retail > 0 {
		suggestions = append(suggestions, Suggestion{
			Action:  "reduce_discount",
			Message: "Consider reducing discount percentage to improve margin",
		})
	}
	suggestions = append(suggestions, Suggestion{
		Action:  "add_higher_margin_product",
		Message: "Consider adding a higher-margin product to the bundle",
	})
	return suggestions
}

// Validator resolves item economics through the catalog and evaluates them
// against the stored guidelines.
type Validator struct {
	Catalog catalog.Lookup
	Source  GuidelineSource
}

// GuidelineSource provides the active guideline configuration.
type GuidelineSource interface {
	Guidelines(ctx context.Context) (Guidelines, error)
}

// StaticGuidelines is a GuidelineSource returning a fixed rule set.
type StaticGuidelines Guidelines

func (s StaticGuidelines) Guidelines(context.Context) (Guidelines, error) {
	return Guidelines(s), nil
}

// EvaluateItems costs the referenced SKUs through the catalog and evaluates
// the proposed price. SKUs the catalog does not know are skipped, matching
// how partially configured offers are priced elsewhere.
func (v Validator) EvaluateItems(ctx context.Context, items []ItemRef, proposedPrice money.Money, scenario Scenario) (Result, error) {
	g, err := v.guidelines(ctx)
	if err != nil {
		return Result{}, err
	}
	costed, err := v.costItems(ctx, items)
	if err != nil {
		return Result{}, err
	}
	res := Evaluate(costed, proposedPrice, scenario, g)
	recordCheck(res)
	return res, nil
}

// ValidateOffer evaluates a whole offer: it flattens the offer into items,
// derives the proposed price from the explicit price or the offer discount,
// and runs the standard evaluation.
func (v Validator) ValidateOffer(ctx context.Context, o *offer.Offer, scenario Scenario) (Result, error) {
	if o == nil {
		return Result{}, errors.New("economics: nil offer")
	}
	g, err := v.guidelines(ctx)
	if err != nil {
		return Result{}, err
	}

	refs := offerItemRefs(o)
	costed, err := v.costItems(ctx, refs)
	if err != nil {
		return Result{}, err
	}

	var retail money.Money
	for _, item := range costed {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		retail += item.Price * money.Money(qty)
	}

	proposed := retail
	switch {
	case o.ExplicitPrice != nil:
		proposed = *o.ExplicitPrice
	case o.Discount != nil && !o.Discount.IsZero():
		proposed = o.Discount.ApplyTo(retail)
	}

	res := Evaluate(costed, proposed, scenario, g)
	recordCheck(res)
	return res, nil
}

// offerItemRefs flattens an offer into SKU references. Kits include must
// components and any optional component with a configured default quantity.
func offerItemRefs(o *offer.Offer) []ItemRef {
	refs := make([]ItemRef, 0, len(o.Items))
	for _, item := range o.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if o.Type == offer.CustomizableKit && item.Role == offer.Optional && item.Quantity <= 0 {
			continue
		}
		refs = append(refs, ItemRef{SKU: item.SKU, Quantity: qty})
	}
	return refs
}

func (v Validator) costItems(ctx context.Context, items []ItemRef) ([]ItemEconomics, error) {
	if v.Catalog == nil {
		return nil, errors.New("economics: validator has no catalog")
	}
	costed := make([]ItemEconomics, 0, len(items))
	for _, ref := range items {
		product, err := v.Catalog.GetBySKU(ctx, ref.SKU)
		if err != nil {
			return nil, fmt.Errorf("economics: catalog lookup %q: %w", ref.SKU, err)
		}
		if product == nil {
			continue
		}
		costed = append(costed, ItemEconomics{
			SKU:      ref.SKU,
			Quantity: ref.Quantity,
			Price:    product.Price,
			Cost:     product.Cost,
			WeightOz: product.WeightOz,
		})
	}
	return costed, nil
}

func (v Validator) guidelines(ctx context.Context) (Guidelines, error) {
	if v.Source == nil {
		return DefaultGuidelines(), nil
	}
	g, err := v.Source.Guidelines(ctx)
	if err != nil {
		return Guidelines{}, err
	}
	return g, nil
}

func recordCheck(res Result) {
	result := "fail"
	if res.Valid {
		result = "pass"
	}
	obs.GuidelineChecksTotal.WithLabelValues(result).Inc()
}

func round1(d decimal.Decimal) float64 {
	return toFloat(d.Round(1))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
