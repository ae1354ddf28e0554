// Package kit generates complete pricing options for customizable kits and
// bundles: a sweep of discount levels around a target, each priced with the
// ".99" policy, checked against profitability guidelines and annotated for a
// human (or agent) to choose from. The advisor proposes, it never selects.
package kit

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hpwell/funnel-pricing/internal/economics"
	"github.com/hpwell/funnel-pricing/internal/money"
	"github.com/hpwell/funnel-pricing/internal/offer"
)

// Constraints override the guideline minimums for one sweep. Zero values
// fall back to the active guidelines.
type Constraints struct {
	MinProfitPercent float64     `json:"minProfitPercent,omitempty"`
	MinProfitDollars money.Money `json:"minProfitDollars,omitempty"`
}

// ShippingRecommendation summarises shipping terms at one price point.
type ShippingRecommendation struct {
	Domestic      string `json:"domestic"`
	International string `json:"international"`
}

// PricingOption is one fully priced discount level.
type PricingOption struct {
	ID                   string                 `json:"id"`
	Label                string                 `json:"label"`
	DiscountPercent      float64                `json:"discountPercent"`
	Price                money.Money            `json:"price"`
	Profit               money.Money            `json:"profit"`
	ProfitMarginPercent  float64                `json:"profitMarginPercent"`
	MeetsGuidelines      bool                   `json:"meetsGuidelines"`
	Badge                string                 `json:"badge,omitempty"`
	Recommended          bool                   `json:"recommended,omitempty"`
	RecommendationReason string                 `json:"recommendationReason,omitempty"`
	Warning              string                 `json:"warning,omitempty"`
	Shipping             ShippingRecommendation `json:"shipping"`
}

// DecisionPoint frames the options as a question for the chooser.
type DecisionPoint struct {
	DecisionPoint        string          `json:"decisionPoint"`
	Question             string          `json:"question"`
	Context              string          `json:"context"`
	Options              []PricingOption `json:"options"`
	Recommendation       string          `json:"recommendation"`
	RecommendationReason string          `json:"recommendationReason"`
	AllMeetGuidelines    bool            `json:"allMeetGuidelines"`
}

// Advisor sweeps discount levels against the active guidelines.
type Advisor struct {
	Source economics.GuidelineSource
}

// sweep defines the four discount levels generated around the target.
var sweep = []struct {
	id     string
	label  string
	offset float64
}{
	{"aggressive", "Aggressive", 5},
	{"balanced", "Balanced", 0},
	{"conservative", "Conservative", -5},
	{"minimum_viable", "Maximum Discount", 10},
}

// BuildOptions generates the four discount tiers around the target percent,
// each clamped to [0, 50] and priced with RoundPrice.
func (a Advisor) BuildOptions(ctx context.Context, totalRetail, totalCost money.Money, targetDiscount float64, c Constraints) ([]PricingOption, error) {
	g, err := a.guidelines(ctx)
	if err != nil {
		return nil, err
	}
	minPercent := c.MinProfitPercent
	if minPercent == 0 {
		minPercent = g.MinProfitPercent
	}
	minDollars := c.MinProfitDollars
	if minDollars == 0 {
		minDollars = g.MinProfitDollars
	}

	options := make([]PricingOption, 0, len(sweep))
	for _, level := range sweep {
		discount := clampDiscount(targetDiscount + level.offset)
		price := RoundPrice(money.FromDecimal(
			money.ToDecimal(totalRetail).Mul(decimal.NewFromFloat(1 - discount/100)),
		))

		profit := price - totalCost
		margin := decimal.Zero
		if price > 0 {
			margin = money.ToDecimal(profit).
				Div(money.ToDecimal(price)).
				Mul(decimal.NewFromInt(100))
		}

		meetsPercent := margin.GreaterThanOrEqual(decimal.NewFromFloat(minPercent))
		meetsDollars := profit >= minDollars
		meets := g.Passes(meetsPercent, meetsDollars)

		opt := PricingOption{
			ID:                  level.id,
			Label:               level.label,
			DiscountPercent:     discount,
			Price:               price,
			Profit:              profit,
			ProfitMarginPercent: round1(margin),
			MeetsGuidelines:     meets,
			Shipping: ShippingRecommendation{
				Domestic:      domesticRecommendation(price, g),
				International: g.SubsidyRecommendation(profit),
			},
		}
		if discount >= g.Strategy.MinDiscountDisplay {
			opt.Badge = fmt.Sprintf("%s%% OFF", formatPercent(discount))
		}
		if level.id == "balanced" {
			opt.Recommended = true
			opt.RecommendationReason = "Best balance of value proposition and margin"
		}
		if !meets {
			if meetsPercent {
				opt.Warning = fmt.Sprintf("Profit %s below minimum %s",
					money.FormatUSD(profit), money.FormatUSD(minDollars))
			} else {
				opt.Warning = fmt.Sprintf("Margin %s%% below minimum %s%%",
					margin.Round(1).String(), formatPercent(minPercent))
			}
		}
		options = append(options, opt)
	}
	return options, nil
}

// DecisionPointFor frames the sweep as a pricing-strategy question. The
// recommendation is always "balanced"; choosing stays with the caller.
func DecisionPointFor(kitName string, options []PricingOption) DecisionPoint {
	all := true
	for _, opt := range options {
		if !opt.MeetsGuidelines {
			all = false
			break
		}
	}
	context := "Some options do not meet profit guidelines."
	if all {
		context = "All options meet minimum guidelines. Higher discounts may drive more conversions."
	}
	return DecisionPoint{
		DecisionPoint:        "pricing_strategy",
		Question:             fmt.Sprintf("Which pricing strategy for the %s?", kitName),
		Context:              context,
		Options:              options,
		Recommendation:       "balanced",
		RecommendationReason: "Best balance of customer value and profit margin",
		AllMeetGuidelines:    all,
	}
}

// SuggestedOffer assembles a ready-to-save fixed bundle from the balanced
// option so an approved sweep can be published without re-keying.
func SuggestedOffer(kitName string, lines []offer.LineItem, options []PricingOption) *offer.Offer {
	var balanced *PricingOption
	for i := range options {
		if options[i].ID == "balanced" {
			balanced = &options[i]
			break
		}
	}
	if balanced == nil {
		if len(options) == 0 {
			return nil
		}
		balanced = &options[0]
	}

	items := make([]offer.OfferItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, offer.OfferItem{SKU: line.SKU, Quantity: line.Quantity})
	}
	price := balanced.Price
	return &offer.Offer{
		Name:  kitName,
		Type:  offer.FixedBundle,
		Items: items,
		Discount: &offer.DiscountSpec{
			Kind:    offer.Percent,
			Percent: balanced.DiscountPercent,
		},
		ExplicitPrice: &price,
		Badge:         balanced.Badge,
		Featured:      true,
	}
}

// RoundPrice applies the ".99" policy: round to the nearest whole currency
// unit, then subtract one cent. The rounded price is what guideline checks
// see; a price that barely cleared a minimum before rounding can land just
// under it afterwards, and that is accepted behavior here.
func RoundPrice(p money.Money) money.Money {
	rounded := money.FromDecimal(money.ToDecimal(p).Round(0)) - 1
	if rounded < 0 {
		return 0
	}
	return rounded
}

func clampDiscount(d float64) float64 {
	if d < 0 {
		return 0
	}
	if d > 50 {
		return 50
	}
	return d
}

func domesticRecommendation(price money.Money, g economics.Guidelines) string {
	if price >= g.Domestic.FreeThreshold {
		return "FREE"
	}
	return "Standard rates"
}

func (a Advisor) guidelines(ctx context.Context) (economics.Guidelines, error) {
	if a.Source == nil {
		return economics.DefaultGuidelines(), nil
	}
	return a.Source.Guidelines(ctx)
}

func formatPercent(pct float64) string {
	return decimal.NewFromFloat(pct).String()
}

func round1(d decimal.Decimal) float64 {
	f, _ := d.Round(1).Float64()
	return f
}
