// Package economics evaluates proposed offer pricing against configurable
// profitability guidelines: minimum margins, payment processing cost and the
// shipping the seller absorbs domestically or via international subsidy tiers.
package economics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hpwell/funnel-pricing/internal/money"
)

// ApplyRule selects how the percent and dollar profit minimums combine.
type ApplyRule string

const (
	// RuleHigher requires both minimums (the stricter outcome wins).
	RuleHigher ApplyRule = "higher"
	// RuleLower requires either minimum.
	RuleLower ApplyRule = "lower"
	// RulePercentOnly checks only the margin percentage.
	RulePercentOnly ApplyRule = "percent_only"
	// RuleDollarsOnly checks only the dollar profit.
	RuleDollarsOnly ApplyRule = "dollars_only"
)

// Scenario is the shipping destination class for an evaluation.
type Scenario string

const (
	Domestic      Scenario = "domestic"
	International Scenario = "international"
)

// SubsidyTier maps a gross-profit floor to the shipping percentage the
// seller absorbs. Tiers are matched first-hit in the order given, so they
// are conventionally listed in descending MinProfit order.
type SubsidyTier struct {
	MinProfit      money.Money `json:"minProfit"`
	SubsidyPercent float64     `json:"subsidyPercent"`
}

// DomesticShipping models the seller's domestic shipping cost structure.
type DomesticShipping struct {
	// FreeThreshold is the order value at which the seller absorbs shipping.
	FreeThreshold money.Money `json:"freeThreshold"`
	BaseCost      money.Money `json:"baseCost"`
	PerItemCost   money.Money `json:"perItemCost"`
	// WeightRate is the cost per ounce.
	WeightRate money.Money `json:"weightRatePerOz"`
}

// InternationalShipping models the international cost structure plus the
// profit-indexed subsidy schedule.
type InternationalShipping struct {
	BaseCost     money.Money   `json:"baseCost"`
	PerItemCost  money.Money   `json:"perItemCost"`
	WeightRate   money.Money   `json:"weightRatePerOz"`
	SubsidyTiers []SubsidyTier `json:"subsidyTiers"`
}

// PricingStrategy bounds how discounts are presented and suggested.
type PricingStrategy struct {
	// MinDiscountDisplay is the smallest discount worth advertising.
	MinDiscountDisplay float64 `json:"minDiscountDisplay"`
	// MaxDiscountPercent caps both warnings and price suggestions.
	MaxDiscountPercent float64 `json:"maxDiscountPercent"`
}

// Guidelines is the full profitability rule set.
type Guidelines struct {
	MinProfitPercent float64               `json:"minProfitPercent"`
	MinProfitDollars money.Money           `json:"minProfitDollars"`
	ApplyRule        ApplyRule             `json:"applyRule"`
	Domestic         DomesticShipping      `json:"domesticShipping"`
	International    InternationalShipping `json:"internationalShipping"`
	Strategy         PricingStrategy       `json:"pricingStrategy"`
	// ProcessingRate is the payment processor's cut as a fraction, e.g.
	// 0.033 for 3.3%.
	ProcessingRate float64 `json:"paymentProcessingRate"`
}

// DefaultGuidelines returns the seed configuration used until an operator
// saves their own.
func DefaultGuidelines() Guidelines {
	return Guidelines{
		MinProfitPercent: 10,
		MinProfitDollars: 5000,
		ApplyRule:        RuleHigher,
		Domestic: DomesticShipping{
			FreeThreshold: 10000,
			BaseCost:      599,
			PerItemCost:   50,
			WeightRate:    15,
		},
		International: InternationalShipping{
			BaseCost:    1599,
			PerItemCost: 200,
			WeightRate:  35,
			SubsidyTiers: []SubsidyTier{
				{MinProfit: 10000, SubsidyPercent: 50},
				{MinProfit: 7500, SubsidyPercent: 35},
				{MinProfit: 5000, SubsidyPercent: 20},
				{MinProfit: 0, SubsidyPercent: 0},
			},
		},
		Strategy: PricingStrategy{
			MinDiscountDisplay: 10,
			MaxDiscountPercent: 40,
		},
		ProcessingRate: 0.033,
	}
}

// Validate fails fast on configuration gaps. A missing or malformed rule set
// must never silently degrade into "no profit required".
func (g Guidelines) Validate() error {
	switch g.ApplyRule {
	case RuleHigher, RuleLower, RulePercentOnly, RuleDollarsOnly:
	case "":
		return fmt.Errorf("economics: applyRule is required")
	default:
		return fmt.Errorf("economics: unknown applyRule %q", g.ApplyRule)
	}
	if g.MinProfitPercent < 0 || g.MinProfitPercent > 100 {
		return fmt.Errorf("economics: minProfitPercent %v out of range [0,100]", g.MinProfitPercent)
	}
	if g.MinProfitDollars < 0 {
		return fmt.Errorf("economics: negative minProfitDollars")
	}
	if g.ProcessingRate < 0 || g.ProcessingRate >= 1 {
		return fmt.Errorf("economics: paymentProcessingRate %v out of range [0,1)", g.ProcessingRate)
	}
	if g.Domestic.BaseCost < 0 || g.Domestic.PerItemCost < 0 || g.Domestic.WeightRate < 0 || g.Domestic.FreeThreshold < 0 {
		return fmt.Errorf("economics: negative domestic shipping cost component")
	}
	if g.International.BaseCost < 0 || g.International.PerItemCost < 0 || g.International.WeightRate < 0 {
		return fmt.Errorf("economics: negative international shipping cost component")
	}
	for i, tier := range g.International.SubsidyTiers {
		if tier.SubsidyPercent < 0 || tier.SubsidyPercent > 100 {
			return fmt.Errorf("economics: subsidy tier %d percent %v out of range [0,100]", i, tier.SubsidyPercent)
		}
	}
	return nil
}

// SubsidyPercent returns the first tier whose profit floor the given gross
// profit meets or exceeds. Tier order is the caller's contract; no sorting
// happens here.
func (g Guidelines) SubsidyPercent(profit money.Money) float64 {
	for _, tier := range g.International.SubsidyTiers {
		if profit >= tier.MinProfit {
			return tier.SubsidyPercent
		}
	}
	return 0
}

// SubsidyRecommendation renders the operator-facing subsidy summary.
func (g Guidelines) SubsidyRecommendation(profit money.Money) string {
	pct := g.SubsidyPercent(profit)
	if pct == 0 {
		return "No subsidy - customer pays full shipping"
	}
	return fmt.Sprintf("%s%% subsidized", formatPercent(pct))
}

// ShippingCost estimates what the seller pays to ship an order of the given
// size and weight.
func (g Guidelines) ShippingCost(scenario Scenario, itemCount int, weightOz float64) money.Money {
	var base, perItem, perOz money.Money
	switch scenario {
	case International:
		base, perItem, perOz = g.International.BaseCost, g.International.PerItemCost, g.International.WeightRate
	default:
		base, perItem, perOz = g.Domestic.BaseCost, g.Domestic.PerItemCost, g.Domestic.WeightRate
	}
	if itemCount < 0 {
		itemCount = 0
	}
	weightCost := money.FromDecimal(
		decimal.NewFromFloat(weightOz).Mul(money.ToDecimal(perOz)),
	)
	return base + perItem*money.Money(itemCount) + weightCost
}

// Passes applies the configured combinator. Unknown rules behave as
// RuleHigher so a typo can only make the check stricter.
func (g Guidelines) Passes(meetsPercent, meetsDollars bool) bool {
	switch g.ApplyRule {
	case RuleLower:
		return meetsPercent || meetsDollars
	case RulePercentOnly:
		return meetsPercent
	case RuleDollarsOnly:
		return meetsDollars
	default:
		return meetsPercent && meetsDollars
	}
}

// formatPercent prints a percentage without trailing zeros: 35 -> "35",
// 12.5 -> "12.5".
func formatPercent(pct float64) string {
	return decimal.NewFromFloat(pct).String()
}
