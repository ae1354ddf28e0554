package kit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/economics"
	"github.com/hpwell/funnel-pricing/internal/kit"
	"github.com/hpwell/funnel-pricing/internal/offer"
)

func TestRoundPrice(t *testing.T) {
	// Round to the whole dollar, then knock off a cent.
	require.EqualValues(t, 23999, kit.RoundPrice(24000))
	require.EqualValues(t, 23999, kit.RoundPrice(24049))
	require.EqualValues(t, 24099, kit.RoundPrice(24050))
	require.EqualValues(t, 9999, kit.RoundPrice(10012))
	require.EqualValues(t, 0, kit.RoundPrice(0))
	require.EqualValues(t, 0, kit.RoundPrice(30))
}

func TestBuildOptionsBalancedScenario(t *testing.T) {
	a := kit.Advisor{Source: economics.StaticGuidelines(economics.DefaultGuidelines())}

	// Target 20% off $300 retail with $150 cost.
	options, err := a.BuildOptions(context.Background(), 30000, 15000, 20, kit.Constraints{})
	require.NoError(t, err)
	require.Len(t, options, 4)

	require.Equal(t, "aggressive", options[0].ID)
	require.Equal(t, "balanced", options[1].ID)
	require.Equal(t, "conservative", options[2].ID)
	require.Equal(t, "minimum_viable", options[3].ID)

	balanced := options[1]
	require.EqualValues(t, 20, balanced.DiscountPercent)
	require.EqualValues(t, 23999, balanced.Price)
	require.EqualValues(t, 8999, balanced.Profit)
	require.InDelta(t, 37.5, balanced.ProfitMarginPercent, 0.001)
	require.True(t, balanced.MeetsGuidelines)
	require.True(t, balanced.Recommended)
	require.Equal(t, "Best balance of value proposition and margin", balanced.RecommendationReason)
	require.Equal(t, "20% OFF", balanced.Badge)
	require.Equal(t, "FREE", balanced.Shipping.Domestic)
	require.Empty(t, balanced.Warning)

	aggressive := options[0]
	require.EqualValues(t, 25, aggressive.DiscountPercent)
	require.EqualValues(t, 22499, aggressive.Price)
	require.False(t, aggressive.Recommended)
}

func TestBuildOptionsClampsDiscount(t *testing.T) {
	a := kit.Advisor{Source: economics.StaticGuidelines(economics.DefaultGuidelines())}

	options, err := a.BuildOptions(context.Background(), 10000, 2000, 45, kit.Constraints{})
	require.NoError(t, err)
	// aggressive 45+5 and minimum_viable 45+10 both cap at 50.
	require.EqualValues(t, 50, options[0].DiscountPercent)
	require.EqualValues(t, 50, options[3].DiscountPercent)

	options, err = a.BuildOptions(context.Background(), 10000, 2000, 3, kit.Constraints{})
	require.NoError(t, err)
	// conservative 3-5 floors at 0.
	require.EqualValues(t, 0, options[2].DiscountPercent)
	require.Empty(t, options[2].Badge, "discounts under the display floor carry no badge")
}

func TestBuildOptionsWarnings(t *testing.T) {
	a := kit.Advisor{Source: economics.StaticGuidelines(economics.DefaultGuidelines())}

	// $100 retail, $90 cost: every level fails on margin or dollars.
	options, err := a.BuildOptions(context.Background(), 10000, 9000, 20, kit.Constraints{})
	require.NoError(t, err)
	for _, opt := range options {
		require.False(t, opt.MeetsGuidelines, opt.ID)
		require.NotEmpty(t, opt.Warning, opt.ID)
	}
	// Balanced: price 79.99, profit -10.01, margin negative.
	require.Contains(t, options[1].Warning, "below minimum")
}

func TestBuildOptionsConstraintOverrides(t *testing.T) {
	a := kit.Advisor{Source: economics.StaticGuidelines(economics.DefaultGuidelines())}

	// With a $10 floor instead of $50, a small kit passes.
	options, err := a.BuildOptions(context.Background(), 5000, 1000, 10, kit.Constraints{
		MinProfitDollars: 1000,
	})
	require.NoError(t, err)
	balanced := options[1]
	require.EqualValues(t, 4499, balanced.Price)
	require.EqualValues(t, 3499, balanced.Profit)
	require.True(t, balanced.MeetsGuidelines)
}

func TestDecisionPointFor(t *testing.T) {
	options := []kit.PricingOption{
		{ID: "aggressive", MeetsGuidelines: true},
		{ID: "balanced", MeetsGuidelines: true, Recommended: true},
	}
	dp := kit.DecisionPointFor("30-Day Reset Kit", options)
	require.Equal(t, "pricing_strategy", dp.DecisionPoint)
	require.Equal(t, "Which pricing strategy for the 30-Day Reset Kit?", dp.Question)
	require.Equal(t, "balanced", dp.Recommendation)
	require.True(t, dp.AllMeetGuidelines)
	require.Contains(t, dp.Context, "All options meet minimum guidelines")

	options[0].MeetsGuidelines = false
	dp = kit.DecisionPointFor("30-Day Reset Kit", options)
	require.False(t, dp.AllMeetGuidelines)
	require.Equal(t, "Some options do not meet profit guidelines.", dp.Context)
}

func TestSuggestedOffer(t *testing.T) {
	lines := []offer.LineItem{
		{SKU: "SERUM-30", Quantity: 2},
		{SKU: "MASK-5", Quantity: 1},
	}
	options := []kit.PricingOption{
		{ID: "aggressive", DiscountPercent: 25, Price: 22499},
		{ID: "balanced", DiscountPercent: 20, Price: 23999, Badge: "20% OFF"},
	}

	o := kit.SuggestedOffer("30-Day Reset Kit", lines, options)
	require.NotNil(t, o)
	require.Equal(t, offer.FixedBundle, o.Type)
	require.Equal(t, "30-Day Reset Kit", o.Name)
	require.True(t, o.Featured)
	require.Equal(t, "20% OFF", o.Badge)
	require.Len(t, o.Items, 2)
	require.Equal(t, "SERUM-30", o.Items[0].SKU)
	require.Equal(t, 2, o.Items[0].Quantity)
	require.NotNil(t, o.ExplicitPrice)
	require.EqualValues(t, 23999, *o.ExplicitPrice)
	require.NotNil(t, o.Discount)
	require.EqualValues(t, 20, o.Discount.Percent)

	require.Nil(t, kit.SuggestedOffer("empty", nil, nil))
}
