package discount_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/discount"
	"github.com/hpwell/funnel-pricing/internal/money"
	"github.com/hpwell/funnel-pricing/internal/offer"
	"github.com/hpwell/funnel-pricing/internal/points"
)

func line(sku string, qty int, regular, effective money.Money) offer.LineItem {
	return offer.LineItem{
		SKU:           sku,
		Quantity:      qty,
		UnitRegular:   regular,
		UnitEffective: effective,
		LineSubtotal:  regular * money.Money(qty),
		LineSavings:   (regular - effective) * money.Money(qty),
	}
}

func TestComposeNoDiscounts(t *testing.T) {
	c := discount.Composer{Ledger: points.FixedRate{PointsPerDollar: 10}}
	res := c.Compose([]offer.LineItem{line("A", 2, 4000, 4000)}, nil, 0, 0, nil)

	require.EqualValues(t, 8000, res.SumRegular)
	require.EqualValues(t, 8000, res.Net)
	require.Empty(t, res.Fees)
}

func TestComposeBundlePercentDiscount(t *testing.T) {
	c := discount.Composer{}
	lines := []offer.LineItem{
		line("A", 1, 12000, 12000),
		line("B", 1, 8000, 8000),
	}
	res := c.Compose(lines, &offer.DiscountSpec{Kind: offer.Percent, Percent: 20}, 0, 0, nil)

	require.EqualValues(t, 20000, res.SumRegular)
	require.EqualValues(t, 4000, res.ProductSavings)
	require.EqualValues(t, 16000, res.Net)
	require.Len(t, res.Fees, 1)
	require.Equal(t, discount.SavingsLabel, res.Fees[0].Label)
	require.EqualValues(t, -4000, res.Fees[0].Amount)
}

func TestComposeItemSavingsStack(t *testing.T) {
	c := discount.Composer{}
	// Item already marked down 1000, plus 10% offer discount on the
	// effective value.
	lines := []offer.LineItem{line("A", 1, 10000, 9000)}
	res := c.Compose(lines, &offer.DiscountSpec{Kind: offer.Percent, Percent: 10}, 0, 0, nil)

	require.EqualValues(t, 10000, res.SumRegular)
	require.EqualValues(t, 9000, res.SumEffective)
	require.EqualValues(t, 1000+900, res.ProductSavings)
	require.EqualValues(t, 8100, res.Net)
}

func TestComposeGlobalPercentSkipsExcludedLines(t *testing.T) {
	c := discount.Composer{}
	excluded := line("GIFT", 1, 2000, 2000)
	excluded.ExcludeGlobalDiscount = true
	lines := []offer.LineItem{line("A", 1, 10000, 10000), excluded}

	res := c.Compose(lines, nil, 10, 0, nil)

	// 10% of the 10000 included base only.
	require.EqualValues(t, 1000, res.ProductSavings)
	require.EqualValues(t, 11000, res.Net)
}

func TestComposeExplicitTotal(t *testing.T) {
	c := discount.Composer{}
	lines := []offer.LineItem{line("A", 1, 12000, 11000), line("B", 1, 8000, 8000)}

	total := money.Money(15000)
	// Explicit total supersedes discount inputs entirely.
	res := c.Compose(lines, &offer.DiscountSpec{Kind: offer.Percent, Percent: 50}, 25, 0, &total)

	require.EqualValues(t, 5000, res.ProductSavings)
	require.EqualValues(t, 15000, res.Net)
	require.Len(t, res.Fees, 1)
	require.Equal(t, discount.SavingsLabel, res.Fees[0].Label)
	require.EqualValues(t, -5000, res.Fees[0].Amount)
}

func TestComposeExplicitTotalAboveListValue(t *testing.T) {
	c := discount.Composer{}
	lines := []offer.LineItem{line("A", 1, 10000, 10000)}

	total := money.Money(11500)
	res := c.Compose(lines, nil, 0, 0, &total)

	require.EqualValues(t, 0, res.ProductSavings)
	require.EqualValues(t, 10000+1500, res.Net)
	require.Len(t, res.Fees, 1)
	require.Equal(t, discount.AdjustmentLabel, res.Fees[0].Label)
	require.EqualValues(t, 1500, res.Fees[0].Amount)
}

func TestComposeExplicitTotalZeroIsFree(t *testing.T) {
	c := discount.Composer{}
	lines := []offer.LineItem{line("A", 1, 10000, 10000)}

	// Zero is a genuine configured price: the full list value posts as savings.
	total := money.Money(0)
	res := c.Compose(lines, nil, 0, 0, &total)

	require.EqualValues(t, 10000, res.ProductSavings)
	require.EqualValues(t, 0, res.Net)
	require.Len(t, res.Fees, 1)
	require.Equal(t, discount.SavingsLabel, res.Fees[0].Label)
	require.EqualValues(t, -10000, res.Fees[0].Amount)
}

func TestComposeNoiseFloorSuppressesTinySavings(t *testing.T) {
	c := discount.Composer{}
	// One cent of savings never becomes a fee.
	res := c.Compose([]offer.LineItem{line("A", 1, 1000, 999)}, nil, 0, 0, nil)
	require.Empty(t, res.Fees)
	require.EqualValues(t, 0, res.ProductSavings)
	require.EqualValues(t, 1000, res.Net)
}

func TestComposePointsClampedToNet(t *testing.T) {
	c := discount.Composer{Ledger: points.FixedRate{PointsPerDollar: 10}}
	// 500 points are worth $50 but only $30 remains after discounts.
	lines := []offer.LineItem{line("A", 1, 10000, 3000)}
	res := c.Compose(lines, nil, 0, 500, nil)

	require.EqualValues(t, 7000, res.ProductSavings)
	require.EqualValues(t, 3000, res.PointsDiscount)
	require.EqualValues(t, 0, res.Net)
	require.Len(t, res.Fees, 2)
	require.Equal(t, discount.PointsLabel, res.Fees[1].Label)
	require.EqualValues(t, -3000, res.Fees[1].Amount)
}

func TestComposePointsPartialRedemption(t *testing.T) {
	c := discount.Composer{Ledger: points.FixedRate{PointsPerDollar: 10}}
	res := c.Compose([]offer.LineItem{line("A", 1, 10000, 10000)}, nil, 0, 250, nil)

	require.EqualValues(t, 2500, res.PointsDiscount)
	require.EqualValues(t, 7500, res.Net)
}

func TestComposeSavingsNeverExceedRegular(t *testing.T) {
	c := discount.Composer{}
	lines := []offer.LineItem{line("A", 1, 5000, 0)}
	res := c.Compose(lines, &offer.DiscountSpec{Kind: offer.Fixed, Amount: 99999}, 100, 0, nil)

	require.EqualValues(t, 5000, res.ProductSavings)
	require.EqualValues(t, 0, res.Net)
}
