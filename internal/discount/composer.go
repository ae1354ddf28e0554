// Package discount turns resolved order lines plus promotional inputs into
// the ordered fee sequence the order engine consumes. Product lines always
// post at regular price; every reduction arrives as a negative fee so the
// engine's records show full list value alongside what was given away.
package discount

import (
	"github.com/hpwell/funnel-pricing/internal/money"
	"github.com/hpwell/funnel-pricing/internal/offer"
	"github.com/hpwell/funnel-pricing/internal/ordersub"
	"github.com/hpwell/funnel-pricing/internal/points"
)

// Fee labels are customer-visible on receipts.
const (
	SavingsLabel    = "Offer savings"
	AdjustmentLabel = "Package adjustment"
	PointsLabel     = "Points redemption"
)

// noiseFloor is the smallest absolute amount worth posting as a fee.
// Sub-cent artifacts from percentage rounding stay off the order.
const noiseFloor = money.Money(1)

// Result is the composed economic summary of an order.
type Result struct {
	// SumRegular is the full list value of all lines.
	SumRegular money.Money
	// SumEffective is the value after per-item promotional pricing.
	SumEffective money.Money
	// ProductSavings is everything taken off product value: item savings,
	// offer-level discount and the order-wide percentage combined.
	ProductSavings money.Money
	// PointsDiscount is the applied loyalty redemption, clamped so it never
	// exceeds what is left to pay on products.
	PointsDiscount money.Money
	// Net is the product total after all reductions.
	Net money.Money
	// Fees is the ordered adjustment sequence to post to the order engine.
	Fees []ordersub.Fee
}

// Composer builds fee sequences from resolved lines.
type Composer struct {
	Ledger points.Ledger
}

// Compose works through the fixed reduction order: per-item savings first,
// then either the explicit offer total or the offer-level discount plus the
// order-wide percentage, and finally the points redemption against whatever
// remains. An explicit total supersedes the discount inputs entirely.
func (c Composer) Compose(lines []offer.LineItem, offerDiscount *offer.DiscountSpec, globalPercent float64, pointsToRedeem int, explicitTotal *money.Money) Result {
	var res Result
	var includedEffective money.Money
	for _, line := range lines {
		res.SumRegular += line.LineSubtotal
		lineEffective := line.UnitEffective * money.Money(line.Quantity)
		res.SumEffective += lineEffective
		if !line.ExcludeGlobalDiscount {
			includedEffective += lineEffective
		}
	}

	if explicitTotal != nil {
		res.composeExplicit(*explicitTotal)
	} else {
		res.composeDiscounts(offerDiscount, globalPercent, includedEffective)
	}

	res.Net = res.SumRegular - res.ProductSavings
	if res.Net < 0 {
		res.Net = 0
	}
	c.applyPoints(&res, pointsToRedeem)
	return res
}

// composeExplicit pins the product total to the configured price. The gap to
// list value posts as one adjustment in whichever direction it runs.
func (res *Result) composeExplicit(total money.Money) {
	if total < 0 {
		total = 0
	}
	diff := res.SumRegular - total
	switch {
	case diff > noiseFloor:
		res.ProductSavings = diff
		res.Fees = append(res.Fees, ordersub.Fee{Label: SavingsLabel, Amount: -diff})
	case diff < -noiseFloor:
		// Priced above list value, e.g. a kit with assembly included.
		res.Fees = append(res.Fees, ordersub.Fee{Label: AdjustmentLabel, Amount: -diff})
	}
}

func (res *Result) composeDiscounts(offerDiscount *offer.DiscountSpec, globalPercent float64, includedEffective money.Money) {
	savings := res.SumRegular - res.SumEffective

	remaining := res.SumEffective
	if offerDiscount != nil {
		offerSavings := offerDiscount.SavingsOn(remaining)
		savings += offerSavings
		remaining -= offerSavings
		if includedEffective > remaining {
			includedEffective = remaining
		}
	}
	if globalPercent > 0 && includedEffective > 0 {
		savings += money.PercentOf(includedEffective, globalPercent)
	}

	if savings > res.SumRegular {
		savings = res.SumRegular
	}
	if savings > noiseFloor {
		res.ProductSavings = savings
		res.Fees = append(res.Fees, ordersub.Fee{Label: SavingsLabel, Amount: -savings})
	}
}

func (c Composer) applyPoints(res *Result, pointsToRedeem int) {
	if pointsToRedeem <= 0 || c.Ledger == nil {
		return
	}
	value := c.Ledger.PointsToMoney(pointsToRedeem)
	if value > res.Net {
		value = res.Net
	}
	if value <= 0 {
		return
	}
	res.PointsDiscount = value
	res.Net -= value
	res.Fees = append(res.Fees, ordersub.Fee{Label: PointsLabel, Amount: -value})
}
