package points

import (
	"github.com/shopspring/decimal"

	"github.com/hpwell/funnel-pricing/internal/money"
)

// DefaultPointsPerDollar is the conversion rate used when none is configured.
const DefaultPointsPerDollar = 10

// Ledger converts loyalty points to and from monetary value.
type Ledger interface {
	PointsToMoney(points int) money.Money
	MoneyToPoints(amount money.Money) int
}

// FixedRate is a Ledger with a constant points-per-dollar rate.
type FixedRate struct {
	PointsPerDollar int
}

func (r FixedRate) rate() decimal.Decimal {
	if r.PointsPerDollar <= 0 {
		return decimal.NewFromInt(DefaultPointsPerDollar)
	}
	return decimal.NewFromInt(int64(r.PointsPerDollar))
}

// PointsToMoney converts a points balance into minor units, rounded to the cent.
func (r FixedRate) PointsToMoney(points int) money.Money {
	if points <= 0 {
		return 0
	}
	return money.FromDecimal(decimal.NewFromInt(int64(points)).Div(r.rate()))
}

// MoneyToPoints converts a monetary amount into whole points.
func (r FixedRate) MoneyToPoints(amount money.Money) int {
	if amount <= 0 {
		return 0
	}
	return int(money.ToDecimal(amount).Mul(r.rate()).Round(0).IntPart())
}

var _ Ledger = FixedRate{}
