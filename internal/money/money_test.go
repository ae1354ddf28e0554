package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/money"
)

func TestFromDecimalRoundsHalfAwayFromZero(t *testing.T) {
	require.EqualValues(t, 100, money.FromDecimal(decimal.NewFromFloat(1.0)))
	require.EqualValues(t, 101, money.FromDecimal(decimal.NewFromFloat(1.005)))
	require.EqualValues(t, -101, money.FromDecimal(decimal.NewFromFloat(-1.005)))
	require.EqualValues(t, 123, money.FromDecimal(decimal.NewFromFloat(1.234)))
}

func TestRoundTrip(t *testing.T) {
	for _, m := range []money.Money{0, 1, 99, 100, 599, 8599, -4000} {
		require.EqualValues(t, m, money.FromDecimal(money.ToDecimal(m)))
	}
}

func TestPercentOf(t *testing.T) {
	require.EqualValues(t, 4000, money.PercentOf(20000, 20))
	require.EqualValues(t, 0, money.PercentOf(20000, 0))
	require.EqualValues(t, 0, money.PercentOf(0, 50))
	// 33% of $0.50 is 16.5 cents, rounds up.
	require.EqualValues(t, 17, money.PercentOf(50, 33))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "5.99", money.Format(599))
	require.Equal(t, "0.00", money.Format(0))
	require.Equal(t, "$85.99", money.FormatUSD(8599))
	require.Equal(t, "-$40.00", money.FormatUSD(-4000))
}
