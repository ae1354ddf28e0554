package points_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/money"
	"github.com/hpwell/funnel-pricing/internal/points"
)

func TestPointsToMoney(t *testing.T) {
	ledger := points.FixedRate{PointsPerDollar: 10}
	require.EqualValues(t, 5000, ledger.PointsToMoney(500))
	require.EqualValues(t, 10, ledger.PointsToMoney(1))
	require.EqualValues(t, 0, ledger.PointsToMoney(0))
	require.EqualValues(t, 0, ledger.PointsToMoney(-5))
}

func TestMoneyToPoints(t *testing.T) {
	ledger := points.FixedRate{PointsPerDollar: 10}
	require.Equal(t, 500, ledger.MoneyToPoints(5000))
	require.Equal(t, 0, ledger.MoneyToPoints(money.Money(-100)))
}

func TestDefaultRate(t *testing.T) {
	// Zero or negative rates fall back to the default.
	ledger := points.FixedRate{}
	require.EqualValues(t, 100, ledger.PointsToMoney(10))

	ledger = points.FixedRate{PointsPerDollar: -3}
	require.EqualValues(t, 100, ledger.PointsToMoney(10))
}

func TestNonDefaultRate(t *testing.T) {
	ledger := points.FixedRate{PointsPerDollar: 20}
	require.EqualValues(t, 2500, ledger.PointsToMoney(500))
	require.Equal(t, 500, ledger.MoneyToPoints(2500))
}
