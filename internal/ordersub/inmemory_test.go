package ordersub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/ordersub"
)

func TestInMemoryDraftLifecycle(t *testing.T) {
	engine := ordersub.NewInMemory(0)
	ctx := context.Background()

	h, err := engine.CreateDraft(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, engine.DraftCount())

	require.NoError(t, engine.AddLineItem(ctx, h, ordersub.LineInput{SKU: "SERUM-30", Quantity: 2, UnitPrice: 4000}))
	require.NoError(t, engine.AddShipping(ctx, h, ordersub.ShippingSelection{ServiceName: "Ground", Amount: 599}))

	totals, err := engine.ComputeTotals(ctx, h)
	require.NoError(t, err)
	require.EqualValues(t, 8000, totals.ItemsTotal)
	require.EqualValues(t, 599, totals.ShippingTotal)
	require.EqualValues(t, 8599, totals.GrandTotal)

	require.NoError(t, engine.Discard(ctx, h))
	require.Zero(t, engine.DraftCount())
	require.ErrorIs(t, engine.Discard(ctx, h), ordersub.ErrUnknownDraft)
}

func TestInMemoryRecomputesIdempotently(t *testing.T) {
	engine := ordersub.NewInMemory(0)
	ctx := context.Background()

	h, err := engine.CreateDraft(ctx)
	require.NoError(t, err)
	require.NoError(t, engine.AddLineItem(ctx, h, ordersub.LineInput{SKU: "MASK-5", Quantity: 1, UnitPrice: 2500}))

	first, err := engine.ComputeTotals(ctx, h)
	require.NoError(t, err)
	second, err := engine.ComputeTotals(ctx, h)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestInMemoryTaxOnDiscountedBase(t *testing.T) {
	engine := ordersub.NewInMemory(1000) // 10%
	ctx := context.Background()

	h, err := engine.CreateDraft(ctx)
	require.NoError(t, err)
	require.NoError(t, engine.AddLineItem(ctx, h, ordersub.LineInput{SKU: "SERUM-30", Quantity: 5, UnitPrice: 4000}))
	require.NoError(t, engine.AddFee(ctx, h, ordersub.Fee{Label: "Offer savings", Amount: -4000}))

	totals, err := engine.ComputeTotals(ctx, h)
	require.NoError(t, err)
	require.EqualValues(t, 20000, totals.ItemsTotal)
	require.EqualValues(t, -4000, totals.FeesTotal)
	require.EqualValues(t, 1600, totals.TaxTotal, "tax applies to the post-discount base")
	require.EqualValues(t, 17600, totals.GrandTotal)
}

func TestInMemoryNegativeBaseFloorsAtZero(t *testing.T) {
	engine := ordersub.NewInMemory(1000)
	ctx := context.Background()

	h, err := engine.CreateDraft(ctx)
	require.NoError(t, err)
	require.NoError(t, engine.AddLineItem(ctx, h, ordersub.LineInput{SKU: "MASK-5", Quantity: 1, UnitPrice: 2500}))
	require.NoError(t, engine.AddFee(ctx, h, ordersub.Fee{Label: "Offer savings", Amount: -2500}))
	require.NoError(t, engine.AddFee(ctx, h, ordersub.Fee{Label: "Points redemption", Amount: -100}))

	totals, err := engine.ComputeTotals(ctx, h)
	require.NoError(t, err)
	require.EqualValues(t, 0, totals.TaxTotal)
	require.EqualValues(t, 0, totals.GrandTotal)
}

func TestInMemoryUnknownHandle(t *testing.T) {
	engine := ordersub.NewInMemory(0)
	ctx := context.Background()

	err := engine.AddLineItem(ctx, "missing", ordersub.LineInput{SKU: "X", Quantity: 1, UnitPrice: 100})
	require.ErrorIs(t, err, ordersub.ErrUnknownDraft)
	_, err = engine.ComputeTotals(ctx, "missing")
	require.ErrorIs(t, err, ordersub.ErrUnknownDraft)
}
