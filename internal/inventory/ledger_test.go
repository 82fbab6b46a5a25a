package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-inventory.git/internal/memory"
	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/store"
)

func seeded(stock int) *memory.Store {
	st := memory.New()
	st.SeedProduct(orders.Product{ID: "p1", SKU: "SKU-1", Name: "Widget", Stock: stock, Price: decimal.New(5000, -2)})
	return st
}

func adjust(t *testing.T, st *memory.Store, delta int, reason orders.StockReason) (int, error) {
	t.Helper()
	var newStock int
	err := st.WithinTx(context.Background(), func(uow store.UnitOfWork) error {
		var err error
		newStock, err = Ledger{}.AdjustStock(context.Background(), uow, "p1", delta, reason)
		return err
	})
	return newStock, err
}

func TestAdjustStockChangeTypeDerivation(t *testing.T) {
	cases := []struct {
		delta  int
		reason orders.StockReason
		want   orders.ChangeType
	}{
		{5, orders.ReasonInitialStock, orders.ChangeAddition},
		{5, orders.ReasonManualUpdate, orders.ChangeAddition},
		{3, orders.ReasonOrderCancelled, orders.ChangeRestore},
		{-3, orders.ReasonOrderConfirmed, orders.ChangeDeduction},
		{-3, orders.ReasonStockCorrection, orders.ChangeDeduction},
	}
	for _, c := range cases {
		st := seeded(10)
		_, err := adjust(t, st, c.delta, c.reason)
		require.NoError(t, err)

		logs := st.InventoryLogs("p1")
		require.Len(t, logs, 1, "exactly one log row per call")
		assert.Equal(t, c.want, logs[0].ChangeType, "delta=%d reason=%s", c.delta, c.reason)
		assert.Equal(t, c.reason, logs[0].Reason)
		assert.Greater(t, logs[0].QtyChange, 0, "magnitude always positive")
	}
}

func TestAdjustStockAppliesDelta(t *testing.T) {
	st := seeded(10)

	n, err := adjust(t, st, -4, orders.ReasonOrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = adjust(t, st, 4, orders.ReasonOrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	p, err := st.FindProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
	assert.Len(t, st.InventoryLogs("p1"), 2)
}

func TestAdjustStockRejectsOverDeduction(t *testing.T) {
	st := seeded(3)

	_, err := adjust(t, st, -4, orders.ReasonOrderConfirmed)
	var ise *orders.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "p1", ise.ProductID)
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, 3, ise.Available)

	// tidak ada mutasi: stok tetap, tanpa log
	p, err := st.FindProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.Empty(t, st.InventoryLogs("p1"))
}

func TestAdjustStockFloorExactlyZero(t *testing.T) {
	st := seeded(3)
	n, err := adjust(t, st, -3, orders.ReasonOrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAdjustStockUnknownProduct(t *testing.T) {
	st := memory.New()
	err := st.WithinTx(context.Background(), func(uow store.UnitOfWork) error {
		_, err := Ledger{}.AdjustStock(context.Background(), uow, "nope", 1, orders.ReasonManualUpdate)
		return err
	})
	assert.ErrorIs(t, err, orders.ErrProductNotFound)
}
