package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/store"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	st := New()
	st.SeedProduct(orders.Product{ID: "p1", SKU: "S", Name: "N", Stock: 10})
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		require.NoError(t, uow.UpdateProductStock(ctx, "p1", 3))
		require.NoError(t, uow.AppendInventoryLog(ctx, &orders.InventoryLog{ID: "l1", ProductID: "p1"}))
		require.NoError(t, uow.InsertOrder(ctx, &orders.Order{ID: "o1", OrderNumber: "ORD-X"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := st.FindProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock, "mutasi stok harus di-rollback")
	assert.Empty(t, st.InventoryLogs("p1"))
	_, err = st.FindOrder(ctx, "o1")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestWithinTxCommits(t *testing.T) {
	st := New()
	st.SeedProduct(orders.Product{ID: "p1", SKU: "S", Name: "N", Stock: 10})
	ctx := context.Background()

	err := st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		if err := uow.UpdateProductStock(ctx, "p1", 4); err != nil {
			return err
		}
		return uow.InsertOrder(ctx, &orders.Order{
			ID: "o1", OrderNumber: "ORD-Y", Status: orders.StatusPending,
			TotalAmount: decimal.Zero,
			Items:       []orders.OrderItem{{ID: "i1", OrderID: "o1", ProductID: "p1", Qty: 1}},
		})
	})
	require.NoError(t, err)

	p, _ := st.FindProduct(ctx, "p1")
	assert.Equal(t, 4, p.Stock)
	o, err := st.FindOrder(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
}

func TestInsertOrderRejectsDuplicateNumber(t *testing.T) {
	st := New()
	ctx := context.Background()

	require.NoError(t, st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		return uow.InsertOrder(ctx, &orders.Order{ID: "o1", OrderNumber: "ORD-1"})
	}))
	err := st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		return uow.InsertOrder(ctx, &orders.Order{ID: "o2", OrderNumber: "ORD-1"})
	})
	assert.Error(t, err)
	_, err = st.FindOrder(ctx, "o2")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestUpdateOrderRejectsStaleStatus(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		return uow.InsertOrder(ctx, &orders.Order{ID: "o1", OrderNumber: "ORD-1", Status: orders.StatusPending})
	}))

	// status di store sudah bukan yang dibaca caller -> update tidak boleh kena
	err := st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		return uow.UpdateOrder(ctx, "o1", orders.StatusConfirmed, orders.StatusCancelled, decimal.Zero)
	})
	require.ErrorIs(t, err, orders.ErrStaleOrderStatus)

	o, err := st.FindOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, o.Status)

	require.NoError(t, st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		return uow.UpdateOrder(ctx, "o1", orders.StatusPending, orders.StatusConfirmed, decimal.Zero)
	}))
	o, err = st.FindOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, o.Status)
}

func TestUpdateItemCancelledQtyUnknownItem(t *testing.T) {
	st := New()
	ctx := context.Background()
	err := st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		return uow.UpdateItemCancelledQty(ctx, "nope", 1)
	})
	assert.Error(t, err)
}

func TestGetOrderReturnsCopy(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(uow store.UnitOfWork) error {
		return uow.InsertOrder(ctx, &orders.Order{
			ID: "o1", OrderNumber: "ORD-1",
			Items: []orders.OrderItem{{ID: "i1", OrderID: "o1", Qty: 2}},
		})
	}))

	o1, err := st.FindOrder(ctx, "o1")
	require.NoError(t, err)
	o1.Items[0].CancelledQty = 99

	o2, err := st.FindOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 0, o2.Items[0].CancelledQty, "mutasi caller tidak boleh tembus ke store")
}
