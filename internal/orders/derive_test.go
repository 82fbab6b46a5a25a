package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestOrderItemDerived(t *testing.T) {
	it := OrderItem{Qty: 5, CancelledQty: 2, UnitPrice: dec("50.00")}

	assert.Equal(t, 3, it.ActiveQty())
	assert.False(t, it.IsFullyCancelled())
	assert.True(t, it.Subtotal().Equal(dec("150.00")))

	it.CancelledQty = 5
	assert.Equal(t, 0, it.ActiveQty())
	assert.True(t, it.IsFullyCancelled())
	assert.True(t, it.Subtotal().IsZero())
}

func TestOrderActiveTotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Qty: 2, CancelledQty: 1, UnitPrice: dec("50.00")},
		{Qty: 2, CancelledQty: 0, UnitPrice: dec("25.00")},
	}}
	require.True(t, o.ActiveTotal().Equal(dec("100.00")))
}

func TestOrderCancellationPredicates(t *testing.T) {
	o := Order{Status: StatusConfirmed, Items: []OrderItem{
		{ID: "a", Qty: 2, UnitPrice: dec("10.00")},
		{ID: "b", Qty: 1, UnitPrice: dec("10.00")},
	}}
	assert.False(t, o.IsFullyCancelled())
	assert.False(t, o.IsPartiallyCancelled())

	o.Items[0].CancelledQty = 1
	assert.False(t, o.IsFullyCancelled())
	assert.True(t, o.IsPartiallyCancelled())

	o.Items[0].CancelledQty = 2
	o.Items[1].CancelledQty = 1
	assert.True(t, o.IsFullyCancelled())
	assert.False(t, o.IsPartiallyCancelled())

	// status cancelled menang walau items kosong
	assert.True(t, Order{Status: StatusCancelled}.IsFullyCancelled())
	// tanpa item, belum bisa disebut fully cancelled
	assert.False(t, Order{Status: StatusPending}.IsFullyCancelled())
}

func TestOrderItemLookup(t *testing.T) {
	o := Order{Items: []OrderItem{{ID: "x"}, {ID: "y"}}}
	it, ok := o.Item("y")
	require.True(t, ok)
	assert.Equal(t, "y", it.ID)
	_, ok = o.Item("z")
	assert.False(t, ok)
}
