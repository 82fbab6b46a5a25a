package orders

import "github.com/shopspring/decimal"

// Derived attributes dihitung murni dari data, tidak pernah disimpan,
// supaya tidak ada field cache yang basi.

func (it OrderItem) ActiveQty() int {
	return it.Qty - it.CancelledQty
}

func (it OrderItem) IsFullyCancelled() bool {
	return it.CancelledQty >= it.Qty
}

// Subtotal = active qty * unit price snapshot.
func (it OrderItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.ActiveQty())))
}

// ActiveTotal menjumlahkan subtotal semua item non-cancelled.
// Invariant: TotalAmount == ActiveTotal() setelah setiap operasi cancel.
func (o Order) ActiveTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (o Order) IsFullyCancelled() bool {
	if o.Status == StatusCancelled {
		return true
	}
	if len(o.Items) == 0 {
		return false
	}
	for _, it := range o.Items {
		if !it.IsFullyCancelled() {
			return false
		}
	}
	return true
}

func (o Order) IsPartiallyCancelled() bool {
	if o.Status == StatusPartiallyCancelled {
		return true
	}
	if o.IsFullyCancelled() {
		return false
	}
	for _, it := range o.Items {
		if it.CancelledQty > 0 {
			return true
		}
	}
	return false
}

func (o Order) Item(itemID string) (OrderItem, bool) {
	for _, it := range o.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return OrderItem{}, false
}
