// Package inventory: ledger stok product. Satu-satunya jalur mutasi
// stock_quantity; setiap perubahan menghasilkan tepat satu inventory log.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/store"
)

type Ledger struct{}

// AdjustStock: lock product (FOR UPDATE) -> validasi floor nol -> mutasi ->
// catat satu log row. Harus dipanggil di dalam unit of work milik operasi
// lifecycle; lock ikut dilepas saat tx commit/rollback.
//
// delta < 0 dan |delta| > stok sekarang -> InsufficientStockError, tanpa
// mutasi apa pun. Stok tidak pernah di-clamp ke nol.
func (Ledger) AdjustStock(ctx context.Context, uow store.UnitOfWork, productID string, delta int, reason orders.StockReason) (int, error) {
	p, err := uow.LockProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	if delta < 0 && -delta > p.Stock {
		return 0, &orders.InsufficientStockError{
			ProductID: productID,
			Requested: -delta,
			Available: p.Stock,
		}
	}

	newStock := p.Stock + delta
	if err := uow.UpdateProductStock(ctx, productID, newStock); err != nil {
		return 0, err
	}
	if err := uow.AppendInventoryLog(ctx, &orders.InventoryLog{
		ID:         uuid.NewString(),
		ProductID:  productID,
		ChangeType: deriveChangeType(delta, reason),
		QtyChange:  magnitude(delta),
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return 0, err
	}
	return newStock, nil
}

// positif + order_cancelled -> restore (pengembalian stok hasil cancel);
// positif lainnya -> addition; negatif -> deduction.
func deriveChangeType(delta int, reason orders.StockReason) orders.ChangeType {
	switch {
	case delta >= 0 && reason == orders.ReasonOrderCancelled:
		return orders.ChangeRestore
	case delta >= 0:
		return orders.ChangeAddition
	default:
		return orders.ChangeDeduction
	}
}

func magnitude(delta int) int {
	if delta < 0 {
		return -delta
	}
	return delta
}
