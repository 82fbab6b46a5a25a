// Package store mendefinisikan port unit-of-work yang dipakai lifecycle
// engine. Implementasi: postgres (produksi) dan memory (test / dev).
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
)

type Store interface {
	// WithinTx menjalankan fn dalam satu transaksi. Error dari fn (atau
	// commit) -> rollback total; tidak pernah ada mutasi parsial yang
	// ter-commit.
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// UnitOfWork: operasi baca/tulis di dalam satu transaksi. Lock product
// dipegang sampai commit/rollback transaksi, bukan per pemanggilan.
type UnitOfWork interface {
	// LockProduct: SELECT ... FOR UPDATE. Caller wajib mengurutkan
	// product id ascending sebelum lock utk menghindari deadlock.
	LockProduct(ctx context.Context, productID string) (*orders.Product, error)
	GetProduct(ctx context.Context, productID string) (*orders.Product, error)
	UpdateProductStock(ctx context.Context, productID string, newStock int) error
	InsertProduct(ctx context.Context, p *orders.Product) error

	InsertOrder(ctx context.Context, o *orders.Order) error
	// GetOrder membaca order beserta items dalam transaksi yang sama dan
	// MENGUNCI baris order sampai commit/rollback: read-then-decide pada
	// status harus serial antar operasi pada order yang sama.
	GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
	// UpdateOrder hanya mengenai baris jika status masih `from`;
	// status sudah bergeser -> orders.ErrStaleOrderStatus.
	UpdateOrder(ctx context.Context, orderID string, from, to orders.Status, total decimal.Decimal) error
	UpdateItemCancelledQty(ctx context.Context, itemID string, cancelledQty int) error

	AppendInventoryLog(ctx context.Context, l *orders.InventoryLog) error
	AppendOrderLog(ctx context.Context, l *orders.OrderLog) error
}

// Reader: read path di luar transaksi (handler GET).
type Reader interface {
	FindOrder(ctx context.Context, orderID string) (*orders.Order, error)
	ListProducts(ctx context.Context) ([]orders.Product, error)
	FindProduct(ctx context.Context, productID string) (*orders.Product, error)
}
