package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/store"
)

// Store: implementasi unit of work di atas pgx. Lock product =
// SELECT ... FOR UPDATE, dipegang sampai commit/rollback.
type Store struct{ DB *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) WithinTx(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.Transient(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&uow{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return orders.Transient(err)
	}
	return nil
}

type uow struct{ tx pgx.Tx }

const productCols = `id, sku, name, stock_quantity, price, created_at, updated_at`

func (u *uow) LockProduct(ctx context.Context, productID string) (*orders.Product, error) {
	return scanProduct(u.tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, productID))
}

func (u *uow) GetProduct(ctx context.Context, productID string) (*orders.Product, error) {
	return scanProduct(u.tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1`, productID))
}

func scanProduct(row pgx.Row) (*orders.Product, error) {
	var p orders.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Stock, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrProductNotFound
	}
	if err != nil {
		return nil, orders.Transient(err)
	}
	return &p, nil
}

func (u *uow) UpdateProductStock(ctx context.Context, productID string, newStock int) error {
	ct, err := u.tx.Exec(ctx,
		`UPDATE products SET stock_quantity=$2, updated_at=now() WHERE id=$1`, productID, newStock)
	if err != nil {
		return orders.Transient(err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrProductNotFound
	}
	return nil
}

func (u *uow) InsertProduct(ctx context.Context, p *orders.Product) error {
	_, err := u.tx.Exec(ctx, `
		INSERT INTO products(id, sku, name, stock_quantity, price)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.SKU, p.Name, p.Stock, p.Price)
	return orders.Transient(err)
}

func (u *uow) InsertOrder(ctx context.Context, o *orders.Order) error {
	_, err := u.tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, status, total_amount)
		VALUES ($1, $2, $3, $4)`,
		o.ID, o.OrderNumber, o.Status, o.TotalAmount)
	if err != nil {
		return orders.Transient(err)
	}
	for _, it := range o.Items {
		_, err = u.tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity, cancelled_quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, it.OrderID, it.ProductID, it.Qty, it.CancelledQty, it.UnitPrice)
		if err != nil {
			return orders.Transient(err)
		}
	}
	return nil
}

// GetOrder mengunci baris order (FOR UPDATE) supaya dua transaksi yang
// membaca status order yang sama berjalan serial, bukan sama-sama melihat
// pending lalu sama-sama mengurangi stok.
func (u *uow) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	return fetchOrder(ctx, u.tx, orderID, true)
}

func (u *uow) UpdateOrder(ctx context.Context, orderID string, from, to orders.Status, total decimal.Decimal) error {
	ct, err := u.tx.Exec(ctx,
		`UPDATE orders SET status=$3, total_amount=$4, updated_at=now() WHERE id=$1 AND status=$2`,
		orderID, from, to, total)
	if err != nil {
		return orders.Transient(err)
	}
	if ct.RowsAffected() != 1 {
		// baris ada (GetOrder sudah mengunci) tapi status bukan `from`
		return orders.ErrStaleOrderStatus
	}
	return nil
}

func (u *uow) UpdateItemCancelledQty(ctx context.Context, itemID string, cancelledQty int) error {
	ct, err := u.tx.Exec(ctx,
		`UPDATE order_items SET cancelled_quantity=$2 WHERE id=$1`, itemID, cancelledQty)
	if err != nil {
		return orders.Transient(err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrOrderNotFound
	}
	return nil
}

func (u *uow) AppendInventoryLog(ctx context.Context, l *orders.InventoryLog) error {
	_, err := u.tx.Exec(ctx, `
		INSERT INTO inventory_logs(id, product_id, change_type, quantity_change, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.ProductID, l.ChangeType, l.QtyChange, l.Reason, l.CreatedAt)
	return orders.Transient(err)
}

func (u *uow) AppendOrderLog(ctx context.Context, l *orders.OrderLog) error {
	details, err := json.Marshal(l.Details)
	if err != nil {
		return err
	}
	var actor *string
	if l.ActorID != "" {
		actor = &l.ActorID
	}
	_, err = u.tx.Exec(ctx, `
		INSERT INTO order_logs(id, order_id, activity_type, details, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.OrderID, l.ActivityType, string(details), actor, l.CreatedAt)
	return orders.Transient(err)
}

// ---- read path (tanpa transaksi) ----

func (s *Store) FindOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	return fetchOrder(ctx, s.DB, orderID, false)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func fetchOrder(ctx context.Context, q querier, orderID string, lock bool) (*orders.Order, error) {
	sql := `
		SELECT id, order_number, status, total_amount, created_at, updated_at
		FROM orders WHERE id=$1`
	if lock {
		sql += ` FOR UPDATE`
	}
	var o orders.Order
	err := q.QueryRow(ctx, sql, orderID).
		Scan(&o.ID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, orders.Transient(err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, cancelled_quantity, unit_price
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, orders.Transient(err)
	}
	defer rows.Close()
	for rows.Next() {
		var it orders.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.CancelledQty, &it.UnitPrice); err != nil {
			return nil, orders.Transient(err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, orders.Transient(err)
	}
	return &o, nil
}

func (s *Store) FindProduct(ctx context.Context, productID string) (*orders.Product, error) {
	return scanProduct(s.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1`, productID))
}

func (s *Store) ListProducts(ctx context.Context) ([]orders.Product, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+productCols+` FROM products ORDER BY sku`)
	if err != nil {
		return nil, orders.Transient(err)
	}
	defer rows.Close()

	var out []orders.Product
	for rows.Next() {
		var p orders.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Stock, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, orders.Transient(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, orders.Transient(err)
	}
	return out, nil
}
