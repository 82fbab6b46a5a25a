// Package memory: implementasi store in-memory. Dipakai test engine/handler
// dan mode dev (STORE_BACKEND=memory) tanpa Postgres.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/store"
)

type Store struct {
	mu sync.Mutex

	products      map[string]orders.Product
	orderRecs     map[string]orders.Order
	numbers       map[string]string // order_number -> order_id
	itemToOrder   map[string]string // item_id -> order_id
	inventoryLogs []orders.InventoryLog
	orderLogs     []orders.OrderLog
}

func New() *Store {
	return &Store{
		products:    map[string]orders.Product{},
		orderRecs:   map[string]orders.Order{},
		numbers:     map[string]string{},
		itemToOrder: map[string]string{},
	}
}

// WithinTx: serialisasi lewat satu mutex global (cukup utk dev/test);
// rollback = restore snapshot state sebelum fn jalan.
func (s *Store) WithinTx(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&uow{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshotState struct {
	products      map[string]orders.Product
	orderRecs     map[string]orders.Order
	numbers       map[string]string
	itemToOrder   map[string]string
	inventoryLogs []orders.InventoryLog
	orderLogs     []orders.OrderLog
}

func (s *Store) snapshot() snapshotState {
	snap := snapshotState{
		products:      make(map[string]orders.Product, len(s.products)),
		orderRecs:     make(map[string]orders.Order, len(s.orderRecs)),
		numbers:       make(map[string]string, len(s.numbers)),
		itemToOrder:   make(map[string]string, len(s.itemToOrder)),
		inventoryLogs: append([]orders.InventoryLog(nil), s.inventoryLogs...),
		orderLogs:     append([]orders.OrderLog(nil), s.orderLogs...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orderRecs {
		v.Items = append([]orders.OrderItem(nil), v.Items...)
		snap.orderRecs[k] = v
	}
	for k, v := range s.numbers {
		snap.numbers[k] = v
	}
	for k, v := range s.itemToOrder {
		snap.itemToOrder[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshotState) {
	s.products = snap.products
	s.orderRecs = snap.orderRecs
	s.numbers = snap.numbers
	s.itemToOrder = snap.itemToOrder
	s.inventoryLogs = snap.inventoryLogs
	s.orderLogs = snap.orderLogs
}

// ---- unit of work ----

type uow struct{ s *Store }

func (u *uow) LockProduct(ctx context.Context, productID string) (*orders.Product, error) {
	// tx memegang mutex global, jadi lock per-row implisit.
	return u.GetProduct(ctx, productID)
}

func (u *uow) GetProduct(ctx context.Context, productID string) (*orders.Product, error) {
	p, ok := u.s.products[productID]
	if !ok {
		return nil, orders.ErrProductNotFound
	}
	return &p, nil
}

func (u *uow) UpdateProductStock(ctx context.Context, productID string, newStock int) error {
	p, ok := u.s.products[productID]
	if !ok {
		return orders.ErrProductNotFound
	}
	p.Stock = newStock
	p.UpdatedAt = time.Now().UTC()
	u.s.products[productID] = p
	return nil
}

func (u *uow) InsertProduct(ctx context.Context, p *orders.Product) error {
	if _, ok := u.s.products[p.ID]; ok {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	u.s.products[p.ID] = *p
	return nil
}

func (u *uow) InsertOrder(ctx context.Context, o *orders.Order) error {
	if _, ok := u.s.numbers[o.OrderNumber]; ok {
		return fmt.Errorf("order number %s already taken", o.OrderNumber)
	}
	cp := *o
	cp.Items = append([]orders.OrderItem(nil), o.Items...)
	u.s.orderRecs[o.ID] = cp
	u.s.numbers[o.OrderNumber] = o.ID
	for _, it := range o.Items {
		u.s.itemToOrder[it.ID] = o.ID
	}
	return nil
}

func (u *uow) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	o, ok := u.s.orderRecs[orderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	o.Items = append([]orders.OrderItem(nil), o.Items...)
	return &o, nil
}

func (u *uow) UpdateOrder(ctx context.Context, orderID string, from, to orders.Status, total decimal.Decimal) error {
	o, ok := u.s.orderRecs[orderID]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if o.Status != from {
		return orders.ErrStaleOrderStatus
	}
	o.Status = to
	o.TotalAmount = total
	o.UpdatedAt = time.Now().UTC()
	u.s.orderRecs[orderID] = o
	return nil
}

func (u *uow) UpdateItemCancelledQty(ctx context.Context, itemID string, cancelledQty int) error {
	orderID, ok := u.s.itemToOrder[itemID]
	if !ok {
		return fmt.Errorf("order item %s not found", itemID)
	}
	o := u.s.orderRecs[orderID]
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items[i].CancelledQty = cancelledQty
			u.s.orderRecs[orderID] = o
			return nil
		}
	}
	return fmt.Errorf("order item %s not found", itemID)
}

func (u *uow) AppendInventoryLog(ctx context.Context, l *orders.InventoryLog) error {
	u.s.inventoryLogs = append(u.s.inventoryLogs, *l)
	return nil
}

func (u *uow) AppendOrderLog(ctx context.Context, l *orders.OrderLog) error {
	u.s.orderLogs = append(u.s.orderLogs, *l)
	return nil
}

// ---- read path ----

func (s *Store) FindOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orderRecs[orderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	o.Items = append([]orders.OrderItem(nil), o.Items...)
	return &o, nil
}

func (s *Store) FindProduct(ctx context.Context, productID string) (*orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, orders.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

// ---- introspeksi utk test / seeding dev ----

func (s *Store) SeedProduct(p orders.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) InventoryLogs(productID string) []orders.InventoryLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.InventoryLog
	for _, l := range s.inventoryLogs {
		if productID == "" || l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) OrderLogs(orderID string) []orders.OrderLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.OrderLog
	for _, l := range s.orderLogs {
		if orderID == "" || l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out
}
