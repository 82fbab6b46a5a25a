// Package lifecycle: orkestrasi create/confirm/cancel/cancel-items.
// Setiap operasi = satu unit of work; lock product diambil ascending by id;
// gagal di tengah -> rollback total, tidak ada deduksi/cancel parsial.
package lifecycle

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-inventory.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-order-inventory.git/internal/kafka"
	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/store"
)

// Publisher: sink event lifecycle (Kafka di produksi, fake di test).
// Publish terjadi SETELAH commit; activity log di dalam tx adalah source
// of truth, event hanya notifikasi best-effort.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

type Engine struct {
	Store        store.Store
	Ledger       inventory.Ledger
	Events       Publisher // boleh nil (test)
	Log          *zap.Logger
	Service      string
	NumberPrefix string // default "ORD"
}

type CreateLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"quantity"`
}

type CancelLine struct {
	OrderItemID string `json:"order_item_id"`
	Qty         int    `json:"quantity"`
}

// Meta: atribusi request (header X-Actor-Id / X-Request-Id di handler).
type Meta struct {
	ActorID string
	TraceID string
}

// Create: validasi line + cek stok optimistik (fast-fail, TANPA deduksi;
// confirm yang otoritatif), snapshot unit price, order pending + log created.
func (e *Engine) Create(ctx context.Context, lines []CreateLine, meta Meta) (*orders.Order, error) {
	if len(lines) == 0 {
		return nil, orders.Validationf("order must have at least one line")
	}
	for _, ln := range lines {
		if ln.Qty <= 0 {
			return nil, orders.Validationf("invalid quantity %d for product %s", ln.Qty, ln.ProductID)
		}
	}

	now := time.Now().UTC()
	o := &orders.Order{
		ID:          uuid.NewString(),
		OrderNumber: orders.NewOrderNumber(e.prefix(), now),
		Status:      orders.StatusPending,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := e.Store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		// baca product urut by id; create tidak mengambil lock
		sorted := append([]CreateLine(nil), lines...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

		for _, ln := range sorted {
			p, err := uow.GetProduct(ctx, ln.ProductID)
			if err != nil {
				if errors.Is(err, orders.ErrProductNotFound) {
					return orders.Validationf("unknown product %s", ln.ProductID)
				}
				return err
			}
			if p.Stock < ln.Qty {
				return orders.Validationf("requested quantity %d for product %s exceeds available stock %d",
					ln.Qty, ln.ProductID, p.Stock)
			}
			it := orders.OrderItem{
				ID:        uuid.NewString(),
				OrderID:   o.ID,
				ProductID: ln.ProductID,
				Qty:       ln.Qty,
				UnitPrice: p.Price,
			}
			o.Items = append(o.Items, it)
			o.TotalAmount = o.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(ln.Qty))))
		}

		if err := uow.InsertOrder(ctx, o); err != nil {
			return err
		}
		return uow.AppendOrderLog(ctx, &orders.OrderLog{
			ID:           uuid.NewString(),
			OrderID:      o.ID,
			ActivityType: orders.ActivityCreated,
			Details: map[string]any{
				"order_number": o.OrderNumber,
				"total_amount": o.TotalAmount,
				"item_count":   len(o.Items),
			},
			ActorID:   meta.ActorID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	e.logOp("order created", o, meta)
	e.publish(orders.TopicOrderCreated, orders.EventOrderCreated, o.ID, meta.TraceID, orders.OrderCreatedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Items:       toItemLines(o.Items),
		TotalAmount: o.TotalAmount,
	})
	return o, nil
}

// Confirm: pending -> confirmed. Re-validasi stok di bawah lock per item
// (urut product id) lalu deduksi lewat ledger; satu item kurang stok ->
// seluruh operasi batal.
func (e *Engine) Confirm(ctx context.Context, orderID string, meta Meta) (*orders.Order, error) {
	var o *orders.Order
	err := e.Store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		var err error
		o, err = uow.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != orders.StatusPending {
			return &orders.StateConflictError{OrderID: orderID, Status: o.Status, Op: "confirm"}
		}

		for _, it := range sortedByProduct(o.Items) {
			// AdjustStock lock product + tolak over-deduction
			if _, err := e.Ledger.AdjustStock(ctx, uow, it.ProductID, -it.Qty, orders.ReasonOrderConfirmed); err != nil {
				return err
			}
		}

		o.Status = orders.StatusConfirmed
		if err := uow.UpdateOrder(ctx, orderID, orders.StatusPending, o.Status, o.TotalAmount); err != nil {
			return err
		}
		return uow.AppendOrderLog(ctx, &orders.OrderLog{
			ID:           uuid.NewString(),
			OrderID:      orderID,
			ActivityType: orders.ActivityConfirmed,
			Details:      map[string]any{"total_amount": o.TotalAmount},
			ActorID:      meta.ActorID,
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	e.logOp("order confirmed", o, meta)
	e.publish(orders.TopicOrderConfirmed, orders.EventOrderConfirmed, o.ID, meta.TraceID, orders.OrderConfirmedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		TotalAmount: o.TotalAmount,
	})
	return o, nil
}

// CancelAll: batalkan seluruh order. Restore stok hanya jika stok memang
// pernah dipotong (confirmed / partially_cancelled); pending murni
// bookkeeping. Cancel kedua kali = StateConflictError, bukan no-op:
// transisi ini diaudit dan tidak idempoten by design.
func (e *Engine) CancelAll(ctx context.Context, orderID string, meta Meta) (*orders.Order, error) {
	var o *orders.Order
	var prevTotal decimal.Decimal
	err := e.Store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		var err error
		o, err = uow.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == orders.StatusCancelled {
			return &orders.StateConflictError{OrderID: orderID, Status: o.Status, Op: "cancel"}
		}

		deducted := o.Status.Deducted()
		prevStatus := o.Status
		prevTotal = o.TotalAmount
		var cancelled []orders.CancelledLine

		for _, it := range sortedByProduct(o.Items) {
			active := it.ActiveQty()
			if active == 0 {
				continue
			}
			if deducted {
				if _, err := e.Ledger.AdjustStock(ctx, uow, it.ProductID, active, orders.ReasonOrderCancelled); err != nil {
					return err
				}
			}
			if err := uow.UpdateItemCancelledQty(ctx, it.ID, it.Qty); err != nil {
				return err
			}
			cancelled = append(cancelled, orders.CancelledLine{
				OrderItemID: it.ID,
				ProductID:   it.ProductID,
				Qty:         active,
				Restored:    deducted,
			})
		}
		for i := range o.Items {
			o.Items[i].CancelledQty = o.Items[i].Qty
		}

		o.Status = orders.StatusCancelled
		o.TotalAmount = decimal.Zero
		if err := uow.UpdateOrder(ctx, orderID, prevStatus, o.Status, o.TotalAmount); err != nil {
			return err
		}
		return uow.AppendOrderLog(ctx, &orders.OrderLog{
			ID:           uuid.NewString(),
			OrderID:      orderID,
			ActivityType: orders.ActivityCancelled,
			Details: map[string]any{
				"previous_total":  prevTotal,
				"total_amount":    o.TotalAmount,
				"cancelled_lines": cancelled,
			},
			ActorID:   meta.ActorID,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	e.logOp("order cancelled", o, meta)
	e.publish(orders.TopicOrderCancelled, orders.EventOrderCancelled, o.ID, meta.TraceID, orders.OrderCancelledPayload{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		PreviousTotal: prevTotal,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
	})
	return o, nil
}

// CancelItemsResult: Cancelled kosong = tidak ada yang efektif dibatalkan
// (semua line sudah fully cancelled) -> hasil informasional, bukan error.
type CancelItemsResult struct {
	Order     *orders.Order
	Cancelled []orders.CancelledLine
}

// CancelItems: batalkan sebagian unit per item. Seluruh line divalidasi
// dulu; satu line invalid membatalkan seluruh call. Setelah semua line
// diproses, total dan status dihitung ulang dari seluruh item.
func (e *Engine) CancelItems(ctx context.Context, orderID string, lines []CancelLine, meta Meta) (*CancelItemsResult, error) {
	if len(lines) == 0 {
		return nil, orders.Validationf("no items to cancel")
	}

	res := &CancelItemsResult{}
	var prevTotal decimal.Decimal
	err := e.Store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		o, err := uow.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == orders.StatusCancelled {
			return &orders.StateConflictError{OrderID: orderID, Status: o.Status, Op: "cancel_items"}
		}
		res.Order = o

		// fase 1: validasi semua line sebelum mutasi apa pun.
		// Item yang sudah fully cancelled -> skip (zero effective), bukan error.
		planned := map[string]int{} // item id -> qty yang akan dibatalkan
		for _, ln := range lines {
			it, ok := o.Item(ln.OrderItemID)
			if !ok {
				return orders.Validationf("order item %s does not belong to order %s", ln.OrderItemID, orderID)
			}
			remaining := it.ActiveQty() - planned[it.ID]
			if remaining == 0 {
				continue
			}
			if ln.Qty <= 0 || ln.Qty > remaining {
				return orders.Validationf("cannot cancel %d of item %s: %d remaining", ln.Qty, it.ID, remaining)
			}
			planned[it.ID] += ln.Qty
		}
		if len(planned) == 0 {
			// semua line sudah fully cancelled: tanpa mutasi, tanpa log
			return nil
		}

		deducted := o.Status.Deducted()
		prevStatus := o.Status
		prevTotal = o.TotalAmount

		// fase 2: mutasi, urut product id utk lock ordering stabil
		for _, i := range sortedIdx(o.Items) {
			it := &o.Items[i]
			q, ok := planned[it.ID]
			if !ok {
				continue
			}
			if deducted {
				if _, err := e.Ledger.AdjustStock(ctx, uow, it.ProductID, q, orders.ReasonOrderCancelled); err != nil {
					return err
				}
			}
			it.CancelledQty += q
			if err := uow.UpdateItemCancelledQty(ctx, it.ID, it.CancelledQty); err != nil {
				return err
			}
			res.Cancelled = append(res.Cancelled, orders.CancelledLine{
				OrderItemID: it.ID,
				ProductID:   it.ProductID,
				Qty:         q,
				Restored:    deducted,
			})
		}

		// hitung ulang dari SEMUA item, bukan hanya yang disentuh
		o.TotalAmount = o.ActiveTotal()
		o.Status = nextStatusAfterPartial(o)
		if err := uow.UpdateOrder(ctx, orderID, prevStatus, o.Status, o.TotalAmount); err != nil {
			return err
		}

		activity := orders.ActivityPartiallyCancelled
		if o.Status == orders.StatusCancelled {
			activity = orders.ActivityCancelled
		}
		return uow.AppendOrderLog(ctx, &orders.OrderLog{
			ID:           uuid.NewString(),
			OrderID:      orderID,
			ActivityType: activity,
			Details: map[string]any{
				"previous_total":  prevTotal,
				"total_amount":    o.TotalAmount,
				"cancelled_lines": res.Cancelled,
			},
			ActorID:   meta.ActorID,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if len(res.Cancelled) == 0 {
		return res, nil // informasional: tidak ada yang dibatalkan
	}

	o := res.Order
	e.logOp("order items cancelled", o, meta)
	topic, event := orders.TopicOrderPartiallyCancelled, orders.EventOrderPartiallyCancelled
	if o.Status == orders.StatusCancelled {
		topic, event = orders.TopicOrderCancelled, orders.EventOrderCancelled
	}
	e.publish(topic, event, o.ID, meta.TraceID, orders.OrderCancelledPayload{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		PreviousTotal:  prevTotal,
		TotalAmount:    o.TotalAmount,
		Status:         o.Status,
		CancelledLines: res.Cancelled,
	})
	return res, nil
}

// Status setelah partial cancel:
//   - semua item fully cancelled -> cancelled (berlaku juga utk pending)
//   - ada yang cancelled & order di jalur confirmed -> partially_cancelled
//   - pending dengan partial cancel TETAP pending. Kebijakan eksplisit:
//     order yang belum dikonfirmasi tidak pernah menampilkan status
//     partial-cancellation.
func nextStatusAfterPartial(o *orders.Order) orders.Status {
	if o.IsFullyCancelled() {
		return orders.StatusCancelled
	}
	if o.Status == orders.StatusPending {
		return orders.StatusPending
	}
	for _, it := range o.Items {
		if it.CancelledQty > 0 {
			return orders.StatusPartiallyCancelled
		}
	}
	return o.Status
}

// ---- stok manual (di luar lifecycle order) ----

// AdjustProductStock: penyesuaian stok admin. Reason terbatas ke
// manual_update / stock_correction; jalur order memakai Confirm/Cancel.
func (e *Engine) AdjustProductStock(ctx context.Context, productID string, delta int, reason orders.StockReason, meta Meta) (int, error) {
	if reason != orders.ReasonManualUpdate && reason != orders.ReasonStockCorrection {
		return 0, orders.Validationf("invalid adjustment reason %q", reason)
	}
	if delta == 0 {
		return 0, orders.Validationf("zero delta adjustment")
	}

	var newStock int
	err := e.Store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		var err error
		newStock, err = e.Ledger.AdjustStock(ctx, uow, productID, delta, reason)
		return err
	})
	if err != nil {
		return 0, err
	}

	changeType := orders.ChangeAddition
	mag := delta
	if delta < 0 {
		changeType, mag = orders.ChangeDeduction, -delta
	}
	e.publish(orders.TopicStockAdjusted, orders.EventStockAdjusted, productID, meta.TraceID, orders.StockAdjustedPayload{
		ProductID:  productID,
		ChangeType: changeType,
		QtyChange:  mag,
		Reason:     reason,
		NewStock:   newStock,
	})
	return newStock, nil
}

type CreateProductInput struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	OpeningStock int             `json:"opening_stock"`
}

// CreateProduct: product baru, opening stock masuk lewat ledger dengan
// reason initial_stock supaya ikut teraudit.
func (e *Engine) CreateProduct(ctx context.Context, in CreateProductInput, meta Meta) (*orders.Product, error) {
	if in.SKU == "" || in.Name == "" {
		return nil, orders.Validationf("sku and name are required")
	}
	if in.Price.IsNegative() {
		return nil, orders.Validationf("price must not be negative")
	}
	if in.OpeningStock < 0 {
		return nil, orders.Validationf("opening stock must not be negative")
	}

	now := time.Now().UTC()
	p := &orders.Product{
		ID:        uuid.NewString(),
		SKU:       in.SKU,
		Name:      in.Name,
		Price:     in.Price.Round(2),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := e.Store.WithinTx(ctx, func(uow store.UnitOfWork) error {
		if err := uow.InsertProduct(ctx, p); err != nil {
			return err
		}
		if in.OpeningStock > 0 {
			stock, err := e.Ledger.AdjustStock(ctx, uow, p.ID, in.OpeningStock, orders.ReasonInitialStock)
			if err != nil {
				return err
			}
			p.Stock = stock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ---- helpers ----

func (e *Engine) prefix() string {
	if e.NumberPrefix == "" {
		return "ORD"
	}
	return e.NumberPrefix
}

func (e *Engine) logOp(msg string, o *orders.Order, meta Meta) {
	if e.Log == nil {
		return
	}
	e.Log.Info(msg,
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("status", string(o.Status)),
		zap.String("total_amount", o.TotalAmount.StringFixed(2)),
		zap.String("actor_id", meta.ActorID),
	)
}

func (e *Engine) publish(topic, eventType, correlationID, traceID string, payload any) {
	if e.Events == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	e.Events.Publish(topic, orders.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func sortedByProduct(items []orders.OrderItem) []orders.OrderItem {
	out := append([]orders.OrderItem(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func sortedIdx(items []orders.OrderItem) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return items[idx[a]].ProductID < items[idx[b]].ProductID })
	return idx
}

func toItemLines(items []orders.OrderItem) []orders.ItemLine {
	out := make([]orders.ItemLine, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemLine{
			OrderItemID: it.ID,
			ProductID:   it.ProductID,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPrice,
		})
	}
	return out
}
