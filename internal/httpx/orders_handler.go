package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-order-inventory.git/internal/lifecycle"
	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/redisx"
	"github.com/ariefcatur/go-order-inventory.git/internal/store"
)

type OrdersHandler struct {
	Engine *lifecycle.Engine
	Reader store.Reader
	Redis  *redis.Client // boleh nil (test)
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Post("/orders/{id}/confirm", h.confirmOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/orders/{id}/cancel-items", h.cancelOrderItems)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/products", h.createProduct)
	r.Post("/products/{id}/stock", h.adjustStock)
	r.Get("/products", h.listProducts)
}

// ---- DTO ----

type orderItemResp struct {
	ID                string `json:"id"`
	ProductID         string `json:"product_id"`
	Quantity          int    `json:"quantity"`
	CancelledQuantity int    `json:"cancelled_quantity"`
	ActiveQuantity    int    `json:"active_quantity"`
	UnitPrice         string `json:"unit_price"`
	Subtotal          string `json:"subtotal"`
}

type orderResp struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      orders.Status   `json:"status"`
	TotalAmount string          `json:"total_amount"`
	Items       []orderItemResp `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toOrderResp(o *orders.Order) orderResp {
	resp := orderResp{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       make([]orderItemResp, 0, len(o.Items)),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			ID:                it.ID,
			ProductID:         it.ProductID,
			Quantity:          it.Qty,
			CancelledQuantity: it.CancelledQty,
			ActiveQuantity:    it.ActiveQty(),
			UnitPrice:         it.UnitPrice.StringFixed(2),
			Subtotal:          it.Subtotal().StringFixed(2),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Mapping taksonomi error -> status code. Request layer tidak perlu
// inspeksi free-text.
func writeErr(w http.ResponseWriter, err error) {
	var (
		ve *orders.ValidationError
		sc *orders.StateConflictError
		is *orders.InsufficientStockError
		tr *orders.TransientError
	)
	switch {
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, orders.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": ve.Msg, "kind": "validation"})
	case errors.As(err, &sc):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": sc.Error(), "kind": "state_conflict", "status": sc.Status,
		})
	case errors.Is(err, orders.ErrStaleOrderStatus):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "kind": "state_conflict"})
	case errors.As(err, &is):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": is.Error(), "kind": "insufficient_stock",
			"product_id": is.ProductID, "requested": is.Requested, "available": is.Available,
		})
	case errors.As(err, &tr):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "temporary failure, retry", "kind": "transient"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func meta(r *http.Request) lifecycle.Meta {
	return lifecycle.Meta{
		ActorID: r.Header.Get("X-Actor-Id"),
		TraceID: r.Header.Get("X-Request-Id"),
	}
}

// ---- order lifecycle ----

type createOrderReq struct {
	Items []lifecycle.CreateLine `json:"items"`
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.Create(ctx, req.Items, meta(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := toOrderResp(o)
	h.cacheSnapshot(ctx, o.ID, resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrdersHandler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.Confirm(ctx, chi.URLParam(r, "id"), meta(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := toOrderResp(o)
	h.cacheSnapshot(ctx, o.ID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.CancelAll(ctx, chi.URLParam(r, "id"), meta(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := toOrderResp(o)
	h.cacheSnapshot(ctx, o.ID, resp)
	writeJSON(w, http.StatusOK, resp)
}

type cancelItemsReq struct {
	Items []lifecycle.CancelLine `json:"items"`
}

type cancelItemsResp struct {
	Order     orderResp              `json:"order"`
	Cancelled []orders.CancelledLine `json:"cancelled"`
	Message   string                 `json:"message,omitempty"`
}

func (h *OrdersHandler) cancelOrderItems(w http.ResponseWriter, r *http.Request) {
	var req cancelItemsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.CancelItems(ctx, chi.URLParam(r, "id"), req.Items, meta(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := cancelItemsResp{Order: toOrderResp(res.Order), Cancelled: res.Cancelled}
	if len(res.Cancelled) == 0 {
		resp.Message = "nothing to cancel: all requested items already fully cancelled"
	} else {
		h.cacheSnapshot(ctx, res.Order.ID, resp.Order)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderSnapshot, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	// 2) fallback store
	o, err := h.Reader.FindOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := toOrderResp(o)
	h.cacheSnapshot(ctx, orderID, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrdersHandler) cacheSnapshot(ctx context.Context, orderID string, resp orderResp) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderSnapshot, orderID)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderSnapshot).Err()
}

// ---- products ----

func (h *OrdersHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Engine.CreateProduct(ctx, in, meta(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResp(p))
}

type adjustStockReq struct {
	Delta  int                `json:"delta"`
	Reason orders.StockReason `json:"reason"`
}

func (h *OrdersHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	newStock, err := h.Engine.AdjustProductStock(ctx, chi.URLParam(r, "id"), req.Delta, req.Reason, meta(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": chi.URLParam(r, "id"), "stock_quantity": newStock})
}

type productResp struct {
	ID            string    `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
	Price         string    `json:"price"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProductResp(p *orders.Product) productResp {
	return productResp{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		StockQuantity: p.Stock,
		Price:         p.Price.StringFixed(2),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Reader.ListProducts(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]productResp, 0, len(ps))
	for i := range ps {
		out = append(out, toProductResp(&ps[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
