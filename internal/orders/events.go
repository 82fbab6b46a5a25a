package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated            = "OrderCreated"
	EventOrderConfirmed          = "OrderConfirmed"
	EventOrderCancelled          = "OrderCancelled"
	EventOrderPartiallyCancelled = "OrderPartiallyCancelled"
	EventStockAdjusted           = "StockAdjusted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "order-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type ItemLine struct {
	OrderItemID string          `json:"order_item_id"`
	ProductID   string          `json:"product_id"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Items       []ItemLine      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderConfirmedPayload struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type CancelledLine struct {
	OrderItemID string `json:"order_item_id"`
	ProductID   string `json:"product_id"`
	Qty         int    `json:"qty"`      // qty yang benar-benar dibatalkan di operasi ini
	Restored    bool   `json:"restored"` // true jika stok dikembalikan (order sudah deducted)
}

type OrderCancelledPayload struct {
	OrderID        string          `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	PreviousTotal  decimal.Decimal `json:"previous_total"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         Status          `json:"status"` // cancelled | partially_cancelled
	CancelledLines []CancelledLine `json:"cancelled_lines,omitempty"`
}

type StockAdjustedPayload struct {
	ProductID  string      `json:"product_id"`
	ChangeType ChangeType  `json:"change_type"`
	QtyChange  int         `json:"qty_change"` // magnitude
	Reason     StockReason `json:"reason"`
	NewStock   int         `json:"new_stock"`
}
