package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string
	SKU       string
	Name      string
	Stock     int
	Price     decimal.Decimal // 2 desimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID          string
	OrderNumber string // unik global, ORD-YYYYMMDD-XXXXXX
	Status      Status // lihat status.go
	TotalAmount decimal.Decimal
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID           string
	OrderID      string
	ProductID    string
	Qty          int             // immutable setelah create
	CancelledQty int             // monoton naik, 0..Qty
	UnitPrice    decimal.Decimal // snapshot harga saat create, tidak pernah di-update
}

// ---- inventory log ----

type ChangeType string

const (
	ChangeAddition  ChangeType = "addition"
	ChangeDeduction ChangeType = "deduction"
	ChangeRestore   ChangeType = "restore"
)

type StockReason string

const (
	ReasonOrderConfirmed  StockReason = "order_confirmed"
	ReasonOrderCancelled  StockReason = "order_cancelled"
	ReasonManualUpdate    StockReason = "manual_update"
	ReasonStockCorrection StockReason = "stock_correction"
	ReasonInitialStock    StockReason = "initial_stock"
)

// InventoryLog immutable; QtyChange selalu magnitude positif,
// arah perubahan ada di ChangeType.
type InventoryLog struct {
	ID         string
	ProductID  string
	ChangeType ChangeType
	QtyChange  int
	Reason     StockReason
	CreatedAt  time.Time
}

// ---- order activity log ----

type ActivityType string

const (
	ActivityCreated            ActivityType = "created"
	ActivityConfirmed          ActivityType = "confirmed"
	ActivityCancelled          ActivityType = "cancelled"
	ActivityPartiallyCancelled ActivityType = "partially_cancelled"
	ActivityUpdated            ActivityType = "updated"
)

type OrderLog struct {
	ID           string
	OrderID      string
	ActivityType ActivityType
	Details      map[string]any // payload terstruktur (total, delta per item, dst)
	ActorID      string         // opsional
	CreatedAt    time.Time
}
