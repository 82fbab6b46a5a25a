package redisx

import "time"

const (
	// Snapshot order terakhir: order:{order_id} -> JSON order
	KeyOrderSnapshot = "order:%s"

	// Status ringkas utk reporting: order_status:{order_id} -> {"status":...}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderSnapshot = 5 * time.Minute
	TTLStatusCache   = 24 * time.Hour
	TTLDedup         = 48 * time.Hour
)
