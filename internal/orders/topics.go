package orders

const (
	TopicOrderCreated            = "order.created"
	TopicOrderConfirmed          = "order.confirmed"
	TopicOrderCancelled          = "order.cancelled"
	TopicOrderPartiallyCancelled = "order.partially_cancelled"
	TopicStockAdjusted           = "inventory.stock.adjusted"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
