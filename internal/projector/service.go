// Package projector: konsumsi event lifecycle dari Kafka dan jaga cache
// status order di Redis utk collaborator reporting. Read-model saja;
// source of truth tetap Postgres + activity log.
package projector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-order-inventory.git/internal/kafka"
	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

type statusRecord struct {
	OrderID     string        `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	Status      orders.Status `json:"status"`
	TotalAmount string        `json:"total_amount"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Handle: dipasang sebagai handler consumer utk semua topic order.*.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// pesan korup: log & commit, redelivery tidak akan menolong
		s.Log.Warn("bad envelope, skipping", zap.String("topic", m.Topic), zap.Error(err))
		return nil
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "projector", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	rec, ok := s.toRecord(env)
	if !ok {
		return nil
	}
	rec.UpdatedAt = env.OccurredAt

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, rec.OrderID)
	if err := s.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err(); err != nil {
		return err
	}
	// snapshot API kemungkinan basi setelah event ini; invalidate
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderSnapshot, rec.OrderID)).Err()

	s.Log.Info("order status projected",
		zap.String("order_id", rec.OrderID),
		zap.String("status", string(rec.Status)),
		zap.String("event_type", env.EventType),
	)
	return nil
}

func (s *Service) toRecord(env orders.Envelope) (statusRecord, bool) {
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return statusRecord{}, false
		}
		return statusRecord{
			OrderID:     p.OrderID,
			OrderNumber: p.OrderNumber,
			Status:      orders.StatusPending,
			TotalAmount: p.TotalAmount.StringFixed(2),
		}, true
	case orders.EventOrderConfirmed:
		p, err := kafkax.UnwrapPayload[orders.OrderConfirmedPayload](env.Payload)
		if err != nil {
			return statusRecord{}, false
		}
		return statusRecord{
			OrderID:     p.OrderID,
			OrderNumber: p.OrderNumber,
			Status:      orders.StatusConfirmed,
			TotalAmount: p.TotalAmount.StringFixed(2),
		}, true
	case orders.EventOrderCancelled, orders.EventOrderPartiallyCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			return statusRecord{}, false
		}
		return statusRecord{
			OrderID:     p.OrderID,
			OrderNumber: p.OrderNumber,
			Status:      p.Status,
			TotalAmount: p.TotalAmount.StringFixed(2),
		}, true
	default:
		return statusRecord{}, false // stock.adjusted dkk bukan urusan projector
	}
}
