package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	log     *zap.Logger
	workers int
}

// NewConsumer: satu group reader atas beberapa topic (GroupTopics),
// manual offset commit setelah handler sukses.
func NewConsumer(brokers []string, group string, topics []string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, log: log, workers: workers}
}

// Start: dispatcher + worker pool di satu errgroup; error fatal dari salah
// satu worker menghentikan seluruh consumer.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan kafka.Message, 1024)

	for i := 0; i < c.workers; i++ {
		g.Go(func() error {
			for m := range jobs {
				if err := h(ctx, m); err != nil {
					// handler gagal: jangan commit, biarkan redelivery
					if c.log != nil {
						c.log.Warn("handler failed", zap.String("topic", m.Topic), zap.Error(err))
					}
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for {
			m, err := c.r.ReadMessage(ctx)
			if err != nil {
				select {
				case <-ctx.Done():
					return nil // shutdown normal
				default:
					return err
				}
			}
			select {
			case jobs <- m:
			case <-ctx.Done():
				return nil
			}
		}
	})

	return g.Wait()
}
