package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/IBM/sarama"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// Dispatcher hands notifications to the external delivery system.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) error
}

// KafkaDispatcher publishes notifications as JSON messages keyed by order.
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaDispatcher builds a dispatcher around an existing producer.
func NewKafkaDispatcher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{producer: producer, topic: topic, logger: logger}
}

// Dispatch publishes n. The call blocks until the broker acknowledges the write.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, n model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(n.OrderID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(n.Kind)},
		},
	}

	partition, offset, err := d.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	d.logger.Debug("notification published",
		slog.String("kind", string(n.Kind)),
		slog.Int64("order_id", n.OrderID),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

// Close releases the producer.
func (d *KafkaDispatcher) Close() error {
	return d.producer.Close()
}

// LogDispatcher writes notifications to the log. Used when no broker is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a log-only dispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, n model.Notification) error {
	level := slog.LevelInfo
	if n.Kind == model.NotifyOperatorAlert {
		level = slog.LevelError
	}
	d.logger.Log(context.Background(), level, "notification",
		slog.String("kind", string(n.Kind)),
		slog.Int64("order_id", n.OrderID),
		slog.String("order_number", n.OrderNumber),
		slog.String("email", n.Email),
		slog.String("message", n.Message),
	)
	return nil
}
