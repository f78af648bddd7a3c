package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const EventTypeHeader = "event_type"

// MessageWriter kafka.Writer 的最小介面，方便測試替換
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IOrderEventPublisher 訂單事件發佈，於 db commit 之後呼叫
type IOrderEventPublisher interface {
	Publish(ctx context.Context, evt model.OrderEvent) error
	Close() error
}

type OrderEventProducer struct {
	writer MessageWriter
}

func NewOrderEventProducer(writer MessageWriter) *OrderEventProducer {
	if writer == nil {
		panic("kafka writer cannot be nil")
	}
	return &OrderEventProducer{writer: writer}
}

// NewKafkaWriter 以 order id 做 hash，同一張訂單的事件進同一個 partition
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func (p *OrderEventProducer) Publish(ctx context.Context, evt model.OrderEvent) error {
	msg, err := convertToMessage(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OrderEventProducer) Close() error {
	return p.writer.Close()
}

func convertToMessage(evt model.OrderEvent) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   EventTypeHeader,
				Value: []byte(evt.Type),
			},
		},
		Time: time.UnixMilli(evt.OccurredAt),
	}, nil
}

// LogPublisher 沒有設定 KAFKA_BROKERS 時只寫 log
type LogPublisher struct {
	logger *zerolog.Logger
}

func NewLogPublisher(logger *zerolog.Logger) *LogPublisher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, evt model.OrderEvent) error {
	p.logger.Info().
		Str("event_type", string(evt.Type)).
		Str("order_id", evt.OrderID).
		Str("user_id", evt.UserID).
		Strs("product_ids", evt.ProductIDs).
		Msg("order event")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
