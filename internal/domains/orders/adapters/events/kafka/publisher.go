package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/domain"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Envelope is the JSON value written for every order event.
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	OccurredAt  time.Time       `json:"occurredAt"`
	AggregateID int64           `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
}

type orderCreatedPayload struct {
	OrderID      int64   `json:"orderId"`
	OrderTableID int64   `json:"orderTableId"`
	OrderStatus  string  `json:"orderStatus"`
	MenuIDs      []int64 `json:"menuIds"`
}

type orderStatusChangedPayload struct {
	OrderID    int64  `json:"orderId"`
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
}

// Publisher writes order events to a Kafka topic keyed by order id, so events of one order share a partition.
type Publisher struct {
	writer MessageWriter
	logger *slog.Logger
	newID  func() string
}

// NewPublisher wraps a writer. A nil logger uses slog.Default.
func NewPublisher(writer MessageWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		writer: writer,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}
}

// NewWriter builds a kafka-go writer for the order topic.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// Publish encodes and writes the events in one batch. Failures are logged and returned.
func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka publisher not configured")
	}
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, event := range events {
		msg, err := p.encode(event)
		if err != nil {
			p.logger.ErrorContext(ctx, "encode order event failed",
				slog.String("event", event.EventName()),
				slog.Int64("order_id", event.AggregateID()),
				slog.String("error", err.Error()))
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.ErrorContext(ctx, "publish order events failed",
			slog.Int("count", len(msgs)),
			slog.String("error", err.Error()))
		return err
	}
	p.logger.DebugContext(ctx, "order events published", slog.Int("count", len(msgs)))
	return nil
}

func (p *Publisher) encode(event domain.Event) (kafkago.Message, error) {
	payload, err := eventPayload(event)
	if err != nil {
		return kafkago.Message{}, err
	}
	value, err := json.Marshal(Envelope{
		ID:          p.newID(),
		Type:        event.EventName(),
		OccurredAt:  event.OccurredAt().UTC(),
		AggregateID: event.AggregateID(),
		Payload:     payload,
	})
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.AggregateID(), 10)),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(event.EventName())},
		},
	}, nil
}

func eventPayload(event domain.Event) (json.RawMessage, error) {
	switch e := event.(type) {
	case domain.OrderCreated:
		return json.Marshal(orderCreatedPayload{
			OrderID:      e.OrderID,
			OrderTableID: e.OrderTableID,
			OrderStatus:  e.OrderStatus.String(),
			MenuIDs:      e.MenuIDs,
		})
	case domain.OrderStatusChanged:
		return json.Marshal(orderStatusChangedPayload{
			OrderID:    e.OrderID,
			FromStatus: e.FromStatus.String(),
			ToStatus:   e.ToStatus.String(),
		})
	default:
		return nil, fmt.Errorf("unsupported order event %T", event)
	}
}
