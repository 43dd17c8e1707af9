package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/wichananm65/storefront-backend/internal/order"
)

const eventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type enqueuer interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

// OrderPublisher sends order events keyed by order id, so every event of one
// order lands on the same partition.
type OrderPublisher struct {
	producer enqueuer
	service  string
}

func NewOrderPublisher(p *Producer, service string) *OrderPublisher {
	return &OrderPublisher{producer: p, service: service}
}

func (p *OrderPublisher) Publish(_ context.Context, ev order.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     ev.Type,
		EventVersion:  eventVersion,
		OccurredAt:    ev.OccurredAt.UTC(),
		Producer:      p.service,
		CorrelationID: ev.OrderID,
		Payload:       payload,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", ev.Type, err)
	}
	return p.producer.Publish([]byte(ev.OrderID), b,
		kafka.Header{Key: "x-event-type", Value: []byte(ev.Type)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
	)
}
