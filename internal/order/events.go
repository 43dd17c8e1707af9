package order

import (
	"context"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCancelled = "OrderCancelled"
)

type Event struct {
	Type        string      `json:"-"`
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	UserID      string      `json:"user_id"`
	Status      Status      `json:"status"`
	TotalAmount int64       `json:"total_amount"`
	Items       []EventItem `json:"items,omitempty"`
	OccurredAt  time.Time   `json:"-"`
}

type EventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func newEvent(typ string, o Order, at time.Time) Event {
	ev := Event{
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  at,
	}
	for _, l := range o.Lines {
		ev.Items = append(ev.Items, EventItem{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}
	return ev
}
