package events

import (
	"context"
	"time"

	"milkdirect-be/internal/order"
)

const orderCreatedKey = "order.created"

// OrderCreatedEvent is the envelope consumed by the fulfillment workers.
type OrderCreatedEvent struct {
	Event      string    `json:"event"`
	OrderID    string    `json:"order_id"`
	UserID     uint      `json:"user_id"`
	SellerID   int       `json:"seller_id"`
	SellerName string    `json:"seller_name"`
	MilkType   string    `json:"milk_type"`
	Quantity   int       `json:"quantity"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newOrderCreatedEvent(o order.Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		Event:      orderCreatedKey,
		OrderID:    o.ID,
		UserID:     o.UserID,
		SellerID:   o.SellerID,
		SellerName: o.SellerName,
		MilkType:   o.MilkType,
		Quantity:   o.Quantity,
		Total:      o.Total,
		OccurredAt: o.CreatedAt,
	}
}

// OrderNotifier publishes order lifecycle events over AMQP.
type OrderNotifier struct {
	pub *Publisher
}

func NewOrderNotifier(pub *Publisher) *OrderNotifier {
	return &OrderNotifier{pub: pub}
}

func (n *OrderNotifier) OrderCreated(ctx context.Context, o order.Order) error {
	return n.pub.PublishJSON(ctx, orderCreatedKey, newOrderCreatedEvent(o), nil)
}

// NopNotifier is used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) OrderCreated(ctx context.Context, o order.Order) error { return nil }
