package order

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusDelivered OrderStatus = "delivered"
)

// Valid reports whether s is one of the known fulfillment states.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPickedUp, StatusDelivered:
		return true
	}
	return false
}

// Order is an immutable snapshot of a cart line taken at checkout. The price
// is copied, not referenced; only Status changes afterwards, driven by the
// external fulfillment process.
type Order struct {
	ID         string      `json:"id"`
	UserID     uint        `json:"user_id"`
	SellerID   int         `json:"seller_id"`
	SellerName string      `json:"seller_name"`
	MilkType   string      `json:"milk_type"`
	Price      float64     `json:"price"`
	Quantity   int         `json:"quantity"`
	Total      float64     `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Summary is the checkout pricing breakdown shown before placing an order.
type Summary struct {
	Subtotal    float64 `json:"subtotal"`
	Savings     float64 `json:"savings"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
}

const (
	deliveryFee  = 30.0
	savingsShare = 0.2
)

// Summarize prices a cart subtotal with the direct-to-consumer discount and
// the flat delivery fee.
func Summarize(subtotal float64) Summary {
	savings := subtotal * savingsShare
	return Summary{
		Subtotal:    subtotal,
		Savings:     savings,
		DeliveryFee: deliveryFee,
		Total:       subtotal - savings + deliveryFee,
	}
}
