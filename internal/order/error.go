package order

import "errors"

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrOrderNotFound      = errors.New("order not found")
	ErrForbidden          = errors.New("forbidden")
	ErrFailedCreateOrders = errors.New("failed to create orders")
	ErrFailedClearCart    = errors.New("orders placed but failed to clear cart")
)
