package order

import (
	"context"

	"milkdirect-be/internal/auth"
	"milkdirect-be/internal/cart"
	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

// Notifier publishes order lifecycle events for the external fulfillment
// process. Publish failures must never fail a checkout.
type Notifier interface {
	OrderCreated(ctx context.Context, o Order) error
}

type Service interface {
	Checkout(ctx context.Context, session auth.Session) ([]Order, error)
	ListOrders(ctx context.Context, session auth.Session) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, session auth.Session, orderID string, status OrderStatus) error
	CartSummary(ctx context.Context, session auth.Session) (*Summary, error)
}

type service struct {
	repo     Repository
	cartRepo cart.Repository
	notifier Notifier
}

func NewService(repo Repository, cartRepo cart.Repository, notifier Notifier) Service {
	return &service{
		repo:     repo,
		cartRepo: cartRepo,
		notifier: notifier,
	}
}

// Checkout converts the user's cart into pending orders. The whole batch is
// written in one transaction; the cart is cleared only after the batch
// succeeds. A failed clear leaves both the orders and the stale cart lines in
// place and surfaces the error to the caller.
func (s *service) Checkout(ctx context.Context, session auth.Session) ([]Order, error) {
	if !session.Valid() {
		return nil, auth.ErrUnauthenticated
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("user_id", session.UserID),
	)

	items, err := s.cartRepo.GetCartItems(ctx, session.UserID)
	if err != nil {
		log.Error("failed to load cart", zap.Error(err))
		return nil, err
	}

	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	orders := make([]Order, 0, len(items))
	for _, item := range items {
		orders = append(orders, Order{
			UserID:     session.UserID,
			SellerID:   item.SellerID,
			SellerName: item.SellerName,
			MilkType:   item.MilkType,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Total:      item.Price * float64(item.Quantity),
			Status:     StatusPending,
		})
	}

	created, err := s.repo.CreateOrders(ctx, orders)
	if err != nil {
		log.Error("batch insert failed, cart left untouched", zap.Error(err))
		return nil, err
	}

	for _, o := range created {
		if err := s.notifier.OrderCreated(ctx, o); err != nil {
			log.Warn("order event publish failed",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
		}
	}

	if err := s.cartRepo.ClearCart(ctx, session.UserID); err != nil {
		// No compensating action: the orders stand, the stale lines stay.
		log.Error("cart clear failed after checkout", zap.Error(err))
		return created, ErrFailedClearCart
	}

	log.Info("checkout completed", zap.Int("orders", len(created)))
	return created, nil
}

func (s *service) ListOrders(ctx context.Context, session auth.Session) ([]Order, error) {
	if !session.Valid() {
		return nil, auth.ErrUnauthenticated
	}
	return s.repo.GetOrders(ctx, session.UserID)
}

// UpdateOrderStatus is the hook for the external fulfillment process.
func (s *service) UpdateOrderStatus(ctx context.Context, session auth.Session, orderID string, status OrderStatus) error {
	if !session.Valid() {
		return auth.ErrUnauthenticated
	}
	if !session.IsAdmin() {
		return ErrForbidden
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, orderID, status)
}

// CartSummary prices the current cart for the checkout screen.
func (s *service) CartSummary(ctx context.Context, session auth.Session) (*Summary, error) {
	if !session.Valid() {
		return nil, auth.ErrUnauthenticated
	}

	items, err := s.cartRepo.GetCartItems(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	totals := cart.ComputeTotals(items)
	summary := Summarize(totals.Price)
	return &summary, nil
}
