package cart

import (
	"context"

	"milkdirect-be/internal/auth"
	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

// Service defines the business logic for carts. Every operation takes the
// caller's session explicitly; there is no ambient current user.
type Service interface {
	AddItem(ctx context.Context, session auth.Session, params AddItemParams) (*CartItem, error)
	GetCart(ctx context.Context, session auth.Session) ([]CartItem, error)
	UpdateQuantity(ctx context.Context, session auth.Session, itemID string, quantity int) error
	RemoveItem(ctx context.Context, session auth.Session, itemID string) error
	Clear(ctx context.Context, session auth.Session) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AddItem adds a seller's listing to the user's cart. Cart identity is keyed
// on the seller alone: a second add from the same seller increments the
// existing line even when the milk type differs.
func (s *service) AddItem(
	ctx context.Context,
	session auth.Session,
	params AddItemParams,
) (*CartItem, error) {

	if !session.Valid() {
		return nil, auth.ErrUnauthenticated
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddItem"),
		zap.Uint("user_id", session.UserID),
		zap.Int("seller_id", params.SellerID),
	)

	existing, err := s.repo.GetBySeller(ctx, session.UserID, params.SellerID)
	if err != nil {
		log.Error("failed to look up existing line", zap.Error(err))
		return nil, err
	}

	if existing != nil {
		newQty := existing.Quantity + 1
		if err := s.repo.UpdateQuantity(ctx, session.UserID, existing.ID, newQty); err != nil {
			log.Error("failed to merge cart line", zap.Error(err))
			return nil, err
		}
		existing.Quantity = newQty
		log.Info("merged into existing line", zap.String("cart_item_id", existing.ID))
		return existing, nil
	}

	item, err := s.repo.CreateCartItem(ctx, CreateCartItemParams{
		UserID:     session.UserID,
		SellerID:   params.SellerID,
		SellerName: params.SellerName,
		MilkType:   params.MilkType,
		Price:      params.Price,
		Quantity:   1,
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (s *service) GetCart(ctx context.Context, session auth.Session) ([]CartItem, error) {
	if !session.Valid() {
		return nil, auth.ErrUnauthenticated
	}
	return s.repo.GetCartItems(ctx, session.UserID)
}

// UpdateQuantity persists the new quantity; anything below 1 removes the line
// instead, so a zero quantity never reaches the store.
func (s *service) UpdateQuantity(ctx context.Context, session auth.Session, itemID string, quantity int) error {
	if !session.Valid() {
		return auth.ErrUnauthenticated
	}

	if quantity < 1 {
		return s.RemoveItem(ctx, session, itemID)
	}

	return s.repo.UpdateQuantity(ctx, session.UserID, itemID, quantity)
}

// RemoveItem deletes the line; removing an already absent line succeeds.
func (s *service) RemoveItem(ctx context.Context, session auth.Session, itemID string) error {
	if !session.Valid() {
		return auth.ErrUnauthenticated
	}
	return s.repo.DeleteItem(ctx, session.UserID, itemID)
}

func (s *service) Clear(ctx context.Context, session auth.Session) error {
	if !session.Valid() {
		return auth.ErrUnauthenticated
	}
	return s.repo.ClearCart(ctx, session.UserID)
}
