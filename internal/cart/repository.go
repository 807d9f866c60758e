package cart

import (
	"context"
	"database/sql"
	"fmt"

	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetCartItems(ctx context.Context, userID uint) ([]CartItem, error)
	GetBySeller(ctx context.Context, userID uint, sellerID int) (*CartItem, error)
	CreateCartItem(ctx context.Context, params CreateCartItemParams) (*CartItem, error)
	UpdateQuantity(ctx context.Context, userID uint, itemID string, quantity int) error
	DeleteItem(ctx context.Context, userID uint, itemID string) error
	ClearCart(ctx context.Context, userID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetCartItems(ctx context.Context, userID uint) ([]CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetCartItems"),
		zap.Uint("user_id", userID),
	)

	query := `
	SELECT
		id,
		user_id,
		seller_id,
		seller_name,
		milk_type,
		price,
		quantity,
		created_at,
		updated_at
	FROM cart_items
	WHERE user_id = $1
	ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCart, err)
	}
	defer rows.Close()

	items := make([]CartItem, 0)
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.SellerID,
			&item.SellerName,
			&item.MilkType,
			&item.Price,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFailedGetCart, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCart, err)
	}

	return items, nil
}

func (r *repository) GetBySeller(ctx context.Context, userID uint, sellerID int) (*CartItem, error) {
	query := `
	SELECT
		id,
		user_id,
		seller_id,
		seller_name,
		milk_type,
		price,
		quantity,
		created_at,
		updated_at
	FROM cart_items
	WHERE user_id = $1 AND seller_id = $2
	`

	var item CartItem
	row := r.db.QueryRowContext(ctx, query, userID, sellerID)
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.SellerID,
		&item.SellerName,
		&item.MilkType,
		&item.Price,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *repository) CreateCartItem(ctx context.Context, params CreateCartItemParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateCartItem"),
		zap.Uint("user_id", params.UserID),
		zap.Int("seller_id", params.SellerID),
	)

	log.Debug("start create cart item")

	query := `
	INSERT INTO cart_items (
		user_id,
		seller_id,
		seller_name,
		milk_type,
		price,
		quantity
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING
		id,
		user_id,
		seller_id,
		seller_name,
		milk_type,
		price,
		quantity,
		created_at,
		updated_at
	`

	var item CartItem
	row := r.db.QueryRowContext(
		ctx,
		query,
		params.UserID,
		params.SellerID,
		params.SellerName,
		params.MilkType,
		params.Price,
		params.Quantity,
	)

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.SellerID,
		&item.SellerName,
		&item.MilkType,
		&item.Price,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create cart item", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedCreateCartItem, err)
	}

	log.Info("success create cart item",
		zap.String("cart_item_id", item.ID),
	)

	return &item, nil
}

func (r *repository) UpdateQuantity(ctx context.Context, userID uint, itemID string, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, quantity, itemID, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedUpdateCart, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// DeleteItem is idempotent: deleting an absent line is not an error.
func (r *repository) DeleteItem(ctx context.Context, userID uint, itemID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedRemoveCart, err)
	}

	return nil
}

func (r *repository) ClearCart(ctx context.Context, userID uint) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedClearCart, err)
	}

	return nil
}
