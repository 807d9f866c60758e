package order

import (
	"context"
	"database/sql"
	"fmt"

	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	CreateOrders(ctx context.Context, orders []Order) ([]Order, error)
	GetOrders(ctx context.Context, userID uint) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateOrders inserts every order inside one transaction, so checkout either
// records the whole batch or nothing.
func (r *repository) CreateOrders(ctx context.Context, orders []Order) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrders"),
		zap.Int("order_count", len(orders)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin tx", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedCreateOrders, err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO orders (
		user_id,
		seller_id,
		seller_name,
		milk_type,
		price,
		quantity,
		total,
		status
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at
	`

	created := make([]Order, 0, len(orders))
	for _, o := range orders {
		row := tx.QueryRowContext(ctx, query,
			o.UserID,
			o.SellerID,
			o.SellerName,
			o.MilkType,
			o.Price,
			o.Quantity,
			o.Total,
			o.Status,
		)
		if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
			log.Error("failed to insert order",
				zap.Int("seller_id", o.SellerID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrFailedCreateOrders, err)
		}
		created = append(created, o)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit tx", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedCreateOrders, err)
	}

	log.Info("orders created", zap.Int("created", len(created)))
	return created, nil
}

func (r *repository) GetOrders(ctx context.Context, userID uint) ([]Order, error) {
	query := `
	SELECT
		id,
		user_id,
		seller_id,
		seller_name,
		milk_type,
		price,
		quantity,
		total,
		status,
		created_at
	FROM orders
	WHERE user_id = $1
	ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.SellerID,
			&o.SellerName,
			&o.MilkType,
			&o.Price,
			&o.Quantity,
			&o.Total,
			&o.Status,
			&o.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2
	`, status, orderID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
